// Package parser provides tree-sitter based parsing into plain syntax trees.
package parser

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/randalmurphal/astchunk/internal/apperr"
	"github.com/randalmurphal/astchunk/internal/lang"
	"github.com/randalmurphal/astchunk/internal/syntax"
)

// Pool keeps reusable tree-sitter parsers per language. A sitter.Parser is
// not safe for concurrent use, so each Parse call borrows its own.
type Pool struct {
	mu    sync.Mutex
	pools map[lang.ID]*sync.Pool
}

// NewPool creates an empty parser pool.
func NewPool() *Pool {
	return &Pool{pools: make(map[lang.ID]*sync.Pool)}
}

var defaultPool = NewPool()

// Default returns the process-wide pool.
func Default() *Pool {
	return defaultPool
}

func (p *Pool) forEntry(e *lang.Entry) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()

	sp, ok := p.pools[e.ID]
	if !ok {
		grammar := e.Grammar()
		sp = &sync.Pool{New: func() any {
			tsp := sitter.NewParser()
			tsp.SetLanguage(grammar)
			return tsp
		}}
		p.pools[e.ID] = sp
	}
	return sp
}

// Parse parses src with the grammar registered for language.
func (p *Pool) Parse(ctx context.Context, language string, src []byte) (*syntax.Tree, error) {
	entry, err := lang.Lookup(language)
	if err != nil {
		return nil, err
	}
	return p.ParseEntry(ctx, entry, src)
}

// ParseEntry parses src with the grammar of an already resolved entry.
func (p *Pool) ParseEntry(ctx context.Context, entry *lang.Entry, src []byte) (*syntax.Tree, error) {
	sp := p.forEntry(entry)
	sitterParser := sp.Get().(*sitter.Parser)
	defer sp.Put(sitterParser)

	tree, err := sitterParser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeParseFailed, fmt.Sprintf("parse %s source", entry.ID), err)
	}
	defer tree.Close()

	return &syntax.Tree{
		Root:   convertNode(tree.RootNode(), src),
		Source: src,
	}, nil
}

// convertNode copies a tree-sitter node and its subtree into syntax.Nodes.
func convertNode(n *sitter.Node, src []byte) *syntax.Node {
	start, end := n.StartPoint(), n.EndPoint()
	node := &syntax.Node{
		Type:       n.Type(),
		StartByte:  int(n.StartByte()),
		EndByte:    int(n.EndByte()),
		StartPoint: syntax.Point{Row: int(start.Row), Column: int(start.Column)},
		EndPoint:   syntax.Point{Row: int(end.Row), Column: int(end.Column)},
		Text:       n.Content(src),
	}

	count := int(n.ChildCount())
	if count > 0 {
		node.Children = make([]*syntax.Node, 0, count)
		for i := 0; i < count; i++ {
			if child := n.Child(i); child != nil {
				node.Children = append(node.Children, convertNode(child, src))
			}
		}
	}
	return node
}
