package chunk

import (
	"strings"

	"github.com/randalmurphal/astchunk/internal/apperr"
	"github.com/randalmurphal/astchunk/internal/span"
	"github.com/randalmurphal/astchunk/internal/syntax"
)

// Chunk is one window rendered back to source text.
type Chunk struct {
	// Text is the reconstructed body. Size, line numbers and metadata
	// always describe Text, never the expansion header.
	Text      string
	Header    string
	Range     span.ByteRange
	StartLine int
	EndLine   int
	Size      int
	Ancestors []string
	NodeCount int
	Metadata  Metadata

	Window []ScopedNode
}

// LineCount returns the number of lines the body spans.
func (c *Chunk) LineCount() int {
	return c.EndLine - c.StartLine + 1
}

// Content returns the body, preceded by the expansion header if one was applied.
func (c *Chunk) Content() string {
	if c.Header == "" {
		return c.Text
	}
	return c.Header + "\n" + c.Text
}

// Assemble renders a window into a Chunk. tags is the set of scope-introducing
// node types used to build the ancestor path.
func Assemble(window []ScopedNode, tags map[string]struct{}) (*Chunk, error) {
	if len(window) == 0 {
		return nil, apperr.New(apperr.CodeEmptyWindow, "cannot assemble a chunk from an empty window")
	}

	first, last := window[0].Node, window[len(window)-1].Node
	text := rebuild(window)

	return &Chunk{
		Text:      text,
		Range:     span.ByteRange{Start: first.StartByte, Stop: last.EndByte},
		StartLine: first.StartPoint.Row,
		EndLine:   last.EndPoint.Row,
		Size:      span.CountDirect(text),
		Ancestors: ancestorPath(window[0].Ancestors, tags),
		NodeCount: len(window),
		Window:    window,
	}, nil
}

// rebuild restores the whitespace between nodes from their row/column spans.
// The first line keeps the first node's indentation.
func rebuild(window []ScopedNode) string {
	var b strings.Builder

	first := window[0].Node
	line, col := first.StartPoint.Row, first.StartPoint.Column
	b.WriteString(strings.Repeat(" ", col))

	for _, sn := range window {
		n := sn.Node
		if n.StartPoint.Row > line {
			b.WriteString(strings.Repeat("\n", n.StartPoint.Row-line))
			line, col = n.StartPoint.Row, 0
		}
		if n.StartPoint.Column > col {
			b.WriteString(strings.Repeat(" ", n.StartPoint.Column-col))
		}
		b.WriteString(n.Text)
		line, col = n.EndPoint.Row, n.EndPoint.Column
	}

	return b.String()
}

func ancestorPath(ancestors []*syntax.Node, tags map[string]struct{}) []string {
	path := []string{}
	for _, a := range ancestors {
		if _, ok := tags[a.Type]; ok {
			path = append(path, a.FirstLine())
		}
	}
	return path
}
