// Package chunk builds size-bounded, syntax-aligned chunks from parsed source.
package chunk

import (
	"slices"

	"github.com/randalmurphal/astchunk/internal/span"
	"github.com/randalmurphal/astchunk/internal/syntax"
)

// ScopedNode is an atomic unit: a syntax node with its non-whitespace size
// and the chain of nodes enclosing it, root first.
type ScopedNode struct {
	Node      *syntax.Node
	Size      int
	Ancestors []*syntax.Node
}

// Range returns the byte range of the wrapped node.
func (s ScopedNode) Range() span.ByteRange {
	return s.Node.Range()
}

// Policy controls how the tree is flattened into atomic units.
type Policy struct {
	// Container is the root tag whose children are walked in its place.
	Container string
	// Atomic reports node types that are never split, whatever their size.
	Atomic func(nodeType string) bool
}

func (p Policy) atomic(nodeType string) bool {
	return p.Atomic != nil && p.Atomic(nodeType)
}

// Flatten walks root in document order and returns the atomic units.
//
// ERROR subtrees and zero-width nodes are dropped. A node that fits in
// maxSize becomes one unit. A larger node is split into its children unless
// it is a leaf or an atomic type, in which case it is kept whole and will
// form an oversized window on its own.
func Flatten(root *syntax.Node, sums span.Prefix, maxSize int, p Policy) []ScopedNode {
	var (
		units []ScopedNode
		stack []*syntax.Node
	)

	var walk func(n *syntax.Node)
	descend := func(n *syntax.Node) {
		stack = append(stack, n)
		for _, c := range n.Children {
			walk(c)
		}
		stack = stack[:len(stack)-1]
	}

	walk = func(n *syntax.Node) {
		switch {
		case n.IsError():
			return
		case n.Type == p.Container:
			descend(n)
			return
		case n.EndByte <= n.StartByte:
			return
		}

		size := sums.Count(n.Range())
		if size > maxSize && len(n.Children) > 0 && !p.atomic(n.Type) {
			descend(n)
			return
		}

		units = append(units, ScopedNode{
			Node:      n,
			Size:      size,
			Ancestors: slices.Clone(stack),
		})
	}

	walk(root)
	return units
}
