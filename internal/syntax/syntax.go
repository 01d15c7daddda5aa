// Package syntax holds the plain syntax tree the chunker walks. Trees are
// copied out of the native parser so nothing outlives the parse call.
package syntax

import (
	"strings"

	"github.com/randalmurphal/astchunk/internal/span"
)

// ErrorType is the node type the parser assigns to regions it could not parse.
const ErrorType = "ERROR"

// Point is a 0-based row and byte column.
type Point struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// Node is one syntax tree node.
type Node struct {
	Type       string
	StartByte  int
	EndByte    int
	StartPoint Point
	EndPoint   Point
	Children   []*Node
	// Text is the exact source the node spans, without surrounding whitespace.
	Text string
}

// Tree is a parsed source buffer.
type Tree struct {
	Root   *Node
	Source []byte
}

// Range returns the node's byte range.
func (n *Node) Range() span.ByteRange {
	return span.ByteRange{Start: n.StartByte, Stop: n.EndByte}
}

// IsError reports whether the node marks a parse error.
func (n *Node) IsError() bool {
	return n.Type == ErrorType
}

// FirstLine returns the node text up to the first newline.
func (n *Node) FirstLine() string {
	line, _, _ := strings.Cut(n.Text, "\n")
	return line
}

// Walk visits n and its descendants in pre-order until fn returns false for
// a node, in which case that node's children are skipped.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
