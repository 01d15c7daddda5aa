package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/astchunk/internal/apperr"
	"github.com/randalmurphal/astchunk/internal/span"
	"github.com/randalmurphal/astchunk/internal/syntax"
)

func TestAssembleEmptyWindow(t *testing.T) {
	_, err := Assemble(nil, nil)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeEmptyWindow))

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.True(t, ae.Internal())
}

func TestAssembleRestoresWhitespace(t *testing.T) {
	src := "x = 1\n\n    y  = 2"
	window := []ScopedNode{
		{Node: node(src, "stmt", 0, 5)},
		{Node: node(src, "id", 11, 12)},
		{Node: node(src, "rest", 14, 17)},
	}

	c, err := Assemble(window, nil)
	require.NoError(t, err)

	assert.Equal(t, src, c.Text)
	assert.Equal(t, span.ByteRange{Start: 0, Stop: 17}, c.Range)
	assert.Equal(t, 0, c.StartLine)
	assert.Equal(t, 2, c.EndLine)
	assert.Equal(t, 3, c.LineCount())
	assert.Equal(t, 3, c.NodeCount)
	assert.Equal(t, span.CountDirect(c.Text), c.Size)
}

func TestAssembleKeepsFirstNodeIndentation(t *testing.T) {
	src := "class A:\n    def f(self):\n        pass"
	window := []ScopedNode{{Node: node(src, "function_definition", 13, len(src))}}

	c, err := Assemble(window, nil)
	require.NoError(t, err)

	assert.Equal(t, "    def f(self):\n        pass", c.Text)
	assert.Equal(t, 1, c.StartLine)
}

func TestAssembleAncestorPath(t *testing.T) {
	src := "class A:\n    def f(self):\n        x = 1"
	module := node(src, "module", 0, len(src))
	class := node(src, "class_definition", 0, len(src))
	block := node(src, "block", 13, len(src))
	fn := node(src, "function_definition", 13, len(src))
	fnBlock := node(src, "block", 34, len(src))

	tags := map[string]struct{}{"class_definition": {}, "function_definition": {}}
	window := []ScopedNode{{
		Node:      node(src, "expression_statement", 34, len(src)),
		Ancestors: []*syntax.Node{module, class, block, fn, fnBlock},
	}}

	c, err := Assemble(window, tags)
	require.NoError(t, err)

	assert.Equal(t, []string{"class A:", "def f(self):"}, c.Ancestors)
}

func TestAssembleNoAncestorsIsEmptyNotNil(t *testing.T) {
	src := "x = 1"
	c, err := Assemble([]ScopedNode{{Node: node(src, "stmt", 0, 5)}}, nil)
	require.NoError(t, err)

	assert.NotNil(t, c.Ancestors)
	assert.Empty(t, c.Ancestors)
}

func TestContentWithoutHeader(t *testing.T) {
	c := &Chunk{Text: "body"}
	assert.Equal(t, "body", c.Content())

	c.Header = "'''\n'''"
	assert.Equal(t, "'''\n'''\nbody", c.Content())
}
