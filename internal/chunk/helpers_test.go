package chunk

import (
	"strings"

	"github.com/randalmurphal/astchunk/internal/syntax"
)

// node builds a syntax node over src[start:end] with row/column computed from src.
func node(src, typ string, start, end int, children ...*syntax.Node) *syntax.Node {
	return &syntax.Node{
		Type:       typ,
		StartByte:  start,
		EndByte:    end,
		StartPoint: pointAt(src, start),
		EndPoint:   pointAt(src, end),
		Text:       src[start:end],
		Children:   children,
	}
}

func pointAt(src string, off int) syntax.Point {
	head := src[:off]
	return syntax.Point{
		Row:    strings.Count(head, "\n"),
		Column: off - (strings.LastIndex(head, "\n") + 1),
	}
}

func unitTexts(units []ScopedNode) []string {
	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.Node.Text
	}
	return texts
}
