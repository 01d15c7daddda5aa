package chunk

import (
	"github.com/randalmurphal/astchunk/internal/span"
	"github.com/randalmurphal/astchunk/internal/syntax"
)

// Pack greedily groups consecutive units into windows whose summed size stays
// within maxSize. A unit larger than maxSize is placed in a window of its own.
func Pack(units []ScopedNode, maxSize int) [][]ScopedNode {
	var (
		windows [][]ScopedNode
		current []ScopedNode
		size    int
	)

	for _, u := range units {
		if len(current) > 0 && size+u.Size > maxSize {
			windows = append(windows, current)
			current, size = nil, 0
		}
		current = append(current, u)
		size += u.Size
	}
	if len(current) > 0 {
		windows = append(windows, current)
	}

	return windows
}

// Select flattens the tree and packs its units into windows.
func Select(tree *syntax.Tree, maxSize int, p Policy) [][]ScopedNode {
	sums := span.Build(tree.Source)
	return Pack(Flatten(tree.Root, sums, maxSize, p), maxSize)
}
