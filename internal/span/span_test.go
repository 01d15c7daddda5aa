package span

import (
	"sort"
	"testing"

	"github.com/randalmurphal/astchunk/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsInvertedRange(t *testing.T) {
	_, err := New(5, 2)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeInvalidRange))

	r, err := New(3, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())
}

func TestContains(t *testing.T) {
	outer := rng(0, 10)

	assert.True(t, outer.Contains(rng(0, 10)))
	assert.True(t, outer.Contains(rng(2, 5)))
	assert.True(t, outer.Contains(rng(10, 10)))
	assert.False(t, outer.Contains(rng(5, 11)))
	assert.False(t, rng(2, 5).Contains(outer))
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b ByteRange
		want bool
	}{
		{"disjoint", rng(0, 2), rng(3, 5), false},
		{"adjacent", rng(0, 2), rng(2, 4), false},
		{"partial", rng(0, 3), rng(2, 4), true},
		{"nested", rng(0, 10), rng(4, 5), true},
		{"empty inside", rng(0, 10), rng(4, 4), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestLessSorts(t *testing.T) {
	ranges := []ByteRange{rng(4, 9), rng(0, 3), rng(4, 6)}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Less(ranges[j]) })

	assert.Equal(t, []ByteRange{rng(0, 3), rng(4, 6), rng(4, 9)}, ranges)
	assert.Equal(t, "[0, 3)", ranges[0].String())
}

func TestPrefixMatchesDirect(t *testing.T) {
	inputs := []string{
		"",
		"   \t\n",
		"x",
		"def add(a, b):\n    return a + b\n",
		"a\vb\fc\rd",
		"héllo wörld",
	}

	for _, in := range inputs {
		sums := Build([]byte(in))
		require.Len(t, sums, len(in)+1)

		assert.Equal(t, CountDirect(in), sums.Count(rng(0, len(in))), "input %q", in)

		for start := 0; start <= len(in); start++ {
			for stop := start; stop <= len(in); stop++ {
				assert.Equal(t, CountDirect(in[start:stop]), sums.Count(rng(start, stop)))
			}
		}
	}
}

func TestCountDirectCountsBytes(t *testing.T) {
	// "é" is two bytes in UTF-8.
	assert.Equal(t, 2, CountDirect("é"))
	assert.Equal(t, 0, CountDirect(" \t\n\r\v\f"))
	assert.Equal(t, 9, CountDirect("return a + b"))
}

func rng(start, stop int) ByteRange {
	return ByteRange{Start: start, Stop: stop}
}
