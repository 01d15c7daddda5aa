package span

// IsSpace reports whether b is ASCII whitespace: space, \t, \n, \r, \v or \f.
func IsSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// Prefix holds cumulative non-whitespace counts. Entry i is the count of
// non-whitespace bytes in [0, i).
type Prefix []int

// Build computes the prefix sums for src in one pass.
func Build(src []byte) Prefix {
	sums := make(Prefix, len(src)+1)
	for i, b := range src {
		sums[i+1] = sums[i]
		if !IsSpace(b) {
			sums[i+1]++
		}
	}
	return sums
}

// Count returns the number of non-whitespace bytes in r.
func (p Prefix) Count(r ByteRange) int {
	return p[r.Stop] - p[r.Start]
}

// CountDirect counts non-whitespace bytes in text from scratch.
func CountDirect(text string) int {
	n := 0
	for i := 0; i < len(text); i++ {
		if !IsSpace(text[i]) {
			n++
		}
	}
	return n
}
