// Package span provides byte-range arithmetic and non-whitespace counting
// over source buffers.
package span

import (
	"fmt"

	"github.com/randalmurphal/astchunk/internal/apperr"
)

// ByteRange is the half-open interval [Start, Stop) of byte offsets.
type ByteRange struct {
	Start int `json:"start"`
	Stop  int `json:"stop"`
}

// New returns the range [start, stop). It fails when stop < start.
func New(start, stop int) (ByteRange, error) {
	if stop < start {
		return ByteRange{}, apperr.Newf(apperr.CodeInvalidRange,
			"a valid range must have start <= stop, got start=%d stop=%d", start, stop)
	}
	return ByteRange{Start: start, Stop: stop}, nil
}

// Len returns the number of bytes in the range.
func (r ByteRange) Len() int {
	return r.Stop - r.Start
}

// Contains reports whether r fully contains other.
func (r ByteRange) Contains(other ByteRange) bool {
	return r.Start <= other.Start && r.Stop >= other.Stop
}

// Overlaps reports whether r and other have a non-empty intersection.
func (r ByteRange) Overlaps(other ByteRange) bool {
	return max(r.Start, other.Start) < min(r.Stop, other.Stop)
}

// Less orders ranges by Start, then by Stop.
func (r ByteRange) Less(other ByteRange) bool {
	if r.Start != other.Start {
		return r.Start < other.Start
	}
	return r.Stop < other.Stop
}

func (r ByteRange) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.Stop)
}
