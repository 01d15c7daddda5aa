package mcp

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/randalmurphal/astchunk/internal/chunk"
)

// cursorTTL bounds how long a page cursor stays valid.
const cursorTTL = 10 * time.Minute

var (
	ErrInvalidCursor = errors.New("invalid cursor")
	ErrCursorExpired = errors.New("cursor expired")
	ErrCursorMoved   = errors.New("cursor belongs to a different input")
)

// pageCursor is the opaque continuation handed back to clients. Chunking is
// deterministic, so a later page re-chunks the same input and slices it.
type pageCursor struct {
	Input     string    `json:"i"`
	Offset    int       `json:"o"`
	CreatedAt time.Time `json:"t"`
}

func encodeCursor(input string, offset int, now time.Time) string {
	data, _ := json.Marshal(pageCursor{Input: input, Offset: offset, CreatedAt: now})
	return base64.URLEncoding.EncodeToString(data)
}

// decodeCursor returns the offset a cursor points at. An empty cursor is the
// first page.
func decodeCursor(s, input string, now time.Time) (int, error) {
	if s == "" {
		return 0, nil
	}
	data, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return 0, ErrInvalidCursor
	}
	var c pageCursor
	if err := json.Unmarshal(data, &c); err != nil || c.Offset < 0 {
		return 0, ErrInvalidCursor
	}
	if now.Sub(c.CreatedAt) > cursorTTL {
		return 0, ErrCursorExpired
	}
	if c.Input != input {
		return 0, ErrCursorMoved
	}
	return c.Offset, nil
}

// inputHash identifies one chunking request: the source plus every option
// that changes the output.
func inputHash(source []byte, opts chunk.Options, codeWindows bool) string {
	h := sha256.New()
	h.Write(source)
	fmt.Fprintf(h, "\x00%s\x00%d\x00%s\x00%t\x00%t", opts.Language, opts.MaxChunkSize, opts.Template, opts.Expand, codeWindows)
	for _, k := range slices.Sorted(maps.Keys(opts.RepoMetadata)) {
		fmt.Fprintf(h, "\x00%s=%s", k, opts.RepoMetadata[k])
	}
	return fmt.Sprintf("%x", h.Sum(nil)[:8])
}

type page struct {
	Items   []map[string]interface{}
	Total   int
	HasMore bool
	Cursor  string
}

// paginate slices items from offset. A non-positive limit returns the rest.
func paginate(items []map[string]interface{}, offset, limit int, input string, now time.Time) page {
	p := page{Total: len(items), Items: []map[string]interface{}{}}
	if offset >= len(items) {
		return p
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		p.HasMore = true
		p.Cursor = encodeCursor(input, offset+limit, now)
		items = items[:limit]
	}
	p.Items = items
	return p
}
