package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/randalmurphal/astchunk/internal/chunk"
)

// JSONLSink writes one JSON object per record, newline separated.
type JSONLSink struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
}

// NewJSONLSink writes to w. Close does not close w.
func NewJSONLSink(w io.Writer) *JSONLSink {
	return &JSONLSink{enc: json.NewEncoder(w)}
}

// OpenJSONLFile appends to the file at path, creating it if needed.
func OpenJSONLFile(path string) (*JSONLSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open jsonl sink: %w", err)
	}
	return &JSONLSink{enc: json.NewEncoder(f), closer: f}, nil
}

func (s *JSONLSink) Write(ctx context.Context, records []chunk.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.enc.Encode(&records[i]); err != nil {
			return fmt.Errorf("encode record %s: %w", records[i].ID, err)
		}
	}
	return nil
}

func (s *JSONLSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
