// Package store provides the destinations chunk records are written to.
package store

import (
	"context"
	"errors"

	"github.com/randalmurphal/astchunk/internal/chunk"
)

// Sink receives chunk records produced by the indexer.
type Sink interface {
	Write(ctx context.Context, records []chunk.Record) error
	Close() error
}

// FileRemover is implemented by sinks that can drop the chunks of files
// which no longer produce any, such as a file emptied since the last run.
type FileRemover interface {
	RemoveFiles(ctx context.Context, repo string, paths []string) error
}

// FileRef names one file of one repository.
type FileRef struct {
	Repo string
	Path string
}

// FilesIn returns the distinct files of records in first-seen order.
func FilesIn(records []chunk.Record) []FileRef {
	var files []FileRef
	seen := make(map[FileRef]bool)
	for i := range records {
		f := FileRef{Repo: records[i].Repo, Path: records[i].FilePath}
		if !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}
	return files
}

// MultiSink fans every write out to all of its sinks in order.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink combines sinks. Nil entries are ignored.
func NewMultiSink(sinks ...Sink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Len reports how many sinks are attached.
func (m *MultiSink) Len() int {
	return len(m.sinks)
}

// Write stops at the first failing sink.
func (m *MultiSink) Write(ctx context.Context, records []chunk.Record) error {
	if len(records) == 0 {
		return nil
	}
	for _, s := range m.sinks {
		if err := s.Write(ctx, records); err != nil {
			return err
		}
	}
	return nil
}

// RemoveFiles forwards to every sink that supports removal.
func (m *MultiSink) RemoveFiles(ctx context.Context, repo string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	for _, s := range m.sinks {
		if r, ok := s.(FileRemover); ok {
			if err := r.RemoveFiles(ctx, repo, paths); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes every sink and joins their errors.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
