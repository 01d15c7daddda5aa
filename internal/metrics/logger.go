// Package metrics provides JSONL event logging for chunking runs.
package metrics

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// Event names written to the metrics log.
const (
	EventChunkRun    = "chunk_run"
	EventFileError   = "file_error"
	EventIndexUpdate = "index_update"
)

// Logger writes metrics events to JSONL file.
type Logger struct {
	file *os.File
	mu   sync.Mutex
	now  func() time.Time
}

// NewLogger creates a new metrics logger.
func NewLogger(path string) (*Logger, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	return &Logger{file: file, now: time.Now}, nil
}

// Close closes the log file.
func (l *Logger) Close() error {
	return l.file.Close()
}

func (l *Logger) log(event string, data map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := map[string]any{
		"ts":    l.now().UTC().Format(time.RFC3339),
		"event": event,
	}
	for k, v := range data {
		e[k] = v
	}

	line, _ := json.Marshal(e)
	line = append(line, '\n')
	_, _ = l.file.Write(line)
}

// ChunkRun describes one file passing through the chunker.
type ChunkRun struct {
	Repo      string
	File      string
	Language  string
	Chunks    int
	TotalSize int
	Latency   time.Duration
	CacheHit  bool
}

// LogChunkRun logs a successfully chunked file.
func (l *Logger) LogChunkRun(r ChunkRun) {
	l.log(EventChunkRun, map[string]any{
		"repo":       r.Repo,
		"file":       r.File,
		"language":   r.Language,
		"chunks":     r.Chunks,
		"total_size": r.TotalSize,
		"latency_ms": r.Latency.Milliseconds(),
		"cache_hit":  r.CacheHit,
	})
}

// LogFileError logs a file the chunker rejected. code is the error code, if any.
func (l *Logger) LogFileError(file, code, message string) {
	l.log(EventFileError, map[string]any{
		"file":    file,
		"code":    code,
		"message": message,
	})
}

// LogIndexUpdate logs an index update event.
func (l *Logger) LogIndexUpdate(repo string, files, chunks, failed int, duration time.Duration) {
	l.log(EventIndexUpdate, map[string]any{
		"repo":        repo,
		"files":       files,
		"chunks":      chunks,
		"failed":      failed,
		"duration_ms": duration.Milliseconds(),
	})
}
