package metrics

import (
	"bufio"
	"encoding/json"
	"os"
	"sort"
	"time"
)

// Analyzer processes metrics logs.
type Analyzer struct {
	logPath string
	now     func() time.Time
}

// NewAnalyzer creates a new analyzer.
func NewAnalyzer(logPath string) *Analyzer {
	return &Analyzer{logPath: logPath, now: time.Now}
}

// Summary contains aggregated metrics.
type Summary struct {
	Period         string         `json:"period"`
	FilesChunked   int            `json:"files_chunked"`
	ChunksProduced int            `json:"chunks_produced"`
	ByLanguage     map[string]int `json:"by_language"`
	AvgLatencyMs   int64          `json:"avg_latency_ms"`
	AvgChunkSize   int            `json:"avg_chunk_size"`
	CacheHits      int            `json:"cache_hits"`
	Errors         int            `json:"errors"`
	ErrorsByCode   map[string]int `json:"errors_by_code"`
	IndexRuns      int            `json:"index_runs"`
	TopFailures    []FileCount    `json:"top_failures"`
}

// FileCount represents a file with its count.
type FileCount struct {
	File  string `json:"file"`
	Count int    `json:"count"`
}

// CacheHitRate is the share of chunked files served from cache.
func (s *Summary) CacheHitRate() float64 {
	if s.FilesChunked == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(s.FilesChunked)
}

// Analyze processes logs for a time period.
func (a *Analyzer) Analyze(since time.Duration) (*Summary, error) {
	summary := &Summary{
		Period:       since.String(),
		ByLanguage:   make(map[string]int),
		ErrorsByCode: make(map[string]int),
	}

	failures := make(map[string]int)
	var totalLatency int64
	var totalSize int

	err := a.scan(since, func(eventType string, event map[string]any) {
		switch eventType {
		case EventChunkRun:
			summary.FilesChunked++
			if lang, ok := event["language"].(string); ok {
				summary.ByLanguage[lang]++
			}
			if n, ok := event["chunks"].(float64); ok {
				summary.ChunksProduced += int(n)
			}
			if n, ok := event["total_size"].(float64); ok {
				totalSize += int(n)
			}
			if latency, ok := event["latency_ms"].(float64); ok {
				totalLatency += int64(latency)
			}
			if hit, ok := event["cache_hit"].(bool); ok && hit {
				summary.CacheHits++
			}
		case EventFileError:
			summary.Errors++
			code, _ := event["code"].(string)
			if code == "" {
				code = "UNKNOWN"
			}
			summary.ErrorsByCode[code]++
			if file, ok := event["file"].(string); ok {
				failures[file]++
			}
		case EventIndexUpdate:
			summary.IndexRuns++
		}
	})
	if err != nil {
		return nil, err
	}

	if summary.FilesChunked > 0 {
		summary.AvgLatencyMs = totalLatency / int64(summary.FilesChunked)
	}
	if summary.ChunksProduced > 0 {
		summary.AvgChunkSize = totalSize / summary.ChunksProduced
	}
	summary.TopFailures = topFiles(failures, 10)

	return summary, nil
}

// FailedFiles returns files that failed to chunk, most frequent first.
func (a *Analyzer) FailedFiles(since time.Duration) ([]FileCount, error) {
	failures := make(map[string]int)
	err := a.scan(since, func(eventType string, event map[string]any) {
		if eventType != EventFileError {
			return
		}
		if file, ok := event["file"].(string); ok {
			failures[file]++
		}
	})
	if err != nil {
		return nil, err
	}
	return topFiles(failures, 0), nil
}

// scan calls fn for every well-formed event newer than since.
func (a *Analyzer) scan(since time.Duration, fn func(string, map[string]any)) error {
	file, err := os.Open(a.logPath)
	if err != nil {
		return err
	}
	defer file.Close()

	cutoff := a.now().Add(-since)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var event map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}

		tsStr, ok := event["ts"].(string)
		if !ok {
			continue
		}
		ts, err := time.Parse(time.RFC3339, tsStr)
		if err != nil || ts.Before(cutoff) {
			continue
		}

		eventType, _ := event["event"].(string)
		fn(eventType, event)
	}
	return scanner.Err()
}

// topFiles sorts by count then name. limit <= 0 keeps everything.
func topFiles(counts map[string]int, limit int) []FileCount {
	out := make([]FileCount, 0, len(counts))
	for f, c := range counts {
		out = append(out, FileCount{File: f, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].File < out[j].File
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
