package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metrics.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestAnalyzer(t *testing.T) {
	now := time.Now().UTC()
	recent := now.Add(-time.Minute).Format(time.RFC3339)
	old := now.Add(-48 * time.Hour).Format(time.RFC3339)

	path := writeLog(t,
		`{"ts":"`+recent+`","event":"chunk_run","language":"python","chunks":3,"total_size":90,"latency_ms":10,"cache_hit":false}`,
		`{"ts":"`+recent+`","event":"chunk_run","language":"python","chunks":1,"total_size":30,"latency_ms":0,"cache_hit":true}`,
		`{"ts":"`+recent+`","event":"chunk_run","language":"java","chunks":2,"total_size":40,"latency_ms":20,"cache_hit":false}`,
		`{"ts":"`+recent+`","event":"file_error","file":"m.cpp","code":"UNSUPPORTED_CONSTRUCT","message":"x"}`,
		`{"ts":"`+recent+`","event":"file_error","file":"m.cpp","code":"UNSUPPORTED_CONSTRUCT","message":"x"}`,
		`{"ts":"`+recent+`","event":"file_error","file":"bad.py","message":"x"}`,
		`{"ts":"`+recent+`","event":"index_update","repo":"demo"}`,
		`{"ts":"`+old+`","event":"chunk_run","language":"python","chunks":100}`,
		`not json`,
	)

	summary, err := NewAnalyzer(path).Analyze(24 * time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.FilesChunked)
	assert.Equal(t, 6, summary.ChunksProduced)
	assert.Equal(t, map[string]int{"python": 2, "java": 1}, summary.ByLanguage)
	assert.Equal(t, int64(10), summary.AvgLatencyMs)
	assert.Equal(t, 26, summary.AvgChunkSize)
	assert.Equal(t, 1, summary.CacheHits)
	assert.InDelta(t, 1.0/3.0, summary.CacheHitRate(), 0.001)
	assert.Equal(t, 3, summary.Errors)
	assert.Equal(t, map[string]int{"UNSUPPORTED_CONSTRUCT": 2, "UNKNOWN": 1}, summary.ErrorsByCode)
	assert.Equal(t, 1, summary.IndexRuns)
	require.Len(t, summary.TopFailures, 2)
	assert.Equal(t, FileCount{File: "m.cpp", Count: 2}, summary.TopFailures[0])
}

func TestAnalyzerFailedFiles(t *testing.T) {
	recent := time.Now().UTC().Format(time.RFC3339)
	path := writeLog(t,
		`{"ts":"`+recent+`","event":"file_error","file":"b.py"}`,
		`{"ts":"`+recent+`","event":"file_error","file":"a.py"}`,
		`{"ts":"`+recent+`","event":"chunk_run","file":"c.py"}`,
	)

	files, err := NewAnalyzer(path).FailedFiles(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []FileCount{{File: "a.py", Count: 1}, {File: "b.py", Count: 1}}, files)
}

func TestAnalyzerMissingLog(t *testing.T) {
	_, err := NewAnalyzer(filepath.Join(t.TempDir(), "none.jsonl")).Analyze(time.Hour)
	assert.True(t, os.IsNotExist(err))
}

func TestSummaryCacheHitRateEmpty(t *testing.T) {
	assert.Zero(t, (&Summary{}).CacheHitRate())
}
