package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/astchunk/internal/chunk"
	"github.com/randalmurphal/astchunk/internal/indexer"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"7d", 7 * 24 * time.Hour},
		{"1d", 24 * time.Hour},
		{"24h", 24 * time.Hour},
		{"90m", 90 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDuration(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseDuration("soon")
	assert.Error(t, err)
}

func TestDetectIncludes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "setup.py"), []byte("x = 1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "App.java"), []byte("class App {}\n"), 0o644))

	got := detectIncludes(dir)
	assert.Equal(t, []string{"**/*.py", "**/*.pyi", "**/*.java"}, got)
}

func TestDetectIncludes_FallsBackToDefaults(t *testing.T) {
	got := detectIncludes(t.TempDir())
	assert.Equal(t, indexer.DefaultIncludes, got)

	got[0] = "changed"
	assert.NotEqual(t, "changed", indexer.DefaultIncludes[0])
}

func TestDetectDefaultBranch(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "main", detectDefaultBranch(dir))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "HEAD"), []byte("ref: refs/heads/develop\n"), 0o644))
	assert.Equal(t, "develop", detectDefaultBranch(dir))
}

func TestRepoMetadataFor(t *testing.T) {
	meta := repoMetadataFor("pkg/calc.py", map[string]string{chunk.KeyRepo: "demo", chunk.KeyFilename: "override.py"})
	assert.Equal(t, "pkg/calc.py", meta[chunk.KeyFilePath])
	assert.Equal(t, "pkg/calc.py", meta[chunk.KeyFpathTuple])
	assert.Equal(t, "override.py", meta[chunk.KeyFilename])
	assert.Equal(t, "demo", meta[chunk.KeyRepo])

	stdin := repoMetadataFor("-", nil)
	assert.Empty(t, stdin)
}

func TestWriteJSON_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := writeJSON(&buf, "xml", []int{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestChunkCommand_JSONL(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "calc.py")
	require.NoError(t, os.WriteFile(src, []byte("def add(a, b):\n    return a + b\n\n\ndef sub(a, b):\n    return a - b\n"), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config", filepath.Join(dir, "missing.yaml"), "chunk", src, "--format", "jsonl"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		chunkFormat = "text"
		globalCfg = nil
	})

	require.NoError(t, rootCmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)

	var rec chunk.Record
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "python", rec.Language)
	assert.Equal(t, filepath.ToSlash(src), rec.FilePath)
	assert.Equal(t, 0, rec.StartLine)
	assert.Equal(t, 5, rec.EndLine)
	assert.Contains(t, rec.Content, "def sub(a, b):")
}

func TestParseByteRange(t *testing.T) {
	r, err := parseByteRange("10:200")
	require.NoError(t, err)
	assert.Equal(t, 10, r.Start)
	assert.Equal(t, 200, r.Stop)

	for _, in := range []string{"10", "a:5", "5:b", "9:3"} {
		_, err := parseByteRange(in)
		assert.Error(t, err, in)
	}
}

func TestInspectCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "calc.py")
	require.NoError(t, os.WriteFile(src, []byte("def add(a, b):\n    return a + b\n\n\ndef sub(a, b):\n    return a - b\n"), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config", filepath.Join(dir, "missing.yaml"), "inspect", src, "--byte-range", "0:32", "--json"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		inspectByteRange = ""
		inspectJSON = false
		globalCfg = nil
	})

	require.NoError(t, rootCmd.Execute())

	var report chunk.RangeReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, "python", string(report.Language))
	assert.Equal(t, 21, report.Largest)
	require.NotEmpty(t, report.Nodes)
	assert.Equal(t, "function_definition", report.Nodes[0].Type)
	assert.Equal(t, 31, report.Nodes[0].ByteStop)
	assert.Equal(t, "def add(a, b):", report.Nodes[0].Signature)
	for _, n := range report.Nodes {
		assert.LessOrEqual(t, n.ByteStop, 32)
	}
}
