package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.level))
		})
	}
}

func TestNewTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New("debug", "text", &buf)

	logger.Debug("chunkified source", FieldLanguage, "python")

	assert.Contains(t, buf.String(), "chunkified source")
	assert.Contains(t, buf.String(), "language=python")
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New("info", "json", &buf)

	logger.Info("indexed", FieldFiles, 3)

	assert.Contains(t, buf.String(), `"msg":"indexed"`)
	assert.Contains(t, buf.String(), `"files":3`)
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("warn", "json", &buf)

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}
