// Package logging builds the slog loggers used by the commands.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Field names shared across packages.
const (
	FieldError      = "error"
	FieldPath       = "path"
	FieldFile       = "file"
	FieldLanguage   = "language"
	FieldChunks     = "chunks"
	FieldFiles      = "files"
	FieldRepo       = "repo"
	FieldDurationMS = "duration_ms"
)

// ParseLevel maps a level name to a slog level. Unknown names give info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a logger writing to w. Format "json" emits JSON lines; any
// other format uses the human-readable charm handler. A nil w means stderr.
func New(level, format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl := ParseLevel(level)

	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
	}

	handler := log.NewWithOptions(w, log.Options{
		ReportTimestamp: false,
		ReportCaller:    false,
		Level:           log.Level(lvl),
	})
	return slog.New(handler)
}

// Setup builds a logger and installs it as the slog default.
func Setup(level, format string) *slog.Logger {
	logger := New(level, format, os.Stderr)
	slog.SetDefault(logger)
	return logger
}
