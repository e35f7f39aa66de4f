// Package logging builds the slog.Logger shared by the GoHM daemon, the
// policy executor, and the CLI. Output goes to stderr; stdout is reserved for
// command output.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options selects the handler configuration.
type Options struct {
	// Level is "debug", "info", "warn" or "error"; unrecognized values
	// (and "") mean info.
	Level string
	// Format is "json" for structured output; anything else selects the
	// human-readable text handler.
	Format string
	// Writer overrides the destination; nil means os.Stderr.
	Writer io.Writer
}

// New constructs a logger from Options.
func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	hopts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	if strings.EqualFold(opts.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

// Discard returns a logger that drops everything; used in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel converts a string log level to slog.Level. Unrecognized values
// map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
