package logger

import (
	"io"
	"log/slog"
	"os"
)

// New creates a structured logger. With debug disabled, everything is
// discarded; with it enabled, debug-level records go to stderr.
func New(debug bool) *slog.Logger {
	var handler slog.Handler

	if !debug {
		handler = slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.LevelError,
		})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	return slog.New(handler)
}
