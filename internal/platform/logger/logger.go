package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. JSON output so log lines
// stay machine-parseable in aggregation.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}
