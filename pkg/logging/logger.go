// Package logging provides the shared structured logger for the service.
package logging

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger so packages depend on one logging surface.
type Logger struct {
	*slog.Logger
}

// New creates a JSON logger at the given level. Unknown levels fall back
// to info.
func New(level string) *Logger {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return &Logger{Logger: slog.New(handler)}
}

// Default returns an info-level logger.
func Default() *Logger {
	return New("info")
}

// With returns a child logger carrying the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}
