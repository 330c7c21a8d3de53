package logging

import (
	"io"
	"log/slog"
	"os"
)

// Logger is a thin wrapper over slog.Logger that adds field helpers
type Logger struct {
	*slog.Logger
}

// NewLogger creates a logger writing to stdout.
// Development mode uses a human-readable text handler at debug level,
// production uses JSON at info level.
func NewLogger(isDevelopment bool) *Logger {
	return NewLoggerWithWriter(os.Stdout, isDevelopment)
}

// NewLoggerWithWriter creates a logger writing to w
func NewLoggerWithWriter(w io.Writer, isDevelopment bool) *Logger {
	var handler slog.Handler
	if isDevelopment {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	return &Logger{Logger: slog.New(handler)}
}

// WithFields returns a child logger that always includes the given fields
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{Logger: l.Logger.With(args...)}
}

// With returns a child logger with the given key-value pairs
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}
