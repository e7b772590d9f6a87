package clockcache

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with cache-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithLevel tags log records with the cache level name: "direct" or "clock"
// for standalone caches, "l1" and "l2" inside a MultiLevel.
func (l *Logger) WithLevel(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("cache", name),
	}
}

// WithSlot adds a producer slot field to the logger.
func (l *Logger) WithSlot(slot int) *Logger {
	return &Logger{
		Logger: l.Logger.With("slot", slot),
	}
}

// LogWriteBack logs a failed write-back of a dirty entry.
func (l *Logger) LogWriteBack(ctx context.Context, key any, err error) {
	if err == nil {
		return
	}
	l.WarnContext(ctx, "write-back failed",
		"key", key,
		"error", err,
	)
}

// LogLoad logs a failed read-miss load.
func (l *Logger) LogLoad(ctx context.Context, key any, err error) {
	if err == nil {
		return
	}
	l.WarnContext(ctx, "load failed",
		"key", key,
		"error", err,
	)
}

// LogFlush logs the outcome of a flush.
func (l *Logger) LogFlush(ctx context.Context, written, failed int) {
	if failed > 0 {
		l.WarnContext(ctx, "flush completed with failures",
			"written", written,
			"failed", failed,
		)
	} else {
		l.DebugContext(ctx, "flush completed",
			"written", written,
		)
	}
}
