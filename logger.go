package streamcluster

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with streamcluster-specific context.
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
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
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
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithCapacity adds the capacity bound K to the logger.
func (l *Logger) WithCapacity(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithComponent tags log lines with the emitting component.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("component", name),
	}
}

// LogPhaseTransition logs the end of the initialization phase.
func (l *Logger) LogPhaseTransition(ctx context.Context, centers int, phi float32) {
	l.DebugContext(ctx, "initialization phase finished",
		"centers", centers,
		"phi", phi,
	)
}

// LogCompaction logs a compaction that restored the capacity bound.
func (l *Logger) LogCompaction(ctx context.Context, before, after int, phi float32) {
	l.DebugContext(ctx, "compaction completed",
		"centers_before", before,
		"centers_after", after,
		"phi", phi,
	)
}

// LogFeed logs streaming progress.
func (l *Logger) LogFeed(ctx context.Context, added, centers int, phi float32, err error) {
	if err != nil {
		l.WarnContext(ctx, "feed interrupted",
			"added", added,
			"centers", centers,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "feed progress",
		"added", added,
		"centers", centers,
		"phi", phi,
	)
}

// LogRestore logs a state restore.
func (l *Logger) LogRestore(ctx context.Context, centers int, added uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "restore failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "state restored",
		"centers", centers,
		"added", added,
	)
}

// LogCheckpoint logs a checkpoint write or read.
func (l *Logger) LogCheckpoint(ctx context.Context, op, name string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "checkpoint failed",
			"op", op,
			"name", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "checkpoint "+op,
		"name", name,
		"bytes", size,
	)
}
