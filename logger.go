package hnswgo

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with hnswgo-specific context. This provides
// structured logging with consistent field names across Add/Query/Delete.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler. If handler is
// nil, uses a default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(handler)}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable
	})
	return &Logger{Logger: slog.New(handler)}
}

// WithLabel adds a label field to the logger.
func (l *Logger) WithLabel(lbl Label) *Logger {
	return &Logger{Logger: l.Logger.With("label", int64(lbl))}
}

// WithK adds a k (neighbor count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{Logger: l.Logger.With("k", k)}
}

// WithCount adds a count field to the logger, used for batch operations.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{Logger: l.Logger.With("count", count)}
}

// LogInsert logs a single Add.
func (l *Logger) LogInsert(ctx context.Context, lbl Label, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add failed", "label", int64(lbl), "error", err)
		return
	}
	l.DebugContext(ctx, "add completed", "label", int64(lbl))
}

// LogBatchInsert logs an AddBatch.
func (l *Logger) LogBatchInsert(ctx context.Context, count, failed int) {
	if failed > 0 {
		l.WarnContext(ctx, "batch add completed with failures", "total", count, "failed", failed)
		return
	}
	l.DebugContext(ctx, "batch add completed", "count", count)
}

// LogSearch logs a Query.
func (l *Logger) LogSearch(ctx context.Context, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed", "k", k, "error", err)
		return
	}
	l.DebugContext(ctx, "query completed", "k", k, "results", resultsFound)
}

// LogDelete logs a Delete.
func (l *Logger) LogDelete(ctx context.Context, lbl Label, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed", "label", int64(lbl), "error", err)
		return
	}
	l.DebugContext(ctx, "delete completed", "label", int64(lbl))
}

// LogSnapshot logs a Save or SaveToFile.
func (l *Logger) LogSnapshot(ctx context.Context, op string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed", "op", op, "error", err)
		return
	}
	l.InfoContext(ctx, "snapshot completed", "op", op)
}
