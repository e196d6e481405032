package ivfstore

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with list-store specific helpers.
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
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))
}

// WithList adds a list field to the logger.
func (l *Logger) WithList(listNo int) *Logger {
	return &Logger{Logger: l.Logger.With("list", listNo)}
}

// LogLoad logs a snapshot load from the backend.
func (l *Logger) LogLoad(ctx context.Context, listNo, entries int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "list load failed",
			"list", listNo,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "list loaded",
		"list", listNo,
		"entries", entries,
	)
}

// LogFlush logs a write-back of both arrays of a list.
func (l *Logger) LogFlush(ctx context.Context, listNo, entries int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "list flush failed",
			"list", listNo,
			"entries", entries,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "list flushed",
		"list", listNo,
		"entries", entries,
	)
}

// LogRollback logs the outcome of restoring an id array after a failed code write.
func (l *Logger) LogRollback(ctx context.Context, listNo int, key string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "id array rollback failed; list arrays may disagree",
			"list", listNo,
			"key", key,
			"error", err,
		)
		return
	}
	l.WarnContext(ctx, "id array restored after failed code write",
		"list", listNo,
		"key", key,
	)
}

// LogMerge logs a merge of another store into this one.
func (l *Logger) LogMerge(ctx context.Context, lists, entries int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "merge failed",
			"lists_merged", lists,
			"entries", entries,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "merge completed",
		"lists_merged", lists,
		"entries", entries,
	)
}

// LogReset logs dropping of cached snapshots.
func (l *Logger) LogReset(ctx context.Context, dropped, borrowed int) {
	if borrowed > 0 {
		l.WarnContext(ctx, "cache reset with outstanding borrows",
			"dropped", dropped,
			"borrowed_lists", borrowed,
		)
		return
	}
	l.DebugContext(ctx, "cache reset",
		"dropped", dropped,
	)
}
