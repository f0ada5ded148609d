package scriptmetric

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with aggregation-specific context.
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
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithAggregation tags the logger with an aggregation name and execution id.
func (l *Logger) WithAggregation(name, execution string) *Logger {
	return &Logger{
		Logger: l.Logger.With("aggregation", name, "execution", execution),
	}
}

// LogSegment logs entry into a new segment.
func (l *Logger) LogSegment(ctx context.Context, segment, buckets int) {
	l.DebugContext(ctx, "segment entered",
		"segment", segment,
		"buckets", buckets,
	)
}

// LogBucketCreated logs the first collection into a bucket.
func (l *Logger) LogBucketCreated(ctx context.Context, ord int64, chargedBytes int64) {
	l.DebugContext(ctx, "bucket created",
		"ordinal", ord,
		"charged_bytes", chargedBytes,
	)
}

// LogBudgetExceeded logs a rejected bucket charge.
func (l *Logger) LogBudgetExceeded(ctx context.Context, ord int64, err error) {
	l.WarnContext(ctx, "bucket rejected by memory budget",
		"ordinal", ord,
		"error", err,
	)
}

// LogBuild logs a result extraction.
func (l *Logger) LogBuild(ctx context.Context, ord int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build aggregation failed",
			"ordinal", ord,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "build aggregation completed",
			"ordinal", ord,
		)
	}
}

// LogClose logs release of the aggregation's storage.
func (l *Logger) LogClose(ctx context.Context, buckets int, releasedBytes int64) {
	l.DebugContext(ctx, "aggregation closed",
		"buckets", buckets,
		"released_bytes", releasedBytes,
	)
}
