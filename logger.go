package osmextract

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/osmextract/merge"
	"github.com/hupe1980/osmextract/model"
)

// Logger wraps slog.Logger with extraction-specific context.
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
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithRun tags every record with the run id.
func (l *Logger) WithRun(id string) *Logger {
	return &Logger{Logger: l.Logger.With("run", id)}
}

// WithLeaf adds the leaf name to the logger.
func (l *Logger) WithLeaf(name string) *Logger {
	return &Logger{Logger: l.Logger.With("leaf", name)}
}

// WithBatch adds the batch category and id to the logger.
func (l *Logger) WithBatch(c model.Category, id int64) *Logger {
	return &Logger{Logger: l.Logger.With("category", c.String(), "batch", id)}
}

// WithCategory adds a category field to the logger.
func (l *Logger) WithCategory(c model.Category) *Logger {
	return &Logger{Logger: l.Logger.With("category", c.String())}
}

// LogState logs a state transition.
func (l *Logger) LogState(ctx context.Context, s State) {
	l.DebugContext(ctx, "state", "state", s.String())
}

// LogLeaf logs the outcome of a leaf.
func (l *Logger) LogLeaf(ctx context.Context, contained bool, tally model.Tally, err error) {
	if err != nil {
		l.ErrorContext(ctx, "leaf failed", "error", err)
		return
	}
	if contained {
		l.DebugContext(ctx, "leaf contained")
		return
	}
	l.InfoContext(ctx, "leaf evaluated",
		"points", tally.Points,
		"polylines", tally.Polylines,
		"simple_relations", tally.SimpleRelations,
		"complex_relations", tally.ComplexRelations,
	)
}

// LogBatch logs the outcome of a relation batch.
func (l *Logger) LogBatch(ctx context.Context, outcome string, tally model.Tally, err error) {
	if err != nil {
		l.ErrorContext(ctx, "batch failed", "error", err)
		return
	}
	l.DebugContext(ctx, "batch "+outcome,
		"relations", tally.SimpleRelations+tally.ComplexRelations,
		"extra_points", tally.AdditionalPoints,
		"extra_polylines", tally.AdditionalPolylines,
	)
}

// LogMerge logs a category merge.
func (l *Logger) LogMerge(ctx context.Context, stats merge.Stats, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "merge failed", "error", err)
		return
	}
	l.InfoContext(ctx, "merged",
		"sources", stats.Sources,
		"written", stats.Written,
		"duplicates", stats.Duplicates,
		"duration", d,
	)
}
