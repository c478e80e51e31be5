package osmextract

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/osmextract/merge"
	"github.com/hupe1980/osmextract/model"
)

// Outcomes reported for leaves and batches.
const (
	OutcomeContained = "contained"
	OutcomeEvaluated = "evaluated"
	OutcomeSkipped   = "skipped"
	OutcomeEmpty     = "empty"
)

// MetricsCollector defines an interface for collecting run metrics.
// PrometheusCollector exports them; BasicMetricsCollector keeps counters in
// memory.
type MetricsCollector interface {
	// RecordLeaf is called for every leaf returned by the tree query.
	// outcome is OutcomeContained or OutcomeEvaluated.
	RecordLeaf(outcome string, tally model.Tally, duration time.Duration, err error)

	// RecordBatch is called for every relation batch candidate.
	RecordBatch(category model.Category, outcome string, tally model.Tally, duration time.Duration, err error)

	// RecordMerge is called after each category merge.
	RecordMerge(category model.Category, stats merge.Stats, duration time.Duration, err error)

	// RecordRun is called once per Execute with the last state reached.
	RecordRun(state State, totals model.Tally, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLeaf(string, model.Tally, time.Duration, error) {}
func (NoopMetricsCollector) RecordBatch(model.Category, string, model.Tally, time.Duration, error) {
}
func (NoopMetricsCollector) RecordMerge(model.Category, merge.Stats, time.Duration, error) {}
func (NoopMetricsCollector) RecordRun(State, model.Tally, time.Duration, error)          {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and tests without external dependencies.
type BasicMetricsCollector struct {
	LeavesContained  atomic.Int64
	LeavesEvaluated  atomic.Int64
	LeafErrors       atomic.Int64
	BatchesContained atomic.Int64
	BatchesEvaluated atomic.Int64
	BatchesSkipped   atomic.Int64
	BatchesEmpty     atomic.Int64
	BatchErrors      atomic.Int64
	MergedEntities   atomic.Int64
	Duplicates       atomic.Int64
	MergeTotalNanos  atomic.Int64
	Runs             atomic.Int64
	RunErrors        atomic.Int64
}

// RecordLeaf implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLeaf(outcome string, _ model.Tally, _ time.Duration, err error) {
	if err != nil {
		b.LeafErrors.Add(1)
		return
	}
	if outcome == OutcomeContained {
		b.LeavesContained.Add(1)
	} else {
		b.LeavesEvaluated.Add(1)
	}
}

// RecordBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatch(_ model.Category, outcome string, _ model.Tally, _ time.Duration, err error) {
	if err != nil {
		b.BatchErrors.Add(1)
		return
	}
	switch outcome {
	case OutcomeContained:
		b.BatchesContained.Add(1)
	case OutcomeEvaluated:
		b.BatchesEvaluated.Add(1)
	case OutcomeEmpty:
		b.BatchesEmpty.Add(1)
	default:
		b.BatchesSkipped.Add(1)
	}
}

// RecordMerge implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMerge(_ model.Category, stats merge.Stats, duration time.Duration, _ error) {
	b.MergedEntities.Add(stats.Written)
	b.Duplicates.Add(stats.Duplicates)
	b.MergeTotalNanos.Add(duration.Nanoseconds())
}

// RecordRun implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRun(_ State, _ model.Tally, _ time.Duration, err error) {
	b.Runs.Add(1)
	if err != nil {
		b.RunErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		LeavesContained:  b.LeavesContained.Load(),
		LeavesEvaluated:  b.LeavesEvaluated.Load(),
		LeafErrors:       b.LeafErrors.Load(),
		BatchesContained: b.BatchesContained.Load(),
		BatchesEvaluated: b.BatchesEvaluated.Load(),
		BatchesSkipped:   b.BatchesSkipped.Load(),
		BatchesEmpty:     b.BatchesEmpty.Load(),
		BatchErrors:      b.BatchErrors.Load(),
		MergedEntities:   b.MergedEntities.Load(),
		Duplicates:       b.Duplicates.Load(),
		MergeTotalNanos:  b.MergeTotalNanos.Load(),
		Runs:             b.Runs.Load(),
		RunErrors:        b.RunErrors.Load(),
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LeavesContained  int64
	LeavesEvaluated  int64
	LeafErrors       int64
	BatchesContained int64
	BatchesEvaluated int64
	BatchesSkipped   int64
	BatchesEmpty     int64
	BatchErrors      int64
	MergedEntities   int64
	Duplicates       int64
	MergeTotalNanos  int64
	Runs             int64
	RunErrors        int64
}
