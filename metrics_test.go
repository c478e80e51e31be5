package osmextract

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/osmextract/merge"
	"github.com/hupe1980/osmextract/model"
)

func TestBasicMetricsCollector(t *testing.T) {
	mc := &BasicMetricsCollector{}

	mc.RecordLeaf(OutcomeContained, model.Tally{}, time.Millisecond, nil)
	mc.RecordLeaf(OutcomeEvaluated, model.Tally{Points: 3}, time.Millisecond, nil)
	mc.RecordLeaf(OutcomeEvaluated, model.Tally{}, time.Millisecond, errors.New("boom"))
	mc.RecordBatch(model.SimpleRelations, OutcomeSkipped, model.Tally{}, time.Millisecond, nil)
	mc.RecordBatch(model.ComplexRelations, OutcomeEmpty, model.Tally{}, time.Millisecond, nil)
	mc.RecordMerge(model.Points, merge.Stats{Sources: 2, Written: 10, Duplicates: 3}, time.Millisecond, nil)
	mc.RecordRun(StateCleanedUp, model.Tally{}, time.Second, nil)

	stats := mc.GetStats()
	assert.Equal(t, int64(1), stats.LeavesContained)
	assert.Equal(t, int64(1), stats.LeavesEvaluated)
	assert.Equal(t, int64(1), stats.LeafErrors)
	assert.Equal(t, int64(1), stats.BatchesSkipped)
	assert.Equal(t, int64(1), stats.BatchesEmpty)
	assert.Equal(t, int64(10), stats.MergedEntities)
	assert.Equal(t, int64(3), stats.Duplicates)
	assert.Equal(t, int64(1), stats.Runs)
}

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	pc, err := NewPrometheusCollector(reg)
	require.NoError(t, err)

	pc.RecordLeaf(OutcomeContained, model.Tally{}, time.Millisecond, nil)
	pc.RecordLeaf(OutcomeContained, model.Tally{}, time.Millisecond, nil)
	pc.RecordBatch(model.ComplexRelations, OutcomeEvaluated, model.Tally{}, time.Millisecond, nil)
	pc.RecordMerge(model.Polylines, merge.Stats{Written: 5, Duplicates: 2}, time.Millisecond, nil)
	pc.RecordRun(StateRetained, model.Tally{}, time.Second, nil)

	assert.InDelta(t, 2, promtest.ToFloat64(pc.leaves.WithLabelValues(OutcomeContained)), 0)
	assert.InDelta(t, 1, promtest.ToFloat64(pc.batches.WithLabelValues("complex-relations", OutcomeEvaluated)), 0)
	assert.InDelta(t, 5, promtest.ToFloat64(pc.entities.WithLabelValues("polylines")), 0)
	assert.InDelta(t, 2, promtest.ToFloat64(pc.duplicates.WithLabelValues("polylines")), 0)
	assert.InDelta(t, 1, promtest.ToFloat64(pc.runs.WithLabelValues("retained", "success")), 0)

	_, err = NewPrometheusCollector(reg)
	assert.Error(t, err, "duplicate registration")
}
