package osmextract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/osmextract/merge"
	"github.com/hupe1980/osmextract/model"
)

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	l.WithRun("r1").WithBatch(model.ComplexRelations, 7).LogBatch(context.Background(), OutcomeEvaluated, model.Tally{ComplexRelations: 2}, nil)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "r1", rec["run"])
	assert.Equal(t, "batch evaluated", rec["msg"])
	assert.InDelta(t, 2, rec["relations"], 0)
}

func TestLoggerErrors(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewTextHandler(&buf, nil))

	l.LogMerge(context.Background(), merge.Stats{}, 0, errors.New("boom"))
	assert.Contains(t, buf.String(), "merge failed")
	assert.Contains(t, buf.String(), "boom")
}

func TestNoopLogger(t *testing.T) {
	l := NoopLogger()
	l.LogLeaf(context.Background(), false, model.Tally{}, nil)
	l.LogState(context.Background(), StateMerged)
}
