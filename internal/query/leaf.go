package query

import (
	"context"
	"log/slog"

	"github.com/paulmach/osm"

	"github.com/hupe1980/osmextract/entityio"
	"github.com/hupe1980/osmextract/model"
	"github.com/hupe1980/osmextract/predicate"
)

// LeafInputs are the four entity files of a leaf.
type LeafInputs struct {
	Points           entityio.FileInput
	Polylines        entityio.FileInput
	SimpleRelations  entityio.FileInput
	ComplexRelations entityio.FileInput
}

// LeafOutputs receive the six partial results of a leaf evaluation. Every
// writer receives ascending ids. The caller closes them.
type LeafOutputs struct {
	Points              entityio.Writer
	Polylines           entityio.Writer
	SimpleRelations     entityio.Writer
	ComplexRelations    entityio.Writer
	AdditionalPoints    entityio.Writer
	AdditionalPolylines entityio.Writer
}

// LeafEvaluator filters a leaf that intersects but is not contained in the
// query region. It holds no state between calls.
type LeafEvaluator struct {
	Predicate predicate.Predicate
	Logger    *slog.Logger
}

// Evaluate selects the points inside the region, the polylines with at
// least one such point and all relations of the leaf, plus the members
// needed to complete them.
func (e *LeafEvaluator) Evaluate(ctx context.Context, in LeafInputs, out LeafOutputs) (model.Tally, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var tally model.Tally
	var ents entityio.Entities
	if err := entityio.ReadInto(ctx, in.Points, &ents); err != nil {
		return tally, err
	}
	if err := entityio.ReadInto(ctx, in.Polylines, &ents); err != nil {
		return tally, err
	}
	data := newDataset(&ents)

	m := membership{nodes: NewIDSet(), ways: NewIDSet()}
	extra := newExtras()

	for _, n := range data.nodes {
		if !e.Predicate.ContainsPoint(model.NodePoint(n)) {
			continue
		}
		m.nodes.Add(int64(n.ID))
		if err := out.Points.Write(n); err != nil {
			return tally, err
		}
		tally.Points++
	}

	for _, w := range data.ways {
		if !anyNodeIn(w, m.nodes) {
			continue
		}
		m.ways.Add(int64(w.ID))
		extra.addWayNodes(w, m.nodes)
		if err := out.Polylines.Write(w); err != nil {
			return tally, err
		}
		tally.Polylines++
	}
	if err := ctx.Err(); err != nil {
		return tally, err
	}

	n, err := passRelations(ctx, in.SimpleRelations, out.SimpleRelations, m, extra)
	tally.SimpleRelations = n
	if err != nil {
		return tally, err
	}
	n, err = passRelations(ctx, in.ComplexRelations, out.ComplexRelations, m, extra)
	tally.ComplexRelations = n
	if err != nil {
		return tally, err
	}

	tally.AdditionalPolylines, tally.AdditionalPoints, err = extra.write(data, m.nodes, out.AdditionalPolylines, out.AdditionalPoints, logger)
	return tally, err
}

// passRelations streams every relation of in to out and records their
// members.
func passRelations(ctx context.Context, in entityio.FileInput, out entityio.Writer, m membership, extra extras) (int64, error) {
	sc, err := in.Open(ctx)
	if err != nil {
		return 0, err
	}
	defer sc.Close()

	var n int64
	for sc.Scan() {
		r, ok := sc.Object().(*osm.Relation)
		if !ok {
			continue
		}
		extra.addMembers(r, m)
		if err := out.Write(r); err != nil {
			return n, err
		}
		n++
	}
	return n, sc.Err()
}
