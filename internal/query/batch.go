package query

import (
	"context"
	"log/slog"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"

	"github.com/hupe1980/osmextract/entityio"
	"github.com/hupe1980/osmextract/filter"
	"github.com/hupe1980/osmextract/model"
	"github.com/hupe1980/osmextract/predicate"
)

// BatchInputs are the three entity files of a relation batch.
type BatchInputs struct {
	Points    entityio.FileInput
	Polylines entityio.FileInput
	Relations entityio.FileInput
}

// BatchOutputs receive the partial results of a batch evaluation. The
// caller closes them.
type BatchOutputs struct {
	Relations entityio.Writer
	Points    entityio.Writer
	Polylines entityio.Writer
}

// BatchResult summarises one batch evaluation.
type BatchResult struct {
	Tally     model.Tally
	Relations int
	Selected  int
	Qualified int
	// Skipped is set when no relation was selected and no output exists.
	Skipped bool
}

// BatchEvaluator filters a relation batch whose envelope intersects but is
// not contained in the query region. Simple and complex batches run the
// same algorithm and differ only in Resolver. Written relations are tallied
// by their own category.
type BatchEvaluator struct {
	Predicate predicate.Predicate
	Resolver  MemberResolver
	// Filter optionally restricts the relations considered.
	Filter filter.RelationFilter
	// FastRelationTests qualifies relations by the envelope of their
	// geometry instead of exact line and ring tests.
	FastRelationTests bool
	Logger            *slog.Logger
}

// Evaluate runs the batch. open is called once, only when there is
// something to write.
func (e *BatchEvaluator) Evaluate(ctx context.Context, in BatchInputs, open func() (BatchOutputs, error)) (BatchResult, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	resolver := e.Resolver
	if resolver == nil {
		resolver = DirectMembers{}
	}

	var res BatchResult
	var ents entityio.Entities
	if err := entityio.ReadInto(ctx, in.Relations, &ents); err != nil {
		return res, err
	}
	model.SortRelations(ents.Relations)
	res.Relations = len(ents.Relations)

	selected := ents.Relations
	if e.Filter != nil {
		selected = SelectRelations(e.Filter, ents.Relations)
		logger.Debug("relations selected", "selected", len(selected), "total", len(ents.Relations))
	}
	res.Selected = len(selected)
	if len(selected) == 0 {
		res.Skipped = true
		return res, nil
	}

	if err := entityio.ReadInto(ctx, in.Points, &ents); err != nil {
		return res, err
	}
	if err := entityio.ReadInto(ctx, in.Polylines, &ents); err != nil {
		return res, err
	}
	data := newDataset(&ents)
	m := buildMembership(e.Predicate, data)

	written := NewIDSet()
	extra := newExtras()
	for _, r := range selected {
		if written.Contains(int64(r.ID)) {
			continue
		}
		group := resolver.Group(r, selected)
		if !e.qualifies(group, data, m) {
			continue
		}
		for _, g := range group {
			if written.Contains(int64(g.ID)) {
				continue
			}
			written.Add(int64(g.ID))
			extra.addMembers(g, m)
		}
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	out, err := open()
	if err != nil {
		return res, err
	}
	for _, r := range selected {
		if !written.Contains(int64(r.ID)) {
			continue
		}
		if err := out.Relations.Write(r); err != nil {
			return res, err
		}
		res.Qualified++
		// Sub-relations of a complex group may be simple.
		if c, _ := model.CategoryOf(r); c == model.ComplexRelations {
			res.Tally.ComplexRelations++
		} else {
			res.Tally.SimpleRelations++
		}
	}

	res.Tally.AdditionalPolylines, res.Tally.AdditionalPoints, err = extra.write(data, m.nodes, out.Polylines, out.Points, logger)
	return res, err
}

// qualifies reports whether any relation of the group touches the region.
func (e *BatchEvaluator) qualifies(group []*osm.Relation, data *dataset, m membership) bool {
	for _, r := range group {
		for _, mem := range r.Members {
			switch mem.Type {
			case osm.TypeNode:
				if m.nodes.Contains(mem.Ref) {
					return true
				}
			case osm.TypeWay:
				if m.ways.Contains(mem.Ref) {
					return true
				}
			}
		}
	}

	if e.FastRelationTests {
		env := groupEnvelope(group, data)
		return !env.IsEmpty() && e.Predicate.IntersectsEnvelope(env)
	}

	for _, r := range group {
		area := isArea(r)
		for _, mem := range r.Members {
			if mem.Type != osm.TypeWay {
				continue
			}
			w, ok := model.FindWay(data.ways, mem.Ref)
			if !ok {
				continue
			}
			ls, ok := wayLine(w, data)
			if !ok {
				continue
			}
			if e.Predicate.IntersectsLine(ls) {
				return true
			}
			if area && isClosed(w) && e.Predicate.IntersectsRing(orb.Ring(ls)) {
				return true
			}
		}
	}
	return false
}

// groupEnvelope is the envelope of all member points and polylines of the
// group that are present in the batch.
func groupEnvelope(group []*osm.Relation, data *dataset) model.Envelope {
	env := model.EmptyEnvelope()
	for _, r := range group {
		for _, mem := range r.Members {
			switch mem.Type {
			case osm.TypeNode:
				if n, ok := model.FindNode(data.nodes, mem.Ref); ok {
					env = env.Extend(model.NodePoint(n))
				}
			case osm.TypeWay:
				w, ok := model.FindWay(data.ways, mem.Ref)
				if !ok {
					continue
				}
				if ls, ok := wayLine(w, data); ok {
					env = env.Union(model.EnvelopeFromBound(ls.Bound()))
				}
			}
		}
	}
	return env
}
