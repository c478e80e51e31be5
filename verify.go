package osmextract

import (
	"context"
	"fmt"

	"github.com/paulmach/osm"

	"github.com/hupe1980/osmextract/entityio"
	"github.com/hupe1980/osmextract/internal/query"
	"github.com/hupe1980/osmextract/model"
)

// maxExamples caps the problems listed in a VerifyReport.
const maxExamples = 20

// VerifyReport describes the structure of an extract file.
type VerifyReport struct {
	Counts [len(model.Categories)]int64
	// OrderViolations counts entities out of category order, or with an id
	// not greater than their predecessor in the same category.
	OrderViolations int64
	// MissingPolylinePoints counts polyline node references without a
	// point in the file.
	MissingPolylinePoints int64
	// MissingMembers counts point and polyline members of relations that
	// are not in the file.
	MissingMembers int64
	// MissingRelationMembers counts relation members that are not in the
	// file. Batches do not carry relations outside themselves, so these do
	// not make a file incomplete.
	MissingRelationMembers int64
	Examples               []string
}

// OK reports whether the file is ordered and complete.
func (r *VerifyReport) OK() bool {
	return r.OrderViolations == 0 && r.MissingPolylinePoints == 0 && r.MissingMembers == 0
}

func (r *VerifyReport) note(format string, args ...any) {
	if len(r.Examples) < maxExamples {
		r.Examples = append(r.Examples, fmt.Sprintf(format, args...))
	}
}

// Verify reads an extract and checks that every category block is
// ascending and free of duplicates, that blocks appear in canonical order,
// and that every polyline and relation finds its points and polylines in
// the file. Read failures are returned as errors; structural problems are
// reported.
func Verify(ctx context.Context, in entityio.FileInput) (*VerifyReport, error) {
	sc, err := in.Open(ctx)
	if err != nil {
		return nil, sourceError(in.Name, err)
	}
	defer sc.Close()

	rep := &VerifyReport{}
	nodes, ways, relations := query.NewIDSet(), query.NewIDSet(), query.NewIDSet()

	var (
		pendingRelations []*osm.Relation
		lastCat          = model.Category(0)
		lastID           int64
		started          bool
	)
	for sc.Scan() {
		o := sc.Object()
		c, ok := model.CategoryOf(o)
		if !ok {
			continue
		}
		id := model.ID(o)
		rep.Counts[c]++

		switch {
		case !started:
		case c < lastCat:
			rep.OrderViolations++
			rep.note("%s %d after %s", c, id, lastCat)
		case c == lastCat && id <= lastID:
			rep.OrderViolations++
			rep.note("%s %d not above %d", c, id, lastID)
		}
		if !started || c >= lastCat {
			lastCat, lastID = c, id
		}
		started = true

		switch v := o.(type) {
		case *osm.Node:
			nodes.Add(id)
		case *osm.Way:
			ways.Add(id)
			for _, wn := range v.Nodes {
				if !nodes.Contains(int64(wn.ID)) {
					rep.MissingPolylinePoints++
					rep.note("polyline %d misses point %d", id, wn.ID)
				}
			}
		case *osm.Relation:
			relations.Add(id)
			pendingRelations = append(pendingRelations, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, sourceError(in.Name, err)
	}

	for _, rel := range pendingRelations {
		for _, m := range rel.Members {
			switch m.Type {
			case osm.TypeNode:
				if !nodes.Contains(m.Ref) {
					rep.MissingMembers++
					rep.note("relation %d misses point %d", rel.ID, m.Ref)
				}
			case osm.TypeWay:
				if !ways.Contains(m.Ref) {
					rep.MissingMembers++
					rep.note("relation %d misses polyline %d", rel.ID, m.Ref)
				}
			case osm.TypeRelation:
				if !relations.Contains(m.Ref) {
					rep.MissingRelationMembers++
				}
			}
		}
	}
	return rep, nil
}
