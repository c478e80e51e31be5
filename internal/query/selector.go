package query

import (
	"github.com/paulmach/osm"

	"github.com/hupe1980/osmextract/filter"
	"github.com/hupe1980/osmextract/model"
)

// SelectRelations returns the relations accepted by f together with every
// relation reachable from them through relation members. rels must be
// sorted by id; the result is sorted as well.
func SelectRelations(f filter.RelationFilter, rels []*osm.Relation) []*osm.Relation {
	selected := NewIDSet()
	var work []*osm.Relation
	for _, r := range rels {
		if f.Accept(r) {
			selected.Add(int64(r.ID))
			work = append(work, r)
		}
	}

	for len(work) > 0 {
		r := work[len(work)-1]
		work = work[:len(work)-1]
		for _, m := range r.Members {
			if m.Type != osm.TypeRelation || selected.Contains(m.Ref) {
				continue
			}
			child, ok := model.FindRelation(rels, m.Ref)
			if !ok {
				continue
			}
			selected.Add(m.Ref)
			work = append(work, child)
		}
	}

	out := make([]*osm.Relation, 0, selected.Cardinality())
	for _, r := range rels {
		if selected.Contains(int64(r.ID)) {
			out = append(out, r)
		}
	}
	return out
}
