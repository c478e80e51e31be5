package query

import (
	"github.com/paulmach/osm"

	"github.com/hupe1980/osmextract/model"
)

// MemberResolver expands a relation into the group of relations whose
// members make up its geometry.
type MemberResolver interface {
	// Group returns r followed by the relations it depends on. rels is the
	// id-sorted relation set of the batch.
	Group(r *osm.Relation, rels []*osm.Relation) []*osm.Relation
	String() string
}

// DirectMembers treats every relation on its own. Used for simple batches.
type DirectMembers struct{}

func (DirectMembers) Group(r *osm.Relation, _ []*osm.Relation) []*osm.Relation {
	return []*osm.Relation{r}
}

func (DirectMembers) String() string { return "direct" }

// NestedMembers follows relation members transitively. Members outside
// the batch are ignored and cycles are visited once.
type NestedMembers struct{}

func (NestedMembers) Group(r *osm.Relation, rels []*osm.Relation) []*osm.Relation {
	group := []*osm.Relation{r}
	seen := map[int64]struct{}{int64(r.ID): {}}
	for i := 0; i < len(group); i++ {
		for _, m := range group[i].Members {
			if m.Type != osm.TypeRelation {
				continue
			}
			if _, ok := seen[m.Ref]; ok {
				continue
			}
			seen[m.Ref] = struct{}{}
			if child, ok := model.FindRelation(rels, m.Ref); ok {
				group = append(group, child)
			}
		}
	}
	return group
}

func (NestedMembers) String() string { return "nested" }
