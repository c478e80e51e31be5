package query

import (
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/osmextract/filter"
)

func relIDs(rels []*osm.Relation) []int64 {
	out := make([]int64, len(rels))
	for i, r := range rels {
		out[i] = int64(r.ID)
	}
	return out
}

func byName(name string) filter.RelationFilter {
	return filter.Func(func(r *osm.Relation) bool { return r.Tags.Find("name") == name })
}

func selectorInput() []*osm.Relation {
	named := func(n string) osm.Tags { return osm.Tags{{Key: "name", Value: n}} }
	return []*osm.Relation{
		relation(1, named("a"), relMember(2)),
		relation(2, nil, relMember(3), nodeMember(9)),
		relation(3, nil, relMember(1)),
		relation(4, named("b"), relMember(99)),
		relation(5, nil),
	}
}

func TestSelectRelationsClosure(t *testing.T) {
	rels := selectorInput()

	got := SelectRelations(byName("a"), rels)
	assert.Equal(t, []int64{1, 2, 3}, relIDs(got))

	got = SelectRelations(byName("b"), rels)
	assert.Equal(t, []int64{4}, relIDs(got))

	assert.Empty(t, SelectRelations(byName("z"), rels))
}

func TestSelectRelationsIdempotent(t *testing.T) {
	rels := selectorInput()
	for _, name := range []string{"a", "b", "z"} {
		once := SelectRelations(byName(name), rels)
		all := filter.Func(func(*osm.Relation) bool { return true })
		assert.Equal(t, relIDs(once), relIDs(SelectRelations(all, once)), name)
		assert.Equal(t, relIDs(once), relIDs(SelectRelations(byName(name), once)), name)
	}
}

func TestNestedMembers(t *testing.T) {
	rels := selectorInput()

	group := NestedMembers{}.Group(rels[0], rels)
	assert.Equal(t, []int64{1, 2, 3}, relIDs(group))

	// member 99 is not part of the batch
	group = NestedMembers{}.Group(rels[3], rels)
	assert.Equal(t, []int64{4}, relIDs(group))

	group = DirectMembers{}.Group(rels[0], rels)
	assert.Equal(t, []int64{1}, relIDs(group))
}

func TestIDSetSorted(t *testing.T) {
	s := NewIDSet()
	for _, id := range []int64{5, -3, 1, 5, -10} {
		s.Add(id)
	}
	assert.Equal(t, []int64{-10, -3, 1, 5}, s.Sorted())
	assert.Equal(t, uint64(4), s.Cardinality())
	assert.True(t, s.Contains(-3))
	assert.False(t, s.Contains(3))
	assert.True(t, NewIDSet().IsEmpty())
}
