package model

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeContainment(t *testing.T) {
	e := NewEnvelope(10, 50, 0, 40)
	assert.Equal(t, 0.0, e.MinLon())
	assert.Equal(t, 40.0, e.MinLat())

	assert.True(t, e.ContainsPoint(orb.Point{5, 45}))
	assert.True(t, e.ContainsPoint(orb.Point{10, 50}), "boundary is inside")
	assert.False(t, e.ContainsPoint(orb.Point{10.1, 45}))

	assert.True(t, e.ContainsEnvelope(e))
	assert.True(t, e.ContainsEnvelope(NewEnvelope(1, 41, 2, 42)))
	assert.False(t, e.ContainsEnvelope(NewEnvelope(-1, 41, 2, 42)))

	assert.True(t, e.Intersects(NewEnvelope(10, 50, 20, 60)), "touching corners intersect")
	assert.False(t, e.Intersects(NewEnvelope(10.5, 50, 20, 60)))
}

func TestEmptyEnvelope(t *testing.T) {
	e := EmptyEnvelope()
	require.True(t, e.IsEmpty())
	assert.False(t, e.ContainsPoint(orb.Point{0, 0}))
	assert.False(t, e.Intersects(World()))
	assert.False(t, World().ContainsEnvelope(e))

	e = e.Extend(orb.Point{3, 4})
	require.False(t, e.IsEmpty())
	assert.Equal(t, NewEnvelope(3, 4, 3, 4), e)

	e = e.Extend(orb.Point{-1, 8})
	assert.Equal(t, NewEnvelope(-1, 4, 3, 8), e)
	assert.Equal(t, e, EmptyEnvelope().Union(e))
}

func TestEnvelopeSplit(t *testing.T) {
	lower, upper := World().Split(0)
	assert.Equal(t, NewEnvelope(-180, -90, 0, 90), lower)
	assert.Equal(t, NewEnvelope(0, -90, 180, 90), upper)

	lower, upper = lower.Split(1)
	assert.Equal(t, NewEnvelope(-180, -90, 0, 0), lower)
	assert.Equal(t, NewEnvelope(-180, 0, 0, 90), upper)
}

func TestCategoryOf(t *testing.T) {
	c, ok := CategoryOf(&osm.Node{ID: 1})
	require.True(t, ok)
	assert.Equal(t, Points, c)

	c, _ = CategoryOf(&osm.Relation{ID: 1, Members: osm.Members{{Type: osm.TypeWay, Ref: 2}}})
	assert.Equal(t, SimpleRelations, c)

	c, _ = CategoryOf(&osm.Relation{ID: 1, Members: osm.Members{{Type: osm.TypeRelation, Ref: 2}}})
	assert.Equal(t, ComplexRelations, c)
	assert.Equal(t, "complex-relations", c.String())
}

func TestFindSorted(t *testing.T) {
	nodes := []*osm.Node{{ID: 9}, {ID: 2}, {ID: 5}}
	SortNodes(nodes)
	assert.Equal(t, osm.NodeID(2), nodes[0].ID)

	n, ok := FindNode(nodes, 5)
	require.True(t, ok)
	assert.Equal(t, osm.NodeID(5), n.ID)

	_, ok = FindNode(nodes, 6)
	assert.False(t, ok)
}
