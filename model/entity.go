package model

import (
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

// ID returns the numeric id of a node, way or relation.
func ID(o osm.Object) int64 {
	return o.ObjectID().Ref()
}

// NodePoint returns the node location as lon/lat.
func NodePoint(n *osm.Node) orb.Point {
	return orb.Point{n.Lon, n.Lat}
}

// SortNodes sorts in place by ascending id.
func SortNodes(nodes []*osm.Node) {
	slices.SortFunc(nodes, func(a, b *osm.Node) int { return cmpInt64(int64(a.ID), int64(b.ID)) })
}

// SortWays sorts in place by ascending id.
func SortWays(ways []*osm.Way) {
	slices.SortFunc(ways, func(a, b *osm.Way) int { return cmpInt64(int64(a.ID), int64(b.ID)) })
}

// SortRelations sorts in place by ascending id.
func SortRelations(rels []*osm.Relation) {
	slices.SortFunc(rels, func(a, b *osm.Relation) int { return cmpInt64(int64(a.ID), int64(b.ID)) })
}

// FindNode binary-searches an id-sorted slice.
func FindNode(nodes []*osm.Node, id int64) (*osm.Node, bool) {
	i, ok := slices.BinarySearchFunc(nodes, id, func(n *osm.Node, id int64) int { return cmpInt64(int64(n.ID), id) })
	if !ok {
		return nil, false
	}
	return nodes[i], true
}

// FindWay binary-searches an id-sorted slice.
func FindWay(ways []*osm.Way, id int64) (*osm.Way, bool) {
	i, ok := slices.BinarySearchFunc(ways, id, func(w *osm.Way, id int64) int { return cmpInt64(int64(w.ID), id) })
	if !ok {
		return nil, false
	}
	return ways[i], true
}

// FindRelation binary-searches an id-sorted slice.
func FindRelation(rels []*osm.Relation, id int64) (*osm.Relation, bool) {
	i, ok := slices.BinarySearchFunc(rels, id, func(r *osm.Relation, id int64) int { return cmpInt64(int64(r.ID), id) })
	if !ok {
		return nil, false
	}
	return rels[i], true
}

// CategoryOf returns the category an entity is written under. Relations
// with at least one relation member are complex.
func CategoryOf(o osm.Object) (Category, bool) {
	switch v := o.(type) {
	case *osm.Node:
		return Points, true
	case *osm.Way:
		return Polylines, true
	case *osm.Relation:
		for _, m := range v.Members {
			if m.Type == osm.TypeRelation {
				return ComplexRelations, true
			}
		}
		return SimpleRelations, true
	}
	return 0, false
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
