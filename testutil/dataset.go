package testutil

import (
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"

	"github.com/hupe1980/osmextract/model"
)

// Dataset is an in-memory set of entities, each slice ascending by id.
type Dataset struct {
	Nodes     []*osm.Node
	Ways      []*osm.Way
	Relations []*osm.Relation
}

// Objects returns all entities in canonical output order.
func (d *Dataset) Objects() []osm.Object {
	out := make([]osm.Object, 0, len(d.Nodes)+len(d.Ways)+len(d.Relations))
	for _, n := range d.Nodes {
		out = append(out, n)
	}
	for _, w := range d.Ways {
		out = append(out, w)
	}
	for _, c := range []model.Category{model.SimpleRelations, model.ComplexRelations} {
		for _, r := range d.Relations {
			if cat, _ := model.CategoryOf(r); cat == c {
				out = append(out, r)
			}
		}
	}
	return out
}

// Sort orders every slice by id.
func (d *Dataset) Sort() {
	model.SortNodes(d.Nodes)
	model.SortWays(d.Ways)
	model.SortRelations(d.Relations)
}

// Node returns the node with the given id.
func (d *Dataset) Node(id int64) (*osm.Node, bool) { return model.FindNode(d.Nodes, id) }

// Way returns the way with the given id.
func (d *Dataset) Way(id int64) (*osm.Way, bool) { return model.FindWay(d.Ways, id) }

// Relation returns the relation with the given id.
func (d *Dataset) Relation(id int64) (*osm.Relation, bool) {
	return model.FindRelation(d.Relations, id)
}

// DatasetConfig sizes a random dataset.
type DatasetConfig struct {
	Nodes int
	Ways  int
	// MaxWayNodes bounds the node count of a way. Defaults to 6.
	MaxWayNodes int
	// WayRadius bounds the distance of way nodes from the first one, in
	// degrees. Defaults to a tenth of the envelope width.
	WayRadius        float64
	SimpleRelations  int
	ComplexRelations int
}

var relationTypes = []string{"multipolygon", "route", "boundary", "site"}

// Dataset generates a random dataset inside env. Node, way and relation
// ids start at 1. Ways reference nearby nodes. Complex relations have a
// way member and reference relations with smaller ids.
func (r *RNG) Dataset(env model.Envelope, cfg DatasetConfig) *Dataset {
	if cfg.MaxWayNodes < 2 {
		cfg.MaxWayNodes = 6
	}
	if cfg.WayRadius <= 0 {
		cfg.WayRadius = (env.MaxLon() - env.MinLon()) / 10
	}
	if cfg.Ways == 0 {
		cfg.Ways = cfg.Nodes / 4
	}

	d := &Dataset{}
	for i := 1; i <= cfg.Nodes; i++ {
		p := r.Point(env)
		d.Nodes = append(d.Nodes, &osm.Node{ID: osm.NodeID(i), Lon: p[0], Lat: p[1], Visible: true, Version: 1})
	}
	if len(d.Nodes) == 0 {
		return d
	}

	// Ways are built from a first node plus further nodes close to it.
	nextNode := int64(cfg.Nodes)
	for i := 1; i <= cfg.Ways; i++ {
		first := d.Nodes[r.Intn(len(d.Nodes))]
		w := &osm.Way{ID: osm.WayID(i), Visible: true, Version: 1}
		w.Nodes = append(w.Nodes, osm.WayNode{ID: first.ID})
		n := 1 + r.Intn(cfg.MaxWayNodes-1)
		for j := 0; j < n; j++ {
			nextNode++
			p := r.Near(orb.Point{first.Lon, first.Lat}, cfg.WayRadius, env)
			d.Nodes = append(d.Nodes, &osm.Node{ID: osm.NodeID(nextNode), Lon: p[0], Lat: p[1], Visible: true, Version: 1})
			w.Nodes = append(w.Nodes, osm.WayNode{ID: osm.NodeID(nextNode)})
		}
		if r.Intn(4) == 0 {
			w.Nodes = append(w.Nodes, osm.WayNode{ID: first.ID})
			w.Tags = osm.Tags{{Key: "area", Value: "yes"}}
		} else {
			w.Tags = osm.Tags{{Key: "highway", Value: "residential"}}
		}
		d.Ways = append(d.Ways, w)
	}

	id := int64(0)
	for i := 0; i < cfg.SimpleRelations; i++ {
		id++
		rel := r.relation(id, d)
		d.Relations = append(d.Relations, rel)
	}
	for i := 0; i < cfg.ComplexRelations; i++ {
		id++
		rel := r.relation(id, d)
		children := 1 + r.Intn(2)
		for j := 0; j < children && id > 1; j++ {
			ref := 1 + int64(r.Intn(int(id-1)))
			rel.Members = append(rel.Members, osm.Member{Type: osm.TypeRelation, Ref: ref, Role: "subarea"})
		}
		if len(d.Ways) > 0 && !hasWay(rel) {
			rel.Members = append(rel.Members, osm.Member{Type: osm.TypeWay, Ref: int64(d.Ways[r.Intn(len(d.Ways))].ID), Role: "outer"})
		}
		d.Relations = append(d.Relations, rel)
	}
	d.Sort()
	return d
}

func (r *RNG) relation(id int64, d *Dataset) *osm.Relation {
	typ := relationTypes[r.Intn(len(relationTypes))]
	rel := &osm.Relation{ID: osm.RelationID(id), Visible: true, Version: 1,
		Tags: osm.Tags{{Key: "type", Value: typ}}}
	if typ == "boundary" {
		rel.Tags = append(rel.Tags, osm.Tag{Key: "boundary", Value: "administrative"})
	}

	// Members stay close together, like real relations.
	anchor := d.Nodes[r.Intn(len(d.Nodes))]
	near := func(n *osm.Node) bool {
		return abs(n.Lon-anchor.Lon) < 1 && abs(n.Lat-anchor.Lat) < 1
	}
	for _, w := range d.Ways {
		if len(rel.Members) >= 3 {
			break
		}
		first, _ := d.Node(int64(w.Nodes[0].ID))
		if first != nil && near(first) && r.Intn(3) == 0 {
			rel.Members = append(rel.Members, osm.Member{Type: osm.TypeWay, Ref: int64(w.ID), Role: "outer"})
		}
	}
	rel.Members = append(rel.Members, osm.Member{Type: osm.TypeNode, Ref: int64(anchor.ID), Role: "label"})
	return rel
}

func hasWay(r *osm.Relation) bool {
	return slices.ContainsFunc(r.Members, func(m osm.Member) bool { return m.Type == osm.TypeWay })
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
