package query

import (
	"log/slog"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"

	"github.com/hupe1980/osmextract/entityio"
	"github.com/hupe1980/osmextract/model"
	"github.com/hupe1980/osmextract/predicate"
)

// dataset is the id-sorted in-memory content of a leaf or batch.
type dataset struct {
	nodes     []*osm.Node
	ways      []*osm.Way
	relations []*osm.Relation
}

func newDataset(e *entityio.Entities) *dataset {
	model.SortNodes(e.Nodes)
	model.SortWays(e.Ways)
	model.SortRelations(e.Relations)
	return &dataset{nodes: e.Nodes, ways: e.Ways, relations: e.Relations}
}

// membership holds the points accepted by the predicate and the polylines
// with at least one accepted point.
type membership struct {
	nodes *IDSet
	ways  *IDSet
}

func buildMembership(p predicate.Predicate, d *dataset) membership {
	m := membership{nodes: NewIDSet(), ways: NewIDSet()}
	for _, n := range d.nodes {
		if p.ContainsPoint(model.NodePoint(n)) {
			m.nodes.Add(int64(n.ID))
		}
	}
	for _, w := range d.ways {
		if anyNodeIn(w, m.nodes) {
			m.ways.Add(int64(w.ID))
		}
	}
	return m
}

func anyNodeIn(w *osm.Way, set *IDSet) bool {
	for _, wn := range w.Nodes {
		if set.Contains(int64(wn.ID)) {
			return true
		}
	}
	return false
}

// extras collects the members needed to keep emitted entities complete.
type extras struct {
	nodes *IDSet
	ways  *IDSet
}

func newExtras() extras {
	return extras{nodes: NewIDSet(), ways: NewIDSet()}
}

// addWayNodes records the nodes of w that are not accepted.
func (x extras) addWayNodes(w *osm.Way, accepted *IDSet) {
	for _, wn := range w.Nodes {
		if !accepted.Contains(int64(wn.ID)) {
			x.nodes.Add(int64(wn.ID))
		}
	}
}

// addMembers records node members that are not accepted and way members
// that are not already emitted.
func (x extras) addMembers(r *osm.Relation, m membership) {
	for _, mem := range r.Members {
		switch mem.Type {
		case osm.TypeNode:
			if !m.nodes.Contains(mem.Ref) {
				x.nodes.Add(mem.Ref)
			}
		case osm.TypeWay:
			if !m.ways.Contains(mem.Ref) {
				x.ways.Add(mem.Ref)
			}
		}
	}
}

// write emits the additional polylines and then the additional points in
// ascending order. Nodes of additional polylines are added to the point
// set first. Referenced entities that are not in d are logged and skipped.
func (x extras) write(d *dataset, accepted *IDSet, ways, nodes entityio.Writer, logger *slog.Logger) (nWays, nNodes int64, err error) {
	for _, id := range x.ways.Sorted() {
		w, ok := model.FindWay(d.ways, id)
		if !ok {
			logger.Debug("referenced polyline missing", "way", id)
			continue
		}
		x.addWayNodes(w, accepted)
		if err := ways.Write(w); err != nil {
			return nWays, nNodes, err
		}
		nWays++
	}
	for _, id := range x.nodes.Sorted() {
		n, ok := model.FindNode(d.nodes, id)
		if !ok {
			logger.Debug("referenced point missing", "node", id)
			continue
		}
		if err := nodes.Write(n); err != nil {
			return nWays, nNodes, err
		}
		nNodes++
	}
	return nWays, nNodes, nil
}

// wayLine builds the line string of w from the nodes in d. ok is false if
// no node could be resolved.
func wayLine(w *osm.Way, d *dataset) (orb.LineString, bool) {
	ls := make(orb.LineString, 0, len(w.Nodes))
	for _, wn := range w.Nodes {
		if n, ok := model.FindNode(d.nodes, int64(wn.ID)); ok {
			ls = append(ls, model.NodePoint(n))
		}
	}
	return ls, len(ls) > 0
}

func isClosed(w *osm.Way) bool {
	return len(w.Nodes) >= 4 && w.Nodes[0].ID == w.Nodes[len(w.Nodes)-1].ID
}

// isArea reports whether the relation describes an area.
func isArea(r *osm.Relation) bool {
	switch r.Tags.Find("type") {
	case "multipolygon", "boundary":
		return true
	}
	return false
}
