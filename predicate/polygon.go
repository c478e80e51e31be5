package predicate

import (
	"errors"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/hupe1980/osmextract/model"
)

// ErrEmptyRegion is returned when a polygon region has no rings.
var ErrEmptyRegion = errors.New("predicate: region has no polygon rings")

// Polygon is a region bounded by one or more polygons with optional holes.
type Polygon struct {
	mp  orb.MultiPolygon
	env model.Envelope
}

// NewPolygon returns a predicate for the multipolygon.
func NewPolygon(mp orb.MultiPolygon) (*Polygon, error) {
	var rings int
	for _, p := range mp {
		rings += len(p)
	}
	if rings == 0 {
		return nil, ErrEmptyRegion
	}
	return &Polygon{mp: mp, env: model.EnvelopeFromBound(mp.Bound())}, nil
}

func (p *Polygon) ContainsPoint(pt orb.Point) bool {
	if !p.env.ContainsPoint(pt) {
		return false
	}
	return planar.MultiPolygonContains(p.mp, pt)
}

// ContainsEnvelope is conservative: any ring edge touching e makes it false.
func (p *Polygon) ContainsEnvelope(e model.Envelope) bool {
	if !p.env.ContainsEnvelope(e) {
		return false
	}
	for _, c := range e.Corners() {
		if !planar.MultiPolygonContains(p.mp, c) {
			return false
		}
	}
	return !p.anyEdge(func(a, b orb.Point) bool { return segmentIntersectsEnvelope(a, b, e) })
}

func (p *Polygon) IntersectsEnvelope(e model.Envelope) bool {
	if !p.env.Intersects(e) {
		return false
	}
	for _, c := range e.Corners() {
		if planar.MultiPolygonContains(p.mp, c) {
			return true
		}
	}
	return p.anyEdge(func(a, b orb.Point) bool { return segmentIntersectsEnvelope(a, b, e) })
}

func (p *Polygon) IntersectsLine(ls orb.LineString) bool {
	if len(ls) == 0 || !p.env.Intersects(model.EnvelopeFromBound(ls.Bound())) {
		return false
	}
	for _, pt := range ls {
		if planar.MultiPolygonContains(p.mp, pt) {
			return true
		}
	}
	for i := 1; i < len(ls); i++ {
		a, b := ls[i-1], ls[i]
		if p.anyEdge(func(c, d orb.Point) bool { return segmentsIntersect(a, b, c, d) }) {
			return true
		}
	}
	return false
}

func (p *Polygon) IntersectsRing(r orb.Ring) bool {
	if len(r) == 0 || !p.env.Intersects(model.EnvelopeFromBound(r.Bound())) {
		return false
	}
	if p.IntersectsLine(orb.LineString(r)) {
		return true
	}
	// No crossing: a part of the region is inside r iff its first vertex is.
	for _, poly := range p.mp {
		if len(poly) > 0 && len(poly[0]) > 0 && planar.RingContains(r, poly[0][0]) {
			return true
		}
	}
	return false
}

func (p *Polygon) Envelope() model.Envelope { return p.env }

func (p *Polygon) anyEdge(fn func(a, b orb.Point) bool) bool {
	for _, poly := range p.mp {
		for _, ring := range poly {
			for i := 1; i < len(ring); i++ {
				if fn(ring[i-1], ring[i]) {
					return true
				}
			}
			if n := len(ring); n > 1 && ring[0] != ring[n-1] {
				if fn(ring[n-1], ring[0]) {
					return true
				}
			}
		}
	}
	return false
}
