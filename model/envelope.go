package model

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Envelope is an immutable lon/lat bounding box.
// The zero value is not empty; use EmptyEnvelope for an accumulator seed.
type Envelope struct {
	b orb.Bound
}

// NewEnvelope returns the envelope spanning the given coordinates.
// Min and max are normalized, so argument order does not matter.
func NewEnvelope(lon1, lat1, lon2, lat2 float64) Envelope {
	return Envelope{b: orb.Bound{
		Min: orb.Point{math.Min(lon1, lon2), math.Min(lat1, lat2)},
		Max: orb.Point{math.Max(lon1, lon2), math.Max(lat1, lat2)},
	}}
}

// EnvelopeFromBound wraps an orb.Bound.
func EnvelopeFromBound(b orb.Bound) Envelope {
	return Envelope{b: b}
}

// EmptyEnvelope returns an envelope that contains nothing and that any
// Extend call replaces.
func EmptyEnvelope() Envelope {
	return Envelope{b: orb.Bound{
		Min: orb.Point{math.Inf(1), math.Inf(1)},
		Max: orb.Point{math.Inf(-1), math.Inf(-1)},
	}}
}

// World is the full lon/lat range.
func World() Envelope {
	return NewEnvelope(-180, -90, 180, 90)
}

func (e Envelope) MinLon() float64 { return e.b.Min[0] }
func (e Envelope) MinLat() float64 { return e.b.Min[1] }
func (e Envelope) MaxLon() float64 { return e.b.Max[0] }
func (e Envelope) MaxLat() float64 { return e.b.Max[1] }

// Bound returns the underlying orb.Bound.
func (e Envelope) Bound() orb.Bound { return e.b }

// IsEmpty reports whether the envelope contains no point.
func (e Envelope) IsEmpty() bool {
	return e.b.Min[0] > e.b.Max[0] || e.b.Min[1] > e.b.Max[1]
}

// ContainsPoint reports whether p lies inside or on the boundary.
func (e Envelope) ContainsPoint(p orb.Point) bool {
	if e.IsEmpty() {
		return false
	}
	return p[0] >= e.b.Min[0] && p[0] <= e.b.Max[0] &&
		p[1] >= e.b.Min[1] && p[1] <= e.b.Max[1]
}

// ContainsEnvelope reports whether o lies entirely inside e.
func (e Envelope) ContainsEnvelope(o Envelope) bool {
	if e.IsEmpty() || o.IsEmpty() {
		return false
	}
	return o.b.Min[0] >= e.b.Min[0] && o.b.Max[0] <= e.b.Max[0] &&
		o.b.Min[1] >= e.b.Min[1] && o.b.Max[1] <= e.b.Max[1]
}

// Intersects reports whether the two envelopes share at least one point.
func (e Envelope) Intersects(o Envelope) bool {
	if e.IsEmpty() || o.IsEmpty() {
		return false
	}
	return e.b.Min[0] <= o.b.Max[0] && o.b.Min[0] <= e.b.Max[0] &&
		e.b.Min[1] <= o.b.Max[1] && o.b.Min[1] <= e.b.Max[1]
}

// Extend returns the smallest envelope containing e and p.
func (e Envelope) Extend(p orb.Point) Envelope {
	if e.IsEmpty() {
		return Envelope{b: orb.Bound{Min: p, Max: p}}
	}
	return Envelope{b: e.b.Extend(p)}
}

// Union returns the smallest envelope containing both.
func (e Envelope) Union(o Envelope) Envelope {
	switch {
	case o.IsEmpty():
		return e
	case e.IsEmpty():
		return o
	}
	return Envelope{b: e.b.Union(o.b)}
}

// Split halves the envelope along lon (axis 0) or lat (axis 1) at the
// midpoint and returns the lower and upper halves.
func (e Envelope) Split(axis int) (Envelope, Envelope) {
	lower, upper := e.b, e.b
	mid := (e.b.Min[axis] + e.b.Max[axis]) / 2
	lower.Max[axis] = mid
	upper.Min[axis] = mid
	return Envelope{b: lower}, Envelope{b: upper}
}

// Corners returns the four corners counter-clockwise from min.
func (e Envelope) Corners() [4]orb.Point {
	return [4]orb.Point{
		e.b.Min,
		{e.b.Max[0], e.b.Min[1]},
		e.b.Max,
		{e.b.Min[0], e.b.Max[1]},
	}
}

// String returns a string representation of the Envelope.
func (e Envelope) String() string {
	if e.IsEmpty() {
		return "Envelope(empty)"
	}
	return fmt.Sprintf("Envelope(%g,%g,%g,%g)", e.b.Min[0], e.b.Min[1], e.b.Max[0], e.b.Max[1])
}
