package predicate

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/hupe1980/osmextract/model"
)

// Box is an axis-aligned rectangular region.
type Box struct {
	env model.Envelope
}

// NewBox returns a Box predicate for the envelope.
func NewBox(env model.Envelope) *Box {
	return &Box{env: env}
}

func (b *Box) ContainsPoint(p orb.Point) bool { return b.env.ContainsPoint(p) }

func (b *Box) ContainsEnvelope(e model.Envelope) bool { return b.env.ContainsEnvelope(e) }

func (b *Box) IntersectsEnvelope(e model.Envelope) bool { return b.env.Intersects(e) }

func (b *Box) IntersectsLine(ls orb.LineString) bool {
	if len(ls) == 0 || !b.env.Intersects(model.EnvelopeFromBound(ls.Bound())) {
		return false
	}
	return lineIntersectsEnvelope(ls, b.env)
}

func (b *Box) IntersectsRing(r orb.Ring) bool {
	if len(r) == 0 || !b.env.Intersects(model.EnvelopeFromBound(r.Bound())) {
		return false
	}
	if lineIntersectsEnvelope(orb.LineString(r), b.env) {
		return true
	}
	// The ring boundary misses the box, so the box is either fully inside or outside.
	return planar.RingContains(r, b.env.Corners()[0])
}

func (b *Box) Envelope() model.Envelope { return b.env }
