package predicate

import (
	"github.com/paulmach/orb"

	"github.com/hupe1980/osmextract/model"
)

// Predicate tests geometry against a query region.
//
// IntersectsEnvelope must be true whenever IntersectsLine or IntersectsRing
// is true for geometry inside that envelope.
type Predicate interface {
	// ContainsPoint reports whether p lies in the region.
	ContainsPoint(p orb.Point) bool
	// ContainsEnvelope reports whether e lies entirely in the region.
	// False negatives are allowed, false positives are not.
	ContainsEnvelope(e model.Envelope) bool
	// IntersectsEnvelope reports whether e and the region share a point.
	IntersectsEnvelope(e model.Envelope) bool
	// IntersectsLine reports whether the line string touches the region.
	IntersectsLine(ls orb.LineString) bool
	// IntersectsRing reports whether the area enclosed by r touches the region.
	IntersectsRing(r orb.Ring) bool
	// Envelope is the bounding envelope of the region.
	Envelope() model.Envelope
}
