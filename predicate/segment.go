package predicate

import (
	"github.com/paulmach/orb"

	"github.com/hupe1980/osmextract/model"
)

func orientation(a, b, c orb.Point) int {
	v := (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// onSegment assumes a, b, c are collinear.
func onSegment(a, b, c orb.Point) bool {
	return min(a[0], b[0]) <= c[0] && c[0] <= max(a[0], b[0]) &&
		min(a[1], b[1]) <= c[1] && c[1] <= max(a[1], b[1])
}

// segmentsIntersect reports whether the closed segments ab and cd share a point.
func segmentsIntersect(a, b, c, d orb.Point) bool {
	o1 := orientation(a, b, c)
	o2 := orientation(a, b, d)
	o3 := orientation(c, d, a)
	o4 := orientation(c, d, b)

	if o1 != o2 && o3 != o4 {
		return true
	}
	switch {
	case o1 == 0 && onSegment(a, b, c):
		return true
	case o2 == 0 && onSegment(a, b, d):
		return true
	case o3 == 0 && onSegment(c, d, a):
		return true
	case o4 == 0 && onSegment(c, d, b):
		return true
	}
	return false
}

// segmentIntersectsEnvelope reports whether segment ab touches the closed box.
func segmentIntersectsEnvelope(a, b orb.Point, e model.Envelope) bool {
	if e.ContainsPoint(a) || e.ContainsPoint(b) {
		return true
	}
	c := e.Corners()
	for i := range c {
		if segmentsIntersect(a, b, c[i], c[(i+1)%len(c)]) {
			return true
		}
	}
	return false
}

// lineIntersectsEnvelope reports whether any vertex or segment of ls touches e.
func lineIntersectsEnvelope(ls orb.LineString, e model.Envelope) bool {
	if len(ls) == 1 {
		return e.ContainsPoint(ls[0])
	}
	for i := 1; i < len(ls); i++ {
		if segmentIntersectsEnvelope(ls[i-1], ls[i], e) {
			return true
		}
	}
	return false
}
