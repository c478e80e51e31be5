package predicate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/osmextract/model"
)

func square(minX, minY, maxX, maxY float64) orb.Ring {
	return orb.Ring{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY}}
}

func TestBox(t *testing.T) {
	b := NewBox(model.NewEnvelope(0, 0, 10, 10))

	assert.True(t, b.ContainsPoint(orb.Point{5, 5}))
	assert.False(t, b.ContainsPoint(orb.Point{11, 5}))

	// Segment crossing the box without a vertex inside.
	assert.True(t, b.IntersectsLine(orb.LineString{{-5, 5}, {15, 5}}))
	assert.False(t, b.IntersectsLine(orb.LineString{{-5, 11}, {15, 11}}))
	// Diagonal passing the corner outside.
	assert.False(t, b.IntersectsLine(orb.LineString{{-1, 12}, {12, 12}}))

	// Ring enclosing the box without touching it.
	assert.True(t, b.IntersectsRing(square(-20, -20, 20, 20)))
	assert.False(t, b.IntersectsRing(square(20, 20, 30, 30)))
}

func TestPolygon(t *testing.T) {
	// Square with a hole in the middle.
	poly := orb.Polygon{square(0, 0, 10, 10), square(4, 4, 6, 6)}
	p, err := NewPolygon(orb.MultiPolygon{poly})
	require.NoError(t, err)

	assert.True(t, p.ContainsPoint(orb.Point{1, 1}))
	assert.False(t, p.ContainsPoint(orb.Point{5, 5}), "hole is outside")

	assert.True(t, p.ContainsEnvelope(model.NewEnvelope(1, 1, 2, 2)))
	assert.False(t, p.ContainsEnvelope(model.NewEnvelope(3, 3, 7, 7)), "envelope covers the hole")
	assert.False(t, p.IntersectsEnvelope(model.NewEnvelope(4.5, 4.5, 5.5, 5.5)), "inside the hole")
	assert.True(t, p.IntersectsEnvelope(model.NewEnvelope(9, 9, 20, 20)))

	assert.True(t, p.IntersectsLine(orb.LineString{{-1, 2}, {11, 2}}))
	assert.False(t, p.IntersectsLine(orb.LineString{{4.5, 4.5}, {5.5, 5.5}}))

	assert.True(t, p.IntersectsRing(square(-5, -5, 15, 15)))
	assert.False(t, p.IntersectsRing(square(4.2, 4.2, 5.8, 5.8)))
}

func TestMultiPolygonRing(t *testing.T) {
	p, err := NewPolygon(orb.MultiPolygon{
		{square(0, 0, 1, 1)},
		{square(10, 10, 11, 11)},
	})
	require.NoError(t, err)

	assert.True(t, p.IntersectsRing(square(9, 9, 13, 13)), "ring encloses the second part")
	assert.True(t, p.IntersectsRing(square(-1, -1, 2, 2)), "ring encloses the first part")
	assert.False(t, p.IntersectsRing(square(4, 4, 6, 6)), "ring between the parts")
}

func TestEmptyPolygon(t *testing.T) {
	_, err := NewPolygon(nil)
	require.ErrorIs(t, err, ErrEmptyRegion)
}

// Every exact hit must also be an envelope hit.
func TestEnvelopeTestIsSuperset(t *testing.T) {
	p, err := NewPolygon(orb.MultiPolygon{{square(0, 0, 10, 10)}})
	require.NoError(t, err)
	preds := []Predicate{p, NewBox(model.NewEnvelope(0, 0, 10, 10))}

	lines := []orb.LineString{
		{{-5, 5}, {15, 5}},
		{{-5, -5}, {-1, -1}},
		{{9, 9}, {12, 12}},
		{{20, 20}, {30, 30}},
	}
	for _, pred := range preds {
		for _, ls := range lines {
			if pred.IntersectsLine(ls) {
				assert.True(t, pred.IntersectsEnvelope(model.EnvelopeFromBound(ls.Bound())), "%v", ls)
			}
		}
		ring := square(-1, -1, 11, 11)
		if pred.IntersectsRing(ring) {
			assert.True(t, pred.IntersectsEnvelope(model.EnvelopeFromBound(ring.Bound())))
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	geo := filepath.Join(dir, "region.geojson")
	require.NoError(t, os.WriteFile(geo, []byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[0,0],[2,0],[2,2],[0,2],[0,0]]]}}]}`), 0o644))
	p, err := Load(geo)
	require.NoError(t, err)
	assert.True(t, p.ContainsPoint(orb.Point{1, 1}))
	assert.Equal(t, model.NewEnvelope(0, 0, 2, 2), p.Envelope())

	w := filepath.Join(dir, "region.wkt")
	require.NoError(t, os.WriteFile(w, []byte("POLYGON((0 0,4 0,4 4,0 4,0 0))"), 0o644))
	p, err = Load(w)
	require.NoError(t, err)
	assert.True(t, p.ContainsPoint(orb.Point{3, 3}))

	_, err = FromGeoJSON([]byte(`{"type":"Point","coordinates":[1,1]}`))
	require.ErrorIs(t, err, ErrNoPolygon)
}

func TestParseBBox(t *testing.T) {
	b, err := ParseBBox("1, 2,3,4")
	require.NoError(t, err)
	assert.Equal(t, model.NewEnvelope(1, 2, 3, 4), b.Envelope())

	_, err = ParseBBox("1,2,3")
	require.Error(t, err)
	_, err = ParseBBox("3,2,1,4")
	require.Error(t, err)
}
