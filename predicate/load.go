package predicate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"

	"github.com/hupe1980/osmextract/model"
)

// ErrNoPolygon is returned when a region source holds no polygonal geometry.
var ErrNoPolygon = errors.New("predicate: no polygon geometry found")

// Load reads a region file. Files ending in .wkt are parsed as WKT,
// everything else as GeoJSON.
func Load(path string) (Predicate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("predicate: read region: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wkt":
		return FromWKT(string(data))
	default:
		return FromGeoJSON(data)
	}
}

// FromGeoJSON builds a Polygon predicate from a FeatureCollection, a
// Feature or a bare geometry. All polygonal geometries are combined.
func FromGeoJSON(data []byte) (Predicate, error) {
	var geoms []orb.Geometry
	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil && len(fc.Features) > 0 {
		for _, f := range fc.Features {
			geoms = append(geoms, f.Geometry)
		}
	} else if f, err := geojson.UnmarshalFeature(data); err == nil && f.Geometry != nil {
		geoms = append(geoms, f.Geometry)
	} else {
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("predicate: parse geojson: %w", err)
		}
		geoms = append(geoms, g.Geometry())
	}
	return fromGeometries(geoms)
}

// FromWKT builds a predicate from a WKT POLYGON or MULTIPOLYGON.
func FromWKT(s string) (Predicate, error) {
	g, err := wkt.Unmarshal(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("predicate: parse wkt: %w", err)
	}
	return fromGeometries([]orb.Geometry{g})
}

// FromGeometry builds a predicate from an orb geometry. A Bound yields a Box.
func FromGeometry(g orb.Geometry) (Predicate, error) {
	if b, ok := g.(orb.Bound); ok {
		return NewBox(model.EnvelopeFromBound(b)), nil
	}
	return fromGeometries([]orb.Geometry{g})
}

func fromGeometries(geoms []orb.Geometry) (Predicate, error) {
	var mp orb.MultiPolygon
	for _, g := range geoms {
		switch v := g.(type) {
		case orb.Polygon:
			mp = append(mp, v)
		case orb.MultiPolygon:
			mp = append(mp, v...)
		case orb.Collection:
			for _, c := range v {
				switch cv := c.(type) {
				case orb.Polygon:
					mp = append(mp, cv)
				case orb.MultiPolygon:
					mp = append(mp, cv...)
				}
			}
		}
	}
	if len(mp) == 0 {
		return nil, ErrNoPolygon
	}
	return NewPolygon(mp)
}

// ParseBBox parses "minlon,minlat,maxlon,maxlat" into a Box.
func ParseBBox(s string) (*Box, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("predicate: bbox %q: want 4 comma separated values", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("predicate: bbox %q: %w", s, err)
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] {
		return nil, fmt.Errorf("predicate: bbox %q: min exceeds max", s)
	}
	return NewBox(model.NewEnvelope(v[0], v[1], v[2], v[3])), nil
}
