// Package predicate provides the geometric region tests used to decide
// which entities belong to an extract.
//
// A Predicate answers point, envelope, line and ring questions against one
// region. Box is an axis-aligned region; Polygon wraps an orb.MultiPolygon
// and uses orb/planar for containment. Load reads a region from GeoJSON or
// WKT, ParseBBox from a "minlon,minlat,maxlon,maxlat" string.
package predicate
