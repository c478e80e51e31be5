// Package model defines the core types shared by the extraction packages.
//
// # Geometry
//
//   - Envelope: axis-aligned lon/lat box backed by orb.Bound
//
// # Entities
//
// Entities are the paulmach/osm types: *osm.Node (point), *osm.Way
// (polyline) and *osm.Relation. Helpers in this package extract ids and
// coordinates and sort slices by id.
//
// # Categories
//
// The output file is ordered by Category: points, polylines, simple
// relations, complex relations.
package model
