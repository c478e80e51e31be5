// Package entityio reads and writes entity files.
//
// Sources are paulmach/osm Scanners yielding *osm.Node, *osm.Way and
// *osm.Relation in file order; every file the extractor consumes is sorted
// by id within each entity kind. Sinks implement Writer.
//
// # Formats
//
//   - FormatBlock: native stream of compressed blocks (none, lz4, zstd)
//     holding varint, delta coded records. Used for datasets and scratch files.
//   - FormatXML: OSM XML, read with osmxml and written with encoding/xml.
//   - FormatPBF: OSM PBF, read only.
package entityio
