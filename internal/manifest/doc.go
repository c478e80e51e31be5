// Package manifest implements the checksummed binary framing shared by the
// dataset's index files (tree manifest, relation batch bbox indexes).
//
// Layout:
//
//	Magic         (4 bytes)
//	Version       (4 bytes)
//	Checksum      (4 bytes) CRC32 (IEEE) of payload
//	PayloadLength (4 bytes)
//	Payload       (PayloadLength bytes)
//
// All integers are little endian.
package manifest
