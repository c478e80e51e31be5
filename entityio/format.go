package entityio

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFormat is returned for unknown formats or read-only formats
// used for writing.
var ErrUnsupportedFormat = errors.New("entityio: unsupported format")

// Format is an entity file encoding.
type Format uint8

const (
	FormatBlock Format = iota
	FormatXML
	FormatPBF
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatBlock:
		return "block"
	case FormatXML:
		return "xml"
	case FormatPBF:
		return "pbf"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// Extension returns the file suffix without dot.
func (f Format) Extension() string {
	switch f {
	case FormatXML:
		return "osm"
	case FormatPBF:
		return "pbf"
	default:
		return "oxb"
	}
}

// ParseFormat parses a format name or file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "block", "oxb":
		return FormatBlock, nil
	case "xml", "osm":
		return FormatXML, nil
	case "pbf":
		return FormatPBF, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Compression selects the block compression of FormatBlock.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZ4  Compression = 1
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	}
	return 0, fmt.Errorf("entityio: unknown compression %q", s)
}

// OutputConfig controls how a Writer encodes entities.
type OutputConfig struct {
	Format      Format
	Compression Compression
	// WriteMetadata keeps version, changeset, user and timestamp fields.
	WriteMetadata bool
	// BlockSize is the uncompressed block size for FormatBlock.
	BlockSize int
}

// DefaultOutputConfig is used for scratch files: fast lz4 blocks with metadata.
func DefaultOutputConfig() OutputConfig {
	return OutputConfig{
		Format:        FormatBlock,
		Compression:   CompressionLZ4,
		WriteMetadata: true,
		BlockSize:     defaultBlockSize,
	}
}
