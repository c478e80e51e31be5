package entityio

import (
	"context"
	"fmt"
	"io"

	"github.com/paulmach/osm"

	"github.com/hupe1980/osmextract/blobstore"
)

// Writer is an entity sink. Close flushes and closes the underlying stream.
type Writer interface {
	Write(o osm.Object) error
	Close() error
}

// NewWriter encodes entities to w according to cfg. The writer owns w.
func NewWriter(w io.WriteCloser, cfg OutputConfig) (Writer, error) {
	switch cfg.Format {
	case FormatBlock:
		return newBlockWriter(w, cfg)
	case FormatXML:
		return newXMLWriter(w, cfg)
	}
	return nil, fmt.Errorf("%w: cannot write %s", ErrUnsupportedFormat, cfg.Format)
}

// Create opens a new blob and returns a Writer over it.
func Create(ctx context.Context, store blobstore.BlobStore, name string, cfg OutputConfig) (Writer, error) {
	if cfg.Format != FormatBlock && cfg.Format != FormatXML {
		return nil, fmt.Errorf("%w: cannot write %s", ErrUnsupportedFormat, cfg.Format)
	}
	blob, err := store.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(blob, cfg)
	if err != nil {
		_ = blob.Close()
		return nil, err
	}
	return w, nil
}

// SliceWriter collects entities in memory.
type SliceWriter struct {
	Objects []osm.Object
	Closed  bool
}

func (s *SliceWriter) Write(o osm.Object) error {
	s.Objects = append(s.Objects, o)
	return nil
}

func (s *SliceWriter) Close() error {
	s.Closed = true
	return nil
}
