package entityio

import (
	"context"
	"fmt"
	"io"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
)

// NewScanner decodes r in the given format. Only nodes, ways and relations
// are yielded; bounds and other elements are skipped.
func NewScanner(ctx context.Context, r io.Reader, f Format) (osm.Scanner, error) {
	switch f {
	case FormatBlock:
		return newBlockScanner(ctx, r)
	case FormatXML:
		return &entityScanner{Scanner: osmxml.New(ctx, r)}, nil
	case FormatPBF:
		return &entityScanner{Scanner: osmpbf.New(ctx, r, 1)}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
}

// entityScanner filters a scanner down to nodes, ways and relations.
type entityScanner struct {
	osm.Scanner
}

func (s *entityScanner) Scan() bool {
	for s.Scanner.Scan() {
		switch s.Scanner.Object().(type) {
		case *osm.Node, *osm.Way, *osm.Relation:
			return true
		}
	}
	return false
}

// SliceScanner yields a fixed list of objects. Useful for tests and for
// feeding in-memory data to the merge.
type SliceScanner struct {
	objs []osm.Object
	pos  int
}

// NewSliceScanner returns a scanner over objs.
func NewSliceScanner(objs []osm.Object) *SliceScanner {
	return &SliceScanner{objs: objs, pos: -1}
}

func (s *SliceScanner) Scan() bool {
	if s.pos+1 >= len(s.objs) {
		s.pos = len(s.objs)
		return false
	}
	s.pos++
	return true
}

func (s *SliceScanner) Object() osm.Object { return s.objs[s.pos] }

func (s *SliceScanner) Err() error { return nil }

func (s *SliceScanner) Close() error { return nil }
