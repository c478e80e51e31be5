package entityio

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/paulmach/osm"

	"github.com/hupe1980/osmextract/blobstore"
	"github.com/hupe1980/osmextract/resource"
)

// ReadError reports a source that could not be opened or decoded.
type ReadError struct {
	Name string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("entityio: read %s: %v", e.Name, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// FileInput names an entity file in a store together with its format.
type FileInput struct {
	Store  blobstore.BlobStore
	Name   string
	Format Format
	// IO optionally throttles reads.
	IO *resource.Controller
}

func (in FileInput) String() string {
	return in.Name + " (" + in.Format.String() + ")"
}

// Size returns the encoded size of the file.
func (in FileInput) Size(ctx context.Context) (int64, error) {
	b, err := in.Store.Open(ctx, in.Name)
	if err != nil {
		return 0, &ReadError{Name: in.Name, Err: err}
	}
	defer b.Close()
	return b.Size(), nil
}

// Open returns a scanner over the file. Failures, including decode errors
// reported later by Err, are *ReadError.
func (in FileInput) Open(ctx context.Context) (osm.Scanner, error) {
	blob, err := in.Store.Open(ctx, in.Name)
	if err != nil {
		return nil, &ReadError{Name: in.Name, Err: err}
	}
	rc, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		_ = blob.Close()
		return nil, &ReadError{Name: in.Name, Err: err}
	}

	var r io.Reader = rc
	if in.IO != nil {
		r = resource.NewRateLimitedReader(ctx, rc, in.IO)
	}
	sc, err := NewScanner(ctx, r, in.Format)
	if err != nil {
		_ = rc.Close()
		_ = blob.Close()
		return nil, &ReadError{Name: in.Name, Err: err}
	}
	return &inputScanner{Scanner: sc, name: in.Name, closers: []io.Closer{rc, blob}}, nil
}

type inputScanner struct {
	osm.Scanner
	name    string
	closers []io.Closer
}

func (s *inputScanner) Err() error {
	if err := s.Scanner.Err(); err != nil {
		return &ReadError{Name: s.name, Err: err}
	}
	return nil
}

func (s *inputScanner) Close() error {
	errs := []error{s.Scanner.Close()}
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Entities holds the content of one or more files grouped by kind.
type Entities struct {
	Nodes     []*osm.Node
	Ways      []*osm.Way
	Relations []*osm.Relation
}

// Len returns the total number of entities.
func (e *Entities) Len() int {
	return len(e.Nodes) + len(e.Ways) + len(e.Relations)
}

// Add appends o to the slice of its kind.
func (e *Entities) Add(o osm.Object) {
	switch v := o.(type) {
	case *osm.Node:
		e.Nodes = append(e.Nodes, v)
	case *osm.Way:
		e.Ways = append(e.Ways, v)
	case *osm.Relation:
		e.Relations = append(e.Relations, v)
	}
}

// ReadInto scans the whole input and appends its entities to dst.
func ReadInto(ctx context.Context, in FileInput, dst *Entities) error {
	sc, err := in.Open(ctx)
	if err != nil {
		return err
	}
	for sc.Scan() {
		dst.Add(sc.Object())
	}
	err = sc.Err()
	if cerr := sc.Close(); err == nil && cerr != nil {
		err = &ReadError{Name: in.Name, Err: cerr}
	}
	return err
}

// WriteAll writes every object to w and closes it.
func WriteAll(w Writer, objs ...osm.Object) error {
	for _, o := range objs {
		if err := w.Write(o); err != nil {
			_ = w.Close()
			return err
		}
	}
	return w.Close()
}
