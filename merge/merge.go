package merge

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/osm"

	"github.com/hupe1980/osmextract/entityio"
)

var (
	// ErrUnsorted is returned when a source is not strictly ascending.
	ErrUnsorted = errors.New("merge: source not strictly ascending")
	// ErrDuplicateID is returned for equal ids across sources when the
	// policy is Fail.
	ErrDuplicateID = errors.New("merge: duplicate id across sources")
)

// ConsistencyError describes which entity broke the ordering contract.
type ConsistencyError struct {
	Err     error
	Type    osm.Type
	ID      int64
	Sources []string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%v: %s %d in %s", e.Err, e.Type, e.ID, strings.Join(e.Sources, ", "))
}

func (e *ConsistencyError) Unwrap() error { return e.Err }

// DuplicatePolicy controls how equal ids across sources are handled.
type DuplicatePolicy int

const (
	// Collapse keeps one copy per id: the one with the most tags, then the
	// highest version, then the earliest source.
	Collapse DuplicatePolicy = iota
	// Fail aborts the merge with ErrDuplicateID.
	Fail
)

func (p DuplicatePolicy) String() string {
	if p == Fail {
		return "fail"
	}
	return "collapse"
}

// Options configure a merge.
type Options struct {
	Policy DuplicatePolicy
}

// Stats summarises a merge.
type Stats struct {
	Sources    int
	Written    int64
	Duplicates int64
}

// Input is a named source that can be opened for reading.
type Input interface {
	Open(ctx context.Context) (osm.Scanner, error)
	String() string
}

// Merge opens all inputs and merges them into out. Every opened source is
// closed before Merge returns. out is not closed.
func Merge(ctx context.Context, out entityio.Writer, inputs []Input, opts Options) (stats Stats, err error) {
	scanners := make([]osm.Scanner, 0, len(inputs))
	names := make([]string, 0, len(inputs))
	defer func() {
		for _, s := range scanners {
			if cerr := s.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
	}()

	for _, in := range inputs {
		s, oerr := in.Open(ctx)
		if oerr != nil {
			return Stats{}, oerr
		}
		scanners = append(scanners, s)
		names = append(names, in.String())
	}
	return mergeScanners(ctx, out, scanners, names, opts)
}

// mergeScanners merges opened scanners, named by names or by position.
func mergeScanners(ctx context.Context, out entityio.Writer, scanners []osm.Scanner, names []string, opts Options) (Stats, error) {
	cursors := make([]*cursor, len(scanners))
	for i, s := range scanners {
		name := fmt.Sprintf("source %d", i)
		if i < len(names) {
			name = names[i]
		}
		cursors[i] = &cursor{name: name, source: i, scanner: s}
	}
	return run(ctx, out, cursors, opts)
}

func run(ctx context.Context, out entityio.Writer, cursors []*cursor, opts Options) (Stats, error) {
	stats := Stats{Sources: len(cursors)}

	q := &cursorQueue{items: make([]*cursor, 0, len(cursors))}
	for _, c := range cursors {
		ok, err := c.advance()
		if err != nil {
			return stats, err
		}
		if ok {
			heap.Push(q, c)
		}
	}

	var same []*cursor
	for n := 0; q.Len() > 0; n++ {
		if n&1023 == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}

		same = append(same[:0], heap.Pop(q).(*cursor))
		for q.Len() > 0 && q.top().key == same[0].key {
			same = append(same, heap.Pop(q).(*cursor))
		}

		best := same[0].head
		if len(same) > 1 {
			if opts.Policy == Fail {
				return stats, duplicateError(same)
			}
			for _, c := range same[1:] {
				if preferred(c.head, best) {
					best = c.head
				}
			}
			stats.Duplicates += int64(len(same) - 1)
		}

		if err := out.Write(best); err != nil {
			return stats, err
		}
		stats.Written++

		for _, c := range same {
			ok, err := c.advance()
			if err != nil {
				return stats, err
			}
			if ok {
				heap.Push(q, c)
			}
		}
	}
	return stats, nil
}

func duplicateError(same []*cursor) error {
	names := make([]string, len(same))
	for i, c := range same {
		names[i] = c.name
	}
	return &ConsistencyError{
		Err:     ErrDuplicateID,
		Type:    same[0].head.ObjectID().Type(),
		ID:      same[0].key.id,
		Sources: names,
	}
}

// preferred reports whether a replaces b among copies of one entity: more
// tags first, then the higher version.
func preferred(a, b osm.Object) bool {
	at, av := weight(a)
	bt, bv := weight(b)
	if at != bt {
		return at > bt
	}
	return av > bv
}

func weight(o osm.Object) (tags, version int) {
	switch v := o.(type) {
	case *osm.Node:
		return len(v.Tags), v.Version
	case *osm.Way:
		return len(v.Tags), v.Version
	case *osm.Relation:
		return len(v.Tags), v.Version
	default:
		return 0, 0
	}
}
