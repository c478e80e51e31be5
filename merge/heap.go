package merge

import (
	"container/heap"

	"github.com/paulmach/osm"
)

// Compile time check to ensure cursorQueue satisfies the heap interface.
var _ heap.Interface = (*cursorQueue)(nil)

// key orders entities: nodes, then ways, then relations, each by id.
type key struct {
	rank int
	id   int64
}

func keyOf(o osm.Object) key {
	switch v := o.(type) {
	case *osm.Node:
		return key{0, int64(v.ID)}
	case *osm.Way:
		return key{1, int64(v.ID)}
	case *osm.Relation:
		return key{2, int64(v.ID)}
	default:
		return key{3, o.ObjectID().Ref()}
	}
}

func (k key) less(o key) bool {
	if k.rank != o.rank {
		return k.rank < o.rank
	}
	return k.id < o.id
}

// cursor is the read position in one source.
type cursor struct {
	name    string
	source  int
	scanner osm.Scanner
	head    osm.Object
	key     key
	started bool
	index   int
}

// advance loads the next entity. It returns false at the end of the source.
func (c *cursor) advance() (bool, error) {
	if !c.scanner.Scan() {
		c.head = nil
		return false, c.scanner.Err()
	}
	obj := c.scanner.Object()
	k := keyOf(obj)
	if c.started && !c.key.less(k) {
		return false, &ConsistencyError{
			Err:     ErrUnsorted,
			Type:    obj.ObjectID().Type(),
			ID:      k.id,
			Sources: []string{c.name},
		}
	}
	c.head, c.key, c.started = obj, k, true
	return true, nil
}

// cursorQueue is a min-heap of cursors by (head key, source index).
type cursorQueue struct {
	items []*cursor
}

func (q *cursorQueue) Len() int { return len(q.items) }

func (q *cursorQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.key != b.key {
		return a.key.less(b.key)
	}
	return a.source < b.source
}

func (q *cursorQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index, q.items[j].index = i, j
}

func (q *cursorQueue) Push(x any) {
	c, _ := x.(*cursor)
	c.index = len(q.items)
	q.items = append(q.items, c)
}

func (q *cursorQueue) Pop() any {
	old := q.items
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	c.index = -1
	q.items = old[:n-1]
	return c
}

// top returns the smallest cursor without removing it.
func (q *cursorQueue) top() *cursor { return q.items[0] }
