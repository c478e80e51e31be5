package query

import (
	"iter"
	"slices"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// IDSet is a set of entity ids backed by a 64-bit roaring bitmap.
type IDSet struct {
	rb *roaring64.Bitmap
}

// NewIDSet creates an empty set.
func NewIDSet() *IDSet {
	return &IDSet{rb: roaring64.New()}
}

// Add adds id to the set.
func (s *IDSet) Add(id int64) {
	s.rb.Add(uint64(id))
}

// Contains checks if id is in the set.
func (s *IDSet) Contains(id int64) bool {
	return s.rb.Contains(uint64(id))
}

// IsEmpty returns true if the set is empty.
func (s *IDSet) IsEmpty() bool {
	return s.rb.IsEmpty()
}

// Cardinality returns the number of ids in the set.
func (s *IDSet) Cardinality() uint64 {
	return s.rb.GetCardinality()
}

// Sorted returns the ids in ascending signed order.
func (s *IDSet) Sorted() []int64 {
	out := make([]int64, 0, s.rb.GetCardinality())
	for id := range s.All() {
		out = append(out, id)
	}
	// negative ids iterate last as uint64
	slices.Sort(out)
	return out
}

// All iterates the ids in bitmap order.
func (s *IDSet) All() iter.Seq[int64] {
	return func(yield func(int64) bool) {
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(int64(it.Next())) {
				return
			}
		}
	}
}
