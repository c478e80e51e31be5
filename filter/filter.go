package filter

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/paulmach/osm"
)

// ErrInvalidFilter is returned for malformed filters and expressions.
var ErrInvalidFilter = errors.New("filter: invalid filter")

// Operator is a tag comparison.
type Operator string

const (
	// OpEqual matches a tag with exactly the value.
	OpEqual Operator = "eq"
	// OpNotEqual matches a present tag with a different value.
	OpNotEqual Operator = "ne"
	// OpIn matches a tag equal to one of Values.
	OpIn Operator = "in"
	// OpContains matches a tag whose value contains the substring.
	OpContains Operator = "contains"
	// OpExists matches any tag with the key.
	OpExists Operator = "exists"
)

// RelationFilter decides which relations of a batch are selected.
type RelationFilter interface {
	Accept(r *osm.Relation) bool
}

// Func adapts a function to RelationFilter.
type Func func(r *osm.Relation) bool

// Accept calls f.
func (f Func) Accept(r *osm.Relation) bool { return f(r) }

// Filter compares a single tag.
type Filter struct {
	Key      string
	Operator Operator
	Value    string
	Values   []string
}

// Validate checks that the filter is well-formed.
func (f *Filter) Validate() error {
	if f.Key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidFilter)
	}
	switch f.Operator {
	case OpEqual, OpNotEqual, OpContains, OpExists:
	case OpIn:
		if len(f.Values) == 0 {
			return fmt.Errorf("%w: %q has no values", ErrInvalidFilter, f.Key)
		}
	default:
		return fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, f.Operator)
	}
	return nil
}

// Matches checks if the tags match this filter. Every operator requires the
// key to be present.
func (f *Filter) Matches(tags osm.Tags) bool {
	if !tags.HasTag(f.Key) {
		return false
	}
	value := tags.Find(f.Key)

	switch f.Operator {
	case OpEqual:
		return value == f.Value
	case OpNotEqual:
		return value != f.Value
	case OpIn:
		return slices.Contains(f.Values, value)
	case OpContains:
		return strings.Contains(value, f.Value)
	case OpExists:
		return true
	default:
		return false
	}
}

func (f *Filter) String() string {
	switch f.Operator {
	case OpEqual:
		return f.Key + "=" + f.Value
	case OpNotEqual:
		return f.Key + "!=" + f.Value
	case OpIn:
		return f.Key + "=" + strings.Join(f.Values, "|")
	case OpContains:
		return f.Key + "~" + f.Value
	default:
		return f.Key
	}
}

// FilterSet matches when all of its filters match.
type FilterSet struct {
	Filters []Filter
}

// NewFilterSet validates and combines filters.
func NewFilterSet(filters ...Filter) (*FilterSet, error) {
	for i := range filters {
		if err := filters[i].Validate(); err != nil {
			return nil, err
		}
	}
	return &FilterSet{Filters: filters}, nil
}

// Matches checks if the tags match all filters in the set.
func (fs *FilterSet) Matches(tags osm.Tags) bool {
	for i := range fs.Filters {
		if !fs.Filters[i].Matches(tags) {
			return false
		}
	}
	return true
}

// Accept implements RelationFilter.
func (fs *FilterSet) Accept(r *osm.Relation) bool {
	return fs.Matches(r.Tags)
}

func (fs *FilterSet) String() string {
	parts := make([]string, len(fs.Filters))
	for i := range fs.Filters {
		parts[i] = fs.Filters[i].String()
	}
	return strings.Join(parts, " AND ")
}
