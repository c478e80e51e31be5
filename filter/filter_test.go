package filter

import (
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterMatches(t *testing.T) {
	tags := osm.Tags{
		{Key: "type", Value: "route"},
		{Key: "route", Value: "bus"},
		{Key: "name", Value: "Linie 42 Hauptbahnhof"},
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"eq", Filter{Key: "type", Operator: OpEqual, Value: "route"}, true},
		{"eq mismatch", Filter{Key: "type", Operator: OpEqual, Value: "multipolygon"}, false},
		{"eq missing key", Filter{Key: "boundary", Operator: OpEqual, Value: ""}, false},
		{"ne", Filter{Key: "route", Operator: OpNotEqual, Value: "tram"}, true},
		{"ne same", Filter{Key: "route", Operator: OpNotEqual, Value: "bus"}, false},
		{"ne missing key", Filter{Key: "network", Operator: OpNotEqual, Value: "x"}, false},
		{"in", Filter{Key: "route", Operator: OpIn, Values: []string{"tram", "bus"}}, true},
		{"in mismatch", Filter{Key: "route", Operator: OpIn, Values: []string{"ferry"}}, false},
		{"contains", Filter{Key: "name", Operator: OpContains, Value: "Haupt"}, true},
		{"exists", Filter{Key: "name", Operator: OpExists}, true},
		{"exists missing", Filter{Key: "ref", Operator: OpExists}, false},
		{"unknown operator", Filter{Key: "type", Operator: "gt", Value: "a"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(tags))
		})
	}
}

func TestFilterSet(t *testing.T) {
	fs, err := NewFilterSet(
		Filter{Key: "type", Operator: OpEqual, Value: "route"},
		Filter{Key: "route", Operator: OpIn, Values: []string{"bus", "tram"}},
	)
	require.NoError(t, err)

	bus := &osm.Relation{ID: 1, Tags: osm.Tags{{Key: "type", Value: "route"}, {Key: "route", Value: "bus"}}}
	ferry := &osm.Relation{ID: 2, Tags: osm.Tags{{Key: "type", Value: "route"}, {Key: "route", Value: "ferry"}}}
	untagged := &osm.Relation{ID: 3}

	assert.True(t, fs.Accept(bus))
	assert.False(t, fs.Accept(ferry))
	assert.False(t, fs.Accept(untagged))
	assert.Equal(t, "type=route AND route=bus|tram", fs.String())

	empty, err := NewFilterSet()
	require.NoError(t, err)
	assert.True(t, empty.Accept(untagged))
}

func TestNewFilterSetValidates(t *testing.T) {
	_, err := NewFilterSet(Filter{Operator: OpEqual, Value: "x"})
	assert.ErrorIs(t, err, ErrInvalidFilter)

	_, err = NewFilterSet(Filter{Key: "a", Operator: OpIn})
	assert.ErrorIs(t, err, ErrInvalidFilter)

	_, err = NewFilterSet(Filter{Key: "a", Operator: "lt"})
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestParse(t *testing.T) {
	tests := []struct {
		expr string
		want Filter
	}{
		{"type=multipolygon", Filter{Key: "type", Operator: OpEqual, Value: "multipolygon"}},
		{" admin_level!=2 ", Filter{Key: "admin_level", Operator: OpNotEqual, Value: "2"}},
		{"route=bus|tram", Filter{Key: "route", Operator: OpIn, Values: []string{"bus", "tram"}}},
		{"name~Straße", Filter{Key: "name", Operator: OpContains, Value: "Straße"}},
		{"boundary", Filter{Key: "boundary", Operator: OpExists}},
		{"note=a~b", Filter{Key: "note", Operator: OpEqual, Value: "a~b"}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Parse(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got.String(), (&tt.want).String())
		})
	}

	for _, bad := range []string{"", "=x", "!=y", "~z"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidFilter, bad)
	}
}

func TestParseSet(t *testing.T) {
	fs, err := ParseSet([]string{"type=route", "route=bus|tram"})
	require.NoError(t, err)
	require.Len(t, fs.Filters, 2)

	_, err = ParseSet([]string{"type=route", ""})
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestFunc(t *testing.T) {
	var f RelationFilter = Func(func(r *osm.Relation) bool { return r.ID%2 == 0 })
	assert.True(t, f.Accept(&osm.Relation{ID: 2}))
	assert.False(t, f.Accept(&osm.Relation{ID: 3}))
}
