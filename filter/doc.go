// Package filter selects relations by their tags.
//
// A Filter compares one tag against a value; a FilterSet combines filters
// with AND semantics. Filters can be built in code or parsed from short
// expressions:
//
//	type=route         tag equals value
//	type=route|ferry   tag equals one of the values
//	admin_level!=2     tag exists and differs
//	name~Straße        tag value contains the substring
//	boundary           tag exists
package filter
