package filter

import (
	"fmt"
	"strings"
)

// Parse parses a single filter expression.
func Parse(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)

	var f Filter
	switch {
	case strings.Contains(expr, "!="):
		key, value, _ := strings.Cut(expr, "!=")
		f = Filter{Key: key, Operator: OpNotEqual, Value: value}
	case strings.Contains(expr, "="):
		key, value, _ := strings.Cut(expr, "=")
		if strings.Contains(value, "|") {
			f = Filter{Key: key, Operator: OpIn, Values: strings.Split(value, "|")}
		} else {
			f = Filter{Key: key, Operator: OpEqual, Value: value}
		}
	case strings.Contains(expr, "~"):
		key, value, _ := strings.Cut(expr, "~")
		f = Filter{Key: key, Operator: OpContains, Value: value}
	default:
		f = Filter{Key: expr, Operator: OpExists}
	}
	f.Key = strings.TrimSpace(f.Key)

	if err := f.Validate(); err != nil {
		return Filter{}, fmt.Errorf("%w (expression %q)", err, expr)
	}
	return f, nil
}

// ParseSet parses every expression into one AND-combined set.
func ParseSet(exprs []string) (*FilterSet, error) {
	filters := make([]Filter, 0, len(exprs))
	for _, e := range exprs {
		f, err := Parse(e)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return NewFilterSet(filters...)
}
