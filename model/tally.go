package model

import "fmt"

// Tally counts the entities produced by one leaf or batch evaluation.
type Tally struct {
	Points              int64
	Polylines           int64
	SimpleRelations     int64
	ComplexRelations    int64
	AdditionalPoints    int64
	AdditionalPolylines int64
}

// Add returns the element-wise sum of t and o.
func (t Tally) Add(o Tally) Tally {
	return Tally{
		Points:              t.Points + o.Points,
		Polylines:           t.Polylines + o.Polylines,
		SimpleRelations:     t.SimpleRelations + o.SimpleRelations,
		ComplexRelations:    t.ComplexRelations + o.ComplexRelations,
		AdditionalPoints:    t.AdditionalPoints + o.AdditionalPoints,
		AdditionalPolylines: t.AdditionalPolylines + o.AdditionalPolylines,
	}
}

// Total is the number of entities across all fields.
func (t Tally) Total() int64 {
	return t.Points + t.Polylines + t.SimpleRelations + t.ComplexRelations +
		t.AdditionalPoints + t.AdditionalPolylines
}

func (t Tally) String() string {
	return fmt.Sprintf("points=%d polylines=%d simple=%d complex=%d extra-points=%d extra-polylines=%d",
		t.Points, t.Polylines, t.SimpleRelations, t.ComplexRelations,
		t.AdditionalPoints, t.AdditionalPolylines)
}
