package osmextract

import (
	"context"

	"github.com/paulmach/osm"

	"github.com/hupe1980/osmextract/entityio"
	"github.com/hupe1980/osmextract/merge"
	"github.com/hupe1980/osmextract/model"
)

// ResultAccumulator collects the partial files of a run per category,
// together with the running totals. Files are merged in the order they
// were added.
type ResultAccumulator struct {
	inputs [len(model.Categories)][]entityio.FileInput
	totals model.Tally
}

// Add registers partial files for category c.
func (a *ResultAccumulator) Add(c model.Category, in ...entityio.FileInput) {
	a.inputs[c] = append(a.inputs[c], in...)
}

// AddTally adds t to the totals.
func (a *ResultAccumulator) AddTally(t model.Tally) {
	a.totals = a.totals.Add(t)
}

// Inputs returns the files registered for c.
func (a *ResultAccumulator) Inputs(c model.Category) []entityio.FileInput {
	return a.inputs[c]
}

// Totals returns the summed tallies.
func (a *ResultAccumulator) Totals() model.Tally {
	return a.totals
}

// Len returns the number of registered files over all categories.
func (a *ResultAccumulator) Len() int {
	n := 0
	for _, in := range a.inputs {
		n += len(in)
	}
	return n
}

// mergeInputs returns the sources of category c. Relation files are read
// through a category filter: a complex batch carries the simple relations
// its relations are built from, and those belong to the simple block.
func (a *ResultAccumulator) mergeInputs(c model.Category) []merge.Input {
	out := make([]merge.Input, len(a.inputs[c]))
	for i, in := range a.inputs[c] {
		switch c {
		case model.SimpleRelations, model.ComplexRelations:
			out[i] = categoryInput{FileInput: in, c: c}
		default:
			out[i] = in
		}
	}
	return out
}

type categoryInput struct {
	entityio.FileInput
	c model.Category
}

func (in categoryInput) Open(ctx context.Context) (osm.Scanner, error) {
	sc, err := in.FileInput.Open(ctx)
	if err != nil {
		return nil, err
	}
	return &categoryScanner{Scanner: sc, c: in.c}, nil
}

// categoryScanner skips objects of other categories.
type categoryScanner struct {
	osm.Scanner
	c model.Category
}

func (s *categoryScanner) Scan() bool {
	for s.Scanner.Scan() {
		if c, ok := model.CategoryOf(s.Scanner.Object()); ok && c == s.c {
			return true
		}
	}
	return false
}
