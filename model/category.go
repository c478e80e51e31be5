package model

// Category identifies one ordered block of the output.
type Category uint8

const (
	Points Category = iota
	Polylines
	SimpleRelations
	ComplexRelations
)

// Categories lists all categories in output order.
var Categories = [...]Category{Points, Polylines, SimpleRelations, ComplexRelations}

// String returns the category name.
func (c Category) String() string {
	switch c {
	case Points:
		return "points"
	case Polylines:
		return "polylines"
	case SimpleRelations:
		return "simple-relations"
	case ComplexRelations:
		return "complex-relations"
	default:
		return "unknown"
	}
}
