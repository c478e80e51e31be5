package tree

import (
	"path"

	"github.com/hupe1980/osmextract/model"
)

// FileNames are the per-leaf entity file names.
type FileNames struct {
	Points           string
	Polylines        string
	SimpleRelations  string
	ComplexRelations string
}

// DefaultFileNames uses the given extension, e.g. "oxb".
func DefaultFileNames(ext string) FileNames {
	return FileNames{
		Points:           "nodes." + ext,
		Polylines:        "ways." + ext,
		SimpleRelations:  "relations.simple." + ext,
		ComplexRelations: "relations.complex." + ext,
	}
}

// Name returns the file name holding category c.
func (f FileNames) Name(c model.Category) string {
	switch c {
	case model.Points:
		return f.Points
	case model.Polylines:
		return f.Polylines
	case model.SimpleRelations:
		return f.SimpleRelations
	default:
		return f.ComplexRelations
	}
}

// LeafFile returns the blob name of category c of leaf n below dir.
func (f FileNames) LeafFile(dir string, n *Node, c model.Category) string {
	return path.Join(dir, n.Name(), f.Name(c))
}
