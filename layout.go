package osmextract

import (
	"path"
	"strconv"

	"github.com/hupe1980/osmextract/model"
)

// Paths locate the parts of a dataset within its store.
type Paths struct {
	Tree                   string
	SimpleRelations        string
	ComplexRelations       string
	SimpleRelationsBboxes  string
	ComplexRelationsBboxes string
}

// DefaultPaths returns the standard dataset layout.
func DefaultPaths() Paths {
	return Paths{
		Tree:                   "tree",
		SimpleRelations:        "simple-relations",
		ComplexRelations:       "complex-relations",
		SimpleRelationsBboxes:  "simple-relations.bbox",
		ComplexRelationsBboxes: "complex-relations.bbox",
	}
}

// batches returns the batch directory and index of a relation category.
func (p Paths) batches(c model.Category) (dir, index string) {
	if c == model.ComplexRelations {
		return p.ComplexRelations, p.ComplexRelationsBboxes
	}
	return p.SimpleRelations, p.SimpleRelationsBboxes
}

// BatchFileNames are the entity file names inside a relation batch.
type BatchFileNames struct {
	Points    string
	Polylines string
	Relations string
}

// DefaultBatchFileNames uses the given extension, e.g. "oxb".
func DefaultBatchFileNames(ext string) BatchFileNames {
	return BatchFileNames{
		Points:    "nodes." + ext,
		Polylines: "ways." + ext,
		Relations: "relations." + ext,
	}
}

// BatchDir returns the directory of batch id below dir.
func BatchDir(dir string, id int64) string {
	return path.Join(dir, strconv.FormatInt(id, 10))
}
