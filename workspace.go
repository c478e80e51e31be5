package osmextract

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/hupe1980/osmextract/blobstore"
	"github.com/hupe1980/osmextract/internal/fs"
	"github.com/hupe1980/osmextract/model"
)

// Scratch sub directories, relative to the workspace root.
const (
	dirTree    = "tree"
	dirSimple  = "simple-relations"
	dirComplex = "complex-relations"
)

var (
	treeOutputs = [...]string{"nodes", "ways", "relations.simple", "relations.complex", "nodes-extra", "ways-extra"}
	batchOutput = [...]string{"nodes", "ways", "relations"}
)

// workspace is the exclusively owned scratch directory of one run.
type workspace struct {
	path  string
	fsys  fs.FileSystem
	store *blobstore.LocalStore
	next  int
}

// openWorkspace prepares dir, or a fresh temp directory if dir is empty.
func openWorkspace(fsys fs.FileSystem, dir string) (*workspace, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "extract-"+uuid.NewString())
	}

	info, err := fsys.Stat(dir)
	switch {
	case os.IsNotExist(err):
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return nil, &WorkspaceError{Path: dir, Reason: "cannot create", cause: err}
		}
	case err != nil:
		return nil, &WorkspaceError{Path: dir, Reason: "cannot access", cause: err}
	case !info.IsDir():
		return nil, &WorkspaceError{Path: dir, Reason: "not a directory"}
	default:
		entries, err := fsys.ReadDir(dir)
		if err != nil {
			return nil, &WorkspaceError{Path: dir, Reason: "cannot list", cause: err}
		}
		if len(entries) > 0 {
			return nil, &WorkspaceError{Path: dir, Reason: fmt.Sprintf("not empty (%d entries)", len(entries))}
		}
	}

	var subdirs []string
	for _, s := range treeOutputs {
		subdirs = append(subdirs, filepath.Join(dir, dirTree, s))
	}
	for _, s := range batchOutput {
		subdirs = append(subdirs, filepath.Join(dir, dirSimple, s), filepath.Join(dir, dirComplex, s))
	}
	for _, s := range subdirs {
		if err := fsys.MkdirAll(s, 0o755); err != nil {
			return nil, &WorkspaceError{Path: dir, Reason: "cannot create " + s, cause: err}
		}
	}

	return &workspace{
		path:  dir,
		fsys:  fsys,
		store: blobstore.NewLocalStoreFS(dir, fsys),
	}, nil
}

// leafNames returns fresh names for the six outputs of a leaf evaluation.
func (w *workspace) leafNames(ext string) [6]string {
	w.next++
	var names [6]string
	for i, s := range treeOutputs {
		names[i] = path.Join(dirTree, s, fmt.Sprintf("%d.%s", w.next, ext))
	}
	return names
}

// batchNames returns fresh names for the points, polylines and relations
// outputs of a batch evaluation.
func (w *workspace) batchNames(c model.Category, ext string) [3]string {
	w.next++
	dir := dirSimple
	if c == model.ComplexRelations {
		dir = dirComplex
	}
	var names [3]string
	for i, s := range batchOutput {
		names[i] = path.Join(dir, s, fmt.Sprintf("%d.%s", w.next, ext))
	}
	return names
}

func (w *workspace) remove() error {
	return w.fsys.RemoveAll(w.path)
}
