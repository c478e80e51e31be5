package osmextract

import (
	"errors"
	"fmt"

	"github.com/hupe1980/osmextract/entityio"
	"github.com/hupe1980/osmextract/internal/manifest"
	"github.com/hupe1980/osmextract/merge"
)

var (
	// ErrWorkspace is returned when the scratch directory is unusable.
	ErrWorkspace = errors.New("workspace unusable")
	// ErrSourceRead is returned when a dataset file cannot be read or decoded.
	ErrSourceRead = errors.New("source read failed")
	// ErrMergeConsistency is returned when merge sources break the ordering
	// contract: an unsorted source, or a duplicate id in strict mode.
	ErrMergeConsistency = errors.New("merge consistency violation")
	// ErrInvalidQuery is returned for incomplete queries.
	ErrInvalidQuery = errors.New("invalid query")
)

// WorkspaceError describes why the scratch directory was rejected.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type WorkspaceError struct {
	Path   string
	Reason string
	cause  error
}

func (e *WorkspaceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("workspace %s: %s: %v", e.Path, e.Reason, e.cause)
	}
	return fmt.Sprintf("workspace %s: %s", e.Path, e.Reason)
}

func (e *WorkspaceError) Unwrap() error { return e.cause }

// Is matches ErrWorkspace.
func (e *WorkspaceError) Is(target error) bool { return target == ErrWorkspace }

// SourceReadError names the dataset file that could not be read.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type SourceReadError struct {
	Name  string
	cause error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Name, e.cause)
}

func (e *SourceReadError) Unwrap() error { return e.cause }

// Is matches ErrSourceRead.
func (e *SourceReadError) Is(target error) bool { return target == ErrSourceRead }

// sourceError wraps failures to load a named dataset file.
func sourceError(name string, err error) error {
	if err == nil {
		return nil
	}
	var re *entityio.ReadError
	if errors.As(err, &re) {
		return &SourceReadError{Name: re.Name, cause: re.Err}
	}
	return &SourceReadError{Name: name, cause: err}
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var se *SourceReadError
	var we *WorkspaceError
	if errors.As(err, &se) || errors.As(err, &we) {
		return err
	}

	var re *entityio.ReadError
	if errors.As(err, &re) {
		return &SourceReadError{Name: re.Name, cause: re.Err}
	}
	if errors.Is(err, manifest.ErrChecksum) || errors.Is(err, manifest.ErrMagic) || errors.Is(err, manifest.ErrVersion) {
		return fmt.Errorf("%w: %w", ErrSourceRead, err)
	}

	if errors.Is(err, merge.ErrDuplicateID) || errors.Is(err, merge.ErrUnsorted) {
		return fmt.Errorf("%w: %w", ErrMergeConsistency, err)
	}

	return err
}
