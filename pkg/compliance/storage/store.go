package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"veridian-hq/lattice/pkg/compliance"
)

// ErrNotFound is returned when no report matches the requested run ID.
var ErrNotFound = errors.New("report not found")

// StorageError wraps a backend failure with the backend name and operation.
type StorageError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s storage: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func newStorageError(backend, op string, err error) *StorageError {
	return &StorageError{Backend: backend, Op: op, Err: err}
}

// ListOptions narrows and bounds a report listing.
type ListOptions struct {
	// DocumentID restricts results to one document's history.
	DocumentID string

	// Limit bounds the number of returned reports. Zero means no limit.
	Limit int
}

// Store persists and retrieves document compliance reports. Reports are
// listed newest first.
type Store interface {
	// SaveReport persists a report keyed by its run ID.
	SaveReport(ctx context.Context, report *compliance.Report) error

	// GetReport returns the report with the given run ID, or ErrNotFound.
	GetReport(ctx context.Context, runID string) (*compliance.Report, error)

	// ListReports returns stored reports, newest first.
	ListReports(ctx context.Context, opts ListOptions) ([]*compliance.Report, error)

	// DeleteBefore removes reports created before cutoff and returns how
	// many were removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Count returns the number of stored reports.
	Count(ctx context.Context) (int64, error)

	// Close releases backend resources.
	Close() error
}
