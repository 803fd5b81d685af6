package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"buildsync/internal/document"
)

// Store is the persistence boundary for compliance document records.
// Implementations return pkg/platform/sentinel errors for factual failures
// (ErrNotFound, ErrConflict); services translate those into domain errors.
type Store interface {
	Create(ctx context.Context, doc *document.Document) error
	FindByID(ctx context.Context, id uuid.UUID) (*document.Document, error)
	FindBySubcontractor(ctx context.Context, subcontractorID uuid.UUID) ([]*document.Document, error)

	// FindExpiringBefore returns every document with an expiration timestamp
	// at or before cutoff whose status is not yet expired. Documents without
	// an expiration are never returned.
	FindExpiringBefore(ctx context.Context, cutoff time.Time) ([]*document.Document, error)

	// Update applies mutate to the current stored record and persists the
	// result as one atomic read-modify-write. The callback sees the freshest
	// committed state, so preconditions checked inside it hold at write time.
	// An error returned by mutate aborts the update and is returned verbatim.
	Update(ctx context.Context, id uuid.UUID, mutate func(*document.Document) error) (*document.Document, error)

	Delete(ctx context.Context, id uuid.UUID) error
}
