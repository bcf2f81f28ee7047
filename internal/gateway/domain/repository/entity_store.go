package repository

import (
	"context"

	"buildmarket/internal/gateway/domain/model"
)

// EntityStore is the persistence contract for entity records. One
// implementation serves every kind; the kind only selects the collection.
//
// Implementations map missing records to errors.ErrNotFound and store-side
// indexing failures to errors.ErrQueryUnsupported. They add no retries,
// caching, or timeout policy of their own.
type EntityStore interface {
	// Find returns records matching the query's equality criteria, in the
	// requested sort order, bounded by the query limit.
	Find(ctx context.Context, kind model.Kind, q model.Query) ([]model.Entity, error)

	// Get returns one record by id.
	Get(ctx context.Context, kind model.Kind, id string) (model.Entity, error)

	// Insert stores a new record and returns the store-assigned id.
	Insert(ctx context.Context, kind model.Kind, fields model.Entity) (string, error)

	// InsertWithID stores a new record under a caller-chosen document key.
	// Used for uid-keyed user documents.
	InsertWithID(ctx context.Context, kind model.Kind, id string, fields model.Entity) error

	// Update merges fields into an existing record.
	Update(ctx context.Context, kind model.Kind, id string, fields model.Entity) error

	// Delete removes a record. Deleting an already-deleted id reports
	// errors.ErrNotFound; callers must tolerate either outcome per the
	// gateway contract.
	Delete(ctx context.Context, kind model.Kind, id string) error
}
