package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/mquell/vocab-api/internal/domain"
)

// CountMismatch reports a collection whose stored derived item count
// disagrees with the live review item count. Any occurrence is an internal
// consistency bug.
type CountMismatch struct {
	CollectionID uuid.UUID
	StoredCount  int
	LiveCount    int
}

// CollectionStore defines the interface for collection persistence.
//
// The derived ItemCount column is adjusted only by ReviewItemStore
// Create/Delete (always inside the same transaction as the item mutation)
// and by the cascading DeleteCascade below. No other code path may touch it.
type CollectionStore interface {
	// Create saves a new collection.
	// Returns validation errors from the domain collection if data is invalid.
	Create(ctx context.Context, collection *domain.Collection) error

	// GetByID retrieves a collection by its unique ID.
	// Returns ErrCollectionNotFound if the collection does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Collection, error)

	// GetForUpdate retrieves a collection with a row-level lock using
	// SELECT FOR UPDATE. Use inside a transaction when the collection row
	// will be updated and concurrent modifications must serialize.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Collection, error)

	// ListByUser retrieves all collections owned by a user, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Collection, error)

	// Update modifies an existing collection's name and description.
	// The derived item count is never written by this method.
	// Returns ErrCollectionNotFound if the collection does not exist.
	Update(ctx context.Context, collection *domain.Collection) error

	// DeleteCascade removes a collection together with all of its review
	// items, exams, and exam sections. Dictionary entries are never touched.
	// MUST be run within a transaction: callers never observe a half-deleted
	// collection. Returns ErrCollectionNotFound if the collection does not exist.
	DeleteCascade(ctx context.Context, id uuid.UUID) error

	// CountLiveItems recomputes the live review item count for a collection
	// directly from the item table, bypassing the derived column.
	CountLiveItems(ctx context.Context, id uuid.UUID) (int, error)

	// FindCountMismatches returns every collection whose stored item count
	// disagrees with its live item count. Used by tests and the background
	// reconciler; a non-empty result is an integrity violation.
	FindCountMismatches(ctx context.Context) ([]CountMismatch, error)

	// WithTx returns a CollectionStore bound to the provided transaction.
	WithTx(tx *sql.Tx) CollectionStore
}
