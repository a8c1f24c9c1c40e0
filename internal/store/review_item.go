package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/mquell/vocab-api/internal/domain"
)

// DueCursor is a keyset cursor over the due-item ordering
// (next_review_due ascending with nulls first, then item ID). The zero
// value starts from the beginning; the cursor returned with each page
// resumes after the last item seen, so traversal is restartable and
// bounded by the collection size.
type DueCursor struct {
	Due *time.Time
	ID  uuid.UUID
}

// IsZero reports whether the cursor is the start-of-traversal marker.
func (c DueCursor) IsZero() bool {
	return c.Due == nil && c.ID == uuid.Nil
}

// ReviewItemStore defines the interface for review item persistence.
//
// Create and Delete are the ONLY mutators of the item set, and each adjusts
// the owning collection's derived item count by exactly one inside the same
// transaction. Both MUST therefore be run within a transaction (use WithTx
// together with store.RunInTransaction); no observer may see a count that
// disagrees with the live item set.
type ReviewItemStore interface {
	// Create saves a new review item and increments the owning collection's
	// item count atomically.
	// Returns ErrItemExists if the (collection, entry) pair already has an item.
	// Returns ErrCollectionNotFound if the owning collection does not exist.
	Create(ctx context.Context, item *domain.ReviewItem) error

	// GetByID retrieves a review item by its unique ID.
	// Returns ErrItemNotFound if the item does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ReviewItem, error)

	// GetForUpdate retrieves a review item with a row-level lock using
	// SELECT FOR UPDATE. Use inside a transaction when recording attempts so
	// concurrent updates on the same item serialize instead of losing writes.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.ReviewItem, error)

	// GetByCollectionAndEntry retrieves the item for a (collection, entry) pair.
	// Returns ErrItemNotFound if the pair has no item.
	GetByCollectionAndEntry(ctx context.Context, collectionID, entryID uuid.UUID) (*domain.ReviewItem, error)

	// Update modifies an existing review item's progress state.
	// Returns ErrItemNotFound if the item does not exist.
	Update(ctx context.Context, item *domain.ReviewItem) error

	// Delete removes a review item and decrements the owning collection's
	// item count atomically.
	// Returns ErrItemNotFound if the item does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListDue returns up to limit items of the collection that are due as of
	// the given time: status below Mastered and next_review_due null or not
	// after asOf, ordered by next_review_due ascending with nulls first.
	// The returned cursor resumes the traversal after the last item.
	ListDue(ctx context.Context, collectionID uuid.UUID, asOf time.Time, cursor DueCursor, limit int) ([]*domain.ReviewItem, DueCursor, error)

	// ListByCollection returns all items in a collection, optionally
	// excluding archived ones.
	ListByCollection(ctx context.Context, collectionID uuid.UUID, includeArchived bool) ([]*domain.ReviewItem, error)

	// CountEligible returns the number of non-archived items in a
	// collection, the upper bound on an exam's section counts.
	CountEligible(ctx context.Context, collectionID uuid.UUID) (int, error)

	// WithTx returns a ReviewItemStore bound to the provided transaction.
	WithTx(tx *sql.Tx) ReviewItemStore
}
