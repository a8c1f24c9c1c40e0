package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/mquell/vocab-api/internal/domain"
)

// DictionaryStore defines the interface for dictionary entry persistence.
//
// Entries are immutable: there is deliberately no update method. Uniqueness
// of the word surface form is enforced at the storage boundary.
type DictionaryStore interface {
	// Create saves a new dictionary entry.
	// Returns ErrWordExists if an entry with the same surface form exists.
	// Returns validation errors from the domain entry if data is invalid.
	Create(ctx context.Context, entry *domain.DictionaryEntry) error

	// GetByID retrieves an entry by its unique ID.
	// Returns ErrEntryNotFound if the entry does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.DictionaryEntry, error)

	// GetByWord retrieves an entry by its normalized surface form.
	// Returns ErrEntryNotFound if the entry does not exist.
	GetByWord(ctx context.Context, word string) (*domain.DictionaryEntry, error)

	// GetManyByIDs retrieves the entries for the given IDs, keyed by ID.
	// Missing IDs are absent from the result rather than an error.
	GetManyByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.DictionaryEntry, error)

	// Delete removes an entry by its ID.
	// Returns ErrEntryNotFound if the entry does not exist.
	// Returns ErrReferenced if any review item still references the entry;
	// deleting a referenced entry is forbidden.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a DictionaryStore bound to the provided transaction.
	WithTx(tx *sql.Tx) DictionaryStore
}
