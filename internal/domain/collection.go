package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Collection-specific validation errors
var (
	// ErrCollectionIDEmpty is returned when a collection ID is empty or nil.
	ErrCollectionIDEmpty = errors.New("collection ID cannot be empty")

	// ErrCollectionUserIDEmpty is returned when a collection's user ID is empty or nil.
	ErrCollectionUserIDEmpty = errors.New("collection user ID cannot be empty")

	// ErrCollectionNameEmpty is returned when a collection's name is empty.
	ErrCollectionNameEmpty = errors.New("collection name cannot be empty")

	// ErrCollectionNameTooLong is returned when a collection's name exceeds the limit.
	ErrCollectionNameTooLong = errors.New("collection name cannot exceed 30 characters")

	// ErrNegativeItemCount is returned when a collection's derived item count
	// would go below zero.
	ErrNegativeItemCount = errors.New("collection item count cannot be negative")
)

// MaxCollectionNameLength is the maximum length of a collection name.
const MaxCollectionNameLength = 30

// Collection is a per-user named grouping of review items.
//
// ItemCount is derived state: it must always equal the number of live
// review items referencing the collection. It is adjusted only by the
// store operations that mutate the item set, inside the same transaction.
type Collection struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ItemCount   int       `json:"item_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewCollection creates a new empty Collection owned by the given user.
// Returns an error if validation fails.
func NewCollection(userID uuid.UUID, name, description string) (*Collection, error) {
	now := time.Now().UTC()
	collection := &Collection{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		ItemCount:   0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := collection.Validate(); err != nil {
		return nil, err
	}

	return collection, nil
}

// Validate checks if the Collection has valid data.
func (c *Collection) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCollectionIDEmpty
	}

	if c.UserID == uuid.Nil {
		return ErrCollectionUserIDEmpty
	}

	if strings.TrimSpace(c.Name) == "" {
		return ErrCollectionNameEmpty
	}

	if len(c.Name) > MaxCollectionNameLength {
		return ErrCollectionNameTooLong
	}

	if c.ItemCount < 0 {
		return ErrNegativeItemCount
	}

	return nil
}

// Rename updates the collection's name and bumps the updated timestamp.
// Returns an error if the new name is invalid.
func (c *Collection) Rename(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrCollectionNameEmpty
	}
	if len(trimmed) > MaxCollectionNameLength {
		return ErrCollectionNameTooLong
	}

	c.Name = trimmed
	c.UpdatedAt = time.Now().UTC()
	return nil
}
