package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the
	// store. This is the generic version of the entity-specific not found
	// errors (e.g., ErrCollectionNotFound, ErrItemNotFound).
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g., a second item for the same
	// (collection, entry) pair).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrReferenced is returned when deleting an entity that other rows
	// still depend on (e.g., a dictionary entry referenced by review items).
	ErrReferenced = errors.New("entity is still referenced")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrIntegrityViolation is returned when stored derived state disagrees
	// with the live data it is derived from. This indicates an internal
	// consistency bug, not a user-recoverable condition.
	ErrIntegrityViolation = errors.New("integrity violation")

	// Entity-specific "not found" errors

	// ErrEntryNotFound indicates that the requested dictionary entry does not exist.
	ErrEntryNotFound = fmt.Errorf("%w: dictionary entry", ErrNotFound)

	// ErrCollectionNotFound indicates that the requested collection does not exist.
	ErrCollectionNotFound = fmt.Errorf("%w: collection", ErrNotFound)

	// ErrItemNotFound indicates that the requested review item does not exist.
	ErrItemNotFound = fmt.Errorf("%w: review item", ErrNotFound)

	// ErrExamNotFound indicates that the requested exam does not exist.
	ErrExamNotFound = fmt.Errorf("%w: exam", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrWordExists indicates that a dictionary entry with the given surface
	// form already exists.
	ErrWordExists = fmt.Errorf("%w: word", ErrDuplicate)

	// ErrItemExists indicates that the (collection, entry) pair already has
	// a review item.
	ErrItemExists = fmt.Errorf("%w: review item", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
