// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrEmptyContent is returned when required content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidItemStatus is returned when a review item status is outside
	// the defined ordinal range.
	ErrInvalidItemStatus = errors.New("invalid review item status")

	// ErrInvalidExamStatus is returned when an exam status is not valid.
	ErrInvalidExamStatus = errors.New("invalid exam status")

	// ErrInvalidTransition is returned when an exam state transition is not
	// permitted by the lifecycle table.
	ErrInvalidTransition = errors.New("invalid exam state transition")

	// ErrEntryReferenced is returned when deleting a dictionary entry that
	// is still referenced by review items or exam sections.
	ErrEntryReferenced = errors.New("dictionary entry is still referenced")
)
