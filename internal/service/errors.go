// Package service provides application-level services orchestrating the
// review workflow, collection management, dictionary ingestion, and the
// exam lifecycle.
package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check these with errors.Is(); the transport layer maps them to
// response codes.
var (
	// ErrNotFound indicates the referenced entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict indicates a uniqueness or concurrency conflict, such as
	// adding a word twice to the same collection or losing a generation claim.
	ErrConflict = errors.New("conflicting operation")

	// ErrInvalidArgument indicates the caller supplied malformed input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidState indicates the operation is not permitted in the
	// entity's current lifecycle state.
	ErrInvalidState = errors.New("operation not allowed in current state")

	// ErrExternalFailure indicates a dependency outside the system failed,
	// typically the content generation service.
	ErrExternalFailure = errors.New("external dependency failed")

	// ErrIntegrityViolation indicates internal derived state disagrees with
	// the source of truth. Any occurrence is a bug, not a user error.
	ErrIntegrityViolation = errors.New("internal consistency violation")

	// ErrNotOwned indicates a resource is owned by a different user than
	// the one making the request.
	ErrNotOwned = errors.New("resource is owned by another user")
)

// OpError is the error type service methods wrap unexpected failures in.
// The sentinel category stays reachable through Unwrap.
type OpError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for OpError.
func (e *OpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *OpError) Unwrap() error {
	return e.Err
}

// NewOpError creates a new OpError.
func NewOpError(operation, message string, err error) *OpError {
	return &OpError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
