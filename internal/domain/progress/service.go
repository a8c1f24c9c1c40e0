// Package progress implements the review-item scheduling policy: the
// promotion/demotion ladder and the interval backoff between reviews.
// All calculations are pure and return new instances; persistence is the
// caller's concern.
package progress

import (
	"errors"
	"time"

	"github.com/mquell/vocab-api/internal/domain"
)

// Common errors
var (
	ErrNilItem      = errors.New("review item cannot be nil")
	ErrItemArchived = errors.New("review item is archived")
)

// Service defines the interface for review scheduling operations.
type Service interface {
	// RecordAttempt computes the item state after one study attempt.
	// Returns ErrItemArchived for archived items.
	RecordAttempt(item *domain.ReviewItem, wasCorrect bool, now time.Time) (*domain.ReviewItem, error)

	// Archive computes the item state after explicit archival.
	Archive(item *domain.ReviewItem, now time.Time) (*domain.ReviewItem, error)
}

type defaultService struct {
	params *Params
}

// NewDefaultService creates a scheduling service with default parameters.
func NewDefaultService() Service {
	return &defaultService{params: NewDefaultParams()}
}

// NewServiceWithParams creates a scheduling service with custom parameters.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{params: params}
}

// RecordAttempt implements Service.RecordAttempt.
func (s *defaultService) RecordAttempt(
	item *domain.ReviewItem,
	wasCorrect bool,
	now time.Time,
) (*domain.ReviewItem, error) {
	if item == nil {
		return nil, ErrNilItem
	}

	if item.Status == domain.ItemStatusArchived {
		return nil, ErrItemArchived
	}

	return calculateAttempt(item, wasCorrect, now, s.params), nil
}

// Archive implements Service.Archive.
func (s *defaultService) Archive(
	item *domain.ReviewItem,
	now time.Time,
) (*domain.ReviewItem, error) {
	if item == nil {
		return nil, ErrNilItem
	}

	return calculateArchive(item, now), nil
}
