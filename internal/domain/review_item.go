package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ItemStatus is the ordinal learning-progress status of a review item.
type ItemStatus int

// Review item status ladder. The ordinals are persisted, so the order is
// part of the storage contract: statuses below ItemStatusMastered are
// active and schedulable.
const (
	ItemStatusNew       ItemStatus = 0
	ItemStatusLearning  ItemStatus = 1
	ItemStatusReviewing ItemStatus = 2
	ItemStatusMastered  ItemStatus = 3
	ItemStatusArchived  ItemStatus = 4
)

// String returns the human-readable name of the status.
func (s ItemStatus) String() string {
	switch s {
	case ItemStatusNew:
		return "new"
	case ItemStatusLearning:
		return "learning"
	case ItemStatusReviewing:
		return "reviewing"
	case ItemStatusMastered:
		return "mastered"
	case ItemStatusArchived:
		return "archived"
	default:
		return "unknown"
	}
}

// IsValid reports whether the status is one of the defined ordinals.
func (s ItemStatus) IsValid() bool {
	return s >= ItemStatusNew && s <= ItemStatusArchived
}

// IsActive reports whether the item still participates in scheduling.
// Mastered and Archived items are excluded from due-item queries.
func (s ItemStatus) IsActive() bool {
	return s < ItemStatusMastered
}

// IsTerminal reports whether the status admits no automatic transitions.
func (s ItemStatus) IsTerminal() bool {
	return s == ItemStatusMastered || s == ItemStatusArchived
}

// ReviewItem-specific validation errors
var (
	// ErrItemIDEmpty is returned when a review item ID is empty or nil.
	ErrItemIDEmpty = errors.New("review item ID cannot be empty")

	// ErrItemCollectionIDEmpty is returned when a review item's collection ID is empty or nil.
	ErrItemCollectionIDEmpty = errors.New("review item collection ID cannot be empty")

	// ErrItemUserIDEmpty is returned when a review item's user ID is empty or nil.
	ErrItemUserIDEmpty = errors.New("review item user ID cannot be empty")

	// ErrItemEntryIDEmpty is returned when a review item's dictionary entry ID is empty or nil.
	ErrItemEntryIDEmpty = errors.New("review item entry ID cannot be empty")

	// ErrNegativeCounter is returned when any progress counter is negative.
	ErrNegativeCounter = errors.New("review item counters cannot be negative")

	// ErrDueDateOnTerminal is returned when a terminal-status item still
	// carries a next review due date.
	ErrDueDateOnTerminal = errors.New("terminal review item cannot have a next review due date")
)

// ReviewItem is the atomic unit of learning progress: one user's progress
// on one dictionary entry within one collection. The (CollectionID, EntryID)
// pair is unique; the same word in another collection is tracked by an
// independent item.
//
// All counters are monotonically non-decreasing. NextReviewDue is nil for
// items that were never scheduled and for terminal statuses.
type ReviewItem struct {
	ID           uuid.UUID  `json:"id"`
	CollectionID uuid.UUID  `json:"collection_id"`
	UserID       uuid.UUID  `json:"user_id"`
	EntryID      uuid.UUID  `json:"entry_id"`
	Status       ItemStatus `json:"status"`
	ReviewCount  int        `json:"review_count"`
	FailCount    int        `json:"fail_count"`
	MatchCount   int        `json:"match_count"`
	StudyCount   int        `json:"study_count"`
	LastReview   *time.Time `json:"last_review_time,omitempty"`
	NextDue      *time.Time `json:"next_review_due,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewReviewItem creates a fresh review item for a word just added to a
// collection: status New, all counters zero, no scheduled review.
// Returns an error if validation fails.
func NewReviewItem(collectionID, userID, entryID uuid.UUID) (*ReviewItem, error) {
	now := time.Now().UTC()
	item := &ReviewItem{
		ID:           uuid.New(),
		CollectionID: collectionID,
		UserID:       userID,
		EntryID:      entryID,
		Status:       ItemStatusNew,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

// Validate checks if the ReviewItem has valid data.
func (i *ReviewItem) Validate() error {
	if i.ID == uuid.Nil {
		return ErrItemIDEmpty
	}

	if i.CollectionID == uuid.Nil {
		return ErrItemCollectionIDEmpty
	}

	if i.UserID == uuid.Nil {
		return ErrItemUserIDEmpty
	}

	if i.EntryID == uuid.Nil {
		return ErrItemEntryIDEmpty
	}

	if !i.Status.IsValid() {
		return ErrInvalidItemStatus
	}

	if i.ReviewCount < 0 || i.FailCount < 0 || i.MatchCount < 0 || i.StudyCount < 0 {
		return ErrNegativeCounter
	}

	if i.Status.IsTerminal() && i.NextDue != nil {
		return ErrDueDateOnTerminal
	}

	return nil
}

// Clone returns a deep copy of the item. Progress calculations return new
// instances instead of mutating stored state.
func (i *ReviewItem) Clone() *ReviewItem {
	clone := *i
	if i.LastReview != nil {
		t := *i.LastReview
		clone.LastReview = &t
	}
	if i.NextDue != nil {
		t := *i.NextDue
		clone.NextDue = &t
	}
	return &clone
}

// IsDue reports whether the item should be presented for study at the given
// time. Never-scheduled active items are always due; terminal items never are.
func (i *ReviewItem) IsDue(asOf time.Time) bool {
	if !i.Status.IsActive() {
		return false
	}
	if i.NextDue == nil {
		return true
	}
	return !i.NextDue.After(asOf)
}
