package domain

import (
	"errors"

	"github.com/google/uuid"
)

// Answer-related validation errors
var (
	// ErrAnswersEmpty is returned when an exam submission carries no answers.
	ErrAnswersEmpty = errors.New("exam answers cannot be empty")

	// ErrAnswerSectionIDEmpty is returned when an answer does not name its section.
	ErrAnswerSectionIDEmpty = errors.New("answer section ID cannot be empty")
)

// SectionAnswer is a user's answer to one exam section, keyed by section ID.
type SectionAnswer struct {
	SectionID uuid.UUID `json:"section_id"`
	Answer    string    `json:"answer"`
}

// ExamAnswers is the full answer sheet submitted for grading. It is
// persisted on the exam at submission time so deferred grading works from a
// durable snapshot rather than a second client round-trip.
type ExamAnswers struct {
	Spelling    []SectionAnswer `json:"spelling"`
	Translation []SectionAnswer `json:"translation"`
}

// Validate checks the answer sheet shape.
func (a *ExamAnswers) Validate() error {
	if len(a.Spelling) == 0 && len(a.Translation) == 0 {
		return ErrAnswersEmpty
	}
	for _, ans := range a.Spelling {
		if ans.SectionID == uuid.Nil {
			return ErrAnswerSectionIDEmpty
		}
	}
	for _, ans := range a.Translation {
		if ans.SectionID == uuid.Nil {
			return ErrAnswerSectionIDEmpty
		}
	}
	return nil
}

// GradingResult is the graded outcome of one exam section. ItemID carries
// the originating review item when it still exists; results whose item was
// deleted after generation are graded but produce no progress feedback.
type GradingResult struct {
	SectionID uuid.UUID     `json:"section_id"`
	ItemID    uuid.NullUUID `json:"item_id"`
	Correct   bool          `json:"correct"`
	Feedback  string        `json:"feedback,omitempty"`
}
