package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ExamStatus is the lifecycle state of an exam.
type ExamStatus string

// Exam lifecycle states. Completed and Failed are terminal.
const (
	ExamStatusPending   ExamStatus = "pending"
	ExamStatusGenerated ExamStatus = "generated"
	ExamStatusGrading   ExamStatus = "grading"
	ExamStatusCompleted ExamStatus = "completed"
	ExamStatusFailed    ExamStatus = "failed"
)

// examTransitions is the only legal set of exam state transitions.
var examTransitions = map[ExamStatus][]ExamStatus{
	ExamStatusPending:   {ExamStatusGenerated, ExamStatusFailed},
	ExamStatusGenerated: {ExamStatusGrading},
	ExamStatusGrading:   {ExamStatusCompleted, ExamStatusFailed},
	ExamStatusCompleted: {},
	ExamStatusFailed:    {},
}

// IsValid reports whether the status is one of the defined lifecycle states.
func (s ExamStatus) IsValid() bool {
	_, ok := examTransitions[s]
	return ok
}

// IsTerminal reports whether the exam admits no further transitions.
func (s ExamStatus) IsTerminal() bool {
	return s == ExamStatusCompleted || s == ExamStatusFailed
}

// CanTransitionTo reports whether moving from s to next is permitted.
func (s ExamStatus) CanTransitionTo(next ExamStatus) bool {
	for _, allowed := range examTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ExamMode selects how a submitted exam is graded.
type ExamMode string

// Supported exam modes.
const (
	// ExamModeImmediate grades the exam as soon as answers are submitted.
	ExamModeImmediate ExamMode = "immediate"

	// ExamModeDeferred stores answers for a later grading pass.
	ExamModeDeferred ExamMode = "deferred"
)

// IsValid reports whether the mode is supported.
func (m ExamMode) IsValid() bool {
	return m == ExamModeImmediate || m == ExamModeDeferred
}

// Exam-specific validation errors
var (
	// ErrExamIDEmpty is returned when an exam ID is empty or nil.
	ErrExamIDEmpty = errors.New("exam ID cannot be empty")

	// ErrExamUserIDEmpty is returned when an exam's user ID is empty or nil.
	ErrExamUserIDEmpty = errors.New("exam user ID cannot be empty")

	// ErrExamCollectionIDEmpty is returned when an exam's collection ID is empty or nil.
	ErrExamCollectionIDEmpty = errors.New("exam collection ID cannot be empty")

	// ErrExamInvalidMode is returned when an exam's mode is not supported.
	ErrExamInvalidMode = errors.New("invalid exam mode")

	// ErrExamNoSections is returned when an exam is requested with zero
	// spelling words and zero translation sentences.
	ErrExamNoSections = errors.New("exam must request at least one section")

	// ErrExamNegativeCounts is returned when a requested section count is negative.
	ErrExamNegativeCounts = errors.New("exam section counts cannot be negative")
)

// Exam is a point-in-time assessment drawn from one collection. The section
// counts are fixed at creation and define the exact shape a successful
// generation must produce. GenerationError is populated only when the exam
// failed during generation.
//
// GenerationStartedAt is the claim marker for the at-most-one-concurrent
// generation guard: only the call that atomically sets it from NULL while
// the exam is still pending may run the external generation step.
type Exam struct {
	ID                       uuid.UUID    `json:"id"`
	UserID                   uuid.UUID    `json:"user_id"`
	CollectionID             uuid.UUID    `json:"collection_id"`
	Mode                     ExamMode     `json:"mode"`
	Status                   ExamStatus   `json:"exam_status"`
	TotalWords               int          `json:"total_words"`
	SpellingWordCount        int          `json:"spelling_words_count"`
	TranslationSentenceCount int          `json:"translation_sentences_count"`
	GenerationError          string       `json:"generation_error,omitempty"`
	GenerationStartedAt      *time.Time   `json:"generation_started_at,omitempty"`
	Answers                  *ExamAnswers `json:"answers,omitempty"`
	CreatedAt                time.Time    `json:"created_at"`
	CompletedAt              *time.Time   `json:"completed_at,omitempty"`
}

// NewExam creates a pending exam for the given collection with fixed section
// counts. Returns an error if validation fails.
func NewExam(userID, collectionID uuid.UUID, mode ExamMode, spellingCount, translationCount int) (*Exam, error) {
	exam := &Exam{
		ID:                       uuid.New(),
		UserID:                   userID,
		CollectionID:             collectionID,
		Mode:                     mode,
		Status:                   ExamStatusPending,
		TotalWords:               spellingCount + translationCount,
		SpellingWordCount:        spellingCount,
		TranslationSentenceCount: translationCount,
		CreatedAt:                time.Now().UTC(),
	}

	if err := exam.Validate(); err != nil {
		return nil, err
	}

	return exam, nil
}

// Validate checks if the Exam has valid data.
func (e *Exam) Validate() error {
	if e.ID == uuid.Nil {
		return ErrExamIDEmpty
	}

	if e.UserID == uuid.Nil {
		return ErrExamUserIDEmpty
	}

	if e.CollectionID == uuid.Nil {
		return ErrExamCollectionIDEmpty
	}

	if !e.Mode.IsValid() {
		return ErrExamInvalidMode
	}

	if !e.Status.IsValid() {
		return ErrInvalidExamStatus
	}

	if e.SpellingWordCount < 0 || e.TranslationSentenceCount < 0 {
		return ErrExamNegativeCounts
	}

	if e.SpellingWordCount+e.TranslationSentenceCount == 0 {
		return ErrExamNoSections
	}

	return nil
}

// TransitionTo moves the exam to the next lifecycle state, enforcing the
// transition table. The stored state is unchanged when the transition is
// rejected.
func (e *Exam) TransitionTo(next ExamStatus) error {
	if !next.IsValid() {
		return ErrInvalidExamStatus
	}
	if !e.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	e.Status = next
	return nil
}

// SpellingSection is one assessed word in an exam. Prompt and Answer are
// snapshots captured at generation time: they stay correct even if the
// dictionary entry's content is later edited or the originating review item
// is deleted. ItemID is therefore nullable.
type SpellingSection struct {
	ID        uuid.UUID     `json:"id"`
	ExamID    uuid.UUID     `json:"exam_id"`
	EntryID   uuid.UUID     `json:"entry_id"`
	ItemID    uuid.NullUUID `json:"item_id,omitempty"`
	Prompt    string        `json:"prompt"`
	Answer    string        `json:"answer"`
	CreatedAt time.Time     `json:"created_at"`
}

// Section-specific validation errors
var (
	ErrSectionIDEmpty      = errors.New("section ID cannot be empty")
	ErrSectionExamIDEmpty  = errors.New("section exam ID cannot be empty")
	ErrSectionEntryIDEmpty = errors.New("section entry ID cannot be empty")
	ErrSectionPromptEmpty  = errors.New("section prompt cannot be empty")
	ErrSectionAnswerEmpty  = errors.New("section answer cannot be empty")
)

// NewSpellingSection creates a spelling section snapshotting the given
// prompt (meaning) and answer (word form).
func NewSpellingSection(examID, entryID, itemID uuid.UUID, prompt, answer string) (*SpellingSection, error) {
	section := &SpellingSection{
		ID:        uuid.New(),
		ExamID:    examID,
		EntryID:   entryID,
		ItemID:    uuid.NullUUID{UUID: itemID, Valid: itemID != uuid.Nil},
		Prompt:    prompt,
		Answer:    answer,
		CreatedAt: time.Now().UTC(),
	}

	if err := section.Validate(); err != nil {
		return nil, err
	}

	return section, nil
}

// Validate checks if the SpellingSection has valid data.
func (s *SpellingSection) Validate() error {
	if s.ID == uuid.Nil {
		return ErrSectionIDEmpty
	}
	if s.ExamID == uuid.Nil {
		return ErrSectionExamIDEmpty
	}
	if s.EntryID == uuid.Nil {
		return ErrSectionEntryIDEmpty
	}
	if s.Prompt == "" {
		return ErrSectionPromptEmpty
	}
	if s.Answer == "" {
		return ErrSectionAnswerEmpty
	}
	return nil
}

// TranslationSection is one generated sentence in an exam. ItemIDs lists the
// review items the sentence exercises in order; the references are
// informational only and may dangle after items are pruned.
type TranslationSection struct {
	ID          uuid.UUID   `json:"id"`
	ExamID      uuid.UUID   `json:"exam_id"`
	SentenceKey string      `json:"sentence_key"`
	Prompt      string      `json:"prompt"`
	ItemIDs     []uuid.UUID `json:"item_ids"`
	CreatedAt   time.Time   `json:"created_at"`
}

// NewTranslationSection creates a translation section snapshotting the
// sentence to translate and the items it exercises.
func NewTranslationSection(examID uuid.UUID, sentenceKey, prompt string, itemIDs []uuid.UUID) (*TranslationSection, error) {
	section := &TranslationSection{
		ID:          uuid.New(),
		ExamID:      examID,
		SentenceKey: sentenceKey,
		Prompt:      prompt,
		ItemIDs:     itemIDs,
		CreatedAt:   time.Now().UTC(),
	}

	if err := section.Validate(); err != nil {
		return nil, err
	}

	return section, nil
}

// Validate checks if the TranslationSection has valid data.
func (s *TranslationSection) Validate() error {
	if s.ID == uuid.Nil {
		return ErrSectionIDEmpty
	}
	if s.ExamID == uuid.Nil {
		return ErrSectionExamIDEmpty
	}
	if s.Prompt == "" {
		return ErrSectionPromptEmpty
	}
	return nil
}
