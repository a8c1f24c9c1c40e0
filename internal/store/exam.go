package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/mquell/vocab-api/internal/domain"
)

// ExamStore defines the interface for exam and exam section persistence.
type ExamStore interface {
	// Create saves a new pending exam.
	// Returns validation errors from the domain exam if data is invalid.
	Create(ctx context.Context, exam *domain.Exam) error

	// GetByID retrieves an exam by its unique ID.
	// Returns ErrExamNotFound if the exam does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Exam, error)

	// GetForUpdate retrieves an exam with a row-level lock using
	// SELECT FOR UPDATE. Use inside a transaction for state transitions so
	// concurrent transitions on the same exam serialize.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Exam, error)

	// ListByUser retrieves a page of the user's exams, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Exam, error)

	// Update persists an exam's mutable fields (status, counts, error text,
	// answers, completion time).
	// Returns ErrExamNotFound if the exam does not exist.
	Update(ctx context.Context, exam *domain.Exam) error

	// ClaimGeneration atomically claims the generation step for a pending,
	// unclaimed exam by stamping generation_started_at. Returns true for the
	// single caller that wins the claim; false when the exam is no longer
	// pending or another generation is already in flight.
	// Returns ErrExamNotFound if the exam does not exist.
	// This guard is what enforces at-most-one-concurrent-generation without
	// holding any lock across the external call.
	ClaimGeneration(ctx context.Context, id uuid.UUID) (bool, error)

	// CreateSpellingSections saves the spelling sections of an exam.
	// MUST be run within the same transaction as the Pending→Generated
	// transition so a failed generation leaves zero sections.
	CreateSpellingSections(ctx context.Context, sections []*domain.SpellingSection) error

	// CreateTranslationSections saves the translation sections of an exam.
	// Same transactional requirement as CreateSpellingSections.
	CreateTranslationSections(ctx context.Context, sections []*domain.TranslationSection) error

	// ListSpellingSections returns an exam's spelling sections in creation order.
	ListSpellingSections(ctx context.Context, examID uuid.UUID) ([]*domain.SpellingSection, error)

	// ListTranslationSections returns an exam's translation sections in creation order.
	ListTranslationSections(ctx context.Context, examID uuid.UUID) ([]*domain.TranslationSection, error)

	// CountSections returns the total number of sections (both types) an
	// exam owns. Zero for a failed generation, exactly
	// spelling_words_count + translation_sentences_count for a successful one.
	CountSections(ctx context.Context, examID uuid.UUID) (int, error)

	// Delete removes an exam and its sections.
	// Returns ErrExamNotFound if the exam does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns an ExamStore bound to the provided transaction.
	WithTx(tx *sql.Tx) ExamStore
}
