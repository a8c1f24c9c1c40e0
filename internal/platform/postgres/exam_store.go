package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mquell/vocab-api/internal/domain"
	"github.com/mquell/vocab-api/internal/platform/logger"
	"github.com/mquell/vocab-api/internal/store"
)

// PostgresExamStore implements the store.ExamStore interface
// using a PostgreSQL database as the storage backend.
type PostgresExamStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresExamStore creates a new PostgreSQL implementation of the
// ExamStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresExamStore(db store.DBTX, logger *slog.Logger) *PostgresExamStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresExamStore{
		db:     db,
		logger: logger.With(slog.String("component", "exam_store")),
	}
}

// Ensure PostgresExamStore implements store.ExamStore interface
var _ store.ExamStore = (*PostgresExamStore)(nil)

const examColumns = `id, user_id, collection_id, mode, exam_status, total_words,
		spelling_words_count, translation_sentences_count, generation_error,
		generation_started_at, answers, created_at, completed_at`

func scanExam(row interface{ Scan(...interface{}) error }) (*domain.Exam, error) {
	var exam domain.Exam
	var mode, status string
	var answers []byte
	err := row.Scan(
		&exam.ID,
		&exam.UserID,
		&exam.CollectionID,
		&mode,
		&status,
		&exam.TotalWords,
		&exam.SpellingWordCount,
		&exam.TranslationSentenceCount,
		&exam.GenerationError,
		&exam.GenerationStartedAt,
		&answers,
		&exam.CreatedAt,
		&exam.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	exam.Mode = domain.ExamMode(mode)
	exam.Status = domain.ExamStatus(status)
	if len(answers) > 0 {
		var a domain.ExamAnswers
		if err := json.Unmarshal(answers, &a); err != nil {
			return nil, fmt.Errorf("failed to decode exam answers: %w", err)
		}
		exam.Answers = &a
	}
	return &exam, nil
}

func marshalAnswers(exam *domain.Exam) ([]byte, error) {
	if exam.Answers == nil {
		return nil, nil
	}
	return json.Marshal(exam.Answers)
}

// Create implements store.ExamStore.Create
func (s *PostgresExamStore) Create(ctx context.Context, exam *domain.Exam) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := exam.Validate(); err != nil {
		log.Warn("exam validation failed during create",
			slog.String("error", err.Error()),
			slog.String("exam_id", exam.ID.String()))
		return err
	}

	answers, err := marshalAnswers(exam)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO exams (` + examColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		exam.ID,
		exam.UserID,
		exam.CollectionID,
		string(exam.Mode),
		string(exam.Status),
		exam.TotalWords,
		exam.SpellingWordCount,
		exam.TranslationSentenceCount,
		exam.GenerationError,
		exam.GenerationStartedAt,
		answers,
		exam.CreatedAt,
		exam.CompletedAt,
	)

	if err != nil {
		log.Error("failed to create exam",
			slog.String("error", err.Error()),
			slog.String("exam_id", exam.ID.String()),
			slog.String("collection_id", exam.CollectionID.String()))
		return MapError(err)
	}

	log.Info("exam created successfully",
		slog.String("exam_id", exam.ID.String()),
		slog.String("collection_id", exam.CollectionID.String()),
		slog.String("mode", string(exam.Mode)))
	return nil
}

// GetByID implements store.ExamStore.GetByID
// Returns store.ErrExamNotFound if the exam does not exist.
func (s *PostgresExamStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Exam, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + examColumns + `
		FROM exams
		WHERE id = $1
	`

	exam, err := scanExam(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("exam not found", slog.String("exam_id", id.String()))
			return nil, store.ErrExamNotFound
		}
		log.Error("failed to get exam by ID",
			slog.String("error", err.Error()),
			slog.String("exam_id", id.String()))
		return nil, err
	}

	return exam, nil
}

// GetForUpdate implements store.ExamStore.GetForUpdate
// It locks the exam row with SELECT FOR UPDATE, so it must be called within
// a transaction. Returns store.ErrExamNotFound if the exam does not exist.
func (s *PostgresExamStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Exam, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + examColumns + `
		FROM exams
		WHERE id = $1
		FOR UPDATE
	`

	exam, err := scanExam(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("exam not found for update", slog.String("exam_id", id.String()))
			return nil, store.ErrExamNotFound
		}
		log.Error("failed to get exam for update",
			slog.String("error", err.Error()),
			slog.String("exam_id", id.String()))
		return nil, err
	}

	return exam, nil
}

// ListByUser implements store.ExamStore.ListByUser
func (s *PostgresExamStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.Exam, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + examColumns + `
		FROM exams
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		log.Error("failed to query exams by user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	exams := []*domain.Exam{}
	for rows.Next() {
		exam, err := scanExam(rows)
		if err != nil {
			log.Error("failed to scan exam row", slog.String("error", err.Error()))
			return nil, err
		}
		exams = append(exams, exam)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return exams, nil
}

// Update implements store.ExamStore.Update
// Returns store.ErrExamNotFound if the exam does not exist.
func (s *PostgresExamStore) Update(ctx context.Context, exam *domain.Exam) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := exam.Validate(); err != nil {
		log.Warn("exam validation failed during update",
			slog.String("error", err.Error()),
			slog.String("exam_id", exam.ID.String()))
		return err
	}

	answers, err := marshalAnswers(exam)
	if err != nil {
		return err
	}

	query := `
		UPDATE exams
		SET exam_status = $1, total_words = $2, spelling_words_count = $3,
			translation_sentences_count = $4, generation_error = $5,
			generation_started_at = $6, answers = $7, completed_at = $8
		WHERE id = $9
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		string(exam.Status),
		exam.TotalWords,
		exam.SpellingWordCount,
		exam.TranslationSentenceCount,
		exam.GenerationError,
		exam.GenerationStartedAt,
		answers,
		exam.CompletedAt,
		exam.ID,
	)

	if err != nil {
		log.Error("failed to update exam",
			slog.String("error", err.Error()),
			slog.String("exam_id", exam.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "exam"); err != nil {
		log.Debug("exam not found for update", slog.String("exam_id", exam.ID.String()))
		return store.ErrExamNotFound
	}

	log.Info("exam updated successfully",
		slog.String("exam_id", exam.ID.String()),
		slog.String("status", string(exam.Status)))
	return nil
}

// ClaimGeneration implements store.ExamStore.ClaimGeneration
// The conditional UPDATE succeeds for exactly one caller: the exam must
// still be pending with no generation in flight. Losing callers get false
// rather than an error so they can report a conflict.
func (s *PostgresExamStore) ClaimGeneration(ctx context.Context, id uuid.UUID) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE exams
		SET generation_started_at = NOW()
		WHERE id = $1
		  AND exam_status = $2
		  AND generation_started_at IS NULL
	`

	result, err := s.db.ExecContext(ctx, query, id, string(domain.ExamStatusPending))
	if err != nil {
		log.Error("failed to claim exam generation",
			slog.String("error", err.Error()),
			slog.String("exam_id", id.String()))
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Distinguish a lost claim from a missing exam.
		var exists bool
		err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM exams WHERE id = $1)`, id).Scan(&exists)
		if err != nil {
			return false, err
		}
		if !exists {
			return false, store.ErrExamNotFound
		}
		log.Debug("exam generation claim lost",
			slog.String("exam_id", id.String()))
		return false, nil
	}

	log.Info("exam generation claimed",
		slog.String("exam_id", id.String()))
	return true, nil
}

// CreateSpellingSections implements store.ExamStore.CreateSpellingSections
// Must run within the same transaction as the exam's status transition.
func (s *PostgresExamStore) CreateSpellingSections(
	ctx context.Context,
	sections []*domain.SpellingSection,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, ok := s.db.(*sql.Tx); !ok {
		return fmt.Errorf("%w: CreateSpellingSections requires a transaction", store.ErrTransactionFailed)
	}

	query := `
		INSERT INTO spelling_sections (id, exam_id, entry_id, item_id, prompt, answer, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, section := range sections {
		if err := section.Validate(); err != nil {
			log.Warn("spelling section validation failed",
				slog.String("error", err.Error()),
				slog.String("section_id", section.ID.String()))
			return err
		}

		_, err := s.db.ExecContext(
			ctx,
			query,
			section.ID,
			section.ExamID,
			section.EntryID,
			section.ItemID,
			section.Prompt,
			section.Answer,
			section.CreatedAt,
		)
		if err != nil {
			log.Error("failed to create spelling section",
				slog.String("error", err.Error()),
				slog.String("section_id", section.ID.String()),
				slog.String("exam_id", section.ExamID.String()))
			return MapError(err)
		}
	}

	log.Debug("spelling sections created",
		slog.Int("count", len(sections)))
	return nil
}

// CreateTranslationSections implements store.ExamStore.CreateTranslationSections
// Must run within the same transaction as the exam's status transition.
func (s *PostgresExamStore) CreateTranslationSections(
	ctx context.Context,
	sections []*domain.TranslationSection,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, ok := s.db.(*sql.Tx); !ok {
		return fmt.Errorf("%w: CreateTranslationSections requires a transaction", store.ErrTransactionFailed)
	}

	query := `
		INSERT INTO translation_sections (id, exam_id, sentence_key, prompt, item_ids, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, section := range sections {
		if err := section.Validate(); err != nil {
			log.Warn("translation section validation failed",
				slog.String("error", err.Error()),
				slog.String("section_id", section.ID.String()))
			return err
		}

		itemIDs, err := json.Marshal(section.ItemIDs)
		if err != nil {
			return err
		}

		_, err = s.db.ExecContext(
			ctx,
			query,
			section.ID,
			section.ExamID,
			section.SentenceKey,
			section.Prompt,
			itemIDs,
			section.CreatedAt,
		)
		if err != nil {
			log.Error("failed to create translation section",
				slog.String("error", err.Error()),
				slog.String("section_id", section.ID.String()),
				slog.String("exam_id", section.ExamID.String()))
			return MapError(err)
		}
	}

	log.Debug("translation sections created",
		slog.Int("count", len(sections)))
	return nil
}

// ListSpellingSections implements store.ExamStore.ListSpellingSections
func (s *PostgresExamStore) ListSpellingSections(
	ctx context.Context,
	examID uuid.UUID,
) ([]*domain.SpellingSection, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, exam_id, entry_id, item_id, prompt, answer, created_at
		FROM spelling_sections
		WHERE exam_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, examID)
	if err != nil {
		log.Error("failed to query spelling sections",
			slog.String("error", err.Error()),
			slog.String("exam_id", examID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	sections := []*domain.SpellingSection{}
	for rows.Next() {
		var section domain.SpellingSection
		err := rows.Scan(
			&section.ID,
			&section.ExamID,
			&section.EntryID,
			&section.ItemID,
			&section.Prompt,
			&section.Answer,
			&section.CreatedAt,
		)
		if err != nil {
			log.Error("failed to scan spelling section row", slog.String("error", err.Error()))
			return nil, err
		}
		sections = append(sections, &section)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return sections, nil
}

// ListTranslationSections implements store.ExamStore.ListTranslationSections
func (s *PostgresExamStore) ListTranslationSections(
	ctx context.Context,
	examID uuid.UUID,
) ([]*domain.TranslationSection, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, exam_id, sentence_key, prompt, item_ids, created_at
		FROM translation_sections
		WHERE exam_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, examID)
	if err != nil {
		log.Error("failed to query translation sections",
			slog.String("error", err.Error()),
			slog.String("exam_id", examID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	sections := []*domain.TranslationSection{}
	for rows.Next() {
		var section domain.TranslationSection
		var itemIDs []byte
		err := rows.Scan(
			&section.ID,
			&section.ExamID,
			&section.SentenceKey,
			&section.Prompt,
			&itemIDs,
			&section.CreatedAt,
		)
		if err != nil {
			log.Error("failed to scan translation section row", slog.String("error", err.Error()))
			return nil, err
		}
		if err := json.Unmarshal(itemIDs, &section.ItemIDs); err != nil {
			return nil, fmt.Errorf("failed to decode item IDs for translation section %s: %w", section.ID, err)
		}
		sections = append(sections, &section)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return sections, nil
}

// CountSections implements store.ExamStore.CountSections
func (s *PostgresExamStore) CountSections(ctx context.Context, examID uuid.UUID) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT
			(SELECT COUNT(*) FROM spelling_sections WHERE exam_id = $1) +
			(SELECT COUNT(*) FROM translation_sections WHERE exam_id = $1)
	`

	var count int
	if err := s.db.QueryRowContext(ctx, query, examID).Scan(&count); err != nil {
		log.Error("failed to count exam sections",
			slog.String("error", err.Error()),
			slog.String("exam_id", examID.String()))
		return 0, err
	}

	return count, nil
}

// Delete implements store.ExamStore.Delete
// Sections are removed by the CASCADE on their exam foreign key.
// Returns store.ErrExamNotFound if the exam does not exist.
func (s *PostgresExamStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		DELETE FROM exams
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete exam",
			slog.String("error", err.Error()),
			slog.String("exam_id", id.String()))
		return err
	}

	if err := CheckRowsAffected(result, "exam"); err != nil {
		log.Debug("exam not found for delete", slog.String("exam_id", id.String()))
		return store.ErrExamNotFound
	}

	log.Info("exam deleted successfully", slog.String("exam_id", id.String()))
	return nil
}

// WithTx implements store.ExamStore.WithTx
// It returns a new ExamStore instance that uses the provided transaction.
func (s *PostgresExamStore) WithTx(tx *sql.Tx) store.ExamStore {
	return &PostgresExamStore{
		db:     tx,
		logger: s.logger,
	}
}
