package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mquell/vocab-api/internal/domain"
	"github.com/mquell/vocab-api/internal/platform/logger"
	"github.com/mquell/vocab-api/internal/store"
)

// PostgresDictionaryStore implements the store.DictionaryStore interface
// using a PostgreSQL database as the storage backend.
type PostgresDictionaryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDictionaryStore creates a new PostgreSQL implementation of the
// DictionaryStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresDictionaryStore(db store.DBTX, logger *slog.Logger) *PostgresDictionaryStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDictionaryStore{
		db:     db,
		logger: logger.With(slog.String("component", "dictionary_store")),
	}
}

// Ensure PostgresDictionaryStore implements store.DictionaryStore interface
var _ store.DictionaryStore = (*PostgresDictionaryStore)(nil)

// Create implements store.DictionaryStore.Create
// It saves a new dictionary entry, handling domain validation.
// Returns store.ErrWordExists if the word's surface form is already stored.
func (s *PostgresDictionaryStore) Create(ctx context.Context, entry *domain.DictionaryEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("dictionary entry validation failed during create",
			slog.String("error", err.Error()),
			slog.String("entry_id", entry.ID.String()))
		return err
	}

	query := `
		INSERT INTO dictionary_entries (id, word, content, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.Word,
		entry.Content,
		entry.CreatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("word already exists",
				slog.String("word", entry.Word))
			return fmt.Errorf("%w: %q", store.ErrWordExists, entry.Word)
		}

		log.Error("failed to create dictionary entry",
			slog.String("error", err.Error()),
			slog.String("entry_id", entry.ID.String()),
			slog.String("word", entry.Word))
		return MapError(err)
	}

	log.Info("dictionary entry created successfully",
		slog.String("entry_id", entry.ID.String()),
		slog.String("word", entry.Word))
	return nil
}

// GetByID implements store.DictionaryStore.GetByID
// Returns store.ErrEntryNotFound if the entry does not exist.
func (s *PostgresDictionaryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.DictionaryEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, word, content, created_at
		FROM dictionary_entries
		WHERE id = $1
	`

	var entry domain.DictionaryEntry
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&entry.ID,
		&entry.Word,
		&entry.Content,
		&entry.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("dictionary entry not found", slog.String("entry_id", id.String()))
			return nil, store.ErrEntryNotFound
		}
		log.Error("failed to get dictionary entry by ID",
			slog.String("error", err.Error()),
			slog.String("entry_id", id.String()))
		return nil, err
	}

	return &entry, nil
}

// GetByWord implements store.DictionaryStore.GetByWord
// The word is normalized before lookup so callers may pass raw user input.
// Returns store.ErrEntryNotFound if the entry does not exist.
func (s *PostgresDictionaryStore) GetByWord(ctx context.Context, word string) (*domain.DictionaryEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	normalized := domain.NormalizeWord(word)

	query := `
		SELECT id, word, content, created_at
		FROM dictionary_entries
		WHERE word = $1
	`

	var entry domain.DictionaryEntry
	err := s.db.QueryRowContext(ctx, query, normalized).Scan(
		&entry.ID,
		&entry.Word,
		&entry.Content,
		&entry.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("dictionary entry not found", slog.String("word", normalized))
			return nil, store.ErrEntryNotFound
		}
		log.Error("failed to get dictionary entry by word",
			slog.String("error", err.Error()),
			slog.String("word", normalized))
		return nil, err
	}

	return &entry, nil
}

// GetManyByIDs implements store.DictionaryStore.GetManyByIDs
// Missing IDs are absent from the result map rather than an error.
func (s *PostgresDictionaryStore) GetManyByIDs(
	ctx context.Context,
	ids []uuid.UUID,
) (map[uuid.UUID]*domain.DictionaryEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result := make(map[uuid.UUID]*domain.DictionaryEntry, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `
		SELECT id, word, content, created_at
		FROM dictionary_entries
		WHERE id = ANY($1)
	`

	rows, err := s.db.QueryContext(ctx, query, idsToStrings(ids))
	if err != nil {
		log.Error("failed to query dictionary entries by IDs",
			slog.String("error", err.Error()),
			slog.Int("id_count", len(ids)))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	for rows.Next() {
		var entry domain.DictionaryEntry
		err := rows.Scan(
			&entry.ID,
			&entry.Word,
			&entry.Content,
			&entry.CreatedAt,
		)
		if err != nil {
			log.Error("failed to scan dictionary entry row",
				slog.String("error", err.Error()))
			return nil, err
		}
		result[entry.ID] = &entry
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return result, nil
}

// Delete implements store.DictionaryStore.Delete
// Returns store.ErrEntryNotFound if the entry does not exist.
// Returns store.ErrReferenced if a review item or exam section still
// references the entry; the foreign keys are declared RESTRICT.
func (s *PostgresDictionaryStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		DELETE FROM dictionary_entries
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode {
			log.Warn("attempted to delete referenced dictionary entry",
				slog.String("entry_id", id.String()),
				slog.String("constraint", pgErr.ConstraintName))
			return fmt.Errorf("%w: entry %s is still referenced", store.ErrReferenced, id)
		}

		log.Error("failed to delete dictionary entry",
			slog.String("error", err.Error()),
			slog.String("entry_id", id.String()))
		return err
	}

	if err := CheckRowsAffected(result, "dictionary entry"); err != nil {
		log.Debug("dictionary entry not found for delete", slog.String("entry_id", id.String()))
		return store.ErrEntryNotFound
	}

	log.Info("dictionary entry deleted successfully", slog.String("entry_id", id.String()))
	return nil
}

// WithTx implements store.DictionaryStore.WithTx
// It returns a new DictionaryStore instance that uses the provided transaction.
func (s *PostgresDictionaryStore) WithTx(tx *sql.Tx) store.DictionaryStore {
	return &PostgresDictionaryStore{
		db:     tx,
		logger: s.logger,
	}
}

// idsToStrings converts UUIDs to their string form for use with ANY($1),
// which the pgx stdlib driver binds as a text array.
func idsToStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
