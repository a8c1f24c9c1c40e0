package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mquell/vocab-api/internal/domain"
	"github.com/mquell/vocab-api/internal/platform/logger"
	"github.com/mquell/vocab-api/internal/store"
)

// PostgresCollectionStore implements the store.CollectionStore interface
// using a PostgreSQL database as the storage backend.
//
// The item_count column is derived state. This store reads it and deletes
// it along with the row, but only PostgresReviewItemStore.Create/Delete
// ever adjust it, inside the same transaction as the item mutation.
type PostgresCollectionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCollectionStore creates a new PostgreSQL implementation of the
// CollectionStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresCollectionStore(db store.DBTX, logger *slog.Logger) *PostgresCollectionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCollectionStore{
		db:     db,
		logger: logger.With(slog.String("component", "collection_store")),
	}
}

// Ensure PostgresCollectionStore implements store.CollectionStore interface
var _ store.CollectionStore = (*PostgresCollectionStore)(nil)

// Create implements store.CollectionStore.Create
func (s *PostgresCollectionStore) Create(ctx context.Context, collection *domain.Collection) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := collection.Validate(); err != nil {
		log.Warn("collection validation failed during create",
			slog.String("error", err.Error()),
			slog.String("collection_id", collection.ID.String()))
		return err
	}

	query := `
		INSERT INTO collections (id, user_id, name, description, item_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		collection.ID,
		collection.UserID,
		collection.Name,
		collection.Description,
		collection.ItemCount,
		collection.CreatedAt,
		collection.UpdatedAt,
	)

	if err != nil {
		log.Error("failed to create collection",
			slog.String("error", err.Error()),
			slog.String("collection_id", collection.ID.String()),
			slog.String("user_id", collection.UserID.String()))
		return MapError(err)
	}

	log.Info("collection created successfully",
		slog.String("collection_id", collection.ID.String()),
		slog.String("user_id", collection.UserID.String()),
		slog.String("name", collection.Name))
	return nil
}

const collectionColumns = `id, user_id, name, description, item_count, created_at, updated_at`

func scanCollection(row interface{ Scan(...interface{}) error }) (*domain.Collection, error) {
	var c domain.Collection
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&c.Description,
		&c.ItemCount,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByID implements store.CollectionStore.GetByID
// Returns store.ErrCollectionNotFound if the collection does not exist.
func (s *PostgresCollectionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Collection, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + collectionColumns + `
		FROM collections
		WHERE id = $1
	`

	collection, err := scanCollection(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("collection not found", slog.String("collection_id", id.String()))
			return nil, store.ErrCollectionNotFound
		}
		log.Error("failed to get collection by ID",
			slog.String("error", err.Error()),
			slog.String("collection_id", id.String()))
		return nil, err
	}

	return collection, nil
}

// GetForUpdate implements store.CollectionStore.GetForUpdate
// It locks the collection row with SELECT FOR UPDATE, so it must be called
// within a transaction. Returns store.ErrCollectionNotFound if the
// collection does not exist.
func (s *PostgresCollectionStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Collection, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + collectionColumns + `
		FROM collections
		WHERE id = $1
		FOR UPDATE
	`

	collection, err := scanCollection(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("collection not found for update", slog.String("collection_id", id.String()))
			return nil, store.ErrCollectionNotFound
		}
		log.Error("failed to get collection for update",
			slog.String("error", err.Error()),
			slog.String("collection_id", id.String()))
		return nil, err
	}

	return collection, nil
}

// ListByUser implements store.CollectionStore.ListByUser
// Returns an empty slice if the user has no collections.
func (s *PostgresCollectionStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Collection, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + collectionColumns + `
		FROM collections
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to query collections by user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	collections := []*domain.Collection{}
	for rows.Next() {
		collection, err := scanCollection(rows)
		if err != nil {
			log.Error("failed to scan collection row", slog.String("error", err.Error()))
			return nil, err
		}
		collections = append(collections, collection)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return collections, nil
}

// Update implements store.CollectionStore.Update
// Only name and description are written; item_count stays untouched.
// Returns store.ErrCollectionNotFound if the collection does not exist.
func (s *PostgresCollectionStore) Update(ctx context.Context, collection *domain.Collection) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := collection.Validate(); err != nil {
		log.Warn("collection validation failed during update",
			slog.String("error", err.Error()),
			slog.String("collection_id", collection.ID.String()))
		return err
	}

	collection.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE collections
		SET name = $1, description = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		collection.Name,
		collection.Description,
		collection.UpdatedAt,
		collection.ID,
	)

	if err != nil {
		log.Error("failed to update collection",
			slog.String("error", err.Error()),
			slog.String("collection_id", collection.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "collection"); err != nil {
		log.Debug("collection not found for update",
			slog.String("collection_id", collection.ID.String()))
		return store.ErrCollectionNotFound
	}

	log.Info("collection updated successfully",
		slog.String("collection_id", collection.ID.String()),
		slog.String("name", collection.Name))
	return nil
}

// DeleteCascade implements store.CollectionStore.DeleteCascade
// It removes the collection with all its review items, exams, and exam
// sections in one shot; the collection foreign keys are declared CASCADE so
// the single DELETE covers everything. Must run within a transaction.
// Returns store.ErrCollectionNotFound if the collection does not exist.
func (s *PostgresCollectionStore) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, ok := s.db.(*sql.Tx); !ok {
		return fmt.Errorf("%w: DeleteCascade requires a transaction", store.ErrTransactionFailed)
	}

	query := `
		DELETE FROM collections
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete collection",
			slog.String("error", err.Error()),
			slog.String("collection_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "collection"); err != nil {
		log.Debug("collection not found for delete", slog.String("collection_id", id.String()))
		return store.ErrCollectionNotFound
	}

	log.Info("collection deleted successfully", slog.String("collection_id", id.String()))
	return nil
}

// CountLiveItems implements store.CollectionStore.CountLiveItems
// It counts review items directly, bypassing the derived item_count column.
func (s *PostgresCollectionStore) CountLiveItems(ctx context.Context, id uuid.UUID) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT COUNT(*)
		FROM review_items
		WHERE collection_id = $1
	`

	var count int
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&count); err != nil {
		log.Error("failed to count live items",
			slog.String("error", err.Error()),
			slog.String("collection_id", id.String()))
		return 0, err
	}

	return count, nil
}

// FindCountMismatches implements store.CollectionStore.FindCountMismatches
// A non-empty result means the derived count invariant has been broken.
func (s *PostgresCollectionStore) FindCountMismatches(ctx context.Context) ([]store.CountMismatch, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT c.id, c.item_count, COUNT(ri.id)
		FROM collections c
		LEFT JOIN review_items ri ON ri.collection_id = c.id
		GROUP BY c.id, c.item_count
		HAVING c.item_count <> COUNT(ri.id)
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to query count mismatches", slog.String("error", err.Error()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var mismatches []store.CountMismatch
	for rows.Next() {
		var m store.CountMismatch
		if err := rows.Scan(&m.CollectionID, &m.StoredCount, &m.LiveCount); err != nil {
			log.Error("failed to scan mismatch row", slog.String("error", err.Error()))
			return nil, err
		}
		mismatches = append(mismatches, m)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return mismatches, nil
}

// WithTx implements store.CollectionStore.WithTx
// It returns a new CollectionStore instance that uses the provided transaction.
func (s *PostgresCollectionStore) WithTx(tx *sql.Tx) store.CollectionStore {
	return &PostgresCollectionStore{
		db:     tx,
		logger: s.logger,
	}
}
