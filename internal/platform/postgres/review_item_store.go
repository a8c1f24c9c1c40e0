package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mquell/vocab-api/internal/domain"
	"github.com/mquell/vocab-api/internal/platform/logger"
	"github.com/mquell/vocab-api/internal/store"
)

// PostgresReviewItemStore implements the store.ReviewItemStore interface
// using a PostgreSQL database as the storage backend.
//
// Create and Delete adjust the owning collection's item_count inside the
// same transaction as the item mutation, so both require the store to be
// bound to a transaction via WithTx.
type PostgresReviewItemStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewItemStore creates a new PostgreSQL implementation of the
// ReviewItemStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresReviewItemStore(db store.DBTX, logger *slog.Logger) *PostgresReviewItemStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewItemStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_item_store")),
	}
}

// Ensure PostgresReviewItemStore implements store.ReviewItemStore interface
var _ store.ReviewItemStore = (*PostgresReviewItemStore)(nil)

const reviewItemColumns = `id, collection_id, user_id, entry_id, status, review_count,
		fail_count, match_count, study_count, last_review_time, next_review_due,
		created_at, updated_at`

func scanReviewItem(row interface{ Scan(...interface{}) error }) (*domain.ReviewItem, error) {
	var item domain.ReviewItem
	var status int
	err := row.Scan(
		&item.ID,
		&item.CollectionID,
		&item.UserID,
		&item.EntryID,
		&status,
		&item.ReviewCount,
		&item.FailCount,
		&item.MatchCount,
		&item.StudyCount,
		&item.LastReview,
		&item.NextDue,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Status = domain.ItemStatus(status)
	return &item, nil
}

// Create implements store.ReviewItemStore.Create
// It inserts the item and increments the owning collection's item count in
// the same transaction. Returns store.ErrItemExists if the (collection,
// entry) pair already has an item and store.ErrCollectionNotFound if the
// owning collection does not exist.
func (s *PostgresReviewItemStore) Create(ctx context.Context, item *domain.ReviewItem) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, ok := s.db.(*sql.Tx); !ok {
		return fmt.Errorf("%w: Create requires a transaction", store.ErrTransactionFailed)
	}

	if err := item.Validate(); err != nil {
		log.Warn("review item validation failed during create",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return err
	}

	insertQuery := `
		INSERT INTO review_items (` + reviewItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(
		ctx,
		insertQuery,
		item.ID,
		item.CollectionID,
		item.UserID,
		item.EntryID,
		int(item.Status),
		item.ReviewCount,
		item.FailCount,
		item.MatchCount,
		item.StudyCount,
		item.LastReview,
		item.NextDue,
		item.CreatedAt,
		item.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("review item already exists for entry in collection",
				slog.String("collection_id", item.CollectionID.String()),
				slog.String("entry_id", item.EntryID.String()))
			return fmt.Errorf("%w: entry %s in collection %s",
				store.ErrItemExists, item.EntryID, item.CollectionID)
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode {
			log.Warn("foreign key violation during review item creation",
				slog.String("error", err.Error()),
				slog.String("item_id", item.ID.String()),
				slog.String("constraint", pgErr.ConstraintName))
			return fmt.Errorf("%w: %v", store.ErrCollectionNotFound, err)
		}

		log.Error("failed to create review item",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return MapError(err)
	}

	countQuery := `
		UPDATE collections
		SET item_count = item_count + 1, updated_at = $1
		WHERE id = $2
	`
	result, err := s.db.ExecContext(ctx, countQuery, time.Now().UTC(), item.CollectionID)
	if err != nil {
		log.Error("failed to increment collection item count",
			slog.String("error", err.Error()),
			slog.String("collection_id", item.CollectionID.String()))
		return err
	}
	if err := CheckRowsAffected(result, "collection"); err != nil {
		return store.ErrCollectionNotFound
	}

	log.Info("review item created successfully",
		slog.String("item_id", item.ID.String()),
		slog.String("collection_id", item.CollectionID.String()),
		slog.String("entry_id", item.EntryID.String()))
	return nil
}

// GetByID implements store.ReviewItemStore.GetByID
// Returns store.ErrItemNotFound if the item does not exist.
func (s *PostgresReviewItemStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ReviewItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + reviewItemColumns + `
		FROM review_items
		WHERE id = $1
	`

	item, err := scanReviewItem(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("review item not found", slog.String("item_id", id.String()))
			return nil, store.ErrItemNotFound
		}
		log.Error("failed to get review item by ID",
			slog.String("error", err.Error()),
			slog.String("item_id", id.String()))
		return nil, err
	}

	return item, nil
}

// GetForUpdate implements store.ReviewItemStore.GetForUpdate
// It locks the item row with SELECT FOR UPDATE, so it must be called within
// a transaction. Returns store.ErrItemNotFound if the item does not exist.
func (s *PostgresReviewItemStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.ReviewItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + reviewItemColumns + `
		FROM review_items
		WHERE id = $1
		FOR UPDATE
	`

	item, err := scanReviewItem(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("review item not found for update", slog.String("item_id", id.String()))
			return nil, store.ErrItemNotFound
		}
		log.Error("failed to get review item for update",
			slog.String("error", err.Error()),
			slog.String("item_id", id.String()))
		return nil, err
	}

	return item, nil
}

// GetByCollectionAndEntry implements store.ReviewItemStore.GetByCollectionAndEntry
// Returns store.ErrItemNotFound if the pair has no item.
func (s *PostgresReviewItemStore) GetByCollectionAndEntry(
	ctx context.Context,
	collectionID, entryID uuid.UUID,
) (*domain.ReviewItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + reviewItemColumns + `
		FROM review_items
		WHERE collection_id = $1 AND entry_id = $2
	`

	item, err := scanReviewItem(s.db.QueryRowContext(ctx, query, collectionID, entryID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrItemNotFound
		}
		log.Error("failed to get review item by collection and entry",
			slog.String("error", err.Error()),
			slog.String("collection_id", collectionID.String()),
			slog.String("entry_id", entryID.String()))
		return nil, err
	}

	return item, nil
}

// Update implements store.ReviewItemStore.Update
// Returns store.ErrItemNotFound if the item does not exist.
func (s *PostgresReviewItemStore) Update(ctx context.Context, item *domain.ReviewItem) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Validate(); err != nil {
		log.Warn("review item validation failed during update",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return err
	}

	item.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE review_items
		SET status = $1, review_count = $2, fail_count = $3, match_count = $4,
			study_count = $5, last_review_time = $6, next_review_due = $7,
			updated_at = $8
		WHERE id = $9
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		int(item.Status),
		item.ReviewCount,
		item.FailCount,
		item.MatchCount,
		item.StudyCount,
		item.LastReview,
		item.NextDue,
		item.UpdatedAt,
		item.ID,
	)

	if err != nil {
		log.Error("failed to update review item",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "review item"); err != nil {
		log.Debug("review item not found for update", slog.String("item_id", item.ID.String()))
		return store.ErrItemNotFound
	}

	log.Debug("review item updated successfully",
		slog.String("item_id", item.ID.String()),
		slog.String("status", item.Status.String()))
	return nil
}

// Delete implements store.ReviewItemStore.Delete
// It removes the item and decrements the owning collection's item count in
// the same transaction. Returns store.ErrItemNotFound if the item does not
// exist.
func (s *PostgresReviewItemStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, ok := s.db.(*sql.Tx); !ok {
		return fmt.Errorf("%w: Delete requires a transaction", store.ErrTransactionFailed)
	}

	deleteQuery := `
		DELETE FROM review_items
		WHERE id = $1
		RETURNING collection_id
	`

	var collectionID uuid.UUID
	err := s.db.QueryRowContext(ctx, deleteQuery, id).Scan(&collectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("review item not found for delete", slog.String("item_id", id.String()))
			return store.ErrItemNotFound
		}
		log.Error("failed to delete review item",
			slog.String("error", err.Error()),
			slog.String("item_id", id.String()))
		return err
	}

	countQuery := `
		UPDATE collections
		SET item_count = item_count - 1, updated_at = $1
		WHERE id = $2
	`
	result, err := s.db.ExecContext(ctx, countQuery, time.Now().UTC(), collectionID)
	if err != nil {
		log.Error("failed to decrement collection item count",
			slog.String("error", err.Error()),
			slog.String("collection_id", collectionID.String()))
		return err
	}
	if err := CheckRowsAffected(result, "collection"); err != nil {
		return store.ErrCollectionNotFound
	}

	log.Info("review item deleted successfully",
		slog.String("item_id", id.String()),
		slog.String("collection_id", collectionID.String()))
	return nil
}

// ListDue implements store.ReviewItemStore.ListDue
// Due means status below Mastered and next_review_due null or not after
// asOf. Items are ordered by next_review_due ascending with nulls first,
// then by ID; the keyset cursor makes the traversal restartable.
func (s *PostgresReviewItemStore) ListDue(
	ctx context.Context,
	collectionID uuid.UUID,
	asOf time.Time,
	cursor store.DueCursor,
	limit int,
) ([]*domain.ReviewItem, store.DueCursor, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 20
	}

	// Keyset predicate over (next_review_due NULLS FIRST, id). A null due
	// date sorts before every non-null one, so resuming from a null-due
	// cursor admits items with a later ID among the nulls plus every
	// non-null due date; resuming from a non-null cursor admits strictly
	// later due dates plus ties with a later ID.
	query := `
		SELECT ` + reviewItemColumns + `
		FROM review_items
		WHERE collection_id = $1
		  AND status < $2
		  AND (next_review_due IS NULL OR next_review_due <= $3)
	`
	args := []interface{}{collectionID, int(domain.ItemStatusMastered), asOf}

	if !cursor.IsZero() {
		if cursor.Due == nil {
			query += `
		  AND (next_review_due IS NOT NULL OR id > $4)
	`
			args = append(args, cursor.ID)
		} else {
			query += `
		  AND next_review_due IS NOT NULL
		  AND (next_review_due > $4 OR (next_review_due = $4 AND id > $5))
	`
			args = append(args, *cursor.Due, cursor.ID)
		}
	}

	query += fmt.Sprintf(`
		ORDER BY next_review_due ASC NULLS FIRST, id ASC
		LIMIT $%d
	`, len(args)+1)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query due review items",
			slog.String("error", err.Error()),
			slog.String("collection_id", collectionID.String()))
		return nil, store.DueCursor{}, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	items := []*domain.ReviewItem{}
	for rows.Next() {
		item, err := scanReviewItem(rows)
		if err != nil {
			log.Error("failed to scan review item row", slog.String("error", err.Error()))
			return nil, store.DueCursor{}, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, store.DueCursor{}, err
	}

	next := store.DueCursor{}
	if len(items) > 0 {
		last := items[len(items)-1]
		next = store.DueCursor{Due: last.NextDue, ID: last.ID}
	}

	log.Debug("listed due review items",
		slog.String("collection_id", collectionID.String()),
		slog.Int("count", len(items)))
	return items, next, nil
}

// ListByCollection implements store.ReviewItemStore.ListByCollection
func (s *PostgresReviewItemStore) ListByCollection(
	ctx context.Context,
	collectionID uuid.UUID,
	includeArchived bool,
) ([]*domain.ReviewItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + reviewItemColumns + `
		FROM review_items
		WHERE collection_id = $1
	`
	args := []interface{}{collectionID}

	if !includeArchived {
		query += `
		  AND status <> $2
	`
		args = append(args, int(domain.ItemStatusArchived))
	}

	query += `
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query review items by collection",
			slog.String("error", err.Error()),
			slog.String("collection_id", collectionID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	items := []*domain.ReviewItem{}
	for rows.Next() {
		item, err := scanReviewItem(rows)
		if err != nil {
			log.Error("failed to scan review item row", slog.String("error", err.Error()))
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return items, nil
}

// CountEligible implements store.ReviewItemStore.CountEligible
func (s *PostgresReviewItemStore) CountEligible(ctx context.Context, collectionID uuid.UUID) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT COUNT(*)
		FROM review_items
		WHERE collection_id = $1 AND status <> $2
	`

	var count int
	err := s.db.QueryRowContext(ctx, query, collectionID, int(domain.ItemStatusArchived)).Scan(&count)
	if err != nil {
		log.Error("failed to count eligible review items",
			slog.String("error", err.Error()),
			slog.String("collection_id", collectionID.String()))
		return 0, err
	}

	return count, nil
}

// WithTx implements store.ReviewItemStore.WithTx
// It returns a new ReviewItemStore instance that uses the provided transaction.
func (s *PostgresReviewItemStore) WithTx(tx *sql.Tx) store.ReviewItemStore {
	return &PostgresReviewItemStore{
		db:     tx,
		logger: s.logger,
	}
}
