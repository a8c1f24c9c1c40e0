package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mquell/vocab-api/internal/domain"
	"github.com/mquell/vocab-api/internal/platform/logger"
	"github.com/mquell/vocab-api/internal/store"
)

// CollectionService manages word collections and guards the derived item
// count invariant.
type CollectionService interface {
	// CreateCollection creates an empty collection for the user.
	CreateCollection(ctx context.Context, userID uuid.UUID, name, description string) (*domain.Collection, error)

	// GetCollection retrieves a collection owned by the user.
	GetCollection(ctx context.Context, userID, collectionID uuid.UUID) (*domain.Collection, error)

	// ListCollections retrieves the user's collections, newest first.
	ListCollections(ctx context.Context, userID uuid.UUID) ([]*domain.Collection, error)

	// RenameCollection updates a collection's name and description.
	RenameCollection(ctx context.Context, userID, collectionID uuid.UUID, name, description string) (*domain.Collection, error)

	// DeleteCollection removes a collection with all its review items,
	// exams, and exam sections in one atomic step. Dictionary entries
	// survive; they are shared across collections.
	DeleteCollection(ctx context.Context, userID, collectionID uuid.UUID) error

	// VerifyItemCount recomputes a collection's live item count and checks
	// it against the stored derived count. A mismatch is reported as
	// ErrIntegrityViolation.
	VerifyItemCount(ctx context.Context, collectionID uuid.UUID) (int, error)
}

type collectionServiceImpl struct {
	db          *sql.DB
	collections store.CollectionStore
	logger      *slog.Logger
}

// NewCollectionService creates a new CollectionService.
// It returns an error if any of the required dependencies are nil.
func NewCollectionService(
	db *sql.DB,
	collections store.CollectionStore,
	logger *slog.Logger,
) (CollectionService, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	if collections == nil {
		return nil, errors.New("collections store cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &collectionServiceImpl{
		db:          db,
		collections: collections,
		logger:      logger.With(slog.String("component", "collection_service")),
	}, nil
}

// getOwned fetches a collection and enforces ownership.
func (s *collectionServiceImpl) getOwned(
	ctx context.Context,
	collections store.CollectionStore,
	userID, collectionID uuid.UUID,
) (*domain.Collection, error) {
	collection, err := collections.GetByID(ctx, collectionID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: collection %s", ErrNotFound, collectionID)
		}
		return nil, NewOpError("get_collection", "failed to get collection", err)
	}
	if collection.UserID != userID {
		return nil, ErrNotOwned
	}
	return collection, nil
}

// CreateCollection implements CollectionService.CreateCollection
func (s *collectionServiceImpl) CreateCollection(
	ctx context.Context,
	userID uuid.UUID,
	name, description string,
) (*domain.Collection, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	collection, err := domain.NewCollection(userID, name, description)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	if err := s.collections.Create(ctx, collection); err != nil {
		return nil, NewOpError("create_collection", "failed to save collection", err)
	}

	log.Info("collection created",
		slog.String("collection_id", collection.ID.String()),
		slog.String("user_id", userID.String()),
		slog.String("name", collection.Name))
	return collection, nil
}

// GetCollection implements CollectionService.GetCollection
func (s *collectionServiceImpl) GetCollection(
	ctx context.Context,
	userID, collectionID uuid.UUID,
) (*domain.Collection, error) {
	return s.getOwned(ctx, s.collections, userID, collectionID)
}

// ListCollections implements CollectionService.ListCollections
func (s *collectionServiceImpl) ListCollections(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Collection, error) {
	collections, err := s.collections.ListByUser(ctx, userID)
	if err != nil {
		return nil, NewOpError("list_collections", "failed to list collections", err)
	}
	return collections, nil
}

// RenameCollection implements CollectionService.RenameCollection
func (s *collectionServiceImpl) RenameCollection(
	ctx context.Context,
	userID, collectionID uuid.UUID,
	name, description string,
) (*domain.Collection, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var renamed *domain.Collection
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txCollections := s.collections.WithTx(tx)

		collection, err := txCollections.GetForUpdate(ctx, collectionID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return fmt.Errorf("%w: collection %s", ErrNotFound, collectionID)
			}
			return NewOpError("rename_collection", "failed to lock collection", err)
		}
		if collection.UserID != userID {
			return ErrNotOwned
		}

		if err := collection.Rename(name); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		collection.Description = description

		if err := txCollections.Update(ctx, collection); err != nil {
			return NewOpError("rename_collection", "failed to update collection", err)
		}

		renamed = collection
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("collection renamed",
		slog.String("collection_id", collectionID.String()),
		slog.String("name", renamed.Name))
	return renamed, nil
}

// DeleteCollection implements CollectionService.DeleteCollection
func (s *collectionServiceImpl) DeleteCollection(
	ctx context.Context,
	userID, collectionID uuid.UUID,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txCollections := s.collections.WithTx(tx)

		collection, err := txCollections.GetForUpdate(ctx, collectionID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return fmt.Errorf("%w: collection %s", ErrNotFound, collectionID)
			}
			return NewOpError("delete_collection", "failed to lock collection", err)
		}
		if collection.UserID != userID {
			return ErrNotOwned
		}

		if err := txCollections.DeleteCascade(ctx, collectionID); err != nil {
			return NewOpError("delete_collection", "failed to delete collection", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("collection deleted", slog.String("collection_id", collectionID.String()))
	return nil
}

// VerifyItemCount implements CollectionService.VerifyItemCount
func (s *collectionServiceImpl) VerifyItemCount(
	ctx context.Context,
	collectionID uuid.UUID,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	collection, err := s.collections.GetByID(ctx, collectionID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return 0, fmt.Errorf("%w: collection %s", ErrNotFound, collectionID)
		}
		return 0, NewOpError("verify_item_count", "failed to get collection", err)
	}

	live, err := s.collections.CountLiveItems(ctx, collectionID)
	if err != nil {
		return 0, NewOpError("verify_item_count", "failed to count live items", err)
	}

	if live != collection.ItemCount {
		log.Error("collection item count mismatch",
			slog.String("collection_id", collectionID.String()),
			slog.Int("stored_count", collection.ItemCount),
			slog.Int("live_count", live))
		return live, fmt.Errorf("%w: collection %s stores %d items but has %d",
			ErrIntegrityViolation, collectionID, collection.ItemCount, live)
	}

	return live, nil
}
