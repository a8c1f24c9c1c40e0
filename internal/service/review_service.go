package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mquell/vocab-api/internal/domain"
	"github.com/mquell/vocab-api/internal/domain/progress"
	"github.com/mquell/vocab-api/internal/events"
	"github.com/mquell/vocab-api/internal/platform/logger"
	"github.com/mquell/vocab-api/internal/store"
)

// Collection sizes at which a milestone notification fires.
var milestoneSizes = map[int]bool{10: true, 50: true, 100: true, 500: true}

// DuePage is one page of due review items together with the cursor that
// resumes the traversal.
type DuePage struct {
	Items []*domain.ReviewItem
	Next  store.DueCursor
}

// ReviewService manages the words inside collections and their study
// progress.
type ReviewService interface {
	// AddWord resolves the word to a dictionary entry (creating it on first
	// sight) and adds a fresh review item to the collection. The item
	// insert and the collection count bump are one atomic step.
	AddWord(ctx context.Context, userID, collectionID uuid.UUID, word string) (*domain.ReviewItem, error)

	// RemoveWord deletes the review item for a word from the collection.
	// The dictionary entry survives; its study history does not.
	RemoveWord(ctx context.Context, userID, collectionID uuid.UUID, word string) error

	// RecordStudyAttempt applies one study attempt to an item: promotion on
	// success, demotion on failure, and due-date rescheduling. Concurrent
	// attempts on the same item serialize on the item row.
	RecordStudyAttempt(ctx context.Context, userID, itemID uuid.UUID, wasCorrect bool) (*domain.ReviewItem, error)

	// ArchiveItem retires an item from scheduling without deleting it.
	ArchiveItem(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewItem, error)

	// DueItems returns the next page of items due for study in the
	// collection. Pass the zero cursor to start and the returned cursor to
	// continue; an empty page ends the traversal.
	DueItems(ctx context.Context, userID, collectionID uuid.UUID, asOf time.Time, cursor store.DueCursor, limit int) (*DuePage, error)

	// ListItems returns the collection's items, optionally with archived ones.
	ListItems(ctx context.Context, userID, collectionID uuid.UUID, includeArchived bool) ([]*domain.ReviewItem, error)
}

type reviewServiceImpl struct {
	db          *sql.DB
	items       store.ReviewItemStore
	collections store.CollectionStore
	dictionary  DictionaryService
	scheduler   progress.Service
	emitter     events.Emitter
	logger      *slog.Logger
}

// NewReviewService creates a new ReviewService.
// The emitter may be nil when notifications are not wired.
// It returns an error if any other dependency is nil.
func NewReviewService(
	db *sql.DB,
	items store.ReviewItemStore,
	collections store.CollectionStore,
	dictionary DictionaryService,
	scheduler progress.Service,
	emitter events.Emitter,
	logger *slog.Logger,
) (ReviewService, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	if items == nil {
		return nil, errors.New("items store cannot be nil")
	}
	if collections == nil {
		return nil, errors.New("collections store cannot be nil")
	}
	if dictionary == nil {
		return nil, errors.New("dictionary service cannot be nil")
	}
	if scheduler == nil {
		return nil, errors.New("scheduler cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &reviewServiceImpl{
		db:          db,
		items:       items,
		collections: collections,
		dictionary:  dictionary,
		scheduler:   scheduler,
		emitter:     emitter,
		logger:      logger.With(slog.String("component", "review_service")),
	}, nil
}

// AddWord implements ReviewService.AddWord
// The dictionary lookup (and possible LLM call) happens before the
// transaction opens; no lock is held while waiting on the generator.
func (s *reviewServiceImpl) AddWord(
	ctx context.Context,
	userID, collectionID uuid.UUID,
	word string,
) (*domain.ReviewItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	entry, err := s.dictionary.LookupOrCreate(ctx, word)
	if err != nil {
		return nil, err
	}

	var created *domain.ReviewItem
	var newCount int
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txItems := s.items.WithTx(tx)
		txCollections := s.collections.WithTx(tx)

		collection, err := txCollections.GetForUpdate(ctx, collectionID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return fmt.Errorf("%w: collection %s", ErrNotFound, collectionID)
			}
			return NewOpError("add_word", "failed to lock collection", err)
		}
		if collection.UserID != userID {
			return ErrNotOwned
		}

		item, err := domain.NewReviewItem(collectionID, userID, entry.ID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}

		if err := txItems.Create(ctx, item); err != nil {
			if errors.Is(err, store.ErrItemExists) {
				return fmt.Errorf("%w: word %q is already in collection %s",
					ErrConflict, entry.Word, collectionID)
			}
			return NewOpError("add_word", "failed to save review item", err)
		}

		created = item
		newCount = collection.ItemCount + 1
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("word added to collection",
		slog.String("item_id", created.ID.String()),
		slog.String("collection_id", collectionID.String()),
		slog.String("word", entry.Word))

	s.emitMilestone(ctx, userID, collectionID, newCount)
	return created, nil
}

// RemoveWord implements ReviewService.RemoveWord
func (s *reviewServiceImpl) RemoveWord(
	ctx context.Context,
	userID, collectionID uuid.UUID,
	word string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	normalized := domain.NormalizeWord(word)
	if normalized == "" {
		return fmt.Errorf("%w: word cannot be empty", ErrInvalidArgument)
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txItems := s.items.WithTx(tx)
		txCollections := s.collections.WithTx(tx)

		collection, err := txCollections.GetForUpdate(ctx, collectionID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return fmt.Errorf("%w: collection %s", ErrNotFound, collectionID)
			}
			return NewOpError("remove_word", "failed to lock collection", err)
		}
		if collection.UserID != userID {
			return ErrNotOwned
		}

		entry, err := s.dictionary.GetEntryByWord(ctx, normalized)
		if err != nil {
			return err
		}

		item, err := txItems.GetByCollectionAndEntry(ctx, collectionID, entry.ID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return fmt.Errorf("%w: word %q is not in collection %s",
					ErrNotFound, normalized, collectionID)
			}
			return NewOpError("remove_word", "failed to get review item", err)
		}

		if err := txItems.Delete(ctx, item.ID); err != nil {
			return NewOpError("remove_word", "failed to delete review item", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("word removed from collection",
		slog.String("collection_id", collectionID.String()),
		slog.String("word", normalized))
	return nil
}

// RecordStudyAttempt implements ReviewService.RecordStudyAttempt
func (s *reviewServiceImpl) RecordStudyAttempt(
	ctx context.Context,
	userID, itemID uuid.UUID,
	wasCorrect bool,
) (*domain.ReviewItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.ReviewItem
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txItems := s.items.WithTx(tx)

		item, err := txItems.GetForUpdate(ctx, itemID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return fmt.Errorf("%w: review item %s", ErrNotFound, itemID)
			}
			return NewOpError("record_attempt", "failed to lock review item", err)
		}
		if item.UserID != userID {
			return ErrNotOwned
		}

		next, err := s.scheduler.RecordAttempt(item, wasCorrect, time.Now().UTC())
		if err != nil {
			if errors.Is(err, progress.ErrItemArchived) {
				return fmt.Errorf("%w: item %s is archived", ErrInvalidState, itemID)
			}
			return NewOpError("record_attempt", "failed to compute next state", err)
		}

		if err := txItems.Update(ctx, next); err != nil {
			return NewOpError("record_attempt", "failed to save review item", err)
		}

		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("study attempt recorded",
		slog.String("item_id", itemID.String()),
		slog.Bool("correct", wasCorrect),
		slog.String("status", updated.Status.String()))
	return updated, nil
}

// ArchiveItem implements ReviewService.ArchiveItem
func (s *reviewServiceImpl) ArchiveItem(
	ctx context.Context,
	userID, itemID uuid.UUID,
) (*domain.ReviewItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.ReviewItem
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txItems := s.items.WithTx(tx)

		item, err := txItems.GetForUpdate(ctx, itemID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return fmt.Errorf("%w: review item %s", ErrNotFound, itemID)
			}
			return NewOpError("archive_item", "failed to lock review item", err)
		}
		if item.UserID != userID {
			return ErrNotOwned
		}

		next, err := s.scheduler.Archive(item, time.Now().UTC())
		if err != nil {
			return NewOpError("archive_item", "failed to compute archived state", err)
		}

		if err := txItems.Update(ctx, next); err != nil {
			return NewOpError("archive_item", "failed to save review item", err)
		}

		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("review item archived", slog.String("item_id", itemID.String()))
	return updated, nil
}

// DueItems implements ReviewService.DueItems
func (s *reviewServiceImpl) DueItems(
	ctx context.Context,
	userID, collectionID uuid.UUID,
	asOf time.Time,
	cursor store.DueCursor,
	limit int,
) (*DuePage, error) {
	if _, err := s.ownedCollection(ctx, userID, collectionID); err != nil {
		return nil, err
	}

	items, next, err := s.items.ListDue(ctx, collectionID, asOf, cursor, limit)
	if err != nil {
		return nil, NewOpError("due_items", "failed to list due items", err)
	}

	return &DuePage{Items: items, Next: next}, nil
}

// ListItems implements ReviewService.ListItems
func (s *reviewServiceImpl) ListItems(
	ctx context.Context,
	userID, collectionID uuid.UUID,
	includeArchived bool,
) ([]*domain.ReviewItem, error) {
	if _, err := s.ownedCollection(ctx, userID, collectionID); err != nil {
		return nil, err
	}

	items, err := s.items.ListByCollection(ctx, collectionID, includeArchived)
	if err != nil {
		return nil, NewOpError("list_items", "failed to list review items", err)
	}
	return items, nil
}

func (s *reviewServiceImpl) ownedCollection(
	ctx context.Context,
	userID, collectionID uuid.UUID,
) (*domain.Collection, error) {
	collection, err := s.collections.GetByID(ctx, collectionID)
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

func (s *reviewServiceImpl) emitMilestone(ctx context.Context, userID, collectionID uuid.UUID, count int) {
	if s.emitter == nil || !milestoneSizes[count] {
		return
	}

	event, err := events.NewEvent(events.EventCollectionMilestone, userID, events.MilestonePayload{
		CollectionID: collectionID,
		ItemCount:    count,
	})
	if err != nil {
		s.logger.Warn("failed to build milestone event", slog.String("error", err.Error()))
		return
	}
	s.emitter.Emit(ctx, event)
}
