package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mquell/vocab-api/internal/domain"
	"github.com/mquell/vocab-api/internal/generation"
	"github.com/mquell/vocab-api/internal/platform/logger"
	"github.com/mquell/vocab-api/internal/store"
)

// DictionaryService resolves word surface forms to dictionary entries,
// generating content for words seen for the first time.
type DictionaryService interface {
	// LookupOrCreate returns the entry for the word, creating it via the
	// content generator when it does not exist yet. The word is normalized
	// before lookup so "Apple " and "apple" resolve to the same entry.
	LookupOrCreate(ctx context.Context, word string) (*domain.DictionaryEntry, error)

	// GetEntry retrieves an entry by ID.
	GetEntry(ctx context.Context, id uuid.UUID) (*domain.DictionaryEntry, error)

	// GetEntryByWord retrieves an entry by its surface form without
	// creating it.
	GetEntryByWord(ctx context.Context, word string) (*domain.DictionaryEntry, error)

	// DeleteEntry removes an unreferenced entry. Entries still referenced
	// by review items cannot be deleted.
	DeleteEntry(ctx context.Context, id uuid.UUID) error
}

type dictionaryServiceImpl struct {
	entries   store.DictionaryStore
	generator generation.EntryContentGenerator
	logger    *slog.Logger
}

// NewDictionaryService creates a new DictionaryService.
// It returns an error if any of the required dependencies are nil.
func NewDictionaryService(
	entries store.DictionaryStore,
	generator generation.EntryContentGenerator,
	logger *slog.Logger,
) (DictionaryService, error) {
	if entries == nil {
		return nil, errors.New("entries store cannot be nil")
	}
	if generator == nil {
		return nil, errors.New("content generator cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &dictionaryServiceImpl{
		entries:   entries,
		generator: generator,
		logger:    logger.With(slog.String("component", "dictionary_service")),
	}, nil
}

// LookupOrCreate implements DictionaryService.LookupOrCreate
func (s *dictionaryServiceImpl) LookupOrCreate(ctx context.Context, word string) (*domain.DictionaryEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	normalized := domain.NormalizeWord(word)
	if normalized == "" {
		return nil, fmt.Errorf("%w: word cannot be empty", ErrInvalidArgument)
	}

	entry, err := s.entries.GetByWord(ctx, normalized)
	if err == nil {
		return entry, nil
	}
	if !store.IsNotFoundError(err) {
		return nil, NewOpError("lookup_word", "failed to look up word", err)
	}

	log.Info("word not in dictionary, generating entry content",
		slog.String("word", normalized))

	content, err := s.generator.GenerateEntryContent(ctx, normalized)
	if err != nil {
		log.Error("entry content generation failed",
			slog.String("word", normalized),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrExternalFailure, err)
	}

	entry, err = domain.NewDictionaryEntry(normalized, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	if err := s.entries.Create(ctx, entry); err != nil {
		// A concurrent lookup may have created the entry first. That copy
		// is as good as ours.
		if errors.Is(err, store.ErrWordExists) {
			log.Debug("lost entry creation race, reusing existing entry",
				slog.String("word", normalized))
			return s.entries.GetByWord(ctx, normalized)
		}
		return nil, NewOpError("create_entry", "failed to save dictionary entry", err)
	}

	log.Info("dictionary entry created",
		slog.String("entry_id", entry.ID.String()),
		slog.String("word", normalized))
	return entry, nil
}

// GetEntry implements DictionaryService.GetEntry
func (s *dictionaryServiceImpl) GetEntry(ctx context.Context, id uuid.UUID) (*domain.DictionaryEntry, error) {
	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: dictionary entry %s", ErrNotFound, id)
		}
		return nil, NewOpError("get_entry", "failed to get dictionary entry", err)
	}
	return entry, nil
}

// GetEntryByWord implements DictionaryService.GetEntryByWord
func (s *dictionaryServiceImpl) GetEntryByWord(ctx context.Context, word string) (*domain.DictionaryEntry, error) {
	normalized := domain.NormalizeWord(word)
	if normalized == "" {
		return nil, fmt.Errorf("%w: word cannot be empty", ErrInvalidArgument)
	}

	entry, err := s.entries.GetByWord(ctx, normalized)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: word %q", ErrNotFound, normalized)
		}
		return nil, NewOpError("get_entry_by_word", "failed to get dictionary entry", err)
	}
	return entry, nil
}

// DeleteEntry implements DictionaryService.DeleteEntry
func (s *dictionaryServiceImpl) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	err := s.entries.Delete(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return fmt.Errorf("%w: dictionary entry %s", ErrNotFound, id)
		}
		if errors.Is(err, store.ErrReferenced) {
			return fmt.Errorf("%w: entry %s is referenced by review items", ErrConflict, id)
		}
		return NewOpError("delete_entry", "failed to delete dictionary entry", err)
	}
	return nil
}
