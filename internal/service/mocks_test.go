package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mquell/vocab-api/internal/domain"
	"github.com/mquell/vocab-api/internal/events"
	"github.com/mquell/vocab-api/internal/generation"
	"github.com/mquell/vocab-api/internal/store"
)

// testLogger returns a logger that swallows output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newMockDB returns a *sql.DB whose Begin/Commit/Rollback calls are
// scripted. The stores themselves are mocked, so only transaction
// boundaries touch this handle.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, dbMock
}

// expectTx scripts one committed transaction.
func expectTx(dbMock sqlmock.Sqlmock) {
	dbMock.ExpectBegin()
	dbMock.ExpectCommit()
}

// expectRolledBackTx scripts one rolled-back transaction.
func expectRolledBackTx(dbMock sqlmock.Sqlmock) {
	dbMock.ExpectBegin()
	dbMock.ExpectRollback()
}

// MockCollectionStore is a mock implementation of store.CollectionStore.
type MockCollectionStore struct {
	mock.Mock
}

func (m *MockCollectionStore) Create(ctx context.Context, collection *domain.Collection) error {
	args := m.Called(ctx, collection)
	return args.Error(0)
}

func (m *MockCollectionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Collection, error) {
	args := m.Called(ctx, id)
	collection, _ := args.Get(0).(*domain.Collection)
	return collection, args.Error(1)
}

func (m *MockCollectionStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Collection, error) {
	args := m.Called(ctx, id)
	collection, _ := args.Get(0).(*domain.Collection)
	return collection, args.Error(1)
}

func (m *MockCollectionStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Collection, error) {
	args := m.Called(ctx, userID)
	collections, _ := args.Get(0).([]*domain.Collection)
	return collections, args.Error(1)
}

func (m *MockCollectionStore) Update(ctx context.Context, collection *domain.Collection) error {
	args := m.Called(ctx, collection)
	return args.Error(0)
}

func (m *MockCollectionStore) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCollectionStore) CountLiveItems(ctx context.Context, id uuid.UUID) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *MockCollectionStore) FindCountMismatches(ctx context.Context) ([]store.CountMismatch, error) {
	args := m.Called(ctx)
	mismatches, _ := args.Get(0).([]store.CountMismatch)
	return mismatches, args.Error(1)
}

func (m *MockCollectionStore) WithTx(tx *sql.Tx) store.CollectionStore {
	return m
}

// MockReviewItemStore is a mock implementation of store.ReviewItemStore.
type MockReviewItemStore struct {
	mock.Mock
}

func (m *MockReviewItemStore) Create(ctx context.Context, item *domain.ReviewItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockReviewItemStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ReviewItem, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(*domain.ReviewItem)
	return item, args.Error(1)
}

func (m *MockReviewItemStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.ReviewItem, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(*domain.ReviewItem)
	return item, args.Error(1)
}

func (m *MockReviewItemStore) GetByCollectionAndEntry(ctx context.Context, collectionID, entryID uuid.UUID) (*domain.ReviewItem, error) {
	args := m.Called(ctx, collectionID, entryID)
	item, _ := args.Get(0).(*domain.ReviewItem)
	return item, args.Error(1)
}

func (m *MockReviewItemStore) Update(ctx context.Context, item *domain.ReviewItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockReviewItemStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReviewItemStore) ListDue(ctx context.Context, collectionID uuid.UUID, asOf time.Time, cursor store.DueCursor, limit int) ([]*domain.ReviewItem, store.DueCursor, error) {
	args := m.Called(ctx, collectionID, asOf, cursor, limit)
	items, _ := args.Get(0).([]*domain.ReviewItem)
	next, _ := args.Get(1).(store.DueCursor)
	return items, next, args.Error(2)
}

func (m *MockReviewItemStore) ListByCollection(ctx context.Context, collectionID uuid.UUID, includeArchived bool) ([]*domain.ReviewItem, error) {
	args := m.Called(ctx, collectionID, includeArchived)
	items, _ := args.Get(0).([]*domain.ReviewItem)
	return items, args.Error(1)
}

func (m *MockReviewItemStore) CountEligible(ctx context.Context, collectionID uuid.UUID) (int, error) {
	args := m.Called(ctx, collectionID)
	return args.Int(0), args.Error(1)
}

func (m *MockReviewItemStore) WithTx(tx *sql.Tx) store.ReviewItemStore {
	return m
}

// MockExamStore is a mock implementation of store.ExamStore.
type MockExamStore struct {
	mock.Mock
}

func (m *MockExamStore) Create(ctx context.Context, exam *domain.Exam) error {
	args := m.Called(ctx, exam)
	return args.Error(0)
}

func (m *MockExamStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Exam, error) {
	args := m.Called(ctx, id)
	exam, _ := args.Get(0).(*domain.Exam)
	return exam, args.Error(1)
}

func (m *MockExamStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Exam, error) {
	args := m.Called(ctx, id)
	exam, _ := args.Get(0).(*domain.Exam)
	return exam, args.Error(1)
}

func (m *MockExamStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Exam, error) {
	args := m.Called(ctx, userID, limit, offset)
	exams, _ := args.Get(0).([]*domain.Exam)
	return exams, args.Error(1)
}

func (m *MockExamStore) Update(ctx context.Context, exam *domain.Exam) error {
	args := m.Called(ctx, exam)
	return args.Error(0)
}

func (m *MockExamStore) ClaimGeneration(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockExamStore) CreateSpellingSections(ctx context.Context, sections []*domain.SpellingSection) error {
	args := m.Called(ctx, sections)
	return args.Error(0)
}

func (m *MockExamStore) CreateTranslationSections(ctx context.Context, sections []*domain.TranslationSection) error {
	args := m.Called(ctx, sections)
	return args.Error(0)
}

func (m *MockExamStore) ListSpellingSections(ctx context.Context, examID uuid.UUID) ([]*domain.SpellingSection, error) {
	args := m.Called(ctx, examID)
	sections, _ := args.Get(0).([]*domain.SpellingSection)
	return sections, args.Error(1)
}

func (m *MockExamStore) ListTranslationSections(ctx context.Context, examID uuid.UUID) ([]*domain.TranslationSection, error) {
	args := m.Called(ctx, examID)
	sections, _ := args.Get(0).([]*domain.TranslationSection)
	return sections, args.Error(1)
}

func (m *MockExamStore) CountSections(ctx context.Context, examID uuid.UUID) (int, error) {
	args := m.Called(ctx, examID)
	return args.Int(0), args.Error(1)
}

func (m *MockExamStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockExamStore) WithTx(tx *sql.Tx) store.ExamStore {
	return m
}

// MockDictionaryStore is a mock implementation of store.DictionaryStore.
type MockDictionaryStore struct {
	mock.Mock
}

func (m *MockDictionaryStore) Create(ctx context.Context, entry *domain.DictionaryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockDictionaryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.DictionaryEntry, error) {
	args := m.Called(ctx, id)
	entry, _ := args.Get(0).(*domain.DictionaryEntry)
	return entry, args.Error(1)
}

func (m *MockDictionaryStore) GetByWord(ctx context.Context, word string) (*domain.DictionaryEntry, error) {
	args := m.Called(ctx, word)
	entry, _ := args.Get(0).(*domain.DictionaryEntry)
	return entry, args.Error(1)
}

func (m *MockDictionaryStore) GetManyByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.DictionaryEntry, error) {
	args := m.Called(ctx, ids)
	entries, _ := args.Get(0).(map[uuid.UUID]*domain.DictionaryEntry)
	return entries, args.Error(1)
}

func (m *MockDictionaryStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDictionaryStore) WithTx(tx *sql.Tx) store.DictionaryStore {
	return m
}

// fakeDictionaryService backs review service tests without a store round-trip.
type fakeDictionaryService struct {
	entries map[string]*domain.DictionaryEntry
	err     error
}

func newFakeDictionaryService(words ...string) *fakeDictionaryService {
	f := &fakeDictionaryService{entries: make(map[string]*domain.DictionaryEntry)}
	for _, word := range words {
		f.entries[word] = &domain.DictionaryEntry{
			ID:        uuid.New(),
			Word:      word,
			Content:   json.RawMessage(`{"meaning":"meaning of ` + word + `"}`),
			CreatedAt: time.Now().UTC(),
		}
	}
	return f
}

func (f *fakeDictionaryService) LookupOrCreate(ctx context.Context, word string) (*domain.DictionaryEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	normalized := domain.NormalizeWord(word)
	if entry, ok := f.entries[normalized]; ok {
		return entry, nil
	}
	entry := &domain.DictionaryEntry{
		ID:        uuid.New(),
		Word:      normalized,
		Content:   json.RawMessage(`{"meaning":"generated"}`),
		CreatedAt: time.Now().UTC(),
	}
	f.entries[normalized] = entry
	return entry, nil
}

func (f *fakeDictionaryService) GetEntry(ctx context.Context, id uuid.UUID) (*domain.DictionaryEntry, error) {
	for _, entry := range f.entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeDictionaryService) GetEntryByWord(ctx context.Context, word string) (*domain.DictionaryEntry, error) {
	if entry, ok := f.entries[domain.NormalizeWord(word)]; ok {
		return entry, nil
	}
	return nil, ErrNotFound
}

func (f *fakeDictionaryService) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	return nil
}

// recordingEmitter captures emitted events for assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.Event
}

func (e *recordingEmitter) Emit(ctx context.Context, event *events.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

func (e *recordingEmitter) emitted() []*events.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*events.Event, len(e.events))
	copy(out, e.events)
	return out
}

// fakeExamGenerator returns canned exam content.
type fakeExamGenerator struct {
	content *generation.ExamContent
	err     error
	calls   int
}

func (f *fakeExamGenerator) GenerateExamContent(
	ctx context.Context,
	snapshots []generation.EntrySnapshot,
	spellingCount, translationCount int,
) (*generation.ExamContent, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.content != nil {
		return f.content, nil
	}

	// Default: shape-perfect content derived from the snapshots.
	content := &generation.ExamContent{}
	for _, snap := range snapshots[:spellingCount] {
		content.Spelling = append(content.Spelling, generation.SpellingPrompt{
			EntryID: snap.EntryID,
			ItemID:  snap.ItemID,
			Prompt:  snap.Meaning,
			Answer:  snap.Word,
		})
	}
	for i, snap := range snapshots[spellingCount:] {
		if i >= translationCount {
			break
		}
		content.Sentences = append(content.Sentences, generation.GeneratedSentence{
			Key:       fmt.Sprintf("sentence_%d", i+1),
			Sentence:  "A sentence using " + snap.Word + ".",
			WordsUsed: []string{snap.Word},
		})
	}
	return content, nil
}

// fakeGrader returns a fixed verdict.
type fakeGrader struct {
	correct bool
	err     error
}

func (f *fakeGrader) GradeTranslation(
	ctx context.Context,
	req generation.TranslationGradingRequest,
) (generation.TranslationGradingResult, error) {
	if f.err != nil {
		return generation.TranslationGradingResult{}, f.err
	}
	return generation.TranslationGradingResult{Correct: f.correct, Feedback: "graded"}, nil
}

// fakeEnqueuer records enqueued exam IDs.
type fakeEnqueuer struct {
	mu      sync.Mutex
	examIDs []uuid.UUID
	err     error
}

func (f *fakeEnqueuer) EnqueueExamGeneration(ctx context.Context, examID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.examIDs = append(f.examIDs, examID)
	return nil
}

func (f *fakeEnqueuer) enqueued() []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]uuid.UUID, len(f.examIDs))
	copy(out, f.examIDs)
	return out
}

// fakeReviewService records study attempts fed back from grading.
type fakeReviewService struct {
	mu       sync.Mutex
	attempts map[uuid.UUID]bool
	err      error
}

func newFakeReviewService() *fakeReviewService {
	return &fakeReviewService{attempts: make(map[uuid.UUID]bool)}
}

func (f *fakeReviewService) AddWord(ctx context.Context, userID, collectionID uuid.UUID, word string) (*domain.ReviewItem, error) {
	return nil, nil
}

func (f *fakeReviewService) RemoveWord(ctx context.Context, userID, collectionID uuid.UUID, word string) error {
	return nil
}

func (f *fakeReviewService) RecordStudyAttempt(ctx context.Context, userID, itemID uuid.UUID, wasCorrect bool) (*domain.ReviewItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.attempts[itemID] = wasCorrect
	return nil, nil
}

func (f *fakeReviewService) ArchiveItem(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewItem, error) {
	return nil, nil
}

func (f *fakeReviewService) DueItems(ctx context.Context, userID, collectionID uuid.UUID, asOf time.Time, cursor store.DueCursor, limit int) (*DuePage, error) {
	return nil, nil
}

func (f *fakeReviewService) ListItems(ctx context.Context, userID, collectionID uuid.UUID, includeArchived bool) ([]*domain.ReviewItem, error) {
	return nil, nil
}

func (f *fakeReviewService) recorded() map[uuid.UUID]bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uuid.UUID]bool, len(f.attempts))
	for k, v := range f.attempts {
		out[k] = v
	}
	return out
}
