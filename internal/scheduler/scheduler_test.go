package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mquell/vocab-api/internal/domain"
	"github.com/mquell/vocab-api/internal/store"
)

// fakeCollectionStore serves only the reconciliation sweep.
type fakeCollectionStore struct {
	mismatches []store.CountMismatch
	err        error
	calls      int
}

func (f *fakeCollectionStore) Create(ctx context.Context, c *domain.Collection) error { return nil }
func (f *fakeCollectionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Collection, error) {
	return nil, store.ErrCollectionNotFound
}
func (f *fakeCollectionStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Collection, error) {
	return nil, store.ErrCollectionNotFound
}
func (f *fakeCollectionStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Collection, error) {
	return nil, nil
}
func (f *fakeCollectionStore) Update(ctx context.Context, c *domain.Collection) error { return nil }
func (f *fakeCollectionStore) DeleteCascade(ctx context.Context, id uuid.UUID) error  { return nil }
func (f *fakeCollectionStore) CountLiveItems(ctx context.Context, id uuid.UUID) (int, error) {
	return 0, nil
}
func (f *fakeCollectionStore) FindCountMismatches(ctx context.Context) ([]store.CountMismatch, error) {
	f.calls++
	return f.mismatches, f.err
}
func (f *fakeCollectionStore) WithTx(tx *sql.Tx) store.CollectionStore { return f }

// recordingHandler collects log records for assertions.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(ctx context.Context, level slog.Level) bool { return true }
func (h *recordingHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}
func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(name string) slog.Handler       { return h }

func (h *recordingHandler) messagesAt(level slog.Level) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var msgs []string
	for _, r := range h.records {
		if r.Level == level {
			msgs = append(msgs, r.Message)
		}
	}
	return msgs
}

func TestReconcileItemCounts(t *testing.T) {
	t.Run("logs nothing loud when all counts agree", func(t *testing.T) {
		collections := &fakeCollectionStore{}
		handler := &recordingHandler{}
		s := New(collections, time.Minute, slog.New(handler))

		s.reconcileItemCounts()

		assert.Equal(t, 1, collections.calls)
		assert.Empty(t, handler.messagesAt(slog.LevelError))
	})

	t.Run("logs one error per drifted collection", func(t *testing.T) {
		collections := &fakeCollectionStore{
			mismatches: []store.CountMismatch{
				{CollectionID: uuid.New(), StoredCount: 5, LiveCount: 3},
				{CollectionID: uuid.New(), StoredCount: 0, LiveCount: 2},
			},
		}
		handler := &recordingHandler{}
		s := New(collections, time.Minute, slog.New(handler))

		s.reconcileItemCounts()

		msgs := handler.messagesAt(slog.LevelError)
		require.Len(t, msgs, 2)
		assert.Equal(t, "collection item count mismatch detected", msgs[0])
	})

	t.Run("survives a failing sweep query", func(t *testing.T) {
		collections := &fakeCollectionStore{err: errors.New("connection reset")}
		handler := &recordingHandler{}
		s := New(collections, time.Minute, slog.New(handler))

		s.reconcileItemCounts()

		msgs := handler.messagesAt(slog.LevelError)
		require.Len(t, msgs, 1)
		assert.Equal(t, "item count reconciliation sweep failed", msgs[0])
	})
}

func TestNewDefaultsInterval(t *testing.T) {
	s := New(&fakeCollectionStore{}, 0, nil)
	assert.Equal(t, 15*time.Minute, s.interval)
}
