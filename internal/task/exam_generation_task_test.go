package task

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	mu      sync.Mutex
	calls   []uuid.UUID
	err     error
	blockCh chan struct{}
}

func (g *fakeGenerator) Generate(ctx context.Context, examID uuid.UUID) error {
	if g.blockCh != nil {
		<-g.blockCh
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, examID)
	return g.err
}

func (g *fakeGenerator) generated() []uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]uuid.UUID, len(g.calls))
	copy(out, g.calls)
	return out
}

func TestNewExamGenerationTask(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{}
	examID := uuid.New()

	task, err := NewExamGenerationTask(examID, gen, slog.Default())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, task.ID())
	assert.Equal(t, TaskTypeExamGeneration, task.Type())
	assert.Equal(t, TaskStatusPending, task.Status())

	var payload examGenerationPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, examID, payload.ExamID)

	_, err = NewExamGenerationTask(uuid.Nil, gen, slog.Default())
	assert.ErrorIs(t, err, ErrEmptyExamID)
	_, err = NewExamGenerationTask(examID, nil, slog.Default())
	assert.ErrorIs(t, err, ErrNilExamGenerator)
	_, err = NewExamGenerationTask(examID, gen, nil)
	assert.ErrorIs(t, err, ErrNilLogger)
}

func TestExamGenerationTaskExecute(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{}
	examID := uuid.New()

	task, err := NewExamGenerationTask(examID, gen, slog.Default())
	require.NoError(t, err)

	require.NoError(t, task.Execute(context.Background()))
	require.Equal(t, []uuid.UUID{examID}, gen.generated())

	// Generation failures surface through Execute.
	gen.err = errors.New("generation blew up")
	err = task.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generation blew up")
}

func TestFactoryCreateFromPayload(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{}
	factory := NewExamGenerationTaskFactory(gen, slog.Default())

	examID := uuid.New()
	original, err := factory.CreateTask(examID)
	require.NoError(t, err)

	// Rehydration keeps the stored task ID so status updates hit the
	// right row.
	rebuilt, err := factory.CreateFromPayload(original.ID(), original.Type(), original.Payload())
	require.NoError(t, err)
	assert.Equal(t, original.ID(), rebuilt.ID())

	require.NoError(t, rebuilt.Execute(context.Background()))
	assert.Equal(t, []uuid.UUID{examID}, gen.generated())

	_, err = factory.CreateFromPayload(uuid.New(), "unknown_type", nil)
	assert.ErrorIs(t, err, ErrUnknownTaskType)

	_, err = factory.CreateFromPayload(uuid.New(), TaskTypeExamGeneration, []byte(`{broken`))
	assert.Error(t, err)
}
