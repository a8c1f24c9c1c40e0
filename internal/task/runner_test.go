package task

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryTaskStore is an in-memory TaskStore for runner tests.
type memoryTaskStore struct {
	mu       sync.Mutex
	tasks    map[uuid.UUID]Task
	statuses map[uuid.UUID]TaskStatus
	saveErr  error
}

func newMemoryTaskStore() *memoryTaskStore {
	return &memoryTaskStore{
		tasks:    make(map[uuid.UUID]Task),
		statuses: make(map[uuid.UUID]TaskStatus),
	}
}

func (s *memoryTaskStore) SaveTask(ctx context.Context, task Task) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID()] = task
	s.statuses[task.ID()] = TaskStatusPending
	return nil
}

func (s *memoryTaskStore) UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[taskID] = status
	return nil
}

func (s *memoryTaskStore) GetPendingTasks(ctx context.Context) ([]Task, error) {
	return s.tasksWithStatus(TaskStatusPending), nil
}

func (s *memoryTaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Task, error) {
	return s.tasksWithStatus(TaskStatusProcessing), nil
}

func (s *memoryTaskStore) WithTx(tx *sql.Tx) TaskStore { return s }

func (s *memoryTaskStore) tasksWithStatus(status TaskStatus) []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Task
	for id, task := range s.tasks {
		if s.statuses[id] == status {
			out = append(out, task)
		}
	}
	return out
}

func (s *memoryTaskStore) status(taskID uuid.UUID) TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[taskID]
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func testRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            2,
		QueueSize:              10,
		StuckTaskAge:           time.Minute,
		StuckTaskCheckInterval: time.Hour,
	}
}

func TestRunnerProcessesSubmittedTask(t *testing.T) {
	t.Parallel()
	store := newMemoryTaskStore()
	gen := &fakeGenerator{}
	factory := NewExamGenerationTaskFactory(gen, slog.Default())
	runner := NewTaskRunner(store, factory, testRunnerConfig(), slog.Default())

	require.NoError(t, runner.Start())
	defer runner.Stop()

	examID := uuid.New()
	task, err := factory.CreateTask(examID)
	require.NoError(t, err)
	require.NoError(t, runner.Submit(context.Background(), task))

	waitFor(t, 2*time.Second, func() bool {
		return store.status(task.ID()) == TaskStatusCompleted
	})
	assert.Equal(t, []uuid.UUID{examID}, gen.generated())
}

func TestRunnerMarksFailedTask(t *testing.T) {
	t.Parallel()
	store := newMemoryTaskStore()
	gen := &fakeGenerator{err: assert.AnError}
	factory := NewExamGenerationTaskFactory(gen, slog.Default())
	runner := NewTaskRunner(store, factory, testRunnerConfig(), slog.Default())

	var handlerCalled sync.WaitGroup
	handlerCalled.Add(1)
	runner.SetErrorHandler(func(task Task, err error) {
		handlerCalled.Done()
	})

	require.NoError(t, runner.Start())
	defer runner.Stop()

	task, err := factory.CreateTask(uuid.New())
	require.NoError(t, err)
	require.NoError(t, runner.Submit(context.Background(), task))

	handlerCalled.Wait()
	waitFor(t, 2*time.Second, func() bool {
		return store.status(task.ID()) == TaskStatusFailed
	})
}

func TestRunnerSubmitPersistsBeforeQueueing(t *testing.T) {
	t.Parallel()
	store := newMemoryTaskStore()
	store.saveErr = assert.AnError
	gen := &fakeGenerator{}
	factory := NewExamGenerationTaskFactory(gen, slog.Default())
	runner := NewTaskRunner(store, factory, testRunnerConfig(), slog.Default())

	task, err := factory.CreateTask(uuid.New())
	require.NoError(t, err)

	// A failed save must not queue the task.
	require.Error(t, runner.Submit(context.Background(), task))
	assert.Empty(t, gen.generated())
}

func TestRunnerRecoversPersistedTasks(t *testing.T) {
	t.Parallel()
	store := newMemoryTaskStore()
	gen := &fakeGenerator{}
	factory := NewExamGenerationTaskFactory(gen, slog.Default())

	// Seed the store as if a previous process crashed: one task still
	// pending, one stuck in processing.
	pendingExam := uuid.New()
	pendingTask, err := factory.CreateTask(pendingExam)
	require.NoError(t, err)
	require.NoError(t, store.SaveTask(context.Background(), pendingTask))

	processingExam := uuid.New()
	processingTask, err := factory.CreateTask(processingExam)
	require.NoError(t, err)
	require.NoError(t, store.SaveTask(context.Background(), processingTask))
	require.NoError(t, store.UpdateTaskStatus(context.Background(), processingTask.ID(), TaskStatusProcessing, ""))

	runner := NewTaskRunner(store, factory, testRunnerConfig(), slog.Default())
	require.NoError(t, runner.Start())
	defer runner.Stop()

	waitFor(t, 2*time.Second, func() bool {
		return store.status(pendingTask.ID()) == TaskStatusCompleted &&
			store.status(processingTask.ID()) == TaskStatusCompleted
	})

	generated := gen.generated()
	assert.ElementsMatch(t, []uuid.UUID{pendingExam, processingExam}, generated)
}

func TestRunnerQueueFull(t *testing.T) {
	t.Parallel()
	store := newMemoryTaskStore()
	gen := &fakeGenerator{}
	factory := NewExamGenerationTaskFactory(gen, slog.Default())

	config := testRunnerConfig()
	config.QueueSize = 1
	runner := NewTaskRunner(store, factory, config, slog.Default())
	// Runner not started: nothing drains the queue.

	first, err := factory.CreateTask(uuid.New())
	require.NoError(t, err)
	require.NoError(t, runner.Submit(context.Background(), first))

	second, err := factory.CreateTask(uuid.New())
	require.NoError(t, err)
	err = runner.Submit(context.Background(), second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue is full")
}

func TestEnqueuerSubmitsGenerationTask(t *testing.T) {
	t.Parallel()
	store := newMemoryTaskStore()
	gen := &fakeGenerator{}
	factory := NewExamGenerationTaskFactory(gen, slog.Default())
	runner := NewTaskRunner(store, factory, testRunnerConfig(), slog.Default())
	enqueuer := NewGenerationEnqueuer(runner, factory)

	require.NoError(t, runner.Start())
	defer runner.Stop()

	examID := uuid.New()
	require.NoError(t, enqueuer.EnqueueExamGeneration(context.Background(), examID))

	waitFor(t, 2*time.Second, func() bool {
		return len(gen.generated()) == 1
	})
	assert.Equal(t, examID, gen.generated()[0])

	assert.Error(t, enqueuer.EnqueueExamGeneration(context.Background(), uuid.Nil))
}
