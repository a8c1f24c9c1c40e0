package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int

	// StuckTaskAge defines how long a task can be in processing state
	// before it's considered stuck and reset
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval defines how often to check for stuck tasks
	// If zero, defaults to 5 minutes
	StuckTaskCheckInterval time.Duration
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            2,
		QueueSize:              100,
		StuckTaskAge:           30 * time.Minute,
		StuckTaskCheckInterval: 5 * time.Minute,
	}
}

// TaskRunner manages background task processing
type TaskRunner struct {
	store      TaskStore
	factory    Factory
	taskChan   chan Task
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     TaskRunnerConfig
	logger     *slog.Logger
	errHandler func(task Task, err error)
}

// NewTaskRunner creates a new TaskRunner. The factory rehydrates tasks
// recovered from the database; without it, recovered tasks cannot run.
func NewTaskRunner(store TaskStore, factory Factory, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if config.StuckTaskCheckInterval == 0 {
		config.StuckTaskCheckInterval = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &TaskRunner{
		store:      store,
		factory:    factory,
		taskChan:   make(chan Task, config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		wg:         sync.WaitGroup{},
		config:     config,
		logger:     logger.With("component", "task_runner"),
		errHandler: func(task Task, err error) {
			logger.Error("task execution failed",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", err)
		},
	}
}

// SetErrorHandler allows setting a custom error handler function
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// Submit adds a new task to the queue. The task is persisted before it is
// queued, so a crash between the two steps leaves a recoverable record
// rather than lost work.
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	if err := r.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	select {
	case r.taskChan <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full, try again later")
	}
}

// Start initializes the worker pool and begins processing tasks
func (r *TaskRunner) Start() error {
	if err := r.Recover(); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(1)
	go r.stuckTaskMonitor()

	return nil
}

// Stop gracefully shuts down the task runner
func (r *TaskRunner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	close(r.taskChan)
}

// Recover loads unfinished tasks from the database and requeues them.
// Tasks found in the processing state were interrupted by a crash; they are
// reset to pending first.
func (r *TaskRunner) Recover() error {
	ctx := context.Background()

	pendingTasks, err := r.store.GetPendingTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending tasks: %w", err)
	}

	processingTasks, err := r.store.GetProcessingTasks(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing tasks: %w", err)
	}

	r.logger.Info("recovering unfinished tasks",
		"pending_count", len(pendingTasks),
		"processing_count", len(processingTasks))

	for _, t := range pendingTasks {
		r.requeueRecovered(t)
	}

	for _, t := range processingTasks {
		if err := r.store.UpdateTaskStatus(ctx, t.ID(), TaskStatusPending, "Reset after recovery"); err != nil {
			r.logger.Error("failed to reset processing task status",
				"task_id", t.ID(),
				"task_type", t.Type(),
				"error", err)
			continue
		}
		r.requeueRecovered(t)
	}

	return nil
}

// requeueRecovered rehydrates a persisted task through the factory and
// puts it back on the queue.
func (r *TaskRunner) requeueRecovered(stored Task) {
	task := stored
	if r.factory != nil {
		rebuilt, err := r.factory.CreateFromPayload(stored.ID(), stored.Type(), stored.Payload())
		if err != nil {
			r.logger.Error("failed to rehydrate recovered task",
				"task_id", stored.ID(),
				"task_type", stored.Type(),
				"error", err)
			return
		}
		task = rebuilt
	}

	select {
	case r.taskChan <- task:
	default:
		r.logger.Error("failed to requeue recovered task, queue is full",
			"task_id", task.ID(),
			"task_type", task.Type())
	}
}

// worker processes tasks from the queue
func (r *TaskRunner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return

		case task, ok := <-r.taskChan:
			if !ok {
				r.logger.Debug("task channel closed, stopping worker", "worker_id", id)
				return
			}

			r.processTask(task, id)
		}
	}
}

// processTask handles execution of a single task
func (r *TaskRunner) processTask(task Task, workerID int) {
	ctx := context.Background()
	logger := r.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
		"worker_id", workerID,
	)

	if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusProcessing, ""); err != nil {
		logger.Error("failed to update task status to processing", "error", err)
		return
	}

	logger.Info("processing task")

	err := task.Execute(ctx)

	if err != nil {
		logger.Error("task execution failed", "error", err)
		if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusFailed, err.Error()); updateErr != nil {
			logger.Error("failed to update task status to failed", "error", updateErr)
		}

		r.errHandler(task, err)
	} else {
		logger.Info("task completed successfully")
		if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusCompleted, ""); updateErr != nil {
			logger.Error("failed to update task status to completed", "error", updateErr)
		}
	}
}

// stuckTaskMonitor periodically checks for tasks that have been in
// "processing" state for too long and resets them
func (r *TaskRunner) stuckTaskMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			ctx := context.Background()

			stuckTasks, err := r.store.GetProcessingTasks(ctx, r.config.StuckTaskAge)
			if err != nil {
				r.logger.Error("failed to check for stuck tasks", "error", err)
				continue
			}

			if len(stuckTasks) == 0 {
				continue
			}

			r.logger.Info("found stuck tasks", "count", len(stuckTasks))

			for _, task := range stuckTasks {
				if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusPending,
					"Reset after being stuck in processing state"); err != nil {
					r.logger.Error("failed to reset stuck task status",
						"task_id", task.ID(),
						"task_type", task.Type(),
						"error", err)
					continue
				}

				r.requeueRecovered(task)
			}
		}
	}
}
