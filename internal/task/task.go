// Package task provides persisted background task processing: a worker
// pool fed by an in-memory queue, with every task recorded in the database
// so pending and interrupted work survives a restart.
package task

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task type constants
const (
	// TaskTypeExamGeneration is the task type for generating exam content.
	TaskTypeExamGeneration = "exam_generation"
)

// Task represents a unit of background work to be processed
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Payload returns the task data as a byte slice
	Payload() []byte

	// Status returns the current task status
	Status() TaskStatus

	// Execute runs the task logic
	Execute(ctx context.Context) error
}

// Factory rebuilds an executable task from its persisted type and payload.
// The runner uses it to rehydrate tasks recovered after a restart.
type Factory interface {
	// CreateFromPayload constructs a task of the given type from its
	// stored payload, reusing the persisted task ID.
	CreateFromPayload(id uuid.UUID, taskType string, payload []byte) (Task, error)
}

// TaskStore defines the interface for persisting tasks
type TaskStore interface {
	// SaveTask persists a task to the database
	SaveTask(ctx context.Context, task Task) error

	// UpdateTaskStatus updates the status of a task
	UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error

	// GetPendingTasks retrieves all tasks with "pending" status
	GetPendingTasks(ctx context.Context) ([]Task, error)

	// GetProcessingTasks retrieves tasks with "processing" status
	// If olderThan is non-zero, only returns tasks that have been in this
	// state longer than the specified duration
	GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Task, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}
