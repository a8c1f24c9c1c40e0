package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mquell/vocab-api/internal/platform/logger"
	"github.com/mquell/vocab-api/internal/store"
	"github.com/mquell/vocab-api/internal/task"
)

// PostgresTaskStore implements the task.TaskStore interface using PostgreSQL
type PostgresTaskStore struct {
	db store.DBTX
}

// NewPostgresTaskStore creates a new PostgresTaskStore
func NewPostgresTaskStore(db store.DBTX) *PostgresTaskStore {
	return &PostgresTaskStore{
		db: db,
	}
}

// Ensure PostgresTaskStore implements task.TaskStore interface
var _ task.TaskStore = (*PostgresTaskStore)(nil)

// SaveTask persists a task to the database
func (s *PostgresTaskStore) SaveTask(ctx context.Context, t task.Task) error {
	log := logger.FromContext(ctx)

	query := `
		INSERT INTO tasks (id, type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, query,
		t.ID(),
		t.Type(),
		t.Payload(),
		string(t.Status()),
		now,
		now,
	)

	if err != nil {
		log.Error("failed to save task",
			"task_id", t.ID(),
			"task_type", t.Type(),
			"error", err)
		return fmt.Errorf("failed to save task to database: %w", err)
	}

	return nil
}

// UpdateTaskStatus updates the status of a task in the database
func (s *PostgresTaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status task.TaskStatus,
	errorMsg string,
) error {
	log := logger.FromContext(ctx)

	query := `
		UPDATE tasks
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query,
		string(status),
		errorMsg,
		time.Now().UTC(),
		taskID,
	)

	if err != nil {
		log.Error("failed to update task status",
			"task_id", taskID,
			"status", status,
			"error", err)
		return fmt.Errorf("failed to update task status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		log.Warn("no task found with ID to update status", "task_id", taskID)
		return nil // not found is a no-op for status updates
	}

	return nil
}

// GetPendingTasks retrieves all tasks with "pending" status
func (s *PostgresTaskStore) GetPendingTasks(ctx context.Context) ([]task.Task, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusPending, 0)
}

// GetProcessingTasks retrieves tasks with "processing" status
func (s *PostgresTaskStore) GetProcessingTasks(
	ctx context.Context,
	olderThan time.Duration,
) ([]task.Task, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusProcessing, olderThan)
}

// getTasksByStatus is a helper method to get tasks by status with an
// optional age filter
func (s *PostgresTaskStore) getTasksByStatus(
	ctx context.Context,
	status task.TaskStatus,
	olderThan time.Duration,
) ([]task.Task, error) {
	log := logger.FromContext(ctx)

	var query string
	var args []interface{}

	if olderThan > 0 {
		query = `
			SELECT id, type, payload, status, error_message, created_at, updated_at
			FROM tasks
			WHERE status = $1 AND updated_at < $2
			ORDER BY created_at ASC
		`
		args = []interface{}{string(status), time.Now().UTC().Add(-olderThan)}
	} else {
		query = `
			SELECT id, type, payload, status, error_message, created_at, updated_at
			FROM tasks
			WHERE status = $1
			ORDER BY created_at ASC
		`
		args = []interface{}{string(status)}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks by status",
			"status", status,
			"error", err)
		return nil, fmt.Errorf("failed to query tasks by status: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", "error", err)
		}
	}()

	var tasks []task.Task

	for rows.Next() {
		var t storedTask
		var errorMessage sql.NullString

		if err := rows.Scan(&t.id, &t.taskType, &t.payload, &t.status,
			&errorMessage, &t.createdAt, &t.updatedAt); err != nil {
			log.Error("failed to scan task row",
				"status", status,
				"error", err)
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		t.errorMessage = errorMessage.String

		tasks = append(tasks, &t)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows",
			"status", status,
			"error", err)
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

// WithTx returns a new TaskStore instance that uses the provided transaction
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) task.TaskStore {
	return &PostgresTaskStore{db: tx}
}

// storedTask is a task loaded from the database. It carries the persisted
// record but no execution logic; the runner's factory rehydrates it into a
// concrete task before it runs.
type storedTask struct {
	id           uuid.UUID
	taskType     string
	payload      []byte
	status       task.TaskStatus
	errorMessage string
	createdAt    time.Time
	updatedAt    time.Time
}

// ID returns the task's unique identifier
func (t *storedTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *storedTask) Type() string {
	return t.taskType
}

// Payload returns the task data as a byte slice
func (t *storedTask) Payload() []byte {
	return t.payload
}

// Status returns the current task status
func (t *storedTask) Status() task.TaskStatus {
	return t.status
}

// Execute always fails: stored tasks must be rehydrated by the runner's
// factory before execution.
func (t *storedTask) Execute(ctx context.Context) error {
	return errors.New("stored task was not rehydrated before execution")
}
