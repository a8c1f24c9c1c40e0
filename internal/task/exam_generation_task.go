package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrNilExamGenerator = errors.New("exam generator cannot be nil")
	ErrNilLogger        = errors.New("logger cannot be nil")
	ErrEmptyExamID      = errors.New("exam ID cannot be empty")
	ErrUnknownTaskType  = errors.New("unknown task type")
)

// ExamGenerator runs the generation step of the exam lifecycle. The exam
// service provides the implementation.
type ExamGenerator interface {
	Generate(ctx context.Context, examID uuid.UUID) error
}

// examGenerationPayload represents the serialized data stored in the task
type examGenerationPayload struct {
	ExamID uuid.UUID `json:"exam_id"`
}

// ExamGenerationTask implements the Task interface for generating the
// content of a pending exam.
type ExamGenerationTask struct {
	id        uuid.UUID
	examID    uuid.UUID
	generator ExamGenerator
	logger    *slog.Logger
	status    TaskStatus
}

// NewExamGenerationTask creates a new exam generation task
func NewExamGenerationTask(
	examID uuid.UUID,
	generator ExamGenerator,
	logger *slog.Logger,
) (*ExamGenerationTask, error) {
	if generator == nil {
		return nil, ErrNilExamGenerator
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if examID == uuid.Nil {
		return nil, ErrEmptyExamID
	}

	return &ExamGenerationTask{
		id:        uuid.New(),
		examID:    examID,
		generator: generator,
		logger:    logger.With("task_type", TaskTypeExamGeneration, "exam_id", examID),
		status:    TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *ExamGenerationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *ExamGenerationTask) Type() string {
	return TaskTypeExamGeneration
}

// Payload returns the task data as a byte slice
func (t *ExamGenerationTask) Payload() []byte {
	payload := examGenerationPayload{ExamID: t.examID}

	data, err := json.Marshal(payload)
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return nil
	}
	return data
}

// Status returns the current task status
func (t *ExamGenerationTask) Status() TaskStatus {
	return t.status
}

// Execute runs the generation step for the exam.
func (t *ExamGenerationTask) Execute(ctx context.Context) error {
	t.logger.InfoContext(ctx, "executing exam generation task", "task_id", t.id)

	if err := t.generator.Generate(ctx, t.examID); err != nil {
		return fmt.Errorf("exam generation failed: %w", err)
	}
	return nil
}

// ExamGenerationTaskFactory creates ExamGenerationTask instances, both for
// new work and for tasks rehydrated from the database after a restart.
type ExamGenerationTaskFactory struct {
	generator ExamGenerator
	logger    *slog.Logger
}

// NewExamGenerationTaskFactory creates a new factory for ExamGenerationTasks
func NewExamGenerationTaskFactory(
	generator ExamGenerator,
	logger *slog.Logger,
) *ExamGenerationTaskFactory {
	return &ExamGenerationTaskFactory{
		generator: generator,
		logger:    logger.With("component", "exam_generation_task_factory"),
	}
}

// Ensure the factory satisfies the runner's Factory interface
var _ Factory = (*ExamGenerationTaskFactory)(nil)

// CreateTask creates a new ExamGenerationTask for the specified exam
func (f *ExamGenerationTaskFactory) CreateTask(examID uuid.UUID) (Task, error) {
	return NewExamGenerationTask(examID, f.generator, f.logger)
}

// CreateFromPayload implements Factory. It rebuilds an executable task from
// a persisted record, keeping the stored task ID so status updates hit the
// right row.
func (f *ExamGenerationTaskFactory) CreateFromPayload(
	id uuid.UUID,
	taskType string,
	payload []byte,
) (Task, error) {
	if taskType != TaskTypeExamGeneration {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTaskType, taskType)
	}

	var p examGenerationPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal exam generation payload: %w", err)
	}

	task, err := NewExamGenerationTask(p.ExamID, f.generator, f.logger)
	if err != nil {
		return nil, err
	}
	task.id = id
	return task, nil
}
