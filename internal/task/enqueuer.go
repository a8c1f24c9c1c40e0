package task

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// GenerationEnqueuer submits exam generation tasks to the runner. It
// satisfies the enqueuer interface the exam service expects.
type GenerationEnqueuer struct {
	runner  *TaskRunner
	factory *ExamGenerationTaskFactory
}

// NewGenerationEnqueuer creates an enqueuer bound to the runner and factory.
func NewGenerationEnqueuer(runner *TaskRunner, factory *ExamGenerationTaskFactory) *GenerationEnqueuer {
	return &GenerationEnqueuer{
		runner:  runner,
		factory: factory,
	}
}

// EnqueueExamGeneration creates and submits a generation task for the exam.
func (e *GenerationEnqueuer) EnqueueExamGeneration(ctx context.Context, examID uuid.UUID) error {
	task, err := e.factory.CreateTask(examID)
	if err != nil {
		return fmt.Errorf("failed to create exam generation task: %w", err)
	}

	if err := e.runner.Submit(ctx, task); err != nil {
		return fmt.Errorf("failed to submit exam generation task: %w", err)
	}
	return nil
}
