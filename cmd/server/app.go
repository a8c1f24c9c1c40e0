package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mquell/vocab-api/internal/config"
	"github.com/mquell/vocab-api/internal/domain/progress"
	"github.com/mquell/vocab-api/internal/events"
	"github.com/mquell/vocab-api/internal/platform/gemini"
	"github.com/mquell/vocab-api/internal/platform/postgres"
	"github.com/mquell/vocab-api/internal/scheduler"
	"github.com/mquell/vocab-api/internal/service"
	"github.com/mquell/vocab-api/internal/store"
	"github.com/mquell/vocab-api/internal/task"
)

// application holds the shared application dependencies so wiring and
// cleanup live in one place.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	dictionaryStore store.DictionaryStore
	collectionStore store.CollectionStore
	itemStore       store.ReviewItemStore
	examStore       store.ExamStore
	taskStore       task.TaskStore

	emitter *events.InMemoryEmitter

	dictionaryService service.DictionaryService
	collectionService service.CollectionService
	reviewService     service.ReviewService
	examService       service.ExamService

	taskRunner *task.TaskRunner
	scheduler  *scheduler.Scheduler
}

// lazyEnqueuer defers the generation enqueuer binding: the exam service
// needs an enqueuer at construction time, but the enqueuer's task factory
// needs the exam service. The target is set once wiring completes.
type lazyEnqueuer struct {
	target service.GenerationEnqueuer
}

func (l *lazyEnqueuer) EnqueueExamGeneration(ctx context.Context, examID uuid.UUID) error {
	if l.target == nil {
		return fmt.Errorf("generation enqueuer not wired")
	}
	return l.target.EnqueueExamGeneration(ctx, examID)
}

// newApplication wires all application components from the configuration.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := setupDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}

	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.dictionaryStore = postgres.NewPostgresDictionaryStore(db, logger)
	app.collectionStore = postgres.NewPostgresCollectionStore(db, logger)
	app.itemStore = postgres.NewPostgresReviewItemStore(db, logger)
	app.examStore = postgres.NewPostgresExamStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db)

	app.emitter = events.NewInMemoryEmitter(logger)

	geminiClient, err := gemini.NewClient(context.Background(), logger, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	scheduling := progress.NewServiceWithParams(progress.NewParams(progress.ParamsConfig{
		IntervalLadder: cfg.Review.IntervalLadder(),
	}))

	app.dictionaryService, err = service.NewDictionaryService(
		app.dictionaryStore, geminiClient, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create dictionary service: %w", err)
	}

	app.collectionService, err = service.NewCollectionService(
		db, app.collectionStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection service: %w", err)
	}

	app.reviewService, err = service.NewReviewService(
		db, app.itemStore, app.collectionStore, app.dictionaryService,
		scheduling, app.emitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create review service: %w", err)
	}

	enqueuer := &lazyEnqueuer{}
	app.examService, err = service.NewExamService(
		db, app.examStore, app.itemStore, app.dictionaryStore,
		app.reviewService, geminiClient, geminiClient, enqueuer,
		app.emitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create exam service: %w", err)
	}

	taskFactory := task.NewExamGenerationTaskFactory(app.examService, logger)
	app.taskRunner = task.NewTaskRunner(app.taskStore, taskFactory, taskRunnerConfig(cfg), logger)
	enqueuer.target = task.NewGenerationEnqueuer(app.taskRunner, taskFactory)

	app.scheduler = scheduler.New(
		app.collectionStore,
		time.Duration(cfg.Reconciler.IntervalMinutes)*time.Minute,
		logger)

	return app, nil
}

// taskRunnerConfig converts the task configuration section into runner
// settings, falling back to defaults for unset values.
func taskRunnerConfig(cfg *config.Config) task.TaskRunnerConfig {
	rc := task.DefaultTaskRunnerConfig()
	if cfg.Task.WorkerCount > 0 {
		rc.WorkerCount = cfg.Task.WorkerCount
	}
	if cfg.Task.QueueSize > 0 {
		rc.QueueSize = cfg.Task.QueueSize
	}
	if cfg.Task.StuckTaskAgeMin > 0 {
		rc.StuckTaskAge = time.Duration(cfg.Task.StuckTaskAgeMin) * time.Minute
	}
	if cfg.Task.StuckCheckEveryMin > 0 {
		rc.StuckTaskCheckInterval = time.Duration(cfg.Task.StuckCheckEveryMin) * time.Minute
	}
	return rc
}

// run applies migrations, starts the background machinery, and serves HTTP
// until shutdown.
func (app *application) run() error {
	if err := runMigrations(app.db, app.logger); err != nil {
		return err
	}

	if err := app.taskRunner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}

	if app.config.Reconciler.IntervalMinutes > 0 {
		if err := app.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	return app.startHTTPServer(context.Background(), app.setupRouter())
}

// cleanup releases application resources in reverse order of creation.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}
	if app.emitter != nil {
		app.emitter.Wait()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", "error", err)
		}
	}
}
