// Package scheduler runs periodic background jobs, currently the derived
// item count reconciliation sweep.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/mquell/vocab-api/internal/store"
)

// Scheduler manages scheduled jobs for the application.
type Scheduler struct {
	scheduler   *gocron.Scheduler
	collections store.CollectionStore
	interval    time.Duration
	logger      *slog.Logger
}

// New creates a new scheduler instance. The interval controls how often the
// count reconciliation job runs.
func New(collections store.CollectionStore, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		scheduler:   gocron.NewScheduler(time.UTC),
		collections: collections,
		interval:    interval,
		logger:      logger.With(slog.String("component", "scheduler")),
	}
}

// Start begins running all scheduled jobs in the background.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.interval).Do(s.reconcileItemCounts); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", slog.Duration("reconcile_interval", s.interval))
	return nil
}

// Stop terminates all scheduled jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// reconcileItemCounts sweeps all collections for derived item counts that
// disagree with the live item set. The counts are only ever written inside
// the same transaction as the item mutation, so a mismatch means a bug
// slipped through; the sweep logs it loudly rather than papering over it.
func (s *Scheduler) reconcileItemCounts() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	mismatches, err := s.collections.FindCountMismatches(ctx)
	if err != nil {
		s.logger.Error("item count reconciliation sweep failed",
			slog.String("error", err.Error()))
		return
	}

	if len(mismatches) == 0 {
		s.logger.Debug("item count reconciliation sweep clean")
		return
	}

	for _, m := range mismatches {
		s.logger.Error("collection item count mismatch detected",
			slog.String("collection_id", m.CollectionID.String()),
			slog.Int("stored_count", m.StoredCount),
			slog.Int("live_count", m.LiveCount))
	}
}
