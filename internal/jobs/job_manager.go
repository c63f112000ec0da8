package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const defaultRunTimeout = time.Minute

// Schedules are the cron expressions of the jobs, with a seconds field. Empty fields use
// the job defaults.
type Schedules struct {
	AvailabilityResync string
	RevenueRebuild     string
}

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	availabilityResyncJob *AvailabilityResyncJob
	revenueRebuildJob     *RevenueRebuildJob
}

// NewJobManager creates a new job manager with all required jobs.
func NewJobManager(
	resyncHandler AvailabilityResyncHandler,
	rebuildHandler RevenueRebuildHandler,
	schedules Schedules,
	logger *slog.Logger,
) *JobManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobManager{
		availabilityResyncJob: NewAvailabilityResyncJob(resyncHandler, schedules.AvailabilityResync, logger),
		revenueRebuildJob:     NewRevenueRebuildJob(rebuildHandler, schedules.RevenueRebuild, logger),
	}
}

// Warmup runs every job once, before the service accepts traffic: the revenue projection
// starts from the full history and the board from the stored ShopOrders.
func (jm *JobManager) Warmup(ctx context.Context) error {
	if !jm.revenueRebuildJob.Run(ctx) {
		return fmt.Errorf("initial revenue rebuild failed")
	}
	jm.availabilityResyncJob.Run(ctx)
	return nil
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.availabilityResyncJob.Start(); err != nil {
		return fmt.Errorf("failed to start availability resync job: %w", err)
	}

	if err := jm.revenueRebuildJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.availabilityResyncJob.Stop()
		return fmt.Errorf("failed to start revenue rebuild job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.revenueRebuildJob.Stop()
	jm.availabilityResyncJob.Stop()
}
