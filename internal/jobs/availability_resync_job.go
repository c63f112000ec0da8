package jobs

import (
	"context"
	"log/slog"
	"time"

	"fulfillment/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// DefaultAvailabilityResyncSchedule runs the resync every thirty seconds.
const DefaultAvailabilityResyncSchedule = "@every 30s"

type AvailabilityResyncHandler interface {
	Handle(ctx context.Context, cmd commands.ResyncAvailabilityCommand) (commands.ResyncResult, error)
}

// AvailabilityResyncJob reconciles the availability board with the stored ShopOrders.
// It repairs entries lost to a crash between commit and publish and withdraws entries of
// ShopOrders another process claimed.
type AvailabilityResyncJob struct {
	handler  AvailabilityResyncHandler
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
	logger   *slog.Logger
}

func NewAvailabilityResyncJob(handler AvailabilityResyncHandler, schedule string, logger *slog.Logger) *AvailabilityResyncJob {
	if schedule == "" {
		schedule = DefaultAvailabilityResyncSchedule
	}
	return &AvailabilityResyncJob{
		handler:  handler,
		schedule: schedule,
		timeout:  defaultRunTimeout,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "availability_resync_job"),
	}
}

// Run performs one resync.
func (j *AvailabilityResyncJob) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	result, err := j.handler.Handle(ctx, commands.NewResyncAvailabilityCommand())
	if err != nil {
		j.logger.ErrorContext(ctx, "Availability resync failed", "error", err)
		return
	}
	if result.Added > 0 || result.Removed > 0 {
		j.logger.InfoContext(ctx, "Availability board repaired", "added", result.Added, "removed", result.Removed)
	}
}

// Start schedules the resync.
func (j *AvailabilityResyncJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.Run(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Availability resync job started", "schedule", j.schedule)
	return nil
}

// Stop unschedules the job and waits for a running resync to finish.
func (j *AvailabilityResyncJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Availability resync job stopped")
}
