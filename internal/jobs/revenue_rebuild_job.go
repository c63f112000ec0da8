package jobs

import (
	"context"
	"log/slog"
	"time"

	"fulfillment/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// DefaultRevenueRebuildSchedule rebuilds at the top of every hour.
const DefaultRevenueRebuildSchedule = "0 0 * * * *"

type RevenueRebuildHandler interface {
	Handle(ctx context.Context, cmd commands.RebuildRevenueCommand) (int, error)
}

// RevenueRebuildJob replays the delivered history into the revenue projection, so the
// projection converges on the database even if a Delivered event was lost.
type RevenueRebuildJob struct {
	handler  RevenueRebuildHandler
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
	logger   *slog.Logger
}

func NewRevenueRebuildJob(handler RevenueRebuildHandler, schedule string, logger *slog.Logger) *RevenueRebuildJob {
	if schedule == "" {
		schedule = DefaultRevenueRebuildSchedule
	}
	return &RevenueRebuildJob{
		handler:  handler,
		schedule: schedule,
		timeout:  defaultRunTimeout,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "revenue_rebuild_job"),
	}
}

// Run performs one rebuild and reports whether it succeeded.
func (j *RevenueRebuildJob) Run(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	started := time.Now()
	count, err := j.handler.Handle(ctx, commands.NewRebuildRevenueCommand())
	if err != nil {
		j.logger.ErrorContext(ctx, "Revenue rebuild failed", "error", err)
		return false
	}
	j.logger.InfoContext(ctx, "Revenue rebuilt", "deliveries", count, "took", time.Since(started))
	return true
}

// Start schedules the rebuild.
func (j *RevenueRebuildJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.Run(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Revenue rebuild job started", "schedule", j.schedule)
	return nil
}

// Stop unschedules the job and waits for a running rebuild to finish.
func (j *RevenueRebuildJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Revenue rebuild job stopped")
}
