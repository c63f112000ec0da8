// Package jobs provides scheduled background tasks for the fulfillment service.
//
// Jobs are cron-based (github.com/robfig/cron/v3, seconds field enabled) and only ever
// repair derived state; the database stays the system of record.
//
// # Available Jobs
//
// 1. AvailabilityResyncJob - reconciles the availability board with the ShopOrders out for
// delivery and still unclaimed
// 2. RevenueRebuildJob - replays the delivered history into the revenue projection
//
// # Usage
//
//	jobManager := jobs.NewJobManager(resyncHandler, rebuildHandler, jobs.Schedules{}, logger)
//
//	if err := jobManager.Warmup(ctx); err != nil {
//		log.Fatal("Failed to warm up:", err)
//	}
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// - A failed run is logged and retried on the next tick
// - Every run is bounded by a one minute timeout
// - Failed job starts will stop any already running jobs
package jobs
