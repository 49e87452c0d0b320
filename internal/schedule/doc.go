// Package schedule runs downloads later: after a start delay, at a clock
// time, or repeatedly on a cron expression (robfig/cron).
//
//	err := schedule.Run(ctx, "0 2 * * *", logger, func(ctx context.Context) {
//	    runQueue(ctx)
//	})
package schedule
