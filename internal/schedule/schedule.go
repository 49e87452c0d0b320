package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Parse validates a standard five-field cron expression or a descriptor
// such as "@daily" or "@every 6h".
func Parse(expr string) (cron.Schedule, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return sched, nil
}

// NextRuns returns the next n activation times after from.
func NextRuns(expr string, from time.Time, n int) ([]time.Time, error) {
	sched, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	runs := make([]time.Time, 0, n)
	t := from
	for range n {
		t = sched.Next(t)
		runs = append(runs, t)
	}
	return runs, nil
}

// UntilClock returns how long to wait from now until the next hour:minute
// local time, today or tomorrow.
func UntilClock(now time.Time, hour, minute int) time.Duration {
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !target.After(now) {
		target = target.AddDate(0, 0, 1)
	}
	return target.Sub(now)
}

// Delay blocks for d or until ctx is done.
func Delay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run calls job on every activation of expr until ctx is done. An
// activation that fires while the previous job is still running is
// skipped, and a panicking job is logged rather than crashing the process.
func Run(ctx context.Context, expr string, logger *slog.Logger, job func(context.Context)) error {
	if _, err := Parse(expr); err != nil {
		return err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	l := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
	if _, err := c.AddFunc(expr, func() { job(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", expr, err)
	}

	c.Start()
	if entries := c.Entries(); len(entries) > 0 {
		logger.Info("Scheduler started", "expression", expr, "next", entries[0].Next.Format(time.RFC3339))
	}

	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("Scheduler stopped", "expression", expr)
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
