package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/asasingh14/novastream/internal/schedule"
)

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	var flags requestFlags
	var cronExpr string
	var at string
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "schedule [url]",
		Short: "Run a download or the whole queue later",
		Long: `Run a download later. Without a URL the pending queue entries are run.

Exactly one of --cron, --at or --delay sets when:

  --cron "0 2 * * *"   every night at 02:00, until interrupted
  --at 23:30           once, at the next 23:30 local time
  --delay 45m          once, after 45 minutes`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set := 0
			for _, ok := range []bool{cronExpr != "", at != "", delay > 0} {
				if ok {
					set++
				}
			}
			if set != 1 {
				return errors.New("use exactly one of --cron, --at or --delay")
			}
			if cronExpr != "" {
				if _, err := schedule.Parse(cronExpr); err != nil {
					return err
				}
			}
			var hour, minute int
			if at != "" {
				var err error
				if hour, minute, err = parseClock(at); err != nil {
					return err
				}
			}

			sess, err := ctx.newSession(cmd, flags.total)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			runCtx, stop := withInterrupt(cmd.Context(), cmd.ErrOrStderr(), sess.manager.Cancel)
			defer stop()

			job := func(jobCtx context.Context) error {
				if len(args) == 1 {
					summary, err := sess.run(jobCtx, flags.request(sess.settings, args[0]))
					if err != nil {
						return describeRunError(err)
					}
					return reportSummary(out, summary)
				}

				store, err := ctx.openQueue()
				if err != nil {
					return err
				}
				entries, err := selectEntries(store, nil, true)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}
				return runQueue(jobCtx, out, sess, store, entries)
			}

			switch {
			case cronExpr != "":
				next, _ := schedule.NextRuns(cronExpr, time.Now(), 3)
				for _, t := range next {
					fmt.Fprintf(out, "Next run: %s\n", t.Format("2006-01-02 15:04"))
				}
				return schedule.Run(runCtx, cronExpr, sess.logger, func(jobCtx context.Context) {
					if err := job(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
						sess.logger.Error("Scheduled run failed", "error", err)
					}
				})

			case at != "":
				wait := schedule.UntilClock(time.Now(), hour, minute)
				fmt.Fprintf(out, "Waiting until %02d:%02d (%s)...\n", hour, minute, wait.Round(time.Second))
				if err := schedule.Delay(runCtx, wait); err != nil {
					return err
				}

			default:
				fmt.Fprintf(out, "Waiting %s before starting...\n", delay)
				if err := schedule.Delay(runCtx, delay); err != nil {
					return err
				}
			}
			return job(runCtx)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&cronExpr, "cron", "", "Cron expression, e.g. \"0 2 * * *\" or @daily")
	cmd.Flags().StringVar(&at, "at", "", "Local time of day HH:MM")
	cmd.Flags().DurationVar(&delay, "delay", 0, "Delay before starting, e.g. 30m")
	return cmd
}

// parseClock parses a 24-hour HH:MM time of day.
func parseClock(value string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(value), ":")
	if ok {
		hour, err = strconv.Atoi(h)
		if err == nil {
			minute, err = strconv.Atoi(m)
		}
	}
	if !ok || err != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time %q, want HH:MM", value)
	}
	return hour, minute, nil
}
