package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/asasingh14/novastream/internal/config"
	"github.com/asasingh14/novastream/internal/download"
	ioutils "github.com/asasingh14/novastream/internal/io"
	"github.com/asasingh14/novastream/internal/schedule"
)

// requestFlags are the per-drama options shared by download, queue add and
// schedule.
type requestFlags struct {
	name     string
	output   string
	all      bool
	episodes string
	workers  int
	retries  int
	throttle int
	total    int
	cleanup  bool
}

func (f *requestFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.name, "name", "", "Drama name used for the folder (default: from the URL)")
	flags.StringVarP(&f.output, "output", "o", "", "Base output directory (overrides config)")
	flags.BoolVarP(&f.all, "all", "a", false, "Download every episode")
	flags.StringVarP(&f.episodes, "episodes", "e", "", "Episode selector such as 1-3,7")
	flags.IntVarP(&f.workers, "workers", "w", 0, "Parallel episode downloads (default: from config)")
	flags.IntVarP(&f.retries, "retries", "r", -1, "Retries per episode (default: from config)")
	flags.IntVar(&f.throttle, "throttle", -1, "Bandwidth hint in kbps, informational (default: from config)")
	flags.IntVar(&f.total, "total", 0, "Episode count to use when none can be detected")
	flags.BoolVar(&f.cleanup, "cleanup", false, "Remove the drama folder when cancelled")
}

func (f *requestFlags) request(settings *config.Settings, url string) download.Request {
	req := download.NewRequest(settings, url)
	req.Name = f.name
	req.DownloadAll = f.all
	req.Episodes = f.episodes
	req.CleanupOnCancel = f.cleanup
	if f.output != "" {
		req.BaseOutput = f.output
	}
	if f.workers > 0 {
		req.Workers = f.workers
	}
	if f.retries >= 0 {
		req.Retries = f.retries
	}
	if f.throttle >= 0 {
		req.Throttle = f.throttle
	}
	return req
}

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var flags requestFlags
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "download <url>",
		Short: "Download episodes of a drama",
		Long: `Download episodes of a drama from its homepage or a single episode page.

Episodes are discovered from the homepage. Use --all to take every episode
or --episodes to pick some. When no episode links can be found, --all asks
for the total count (or uses --total) and --episodes builds the episode URLs
directly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.newSession(cmd, flags.total)
			if err != nil {
				return err
			}
			req := flags.request(sess.settings, args[0])

			runCtx, stop := withInterrupt(cmd.Context(), cmd.ErrOrStderr(), sess.manager.Cancel)
			defer stop()

			if delay > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Waiting %s before starting...\n", delay)
				if err := schedule.Delay(runCtx, delay); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), "🎬 NovaStream")
			fmt.Fprintln(cmd.OutOrStdout())

			summary, err := sess.run(runCtx, req)
			if err != nil {
				return describeRunError(err)
			}
			return reportSummary(cmd.OutOrStdout(), summary)
		},
	}

	flags.register(cmd)
	cmd.Flags().DurationVar(&delay, "delay", 0, "Wait this long before starting, e.g. 30m")
	return cmd
}

// describeRunError adds a hint to the errors that abort a run.
func describeRunError(err error) error {
	switch {
	case errors.Is(err, download.ErrNoSelection):
		return fmt.Errorf("%w (use --all or --episodes)", err)
	case errors.Is(err, download.ErrPromptDeclined):
		return fmt.Errorf("%w (use --total to set the episode count)", err)
	}
	return err
}

// errEpisodesFailed makes the process exit non-zero when episodes failed.
var errEpisodesFailed = errors.New("some episodes failed")

func reportSummary(w io.Writer, summary *download.Summary) error {
	if summary == nil {
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprint(w, renderSummary(summary))

	switch {
	case summary.Cancelled:
		return context.Canceled
	case summary.Failed > 0:
		return fmt.Errorf("%d of %d: %w", summary.Failed, summary.Total, errEpisodesFailed)
	}
	fmt.Fprintf(w, "✅ Done! Files saved in: %s\n", summary.Dir)
	return nil
}

func renderSummary(summary *download.Summary) string {
	size := "-"
	if bytes, err := ioutils.DirSize(summary.Dir); err == nil {
		size = humanize.Bytes(uint64(bytes))
	}

	rows := [][]string{
		{"Folder", summary.Dir},
		{"Episodes", strconv.Itoa(summary.Total)},
		{"Succeeded", strconv.Itoa(summary.Succeeded)},
		{"Failed", strconv.Itoa(summary.Failed)},
		{"Skipped", strconv.Itoa(summary.Skipped)},
		{"Size", size},
		{"Duration", summary.Duration.Round(time.Second).String()},
		{"Cancelled", yesNo(summary.Cancelled)},
	}
	return renderTable([]string{"Session", ""}, rows, []columnAlignment{alignLeft, alignLeft})
}
