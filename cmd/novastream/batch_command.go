package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/asasingh14/novastream/internal/batch"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var total int

	cmd := &cobra.Command{
		Use:   "batch <file.csv>",
		Short: "Download every drama listed in a CSV file",
		Long: `Download every drama listed in a CSV file, one after another.

The header names the columns; only url is required:

  url,name,base_output,download_all,episode_list,workers`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := batch.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read batch file: %w", err)
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No rows to download")
				return nil
			}

			sess, err := ctx.newSession(cmd, total)
			if err != nil {
				return err
			}
			runCtx, stop := withInterrupt(cmd.Context(), cmd.ErrOrStderr(), sess.manager.Cancel)
			defer stop()

			results := batch.Run(runCtx, sessionRunner{sess}, sess.settings, rows, sess.logger)
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprint(cmd.OutOrStdout(), renderBatch(results))

			for _, r := range results {
				if r.Err != nil || r.Summary == nil || r.Summary.Failed > 0 {
					return fmt.Errorf("batch finished with failures: %w", errEpisodesFailed)
				}
			}
			if runCtx.Err() != nil {
				return runCtx.Err()
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&total, "total", 0, "Episode count to use when none can be detected")
	return cmd
}

func renderBatch(results []batch.Result) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		result := "ok"
		switch {
		case r.Err != nil:
			result = describeRunError(r.Err).Error()
		case r.Summary == nil:
			result = "no result"
		case r.Summary.Cancelled:
			result = "cancelled"
		default:
			result = fmt.Sprintf("%d succeeded, %d failed", r.Summary.Succeeded, r.Summary.Failed)
		}
		rows = append(rows, []string{strconv.Itoa(r.Row.Line), r.Row.URL, result})
	}
	return renderTable([]string{"Line", "URL", "Result"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft})
}
