package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/asasingh14/novastream/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the download queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueMoveCommand(ctx))
	queueCmd.AddCommand(newQueueRunCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queued dramas",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openQueue()
			if err != nil {
				return err
			}
			entries := store.List()
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), renderQueue(entries))
			return nil
		},
	}
}

func renderQueue(entries []queue.Entry) string {
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		episodes := e.EpisodeList
		if e.DownloadAll {
			episodes = "all"
		}
		status := e.Status
		if status == queue.StatusPending {
			status = "pending"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			shortID(e.ID),
			e.Label(),
			episodes,
			strconv.Itoa(e.Workers),
			status,
		})
	}
	return renderTable(
		[]string{"#", "ID", "Drama", "Episodes", "Workers", "Status"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	var flags requestFlags

	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Add a drama to the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openQueue()
			if err != nil {
				return err
			}

			req := flags.request(settings, args[0])
			entry, err := store.Add(queue.Entry{
				URL:         req.URL,
				Name:        req.Name,
				Output:      flags.output,
				DownloadAll: req.DownloadAll,
				EpisodeList: req.Episodes,
				Workers:     req.Workers,
				Throttle:    req.Throttle,
				Retries:     req.Retries,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued %s (%s)\n", entry.Label(), shortID(entry.ID))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id|#>",
		Short: "Remove a drama from the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openQueue()
			if err != nil {
				return err
			}
			entry, err := resolveEntry(store, args[0])
			if err != nil {
				return err
			}
			if err := store.Remove(entry.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", entry.Label())
			return nil
		},
	}
}

func newQueueMoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id|#> <offset>",
		Short: "Move a queued drama up (negative) or down (positive)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid offset %q", args[1])
			}
			store, err := ctx.openQueue()
			if err != nil {
				return err
			}
			entry, err := resolveEntry(store, args[0])
			if err != nil {
				return err
			}
			idx, err := store.Move(entry.ID, offset)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now #%d\n", entry.Label(), idx+1)
			return nil
		},
	}
}

func newQueueRunCommand(ctx *commandContext) *cobra.Command {
	var total int
	var pending bool

	cmd := &cobra.Command{
		Use:   "run [id|#...]",
		Short: "Download queued dramas one after another",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openQueue()
			if err != nil {
				return err
			}
			entries, err := selectEntries(store, args, pending)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
				return nil
			}

			sess, err := ctx.newSession(cmd, total)
			if err != nil {
				return err
			}
			runCtx, stop := withInterrupt(cmd.Context(), cmd.ErrOrStderr(), sess.manager.Cancel)
			defer stop()

			return runQueue(runCtx, cmd.OutOrStdout(), sess, store, entries)
		},
	}

	cmd.Flags().IntVar(&total, "total", 0, "Episode count to use when none can be detected")
	cmd.Flags().BoolVar(&pending, "pending", false, "Only run entries that have not completed")
	return cmd
}

// runQueue downloads entries in order, recording each entry's status. A
// cancelled run stops the sequence.
func runQueue(ctx context.Context, out io.Writer, sess *session, store *queue.Store, entries []queue.Entry) error {
	var failed int
	for i, e := range entries {
		if ctx.Err() != nil {
			return context.Canceled
		}
		fmt.Fprintf(out, "\n▶ [%d/%d] %s\n", i+1, len(entries), e.Label())
		if err := store.SetStatus(e.ID, queue.StatusRunning); err != nil {
			sess.logger.Warn("Queue status not saved", "id", e.ID, "error", err)
		}

		req := e.Request(sess.settings)
		summary, err := sess.run(ctx, req)
		status := queue.StatusDone
		switch {
		case err != nil:
			status = queue.StatusFailed
			fmt.Fprintf(out, "❌ %s: %v\n", e.Label(), describeRunError(err))
		default:
			err = reportSummary(out, summary)
			if err != nil {
				status = queue.StatusFailed
			}
		}
		if setErr := store.SetStatus(e.ID, status); setErr != nil {
			sess.logger.Warn("Queue status not saved", "id", e.ID, "error", setErr)
		}
		if errors.Is(err, context.Canceled) {
			return err
		}
		if err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d queued dramas: %w", failed, len(entries), errEpisodesFailed)
	}
	return nil
}

// resolveEntry finds an entry by full ID, 1-based position or unique ID
// prefix.
func resolveEntry(store *queue.Store, ref string) (queue.Entry, error) {
	ref = strings.TrimSpace(ref)
	entries := store.List()

	if e, ok := store.Get(ref); ok {
		return e, nil
	}
	// Short numbers are positions; longer ones may be ID prefixes.
	if n, err := strconv.Atoi(ref); err == nil && len(ref) <= 4 {
		if n < 1 || n > len(entries) {
			return queue.Entry{}, fmt.Errorf("%w: position %d", queue.ErrNotFound, n)
		}
		return entries[n-1], nil
	}

	var match []queue.Entry
	for _, e := range entries {
		if ref != "" && strings.HasPrefix(e.ID, ref) {
			match = append(match, e)
		}
	}
	switch len(match) {
	case 1:
		return match[0], nil
	case 0:
		return queue.Entry{}, fmt.Errorf("%w: %s", queue.ErrNotFound, ref)
	}
	return queue.Entry{}, fmt.Errorf("id prefix %q is ambiguous", ref)
}

func selectEntries(store *queue.Store, refs []string, pendingOnly bool) ([]queue.Entry, error) {
	if len(refs) == 0 {
		var out []queue.Entry
		for _, e := range store.List() {
			if pendingOnly && e.Status == queue.StatusDone {
				continue
			}
			out = append(out, e)
		}
		return out, nil
	}

	out := make([]queue.Entry, 0, len(refs))
	for _, ref := range refs {
		e, err := resolveEntry(store, ref)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
