package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/asasingh14/novastream/internal/config"
	"github.com/asasingh14/novastream/internal/download"
	ioutils "github.com/asasingh14/novastream/internal/io"
	"github.com/asasingh14/novastream/internal/queue"
)

// Runner runs and cancels drama downloads. download.Manager implements it.
type Runner interface {
	Run(ctx context.Context, req download.Request) (*download.Summary, error)
	Cancel()
	GetProgress() (completed, succeeded, failed, total int32)
}

// RunnerFactory builds a Runner for one session. Episode-count questions go
// to prompter and events to onProgress.
type RunnerFactory func(settings *config.Settings, prompter download.Prompter, onProgress func(download.ProgressEvent)) Runner

// ManagerFactory returns a RunnerFactory backed by download.Manager.
func ManagerFactory(deps download.Deps) RunnerFactory {
	return func(settings *config.Settings, prompter download.Prompter, onProgress func(download.ProgressEvent)) Runner {
		return download.NewManager(settings, deps, prompter, onProgress)
	}
}

// job is one drama to download, optionally tied to a queue entry.
type job struct {
	entryID string
	label   string
	req     download.Request
}

// JobResult is the outcome of one job.
type JobResult struct {
	Label   string
	Summary *download.Summary
	Bytes   int64
	Err     error
}

// bridgedMsg wraps messages produced off the UI goroutine.
type bridgedMsg struct {
	msg tea.Msg
}

// bridge marshals messages from download goroutines onto the Bubble Tea
// update loop. Exactly one wait command is outstanding at a time.
type bridge struct {
	msgs chan tea.Msg
}

func newBridge() *bridge {
	return &bridge{msgs: make(chan tea.Msg, 256)}
}

func (b *bridge) send(msg tea.Msg) {
	b.msgs <- bridgedMsg{msg: msg}
}

func (b *bridge) wait() tea.Cmd {
	return func() tea.Msg {
		return <-b.msgs
	}
}

type promptReply struct {
	total int
	ok    bool
}

// prompter asks the UI for the total episode count and blocks until the
// user answers or the run is cancelled.
type prompter struct {
	bridge *bridge
}

func (p prompter) PromptTotal(ctx context.Context) (int, bool, error) {
	reply := make(chan promptReply, 1)
	p.bridge.send(PromptMsg{reply: reply})

	select {
	case r := <-reply:
		return r.total, r.ok, nil
	case <-ctx.Done():
		return 0, false, ctx.Err()
	}
}

// execute runs jobs one after another, marking queue entries as it goes.
// A cancelled run stops the sequence.
func execute(ctx context.Context, runner Runner, store *queue.Store, jobs []job, b *bridge) tea.Cmd {
	return func() tea.Msg {
		results := make([]JobResult, 0, len(jobs))

		for i, j := range jobs {
			if ctx.Err() != nil {
				break
			}
			setStatus(store, j.entryID, queue.StatusRunning, b)
			b.send(JobStartMsg{Label: j.label, Index: i + 1, Count: len(jobs)})

			summary, err := runner.Run(ctx, j.req)
			result := JobResult{Label: j.label, Summary: summary, Err: err}
			if summary != nil {
				result.Bytes, _ = ioutils.DirSize(summary.Dir)
			}
			results = append(results, result)

			status := queue.StatusDone
			if err != nil || summary == nil || summary.Failed > 0 || summary.Cancelled {
				status = queue.StatusFailed
			}
			setStatus(store, j.entryID, status, b)

			if summary != nil && summary.Cancelled {
				break
			}
		}
		return DownloadDoneMsg{Results: results}
	}
}

func setStatus(store *queue.Store, id, status string, b *bridge) {
	if store == nil || id == "" {
		return
	}
	if err := store.SetStatus(id, status); err != nil {
		b.send(ProgressMsg{Event: download.ProgressEvent{
			Message: fmt.Sprintf("Queue update failed: %v", err),
			Level:   download.LevelWarning,
		}})
		return
	}
	b.send(QueueChangedMsg{})
}
