package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/asasingh14/novastream/internal/download"
)

// reporter prints progress events and, on a terminal, an episode bar.
type reporter struct {
	out     io.Writer
	verbose bool
	tty     bool

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newReporter(out io.Writer, verbose bool) *reporter {
	return &reporter{out: out, verbose: verbose, tty: isTerminal(out)}
}

func (r *reporter) event(event download.ProgressEvent) {
	if event.Level == download.LevelVerbose && !r.verbose {
		return
	}

	prefix := ""
	switch event.Level {
	case download.LevelError:
		prefix = "❌ "
	case download.LevelWarning:
		prefix = "⚠️  "
	case download.LevelSuccess:
		prefix = "✅ "
	case download.LevelInfo:
		prefix = "ℹ️  "
	default:
		prefix = "   "
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar != nil {
		_ = r.bar.Clear()
	}
	fmt.Fprintln(r.out, prefix+event.Message)
	if r.bar != nil {
		_ = r.bar.RenderBlank()
	}
}

// track polls m for episode counts and draws a progress bar until the
// returned stop function is called. It is a no-op off a terminal.
func (r *reporter) track(m *download.Manager) (stop func()) {
	if !r.tty {
		return func() {}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				completed, _, _, total := m.GetProgress()
				r.update(int(completed), int(total))
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.bar != nil {
			_ = r.bar.Finish()
			fmt.Fprintln(r.out)
			r.bar = nil
		}
	}
}

func (r *reporter) update(completed, total int) {
	if total <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar == nil {
		r.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(r.out),
			progressbar.OptionSetDescription("Episodes"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetElapsedTime(true),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionFullWidth(),
		)
	}
	_ = r.bar.Set(completed)
}

func isTerminal(w any) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// prompter answers the episode-count question. A fixed total wins;
// otherwise the user is asked on a terminal and the question is declined
// everywhere else.
type prompter struct {
	total int
	stdin *os.File
}

func newPrompter(total int) prompter {
	return prompter{total: total, stdin: os.Stdin}
}

func (p prompter) PromptTotal(ctx context.Context) (int, bool, error) {
	if p.total > 0 {
		return p.total, true, nil
	}
	if p.stdin == nil || !isTerminal(p.stdin) {
		return 0, false, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	prompt := promptui.Prompt{
		Label:    "Could not auto-detect episodes. Enter total count",
		Default:  "1",
		Validate: validateTotal,
	}
	value, err := prompt.Run()
	switch {
	case errors.Is(err, promptui.ErrInterrupt), errors.Is(err, promptui.ErrEOF), errors.Is(err, promptui.ErrAbort):
		return 0, false, nil
	case err != nil:
		return 0, false, err
	}

	n, _ := strconv.Atoi(strings.TrimSpace(value))
	return n, true, nil
}

func validateTotal(value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 1 {
		return errors.New("enter a whole number of at least 1")
	}
	return nil
}
