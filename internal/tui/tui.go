// Package tui provides a Bubble Tea terminal user interface for NovaStream.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/asasingh14/novastream/internal/config"
	"github.com/asasingh14/novastream/internal/download"
	"github.com/asasingh14/novastream/internal/queue"
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StatePrompt
	StateDownloading
	StateComplete
	StateError
)

// maxLogs is how many progress lines stay on screen.
const maxLogs = 12

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// Options configures the TUI.
type Options struct {
	Settings *config.Settings
	// Queue backs the queue panel. Nil hides the panel.
	Queue     *queue.Store
	NewRunner RunnerFactory
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state    State
	form     []textinput.Model
	focus    int
	prompt   textinput.Model
	spinner  spinner.Model
	progress progress.Model
	settings *config.Settings
	logs     []LogEntry
	err      error

	queue    *queue.Store
	selected int

	// Pending episode-count question
	promptReply chan<- promptReply
	promptErr   string

	// Active run
	newRunner  RunnerFactory
	runner     Runner
	bridge     *bridge
	ctx        context.Context
	cancel     context.CancelFunc
	cancelling bool
	current    string
	results    []JobResult

	// Episode progress
	completed int32
	succeeded int32
	failed    int32
	total     int32

	// Options
	all      bool
	playlist bool
	verbose  bool

	width  int
	height int
}

// NewModel creates a new TUI model.
func NewModel(opts Options) Model {
	settings := opts.Settings
	if settings == nil {
		settings = config.DefaultSettings()
	}

	pi := textinput.New()
	pi.CharLimit = 6
	pi.Width = 10

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	return Model{
		state:     StateInput,
		form:      newForm(settings),
		prompt:    pi,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		logs:      make([]LogEntry, 0),
		queue:     opts.Queue,
		newRunner: opts.NewRunner,
		bridge:    newBridge(),
		playlist:  settings.CreatePlaylist,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.bridge.wait())
}

// Message types
type (
	// ProgressMsg is sent when download progress updates.
	ProgressMsg struct {
		Event download.ProgressEvent
	}

	// PromptMsg asks the user for the total episode count.
	PromptMsg struct {
		reply chan<- promptReply
	}

	// JobStartMsg is sent when a drama starts downloading.
	JobStartMsg struct {
		Label string
		Index int
		Count int
	}

	// QueueChangedMsg is sent after a queue entry changes status.
	QueueChangedMsg struct{}

	// DownloadDoneMsg is sent when every job of a run has finished.
	DownloadDoneMsg struct {
		Results []JobResult
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case bridgedMsg:
		next, cmd := m.Update(msg.msg)
		return next, tea.Batch(cmd, m.bridge.wait())

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.stopRun()
			return m, tea.Quit
		}
		switch m.state {
		case StateInput:
			return m.updateInput(msg)
		case StatePrompt:
			return m.updatePrompt(msg)
		case StateDownloading:
			if msg.String() == "esc" && !m.cancelling {
				m.stopRun()
				m.addLog(download.ProgressEvent{Message: "Canceling...", Level: download.LevelWarning})
			}
			return m, nil
		case StateComplete, StateError:
			switch msg.String() {
			case "q", "esc":
				return m, tea.Quit
			case "r":
				m.reset()
			}
			return m, nil
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		m.addLog(msg.Event)

	case PromptMsg:
		if m.cancelling {
			msg.reply <- promptReply{}
			return m, nil
		}
		m.state = StatePrompt
		m.promptReply = msg.reply
		m.promptErr = ""
		m.prompt.SetValue("1")
		m.prompt.CursorEnd()
		m.prompt.Focus()
		return m, textinput.Blink

	case JobStartMsg:
		m.current = msg.Label
		if msg.Count > 1 {
			m.current = fmt.Sprintf("%s (%d/%d)", msg.Label, msg.Index, msg.Count)
		}
		m.completed, m.succeeded, m.failed, m.total = 0, 0, 0, 0
		cmds = append(cmds, m.progress.SetPercent(0))

	case QueueChangedMsg:
		m.clampSelection()

	case DownloadDoneMsg:
		m.finishRun(msg.Results)

	case TickMsg:
		if m.runner != nil && (m.state == StateDownloading || m.state == StatePrompt) {
			m.completed, m.succeeded, m.failed, m.total = m.runner.GetProgress()
			cmds = append(cmds, m.progress.SetPercent(m.percent()), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "tab":
		m.setFocus((m.focus + 1) % m.focusCount())
		return m, nil
	case "shift+tab":
		m.setFocus((m.focus + m.focusCount() - 1) % m.focusCount())
		return m, nil
	case "ctrl+a":
		m.all = !m.all
		return m, nil
	case "ctrl+p":
		m.playlist = !m.playlist
		return m, nil
	case "ctrl+v":
		m.verbose = !m.verbose
		return m, nil
	case "ctrl+s":
		m.addToQueue()
		return m, nil
	}

	if m.queueFocused() {
		return m.updateQueue(msg)
	}
	if msg.String() == "enter" {
		return m.startForm()
	}

	var cmd tea.Cmd
	m.form[m.focus], cmd = m.form[m.focus].Update(msg)
	return m, cmd
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		n, err := strconv.Atoi(strings.TrimSpace(m.prompt.Value()))
		if err != nil || n < 1 {
			m.promptErr = "Enter a whole number of at least 1"
			return m, nil
		}
		m.answerPrompt(n, true)
		return m, nil
	case "esc":
		m.answerPrompt(0, false)
		return m, nil
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m *Model) answerPrompt(total int, ok bool) {
	if m.promptReply != nil {
		m.promptReply <- promptReply{total: total, ok: ok}
		m.promptReply = nil
	}
	m.prompt.Blur()
	m.promptErr = ""
	m.state = StateDownloading
}

// startForm downloads the drama described by the form.
func (m Model) startForm() (tea.Model, tea.Cmd) {
	entry, err := m.formEntry()
	if err != nil {
		m.addLog(download.ProgressEvent{Message: err.Error(), Level: download.LevelError})
		return m, nil
	}
	return m.startRun([]job{m.jobFor(entry, "")})
}

func (m Model) jobFor(e queue.Entry, id string) job {
	req := e.Request(m.settings)
	req.CleanupOnCancel = true
	return job{entryID: id, label: e.Label(), req: req}
}

func (m Model) startRun(jobs []job) (tea.Model, tea.Cmd) {
	if m.newRunner == nil {
		m.addLog(download.ProgressEvent{Message: "No downloader configured", Level: download.LevelError})
		return m, nil
	}

	settings := *m.settings
	settings.CreatePlaylist = m.playlist

	b := m.bridge
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.runner = m.newRunner(&settings, prompter{bridge: b}, func(event download.ProgressEvent) {
		b.send(ProgressMsg{Event: event})
	})

	m.state = StateDownloading
	m.logs = m.logs[:0]
	m.results = nil
	m.err = nil
	m.cancelling = false
	m.current = ""
	m.completed, m.succeeded, m.failed, m.total = 0, 0, 0, 0

	return m, tea.Batch(
		execute(m.ctx, m.runner, m.queue, jobs, b),
		m.tickProgress(),
		m.spinner.Tick,
	)
}

// stopRun cancels the active run: pending prompts are declined, running
// ffmpeg groups are killed and queued jobs are skipped.
//
// The runner is cancelled before the prompt is answered so the run sees a
// cancellation rather than a declined prompt.
func (m *Model) stopRun() {
	if m.runner != nil && !m.cancelling {
		m.cancelling = true
		m.runner.Cancel()
	}
	if m.cancel != nil {
		m.cancel()
	}
	if m.state == StatePrompt {
		m.answerPrompt(0, false)
	}
}

func (m *Model) finishRun(results []JobResult) {
	if m.runner != nil {
		m.completed, m.succeeded, m.failed, m.total = m.runner.GetProgress()
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.runner = nil
	m.results = results
	m.clampSelection()

	if len(results) == 1 && results[0].Err != nil {
		m.state = StateError
		m.err = results[0].Err
		if errors.Is(m.err, download.ErrPromptDeclined) || errors.Is(m.err, context.Canceled) {
			m.err = errors.New("download canceled by user")
		}
		return
	}
	m.state = StateComplete
}

func (m *Model) reset() {
	m.state = StateInput
	m.logs = nil
	m.results = nil
	m.err = nil
	m.current = ""
	m.cancelling = false
	m.completed, m.succeeded, m.failed, m.total = 0, 0, 0, 0
	m.setFocus(fieldURL)
}

func (m *Model) addLog(event download.ProgressEvent) {
	// Filter verbose messages if not in verbose mode
	if event.Level == download.LevelVerbose && !m.verbose {
		return
	}
	m.logs = append(m.logs, LogEntry{Message: event.Message, Level: event.Level})
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m Model) percent() float64 {
	if m.total <= 0 {
		return 0
	}
	return float64(m.completed) / float64(m.total)
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Run starts the TUI application.
func Run(opts Options) error {
	p := tea.NewProgram(NewModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
