package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/asasingh14/novastream/internal/download"
	"github.com/asasingh14/novastream/internal/queue"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	labelStyle = lipgloss.NewStyle().
			Width(15).
			Foreground(lipgloss.Color("#A8DADC"))

	focusedLabelStyle = labelStyle.
				Bold(true).
				Foreground(lipgloss.Color("#F8B500"))

	dramaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("🎬 NovaStream"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download drama episodes from HLS streams"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StatePrompt:
		b.WriteString(m.viewPrompt())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	for i, field := range m.form {
		style := labelStyle
		if i == m.focus {
			style = focusedLabelStyle
		}
		b.WriteString(style.Render(fieldLabels[i]))
		b.WriteString(field.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Download all episodes (ctrl+a)\n", check(m.all)))
	b.WriteString(fmt.Sprintf("  %s Create playlist (ctrl+p)\n", check(m.playlist)))
	b.WriteString(fmt.Sprintf("  %s Verbose/debug output (ctrl+v)\n", check(m.verbose)))

	if m.queue != nil {
		b.WriteString("\n")
		b.WriteString(m.viewQueue())
	}

	if len(m.logs) > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderLogs())
	}

	return b.String()
}

func (m Model) viewQueue() string {
	var b strings.Builder

	title := fmt.Sprintf("Queue (%d)", m.queue.Len())
	if m.queueFocused() {
		b.WriteString(focusedLabelStyle.UnsetWidth().Render(title))
	} else {
		b.WriteString(infoStyle.Render(title))
	}
	b.WriteString("\n")

	entries := m.queue.List()
	if len(entries) == 0 {
		b.WriteString(dimStyle.Render("  empty, press ctrl+s to add the form"))
		b.WriteString("\n")
		return b.String()
	}

	for i, e := range entries {
		cursor := "  "
		if m.queueFocused() && i == m.selected {
			cursor = "› "
		}
		line := fmt.Sprintf("%s%s %s", cursor, statusMark(e.Status), e.Label())
		if e.DownloadAll {
			line += dimStyle.Render("  all")
		} else if e.EpisodeList != "" {
			line += dimStyle.Render("  " + e.EpisodeList)
		}
		if m.queueFocused() && i == m.selected {
			b.WriteString(dramaStyle.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) viewPrompt() string {
	var b strings.Builder

	b.WriteString(warningStyle.Render("Could not auto-detect episodes. Enter total count:"))
	b.WriteString("\n\n  ")
	b.WriteString(m.prompt.View())
	b.WriteString("\n")
	if m.promptErr != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.promptErr))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	if m.current != "" {
		b.WriteString(dramaStyle.Render(fmt.Sprintf("▶ %s", m.current)))
		b.WriteString("\n\n")
	}

	if m.total == 0 {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render("Looking for episodes..."))
		b.WriteString("\n\n")
	} else {
		// Progress bar
		b.WriteString(m.progress.ViewAs(m.percent()))
		b.WriteString("\n")
		b.WriteString(infoStyle.Render(fmt.Sprintf(
			"Episodes: %d/%d | ✓ %d | ✗ %d",
			m.completed,
			m.total,
			m.succeeded,
			m.failed,
		)))
		b.WriteString("\n\n")
	}

	// Logs
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	lines := []string{"✨ Download Complete!", ""}
	if len(m.results) == 0 {
		lines = append(lines, "Nothing was downloaded.")
	}
	for _, r := range m.results {
		switch {
		case r.Err != nil:
			lines = append(lines, fmt.Sprintf("✗ %s: %v", r.Label, r.Err))
		case r.Summary == nil:
			lines = append(lines, fmt.Sprintf("✗ %s", r.Label))
		case r.Summary.Cancelled:
			lines = append(lines, fmt.Sprintf("! %s: canceled", r.Label))
		default:
			lines = append(lines, fmt.Sprintf("✓ %s: %d succeeded, %d failed, %s",
				r.Label, r.Summary.Succeeded, r.Summary.Failed, humanize.Bytes(uint64(r.Bytes))))
			lines = append(lines, dimStyle.Render("  Files saved in: "+r.Summary.Dir))
		}
	}
	b.WriteString(boxStyle.Render(strings.Join(lines, "\n")))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("❌ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
		b.WriteString("\n\n")
	}
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		if m.queueFocused() {
			return "↑/↓: select • K/J: move • enter: load • s: start • S: start all • x: remove • tab: form"
		}
		return "enter: start • tab: next field • ctrl+s: add to queue • ctrl+a: all • esc: quit"
	case StatePrompt:
		return "enter: confirm • esc: cancel"
	case StateDownloading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new download • q: quit"
	}
	return ""
}

func check(on bool) string {
	if on {
		return "[×]"
	}
	return "[ ]"
}

func statusMark(status string) string {
	switch status {
	case queue.StatusRunning:
		return warningStyle.Render("…")
	case queue.StatusDone:
		return successStyle.Render("✓")
	case queue.StatusFailed:
		return errorStyle.Render("✗")
	}
	return dimStyle.Render("·")
}
