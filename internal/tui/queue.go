package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/asasingh14/novastream/internal/download"
	"github.com/asasingh14/novastream/internal/queue"
)

// updateQueue handles keys while the queue panel has focus.
func (m Model) updateQueue(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entries := m.queue.List()

	switch msg.String() {
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(entries)-1 {
			m.selected++
		}
	case "shift+up", "K":
		m.moveSelected(-1)
	case "shift+down", "J":
		m.moveSelected(1)
	case "x", "delete":
		m.removeSelected()
	case "enter", "l":
		if e, ok := m.selectedEntry(); ok {
			m.loadEntry(e)
			m.setFocus(fieldURL)
			m.addLog(download.ProgressEvent{Message: fmt.Sprintf("Loaded %s into the form", e.Label()), Level: download.LevelInfo})
		}
	case "s":
		if e, ok := m.selectedEntry(); ok {
			return m.startRun([]job{m.jobFor(e, e.ID)})
		}
	case "S":
		if len(entries) == 0 {
			m.addLog(download.ProgressEvent{Message: "Queue is empty", Level: download.LevelWarning})
			return m, nil
		}
		jobs := make([]job, len(entries))
		for i, e := range entries {
			jobs[i] = m.jobFor(e, e.ID)
		}
		return m.startRun(jobs)
	}
	return m, nil
}

// addToQueue appends the form to the queue.
func (m *Model) addToQueue() {
	if m.queue == nil {
		return
	}
	entry, err := m.formEntry()
	if err != nil {
		m.addLog(download.ProgressEvent{Message: err.Error(), Level: download.LevelError})
		return
	}
	added, err := m.queue.Add(entry)
	if err != nil {
		m.addLog(download.ProgressEvent{Message: fmt.Sprintf("Could not queue: %v", err), Level: download.LevelError})
		return
	}
	m.selected = m.queue.Len() - 1
	m.addLog(download.ProgressEvent{Message: fmt.Sprintf("Queued %s", added.Label()), Level: download.LevelSuccess})
}

func (m *Model) moveSelected(offset int) {
	e, ok := m.selectedEntry()
	if !ok {
		return
	}
	idx, err := m.queue.Move(e.ID, offset)
	if err != nil {
		m.addLog(download.ProgressEvent{Message: fmt.Sprintf("Could not move: %v", err), Level: download.LevelError})
		return
	}
	m.selected = idx
}

func (m *Model) removeSelected() {
	e, ok := m.selectedEntry()
	if !ok {
		return
	}
	if err := m.queue.Remove(e.ID); err != nil {
		m.addLog(download.ProgressEvent{Message: fmt.Sprintf("Could not remove: %v", err), Level: download.LevelError})
		return
	}
	m.clampSelection()
}

func (m Model) selectedEntry() (queue.Entry, bool) {
	if m.queue == nil {
		return queue.Entry{}, false
	}
	entries := m.queue.List()
	if m.selected < 0 || m.selected >= len(entries) {
		return queue.Entry{}, false
	}
	return entries[m.selected], true
}

func (m *Model) clampSelection() {
	if m.queue == nil {
		m.selected = 0
		return
	}
	m.selected = min(m.selected, m.queue.Len()-1)
	m.selected = max(m.selected, 0)
}
