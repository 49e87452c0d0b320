package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"

	"github.com/asasingh14/novastream/internal/config"
	"github.com/asasingh14/novastream/internal/queue"
	"github.com/asasingh14/novastream/internal/selector"
)

// Form fields in focus order. The queue panel takes focus index fieldCount.
const (
	fieldURL = iota
	fieldName
	fieldOutput
	fieldEpisodes
	fieldWorkers
	fieldRetries
	fieldThrottle
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Drama URL",
	"Name",
	"Output",
	"Episodes",
	"Workers",
	"Retries",
	"Throttle kbps",
}

func newForm(settings *config.Settings) []textinput.Model {
	placeholders := [fieldCount]string{
		"https://site.example/my-show/",
		"optional, defaults to the URL",
		settings.OutputDir,
		"e.g. 1-3,7",
		"",
		"",
		"0 = unlimited",
	}
	values := [fieldCount]string{
		fieldWorkers:  strconv.Itoa(settings.Workers),
		fieldRetries:  strconv.Itoa(settings.Retries),
		fieldThrottle: strconv.Itoa(settings.Throttle),
	}

	form := make([]textinput.Model, fieldCount)
	for i := range form {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 500
		ti.Width = 50
		ti.SetValue(values[i])
		form[i] = ti
	}
	form[fieldURL].Focus()
	return form
}

func (m *Model) setFocus(i int) {
	m.focus = i
	for j := range m.form {
		if j == i {
			m.form[j].Focus()
		} else {
			m.form[j].Blur()
		}
	}
}

func (m Model) focusCount() int {
	if m.queue == nil {
		return fieldCount
	}
	return fieldCount + 1
}

func (m Model) queueFocused() bool {
	return m.queue != nil && m.focus == fieldCount
}

func (m Model) value(field int) string {
	return strings.TrimSpace(m.form[field].Value())
}

// formEntry validates the form and returns it as a queue entry.
func (m Model) formEntry() (queue.Entry, error) {
	url := m.value(fieldURL)
	if url == "" {
		return queue.Entry{}, errors.New("enter a drama URL")
	}

	episodes := m.value(fieldEpisodes)
	if episodes != "" {
		if _, err := selector.Expand(episodes); err != nil {
			return queue.Entry{}, err
		}
	}

	workers, err := m.intField(fieldWorkers, 1)
	if err != nil {
		return queue.Entry{}, err
	}
	retries, err := m.intField(fieldRetries, 0)
	if err != nil {
		return queue.Entry{}, err
	}
	throttle, err := m.intField(fieldThrottle, 0)
	if err != nil {
		return queue.Entry{}, err
	}

	return queue.Entry{
		URL:         url,
		Name:        m.value(fieldName),
		Output:      m.value(fieldOutput),
		DownloadAll: m.all,
		EpisodeList: episodes,
		Workers:     workers,
		Throttle:    throttle,
		Retries:     retries,
	}, nil
}

func (m Model) intField(field, least int) (int, error) {
	label := strings.ToLower(fieldLabels[field])
	n, err := strconv.Atoi(m.value(field))
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", label)
	}
	if n < least {
		return 0, fmt.Errorf("%s must be at least %d", label, least)
	}
	return n, nil
}

// loadEntry fills the form from a queue entry.
func (m *Model) loadEntry(e queue.Entry) {
	m.form[fieldURL].SetValue(e.URL)
	m.form[fieldName].SetValue(e.Name)
	m.form[fieldOutput].SetValue(e.Output)
	m.form[fieldEpisodes].SetValue(e.EpisodeList)
	m.form[fieldWorkers].SetValue(strconv.Itoa(e.Workers))
	m.form[fieldRetries].SetValue(strconv.Itoa(e.Retries))
	m.form[fieldThrottle].SetValue(strconv.Itoa(e.Throttle))
	m.all = e.DownloadAll
}
