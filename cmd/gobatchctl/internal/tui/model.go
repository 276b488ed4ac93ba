package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mrz1836/gobatch"
)

// stepRow tracks the last known progress of a single step for rendering.
type stepRow struct {
	name     string
	status   gobatch.Status
	percent  float64
	duration time.Duration
}

// Model is the Bubble Tea model for "gobatchctl run --watch". It is fed
// entirely by gobatch.ProgressEvent values delivered over a channel — it
// never reaches back into the engine or the job being run.
type Model struct {
	rows   []stepRow
	events <-chan gobatch.ProgressEvent
	done   <-chan *gobatch.JobExecution
	result *gobatch.JobExecution
	bar    interface{ ViewAs(float64) string }
	width  int
}

// New builds a watch-mode Model. events must be closed by the caller once
// the job finishes; done must receive exactly one JobExecution first.
func New(events <-chan gobatch.ProgressEvent, done <-chan *gobatch.JobExecution) Model {
	b := newBar()
	return Model{
		events: events,
		done:   done,
		bar:    &b,
		width:  80,
	}
}

type doneMsg struct{ exec *gobatch.JobExecution }

func waitForEvent(events <-chan gobatch.ProgressEvent) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-events
		if !ok {
			return nil
		}
		return evt
	}
}

func waitForDone(done <-chan *gobatch.JobExecution) tea.Cmd {
	return func() tea.Msg {
		return doneMsg{exec: <-done}
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), waitForDone(m.done))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil

	case gobatch.ProgressEvent:
		m.applyEvent(msg)
		return m, waitForEvent(m.events)

	case doneMsg:
		m.result = msg.exec
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) applyEvent(evt gobatch.ProgressEvent) {
	for len(m.rows) <= evt.StepIndex {
		m.rows = append(m.rows, stepRow{})
	}
	row := &m.rows[evt.StepIndex]
	row.name = evt.StepName

	switch evt.Type {
	case "start":
		row.status = gobatch.StatusStarted
		row.percent = 0
	case "complete":
		row.status = evt.Status
		row.percent = 1
		row.duration = time.Duration(evt.DurationMs) * time.Millisecond
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var sb strings.Builder
	for _, row := range m.rows {
		if row.name == "" {
			continue
		}
		bar := m.bar.ViewAs(row.percent)
		sb.WriteString(statusStyle(row.status).Render(statusGlyph(row.status)))
		sb.WriteString(" ")
		sb.WriteString(stepNameStyle.Render(row.name))
		sb.WriteString(" ")
		sb.WriteString(bar)
		if row.status != gobatch.StatusStarted && row.duration > 0 {
			fmt.Fprintf(&sb, " %s", row.duration.Round(time.Millisecond))
		}
		sb.WriteString("\n")
	}

	if m.result != nil {
		fmt.Fprintf(&sb, "\njob %s\n", m.result.Status)
	} else {
		sb.WriteString("\npress ctrl+c to cancel\n")
	}
	return sb.String()
}

// Result returns the final JobExecution once the program has quit, or nil
// if it quit before the job finished (e.g. ctrl+c).
func (m Model) Result() *gobatch.JobExecution {
	return m.result
}

func statusGlyph(s gobatch.Status) string {
	switch s {
	case gobatch.StatusCompleted:
		return "✓"
	case gobatch.StatusFailed:
		return "✗"
	case gobatch.StatusStarted:
		return "…"
	default:
		return " "
	}
}

func statusStyle(s gobatch.Status) interface{ Render(...string) string } {
	switch s {
	case gobatch.StatusCompleted:
		return completedStyle
	case gobatch.StatusFailed:
		return failedStyle
	default:
		return runningStyle
	}
}
