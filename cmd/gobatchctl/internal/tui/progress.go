// Package tui renders a live progress view for "gobatchctl run --watch",
// one bar per step, driven entirely by a gobatch.ProgressCallback.
package tui

import (
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	stepNameStyle  = lipgloss.NewStyle().Bold(true).Width(24)
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	runningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

//nolint:gochecknoglobals // guards the one-time lipgloss.SetColorProfile call below
var checkNoColorOnce sync.Once

// checkNoColor forces lipgloss down to its ASCII profile when the terminal
// doesn't support color, the same call atlas's internal/tui/styles.go
// makes at the start of styled commands.
func checkNoColor() {
	checkNoColorOnce.Do(func() {
		if !hasColorSupport() {
			lipgloss.SetColorProfile(termenv.Ascii)
		}
	})
}

// hasColorSupport mirrors the NO_COLOR convention: disable styling when
// the variable is set, regardless of value, or when TERM=dumb.
func hasColorSupport() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// newBar builds the shared progress-bar renderer used for every step row.
// ViewAs is a pure render call — it does not require forwarding bubbletea
// tick messages back into the bar, since this view never animates a fill,
// it only ever jumps straight from 0% to 100% on step completion.
func newBar() progress.Model {
	checkNoColor()
	if hasColorSupport() {
		return progress.New(progress.WithScaledGradient("#0087AF", "#00D7FF"))
	}
	return progress.New(progress.WithSolidFill("#808080"))
}
