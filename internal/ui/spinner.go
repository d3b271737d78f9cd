package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Spinner animates an indeterminate step such as connecting to MySQL.
type Spinner struct {
	ui    *UI
	label string

	once sync.Once
	done chan struct{}
	wg   sync.WaitGroup
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewSpinner creates a spinner and starts it.
func (u *UI) NewSpinner(label string) *Spinner {
	s := &Spinner{ui: u, label: label, done: make(chan struct{})}

	if !u.shouldStyle() {
		fmt.Fprintf(u.out, "%s...", label)
		return s
	}

	s.wg.Add(1)
	go s.animate()
	return s
}

func (s *Spinner) animate() {
	defer s.wg.Done()
	style := lipgloss.NewStyle().Foreground(ColorPrimary)
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for frame := 0; ; frame = (frame + 1) % len(spinnerFrames) {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			fmt.Fprintf(s.ui.out, "\r%s %s...", style.Render(spinnerFrames[frame]), s.label)
		}
	}
}

func (s *Spinner) stop() {
	s.once.Do(func() { close(s.done) })
	s.wg.Wait()
}

// Success stops the spinner and shows a success message.
func (s *Spinner) Success(msg string) {
	s.stop()
	if !s.ui.shouldStyle() {
		fmt.Fprintf(s.ui.out, " %s\n", msg)
		return
	}
	fmt.Fprintf(s.ui.out, "\r\033[K%s %s... %s\n", StyleSuccess.Render(SymbolSuccess), s.label, msg)
}

// Error stops the spinner and shows an error message.
func (s *Spinner) Error(msg string) {
	s.stop()
	if !s.ui.shouldStyle() {
		fmt.Fprintf(s.ui.out, " %s\n", msg)
		return
	}
	fmt.Fprintf(s.ui.out, "\r\033[K%s %s... %s\n", StyleError.Render(SymbolError), s.label, StyleError.Render(msg))
}
