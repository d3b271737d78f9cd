package ui

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders determinate progress, e.g. rows seeded per table.
type ProgressBar struct {
	ui    *UI
	bar   progress.Model
	label string
	total int64

	mu      sync.Mutex
	current int64
}

// NewProgressBar creates a new progress bar.
func (u *UI) NewProgressBar(label string, total int64) *ProgressBar {
	return &ProgressBar{
		ui:    u,
		label: label,
		total: total,
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		),
	}
}

// Add advances progress by n.
func (p *ProgressBar) Add(n int64) {
	p.mu.Lock()
	p.current += n
	current := p.current
	p.mu.Unlock()

	p.render(current)
}

// Current returns the progress so far.
func (p *ProgressBar) Current() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *ProgressBar) render(current int64) {
	if !p.ui.shouldStyle() {
		// Plain output only reports the final state
		return
	}

	pct := 1.0
	if p.total > 0 {
		pct = min(float64(current)/float64(p.total), 1)
	}

	labelStyle := lipgloss.NewStyle().Width(18)
	countStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	fmt.Fprintf(p.ui.out, "\r\033[K  %s %s %s",
		labelStyle.Render(p.label),
		p.bar.ViewAs(pct),
		countStyle.Render(fmt.Sprintf("%d/%d", current, p.total)),
	)
}

// Complete finishes the progress bar with a success indicator.
func (p *ProgressBar) Complete() {
	if !p.ui.shouldStyle() {
		fmt.Fprintf(p.ui.out, "%s: %d/%d done\n", p.label, p.Current(), p.total)
		return
	}

	fmt.Fprintf(p.ui.out, "\r\033[K  %s %s %s\n",
		StyleSuccess.Render(SymbolSuccess),
		lipgloss.NewStyle().Width(18).Render(p.label),
		StyleSuccess.Render(fmt.Sprintf("%d/%d complete", p.total, p.total)),
	)
}

// Fail finishes the progress bar with an error indicator.
func (p *ProgressBar) Fail(err error) {
	if !p.ui.shouldStyle() {
		fmt.Fprintf(p.ui.out, "%s: FAILED: %v\n", p.label, err)
		return
	}

	fmt.Fprintf(p.ui.out, "\r\033[K  %s %s %s\n",
		StyleError.Render(SymbolError),
		lipgloss.NewStyle().Width(18).Render(p.label),
		StyleError.Render(err.Error()),
	)
}
