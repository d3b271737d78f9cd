// Package ui provides styled terminal output for the assistant CLI.
// It uses lipgloss for styling with automatic fallback to plain text when
// output is not a terminal or NO_COLOR is set.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// UI holds the terminal state and provides styled output methods.
type UI struct {
	IsTTY   bool
	Width   int
	NoColor bool

	out io.Writer
}

// KV represents a key-value pair for summary displays.
type KV struct {
	Key   string
	Value string
}

// New creates a UI bound to stdout with TTY detection.
func New() *UI {
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	width := 80
	if isTTY {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
	}

	return &UI{
		IsTTY:   isTTY,
		Width:   width,
		NoColor: os.Getenv("NO_COLOR") != "",
		out:     os.Stdout,
	}
}

// NewPlain creates an unstyled UI writing to w.
func NewPlain(w io.Writer) *UI {
	return &UI{Width: 80, NoColor: true, out: w}
}

// SetNoColor disables colors and animations.
func (u *UI) SetNoColor(noColor bool) {
	u.NoColor = noColor
}

// Out returns the writer the UI renders to.
func (u *UI) Out() io.Writer {
	return u.out
}

// Println writes a rendered line.
func (u *UI) Println(s string) {
	fmt.Fprintln(u.out, s)
}

func (u *UI) shouldStyle() bool {
	return u.IsTTY && !u.NoColor
}

// Header renders a bordered header box.
func (u *UI) Header(title string) string {
	if !u.shouldStyle() {
		return fmt.Sprintf("=== %s ===", title)
	}

	return lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(0, 2).
		Render(title)
}

// KeyValue renders a styled key-value pair.
func (u *UI) KeyValue(key, value string) string {
	if !u.shouldStyle() {
		return fmt.Sprintf("%-12s %s", key+":", value)
	}

	keyStyle := lipgloss.NewStyle().Foreground(ColorMuted).Width(14)
	return "  " + keyStyle.Render(key) + " " + lipgloss.NewStyle().Bold(true).Render(value)
}

// Success renders a success message with a green checkmark.
func (u *UI) Success(msg string) string {
	if !u.shouldStyle() {
		return "[OK] " + msg
	}
	return StyleSuccess.Render(SymbolSuccess+" ") + msg
}

// Error renders an error message with a red X.
func (u *UI) Error(msg string) string {
	if !u.shouldStyle() {
		return "[FAILED] " + msg
	}
	return StyleError.Render(SymbolError + " " + msg)
}

// Warning renders a warning message.
func (u *UI) Warning(msg string) string {
	if !u.shouldStyle() {
		return "[WARN] " + msg
	}
	return StyleWarning.Render(SymbolWarning + " " + msg)
}

// Muted renders dim text.
func (u *UI) Muted(msg string) string {
	if !u.shouldStyle() {
		return msg
	}
	return StyleMuted.Render(msg)
}

// Prompt renders the chat input prompt.
func (u *UI) Prompt() string {
	if !u.shouldStyle() {
		return "you> "
	}
	return StylePrompt.Render("you ") + StyleMuted.Render(SymbolPrompt+" ")
}

// Reply renders an assistant reply. Multi-line replies are indented under
// the speaker label.
func (u *UI) Reply(text string) string {
	lines := strings.Split(text, "\n")
	if !u.shouldStyle() {
		return "assistant> " + strings.Join(lines, "\n           ")
	}

	label := StyleAssistant.Render("assistant ")
	body := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(ColorPrimary).
		PaddingLeft(1).
		Width(max(u.Width-4, 20)).
		Render(strings.Join(lines, "\n"))
	return label + "\n" + body
}

// SummaryBox renders a bordered summary section.
func (u *UI) SummaryBox(title string, items []KV) string {
	if !u.shouldStyle() {
		var sb strings.Builder
		fmt.Fprintf(&sb, "\n=== %s ===\n", title)
		for _, item := range items {
			fmt.Fprintf(&sb, "%-18s %s\n", item.Key+":", item.Value)
		}
		return sb.String()
	}

	maxKeyWidth := 0
	for _, item := range items {
		maxKeyWidth = max(maxKeyWidth, len(item.Key))
	}

	keyStyle := lipgloss.NewStyle().Foreground(ColorMuted).Width(maxKeyWidth + 2)
	valueStyle := lipgloss.NewStyle().Bold(true)

	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, "  "+keyStyle.Render(item.Key)+" "+valueStyle.Render(item.Value))
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess)
	boxStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorSuccess).
		Padding(0, 1)

	return "\n" + titleStyle.Render("  "+title) + "\n" + boxStyle.Render(strings.Join(lines, "\n"))
}

// Status represents the status of an operation.
type Status int

const (
	StatusNone Status = iota
	StatusPending
	StatusSuccess
	StatusError
)

// TableRow renders a name/value row with a status symbol.
func (u *UI) TableRow(name, value string, status Status) string {
	if !u.shouldStyle() {
		prefix := ""
		if status == StatusError {
			prefix = "FAILED: "
		}
		return fmt.Sprintf("  %-18s %s%s", name+":", prefix, value)
	}

	nameStyle := lipgloss.NewStyle().Width(18)
	symbol, styled := " ", value
	switch status {
	case StatusSuccess:
		symbol = StyleSuccess.Render(SymbolSuccess)
	case StatusError:
		symbol = StyleError.Render(SymbolError)
		styled = StyleError.Render(value)
	case StatusPending:
		symbol = StyleMuted.Render(SymbolPending)
		styled = StyleMuted.Render(value)
	}

	return fmt.Sprintf("  %s %s %s", symbol, nameStyle.Render(name), styled)
}
