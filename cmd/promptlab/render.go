package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/LiboWorks/promptlab/internal/backend"
	"github.com/LiboWorks/promptlab/pkg/promptlab"
)

const wrapWidth = 100

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	noticeStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("11")).
			Padding(0, 1)

	errorStyle = noticeStyle.
			BorderForeground(lipgloss.Color("9"))
)

var statusIcons = map[promptlab.Status]string{
	promptlab.StatusAwaitingInput: "⏸️",
	promptlab.StatusBlocked:       "🚧",
	promptlab.StatusReady:         "🟢",
	promptlab.StatusExecuted:      "✅",
	promptlab.StatusFailed:        "❌",
}

// printer writes panel results to a terminal, or as plain text.
type printer struct {
	w     io.Writer
	plain bool
	md    *glamour.TermRenderer
}

func newPrinter(w io.Writer, plain bool) (*printer, error) {
	p := &printer{w: w, plain: plain}
	if plain {
		return p, nil
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrapWidth),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	p.md = md
	return p, nil
}

func (p *printer) style(s lipgloss.Style, text string) string {
	if p.plain {
		return text
	}
	return s.Render(text)
}

func panelTitle(r promptlab.PanelResult) string {
	title := fmt.Sprintf("Panel %d", r.Position)
	if r.Name != "" {
		title += " (" + r.Name + ")"
	}
	return title + " · " + backend.Choice(r.Backend).Label()
}

// Panel prints one result. withPrompts also prints the compiled prompts.
func (p *printer) Panel(r promptlab.PanelResult, withPrompts bool) {
	fmt.Fprintf(p.w, "%s %s\n", statusIcons[r.Status], p.style(headerStyle, panelTitle(r)))

	if withPrompts && r.User != "" {
		fmt.Fprintf(p.w, "%s\n%s\n", p.style(labelStyle, "system:"), r.System)
		fmt.Fprintf(p.w, "%s\n%s\n", p.style(labelStyle, "user:"), r.User)
	}

	switch r.Status {
	case promptlab.StatusExecuted:
		fmt.Fprintln(p.w, p.markdown(r.Output))
	case promptlab.StatusFailed:
		fmt.Fprintln(p.w, p.style(errorStyle, fmt.Sprintf("Model call failed: %v", r.Err)))
	case promptlab.StatusBlocked:
		fmt.Fprintln(p.w, p.style(noticeStyle, strings.Join(r.Messages, "\n")))
	case promptlab.StatusAwaitingInput:
		fmt.Fprintln(p.w, p.style(noticeStyle, "Enter both a system and a user message."))
	case promptlab.StatusReady:
		if !withPrompts {
			fmt.Fprintln(p.w, "Ready to run.")
		}
	}
	fmt.Fprintln(p.w)
}

func (p *printer) markdown(text string) string {
	if p.plain || p.md == nil {
		return text
	}
	out, err := p.md.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}
