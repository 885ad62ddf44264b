package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tast-lang/tast/internal/model"
)

var (
	statusStyle = map[string]lipgloss.Style{
		model.StatusPassed:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		model.StatusFailed:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		model.StatusSkipped: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		model.StatusErrored: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	}
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// stepCompleteMsg carries one finished step into the bubbletea program.
type stepCompleteMsg struct{ result model.StepResult }

// progressModel is the interactive live-run view: a bubbles progress bar
// plus a scrolling log of completed steps.
type progressModel struct {
	bar       progress.Model
	total     int
	completed int
	lines     []string
}

func newProgressModel(total int) progressModel {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 30
	return progressModel{bar: bar, total: total}
}

func (m progressModel) Init() tea.Cmd { return nil }

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stepCompleteMsg:
		m.completed++
		m.lines = append(m.lines, formatStepResult(msg.result))
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m progressModel) View() string {
	ratio := 0.0
	if m.total > 0 {
		ratio = float64(m.completed) / float64(m.total)
	}
	label := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d/%d", m.completed, m.total))
	header := lipgloss.JoinHorizontal(lipgloss.Left, label, " ", m.bar.ViewAs(ratio))

	out := header + "\n"
	for _, l := range m.lines {
		out += l + "\n"
	}
	return out
}

// progressReporter drives either the bubbletea live view (interactive) or
// the plain line-based format from the original runner's display module
// (non-interactive), behind one report/finish interface so run.go doesn't
// branch on TTY-ness itself.
type progressReporter struct {
	interactive bool
	out         io.Writer
	program     *tea.Program
	total       int
	index       int
}

func newProgressReporter(cmd *cobra.Command, total int, interactive bool) *progressReporter {
	r := &progressReporter{interactive: interactive, total: total, out: cmd.OutOrStdout()}
	if !interactive {
		return r
	}
	r.program = tea.NewProgram(newProgressModel(total))
	go func() { _, _ = r.program.Run() }()
	return r
}

func (r *progressReporter) report(res model.StepResult) {
	if r.interactive {
		r.program.Send(stepCompleteMsg{result: res})
		return
	}
	r.index++
	fmt.Fprintf(r.out, "  [%d/%d] %s ...\n", r.index, r.total, res.Node)
	fmt.Fprintln(r.out, formatStepResult(res))
}

func (r *progressReporter) finish(summary model.Summary) {
	if r.interactive {
		r.program.Send(tea.QuitMsg{})
		return
	}
	fmt.Fprintln(r.out, formatSummary(summary))
}

func formatStepResult(res model.StepResult) string {
	status := string(res.Status)
	style, ok := statusStyle[res.Status]
	label := fmt.Sprintf("[%s]", status)
	if ok {
		label = style.Render(label)
	}
	line := fmt.Sprintf("  %s %s (%.1fs)", label, res.Node, float64(res.DurationMs)/1000)

	switch res.Status {
	case model.StatusFailed, model.StatusErrored:
		if res.Error != nil {
			line += "\n" + errorStyle.Render("         → "+res.Error.Message)
		}
	case model.StatusSkipped:
		line += "\n" + errorStyle.Render("         → dependency failed")
	}
	return line
}

func formatSummary(s model.Summary) string {
	var parts []string
	if s.Passed > 0 {
		parts = append(parts, fmt.Sprintf("%d passed", s.Passed))
	}
	if s.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", s.Failed))
	}
	if s.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", s.Skipped))
	}
	if s.Errors > 0 {
		parts = append(parts, fmt.Sprintf("%d errors", s.Errors))
	}
	if len(parts) == 0 {
		parts = append(parts, "0 tests")
	}

	joined := parts[0]
	for _, p := range parts[1:] {
		joined += ", " + p
	}
	return fmt.Sprintf("\nResults: %s", joined)
}
