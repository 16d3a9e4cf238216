package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"taskplane/internal/execution"
)

// Report renders task outcomes once they are known.
type Report struct {
	out   io.Writer
	theme Theme
}

// NewReport creates a report writing to out.
func NewReport(out io.Writer) *Report {
	return &Report{out: out, theme: NewTheme(out)}
}

// Task writes the outcome of a single task.
func (r *Report) Task(result execution.TaskResult) {
	if text := r.renderTask(result); text != "" {
		fmt.Fprintln(r.out, text)
	}
}

// Session writes a one-line-per-task summary. Nothing is written for a single task, whose
// outcome was already reported.
func (r *Report) Session(result execution.SessionResult) {
	if len(result.Tasks) < 2 {
		return
	}

	lines := []string{r.theme.Header.Render("Summary")}
	for _, t := range result.Tasks {
		lines = append(lines, r.summaryLine(t))
	}
	fmt.Fprintln(r.out, lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (r *Report) renderTask(result execution.TaskResult) string {
	if result.Skipped {
		return ""
	}

	var blocks []string
	name := r.theme.Task.Render(result.Task)

	switch {
	case result.Interrupted:
		blocks = append(blocks, fmt.Sprintf("%s %s %s", r.theme.Warning.Render("Task"), name, r.theme.Warning.Render("was interrupted.")))
	case result.Failed:
		blocks = append(blocks, lipgloss.JoinVertical(lipgloss.Left,
			fmt.Sprintf("%s %s %s", r.theme.Failed.Render("✗ Task"), name, r.theme.Failed.Render("failed:")),
			"  "+result.FailureMessage,
		))
	default:
		style := r.theme.OK
		icon := "✓"
		if result.ExitCode != 0 {
			style = r.theme.Failed
			icon = "✗"
		}
		blocks = append(blocks, fmt.Sprintf("%s %s %s",
			style.Render(icon+" Task"),
			name,
			style.Render(fmt.Sprintf("finished with exit code %d in %s.", result.ExitCode, formatDuration(result.Duration))),
		))
	}

	if result.CleanupFailed {
		blocks = append(blocks, r.theme.Failed.Render("Cleanup did not complete successfully."))
	}

	if len(result.ManualCleanup) > 0 {
		var header string
		switch {
		case result.CleanupFailed:
			header = "Some resources could not be removed automatically. Run the following to remove them:"
		case result.Failed || result.Interrupted:
			header = "Resources were left in place after the failure so you can investigate. Run the following to remove them:"
		default:
			header = "Resources were left in place as requested. Run the following to remove them:"
		}

		lines := []string{r.theme.Warning.Render(header)}
		for _, instruction := range result.ManualCleanup {
			lines = append(lines, r.theme.Command.Render(instruction.Text))
		}
		blocks = append(blocks, lipgloss.JoinVertical(lipgloss.Left, lines...))
	}

	return strings.Join(blocks, "\n\n")
}

func (r *Report) summaryLine(t execution.TaskResult) string {
	var status string
	switch {
	case t.Skipped:
		status = r.theme.Dim.Render("skipped")
	case t.Code() == 0:
		status = r.theme.OK.Render("ok")
	default:
		status = r.theme.Failed.Render(fmt.Sprintf("exit %d", t.Code()))
	}
	return fmt.Sprintf("  %-24s %s %s", t.Task, status, r.theme.Dim.Render(formatDuration(t.Duration)))
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
