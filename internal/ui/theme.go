// Package ui renders task progress and results for the console.
package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Theme keeps all console styling in one place.
type Theme struct {
	OK      lipgloss.Style
	Failed  lipgloss.Style
	Warning lipgloss.Style
	Task    lipgloss.Style
	Dim     lipgloss.Style
	Command lipgloss.Style
	Header  lipgloss.Style
}

// NewTheme creates the default theme for output written to w. Colours are dropped when w
// is not a terminal.
func NewTheme(w io.Writer) Theme {
	r := lipgloss.NewRenderer(w)

	return Theme{
		OK:      r.NewStyle().Foreground(lipgloss.Color("#00D75F")),
		Failed:  r.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Bold(true),
		Warning: r.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
		Task:    r.NewStyle().Foreground(lipgloss.Color("#61AFEF")).Bold(true),
		Dim:     r.NewStyle().Foreground(lipgloss.Color("#888888")),
		Command: r.NewStyle().Foreground(lipgloss.Color("#FAFAFA")).PaddingLeft(2),
		Header:  r.NewStyle().Bold(true),
	}
}
