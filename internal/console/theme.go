// Package console renders the launcher's user-facing status lines.
package console

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme holds the styles used for console output.
type Theme struct {
	Base  lipgloss.Style
	Muted lipgloss.Style
	Title lipgloss.Style

	Primary lipgloss.Style
	Success lipgloss.Style
	Warn    lipgloss.Style
	Danger  lipgloss.Style

	Code   lipgloss.Style
	Border lipgloss.Style
	Header lipgloss.Style
}

// Palette (orange accent, adaptive to light and dark terminals).
var (
	primary = lipgloss.AdaptiveColor{Light: "#EA580C", Dark: "#FB923C"}
	success = lipgloss.AdaptiveColor{Light: "#0F7B0F", Dark: "#9ECE6A"}
	warn    = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	danger  = lipgloss.AdaptiveColor{Light: "#B00020", Dark: "#F7768E"}
	border  = lipgloss.AdaptiveColor{Light: "#D0D7DE", Dark: "#3B4261"}
	muted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A9B1D6"}
)

// NewTheme creates the theme for a renderer. Styles are bound to the
// renderer so colour detection follows the writer they print to.
func NewTheme(r *lipgloss.Renderer) Theme {
	return Theme{
		Base:  r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#111827", Dark: "#C0CAF5"}),
		Muted: r.NewStyle().Foreground(muted),
		Title: r.NewStyle().Bold(true).Foreground(primary),

		Primary: r.NewStyle().Foreground(primary),
		Success: r.NewStyle().Foreground(success),
		Warn:    r.NewStyle().Foreground(warn),
		Danger:  r.NewStyle().Foreground(danger).Bold(true),

		Code:   r.NewStyle().Foreground(primary),
		Border: r.NewStyle().Foreground(border),
		Header: r.NewStyle().Bold(true).Foreground(primary).Padding(0, 1),
	}
}
