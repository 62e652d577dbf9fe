package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/pterm/pterm"

	"github.com/pimp-project/pimp-install/pkg/installer"
)

// Colors adapt to light and dark terminals.
var (
	PrimaryColor = lipgloss.AdaptiveColor{Light: "#007ACC", Dark: "#3D9EFF"}
	SuccessColor = lipgloss.AdaptiveColor{Light: "#28A745", Dark: "#4CDD76"}
	ErrorColor   = lipgloss.AdaptiveColor{Light: "#DC3545", Dark: "#FF6B7D"}
	WarningColor = lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#FFD54F"}
	InfoColor    = lipgloss.AdaptiveColor{Light: "#17A2B8", Dark: "#4DD0E1"}
	HeadingColor = lipgloss.AdaptiveColor{Light: "#212529", Dark: "#F8F9FA"}
	MutedColor   = lipgloss.AdaptiveColor{Light: "#6C757D", Dark: "#ADB5BD"}
	BorderColor  = lipgloss.AdaptiveColor{Light: "#DEE2E6", Dark: "#414868"}
)

// Styles is the set of styles bound to one output.
type Styles struct {
	Title   lipgloss.Style
	Normal  lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Path    lipgloss.Style
	Box     lipgloss.Style
}

// NewStyles binds the styles to r. A renderer with the Ascii profile
// yields unstyled text.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Title:   r.NewStyle().Foreground(HeadingColor).Bold(true),
		Normal:  r.NewStyle(),
		Muted:   r.NewStyle().Foreground(MutedColor),
		Success: r.NewStyle().Foreground(SuccessColor).Bold(true),
		Error:   r.NewStyle().Foreground(ErrorColor).Bold(true),
		Warning: r.NewStyle().Foreground(WarningColor).Bold(true),
		Info:    r.NewStyle().Foreground(InfoColor),
		Path:    r.NewStyle().Foreground(PrimaryColor).Italic(true),
		Box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1),
	}
}

// PlainStyles returns styles that render text unchanged.
func PlainStyles() Styles {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	r.SetHasDarkBackground(true)
	s := NewStyles(r)
	s.Box = r.NewStyle()
	return s
}

// Indicator is the glyph shown before a step with the given status.
func (s Styles) Indicator(status installer.Status) string {
	switch status {
	case installer.StatusOK:
		return s.Success.Render("✓")
	case installer.StatusFailed:
		return s.Error.Render("✗")
	case installer.StatusSkipped:
		return s.Muted.Render("–")
	case installer.StatusNotRun:
		return s.Muted.Render("○")
	default:
		return s.Info.Render("•")
	}
}

// ForStatus picks the text style for a step status.
func (s Styles) ForStatus(status installer.Status) lipgloss.Style {
	switch status {
	case installer.StatusOK:
		return s.Normal
	case installer.StatusFailed:
		return s.Error
	case installer.StatusPlanned:
		return s.Info
	default:
		return s.Muted
	}
}

// Badge renders a status as a colored pterm label.
func Badge(status installer.Status) string {
	label := " " + string(status) + " "
	switch status {
	case installer.StatusOK:
		return pterm.NewStyle(pterm.BgGreen, pterm.FgBlack).Sprint(label)
	case installer.StatusFailed:
		return pterm.NewStyle(pterm.BgRed, pterm.FgWhite, pterm.Bold).Sprint(label)
	case installer.StatusPlanned:
		return pterm.NewStyle(pterm.BgCyan, pterm.FgBlack).Sprint(label)
	default:
		return pterm.NewStyle(pterm.FgGray).Sprint(label)
	}
}
