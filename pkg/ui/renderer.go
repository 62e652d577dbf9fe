// Package ui renders installer results for people and for scripts.
//
// Terminal output is styled with lipgloss and pterm, plain text output
// carries the same content without escape codes, and JSON output is meant
// for tooling. Completion notes are markdown, rendered with glamour on
// terminals.
package ui

import (
	"fmt"
	"io"

	"github.com/pimp-project/pimp-install/pkg/installer"
	"github.com/pimp-project/pimp-install/pkg/manifest"
)

// Renderer presents the results of each command.
type Renderer interface {
	Plan(policy string, plan []installer.PlannedStep) error
	Report(r *installer.Report) error
	Status(h installer.HostStatus) error
	Uninstall(r installer.UninstallReport, dryRun bool) error
	Manifest(m *manifest.Manifest) error
	Notes(markdown string) error
	Message(msg string) error
	Error(err error) error

	// Progress returns an observer reporting steps while they run, or nil
	// when the format has no live output.
	Progress() installer.Observer
}

// NewRenderer creates a renderer for format. FormatAuto is resolved
// against w.
func NewRenderer(format Format, w io.Writer) (Renderer, error) {
	switch format {
	case FormatAuto:
		return NewRenderer(DetectFormat(w), w)
	case FormatTerminal:
		return newConsole(w, true), nil
	case FormatText:
		return newConsole(w, false), nil
	case FormatJSON:
		return newJSON(w), nil
	default:
		return nil, fmt.Errorf("unknown format: %v", format)
	}
}
