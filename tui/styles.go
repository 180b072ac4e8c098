// ABOUTME: Defines lipgloss style constants for phase status lines, the steering dialog, and the progress bar.
// ABOUTME: Provides StyleForStatus to map phase.Status values to their corresponding display styles.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/drafter/phase"
)

var (
	// Title styling
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	// Status colors
	IdleStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	StreamingStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	CompleteStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	InterruptedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	SteeringStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)
	RegeneratingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("177")).Bold(true)
	ErrorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	// Content tail shown under an active phase
	TailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	// Selection cursor
	SelectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	// Key help / footer
	HelpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	// Steering dialog
	SteerFormStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("75")).
			Padding(1, 2)
	FormLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75")).
			Bold(true)
	FormErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// SpinnerFrames contains the Braille-dot animation frames for indicating
// actively streaming phases.
var SpinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// StyleForStatus returns the appropriate lipgloss style for a phase.Status.
func StyleForStatus(status phase.Status) lipgloss.Style {
	switch status {
	case phase.StatusIdle:
		return IdleStyle
	case phase.StatusStreaming:
		return StreamingStyle
	case phase.StatusComplete:
		return CompleteStyle
	case phase.StatusInterrupted:
		return InterruptedStyle
	case phase.StatusSteering:
		return SteeringStyle
	case phase.StatusRegenerating:
		return RegeneratingStyle
	case phase.StatusError:
		return ErrorStyle
	default:
		return IdleStyle
	}
}
