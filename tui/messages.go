// ABOUTME: Bubble Tea message types used in the TUI message loop.
// ABOUTME: Each type wraps domain events for the tea.Msg interface (which is interface{}).
package tui

import (
	"time"

	"github.com/2389-research/drafter/phase"
)

// PhaseEventMsg wraps a phase.Event for the Bubble Tea message loop.
type PhaseEventMsg struct {
	Event phase.Event
}

// RunResultMsg signals that the orchestrated run has finished.
type RunResultMsg struct {
	Err error
}

// ActionResultMsg carries the outcome of a user-initiated control action
// (cancel, steer, regenerate) back into the message loop.
type ActionResultMsg struct {
	Action string
	Phase  string
	Err    error
}

// TickMsg is sent periodically to update timers and spinners.
type TickMsg struct {
	Time time.Time
}
