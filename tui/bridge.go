// ABOUTME: Bridge connecting the orchestrator and phase store to the Bubble Tea message loop.
// ABOUTME: Provides tea.Cmd factories for event forwarding, run execution, steering actions, and ticks.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/drafter/orchestrate"
	"github.com/2389-research/drafter/phase"
)

// WaitForPhaseEventCmd returns a tea.Cmd that blocks on the given event channel
// and sends a PhaseEventMsg when one arrives. The caller re-issues the command
// after handling each message to keep draining the subscription.
func WaitForPhaseEventCmd(events <-chan phase.Event) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-events
		if !ok {
			return nil // subscription closed, no more events
		}
		return PhaseEventMsg{Event: evt}
	}
}

// RunAllCmd returns a tea.Cmd that launches all phases via the orchestrator.
// When the run completes (or fails to start), it sends a RunResultMsg.
// The context allows cancellation when the user quits the TUI.
func RunAllCmd(ctx context.Context, orch *orchestrate.Orchestrator, names []string) tea.Cmd {
	return func() tea.Msg {
		err := orch.RunAll(ctx, names)
		return RunResultMsg{Err: err}
	}
}

// CancelPhaseCmd returns a tea.Cmd that requests cancellation of one streaming
// phase. The orchestrator call blocks until the attempt goroutine has settled,
// so it runs off the message loop.
func CancelPhaseCmd(ctx context.Context, orch *orchestrate.Orchestrator, name string) tea.Cmd {
	return func() tea.Msg {
		err := orch.RequestCancel(ctx, name)
		return ActionResultMsg{Action: "cancel", Phase: name, Err: err}
	}
}

// SubmitSteeringCmd returns a tea.Cmd that submits steering answers for an
// interrupted phase and kicks off its regeneration.
func SubmitSteeringCmd(ctx context.Context, orch *orchestrate.Orchestrator, name string, answers phase.SteeringAnswers) tea.Cmd {
	return func() tea.Msg {
		err := orch.SubmitSteeringAnswers(ctx, name, answers)
		return ActionResultMsg{Action: "steer", Phase: name, Err: err}
	}
}

// RegeneratePhaseCmd returns a tea.Cmd that regenerates an interrupted or
// errored phase without steering feedback.
func RegeneratePhaseCmd(ctx context.Context, orch *orchestrate.Orchestrator, name string) tea.Cmd {
	return func() tea.Msg {
		err := orch.RequestRegenerate(ctx, name)
		return ActionResultMsg{Action: "regenerate", Phase: name, Err: err}
	}
}

// TickCmd returns a tea.Cmd that sends a TickMsg after the given interval.
// Used for spinner animation and elapsed-time refreshes.
func TickCmd(interval time.Duration) tea.Cmd {
	return func() tea.Msg {
		time.Sleep(interval)
		return TickMsg{Time: time.Now()}
	}
}
