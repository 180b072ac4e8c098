// ABOUTME: StreamModel is an inline Bubble Tea model for concurrent phase generation progress.
// ABOUTME: Displays per-phase status lines with content tails, and routes cancel/steer/regenerate keys to the orchestrator.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/drafter/orchestrate"
	"github.com/2389-research/drafter/phase"
)

// tailRunes limits the length of the streaming content preview shown under
// an active phase line.
const tailRunes = 72

// StreamModel is an inline (non-alt-screen) Bubble Tea model that displays
// the concurrent phase run as a list of status lines with elapsed times and
// live content tails. One phase at a time can be selected for interruption,
// steering, or regeneration.
type StreamModel struct {
	orch   *orchestrate.Orchestrator
	ctx    context.Context
	cancel context.CancelFunc
	title  string

	events chan phase.Event

	steerForm SteerFormModel

	// Phase tracking
	names     []string
	statuses  map[string]phase.Status
	startedAt map[string]time.Time
	durations map[string]time.Duration
	tails     map[string]string
	chunks    map[string]int

	// Spinner and selection
	spinnerIdx int
	selected   int

	// Run state
	runStart time.Time
	done     bool
	err      error
	flash    string
	resultCh chan RunResultMsg

	width int
}

// NewStreamModel creates a StreamModel for the given orchestrator and phase
// order. It subscribes to the phase store's event feed; the subscription is
// released when the program quits, whether by keypress or run completion.
func NewStreamModel(ctx context.Context, orch *orchestrate.Orchestrator, title string, names []string) StreamModel {
	ctx, cancel := context.WithCancel(ctx)

	statuses := make(map[string]phase.Status, len(names))
	for _, name := range names {
		statuses[name] = phase.StatusIdle
	}

	return StreamModel{
		orch:      orch,
		ctx:       ctx,
		cancel:    cancel,
		title:     title,
		events:    orch.Store().Subscribe(),
		steerForm: NewSteerFormModel(),
		names:     names,
		statuses:  statuses,
		startedAt: make(map[string]time.Time),
		durations: make(map[string]time.Duration),
		tails:     make(map[string]string),
		chunks:    make(map[string]int),
		runStart:  time.Now(),
		resultCh:  make(chan RunResultMsg, 1),
	}
}

// ResultCh returns a channel that receives the run result after the program
// exits. The caller should read from this after tea.Program.Run() completes.
func (m *StreamModel) ResultCh() <-chan RunResultMsg {
	return m.resultCh
}

// release drops the model's hold on the run: the run context is cancelled and
// the store subscription is closed so the event wait command can wind down.
func (m StreamModel) release() {
	m.cancel()
	m.orch.Store().Unsubscribe(m.events)
}

// Init implements tea.Model. Returns a batch of initial commands to start the
// run, listen for phase events, and begin the tick loop.
func (m StreamModel) Init() tea.Cmd {
	return tea.Batch(
		RunAllCmd(m.ctx, m.orch, m.names),
		WaitForPhaseEventCmd(m.events),
		TickCmd(100*time.Millisecond),
	)
}

// Update implements tea.Model. Routes incoming messages to appropriate handlers.
func (m StreamModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case PhaseEventMsg:
		return m.handlePhaseEvent(msg)

	case RunResultMsg:
		return m.handleRunResult(msg)

	case ActionResultMsg:
		if msg.Err != nil {
			m.flash = fmt.Sprintf("%s %s: %v", msg.Action, msg.Phase, msg.Err)
		}
		return m, nil

	case TickMsg:
		return m.handleTick()

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

// View implements tea.Model. Renders the inline streaming progress display.
func (m StreamModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(fmt.Sprintf("drafter — %s", m.title)))
	b.WriteString("\n\n")

	for i, name := range m.names {
		status := m.statuses[name]
		b.WriteString(m.renderPhaseLine(i, name, status))
		b.WriteString("\n")

		if status.Active() {
			if tail := m.tails[name]; tail != "" {
				b.WriteString(TailStyle.Render(fmt.Sprintf("      …%s", tail)))
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\n")

	if m.steerForm.IsActive() {
		b.WriteString(m.steerForm.View())
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderProgressLine())
		b.WriteString("\n")
		if m.flash != "" {
			b.WriteString(ErrorStyle.Render(fmt.Sprintf("  %s", m.flash)))
			b.WriteString("\n")
		}
		b.WriteString(m.renderHelpLine())
		b.WriteString("\n")
	}

	return b.String()
}

// handlePhaseEvent folds one store event into the display state and re-arms
// the event listener.
func (m StreamModel) handlePhaseEvent(msg PhaseEventMsg) (tea.Model, tea.Cmd) {
	evt := msg.Event

	switch evt.Kind {
	case phase.EventStatusChanged:
		prev := m.statuses[evt.Phase]
		m.statuses[evt.Phase] = evt.Status

		if evt.Status.Active() && !prev.Active() {
			m.startedAt[evt.Phase] = time.Now()
		}
		if !evt.Status.Active() && prev.Active() {
			if start, ok := m.startedAt[evt.Phase]; ok {
				m.durations[evt.Phase] = time.Since(start)
			}
		}

	case phase.EventContentDelta:
		m.chunks[evt.Phase]++
		m.appendTail(evt.Phase, evt.Chunk)

	case phase.EventAttemptReset:
		m.tails[evt.Phase] = ""
		m.chunks[evt.Phase] = 0
	}

	return m, WaitForPhaseEventCmd(m.events)
}

// handleRunResult marks the run as done and writes the result to the channel.
func (m StreamModel) handleRunResult(msg RunResultMsg) (tea.Model, tea.Cmd) {
	m.done = true
	m.err = msg.Err

	// Non-blocking write to result channel
	select {
	case m.resultCh <- msg:
	default:
	}

	m.release()
	return m, tea.Quit
}

// handleTick advances the spinner and returns a new tick if still running.
func (m StreamModel) handleTick() (tea.Model, tea.Cmd) {
	m.spinnerIdx++
	if m.done {
		return m, nil
	}
	return m, TickCmd(100 * time.Millisecond)
}

// handleKeyMsg processes keyboard input. When the steering form is active all
// keys route there; otherwise keys select phases and trigger control actions.
func (m StreamModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.steerForm.IsActive() {
		switch msg.Type {
		case tea.KeyEnter:
			name := m.steerForm.Phase()
			if answers, ok := m.steerForm.Submit(); ok {
				return m, SubmitSteeringCmd(m.ctx, m.orch, name, answers)
			}
			return m, nil
		case tea.KeyTab:
			m.steerForm.NextField()
			return m, nil
		case tea.KeyShiftTab:
			m.steerForm.PrevField()
			return m, nil
		case tea.KeyEsc:
			m.steerForm.Dismiss()
			return m, nil
		case tea.KeyCtrlC:
			m.release()
			return m, tea.Quit
		}
		m.steerForm = m.steerForm.Update(msg)
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case "down", "j":
		if m.selected < len(m.names)-1 {
			m.selected++
		}
		return m, nil

	case "c":
		name := m.selectedPhase()
		if name == "" || !m.statuses[name].Active() {
			return m, nil
		}
		m.flash = ""
		return m, CancelPhaseCmd(m.ctx, m.orch, name)

	case "s":
		name := m.selectedPhase()
		if name == "" {
			return m, nil
		}
		status := m.statuses[name]
		if status != phase.StatusInterrupted && status != phase.StatusSteering {
			return m, nil
		}
		if err := m.orch.OpenSteering(name); err != nil {
			m.flash = fmt.Sprintf("steer %s: %v", name, err)
			return m, nil
		}
		m.flash = ""
		m.steerForm.SetActive(name)
		return m, nil

	case "r":
		name := m.selectedPhase()
		if name == "" {
			return m, nil
		}
		status := m.statuses[name]
		if status != phase.StatusInterrupted && status != phase.StatusError {
			return m, nil
		}
		m.flash = ""
		return m, RegeneratePhaseCmd(m.ctx, m.orch, name)

	case "ctrl+c", "q":
		m.release()
		return m, tea.Quit
	}

	return m, nil
}

// renderPhaseLine renders a single phase's status line.
func (m StreamModel) renderPhaseLine(idx int, name string, status phase.Status) string {
	cursor := "  "
	if idx == m.selected {
		cursor = "> "
	}

	marker := status.Icon()
	if status.Active() {
		marker = fmt.Sprintf("[%s]", SpinnerFrames[m.spinnerIdx%len(SpinnerFrames)])
	}

	suffix := string(status)
	if status.Active() {
		suffix = fmt.Sprintf("%s · %d chunks", status, m.chunks[name])
	}
	switch status {
	case phase.StatusComplete:
		if dur, ok := m.durations[name]; ok {
			suffix = fmt.Sprintf("complete  %s", formatDuration(dur))
		}
	case phase.StatusInterrupted:
		suffix = "interrupted — s to steer, r to retry"
	case phase.StatusSteering:
		suffix = "awaiting steering answers"
	case phase.StatusError:
		suffix = "error — r to retry"
	}

	line := fmt.Sprintf("%s%s %-10s %s", cursor, marker, name, suffix)
	styled := StyleForStatus(status).Render(line)
	if idx == m.selected {
		return SelectedStyle.Render(line)
	}
	return styled
}

// renderProgressLine renders the bottom progress/completion line.
func (m StreamModel) renderProgressLine() string {
	completed := 0
	for _, name := range m.names {
		if m.statuses[name] == phase.StatusComplete {
			completed++
		}
	}

	elapsedStr := formatDuration(time.Since(m.runStart))

	if m.done {
		if m.err != nil {
			return ErrorStyle.Render(
				fmt.Sprintf("  ✗ %d/%d complete · %s · FAILED: %v", completed, len(m.names), elapsedStr, m.err))
		}
		return CompleteStyle.Render(
			fmt.Sprintf("  ✓ %d/%d complete · %s", completed, len(m.names), elapsedStr))
	}

	return IdleStyle.Render(
		fmt.Sprintf("  %d/%d complete · %s elapsed", completed, len(m.names), elapsedStr))
}

// renderHelpLine renders the key help footer.
func (m StreamModel) renderHelpLine() string {
	return HelpStyle.Render("  ↑/↓ select · c cancel · s steer · r regenerate · q quit")
}

// selectedPhase returns the name of the currently selected phase.
func (m StreamModel) selectedPhase() string {
	if m.selected < 0 || m.selected >= len(m.names) {
		return ""
	}
	return m.names[m.selected]
}

// appendTail folds a content chunk into the single-line preview for a phase,
// keeping only the last tailRunes runes.
func (m StreamModel) appendTail(name, chunk string) {
	tail := m.tails[name] + strings.ReplaceAll(chunk, "\n", " ")
	runes := []rune(tail)
	if len(runes) > tailRunes {
		runes = runes[len(runes)-tailRunes:]
	}
	m.tails[name] = string(runes)
}

// formatDuration formats a duration as a human-readable string like "0.1s" or "2.3s".
func formatDuration(d time.Duration) string {
	secs := d.Seconds()
	if secs < 10 {
		return fmt.Sprintf("%.1fs", secs)
	}
	if secs < 60 {
		return fmt.Sprintf("%.0fs", secs)
	}
	mins := int(secs) / 60
	remainSecs := int(secs) % 60
	return fmt.Sprintf("%dm%02ds", mins, remainSecs)
}
