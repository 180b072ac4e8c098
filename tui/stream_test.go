// ABOUTME: Tests for the StreamModel inline Bubble Tea progress display.
// ABOUTME: Covers constructor, event folding, view rendering, key gating, ticks, and the result channel.
package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/drafter/generate"
	"github.com/2389-research/drafter/orchestrate"
	"github.com/2389-research/drafter/phase"
)

// sourceFunc adapts a function to the generate.TokenSource interface.
type sourceFunc func(ctx context.Context, phaseName, prompt string, params phase.Params) (<-chan generate.Chunk, error)

func (f sourceFunc) Open(ctx context.Context, phaseName, prompt string, params phase.Params) (<-chan generate.Chunk, error) {
	return f(ctx, phaseName, prompt, params)
}

// emptySource completes immediately with no chunks.
func emptySource() generate.TokenSource {
	return sourceFunc(func(ctx context.Context, phaseName, prompt string, params phase.Params) (<-chan generate.Chunk, error) {
		ch := make(chan generate.Chunk)
		close(ch)
		return ch, nil
	})
}

func testBuilder() orchestrate.PromptBuilderFunc {
	return func(phaseName string) (string, phase.Params, error) {
		return "task:" + phaseName, phase.Params{Model: "test-model"}, nil
	}
}

func testStreamModel(t *testing.T, names ...string) StreamModel {
	t.Helper()
	store := phase.NewStore()
	gen := generate.New(store, emptySource())
	orch := orchestrate.New(store, gen, testBuilder())
	return NewStreamModel(context.Background(), orch, "test run", names)
}

func statusMsg(name string, status phase.Status) PhaseEventMsg {
	return PhaseEventMsg{Event: phase.Event{
		Phase:  name,
		Kind:   phase.EventStatusChanged,
		Status: status,
	}}
}

func deltaMsg(name, chunk string) PhaseEventMsg {
	return PhaseEventMsg{Event: phase.Event{
		Phase: name,
		Kind:  phase.EventContentDelta,
		Chunk: chunk,
	}}
}

func updateStream(t *testing.T, m StreamModel, msg tea.Msg) (StreamModel, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	sm, ok := updated.(StreamModel)
	if !ok {
		t.Fatalf("Update returned %T, want StreamModel", updated)
	}
	return sm, cmd
}

func TestNewStreamModelStartsAllIdle(t *testing.T) {
	m := testStreamModel(t, "plan", "design", "implement")

	for _, name := range []string{"plan", "design", "implement"} {
		if got := m.statuses[name]; got != phase.StatusIdle {
			t.Errorf("phase %s: expected idle, got %s", name, got)
		}
	}

	view := m.View()
	for _, name := range []string{"plan", "design", "implement"} {
		if !strings.Contains(view, name) {
			t.Errorf("expected view to list phase %s", name)
		}
	}
}

func TestInitBatchesRunEventsAndTick(t *testing.T) {
	m := testStreamModel(t, "plan")

	if cmd := m.Init(); cmd == nil {
		t.Fatal("expected Init to return a command batch")
	}
}

func TestStatusChangeTracksDurations(t *testing.T) {
	m := testStreamModel(t, "plan")

	m, cmd := updateStream(t, m, statusMsg("plan", phase.StatusStreaming))
	if cmd == nil {
		t.Fatal("expected event handler to re-arm the listener")
	}
	if m.statuses["plan"] != phase.StatusStreaming {
		t.Fatalf("expected streaming, got %s", m.statuses["plan"])
	}
	if _, ok := m.startedAt["plan"]; !ok {
		t.Fatal("expected start time recorded when streaming begins")
	}

	m, _ = updateStream(t, m, statusMsg("plan", phase.StatusComplete))
	if _, ok := m.durations["plan"]; !ok {
		t.Fatal("expected duration recorded when streaming ends")
	}
	if !strings.Contains(m.View(), "complete") {
		t.Error("expected view to show completion")
	}
}

func TestContentDeltaBuildsBoundedTail(t *testing.T) {
	m := testStreamModel(t, "design")
	m, _ = updateStream(t, m, statusMsg("design", phase.StatusStreaming))

	m, _ = updateStream(t, m, deltaMsg("design", "first\nline "))
	m, _ = updateStream(t, m, deltaMsg("design", strings.Repeat("x", tailRunes)))

	tail := m.tails["design"]
	if strings.Contains(tail, "\n") {
		t.Error("expected newlines flattened in tail")
	}
	if got := len([]rune(tail)); got != tailRunes {
		t.Errorf("expected tail bounded at %d runes, got %d", tailRunes, got)
	}
	if !strings.Contains(m.View(), strings.Repeat("x", 10)) {
		t.Error("expected view to show content tail for streaming phase")
	}
	if m.chunks["design"] != 2 {
		t.Errorf("expected 2 chunks counted, got %d", m.chunks["design"])
	}
}

func TestAttemptResetClearsTail(t *testing.T) {
	m := testStreamModel(t, "design")
	m, _ = updateStream(t, m, deltaMsg("design", "stale content"))

	m, _ = updateStream(t, m, PhaseEventMsg{Event: phase.Event{
		Phase: "design",
		Kind:  phase.EventAttemptReset,
	}})

	if m.tails["design"] != "" {
		t.Errorf("expected tail cleared on reset, got %q", m.tails["design"])
	}
	if m.chunks["design"] != 0 {
		t.Errorf("expected chunk count reset, got %d", m.chunks["design"])
	}
}

func TestRunResultQuitsAndPublishesResult(t *testing.T) {
	m := testStreamModel(t, "plan")

	m, cmd := updateStream(t, m, RunResultMsg{Err: nil})
	if !m.done {
		t.Error("expected model marked done")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}

	select {
	case res := <-m.ResultCh():
		if res.Err != nil {
			t.Errorf("expected nil error, got %v", res.Err)
		}
	default:
		t.Fatal("expected result on result channel")
	}
}

func TestQuitReleasesStoreSubscription(t *testing.T) {
	m := testStreamModel(t, "plan")

	m, cmd := updateStream(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}

	select {
	case _, ok := <-m.events:
		if ok {
			t.Error("expected subscription channel closed, got an event")
		}
	default:
		t.Error("subscription channel still open after quit")
	}
	if m.ctx.Err() == nil {
		t.Error("run context still live after quit")
	}
}

func TestRunResultReleasesStoreSubscription(t *testing.T) {
	m := testStreamModel(t, "plan")

	m, _ = updateStream(t, m, RunResultMsg{Err: nil})

	select {
	case _, ok := <-m.events:
		if ok {
			t.Error("expected subscription channel closed, got an event")
		}
	default:
		t.Error("subscription channel still open after run result")
	}
}

func TestTickAdvancesSpinnerUntilDone(t *testing.T) {
	m := testStreamModel(t, "plan")

	m, cmd := updateStream(t, m, TickMsg{Time: time.Now()})
	if m.spinnerIdx != 1 {
		t.Errorf("expected spinner advance, got %d", m.spinnerIdx)
	}
	if cmd == nil {
		t.Error("expected follow-up tick while running")
	}

	m.done = true
	_, cmd = updateStream(t, m, TickMsg{Time: time.Now()})
	if cmd != nil {
		t.Error("expected no follow-up tick when done")
	}
}

func TestSelectionKeysMoveCursor(t *testing.T) {
	m := testStreamModel(t, "plan", "design", "implement")

	m, _ = updateStream(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	m, _ = updateStream(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	if m.selected != 2 {
		t.Errorf("expected selection at 2, got %d", m.selected)
	}

	// Does not run past the end
	m, _ = updateStream(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	if m.selected != 2 {
		t.Errorf("expected selection clamped at 2, got %d", m.selected)
	}

	m, _ = updateStream(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	if m.selected != 1 {
		t.Errorf("expected selection at 1, got %d", m.selected)
	}
}

func TestCancelKeyOnlyFiresForActivePhase(t *testing.T) {
	m := testStreamModel(t, "plan")

	_, cmd := updateStream(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	if cmd != nil {
		t.Error("expected no cancel command for an idle phase")
	}

	m, _ = updateStream(t, m, statusMsg("plan", phase.StatusStreaming))
	_, cmd = updateStream(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	if cmd == nil {
		t.Error("expected cancel command for a streaming phase")
	}
}

func TestRegenerateKeyGatedOnStatus(t *testing.T) {
	m := testStreamModel(t, "plan")

	_, cmd := updateStream(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd != nil {
		t.Error("expected no regenerate command for an idle phase")
	}

	m, _ = updateStream(t, m, statusMsg("plan", phase.StatusError))
	_, cmd = updateStream(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd == nil {
		t.Error("expected regenerate command for an errored phase")
	}
}

func TestSteerKeyOpensFormForInterruptedPhase(t *testing.T) {
	store := phase.NewStore()
	gen := generate.New(store, emptySource())
	orch := orchestrate.New(store, gen, testBuilder())
	if err := store.Register("design"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := store.SetStatus("design", phase.StatusInterrupted); err != nil {
		t.Fatalf("set status: %v", err)
	}

	m := NewStreamModel(context.Background(), orch, "test", []string{"design"})
	m, _ = updateStream(t, m, statusMsg("design", phase.StatusInterrupted))

	m, _ = updateStream(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	if !m.steerForm.IsActive() {
		t.Fatal("expected steering form to open")
	}
	if m.steerForm.Phase() != "design" {
		t.Errorf("expected form bound to design, got %q", m.steerForm.Phase())
	}

	// Keys now route to the form, not phase selection
	m, _ = updateStream(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	if got := m.steerForm.inputs[fieldIssue].Value(); got != "j" {
		t.Errorf("expected key routed to form input, got %q", got)
	}

	// Escape backs out without submitting
	m, _ = updateStream(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.steerForm.IsActive() {
		t.Error("expected escape to dismiss the form")
	}
}

func TestSteerFormSubmitEmitsCommand(t *testing.T) {
	store := phase.NewStore()
	gen := generate.New(store, emptySource())
	orch := orchestrate.New(store, gen, testBuilder())
	if err := store.Register("design"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := store.SetStatus("design", phase.StatusInterrupted); err != nil {
		t.Fatalf("set status: %v", err)
	}

	m := NewStreamModel(context.Background(), orch, "test", []string{"design"})
	m, _ = updateStream(t, m, statusMsg("design", phase.StatusInterrupted))
	m, _ = updateStream(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})

	// Incomplete answers keep the form open with no command
	m, cmd := updateStream(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("expected no command for invalid answers")
	}
	if !m.steerForm.IsActive() {
		t.Fatal("expected form to stay open after rejection")
	}

	m.steerForm.inputs[fieldIssue].SetValue("too vague")
	m.steerForm.inputs[fieldDesiredChange].SetValue("add detail")
	m, cmd = updateStream(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Error("expected steering submit command")
	}
	if m.steerForm.IsActive() {
		t.Error("expected form closed after submit")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{150 * time.Millisecond, "0.2s"},
		{2300 * time.Millisecond, "2.3s"},
		{42 * time.Second, "42s"},
		{125 * time.Second, "2m05s"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
