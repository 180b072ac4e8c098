// ABOUTME: Tests for the SteerFormModel steering questionnaire.
// ABOUTME: Covers activation, focus cycling, validation failure, submit, dismiss, and view rendering.
package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestNewSteerFormModelIsInactive(t *testing.T) {
	m := NewSteerFormModel()

	if m.IsActive() {
		t.Error("expected new form to be inactive")
	}
	if m.View() != "" {
		t.Errorf("expected empty view when inactive, got %q", m.View())
	}
}

func TestSetActiveFocusesIssueField(t *testing.T) {
	m := NewSteerFormModel()
	m.SetActive("design")

	if !m.IsActive() {
		t.Fatal("expected form to be active")
	}
	if m.Phase() != "design" {
		t.Errorf("expected phase design, got %q", m.Phase())
	}
	if m.focused != fieldIssue {
		t.Errorf("expected focus on issue field, got %d", m.focused)
	}
	if !m.inputs[fieldIssue].Focused() {
		t.Error("expected issue input to be focused")
	}
}

func TestNextFieldWrapsAround(t *testing.T) {
	m := NewSteerFormModel()
	m.SetActive("design")

	m.NextField()
	if m.focused != fieldDesiredChange {
		t.Errorf("expected focus %d, got %d", fieldDesiredChange, m.focused)
	}
	m.NextField()
	if m.focused != fieldConstraints {
		t.Errorf("expected focus %d, got %d", fieldConstraints, m.focused)
	}
	m.NextField()
	if m.focused != fieldIssue {
		t.Errorf("expected focus to wrap to %d, got %d", fieldIssue, m.focused)
	}
	m.PrevField()
	if m.focused != fieldConstraints {
		t.Errorf("expected focus to wrap back to %d, got %d", fieldConstraints, m.focused)
	}
}

func TestSubmitRejectsMissingRequiredFields(t *testing.T) {
	m := NewSteerFormModel()
	m.SetActive("design")
	m.inputs[fieldDesiredChange].SetValue("add more detail")

	_, ok := m.Submit()
	if ok {
		t.Fatal("expected submit to fail with missing issue")
	}
	if !m.IsActive() {
		t.Error("expected form to stay active after rejection")
	}
	if m.errText == "" {
		t.Error("expected error text after rejection")
	}
	if m.focused != fieldIssue {
		t.Errorf("expected focus moved to missing issue field, got %d", m.focused)
	}
}

func TestSubmitReturnsAnswersAndDeactivates(t *testing.T) {
	m := NewSteerFormModel()
	m.SetActive("design")
	m.inputs[fieldIssue].SetValue("too vague")
	m.inputs[fieldDesiredChange].SetValue("add detail")
	m.inputs[fieldConstraints].SetValue("keep it short")

	answers, ok := m.Submit()
	if !ok {
		t.Fatal("expected submit to succeed")
	}
	if answers.Issue != "too vague" {
		t.Errorf("expected issue 'too vague', got %q", answers.Issue)
	}
	if answers.DesiredChange != "add detail" {
		t.Errorf("expected desired change 'add detail', got %q", answers.DesiredChange)
	}
	if answers.Constraints != "keep it short" {
		t.Errorf("expected constraints 'keep it short', got %q", answers.Constraints)
	}
	if m.IsActive() {
		t.Error("expected form to deactivate after submit")
	}
}

func TestDismissClearsFields(t *testing.T) {
	m := NewSteerFormModel()
	m.SetActive("design")
	m.inputs[fieldIssue].SetValue("too vague")

	m.Dismiss()

	if m.IsActive() {
		t.Error("expected form to be inactive after dismiss")
	}
	if m.Phase() != "" {
		t.Errorf("expected phase cleared, got %q", m.Phase())
	}
	if m.inputs[fieldIssue].Value() != "" {
		t.Errorf("expected issue cleared, got %q", m.inputs[fieldIssue].Value())
	}
}

func TestUpdateForwardsKeysToFocusedInput(t *testing.T) {
	m := NewSteerFormModel()
	m.SetActive("design")

	m = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")})

	if got := m.inputs[fieldIssue].Value(); got != "hi" {
		t.Errorf("expected typed text in issue field, got %q", got)
	}
}

func TestViewShowsLabelsAndPhase(t *testing.T) {
	m := NewSteerFormModel()
	m.SetActive("implement")

	view := m.View()
	for _, want := range []string{"Steering: implement", "Issue", "Desired change", "Constraints"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}
