// ABOUTME: SteerFormModel renders the steering questionnaire for an interrupted phase.
// ABOUTME: Three text inputs (issue, desired change, constraints) with tab-cycling focus and validation.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/drafter/phase"
	"github.com/2389-research/drafter/steer"
)

// Field indices for the steering form inputs.
const (
	fieldIssue = iota
	fieldDesiredChange
	fieldConstraints
	fieldCount
)

// SteerFormModel collects steering answers for one interrupted phase inside
// the Bubble Tea message loop. It is activated when the user chooses to steer,
// and Submit returns the validated answers for the bridge to deliver.
type SteerFormModel struct {
	inputs    []textinput.Model
	phaseName string
	focused   int
	active    bool
	errText   string
}

// NewSteerFormModel creates a SteerFormModel with initialized text inputs.
func NewSteerFormModel() SteerFormModel {
	labels := []string{
		"What's wrong with it?",
		"What should change?",
		"Any constraints? (optional)",
	}

	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		ti := textinput.New()
		ti.Prompt = "> "
		ti.Placeholder = labels[i]
		ti.CharLimit = 2000
		inputs[i] = ti
	}

	return SteerFormModel{inputs: inputs}
}

// SetActive activates the form for the given phase, focusing the first field.
func (m *SteerFormModel) SetActive(phaseName string) {
	m.phaseName = phaseName
	m.active = true
	m.focused = fieldIssue
	m.errText = ""
	for i := range m.inputs {
		m.inputs[i].Reset()
		m.inputs[i].Blur()
	}
	m.inputs[fieldIssue].Focus()
}

// IsActive returns whether the steering form is currently visible.
func (m *SteerFormModel) IsActive() bool {
	return m.active
}

// Phase returns the name of the phase being steered.
func (m *SteerFormModel) Phase() string {
	return m.phaseName
}

// Answers assembles the current field values into SteeringAnswers.
func (m *SteerFormModel) Answers() phase.SteeringAnswers {
	return phase.SteeringAnswers{
		Issue:         m.inputs[fieldIssue].Value(),
		DesiredChange: m.inputs[fieldDesiredChange].Value(),
		Constraints:   m.inputs[fieldConstraints].Value(),
	}
}

// Submit validates the current answers. On success it deactivates the form
// and returns the answers with ok=true. On validation failure the form stays
// active with an error line and focus moved to the first missing field.
func (m *SteerFormModel) Submit() (phase.SteeringAnswers, bool) {
	answers := m.Answers()
	if err := steer.Validate(answers); err != nil {
		m.errText = err.Error()
		var verr *steer.ValidationError
		if errors.As(err, &verr) && len(verr.Missing) > 0 {
			switch verr.Missing[0] {
			case "issue":
				m.setFocus(fieldIssue)
			case "desired_change":
				m.setFocus(fieldDesiredChange)
			}
		}
		return phase.SteeringAnswers{}, false
	}

	m.Dismiss()
	return answers, true
}

// Dismiss deactivates the form without submitting, clearing all fields.
func (m *SteerFormModel) Dismiss() {
	m.active = false
	m.phaseName = ""
	m.errText = ""
	for i := range m.inputs {
		m.inputs[i].Reset()
		m.inputs[i].Blur()
	}
}

// NextField cycles focus to the next input, wrapping around.
func (m *SteerFormModel) NextField() {
	m.setFocus((m.focused + 1) % fieldCount)
}

// PrevField cycles focus to the previous input, wrapping around.
func (m *SteerFormModel) PrevField() {
	m.setFocus((m.focused + fieldCount - 1) % fieldCount)
}

func (m *SteerFormModel) setFocus(idx int) {
	m.inputs[m.focused].Blur()
	m.focused = idx
	m.inputs[m.focused].Focus()
}

// Update forwards key events to the focused text input. Returns the updated model.
func (m SteerFormModel) Update(msg tea.Msg) SteerFormModel {
	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	_ = cmd // textinput cmds (cursor blink) are ignored in sub-model updates
	return m
}

// View renders the steering dialog. Returns an empty string when inactive.
func (m SteerFormModel) View() string {
	if !m.active {
		return ""
	}

	labels := []string{"Issue", "Desired change", "Constraints"}

	var b strings.Builder
	b.WriteString(FormLabelStyle.Render(fmt.Sprintf("Steering: %s", m.phaseName)))
	b.WriteString("\n\n")

	for i, ti := range m.inputs {
		marker := "  "
		if i == m.focused {
			marker = "* "
		}
		b.WriteString(fmt.Sprintf("%s%s\n", marker, labels[i]))
		b.WriteString(fmt.Sprintf("  %s\n", ti.View()))
	}

	if m.errText != "" {
		b.WriteString("\n")
		b.WriteString(FormErrorStyle.Render(m.errText))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("tab: next field · enter: submit · esc: back"))

	return SteerFormStyle.Render(b.String())
}
