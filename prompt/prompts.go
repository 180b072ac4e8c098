// ABOUTME: Prompt templates per document phase and task prompt construction.
// ABOUTME: Builds the initial prompt and request parameters consumed by the orchestrator.
package prompt

import (
	"fmt"
	"strings"

	"github.com/2389-research/drafter/phase"
)

// PhaseNames is the canonical phase set for a document run, in display order.
// Every phase generates independently; order matters only for assembly.
var PhaseNames = []string{"plan", "design", "implement", "test", "review"}

// planSystemPrompt is the system prompt for the plan phase.
const planSystemPrompt = "You are a technical planning writer. You produce the plan section " +
	"of an engineering document: goals, scope, constraints, milestones, and open questions. " +
	"Write in tight, declarative prose. Use markdown headings and bullet lists. " +
	"Do not write design or implementation detail — that belongs to other sections."

// designSystemPrompt is the system prompt for the design phase.
const designSystemPrompt = "You are a software design writer. You produce the design section " +
	"of an engineering document: architecture, components and their responsibilities, data model, " +
	"and the interfaces between parts. Favor concrete names and signatures over abstractions. " +
	"Use markdown headings; include ASCII diagrams where a diagram says it faster than prose."

// implementSystemPrompt is the system prompt for the implement phase.
const implementSystemPrompt = "You are an implementation writer. You produce the implementation " +
	"section of an engineering document: a concrete, ordered walkthrough of how the design gets " +
	"built, with code sketches for the tricky parts. Keep code sketches minimal and focused on " +
	"the decisions they illustrate."

// testSystemPrompt is the system prompt for the test phase.
const testSystemPrompt = "You are a test strategy writer. You produce the testing section of an " +
	"engineering document: what to test, at which level (unit, integration, end-to-end), the " +
	"properties worth asserting, and the edge cases most likely to break. Prefer tables of " +
	"scenarios over prose where they are denser."

// reviewSystemPrompt is the system prompt for the review phase.
const reviewSystemPrompt = "You are a design reviewer. You produce the review section of an " +
	"engineering document: risks, tradeoffs taken, alternatives rejected and why, and the " +
	"questions a careful reviewer would raise. Be specific and critical; vague praise is noise."

// SystemForPhase returns the system prompt for a phase, or empty for an
// unknown phase name.
func SystemForPhase(name string) string {
	switch name {
	case "plan":
		return planSystemPrompt
	case "design":
		return designSystemPrompt
	case "implement":
		return implementSystemPrompt
	case "test":
		return testSystemPrompt
	case "review":
		return reviewSystemPrompt
	default:
		return ""
	}
}

// Spec describes the document a run is producing. Topic is required; the rest
// sharpen the prompts when present.
type Spec struct {
	Topic       string
	Description string
	Audience    string
	Constraints string
}

// TaskForPhase builds the task prompt for one phase of the document.
func TaskForPhase(name string, spec Spec) (string, error) {
	if SystemForPhase(name) == "" {
		return "", fmt.Errorf("unknown phase %q", name)
	}
	if strings.TrimSpace(spec.Topic) == "" {
		return "", fmt.Errorf("document topic is required")
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Write the %s section of an engineering document about: %s\n", name, spec.Topic))
	if spec.Description != "" {
		b.WriteString(fmt.Sprintf("\nBackground:\n%s\n", spec.Description))
	}
	if spec.Audience != "" {
		b.WriteString(fmt.Sprintf("\nAudience: %s\n", spec.Audience))
	}
	if spec.Constraints != "" {
		b.WriteString(fmt.Sprintf("\nConstraints:\n%s\n", spec.Constraints))
	}
	b.WriteString("\nProduce only this section, in markdown, starting with a heading.\n")
	return b.String(), nil
}

// Builder supplies initial prompts and parameters for the orchestrator.
type Builder struct {
	spec   Spec
	params phase.Params
}

// NewBuilder creates a Builder for one document run. The same request
// parameters are used for every phase's first attempt.
func NewBuilder(spec Spec, params phase.Params) *Builder {
	return &Builder{spec: spec, params: params}
}

// Build returns the initial prompt and parameters for a phase.
func (b *Builder) Build(name string) (string, phase.Params, error) {
	task, err := TaskForPhase(name, b.spec)
	if err != nil {
		return "", phase.Params{}, err
	}
	return task, b.params, nil
}
