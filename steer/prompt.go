// ABOUTME: Corrective prompt assembly for regenerating an interrupted phase.
// ABOUTME: Pure function of the captured context, cancellation snapshot, and steering answers.
package steer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// PartialPreviewBudget is the maximum byte size of the partial-output preview
// embedded in a corrective prompt. Longer output is truncated to its tail:
// the most recent text is what the feedback most likely refers to.
const PartialPreviewBudget = 2000

// elisionMarker precedes a truncated preview so the model knows earlier
// output was dropped.
const elisionMarker = "[... earlier output elided ...]\n"

// Inputs are the three pieces a corrective prompt is assembled from. All are
// value copies; building a prompt never mutates phase state.
type Inputs struct {
	OriginalPrompt string
	PartialOutput  string
	Issue          string
	DesiredChange  string
	Constraints    string
}

// BuildCorrectivePrompt assembles the regeneration prompt for an interrupted
// phase. The same inputs always produce the same prompt. The output instructs
// the model to produce a complete replacement, not a continuation of the
// partial output.
func BuildCorrectivePrompt(in Inputs) string {
	var b strings.Builder

	b.WriteString("You previously started the following task:\n\n")
	b.WriteString("<original_task>\n")
	b.WriteString(in.OriginalPrompt)
	b.WriteString("\n</original_task>\n\n")

	b.WriteString("You were stopped partway through. Your output up to that point:\n\n")
	b.WriteString("<partial_output>\n")
	preview, truncated := tailPreview(in.PartialOutput, PartialPreviewBudget)
	if truncated {
		b.WriteString(elisionMarker)
	}
	b.WriteString(preview)
	b.WriteString("\n</partial_output>\n\n")

	b.WriteString("The user stopped you and gave this feedback:\n\n")
	b.WriteString(fmt.Sprintf("Problem with the output so far: %s\n", in.Issue))
	b.WriteString(fmt.Sprintf("What should change: %s\n", in.DesiredChange))
	if strings.TrimSpace(in.Constraints) != "" {
		b.WriteString(fmt.Sprintf("Additional constraints: %s\n", in.Constraints))
	}
	b.WriteString("\n")

	b.WriteString("Redo the task from the beginning, incorporating the feedback. ")
	b.WriteString("Produce a complete replacement, not a continuation of the partial output.\n")

	return b.String()
}

// tailPreview returns the last budget bytes of s, advanced to the next rune
// boundary so the preview never opens mid-rune.
func tailPreview(s string, budget int) (string, bool) {
	if len(s) <= budget {
		return s, false
	}
	cut := len(s) - budget
	for cut < len(s) && !utf8.RuneStart(s[cut]) {
		cut++
	}
	return s[cut:], true
}
