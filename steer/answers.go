// ABOUTME: Validation for steering answers submitted after a phase interruption.
// ABOUTME: Issue and DesiredChange are required; Constraints is optional.
package steer

import (
	"strings"

	"github.com/2389-research/drafter/phase"
)

// ValidationError reports the required steering fields that were missing or
// blank on submit.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required steering fields: " + strings.Join(e.Missing, ", ")
}

// Validate checks a set of steering answers for submission. Whitespace-only
// values count as missing.
func Validate(answers phase.SteeringAnswers) error {
	var missing []string
	if strings.TrimSpace(answers.Issue) == "" {
		missing = append(missing, "issue")
	}
	if strings.TrimSpace(answers.DesiredChange) == "" {
		missing = append(missing, "desired_change")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}
