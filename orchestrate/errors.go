// ABOUTME: Error types for the generation orchestrator.
// ABOUTME: ProtocolError marks out-of-order requests that were ignored as no-ops.
package orchestrate

import (
	"fmt"

	"github.com/2389-research/drafter/phase"
)

// ProtocolError is returned when a cancel/steer/regenerate request arrives
// for a phase whose current status does not accept it. The request has no
// effect on any phase state; callers may log it and move on.
type ProtocolError struct {
	Phase   string
	Request string
	Status  phase.Status
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("phase %q does not accept %s while %s", e.Phase, e.Request, e.Status)
}
