// ABOUTME: Defines the Status enum representing a phase's generation lifecycle state.
// ABOUTME: The orchestrator's transition table is the single source of truth; UI layers only read.
package phase

// Status represents the lifecycle state of one phase's generation.
type Status string

const (
	StatusIdle         Status = "idle"
	StatusStreaming    Status = "streaming"
	StatusComplete     Status = "complete"
	StatusInterrupted  Status = "interrupted"
	StatusSteering     Status = "steering"
	StatusRegenerating Status = "regenerating"
	StatusError        Status = "error"
)

// Terminal returns true if the phase has finished for the purposes of
// run completion. Errored phases are terminal, not blocking.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// Active returns true if a generation attempt is currently running.
func (s Status) Active() bool {
	return s == StatusStreaming || s == StatusRegenerating
}

// Icon returns a bracket-style status marker for terminal display.
func (s Status) Icon() string {
	switch s {
	case StatusIdle:
		return "[ ]"
	case StatusStreaming:
		return "[~]"
	case StatusComplete:
		return "[*]"
	case StatusInterrupted:
		return "[!]"
	case StatusSteering:
		return "[?]"
	case StatusRegenerating:
		return "[~]"
	case StatusError:
		return "[x]"
	default:
		return "[?]"
	}
}
