// ABOUTME: The phase lifecycle transition table, the single source of truth for legality.
// ABOUTME: Request handlers consult this table; readers of status never re-derive legality.
package orchestrate

import "github.com/2389-research/drafter/phase"

// transitions maps each status to the set of statuses a phase may move to
// next. complete is terminal; error is terminal except for an explicit
// user-requested regeneration.
var transitions = map[phase.Status]map[phase.Status]bool{
	phase.StatusIdle: {
		phase.StatusStreaming: true,
	},
	phase.StatusStreaming: {
		phase.StatusComplete:    true,
		phase.StatusError:       true,
		phase.StatusInterrupted: true,
	},
	phase.StatusInterrupted: {
		phase.StatusSteering:     true,
		phase.StatusRegenerating: true,
	},
	phase.StatusSteering: {
		phase.StatusRegenerating: true,
	},
	phase.StatusRegenerating: {
		phase.StatusStreaming: true,
		phase.StatusError:     true,
	},
	phase.StatusError: {
		phase.StatusRegenerating: true,
	},
	phase.StatusComplete: {},
}

// canTransition reports whether moving from one status to another is legal.
func canTransition(from, to phase.Status) bool {
	return transitions[from][to]
}
