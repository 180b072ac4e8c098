// ABOUTME: Data model for one phase's lifecycle record: content, generation context, and steering state.
// ABOUTME: Records are owned by the Store; callers only ever see deep-copied Snapshot values.
package phase

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewULID generates a new ULID using crypto/rand entropy.
// Centralized so attempt and event IDs share one entropy source.
func NewULID() ulid.ULID {
	return ulid.MustNew(ulid.Now(), rand.Reader)
}

// Params are the request parameters captured alongside a prompt for one
// generation attempt. The llm layer maps them onto a provider request.
type Params struct {
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

// GenerationContext is the prompt and parameters captured immediately before
// an attempt starts. Overwritten, never merged, on each new attempt.
type GenerationContext struct {
	OriginalPrompt string
	Params         Params
	CapturedAt     time.Time
}

// CancellationInfo is the snapshot taken at the moment a running attempt was
// cancelled. PartialOutput is immutable for the lifetime of the interruption
// cycle, even while a later attempt accumulates new content.
type CancellationInfo struct {
	PartialOutput string
	CancelledAt   time.Time
}

// SteeringAnswers is the user's feedback for an interrupted phase.
// Constraints is optional; Issue and DesiredChange are required on submit.
type SteeringAnswers struct {
	Issue         string `json:"issue"`
	DesiredChange string `json:"desired_change"`
	Constraints   string `json:"constraints,omitempty"`
}

// State is the record of one phase's lifecycle. All fields are mutated only
// through Store operations; the exported type exists so snapshots have a shape.
type State struct {
	Name      string
	Status    Status
	AttemptID ulid.ULID

	// Content holds the text chunks accumulated for the current attempt,
	// append-only within an attempt, reset at the start of a regeneration.
	Content []string

	Context      *GenerationContext
	Cancellation *CancellationInfo
	Steering     *SteeringAnswers

	// Token is the cancellation token bound to the currently running attempt,
	// nil when no attempt is in flight.
	Token *CancellationToken

	// ErrMessage holds the upstream failure message when Status is error.
	ErrMessage string
}

// ContentString returns the accumulated content joined in production order.
func (s *State) ContentString() string {
	return strings.Join(s.Content, "")
}

// Snapshot is a deep copy of a State safe to hold across concurrent writes.
type Snapshot struct {
	Name         string
	Status       Status
	AttemptID    ulid.ULID
	Content      string
	ChunkCount   int
	Context      *GenerationContext
	Cancellation *CancellationInfo
	Steering     *SteeringAnswers
	ErrMessage   string
}

// snapshot copies the state into an independent Snapshot value.
func (s *State) snapshot() Snapshot {
	snap := Snapshot{
		Name:       s.Name,
		Status:     s.Status,
		AttemptID:  s.AttemptID,
		Content:    s.ContentString(),
		ChunkCount: len(s.Content),
		ErrMessage: s.ErrMessage,
	}
	if s.Context != nil {
		c := *s.Context
		snap.Context = &c
	}
	if s.Cancellation != nil {
		c := *s.Cancellation
		snap.Cancellation = &c
	}
	if s.Steering != nil {
		a := *s.Steering
		snap.Steering = &a
	}
	return snap
}
