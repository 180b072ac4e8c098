// ABOUTME: Concurrency-safe registry of phase records with per-phase locking and event broadcast.
// ABOUTME: Each phase has exactly one writer at a time; readers snapshot safely at any moment.
package phase

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	// ErrAlreadyExists is returned when a phase name is registered twice in one run.
	ErrAlreadyExists = errors.New("phase already registered")

	// ErrUnknownPhase is returned for operations on a name that was never registered.
	ErrUnknownPhase = errors.New("unknown phase")

	// ErrCancellationRecorded is returned when a cancellation snapshot already
	// exists for the current interruption cycle.
	ErrCancellationRecorded = errors.New("cancellation already recorded")
)

// record pairs one phase's state with its own lock. There is no global lock
// across phases: contention on one phase never serializes the others.
type record struct {
	mu    sync.RWMutex
	state State
}

// Store is a concurrency-safe registry of phase records by name. Writes to a
// given phase come from its generation task or the orchestrator (never both at
// once); the UI is read-only via Get and the event broadcaster.
type Store struct {
	mu          sync.RWMutex // guards the records map, not the records
	records     map[string]*record
	broadcaster *EventBroadcaster
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		records:     make(map[string]*record),
		broadcaster: NewEventBroadcaster(),
	}
}

// Subscribe returns a channel of phase events for UI consumption.
func (s *Store) Subscribe() chan Event {
	return s.broadcaster.Subscribe()
}

// Unsubscribe removes and closes an event channel.
func (s *Store) Unsubscribe(ch chan Event) {
	s.broadcaster.Unsubscribe(ch)
}

// Register creates a phase record with status idle. Registering the same name
// twice within a run fails with ErrAlreadyExists.
func (s *Store) Register(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}
	s.records[name] = &record{state: State{Name: name, Status: StatusIdle}}
	return nil
}

// Names returns the registered phase names in no particular order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	return names
}

// lookup finds the record for a phase name.
func (s *Store) lookup(name string) (*record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPhase, name)
	}
	return rec, nil
}

// Get returns a deep-copied snapshot of the phase's current state. Safe to
// call concurrently with any writer.
func (s *Store) Get(name string) (Snapshot, error) {
	rec, err := s.lookup(name)
	if err != nil {
		return Snapshot{}, err
	}
	rec.mu.RLock()
	defer rec.mu.RUnlock()
	return rec.state.snapshot(), nil
}

// SetStatus atomically sets the phase's status. Transition legality is the
// orchestrator's job; the store only guarantees atomicity for readers.
func (s *Store) SetStatus(name string, status Status) error {
	rec, err := s.lookup(name)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	rec.state.Status = status
	rec.mu.Unlock()

	s.emit(Event{Phase: name, Kind: EventStatusChanged, Status: status})
	return nil
}

// MarkError sets the phase to the error status with the upstream message.
func (s *Store) MarkError(name, message string) error {
	rec, err := s.lookup(name)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	rec.state.Status = StatusError
	rec.state.ErrMessage = message
	rec.state.Token = nil
	rec.mu.Unlock()

	s.emit(Event{Phase: name, Kind: EventStatusChanged, Status: StatusError})
	return nil
}

// BindToken attaches a fresh cancellation token for a new attempt and assigns
// a new attempt ID. Called by the orchestrator before launching the task.
func (s *Store) BindToken(name string, token *CancellationToken) (ulid.ULID, error) {
	rec, err := s.lookup(name)
	if err != nil {
		return ulid.ULID{}, err
	}
	attemptID := NewULID()
	rec.mu.Lock()
	rec.state.Token = token
	rec.state.AttemptID = attemptID
	rec.mu.Unlock()
	return attemptID, nil
}

// ClearToken detaches the token once the attempt has returned.
func (s *Store) ClearToken(name string) error {
	rec, err := s.lookup(name)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	rec.state.Token = nil
	rec.mu.Unlock()
	return nil
}

// TokenFor returns the token bound to the currently running attempt, or nil.
func (s *Store) TokenFor(name string) (*CancellationToken, error) {
	rec, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	rec.mu.RLock()
	defer rec.mu.RUnlock()
	return rec.state.Token, nil
}

// AppendContent appends a chunk to the phase's content, preserving the order
// produced by that phase's generator.
func (s *Store) AppendContent(name, chunk string) error {
	rec, err := s.lookup(name)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	rec.state.Content = append(rec.state.Content, chunk)
	rec.mu.Unlock()

	s.emit(Event{Phase: name, Kind: EventContentDelta, Chunk: chunk})
	return nil
}

// CaptureContext overwrites the phase's generation context. Called once per
// attempt, before the first token is appended.
func (s *Store) CaptureContext(name, prompt string, params Params) error {
	rec, err := s.lookup(name)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	rec.state.Context = &GenerationContext{
		OriginalPrompt: prompt,
		Params:         params,
		CapturedAt:     time.Now().UTC(),
	}
	rec.mu.Unlock()

	s.emit(Event{Phase: name, Kind: EventContextCaptured})
	return nil
}

// RecordCancellation snapshots the current content into an immutable
// CancellationInfo with a timestamp. Any steering answers from a previous
// interruption are cleared: feedback is single-use per interruption.
func (s *Store) RecordCancellation(name string) error {
	rec, err := s.lookup(name)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	if rec.state.Cancellation != nil {
		rec.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrCancellationRecorded, name)
	}
	rec.state.Cancellation = &CancellationInfo{
		PartialOutput: rec.state.ContentString(),
		CancelledAt:   time.Now().UTC(),
	}
	rec.state.Steering = nil
	rec.mu.Unlock()

	s.emit(Event{Phase: name, Kind: EventCancellationRecorded})
	return nil
}

// RecordSteeringAnswers stores the user's feedback for an interrupted phase.
func (s *Store) RecordSteeringAnswers(name string, answers SteeringAnswers) error {
	rec, err := s.lookup(name)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	a := answers
	rec.state.Steering = &a
	rec.mu.Unlock()

	s.emit(Event{Phase: name, Kind: EventSteeringRecorded})
	return nil
}

// ResetForRegeneration clears content, cancellation info, and steering
// answers, readying the phase for a new attempt. Callers must have already
// read whatever they need to build the new prompt.
func (s *Store) ResetForRegeneration(name string) error {
	rec, err := s.lookup(name)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	rec.state.Content = nil
	rec.state.Cancellation = nil
	rec.state.Steering = nil
	rec.state.ErrMessage = ""
	rec.mu.Unlock()

	s.emit(Event{Phase: name, Kind: EventAttemptReset})
	return nil
}

// AllComplete returns true iff every named phase's status is terminal
// (complete or error). Unknown names count as not complete.
func (s *Store) AllComplete(names []string) bool {
	for _, name := range names {
		rec, err := s.lookup(name)
		if err != nil {
			return false
		}
		rec.mu.RLock()
		terminal := rec.state.Status.Terminal()
		rec.mu.RUnlock()
		if !terminal {
			return false
		}
	}
	return true
}

// emit stamps and broadcasts a phase event.
func (s *Store) emit(event Event) {
	event.EventID = NewULID()
	event.Timestamp = time.Now().UTC()
	s.broadcaster.Broadcast(event)
}
