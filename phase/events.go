// ABOUTME: Phase event types and a fan-out broadcaster for UI subscribers.
// ABOUTME: Broadcast is non-blocking per subscriber: slow consumers drop events rather than stall writers.
package phase

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventKind discriminates the type of phase event.
type EventKind string

const (
	EventStatusChanged        EventKind = "status_changed"
	EventContentDelta         EventKind = "content_delta"
	EventContextCaptured      EventKind = "context_captured"
	EventCancellationRecorded EventKind = "cancellation_recorded"
	EventSteeringRecorded     EventKind = "steering_recorded"
	EventAttemptReset         EventKind = "attempt_reset"
)

// Event is a single observable mutation of one phase's record.
type Event struct {
	EventID   ulid.ULID
	Phase     string
	Kind      EventKind
	Status    Status
	Chunk     string
	Timestamp time.Time
}

// EventBroadcaster provides fan-out delivery of phase events to multiple
// subscribers. Each subscriber gets a buffered channel.
type EventBroadcaster struct {
	mu          sync.RWMutex
	subscribers []chan Event
}

// NewEventBroadcaster creates a broadcaster with no initial subscribers.
func NewEventBroadcaster() *EventBroadcaster {
	return &EventBroadcaster{}
}

// Subscribe creates a new buffered channel for receiving broadcast events.
func (b *EventBroadcaster) Subscribe() chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, 1024)
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Unsubscribe removes a channel from the subscriber list and closes it.
func (b *EventBroadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subscribers {
		if sub == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// Broadcast sends an event to all subscribers. Non-blocking: drops if a
// subscriber's buffer is full.
func (b *EventBroadcaster) Broadcast(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// Drop if subscriber buffer is full
		}
	}
}
