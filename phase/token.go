// ABOUTME: One-shot cooperative cancellation token bound to a single generation attempt.
// ABOUTME: Trigger is idempotent; IsTriggered is a cheap atomic read; Done supports select loops.
package phase

import (
	"sync"
	"sync/atomic"
)

// CancellationToken is a one-shot signal used to cooperatively stop a running
// generation attempt. A token is created fresh per attempt and never reused.
type CancellationToken struct {
	once      sync.Once
	done      chan struct{}
	triggered atomic.Bool
}

// NewCancellationToken creates an untriggered token.
func NewCancellationToken() *CancellationToken {
	return &CancellationToken{done: make(chan struct{})}
}

// Trigger fires the token. Calling it more than once has no additional effect.
func (t *CancellationToken) Trigger() {
	t.once.Do(func() {
		t.triggered.Store(true)
		close(t.done)
	})
}

// IsTriggered reports whether the token has fired. Non-blocking.
func (t *CancellationToken) IsTriggered() bool {
	return t.triggered.Load()
}

// Done returns a channel closed when the token fires, so generation loops can
// select on it while awaiting the next upstream token.
func (t *CancellationToken) Done() <-chan struct{} {
	return t.done
}
