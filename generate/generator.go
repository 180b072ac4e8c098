// ABOUTME: Streaming generator that drives one phase attempt from prompt to terminal state.
// ABOUTME: Appends chunks to the phase store, honors cooperative cancellation at chunk boundaries.
package generate

import (
	"context"
	"errors"
	"log"

	"github.com/2389-research/drafter/phase"
)

// Outcome is the terminal result of a generation attempt.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeErrored   Outcome = "errored"
)

// OnToken is invoked for each chunk after it has been appended to the store.
// UIs use it for live display; the store is always at least as current as the
// callback.
type OnToken func(phaseName, chunk string)

// Generator runs one phase attempt at a time against a TokenSource, writing
// every chunk into the phase store. It never touches any record but the one
// it was started for.
type Generator struct {
	store  *phase.Store
	source TokenSource
}

// New creates a Generator over the given store and token source.
func New(store *phase.Store, source TokenSource) *Generator {
	return &Generator{store: store, source: source}
}

// Run executes a single attempt for the named phase. It captures the
// generation context before the first chunk, streams chunks into the store,
// and checks the cancellation token at every chunk boundary. A chunk that
// arrives after the token has been triggered is dropped, never appended.
//
// Run returns OutcomeCancelled after recording the cancellation info,
// OutcomeErrored after marking the phase errored (no retry), and
// OutcomeCompleted after the source finishes cleanly.
func (g *Generator) Run(ctx context.Context, name, prompt string, params phase.Params, onToken OnToken, token *phase.CancellationToken) (Outcome, error) {
	if err := g.store.CaptureContext(name, prompt, params); err != nil {
		return OutcomeErrored, err
	}
	if err := g.store.SetStatus(name, phase.StatusStreaming); err != nil {
		return OutcomeErrored, err
	}

	// Each attempt gets its own context so that triggering the token tears
	// down the upstream source too, not just this loop. Without it the
	// source keeps streaming (and billing) until the whole run ends.
	attemptCtx, stopAttempt := context.WithCancel(ctx)
	defer stopAttempt()
	go func() {
		select {
		case <-token.Done():
			stopAttempt()
		case <-attemptCtx.Done():
		}
	}()

	chunks, err := g.source.Open(attemptCtx, name, prompt, params)
	if err != nil {
		return g.fail(name, err)
	}

	count := 0
	for {
		if token.IsTriggered() {
			return g.cancel(name, count)
		}

		select {
		case <-token.Done():
			return g.cancel(name, count)

		case <-ctx.Done():
			return g.fail(name, ctx.Err())

		case chunk, ok := <-chunks:
			if !ok {
				if err := g.store.SetStatus(name, phase.StatusComplete); err != nil {
					return OutcomeErrored, err
				}
				_ = g.store.ClearToken(name)
				log.Printf("component=generate.generator action=run_complete phase=%s chunks=%d", name, count)
				return OutcomeCompleted, nil
			}
			if chunk.Err != nil {
				return g.fail(name, chunk.Err)
			}
			// Re-check after the receive: a trigger that raced the chunk
			// wins, and the in-flight chunk is dropped.
			if token.IsTriggered() {
				return g.cancel(name, count)
			}
			if err := g.store.AppendContent(name, chunk.Text); err != nil {
				return g.fail(name, err)
			}
			count++
			if onToken != nil {
				onToken(name, chunk.Text)
			}
		}
	}
}

// cancel records the partial output and moves the phase to interrupted.
func (g *Generator) cancel(name string, count int) (Outcome, error) {
	if err := g.store.RecordCancellation(name); err != nil && !errors.Is(err, phase.ErrCancellationRecorded) {
		return OutcomeErrored, err
	}
	if err := g.store.SetStatus(name, phase.StatusInterrupted); err != nil {
		return OutcomeErrored, err
	}
	_ = g.store.ClearToken(name)
	log.Printf("component=generate.generator action=run_cancelled phase=%s chunks=%d", name, count)
	return OutcomeCancelled, nil
}

// fail marks the phase errored. Errors are not retried; regeneration is the
// user's call.
func (g *Generator) fail(name string, cause error) (Outcome, error) {
	if err := g.store.MarkError(name, cause.Error()); err != nil {
		return OutcomeErrored, err
	}
	log.Printf("component=generate.generator action=run_errored phase=%s err=%v", name, cause)
	return OutcomeErrored, cause
}
