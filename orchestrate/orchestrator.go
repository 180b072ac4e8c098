// ABOUTME: Top-level coordinator for concurrent phase generation with steering.
// ABOUTME: Launches one generator task per phase, routes cancel/steer/regenerate to exactly one phase.
package orchestrate

import (
	"context"
	"log"
	"sync"

	"github.com/2389-research/drafter/generate"
	"github.com/2389-research/drafter/phase"
	"github.com/2389-research/drafter/steer"
)

// PromptBuilder supplies the initial prompt and request parameters for a
// phase. Invoked once per first attempt; regeneration attempts derive their
// prompt from the captured context instead.
type PromptBuilder interface {
	Build(phaseName string) (string, phase.Params, error)
}

// PromptBuilderFunc adapts a function to the PromptBuilder interface.
type PromptBuilderFunc func(phaseName string) (string, phase.Params, error)

func (f PromptBuilderFunc) Build(phaseName string) (string, phase.Params, error) {
	return f(phaseName)
}

// attempt tracks one in-flight generation task for a phase.
type attempt struct {
	token   *phase.CancellationToken
	done    chan struct{}
	outcome generate.Outcome
}

// Orchestrator coordinates the full phase set: it launches generation tasks,
// enforces the lifecycle transition table, and reports overall completion.
// All phases stream concurrently; a request for one phase never blocks or
// mutates any other.
type Orchestrator struct {
	store   *phase.Store
	gen     *generate.Generator
	builder PromptBuilder
	onToken generate.OnToken

	names []string

	mu       sync.Mutex
	attempts map[string]*attempt

	allDone       chan struct{}
	doneOnce      sync.Once
	onAllComplete func()
}

// Option is a functional option for configuring an Orchestrator.
type Option func(*Orchestrator)

// WithOnToken sets a callback invoked for every chunk appended to any phase.
func WithOnToken(fn generate.OnToken) Option {
	return func(o *Orchestrator) {
		o.onToken = fn
	}
}

// WithOnAllComplete sets a callback fired exactly once when every phase in
// the run has reached a terminal status.
func WithOnAllComplete(fn func()) Option {
	return func(o *Orchestrator) {
		o.onAllComplete = fn
	}
}

// New creates an Orchestrator over the given store, generator, and prompt
// builder.
func New(store *phase.Store, gen *generate.Generator, builder PromptBuilder, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		gen:      gen,
		builder:  builder,
		attempts: make(map[string]*attempt),
		allDone:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Store returns the phase store for read-only UI access.
func (o *Orchestrator) Store() *phase.Store {
	return o.store
}

// Names returns the phase set registered by RunAll, in launch order.
func (o *Orchestrator) Names() []string {
	return append([]string(nil), o.names...)
}

// Done is closed once every phase has reached a terminal status.
func (o *Orchestrator) Done() <-chan struct{} {
	return o.allDone
}

// RunAll registers the phase set, launches one generation task per phase,
// and blocks until every phase is terminal (complete or error) or ctx is
// cancelled. Interrupted and steering phases hold completion open until the
// user regenerates or the run is abandoned via ctx.
func (o *Orchestrator) RunAll(ctx context.Context, names []string) error {
	o.names = append([]string(nil), names...)

	for _, name := range names {
		if err := o.store.Register(name); err != nil {
			return err
		}
	}

	for _, name := range names {
		prompt, params, err := o.builder.Build(name)
		if err != nil {
			if markErr := o.store.MarkError(name, err.Error()); markErr != nil {
				return markErr
			}
			continue
		}
		o.launch(ctx, name, prompt, params)
	}
	o.checkCompletion()

	select {
	case <-o.allDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// launch starts one generation task for a phase with a fresh token. The task
// owns all writes to that phase's record until it returns.
func (o *Orchestrator) launch(ctx context.Context, name, prompt string, params phase.Params) {
	token := phase.NewCancellationToken()
	attemptID, err := o.store.BindToken(name, token)
	if err != nil {
		log.Printf("component=orchestrate.orchestrator action=launch_failed phase=%s err=%v", name, err)
		return
	}

	att := &attempt{token: token, done: make(chan struct{})}
	o.mu.Lock()
	o.attempts[name] = att
	o.mu.Unlock()

	log.Printf("component=orchestrate.orchestrator action=launch phase=%s attempt=%s", name, attemptID)

	go func() {
		outcome, err := o.gen.Run(ctx, name, prompt, params, o.onToken, token)
		if err != nil && outcome != generate.OutcomeErrored {
			log.Printf("component=orchestrate.orchestrator action=attempt_failed phase=%s err=%v", name, err)
		}
		att.outcome = outcome

		o.mu.Lock()
		if o.attempts[name] == att {
			delete(o.attempts, name)
		}
		o.mu.Unlock()

		close(att.done)
		o.checkCompletion()
	}()
}

// RequestCancel triggers cooperative cancellation for one streaming phase and
// waits for the task to acknowledge by returning. A cancel for a phase that
// is not streaming is a no-op returning ProtocolError; in particular a second
// cancel on an already-interrupted phase changes nothing.
func (o *Orchestrator) RequestCancel(ctx context.Context, name string) error {
	snap, err := o.store.Get(name)
	if err != nil {
		return err
	}
	if !canTransition(snap.Status, phase.StatusInterrupted) {
		log.Printf("component=orchestrate.orchestrator action=cancel_ignored phase=%s status=%s", name, snap.Status)
		return &ProtocolError{Phase: name, Request: "cancel", Status: snap.Status}
	}

	o.mu.Lock()
	att := o.attempts[name]
	o.mu.Unlock()
	if att == nil {
		return &ProtocolError{Phase: name, Request: "cancel", Status: snap.Status}
	}

	att.token.Trigger()
	select {
	case <-att.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	log.Printf("component=orchestrate.orchestrator action=cancelled phase=%s outcome=%s", name, att.outcome)
	return nil
}

// OpenSteering moves an interrupted phase into steering, marking that the
// user is composing feedback. Idempotent for a phase already steering.
func (o *Orchestrator) OpenSteering(name string) error {
	snap, err := o.store.Get(name)
	if err != nil {
		return err
	}
	if snap.Status == phase.StatusSteering {
		return nil
	}
	if !canTransition(snap.Status, phase.StatusSteering) {
		return &ProtocolError{Phase: name, Request: "steer", Status: snap.Status}
	}
	return o.store.SetStatus(name, phase.StatusSteering)
}

// SubmitSteeringAnswers validates and records the user's feedback for an
// interrupted phase, then regenerates it. On validation failure the answers
// are rejected and the phase stays in steering awaiting a corrected submit.
func (o *Orchestrator) SubmitSteeringAnswers(ctx context.Context, name string, answers phase.SteeringAnswers) error {
	snap, err := o.store.Get(name)
	if err != nil {
		return err
	}
	if snap.Status != phase.StatusSteering && snap.Status != phase.StatusInterrupted {
		return &ProtocolError{Phase: name, Request: "steer", Status: snap.Status}
	}
	if snap.Status == phase.StatusInterrupted {
		if err := o.store.SetStatus(name, phase.StatusSteering); err != nil {
			return err
		}
	}

	if err := steer.Validate(answers); err != nil {
		log.Printf("component=orchestrate.orchestrator action=steering_rejected phase=%s err=%v", name, err)
		return err
	}
	if err := o.store.RecordSteeringAnswers(name, answers); err != nil {
		return err
	}

	return o.regenerate(ctx, name)
}

// RequestRegenerate restarts one phase without requiring new feedback. Legal
// from interrupted and steering (reusing any recorded answers, else empty
// defaults) and from error (fresh attempt from the captured context).
func (o *Orchestrator) RequestRegenerate(ctx context.Context, name string) error {
	snap, err := o.store.Get(name)
	if err != nil {
		return err
	}
	if !canTransition(snap.Status, phase.StatusRegenerating) {
		log.Printf("component=orchestrate.orchestrator action=regenerate_ignored phase=%s status=%s", name, snap.Status)
		return &ProtocolError{Phase: name, Request: "regenerate", Status: snap.Status}
	}
	return o.regenerate(ctx, name)
}

// regenerate re-derives the prompt for a new attempt from the captured
// context, cancellation snapshot, and steering answers, resets the phase,
// and launches a fresh task. The snapshot is read before the reset clears it.
func (o *Orchestrator) regenerate(ctx context.Context, name string) error {
	snap, err := o.store.Get(name)
	if err != nil {
		return err
	}
	if snap.Context == nil {
		return &ProtocolError{Phase: name, Request: "regenerate", Status: snap.Status}
	}

	prompt := snap.Context.OriginalPrompt
	if snap.Cancellation != nil || snap.Steering != nil {
		in := steer.Inputs{OriginalPrompt: snap.Context.OriginalPrompt}
		if snap.Cancellation != nil {
			in.PartialOutput = snap.Cancellation.PartialOutput
		}
		if snap.Steering != nil {
			in.Issue = snap.Steering.Issue
			in.DesiredChange = snap.Steering.DesiredChange
			in.Constraints = snap.Steering.Constraints
		}
		prompt = steer.BuildCorrectivePrompt(in)
	}

	if err := o.store.SetStatus(name, phase.StatusRegenerating); err != nil {
		return err
	}
	if err := o.store.ResetForRegeneration(name); err != nil {
		return err
	}

	o.launch(ctx, name, prompt, snap.Context.Params)
	return nil
}

// checkCompletion fires the completion signal once all phases are terminal.
func (o *Orchestrator) checkCompletion() {
	if len(o.names) == 0 || !o.store.AllComplete(o.names) {
		return
	}
	o.doneOnce.Do(func() {
		log.Printf("component=orchestrate.orchestrator action=all_complete phases=%d", len(o.names))
		close(o.allDone)
		if o.onAllComplete != nil {
			o.onAllComplete()
		}
	})
}
