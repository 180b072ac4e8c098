// ABOUTME: Token sources that feed the streaming generator.
// ABOUTME: Defines the TokenSource interface and an LLM-backed source built on the llm client.
package generate

import (
	"context"

	"github.com/2389-research/drafter/llm"
	"github.com/2389-research/drafter/phase"
)

// Chunk is one unit of streamed output from a TokenSource. A non-nil Err is
// terminal: the source closes the channel after sending it.
type Chunk struct {
	Text string
	Err  error
}

// TokenSource produces a stream of text chunks for a prompt. Implementations
// close the returned channel when the stream ends, and must stop producing
// when ctx is cancelled.
type TokenSource interface {
	Open(ctx context.Context, phaseName, prompt string, params phase.Params) (<-chan Chunk, error)
}

// LLMSource adapts an llm.Client stream into a TokenSource.
type LLMSource struct {
	client    *llm.Client
	provider  string
	system    string
	systemFor func(phaseName string) string
}

// LLMSourceOption is a functional option for configuring an LLMSource.
type LLMSourceOption func(*LLMSource)

// WithSourceProvider pins the source to a named provider instead of the
// client's default.
func WithSourceProvider(name string) LLMSourceOption {
	return func(s *LLMSource) {
		s.provider = name
	}
}

// WithSystemPrompt prepends a system message to every request.
func WithSystemPrompt(text string) LLMSourceOption {
	return func(s *LLMSource) {
		s.system = text
	}
}

// WithSystemPromptFunc resolves a system message per phase. A non-empty
// result overrides the static WithSystemPrompt text for that phase.
func WithSystemPromptFunc(fn func(phaseName string) string) LLMSourceOption {
	return func(s *LLMSource) {
		s.systemFor = fn
	}
}

// NewLLMSource creates an LLMSource backed by the given client.
func NewLLMSource(client *llm.Client, opts ...LLMSourceOption) *LLMSource {
	s := &LLMSource{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open starts a streaming completion and returns a channel of text chunks.
func (s *LLMSource) Open(ctx context.Context, phaseName, prompt string, params phase.Params) (<-chan Chunk, error) {
	system := s.system
	if s.systemFor != nil {
		if per := s.systemFor(phaseName); per != "" {
			system = per
		}
	}

	var messages []llm.Message
	if system != "" {
		messages = append(messages, llm.SystemMessage(system))
	}
	messages = append(messages, llm.UserMessage(prompt))

	events, err := s.client.Stream(ctx, llm.Request{
		Model:       params.Model,
		Provider:    s.provider,
		Messages:    messages,
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	ch := make(chan Chunk, 64)
	go func() {
		defer close(ch)
		for ev := range events {
			switch ev.Type {
			case llm.StreamTextDelta:
				select {
				case ch <- Chunk{Text: ev.Delta}:
				case <-ctx.Done():
					return
				}
			case llm.StreamErrorEvt:
				select {
				case ch <- Chunk{Err: ev.Error}:
				case <-ctx.Done():
				}
				return
			}
		}
	}()
	return ch, nil
}
