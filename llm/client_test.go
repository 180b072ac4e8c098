// ABOUTME: Tests for the Client infrastructure and provider routing.
// ABOUTME: Uses a real test double (testAdapter) implementing ProviderAdapter to verify behavior.

package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// testAdapter is a ProviderAdapter implementation returning pre-configured
// values. It records calls for verification.
type testAdapter struct {
	name          string
	completeResp  *Response
	completeErr   error
	completeErrs  []error
	streamEvents  []StreamEvent
	streamErrs    []error
	completeCalls []Request
	streamCalls   []Request
	closed        bool
	closeErr      error
	mu            sync.Mutex
}

func newTestAdapter(name string) *testAdapter {
	return &testAdapter{
		name: name,
		completeResp: &Response{
			ID:           "resp-" + name,
			Model:        "test-model",
			Provider:     name,
			Text:         "hello from " + name,
			FinishReason: FinishReason{Reason: FinishStop},
		},
	}
}

func (a *testAdapter) Name() string { return a.name }

func (a *testAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.completeCalls = append(a.completeCalls, req)
	if len(a.completeErrs) > 0 {
		err := a.completeErrs[0]
		a.completeErrs = a.completeErrs[1:]
		return nil, err
	}
	if a.completeErr != nil {
		return nil, a.completeErr
	}
	return a.completeResp, nil
}

func (a *testAdapter) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.streamCalls = append(a.streamCalls, req)
	if len(a.streamErrs) > 0 {
		err := a.streamErrs[0]
		a.streamErrs = a.streamErrs[1:]
		return nil, err
	}

	ch := make(chan StreamEvent, len(a.streamEvents))
	for _, ev := range a.streamEvents {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func (a *testAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return a.closeErr
}

func TestClientRoutesToDefaultProvider(t *testing.T) {
	adapter := newTestAdapter("fake")
	client := NewClient(WithProvider("fake", adapter))

	resp, err := client.Complete(context.Background(), Request{Model: "test-model"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Provider != "fake" {
		t.Errorf("Provider = %q, want %q", resp.Provider, "fake")
	}
	if len(adapter.completeCalls) != 1 {
		t.Errorf("completeCalls = %d, want 1", len(adapter.completeCalls))
	}
}

func TestClientRoutesByRequestProvider(t *testing.T) {
	first := newTestAdapter("first")
	second := newTestAdapter("second")
	client := NewClient(
		WithProvider("first", first),
		WithProvider("second", second),
	)

	_, err := client.Complete(context.Background(), Request{Provider: "second"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(first.completeCalls) != 0 {
		t.Error("first adapter should not have been called")
	}
	if len(second.completeCalls) != 1 {
		t.Error("second adapter should have been called once")
	}
}

func TestClientUnknownProvider(t *testing.T) {
	client := NewClient(WithProvider("fake", newTestAdapter("fake")))

	_, err := client.Complete(context.Background(), Request{Provider: "missing"})
	var confErr *ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("got %T, want ConfigurationError", err)
	}
}

func TestClientNoProviders(t *testing.T) {
	client := NewClient()

	_, err := client.Complete(context.Background(), Request{})
	var confErr *ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("got %T, want ConfigurationError", err)
	}
}

func TestClientStream(t *testing.T) {
	adapter := newTestAdapter("fake")
	adapter.streamEvents = []StreamEvent{
		{Type: StreamStart},
		{Type: StreamTextDelta, Delta: "hi"},
		{Type: StreamFinish},
	}
	client := NewClient(WithProvider("fake", adapter))

	ch, err := client.Stream(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	var types []StreamEventType
	for ev := range ch {
		types = append(types, ev.Type)
	}
	want := []StreamEventType{StreamStart, StreamTextDelta, StreamFinish}
	if len(types) != len(want) {
		t.Fatalf("got %d events, want %d", len(types), len(want))
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d: got %v, want %v", i, types[i], want[i])
		}
	}
}

// fastRetryPolicy keeps retry tests quick: no jitter, millisecond delays.
func fastRetryPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:        maxRetries,
		BaseDelay:         time.Millisecond,
		MaxDelay:          5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestClientCompleteRetriesRetryableErrors(t *testing.T) {
	adapter := newTestAdapter("fake")
	adapter.completeErrs = []error{
		&RateLimitError{ProviderError: ProviderError{
			SDKError:   SDKError{Message: "rate limited"},
			Provider:   "fake",
			StatusCode: 429,
			Retryable:  true,
		}},
	}
	client := NewClient(
		WithProvider("fake", adapter),
		WithRetryPolicy(fastRetryPolicy(2)),
	)

	resp, err := client.Complete(context.Background(), Request{Model: "test-model"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Text != "hello from fake" {
		t.Errorf("Text = %q, want %q", resp.Text, "hello from fake")
	}
	if len(adapter.completeCalls) != 2 {
		t.Errorf("adapter called %d times, want 2", len(adapter.completeCalls))
	}
}

func TestClientCompleteDoesNotRetryNonRetryableErrors(t *testing.T) {
	adapter := newTestAdapter("fake")
	adapter.completeErr = &AuthenticationError{ProviderError: ProviderError{
		SDKError:   SDKError{Message: "bad key"},
		Provider:   "fake",
		StatusCode: 401,
	}}
	client := NewClient(
		WithProvider("fake", adapter),
		WithRetryPolicy(fastRetryPolicy(2)),
	)

	_, err := client.Complete(context.Background(), Request{})
	var authErr *AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want AuthenticationError", err)
	}
	if len(adapter.completeCalls) != 1 {
		t.Errorf("adapter called %d times, want 1", len(adapter.completeCalls))
	}
}

func TestClientCompleteGivesUpAfterMaxRetries(t *testing.T) {
	retryable := &ServerError{ProviderError: ProviderError{
		SDKError:   SDKError{Message: "upstream down"},
		Provider:   "fake",
		StatusCode: 503,
		Retryable:  true,
	}}
	adapter := newTestAdapter("fake")
	adapter.completeErr = retryable
	client := NewClient(
		WithProvider("fake", adapter),
		WithRetryPolicy(fastRetryPolicy(2)),
	)

	_, err := client.Complete(context.Background(), Request{})
	var serverErr *ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("err = %v, want ServerError", err)
	}
	if len(adapter.completeCalls) != 3 {
		t.Errorf("adapter called %d times, want 3 (initial + 2 retries)", len(adapter.completeCalls))
	}
}

func TestClientStreamRetriesOpenFailure(t *testing.T) {
	adapter := newTestAdapter("fake")
	adapter.streamErrs = []error{
		&ServerError{ProviderError: ProviderError{
			SDKError:   SDKError{Message: "upstream down"},
			Provider:   "fake",
			StatusCode: 502,
			Retryable:  true,
		}},
	}
	adapter.streamEvents = []StreamEvent{
		{Type: StreamTextDelta, Delta: "hi"},
	}
	client := NewClient(
		WithProvider("fake", adapter),
		WithRetryPolicy(fastRetryPolicy(2)),
	)

	ch, err := client.Stream(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	var deltas []string
	for ev := range ch {
		if ev.Type == StreamTextDelta {
			deltas = append(deltas, ev.Delta)
		}
	}
	if len(deltas) != 1 || deltas[0] != "hi" {
		t.Errorf("deltas = %v, want [hi]", deltas)
	}
	if len(adapter.streamCalls) != 2 {
		t.Errorf("adapter called %d times, want 2", len(adapter.streamCalls))
	}
}

func TestClientCloseClosesAllAdapters(t *testing.T) {
	first := newTestAdapter("first")
	second := newTestAdapter("second")
	client := NewClient(
		WithProvider("first", first),
		WithProvider("second", second),
	)

	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !first.closed || !second.closed {
		t.Error("all adapters should be closed")
	}
}

func TestFromEnvWithoutKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := FromEnv()
	var confErr *ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("got %T, want ConfigurationError", err)
	}
}

func TestFromEnvWithOpenAIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	client, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if _, ok := client.providers["openai"]; !ok {
		t.Error("openai provider should be registered")
	}
	if client.defaultProvider != "openai" {
		t.Errorf("defaultProvider = %q, want %q", client.defaultProvider, "openai")
	}
}
