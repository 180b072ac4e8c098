// ABOUTME: Client infrastructure for the drafter LLM layer with provider routing.
// ABOUTME: Provides the ProviderAdapter interface, NewClient with functional options, and FromEnv detection.
package llm

import (
	"context"
	"fmt"
	"os"
)

// ProviderAdapter is the interface implemented by each LLM provider backend.
type ProviderAdapter interface {
	// Name returns the provider's registered name.
	Name() string

	// Complete sends a synchronous completion request.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Stream sends a streaming request and returns a channel of events.
	// The channel is closed when the stream ends; a StreamErrorEvt event
	// precedes closure on failure.
	Stream(ctx context.Context, req Request) (<-chan StreamEvent, error)

	// Close releases resources held by the adapter.
	Close() error
}

// Client is the primary entry point for LLM API calls. It manages provider
// adapters and routes requests to the correct provider.
type Client struct {
	providers       map[string]ProviderAdapter
	defaultProvider string
	retry           RetryPolicy
}

// ClientOption is a functional option for configuring a Client.
type ClientOption func(*Client)

// WithProvider registers a ProviderAdapter under the given name. The first
// provider registered becomes the default if none has been set.
func WithProvider(name string, adapter ProviderAdapter) ClientOption {
	return func(c *Client) {
		c.providers[name] = adapter
		if c.defaultProvider == "" {
			c.defaultProvider = name
		}
	}
}

// WithDefaultProvider sets the name of the provider used when a Request does
// not specify a Provider field.
func WithDefaultProvider(name string) ClientOption {
	return func(c *Client) {
		c.defaultProvider = name
	}
}

// WithRetryPolicy overrides the retry policy applied to Complete calls and
// Stream opens. The zero policy disables retries entirely.
func WithRetryPolicy(policy RetryPolicy) ClientOption {
	return func(c *Client) {
		c.retry = policy
	}
}

// NewClient creates a new Client with the given options applied.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		providers: make(map[string]ProviderAdapter),
		retry:     DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromEnv creates a Client by detecting API keys in the environment.
// OPENAI_API_KEY registers an OpenAI adapter; OPENAI_BASE_URL optionally
// redirects it at an OpenAI-compatible endpoint. Returns a
// ConfigurationError if no keys are found.
func FromEnv() (*Client, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, &ConfigurationError{
			SDKError: SDKError{Message: "no API keys found in environment (checked OPENAI_API_KEY)"},
		}
	}

	adapter := NewOpenAIAdapter(key, WithOpenAIBaseURL(os.Getenv("OPENAI_BASE_URL")))
	return NewClient(WithProvider("openai", adapter)), nil
}

// resolveProvider determines which ProviderAdapter should handle the request.
func (c *Client) resolveProvider(req Request) (ProviderAdapter, error) {
	name := req.Provider
	if name == "" {
		name = c.defaultProvider
	}
	if name == "" {
		return nil, &ConfigurationError{
			SDKError: SDKError{Message: "no provider specified and no default provider configured"},
		}
	}

	adapter, ok := c.providers[name]
	if !ok {
		return nil, &ConfigurationError{
			SDKError: SDKError{Message: fmt.Sprintf("provider %q not registered", name)},
		}
	}
	return adapter, nil
}

// Complete sends a completion request to the appropriate provider adapter,
// retrying retryable provider errors per the client's retry policy.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	adapter, err := c.resolveProvider(req)
	if err != nil {
		return nil, err
	}

	var resp *Response
	err = Retry(ctx, c.retry, func() error {
		var callErr error
		resp, callErr = adapter.Complete(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Stream sends a streaming request to the appropriate provider adapter. The
// retry policy covers opening the stream only; errors emitted mid-stream are
// delivered as StreamErrorEvt events and are not retried.
func (c *Client) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	adapter, err := c.resolveProvider(req)
	if err != nil {
		return nil, err
	}

	var events <-chan StreamEvent
	err = Retry(ctx, c.retry, func() error {
		var openErr error
		events, openErr = adapter.Stream(ctx, req)
		return openErr
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// Close shuts down all registered provider adapters. Errors from individual
// adapters are collected and returned as a combined error.
func (c *Client) Close() error {
	var errs []error
	for name, adapter := range c.providers {
		if err := adapter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing provider %q: %w", name, err))
		}
	}
	if len(errs) > 0 {
		combined := errs[0]
		for _, e := range errs[1:] {
			combined = fmt.Errorf("%w; %v", combined, e)
		}
		return combined
	}
	return nil
}
