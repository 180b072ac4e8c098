// ABOUTME: OpenAI Chat Completions provider adapter built on the official openai-go SDK.
// ABOUTME: Supports custom base URLs for OpenAI-compatible services and streams via ChatCompletionAccumulator.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIAdapter implements ProviderAdapter using the OpenAI Chat Completions
// API. A custom base URL points it at OpenAI-compatible providers.
type OpenAIAdapter struct {
	client  openai.Client
	baseURL string
}

// OpenAIOption is a functional option for configuring an OpenAIAdapter.
type OpenAIOption func(*OpenAIAdapter)

// WithOpenAIBaseURL sets the base URL for API requests. Empty means the
// default OpenAI endpoint.
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(a *OpenAIAdapter) {
		a.baseURL = url
	}
}

// NewOpenAIAdapter creates an OpenAIAdapter with the given API key and options.
func NewOpenAIAdapter(apiKey string, opts ...OpenAIOption) *OpenAIAdapter {
	adapter := &OpenAIAdapter{}
	for _, opt := range opts {
		opt(adapter)
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if adapter.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(adapter.baseURL))
	}
	adapter.client = openai.NewClient(clientOpts...)
	return adapter
}

// Name returns the provider name for this adapter.
func (a *OpenAIAdapter) Name() string {
	return "openai"
}

// Close releases resources held by the adapter.
func (a *OpenAIAdapter) Close() error {
	return nil
}

// buildParams translates a unified Request into ChatCompletionNewParams.
func buildParams(req Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model: req.Model,
	}

	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.MaxTokens != nil {
		params.MaxCompletionTokens = openai.Int(int64(*req.MaxTokens))
	}
	if len(req.StopSequences) > 0 {
		params.Stop.OfStringArray = req.StopSequences
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}
	params.Messages = messages

	return params
}

// mapFinishReason translates a Chat Completions finish reason string.
func mapFinishReason(raw string) FinishReason {
	switch raw {
	case "stop":
		return FinishReason{Reason: FinishStop, Raw: raw}
	case "length":
		return FinishReason{Reason: FinishLength, Raw: raw}
	case "content_filter":
		return FinishReason{Reason: FinishContentFilter, Raw: raw}
	case "":
		return FinishReason{Reason: FinishOther}
	default:
		return FinishReason{Reason: FinishOther, Raw: raw}
	}
}

// convertCompletion converts a ChatCompletion into a unified Response.
func convertCompletion(completion *openai.ChatCompletion) *Response {
	resp := &Response{
		ID:       completion.ID,
		Model:    completion.Model,
		Provider: "openai",
		Usage: Usage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:  int(completion.Usage.TotalTokens),
		},
		CreatedAt: time.Unix(completion.Created, 0).UTC(),
	}
	if len(completion.Choices) > 0 {
		resp.Text = completion.Choices[0].Message.Content
		resp.FinishReason = mapFinishReason(string(completion.Choices[0].FinishReason))
	}
	return resp
}

// Complete sends a synchronous completion request.
func (a *OpenAIAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	completion, err := a.client.Chat.Completions.New(ctx, buildParams(req))
	if err != nil {
		return nil, wrapOpenAIError(err)
	}
	return convertCompletion(completion), nil
}

// Stream sends a streaming request and returns a channel of unified events.
// The goroutine driving the SDK stream closes the channel when the stream
// ends; an error event is the last event before closure on failure.
func (a *OpenAIAdapter) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	stream := a.client.Chat.Completions.NewStreaming(ctx, buildParams(req))

	ch := make(chan StreamEvent, 100)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("component=llm.openai action=stream_panic err=%v", r)
				ch <- StreamEvent{
					Type:  StreamErrorEvt,
					Error: &StreamError{SDKError: SDKError{Message: fmt.Sprintf("panic in stream processing: %v", r)}},
				}
			}
			close(ch)
		}()

		var acc openai.ChatCompletionAccumulator

		ch <- StreamEvent{Type: StreamStart}

		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)

			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				ch <- StreamEvent{
					Type:  StreamTextDelta,
					Delta: chunk.Choices[0].Delta.Content,
				}
			}
		}

		if err := stream.Err(); err != nil {
			ch <- StreamEvent{Type: StreamErrorEvt, Error: wrapOpenAIError(err)}
			return
		}

		resp := convertCompletion(&acc.ChatCompletion)
		ch <- StreamEvent{
			Type:         StreamFinish,
			Usage:        &resp.Usage,
			FinishReason: &resp.FinishReason,
			Response:     resp,
		}
	}()

	return ch, nil
}

// wrapOpenAIError maps SDK errors onto the unified error hierarchy so retry
// policies can consult retryability.
func wrapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return ErrorFromStatusCode(apiErr.StatusCode, apiErr.Message, "openai", apiErr.Code, nil)
	}
	return &NetworkError{SDKError: SDKError{Message: "openai request failed", Cause: err}}
}
