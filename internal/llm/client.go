// Package llm provides the LLM client interface and its Anthropic
// implementation. The core treats the completion API as "send history plus
// a new prompt, get back assistant text or an error string".
package llm

import (
	"context"
	"errors"
)

// ChatMessage is one turn of conversation history sent to the model.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest carries everything a completion call needs.
type CompletionRequest struct {
	Model     string
	Messages  []ChatMessage
	MaxTokens int
}

// CompletionResponse is the assistant's reply plus usage metadata.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a completion request and returns the response. No
	// retries or timeouts beyond the caller's context.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string
}

// ErrNotConfigured is returned by Unconfigured for every completion.
var ErrNotConfigured = errors.New("no model provider configured, set ANTHROPIC_API_KEY")

// Unconfigured is the fallback client used when no API key is set. Every
// call fails with ErrNotConfigured, which the chat flow stores as the reply.
type Unconfigured struct{}

func (Unconfigured) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) Name() string { return "unconfigured" }
