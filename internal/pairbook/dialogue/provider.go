// Package dialogue generates character-voiced text: praise when a todo is
// completed, nagging when one is due or overdue, and flavour text for the
// daily fortune draw.
//
// The package is split in two layers. Provider is a thin transport interface
// over an OpenAI-compatible chat-completions API. Generator sits on top and
// owns the prompt assembly and the degradation contract: generation is
// at-most-once, has no retry or backoff, and any transport failure collapses
// to a fixed fallback phrase that callers cannot distinguish from real output.
package dialogue

import (
	"context"
	"errors"
)

// Role is the role of a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is a single message in a chat completion request.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to a single generation call.
type CompletionRequest struct {
	Model     string
	Messages  []Message
	MaxTokens int
}

// CompletionResponse is the text produced by the model.
type CompletionResponse struct {
	Text string
	// Usage holds token count information for spend tracking.
	Usage TokenUsage
}

// TokenUsage reports token consumption.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Provider is implemented by all text-generation backends.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// ErrDisabled is returned by the disabled provider on every call.
var ErrDisabled = errors.New("dialogue: generation disabled, no API key configured")

// NewDisabled returns a Provider that fails every request with ErrDisabled.
// Wired when no API key is configured: the Generator's fallback contract then
// turns every dialogue call into the fixed fallback phrase.
func NewDisabled() Provider { return disabledProvider{} }

type disabledProvider struct{}

func (disabledProvider) Complete(context.Context, CompletionRequest) (*CompletionResponse, error) {
	return nil, ErrDisabled
}
