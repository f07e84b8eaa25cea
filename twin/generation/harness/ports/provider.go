package harnessports

import (
	"context"
)

// PromptMessage represents a single chat message used to build prompts.
type PromptMessage struct {
	Role    string // "user", "assistant", "tool"
	Content string

	// ToolCalls is set on assistant messages that requested tools.
	ToolCalls []ToolCall
	// ToolCallID is set on tool messages and names the call they answer.
	ToolCallID string
}

// ResponseSchema asks the provider for structured output matching Schema.
type ResponseSchema struct {
	Name   string
	Schema []byte
}

// PromptInput aggregates everything the provider needs to produce a completion.
type PromptInput struct {
	Model    string            // model identifier on the provider
	System   string            // system instructions
	Messages []PromptMessage   // ordered chat history
	Tools    []ToolSpec        // tool declarations available to the model
	Schema   *ResponseSchema   // optional structured output request
	Meta     map[string]string // lightweight metadata for tracing
}

// Options controls sampling and limits.
type Options struct {
	MaxNewTokens int
	Temperature  float32 // 0 leaves the provider default
	// TimeoutMs applies to the provider call only (not overall harness deadline)
	TimeoutMs int
}

// FinishReason reports why the model stopped.
type FinishReason string

const (
	FinishStop      FinishReason = "stop"
	FinishToolCalls FinishReason = "tool_calls"
	FinishLength    FinishReason = "length"
)

// Usage captures token accounting for telemetry.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completion is the provider's response.
type Completion struct {
	FinishReason FinishReason
	Text         string
	ToolCalls    []ToolCall
	Raw          any    // raw provider payload for debugging/telemetry
	Usage        *Usage // optional usage information
}

// Provider is the abstraction for all LLM backends.
type Provider interface {
	Complete(ctx context.Context, in PromptInput, opts Options) (Completion, error)
}
