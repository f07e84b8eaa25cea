package harnessports

import (
	"context"
	"encoding/json"
)

// ToolSpec describes a callable tool exposed to the model.
type ToolSpec struct {
	Name        string // unique logical name
	Description string // concise doc for model selection
	JSONSchema  []byte // JSON schema for args
}

// ToolCall represents a model-invoked function with JSON arguments.
type ToolCall struct {
	ID   string // provider-assigned call id, echoed back with the result
	Name string
	Args json.RawMessage
}

// Tool defines the runtime that executes a tool call.
type Tool interface {
	Name() string
	Description() string
	Schema() []byte
	Invoke(ctx context.Context, args json.RawMessage) (any, error)
}

// ToolDispatcher routes tool calls by name and declares the available tools.
type ToolDispatcher interface {
	Specs() []ToolSpec
	Dispatch(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error)
}
