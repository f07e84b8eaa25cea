package harness

import (
	"strings"

	ports "github.com/nidhishmalav/career-twin/twin/generation/harness/ports"
)

// PromptBuilder assembles model-ready inputs from system text, messages, and tools.
type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder { return &PromptBuilder{} }

// Build normalizes system text and chat messages into a Provider PromptInput.
// The caller's message slice is copied, never modified.
func (b *PromptBuilder) Build(system string, messages []ports.PromptMessage, toolSpecs []ports.ToolSpec, schema *ports.ResponseSchema, meta map[string]string) ports.PromptInput {
	norm := func(s string) string { return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n")) }

	out := make([]ports.PromptMessage, len(messages))
	for i, m := range messages {
		out[i] = m
		out[i].Content = norm(m.Content)
	}

	return ports.PromptInput{
		System:   norm(system),
		Messages: out,
		Tools:    toolSpecs,
		Schema:   schema,
		Meta:     meta,
	}
}
