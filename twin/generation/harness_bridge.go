package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/nidhishmalav/career-twin/twin/generation/harness"
	ports "github.com/nidhishmalav/career-twin/twin/generation/harness/ports"
)

// HarnessGenerator implements Generator on top of the HarnessOrchestrator, so a
// generate call transparently runs the tool-call loop when tools are configured.
type HarnessGenerator struct {
	orchestrator *harness.HarnessOrchestrator
	system       string
	tools        ports.ToolDispatcher
	policy       *harness.Policy
	options      ports.Options
}

// HarnessGeneratorConfig carries the fixed inputs of every generate call.
type HarnessGeneratorConfig struct {
	System  string               // persona system prompt
	Tools   ports.ToolDispatcher // optional
	Policy  *harness.Policy      // nil means harness defaults
	Options ports.Options
}

// NewHarnessGenerator creates a new generator that uses the harness under the hood.
func NewHarnessGenerator(orchestrator *harness.HarnessOrchestrator, cfg HarnessGeneratorConfig) *HarnessGenerator {
	return &HarnessGenerator{
		orchestrator: orchestrator,
		system:       cfg.System,
		tools:        cfg.Tools,
		policy:       cfg.Policy,
		options:      cfg.Options,
	}
}

// Generate implements the Generator interface using the harness.
func (g *HarnessGenerator) Generate(ctx context.Context, history History, message, extraInstruction string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	system := g.system
	if extraInstruction != "" {
		system += "\n\n" + extraInstruction
	}

	resp, err := g.orchestrator.Orchestrate(ctx, &harness.Request{
		Conversation: &harness.Conversation{
			ID:       harness.ConversationID(ctx),
			Messages: convertMessages(history, message),
		},
		System:  system,
		Tools:   g.tools,
		Options: g.options,
		Policy:  g.policy,
	})
	if err != nil {
		return "", fmt.Errorf("harness orchestration failed: %w", err)
	}

	return resp.Text, nil
}

// convertMessages converts history plus the new user message to harness messages.
func convertMessages(history History, message string) []ports.PromptMessage {
	result := make([]ports.PromptMessage, 0, len(history)+1)
	for _, msg := range history {
		result = append(result, ports.PromptMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return append(result, ports.PromptMessage{Role: "user", Content: message})
}

var _ Generator = (*HarnessGenerator)(nil)
