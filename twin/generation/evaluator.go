package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nidhishmalav/career-twin/twin/generation/harness"
	ports "github.com/nidhishmalav/career-twin/twin/generation/harness/ports"
)

// Evaluator judges a candidate reply in the context of the conversation that produced it.
type Evaluator interface {
	Evaluate(ctx context.Context, history History, message, candidate string) (Verdict, error)
}

// ModelEvaluator asks a second model for a structured verdict.
type ModelEvaluator struct {
	orchestrator *harness.HarnessOrchestrator
	system       string
	options      ports.Options
}

// NewModelEvaluator creates an evaluator. system is the evaluator persona prompt.
func NewModelEvaluator(orchestrator *harness.HarnessOrchestrator, system string, options ports.Options) *ModelEvaluator {
	return &ModelEvaluator{
		orchestrator: orchestrator,
		system:       system,
		options:      options,
	}
}

// Evaluate sends the judging prompt and parses the verdict. Any reply that does
// not match the verdict shape is a *MalformedVerdictError.
func (e *ModelEvaluator) Evaluate(ctx context.Context, history History, message, candidate string) (Verdict, error) {
	resp, err := e.orchestrator.Orchestrate(ctx, &harness.Request{
		Conversation: &harness.Conversation{
			ID: harness.ConversationID(ctx),
			Messages: []ports.PromptMessage{
				{Role: "user", Content: EvaluatorUserPrompt(history, message, candidate)},
			},
		},
		System:  e.system,
		Schema:  verdictResponse,
		Options: e.options,
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("evaluator call failed: %w", err)
	}

	return ParseVerdict(resp.Text)
}

// EvaluatorUserPrompt embeds the conversation, the latest message and the candidate reply.
func EvaluatorUserPrompt(history History, message, candidate string) string {
	var sb strings.Builder
	sb.WriteString("Here's the conversation between the User and the Agent: \n\n")
	sb.WriteString(renderHistory(history))
	sb.WriteString("\n\n")
	sb.WriteString("Here's the latest message from the User: \n\n")
	sb.WriteString(message)
	sb.WriteString("\n\n")
	sb.WriteString("Here's the latest response from the Agent: \n\n")
	sb.WriteString(candidate)
	sb.WriteString("\n\n")
	sb.WriteString("Please evaluate the response, replying with whether it is acceptable and your feedback.")
	return sb.String()
}

func renderHistory(history History) string {
	if history == nil {
		history = History{}
	}
	out, err := json.Marshal(history)
	if err != nil {
		return "[]"
	}
	return string(out)
}

var _ Evaluator = (*ModelEvaluator)(nil)
