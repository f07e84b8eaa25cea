package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ports "github.com/nidhishmalav/career-twin/twin/generation/harness/ports"
	"github.com/rs/zerolog"
)

var (
	// ErrMaxIterations is returned when the model keeps requesting tools past the policy limit.
	ErrMaxIterations = errors.New("max iterations exceeded")
	// ErrTruncated is returned when the token limit cut the reply off before any text.
	ErrTruncated = errors.New("reply truncated by token limit")
)

// Conversation represents the current state of a conversation.
type Conversation struct {
	ID       string
	Messages []ports.PromptMessage
}

// Request configures the orchestration run.
type Request struct {
	Conversation *Conversation
	System       string
	Tools        ports.ToolDispatcher  // nil disables tool calling
	Schema       *ports.ResponseSchema // optional structured output
	Options      ports.Options
	Policy       *Policy
}

// Policy controls orchestration behavior.
type Policy struct {
	MaxIterations int           // safeguard against endless tool loops
	ToolTimeout   time.Duration // per-tool timeout
}

// DefaultPolicy returns sensible defaults.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxIterations: 10,
		ToolTimeout:   30 * time.Second,
	}
}

// Response is the final output of the orchestrator.
type Response struct {
	Text       string
	ToolCalls  []ports.ToolCall // every call executed during the run, in order
	Usage      *ports.Usage     // usage of the final provider call
	Iterations int
}

// HarnessOrchestrator coordinates the tool-calling loop around a single provider.
type HarnessOrchestrator struct {
	provider ports.Provider
	builder  *PromptBuilder
	store    ports.ConversationStore
	tracer   ports.Tracer
	logger   zerolog.Logger
}

// NewHarnessOrchestrator creates a new orchestrator with dependencies.
func NewHarnessOrchestrator(
	provider ports.Provider,
	builder *PromptBuilder,
	store ports.ConversationStore,
	tracer ports.Tracer,
	logger zerolog.Logger,
) *HarnessOrchestrator {
	if builder == nil {
		builder = NewPromptBuilder()
	}
	if store == nil {
		store = &noOpStore{}
	}
	if tracer == nil {
		tracer = &noOpTracer{}
	}
	return &HarnessOrchestrator{
		provider: provider,
		builder:  builder,
		store:    store,
		tracer:   tracer,
		logger:   logger,
	}
}

// Orchestrate calls the provider and runs requested tools until the model
// produces a reply without tool calls.
func (o *HarnessOrchestrator) Orchestrate(ctx context.Context, req *Request) (resp *Response, err error) {
	if o.provider == nil {
		return nil, errors.New("orchestrator has no provider")
	}
	if req.Conversation == nil {
		req.Conversation = &Conversation{}
	}
	policy := req.Policy
	if policy == nil {
		policy = DefaultPolicy()
	}

	var toolSpecs []ports.ToolSpec
	if req.Tools != nil {
		toolSpecs = req.Tools.Specs()
	}

	ctx, finish := o.tracer.StartSpan(ctx, "orchestrate", map[string]any{
		"conversation_id": req.Conversation.ID,
		"tool_count":      len(toolSpecs),
	})
	defer func() { finish(err) }()

	// Work on a copy so the caller's history is never extended with tool traffic
	messages := append([]ports.PromptMessage(nil), req.Conversation.Messages...)
	meta := map[string]string{"conversation_id": req.Conversation.ID}

	var executed []ports.ToolCall
	for iteration := 1; ; iteration++ {
		if iteration > policy.MaxIterations {
			return nil, fmt.Errorf("%w: %d", ErrMaxIterations, policy.MaxIterations)
		}

		prompt := o.builder.Build(req.System, messages, toolSpecs, req.Schema, meta)

		callCtx, spanFinish := o.tracer.StartSpan(ctx, "provider_call", map[string]any{
			"iteration": iteration,
		})
		completion, err := o.provider.Complete(callCtx, prompt, req.Options)
		spanFinish(err)
		if err != nil {
			return nil, fmt.Errorf("provider call failed: %w", err)
		}

		if len(completion.ToolCalls) == 0 {
			if completion.FinishReason == ports.FinishLength {
				if strings.TrimSpace(completion.Text) == "" {
					return nil, fmt.Errorf("%w: no text within %d tokens", ErrTruncated, req.Options.MaxNewTokens)
				}
				o.logger.Warn().Int("iteration", iteration).Msg("Reply truncated by token limit")
			}
			return &Response{
				Text:       completion.Text,
				ToolCalls:  executed,
				Usage:      completion.Usage,
				Iterations: iteration,
			}, nil
		}

		if req.Tools == nil {
			return nil, fmt.Errorf("model requested %d tool calls but no tools are configured", len(completion.ToolCalls))
		}

		messages = append(messages, ports.PromptMessage{
			Role:      "assistant",
			Content:   completion.Text,
			ToolCalls: completion.ToolCalls,
		})

		for _, call := range completion.ToolCalls {
			result, err := o.executeTool(ctx, req, policy, call)
			if err != nil {
				return nil, fmt.Errorf("tool execution failed: %w", err)
			}
			messages = append(messages, ports.PromptMessage{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
			})
			executed = append(executed, call)
		}
	}
}

// executeTool runs one tool call under the policy timeout and records the artifact.
func (o *HarnessOrchestrator) executeTool(ctx context.Context, req *Request, policy *Policy, call ports.ToolCall) (string, error) {
	toolCtx, cancel := context.WithTimeout(ctx, policy.ToolTimeout)
	defer cancel()

	toolCtx, finish := o.tracer.StartSpan(toolCtx, "tool_call", map[string]any{
		"tool":    call.Name,
		"call_id": call.ID,
	})
	o.logger.Info().Str("tool", call.Name).Msg("Tool called")
	o.tracer.Event(toolCtx, "tool_called", map[string]any{
		"tool":            call.Name,
		"call_id":         call.ID,
		"conversation_id": req.Conversation.ID,
	})

	output, err := req.Tools.Dispatch(toolCtx, call.Name, call.Args)
	finish(err)
	if err != nil {
		return "", fmt.Errorf("tool %s failed: %w", call.Name, err)
	}

	if req.Conversation.ID != "" {
		if err := o.store.AppendToolArtifact(ctx, req.Conversation.ID, call.Name, output); err != nil {
			// Log but don't fail
			o.logger.Warn().Err(err).Str("tool", call.Name).Msg("Failed to store tool artifact")
		}
	}

	return string(output), nil
}
