package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"

	"github.com/nidhishmalav/career-twin/twin/config"
	ports "github.com/nidhishmalav/career-twin/twin/generation/harness/ports"
)

// anthropicMaxTokens is the limit sent when none is configured; the messages
// API requires one.
const anthropicMaxTokens = 1000

// AnthropicProvider talks to the messages API.
type AnthropicProvider struct {
	client anthropic.Client
	logger zerolog.Logger
}

// NewAnthropicProvider creates a messages API client with SDK retries disabled.
func NewAnthropicProvider(cfg config.ProviderConfig, logger zerolog.Logger) *AnthropicProvider {
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicProvider{
		client: anthropic.NewClient(opts...),
		logger: logger.With().Str("provider", config.ProviderAnthropic).Logger(),
	}
}

// Complete sends one messages request. Response schemas have no native
// equivalent here and are conveyed as a system instruction.
func (p *AnthropicProvider) Complete(ctx context.Context, in ports.PromptInput, opts ports.Options) (ports.Completion, error) {
	model := GetModelConfig(in.Model)

	system := in.System
	if in.Schema != nil {
		system = joinSystem(system, schemaInstruction(in.Schema.Schema))
	}

	messages, err := toAnthropicMessages(in.Messages)
	if err != nil {
		return ports.Completion{}, err
	}

	maxTokens := opts.MaxNewTokens
	if maxTokens <= 0 {
		maxTokens = model.DefaultMaxTokens
	}
	if maxTokens <= 0 {
		maxTokens = anthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(in.Model),
		MaxTokens: int64(maxTokens),
		Messages:  messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(opts.Temperature))
	}

	for _, spec := range in.Tools {
		tool, err := toAnthropicTool(spec)
		if err != nil {
			return ports.Completion{}, err
		}
		params.Tools = append(params.Tools, tool)
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return ports.Completion{}, fmt.Errorf("anthropic messages call failed: %w", err)
	}
	if len(msg.Content) == 0 {
		return ports.Completion{}, fmt.Errorf("anthropic (stop reason %s): %w", msg.StopReason, ErrEmptyCompletion)
	}

	result := ports.Completion{
		FinishReason: finishReasonFromStop(string(msg.StopReason)),
		Raw:          msg,
		Usage: &ports.Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}

	var text strings.Builder
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(b.Text)
		case anthropic.ToolUseBlock:
			args := json.RawMessage(b.Input)
			if len(args) == 0 {
				args = json.RawMessage("{}")
			}
			result.ToolCalls = append(result.ToolCalls, ports.ToolCall{
				ID:   b.ID,
				Name: b.Name,
				Args: args,
			})
		}
	}
	result.Text = text.String()

	p.logger.Debug().
		Str("model", in.Model).
		Str("stop_reason", string(msg.StopReason)).
		Int("prompt_tokens", result.Usage.PromptTokens).
		Int("completion_tokens", result.Usage.CompletionTokens).
		Msg("Messages completion")

	return result, nil
}

func finishReasonFromStop(stop string) ports.FinishReason {
	switch stop {
	case "tool_use":
		return ports.FinishToolCalls
	case "max_tokens":
		return ports.FinishLength
	default:
		return ports.FinishStop
	}
}

// toAnthropicMessages maps chat history to user/assistant turns. Tool results
// travel as user turns carrying tool_result blocks.
func toAnthropicMessages(messages []ports.PromptMessage) ([]anthropic.MessageParam, error) {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		content := msg.Content
		if content == "" {
			content = " "
		}

		switch msg.Role {
		case "user":
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(content)))
		case "assistant":
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" || len(msg.ToolCalls) == 0 {
				blocks = append(blocks, anthropic.NewTextBlock(content))
			}
			for _, call := range msg.ToolCalls {
				var input any = map[string]any{}
				if len(call.Args) > 0 {
					if err := json.Unmarshal(call.Args, &input); err != nil {
						return nil, fmt.Errorf("invalid arguments for tool call %s: %w", call.ID, err)
					}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, input, call.Name))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		case "tool":
			block := anthropic.NewToolResultBlock(msg.ToolCallID, content, false)
			// Consecutive tool results share one user turn
			if n := len(out); n > 0 && out[n-1].Role == anthropic.MessageParamRoleUser && isToolResultTurn(out[n-1]) {
				out[n-1].Content = append(out[n-1].Content, block)
				continue
			}
			out = append(out, anthropic.NewUserMessage(block))
		default:
			return nil, fmt.Errorf("unsupported message role %q", msg.Role)
		}
	}
	return out, nil
}

func isToolResultTurn(msg anthropic.MessageParam) bool {
	for _, block := range msg.Content {
		if block.OfToolResult == nil {
			return false
		}
	}
	return len(msg.Content) > 0
}

func toAnthropicTool(spec ports.ToolSpec) (anthropic.ToolUnionParam, error) {
	var schema map[string]any
	if err := json.Unmarshal(spec.JSONSchema, &schema); err != nil {
		return anthropic.ToolUnionParam{}, fmt.Errorf("invalid schema for tool %s: %w", spec.Name, err)
	}

	var inputSchema anthropic.ToolInputSchemaParam
	for k, v := range schema {
		switch k {
		case "properties":
			inputSchema.Properties = v
		case "type":
			if v != "object" {
				return anthropic.ToolUnionParam{}, fmt.Errorf("tool %s must accept an object, got %v", spec.Name, v)
			}
			inputSchema.Type = "object"
		default:
			if inputSchema.ExtraFields == nil {
				inputSchema.ExtraFields = make(map[string]any)
			}
			inputSchema.ExtraFields[k] = v
		}
	}

	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        spec.Name,
			Description: anthropic.String(spec.Description),
			InputSchema: inputSchema,
		},
	}, nil
}

var _ ports.Provider = (*AnthropicProvider)(nil)
