package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"

	"github.com/nidhishmalav/career-twin/twin/config"
	ports "github.com/nidhishmalav/career-twin/twin/generation/harness/ports"
)

// ErrEmptyCompletion is returned when a provider answers without any choice or content.
var ErrEmptyCompletion = errors.New("provider returned an empty completion")

// OpenAIProvider talks to the chat completions API. Gemini, DeepSeek and Groq
// expose the same API and are served by this type with their own base URL.
type OpenAIProvider struct {
	name   string
	client openai.Client
	logger zerolog.Logger
}

// NewOpenAIProvider creates a chat completions client. SDK retries are disabled
// so a failed call surfaces immediately as a failed turn.
func NewOpenAIProvider(name string, cfg config.ProviderConfig, logger zerolog.Logger) *OpenAIProvider {
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIProvider{
		name:   name,
		client: openai.NewClient(opts...),
		logger: logger.With().Str("provider", name).Logger(),
	}
}

// Complete sends one chat completion request.
func (p *OpenAIProvider) Complete(ctx context.Context, in ports.PromptInput, opts ports.Options) (ports.Completion, error) {
	model := GetModelConfig(in.Model)

	system := in.System
	if in.Schema != nil && !model.JSONSchema {
		system = joinSystem(system, schemaInstruction(in.Schema.Schema))
	}

	messages, err := toOpenAIMessages(system, in.Messages)
	if err != nil {
		return ports.Completion{}, err
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(in.Model),
		Messages: messages,
	}

	if opts.MaxNewTokens > 0 {
		if p.name == config.ProviderOpenAI {
			params.MaxCompletionTokens = openai.Int(int64(opts.MaxNewTokens))
		} else {
			params.MaxTokens = openai.Int(int64(opts.MaxNewTokens))
		}
	}
	if opts.Temperature > 0 && !model.Reasoning {
		params.Temperature = openai.Float(float64(opts.Temperature))
	}

	if len(in.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, 0, len(in.Tools))
		for _, spec := range in.Tools {
			var schema map[string]any
			if err := json.Unmarshal(spec.JSONSchema, &schema); err != nil {
				return ports.Completion{}, fmt.Errorf("invalid schema for tool %s: %w", spec.Name, err)
			}
			tools = append(tools, openai.ChatCompletionToolParam{
				Function: openai.FunctionDefinitionParam{
					Name:        spec.Name,
					Description: openai.String(spec.Description),
					Parameters:  openai.FunctionParameters(schema),
				},
			})
		}
		params.Tools = tools
	}

	if in.Schema != nil && model.JSONSchema {
		var schema map[string]any
		if err := json.Unmarshal(in.Schema.Schema, &schema); err != nil {
			return ports.Completion{}, fmt.Errorf("invalid response schema %s: %w", in.Schema.Name, err)
		}
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   in.Schema.Name,
					Schema: schema,
					Strict: openai.Bool(true),
				},
			},
		}
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return ports.Completion{}, fmt.Errorf("%s chat completion failed: %w", p.name, err)
	}
	if len(completion.Choices) == 0 {
		return ports.Completion{}, fmt.Errorf("%s: %w", p.name, ErrEmptyCompletion)
	}

	choice := completion.Choices[0]
	result := ports.Completion{
		FinishReason: ports.FinishReason(choice.FinishReason),
		Text:         choice.Message.Content,
		Raw:          completion,
		Usage: &ports.Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}

	for _, call := range choice.Message.ToolCalls {
		id := call.ID
		if id == "" {
			// Some compatible endpoints omit call IDs
			id = "call_" + uuid.NewString()
		}
		result.ToolCalls = append(result.ToolCalls, ports.ToolCall{
			ID:   id,
			Name: call.Function.Name,
			Args: json.RawMessage(call.Function.Arguments),
		})
	}
	if len(result.ToolCalls) > 0 {
		result.FinishReason = ports.FinishToolCalls
	}

	p.logger.Debug().
		Str("model", in.Model).
		Str("finish_reason", string(result.FinishReason)).
		Int("prompt_tokens", result.Usage.PromptTokens).
		Int("completion_tokens", result.Usage.CompletionTokens).
		Msg("Chat completion")

	return result, nil
}

func toOpenAIMessages(system string, messages []ports.PromptMessage) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			out = append(out, openai.SystemMessage(msg.Content))
		case "user":
			out = append(out, openai.UserMessage(msg.Content))
		case "assistant":
			assistant := openai.AssistantMessage(msg.Content)
			if len(msg.ToolCalls) > 0 {
				calls := make([]openai.ChatCompletionMessageToolCallParam, len(msg.ToolCalls))
				for i, call := range msg.ToolCalls {
					calls[i] = openai.ChatCompletionMessageToolCallParam{
						ID: call.ID,
						Function: openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      call.Name,
							Arguments: string(call.Args),
						},
					}
				}
				assistant.OfAssistant.ToolCalls = calls
			}
			out = append(out, assistant)
		case "tool":
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			return nil, fmt.Errorf("unsupported message role %q", msg.Role)
		}
	}
	return out, nil
}

func joinSystem(system, extra string) string {
	if system == "" {
		return extra
	}
	return system + "\n\n" + extra
}

var _ ports.Provider = (*OpenAIProvider)(nil)
