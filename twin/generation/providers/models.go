package providers

import "strings"

// ModelConfig holds the per-model request defaults of a hosted model.
type ModelConfig struct {
	Name          string
	Model         string
	ContextLength int
	// DefaultMaxTokens is sent when no limit is configured. 0 sends no limit.
	DefaultMaxTokens int
	// Reasoning models reject sampling parameters such as temperature.
	Reasoning bool
	// JSONSchema reports support for the strict json_schema response format.
	// Without it the schema is sent as a system instruction instead.
	JSONSchema bool
}

// GetModelConfig returns the default configuration for a model
func GetModelConfig(model string) *ModelConfig {
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "o1"), strings.HasPrefix(m, "o3"), strings.HasPrefix(m, "o4"):
		return &ModelConfig{
			Name:          "OpenAI reasoning",
			Model:         model,
			ContextLength: 200000,
			Reasoning:     true,
			JSONSchema:    true,
		}
	case strings.HasPrefix(m, "gpt-4o"), strings.HasPrefix(m, "gpt-4.1"):
		return &ModelConfig{
			Name:          "GPT-4o",
			Model:         model,
			ContextLength: 128000,
			JSONSchema:    true,
		}
	case strings.HasPrefix(m, "claude"):
		return &ModelConfig{
			Name:             "Claude",
			Model:            model,
			ContextLength:    200000,
			DefaultMaxTokens: anthropicMaxTokens,
		}
	case strings.HasPrefix(m, "gemini"):
		return &ModelConfig{
			Name:          "Gemini",
			Model:         model,
			ContextLength: 1048576,
			JSONSchema:    true,
		}
	case strings.HasPrefix(m, "deepseek"):
		return &ModelConfig{
			Name:          "DeepSeek",
			Model:         model,
			ContextLength: 65536,
		}
	case strings.HasPrefix(m, "llama"):
		return &ModelConfig{
			Name:          "Llama",
			Model:         model,
			ContextLength: 131072,
		}
	default:
		return &ModelConfig{
			Name:          "Unknown Model",
			Model:         model,
			ContextLength: 8192,
		}
	}
}

// schemaInstruction asks for schema-shaped JSON on models without native support.
func schemaInstruction(schema []byte) string {
	return "Respond only with a single JSON object that matches this JSON schema, with no other text:\n" + string(schema)
}
