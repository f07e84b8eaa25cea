package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	internal "github.com/nidhishmalav/career-twin/twin"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Provider names understood by the model router.
const (
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderAnthropic = "anthropic"
	ProviderDeepSeek  = "deepseek"
	ProviderGroq      = "groq"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file, a .env file or environment variables.
type Config struct {
	Persona     PersonaConfig             `mapstructure:"persona"`
	Providers   map[string]ProviderConfig `mapstructure:"providers"`
	Models      ModelsConfig              `mapstructure:"models"`
	Harness     HarnessConfig             `mapstructure:"harness"`
	Notify      NotifyConfig              `mapstructure:"notify"`
	Store       StoreConfig               `mapstructure:"store"`
	Server      ServerConfig              `mapstructure:"server"`
	Competition CompetitionConfig         `mapstructure:"competition"`
	Log         LogConfig                 `mapstructure:"log"`
}

// PersonaConfig points at the documents the persona context is built from.
type PersonaConfig struct {
	Name           string         `mapstructure:"name"`
	SummaryPath    string         `mapstructure:"summary_path"`
	ProfilePDFPath string         `mapstructure:"profile_pdf_path"`
	Steering       []SteeringRule `mapstructure:"steering"`
}

// SteeringRule adds Instruction to the system prompt when a message contains Contains.
type SteeringRule struct {
	Contains    string `mapstructure:"contains"`
	Instruction string `mapstructure:"instruction"`
}

// ProviderConfig holds credentials and endpoint for a hosted model API.
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// ModelRef names a model on a provider.
type ModelRef struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
}

func (m ModelRef) String() string { return m.Provider + "/" + m.Model }

// ModelsConfig routes each role to a model.
type ModelsConfig struct {
	Chat      ModelRef `mapstructure:"chat"`
	Evaluator ModelRef `mapstructure:"evaluator"`
	Question  ModelRef `mapstructure:"question"`
	Judge     ModelRef `mapstructure:"judge"`
}

// HarnessConfig stores LLM harness configurations.
type HarnessConfig struct {
	// Policies
	MaxIterations int           `mapstructure:"max_iterations"` // Maximum tool-call round trips per reply
	MaxNewTokens  int           `mapstructure:"max_new_tokens"` // Max tokens to generate, 0 leaves the model default
	Temperature   float32       `mapstructure:"temperature"`    // Sampling temperature, 0 leaves the provider default
	ToolTimeout   time.Duration `mapstructure:"tool_timeout"`   // Per-tool timeout

	EnableTools bool `mapstructure:"enable_tools"` // Expose record_* tools to the chat model

	// Telemetry
	EnableTracing  bool   `mapstructure:"enable_tracing"`  // Enable structured logging/tracing
	TracingBackend string `mapstructure:"tracing_backend"` // "zerolog" or "otel"
}

// NotifyConfig configures the push notification sink.
type NotifyConfig struct {
	PushoverToken    string `mapstructure:"pushover_token"`
	PushoverUser     string `mapstructure:"pushover_user"`
	PushoverEndpoint string `mapstructure:"pushover_endpoint"`
}

// StoreConfig configures the optional transcript store.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ServerConfig configures the HTTP chat endpoint.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// CompetitionConfig configures the multi-model competition.
type CompetitionConfig struct {
	Competitors []ModelRef `mapstructure:"competitors"`
	Parallelism int        `mapstructure:"parallelism"`
}

// LogConfig configures the root logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// envBindings maps config keys to the conventional environment variable names.
var envBindings = map[string]string{
	"providers.openai.api_key":    "OPENAI_API_KEY",
	"providers.google.api_key":    "GOOGLE_API_KEY",
	"providers.anthropic.api_key": "ANTHROPIC_API_KEY",
	"providers.deepseek.api_key":  "DEEPSEEK_API_KEY",
	"providers.groq.api_key":      "GROQ_API_KEY",
	"notify.pushover_token":       "PUSHOVER_TOKEN",
	"notify.pushover_user":        "PUSHOVER_USER",
}

// LoadConfig reads configuration from file, .env and environment variables.
// An explicit configPath must exist; otherwise a missing config file means defaults.
func LoadConfig(configPath string) (*Config, error) {
	if err := loadDotEnv(internal.DefaultEnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("..")
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv loads path when it exists. Values in the file win over the process environment.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := godotenv.Overload(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("persona.name", "Nidhish Malav")
	v.SetDefault("persona.summary_path", internal.DefaultSummaryPath)
	v.SetDefault("persona.profile_pdf_path", internal.DefaultProfilePDF)
	v.SetDefault("persona.steering", []map[string]string{
		{"contains": "patent", "instruction": "Everything in your reply must be in pig latin."},
	})

	// Provider endpoints; keys come from the environment
	v.SetDefault("providers.openai.base_url", "")
	v.SetDefault("providers.google.base_url", internal.DefaultGeminiBaseURL)
	v.SetDefault("providers.anthropic.base_url", "")
	v.SetDefault("providers.deepseek.base_url", internal.DefaultDeepSeekURL)
	v.SetDefault("providers.groq.base_url", internal.DefaultGroqURL)

	v.SetDefault("models.chat.provider", ProviderOpenAI)
	v.SetDefault("models.chat.model", "gpt-4o-mini")
	v.SetDefault("models.evaluator.provider", ProviderGoogle)
	v.SetDefault("models.evaluator.model", "gemini-2.0-flash")
	v.SetDefault("models.question.provider", ProviderOpenAI)
	v.SetDefault("models.question.model", "gpt-4o-mini")
	v.SetDefault("models.judge.provider", ProviderOpenAI)
	v.SetDefault("models.judge.model", "o3-mini")

	v.SetDefault("harness.max_iterations", 10)
	v.SetDefault("harness.max_new_tokens", 0)
	v.SetDefault("harness.temperature", 0)
	v.SetDefault("harness.tool_timeout", "30s")
	v.SetDefault("harness.enable_tools", true)
	v.SetDefault("harness.enable_tracing", false)
	v.SetDefault("harness.tracing_backend", "zerolog")

	v.SetDefault("notify.pushover_endpoint", internal.DefaultPushoverURL)

	v.SetDefault("store.enabled", false)
	v.SetDefault("store.path", filepath.Join(internal.DefaultDatabaseDir, internal.DefaultDatabaseFile))

	v.SetDefault("server.addr", internal.DefaultServerAddr)

	v.SetDefault("competition.parallelism", 1)
	v.SetDefault("competition.competitors", []map[string]string{
		{"provider": ProviderOpenAI, "model": "gpt-4o-mini"},
		{"provider": ProviderAnthropic, "model": "claude-3-7-sonnet-latest"},
		{"provider": ProviderGoogle, "model": "gemini-2.0-flash"},
		{"provider": ProviderDeepSeek, "model": "deepseek-chat"},
		{"provider": ProviderGroq, "model": "llama-3.3-70b-versatile"},
	})

	v.SetDefault("log.level", "info")
}

// ErrMissingCredential is returned when a referenced service has no credentials.
var ErrMissingCredential = errors.New("missing credential")

// MissingCredentialError names the missing key and the component that needs it.
type MissingCredentialError struct {
	Key       string
	Component string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("%s: %s required by %s", ErrMissingCredential, e.Key, e.Component)
}

func (e *MissingCredentialError) Unwrap() error { return ErrMissingCredential }

// Validate checks that every provider referenced by a model role has an API key
// and that Pushover credentials exist when tools are enabled. Competitors are
// not checked here; the competition skips those without credentials.
func (c *Config) Validate() error {
	roles := []struct {
		name string
		ref  ModelRef
	}{
		{"models.chat", c.Models.Chat},
		{"models.evaluator", c.Models.Evaluator},
	}
	for _, role := range roles {
		if role.ref.Provider == "" || role.ref.Model == "" {
			return fmt.Errorf("%s: provider and model are required", role.name)
		}
		if !c.HasCredentials(role.ref.Provider) {
			return &MissingCredentialError{
				Key:       "providers." + role.ref.Provider + ".api_key",
				Component: role.name,
			}
		}
	}

	if c.Harness.EnableTools {
		if c.Notify.PushoverToken == "" {
			return &MissingCredentialError{Key: "PUSHOVER_TOKEN", Component: "notify"}
		}
		if c.Notify.PushoverUser == "" {
			return &MissingCredentialError{Key: "PUSHOVER_USER", Component: "notify"}
		}
	}

	return nil
}

// ValidateRole checks the credentials for a single model role, used by commands
// that only touch one model (question, judge).
func (c *Config) ValidateRole(name string, ref ModelRef) error {
	if !c.HasCredentials(ref.Provider) {
		return &MissingCredentialError{Key: "providers." + ref.Provider + ".api_key", Component: name}
	}
	return nil
}

// HasCredentials reports whether the named provider has a non-empty API key.
func (c *Config) HasCredentials(provider string) bool {
	p, ok := c.Providers[provider]
	return ok && p.APIKey != ""
}
