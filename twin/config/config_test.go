package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	internal "github.com/nidhishmalav/career-twin/twin"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ConfigTestSuite tests the config package functionality
type ConfigTestSuite struct {
	suite.Suite
	tempDir string
	origDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	var err error
	suite.origDir, err = os.Getwd()
	require.NoError(suite.T(), err)

	tempDir, err := os.MkdirTemp("", "career-twin-config-test-*")
	require.NoError(suite.T(), err)
	suite.tempDir = tempDir

	err = os.Chdir(tempDir)
	require.NoError(suite.T(), err)

	// Keep the host environment out of the assertions
	for _, env := range envBindings {
		suite.T().Setenv(env, "")
	}
}

func (suite *ConfigTestSuite) TearDownTest() {
	if suite.origDir != "" {
		os.Chdir(suite.origDir)
	}
	if suite.tempDir != "" {
		os.RemoveAll(suite.tempDir)
	}
}

func (suite *ConfigTestSuite) TestLoadConfigWithDefaults() {
	cfg, err := LoadConfig("")

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), internal.DefaultSummaryPath, cfg.Persona.SummaryPath)
	assert.Equal(suite.T(), internal.DefaultProfilePDF, cfg.Persona.ProfilePDFPath)
	assert.Equal(suite.T(), []SteeringRule{
		{Contains: "patent", Instruction: "Everything in your reply must be in pig latin."},
	}, cfg.Persona.Steering)
	assert.Zero(suite.T(), cfg.Harness.MaxNewTokens)

	assert.Equal(suite.T(), ModelRef{Provider: ProviderOpenAI, Model: "gpt-4o-mini"}, cfg.Models.Chat)
	assert.Equal(suite.T(), ModelRef{Provider: ProviderGoogle, Model: "gemini-2.0-flash"}, cfg.Models.Evaluator)
	assert.Equal(suite.T(), ModelRef{Provider: ProviderOpenAI, Model: "o3-mini"}, cfg.Models.Judge)

	assert.Equal(suite.T(), internal.DefaultGeminiBaseURL, cfg.Providers[ProviderGoogle].BaseURL)
	assert.Equal(suite.T(), internal.DefaultGroqURL, cfg.Providers[ProviderGroq].BaseURL)

	assert.Equal(suite.T(), 10, cfg.Harness.MaxIterations)
	assert.Equal(suite.T(), 30*time.Second, cfg.Harness.ToolTimeout)
	assert.True(suite.T(), cfg.Harness.EnableTools)
	assert.Equal(suite.T(), "zerolog", cfg.Harness.TracingBackend)

	assert.Equal(suite.T(), internal.DefaultPushoverURL, cfg.Notify.PushoverEndpoint)
	assert.False(suite.T(), cfg.Store.Enabled)
	assert.Equal(suite.T(), internal.DefaultServerAddr, cfg.Server.Addr)

	require.Len(suite.T(), cfg.Competition.Competitors, 5)
	assert.Equal(suite.T(), "claude-3-7-sonnet-latest", cfg.Competition.Competitors[1].Model)
	assert.Equal(suite.T(), 1, cfg.Competition.Parallelism)
}

func (suite *ConfigTestSuite) TestLoadConfigSteeringCanBeDisabled() {
	configFile := filepath.Join(suite.tempDir, "config.yaml")
	require.NoError(suite.T(), os.WriteFile(configFile, []byte("persona:\n  steering: []\n"), 0o644))

	cfg, err := LoadConfig(configFile)

	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), cfg.Persona.Steering)
}

func (suite *ConfigTestSuite) TestLoadConfigWithFile() {
	configContent := `
persona:
  name: "Ada Lovelace"
  steering:
    - contains: "patent"
      instruction: "Answer in pig latin."
models:
  chat:
    provider: anthropic
    model: claude-3-7-sonnet-latest
harness:
  max_iterations: 4
  tool_timeout: 5s
competition:
  parallelism: 3
  competitors:
    - provider: groq
      model: llama-3.3-70b-versatile
`

	configFile := filepath.Join(suite.tempDir, "config.yaml")
	err := os.WriteFile(configFile, []byte(configContent), 0o644)
	require.NoError(suite.T(), err)

	cfg, err := LoadConfig(configFile)

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), "Ada Lovelace", cfg.Persona.Name)
	require.Len(suite.T(), cfg.Persona.Steering, 1)
	assert.Equal(suite.T(), "patent", cfg.Persona.Steering[0].Contains)
	assert.Equal(suite.T(), ModelRef{Provider: ProviderAnthropic, Model: "claude-3-7-sonnet-latest"}, cfg.Models.Chat)
	// Untouched sections keep their defaults
	assert.Equal(suite.T(), "gemini-2.0-flash", cfg.Models.Evaluator.Model)
	assert.Equal(suite.T(), 4, cfg.Harness.MaxIterations)
	assert.Equal(suite.T(), 5*time.Second, cfg.Harness.ToolTimeout)
	assert.Equal(suite.T(), 3, cfg.Competition.Parallelism)
	assert.Equal(suite.T(), []ModelRef{{Provider: ProviderGroq, Model: "llama-3.3-70b-versatile"}}, cfg.Competition.Competitors)
}

func (suite *ConfigTestSuite) TestLoadConfigFromEnvironment() {
	suite.T().Setenv("OPENAI_API_KEY", "sk-test")
	suite.T().Setenv("PUSHOVER_USER", "user-key")

	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "sk-test", cfg.Providers[ProviderOpenAI].APIKey)
	assert.Equal(suite.T(), "user-key", cfg.Notify.PushoverUser)
	assert.True(suite.T(), cfg.HasCredentials(ProviderOpenAI))
	assert.False(suite.T(), cfg.HasCredentials(ProviderGoogle))
}

func (suite *ConfigTestSuite) TestDotEnvOverridesEnvironment() {
	suite.T().Setenv("GOOGLE_API_KEY", "from-shell")
	err := os.WriteFile(filepath.Join(suite.tempDir, internal.DefaultEnvFile), []byte("GOOGLE_API_KEY=from-dotenv\n"), 0o644)
	require.NoError(suite.T(), err)

	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "from-dotenv", cfg.Providers[ProviderGoogle].APIKey)
}

func (suite *ConfigTestSuite) TestLoadConfigInvalidFile() {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), cfg)
}

func (suite *ConfigTestSuite) TestLoadConfigMalformedFile() {
	malformedContent := `
harness:
  max_iterations: 5
  invalid_yaml: [unclosed bracket
`

	configFile := filepath.Join(suite.tempDir, "malformed.yaml")
	err := os.WriteFile(configFile, []byte(malformedContent), 0o644)
	require.NoError(suite.T(), err)

	cfg, err := LoadConfig(configFile)

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), cfg)
}

func validConfig() *Config {
	return &Config{
		Providers: map[string]ProviderConfig{
			ProviderOpenAI: {APIKey: "sk-openai"},
			ProviderGoogle: {APIKey: "g-key"},
		},
		Models: ModelsConfig{
			Chat:      ModelRef{Provider: ProviderOpenAI, Model: "gpt-4o-mini"},
			Evaluator: ModelRef{Provider: ProviderGoogle, Model: "gemini-2.0-flash"},
		},
		Harness: HarnessConfig{EnableTools: true},
		Notify:  NotifyConfig{PushoverToken: "token", PushoverUser: "user"},
	}
}

func TestValidate(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("missing evaluator key", func(t *testing.T) {
		cfg := validConfig()
		delete(cfg.Providers, ProviderGoogle)

		err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingCredential))

		var missing *MissingCredentialError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "providers.google.api_key", missing.Key)
		assert.Equal(t, "models.evaluator", missing.Component)
	})

	t.Run("missing pushover with tools", func(t *testing.T) {
		cfg := validConfig()
		cfg.Notify.PushoverToken = ""

		var missing *MissingCredentialError
		require.ErrorAs(t, cfg.Validate(), &missing)
		assert.Equal(t, "PUSHOVER_TOKEN", missing.Key)
	})

	t.Run("pushover not needed without tools", func(t *testing.T) {
		cfg := validConfig()
		cfg.Harness.EnableTools = false
		cfg.Notify = NotifyConfig{}

		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing model", func(t *testing.T) {
		cfg := validConfig()
		cfg.Models.Chat.Model = ""

		err := cfg.Validate()
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrMissingCredential))
	})
}

// BenchmarkLoadConfig benchmarks config loading performance
func BenchmarkLoadConfig(b *testing.B) {
	for b.Loop() {
		cfg, err := LoadConfig("")
		if err != nil {
			b.Fatal(err)
		}
		_ = cfg
	}
}
