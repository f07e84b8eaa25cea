package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nidhishmalav/career-twin/twin/config"
	"github.com/nidhishmalav/career-twin/twin/generation"
	"github.com/nidhishmalav/career-twin/twin/generation/competition"
)

type scriptedReplier struct {
	replies  []string
	errs     []error
	messages []string
	lengths  []int
}

func (r *scriptedReplier) Reply(ctx context.Context, history generation.History, message string) (*generation.Outcome, error) {
	i := len(r.messages)
	r.messages = append(r.messages, message)
	r.lengths = append(r.lengths, len(history))
	if i < len(r.errs) && r.errs[i] != nil {
		return nil, r.errs[i]
	}
	return &generation.Outcome{Text: r.replies[i]}, nil
}

func TestChatLoop(t *testing.T) {
	replier := &scriptedReplier{
		replies: []string{"Hello!", "", "I build compilers."},
		errs:    []error{nil, errors.New("provider down"), nil},
	}
	in := strings.NewReader("Hi\n\nWhat do you do?\nWhat do you do?\nexit\nnever read\n")
	var out bytes.Buffer

	require.NoError(t, chatLoop(context.Background(), replier, in, &out))

	assert.Equal(t, []string{"Hi", "What do you do?", "What do you do?"}, replier.messages)
	// The failed turn leaves history untouched
	assert.Equal(t, []int{0, 2, 2}, replier.lengths)
	assert.Contains(t, out.String(), "twin> Hello!\n")
	assert.Contains(t, out.String(), "error: provider down\n")
	assert.Contains(t, out.String(), "twin> I build compilers.\n")
}

func TestChatLoop_EOF(t *testing.T) {
	replier := &scriptedReplier{replies: []string{"Hi there"}}
	var out bytes.Buffer

	require.NoError(t, chatLoop(context.Background(), replier, strings.NewReader("Hello"), &out))
	assert.Equal(t, []string{"Hello"}, replier.messages)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger("WARN", &buf)
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	logger.Info().Msg("hidden")
	logger.Warn().Str("k", "v").Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "k=v")

	logger, err = newLogger("", &buf)
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())

	_, err = newLogger("loud", &buf)
	assert.Error(t, err)
}

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "GOOGLE_API_KEY", "ANTHROPIC_API_KEY", "DEEPSEEK_API_KEY", "GROQ_API_KEY",
		"PUSHOVER_TOKEN", "PUSHOVER_USER",
	} {
		t.Setenv(key, "")
	}
}

func TestModelsCommand(t *testing.T) {
	clearProviderEnv(t)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
providers:
  openai:
    api_key: sk-test
models:
  judge:
    provider: openai
    model: o3-mini
competition:
  competitors:
    - provider: openai
      model: gpt-4o-mini
    - provider: groq
      model: llama-3.3-70b-versatile
`), 0o644))

	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{"models", "--config", configPath, "--json", "--log-level", "error"})
	require.NoError(t, root.Execute())

	var out struct {
		Models []struct {
			Role      string `json:"role"`
			Provider  string `json:"provider"`
			Model     string `json:"model"`
			Available bool   `json:"available"`
		} `json:"models"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	require.Len(t, out.Models, 6)

	assert.Equal(t, "chat", out.Models[0].Role)
	assert.True(t, out.Models[0].Available)
	assert.Equal(t, "evaluator", out.Models[1].Role)
	assert.Equal(t, "google", out.Models[1].Provider)
	assert.False(t, out.Models[1].Available)
	assert.Equal(t, "judge", out.Models[3].Role)
	assert.Equal(t, "o3-mini", out.Models[3].Model)
	assert.Equal(t, "competitor 2", out.Models[5].Role)
	assert.False(t, out.Models[5].Available)
}

func TestChatCommand_MissingCredentials(t *testing.T) {
	clearProviderEnv(t)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("log:\n  level: error\n"), 0o644))

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(""))
	root.SetArgs([]string{"chat", "--config", configPath})

	err := root.Execute()
	assert.ErrorIs(t, err, config.ErrMissingCredential)
}

func TestWriteLeaderboard(t *testing.T) {
	board := &competition.Leaderboard{
		Question: "Why?",
		Answers: []competition.Answer{
			{Competitor: config.ModelRef{Provider: "openai", Model: "gpt-4o-mini"}, Text: "Because."},
			{Competitor: config.ModelRef{Provider: "groq", Model: "llama"}, Text: "Why not?"},
		},
		Entries: []competition.Entry{
			{Rank: 1, Competitor: config.ModelRef{Provider: "groq", Model: "llama"}, Answer: "Why not?"},
			{Rank: 2, Competitor: config.ModelRef{Provider: "openai", Model: "gpt-4o-mini"}, Answer: "Because."},
		},
	}

	var text bytes.Buffer
	require.NoError(t, writeLeaderboard(&text, board))
	assert.Contains(t, text.String(), "Question: Why?\n")
	assert.Contains(t, text.String(), "--- groq/llama ---\nWhy not?\n")
	assert.Regexp(t, `1\s+groq/llama`, text.String())

	var js bytes.Buffer
	require.NoError(t, writeLeaderboardJSON(&js, board))
	assert.JSONEq(t, `{
		"question": "Why?",
		"entries": [{"rank": 1, "competitor": "groq/llama"}, {"rank": 2, "competitor": "openai/gpt-4o-mini"}],
		"answers": [{"competitor": "openai/gpt-4o-mini", "answer": "Because."}, {"competitor": "groq/llama", "answer": "Why not?"}]
	}`, js.String())
}
