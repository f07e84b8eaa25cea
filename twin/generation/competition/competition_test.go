package competition

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nidhishmalav/career-twin/twin/config"
	ports "github.com/nidhishmalav/career-twin/twin/generation/harness/ports"
	"github.com/nidhishmalav/career-twin/twin/generation/providers"
)

// stubProvider answers with a fixed reply after an optional delay.
type stubProvider struct {
	reply string
	delay time.Duration
	err   error

	mu     sync.Mutex
	inputs []ports.PromptInput
}

func (s *stubProvider) Complete(ctx context.Context, in ports.PromptInput, opts ports.Options) (ports.Completion, error) {
	s.mu.Lock()
	s.inputs = append(s.inputs, in)
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ports.Completion{}, ctx.Err()
		}
	}
	if s.err != nil {
		return ports.Completion{}, s.err
	}
	return ports.Completion{FinishReason: ports.FinishStop, Text: s.reply}, nil
}

func (s *stubProvider) calls() []ports.PromptInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.PromptInput(nil), s.inputs...)
}

func ref(model string) config.ModelRef {
	return config.ModelRef{Provider: "stub", Model: model}
}

func TestRun_GeneratesQuestionAndRanks(t *testing.T) {
	questioner := &stubProvider{reply: "What is the meaning of life?"}
	a := &stubProvider{reply: "42"}
	b := &stubProvider{reply: "Love"}
	c := &stubProvider{reply: "Unknowable"}
	judge := &stubProvider{reply: "```json\n{\"results\": [\"3\", 1, \"2\"]}\n```"}

	comp := New(judge, []Competitor{
		{Ref: ref("alpha"), Provider: a},
		{Ref: ref("beta"), Provider: b},
		{Ref: ref("gamma"), Provider: c},
	}, WithQuestionModel(questioner), WithLogger(zerolog.Nop()))

	board, err := comp.Run(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "What is the meaning of life?", board.Question)
	require.Len(t, questioner.calls(), 1)
	assert.Equal(t, QuestionRequest, questioner.calls()[0].Messages[0].Content)
	assert.Empty(t, questioner.calls()[0].System)

	for _, p := range []*stubProvider{a, b, c} {
		calls := p.calls()
		require.Len(t, calls, 1)
		require.Len(t, calls[0].Messages, 1)
		assert.Equal(t, "user", calls[0].Messages[0].Role)
		assert.Equal(t, "What is the meaning of life?", calls[0].Messages[0].Content)
	}

	require.Len(t, board.Entries, 3)
	assert.Equal(t, Entry{Rank: 1, Competitor: ref("gamma"), Answer: "Unknowable"}, board.Entries[0])
	assert.Equal(t, Entry{Rank: 2, Competitor: ref("alpha"), Answer: "42"}, board.Entries[1])
	assert.Equal(t, Entry{Rank: 3, Competitor: ref("beta"), Answer: "Love"}, board.Entries[2])

	judged := judge.calls()[0].Messages[0].Content
	assert.Contains(t, judged, "You are judging a competition between 3 competitors.")
	assert.Contains(t, judged, "# Response from competitor 2\n\nLove\n\n")
}

func TestRun_GivenQuestionSkipsGeneration(t *testing.T) {
	questioner := &stubProvider{reply: "unused"}
	judge := &stubProvider{reply: `{"results": [1]}`}
	comp := New(judge, []Competitor{{Ref: ref("alpha"), Provider: &stubProvider{reply: "x"}}}, WithQuestionModel(questioner))

	board, err := comp.Run(context.Background(), "Why?")
	require.NoError(t, err)
	assert.Equal(t, "Why?", board.Question)
	assert.Empty(t, questioner.calls())
}

func TestRun_Errors(t *testing.T) {
	judge := &stubProvider{reply: `{"results": [1]}`}

	_, err := New(judge, nil).Run(context.Background(), "q")
	assert.ErrorIs(t, err, ErrNoCompetitors)

	_, err = New(judge, []Competitor{{Ref: ref("a"), Provider: &stubProvider{reply: "x"}}}).Run(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoQuestion)

	boom := errors.New("rate limited")
	_, err = New(judge, []Competitor{
		{Ref: ref("a"), Provider: &stubProvider{reply: "x"}},
		{Ref: ref("b"), Provider: &stubProvider{err: boom}},
	}).Run(context.Background(), "q")
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "stub/b")
	assert.Empty(t, judge.calls())

	_, err = New(&stubProvider{reply: `{"results": [4]}`}, []Competitor{{Ref: ref("a"), Provider: &stubProvider{reply: "x"}}}).Run(context.Background(), "q")
	assert.ErrorIs(t, err, ErrInvalidRanking)
}

func TestCollect_KeepsCompetitorOrder(t *testing.T) {
	var inFlight, peak atomic.Int32
	track := func(p *stubProvider) ports.Provider {
		return trackingProvider{inner: p, inFlight: &inFlight, peak: &peak}
	}

	competitors := []Competitor{
		{Ref: ref("slow"), Provider: track(&stubProvider{reply: "slow", delay: 60 * time.Millisecond})},
		{Ref: ref("medium"), Provider: track(&stubProvider{reply: "medium", delay: 30 * time.Millisecond})},
		{Ref: ref("fast"), Provider: track(&stubProvider{reply: "fast"})},
	}

	answers, err := New(nil, competitors, WithParallelism(2)).Collect(context.Background(), "q")
	require.NoError(t, err)

	require.Len(t, answers, 3)
	assert.Equal(t, Answer{Competitor: ref("slow"), Text: "slow"}, answers[0])
	assert.Equal(t, Answer{Competitor: ref("medium"), Text: "medium"}, answers[1])
	assert.Equal(t, Answer{Competitor: ref("fast"), Text: "fast"}, answers[2])
	assert.LessOrEqual(t, peak.Load(), int32(2))

	inFlight.Store(0)
	peak.Store(0)
	_, err = New(nil, competitors, WithParallelism(0)).Collect(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, int32(1), peak.Load(), "default is sequential")
}

type trackingProvider struct {
	inner    ports.Provider
	inFlight *atomic.Int32
	peak     *atomic.Int32
}

func (p trackingProvider) Complete(ctx context.Context, in ports.PromptInput, opts ports.Options) (ports.Completion, error) {
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		old := p.peak.Load()
		if n <= old || p.peak.CompareAndSwap(old, n) {
			break
		}
	}
	return p.inner.Complete(ctx, in, opts)
}

func TestResolveCompetitors(t *testing.T) {
	router, err := providers.NewRouter(map[string]config.ProviderConfig{
		config.ProviderOpenAI: {APIKey: "sk"},
	}, zerolog.Nop())
	require.NoError(t, err)

	competitors, err := ResolveCompetitors(router, []config.ModelRef{
		{Provider: config.ProviderOpenAI, Model: "gpt-4o-mini"},
		{Provider: config.ProviderAnthropic, Model: "claude-3-7-sonnet-latest"},
		{Provider: config.ProviderGroq, Model: "llama-3.3-70b-versatile"},
	}, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, competitors, 1)
	assert.Equal(t, "openai/gpt-4o-mini", competitors[0].Ref.String())

	_, err = ResolveCompetitors(router, []config.ModelRef{{Provider: config.ProviderGroq, Model: "llama"}}, zerolog.Nop())
	assert.ErrorIs(t, err, ErrNoCompetitors)

	_, err = ResolveCompetitors(router, []config.ModelRef{{Provider: config.ProviderOpenAI}}, zerolog.Nop())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoCompetitors)
}

func TestParseRanking(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []int
		wantErr string
	}{
		{name: "strings", raw: `{"results": ["2", "1", "3"]}`, want: []int{2, 1, 3}},
		{name: "integers", raw: `{"results": [3, 2, 1]}`, want: []int{3, 2, 1}},
		{name: "fenced with prose", raw: "Here you go:\n```json\n{\"results\": [\"1\", \"3\"]}\n```", want: []int{1, 3}},
		{name: "trailing comma", raw: `{"results": [1, 2,]}`, want: []int{1, 2}},
		{name: "out of range", raw: `{"results": ["4"]}`, wantErr: "out of range"},
		{name: "zero", raw: `{"results": [0]}`, wantErr: "out of range"},
		{name: "duplicate", raw: `{"results": [1, 1]}`, wantErr: "ranked twice"},
		{name: "fraction", raw: `{"results": [1.5]}`, wantErr: "invalid ranking"},
		{name: "decimal string", raw: `{"results": ["2.0"]}`, wantErr: "not a competitor number"},
		{name: "word", raw: `{"results": ["first"]}`, wantErr: "invalid ranking"},
		{name: "missing results", raw: `{"ranking": [1]}`, wantErr: "invalid ranking"},
		{name: "empty", raw: `{"results": []}`, wantErr: "empty results"},
		{name: "not json", raw: `competitor 1 wins`, wantErr: "invalid ranking"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRanking(tt.raw, 3)
			if tt.wantErr != "" {
				var rankingErr *RankingError
				require.ErrorAs(t, err, &rankingErr)
				assert.Equal(t, tt.raw, rankingErr.Raw)
				assert.ErrorIs(t, err, ErrInvalidRanking)
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJudgePrompt(t *testing.T) {
	prompt := JudgePrompt("Why is the sky blue?", []Answer{
		{Competitor: ref("a"), Text: "Rayleigh scattering."},
		{Competitor: ref("b"), Text: "Because."},
	})

	assert.Equal(t, `You are judging a competition between 2 competitors.
Each model has been given this question:

Why is the sky blue?

Your job is to evaluate each response for clarity and strength of argument, and rank them in order of best to worst.
Respond with JSON, and only JSON, with the following format:
{"results": ["best competitor number", "second best competitor number", "third best competitor number", ...]}

Here are the responses from each competitor:

# Response from competitor 1

Rayleigh scattering.

# Response from competitor 2

Because.



Now respond with the JSON with the ranked order of the competitors, nothing else. Do not include markdown formatting or code blocks.`, prompt)
}
