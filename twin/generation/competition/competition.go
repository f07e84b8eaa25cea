// Package competition asks several models the same question and has a judge
// model rank their answers.
package competition

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/nidhishmalav/career-twin/twin/config"
	"github.com/nidhishmalav/career-twin/twin/generation/harness"
	ports "github.com/nidhishmalav/career-twin/twin/generation/harness/ports"
	"github.com/nidhishmalav/career-twin/twin/generation/providers"
)

// QuestionRequest asks the question model for a test question.
const QuestionRequest = "Please come up with a challenging, nuanced question that I can ask a number of LLMs to evaluate their intelligence. Answer only with the question, no explanation."

var (
	// ErrNoCompetitors is returned when no competitor could be resolved.
	ErrNoCompetitors = errors.New("no competitors available")
	// ErrNoQuestion is returned when neither a question nor a question model is given.
	ErrNoQuestion = errors.New("no question and no question model configured")
)

// Competitor is a model taking part in a competition.
type Competitor struct {
	Ref      config.ModelRef
	Provider ports.Provider
}

// Answer is one competitor's reply to the question.
type Answer struct {
	Competitor config.ModelRef
	Text       string
}

// Competition runs one question across every competitor and judges the answers.
type Competition struct {
	competitors []Competitor
	question    ports.Provider
	judge       ports.Provider
	parallelism int
	options     ports.Options
	tracer      ports.Tracer
	logger      zerolog.Logger
}

// Option customizes a Competition.
type Option func(*Competition)

// WithQuestionModel lets Run invent the question when none is given.
func WithQuestionModel(provider ports.Provider) Option {
	return func(c *Competition) { c.question = provider }
}

// WithParallelism bounds how many competitors are asked at once. Values below 1 mean 1.
func WithParallelism(n int) Option {
	return func(c *Competition) { c.parallelism = n }
}

// WithOptions sets the sampling options of every call.
func WithOptions(opts ports.Options) Option {
	return func(c *Competition) { c.options = opts }
}

// WithTracer wraps competitor and judge calls in spans.
func WithTracer(tracer ports.Tracer) Option {
	return func(c *Competition) { c.tracer = tracer }
}

// WithLogger sets the competition logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Competition) { c.logger = logger }
}

// New creates a competition judged by judge.
func New(judge ports.Provider, competitors []Competitor, opts ...Option) *Competition {
	c := &Competition{
		competitors: competitors,
		judge:       judge,
		parallelism: 1,
		tracer:      harness.NoOpTracer(),
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.parallelism < 1 {
		c.parallelism = 1
	}
	return c
}

// ResolveCompetitors binds every reference through the router. Competitors whose
// provider has no credentials are skipped with a warning.
func ResolveCompetitors(router *providers.Router, refs []config.ModelRef, logger zerolog.Logger) ([]Competitor, error) {
	competitors := make([]Competitor, 0, len(refs))
	for _, ref := range refs {
		model, err := router.Model(ref)
		if errors.Is(err, providers.ErrNoCredentials) {
			logger.Warn().Str("competitor", ref.String()).Msg("Provider key not set, skipping competitor")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("competitor %s: %w", ref, err)
		}
		competitors = append(competitors, Competitor{Ref: ref, Provider: model})
	}
	if len(competitors) == 0 {
		return nil, ErrNoCompetitors
	}
	return competitors, nil
}

// Run asks question, generating one first when it is empty, and ranks the answers.
func (c *Competition) Run(ctx context.Context, question string) (*Leaderboard, error) {
	if len(c.competitors) == 0 {
		return nil, ErrNoCompetitors
	}

	if strings.TrimSpace(question) == "" {
		var err error
		question, err = c.GenerateQuestion(ctx)
		if err != nil {
			return nil, err
		}
	}

	answers, err := c.Collect(ctx, question)
	if err != nil {
		return nil, err
	}

	return c.Judge(ctx, question, answers)
}

// GenerateQuestion asks the question model for a test question.
func (c *Competition) GenerateQuestion(ctx context.Context) (string, error) {
	if c.question == nil {
		return "", ErrNoQuestion
	}

	question, err := c.ask(ctx, c.question, QuestionRequest)
	if err != nil {
		return "", fmt.Errorf("question generation failed: %w", err)
	}
	c.logger.Info().Str("question", question).Msg("Generated question")
	return question, nil
}

// Collect asks every competitor the question. Answers are returned in
// competitor order whatever the parallelism; the first failure cancels the rest.
func (c *Competition) Collect(ctx context.Context, question string) ([]Answer, error) {
	answers := make([]Answer, len(c.competitors))

	p := pool.New().WithContext(ctx).WithCancelOnError().WithMaxGoroutines(c.parallelism)
	for i, competitor := range c.competitors {
		p.Go(func(ctx context.Context) error {
			text, err := c.ask(ctx, competitor.Provider, question)
			if err != nil {
				return fmt.Errorf("competitor %s: %w", competitor.Ref, err)
			}
			answers[i] = Answer{Competitor: competitor.Ref, Text: text}
			c.logger.Info().Str("competitor", competitor.Ref.String()).Int("answer_len", len(text)).Msg("Competitor answered")
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	return answers, nil
}

// ask sends a single user message with no system prompt.
func (c *Competition) ask(ctx context.Context, provider ports.Provider, prompt string) (string, error) {
	orchestrator := harness.NewHarnessOrchestrator(provider, nil, nil, c.tracer, c.logger)
	resp, err := orchestrator.Orchestrate(ctx, &harness.Request{
		Conversation: &harness.Conversation{
			Messages: []ports.PromptMessage{{Role: "user", Content: prompt}},
		},
		Options: c.options,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
