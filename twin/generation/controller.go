package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nidhishmalav/career-twin/twin/config"
	"github.com/nidhishmalav/career-twin/twin/generation/harness"
	ports "github.com/nidhishmalav/career-twin/twin/generation/harness/ports"
	"github.com/rs/zerolog"
)

// Stage is a step of one chat turn.
type Stage string

const (
	StageGenerated Stage = "GENERATED"
	StageEvaluated Stage = "EVALUATED"
	StageAccepted  Stage = "ACCEPTED"
	StageRevising  Stage = "REVISING"
	StageDone      Stage = "DONE"
)

// Outcome is the result of one chat turn.
type Outcome struct {
	Text     string
	Verdict  Verdict // verdict on the first candidate
	Revised  bool    // Text came from the reviser
	Attempts []Stage // stages visited, in order
}

// Recorder receives every completed turn. Failures are logged, never returned.
type Recorder interface {
	RecordTurn(ctx context.Context, conversationID, message string, outcome *Outcome) error
}

// Controller runs generate, evaluate and at most one revision per turn.
// A revised reply is returned without a second evaluation.
type Controller struct {
	generator Generator
	evaluator Evaluator
	steering  []config.SteeringRule
	tracer    ports.Tracer
	recorder  Recorder
	logger    zerolog.Logger
}

// Option customizes a Controller.
type Option func(*Controller)

// WithSteering adds per-message instructions to the first generate call.
func WithSteering(rules []config.SteeringRule) Option {
	return func(c *Controller) { c.steering = rules }
}

// WithTracer wraps each stage in a span.
func WithTracer(tracer ports.Tracer) Option {
	return func(c *Controller) { c.tracer = tracer }
}

// WithRecorder stores each completed turn.
func WithRecorder(recorder Recorder) Option {
	return func(c *Controller) { c.recorder = recorder }
}

// WithLogger sets the controller logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// NewController creates a controller over a generator and an evaluator.
func NewController(generator Generator, evaluator Evaluator, opts ...Option) *Controller {
	c := &Controller{
		generator: generator,
		evaluator: evaluator,
		tracer:    harness.NoOpTracer(),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reply produces the reply for message given the prior history.
func (c *Controller) Reply(ctx context.Context, history History, message string) (*Outcome, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	conversationID := harness.ConversationID(ctx)
	if conversationID == "" {
		conversationID = uuid.NewString()
		ctx = harness.WithConversationID(ctx, conversationID)
	}

	outcome := &Outcome{}

	candidate, err := c.stage(ctx, "generate", func(ctx context.Context) (string, error) {
		return c.generator.Generate(ctx, history, message, c.steeringInstruction(message))
	})
	if err != nil {
		return nil, fmt.Errorf("generate failed: %w", err)
	}
	outcome.Attempts = append(outcome.Attempts, StageGenerated)

	var verdict Verdict
	_, err = c.stage(ctx, "evaluate", func(ctx context.Context) (string, error) {
		var err error
		verdict, err = c.evaluator.Evaluate(ctx, history, message, candidate)
		return "", err
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate failed: %w", err)
	}
	outcome.Attempts = append(outcome.Attempts, StageEvaluated)
	outcome.Verdict = verdict

	if verdict.Acceptable {
		c.logger.Info().Msg("Passed evaluation - returning reply")
		outcome.Text = candidate
		outcome.Attempts = append(outcome.Attempts, StageAccepted)
	} else {
		c.logger.Info().Str("feedback", verdict.Feedback).Msg("Failed evaluation - retrying")
		outcome.Attempts = append(outcome.Attempts, StageRevising)

		revised, err := c.stage(ctx, "revise", func(ctx context.Context) (string, error) {
			return c.generator.Generate(ctx, history, message, RevisionInstruction(candidate, verdict.Feedback))
		})
		if err != nil {
			return nil, fmt.Errorf("revise failed: %w", err)
		}
		outcome.Text = revised
		outcome.Revised = true
	}
	outcome.Attempts = append(outcome.Attempts, StageDone)

	if c.recorder != nil {
		if err := c.recorder.RecordTurn(ctx, conversationID, message, outcome); err != nil {
			c.logger.Warn().Err(err).Str("conversation_id", conversationID).Msg("Failed to record turn")
		}
	}

	return outcome, nil
}

// RevisionInstruction tells the reviser what was rejected and why.
func RevisionInstruction(candidate, feedback string) string {
	return "## Previous answer rejected\n" +
		"## Your attempted answer:\n" + candidate + "\n\n" +
		"## Reason for rejection:\n" + feedback + "\n\n"
}

// steeringInstruction returns the instruction of the first rule the message matches.
func (c *Controller) steeringInstruction(message string) string {
	lower := strings.ToLower(message)
	for _, rule := range c.steering {
		if rule.Contains != "" && strings.Contains(lower, strings.ToLower(rule.Contains)) {
			return rule.Instruction
		}
	}
	return ""
}

func (c *Controller) stage(ctx context.Context, name string, fn func(ctx context.Context) (string, error)) (string, error) {
	ctx, finish := c.tracer.StartSpan(ctx, name, nil)
	out, err := fn(ctx)
	finish(err)
	return out, err
}
