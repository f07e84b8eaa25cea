package harness

import (
	"context"

	"github.com/google/uuid"
	ports "github.com/nidhishmalav/career-twin/twin/generation/harness/ports"
	"github.com/rs/zerolog"
)

// Agent is a named set of instructions bound to a provider.
type Agent struct {
	Name         string
	Instructions string
	Provider     ports.Provider
	Tools        ports.ToolDispatcher // optional
}

// Runner executes agents, each run wrapped in a named trace.
type Runner struct {
	tracer  ports.Tracer
	logger  zerolog.Logger
	policy  *Policy
	options ports.Options
}

// NewRunner creates a runner. Nil tracer and policy fall back to no-op and defaults.
func NewRunner(tracer ports.Tracer, policy *Policy, options ports.Options, logger zerolog.Logger) *Runner {
	if tracer == nil {
		tracer = &noOpTracer{}
	}
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Runner{tracer: tracer, logger: logger, policy: policy, options: options}
}

// Run sends input to agent inside a trace called traceName and returns the final reply.
func (r *Runner) Run(ctx context.Context, traceName string, agent Agent, input string) (resp *Response, err error) {
	traceID := uuid.NewString()
	ctx, finishTrace := r.tracer.StartSpan(ctx, traceName, map[string]any{
		"trace_id": traceID,
	})
	defer func() { finishTrace(err) }()

	ctx, finishAgent := r.tracer.StartSpan(ctx, "agent", map[string]any{
		"agent": agent.Name,
	})
	defer func() { finishAgent(err) }()

	orchestrator := NewHarnessOrchestrator(agent.Provider, nil, nil, r.tracer, r.logger)
	resp, err = orchestrator.Orchestrate(ctx, &Request{
		Conversation: &Conversation{
			ID:       traceID,
			Messages: []ports.PromptMessage{{Role: "user", Content: input}},
		},
		System:  agent.Instructions,
		Tools:   agent.Tools,
		Options: r.options,
		Policy:  r.policy,
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug().Str("agent", agent.Name).Int("iterations", resp.Iterations).Msg("Agent run finished")
	return resp, nil
}
