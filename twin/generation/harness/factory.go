package harness

import (
	"context"
	"database/sql"
	"time"

	"github.com/nidhishmalav/career-twin/twin/config"
	"github.com/nidhishmalav/career-twin/twin/generation/harness/adapters"
	ports "github.com/nidhishmalav/career-twin/twin/generation/harness/ports"
	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Factory creates and wires harness components from configuration.
type Factory struct {
	harnessConfig *config.HarnessConfig
	db            *sql.DB // Optional, for conversation store
	logger        zerolog.Logger

	tracer         ports.Tracer
	tracerProvider *sdktrace.TracerProvider
}

// NewFactory creates a new harness factory.
func NewFactory(harnessConfig *config.HarnessConfig, db *sql.DB, logger zerolog.Logger) *Factory {
	return &Factory{
		harnessConfig: harnessConfig,
		db:            db,
		logger:        logger,
	}
}

// CreateOrchestrator creates a HarnessOrchestrator around provider.
func (f *Factory) CreateOrchestrator(provider ports.Provider) *HarnessOrchestrator {
	return NewHarnessOrchestrator(
		provider,
		NewPromptBuilder(),
		f.CreateStore(),
		f.CreateTracer(),
		f.logger,
	)
}

// CreateTracer returns the tracer selected by config. The same tracer is
// returned on every call so spans from all components share one provider.
func (f *Factory) CreateTracer() ports.Tracer {
	if f.tracer != nil {
		return f.tracer
	}

	switch {
	case !f.harnessConfig.EnableTracing:
		f.tracer = &noOpTracer{}
	case f.harnessConfig.TracingBackend == "otel":
		f.tracerProvider = adapters.NewLoggingTracerProvider(f.logger)
		f.tracer = adapters.NewOTelTracer(f.tracerProvider)
	default:
		if f.harnessConfig.TracingBackend != "zerolog" {
			f.logger.Warn().Str("backend", f.harnessConfig.TracingBackend).Msg("Unknown tracing backend, using zerolog")
		}
		f.tracer = adapters.NewZerologTracer(f.logger)
	}
	return f.tracer
}

// CreateStore creates a conversation store adapter; without a database it is a no-op.
func (f *Factory) CreateStore() ports.ConversationStore {
	if f.db == nil {
		return &noOpStore{}
	}

	return adapters.NewLibSQLConversationStore(f.db)
}

// CreatePolicy creates a policy from config with validation.
func (f *Factory) CreatePolicy() *Policy {
	policy := &Policy{
		MaxIterations: f.harnessConfig.MaxIterations,
		ToolTimeout:   f.harnessConfig.ToolTimeout,
	}

	// Validate and clamp policy values
	if policy.MaxIterations < 1 {
		policy.MaxIterations = 1
		f.logger.Warn().Int("max_iterations", f.harnessConfig.MaxIterations).Msg("MaxIterations clamped to minimum of 1")
	}
	if policy.MaxIterations > 50 {
		policy.MaxIterations = 50
		f.logger.Warn().Int("max_iterations", f.harnessConfig.MaxIterations).Msg("MaxIterations clamped to maximum of 50")
	}

	if policy.ToolTimeout <= 0 {
		policy.ToolTimeout = 30 * time.Second
		f.logger.Warn().Dur("tool_timeout", f.harnessConfig.ToolTimeout).Msg("ToolTimeout defaulted to 30s")
	}

	return policy
}

// CreateOptions returns provider sampling options from config.
func (f *Factory) CreateOptions() ports.Options {
	return ports.Options{
		MaxNewTokens: f.harnessConfig.MaxNewTokens,
		Temperature:  f.harnessConfig.Temperature,
	}
}

// Shutdown flushes the OpenTelemetry provider when one was created.
func (f *Factory) Shutdown(ctx context.Context) error {
	if f.tracerProvider == nil {
		return nil
	}
	return f.tracerProvider.Shutdown(ctx)
}

// noOpTracer implements Tracer interface with no-op behavior.
type noOpTracer struct{}

func (t *noOpTracer) StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, func(err error)) {
	return ctx, func(err error) {}
}

func (t *noOpTracer) Event(ctx context.Context, name string, attrs map[string]any) {}

// noOpStore implements ConversationStore interface with no-op behavior.
type noOpStore struct{}

func (s *noOpStore) SaveTurn(ctx context.Context, conversationID string, turn ports.Turn) error {
	return nil
}

func (s *noOpStore) LoadContext(ctx context.Context, conversationID string, k int) ([]ports.Turn, error) {
	return nil, nil
}

func (s *noOpStore) AppendToolArtifact(ctx context.Context, conversationID, name string, payload []byte) error {
	return nil
}

// NoOpTracer returns a tracer that records nothing.
func NoOpTracer() ports.Tracer { return &noOpTracer{} }

// NoOpStore returns a store that keeps nothing.
func NoOpStore() ports.ConversationStore { return &noOpStore{} }

// Ensure all no-op types implement their interfaces.
var (
	_ ports.Tracer            = (*noOpTracer)(nil)
	_ ports.ConversationStore = (*noOpStore)(nil)
)
