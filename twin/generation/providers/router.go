package providers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/nidhishmalav/career-twin/twin/config"
	ports "github.com/nidhishmalav/career-twin/twin/generation/harness/ports"
)

var (
	// ErrUnknownProvider is returned for provider names the router cannot build.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrNoCredentials is returned when a model is requested on a provider without an API key.
	ErrNoCredentials = errors.New("provider has no credentials")
)

// Router owns one client per configured provider and binds model references to them.
type Router struct {
	providers map[string]ports.Provider
	logger    zerolog.Logger
}

// NewRouter builds a client for every provider that has an API key. Providers
// without one are left out and reported by Model.
func NewRouter(providerConfigs map[string]config.ProviderConfig, logger zerolog.Logger) (*Router, error) {
	r := &Router{
		providers: make(map[string]ports.Provider),
		logger:    logger,
	}

	for name, cfg := range providerConfigs {
		if cfg.APIKey == "" {
			logger.Debug().Str("provider", name).Msg("Provider has no API key, skipping")
			continue
		}

		switch name {
		case config.ProviderAnthropic:
			r.providers[name] = NewAnthropicProvider(cfg, logger)
		case config.ProviderOpenAI, config.ProviderGoogle, config.ProviderDeepSeek, config.ProviderGroq:
			r.providers[name] = NewOpenAIProvider(name, cfg, logger)
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
		}
	}

	return r, nil
}

// Register installs provider under name, replacing any existing client.
func (r *Router) Register(name string, provider ports.Provider) {
	r.providers[name] = provider
}

// Available lists the providers the router can reach, sorted by name.
func (r *Router) Available() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Model binds ref to its provider.
func (r *Router) Model(ref config.ModelRef) (*Model, error) {
	if ref.Provider == "" || ref.Model == "" {
		return nil, fmt.Errorf("incomplete model reference %q", ref.String())
	}
	provider, ok := r.providers[ref.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoCredentials, ref.Provider)
	}
	return &Model{
		Ref:      ref,
		Config:   GetModelConfig(ref.Model),
		provider: provider,
	}, nil
}

// Model is a provider bound to one model id. It implements ports.Provider and
// fills the model id and catalog defaults into every request. Only models whose
// API requires a token limit get one by default.
type Model struct {
	Ref    config.ModelRef
	Config *ModelConfig

	provider ports.Provider
}

// Complete forwards the request to the bound provider.
func (m *Model) Complete(ctx context.Context, in ports.PromptInput, opts ports.Options) (ports.Completion, error) {
	in.Model = m.Ref.Model
	if opts.MaxNewTokens <= 0 && m.Config.DefaultMaxTokens > 0 {
		opts.MaxNewTokens = m.Config.DefaultMaxTokens
	}
	if opts.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(opts.TimeoutMs)*time.Millisecond)
		defer cancel()
	}
	return m.provider.Complete(ctx, in, opts)
}

// Route is one row of the routing table.
type Route struct {
	Role      string
	Ref       config.ModelRef
	Available bool
}

// Routes reports which provider serves each model role.
func (r *Router) Routes(models config.ModelsConfig) []Route {
	roles := []struct {
		name string
		ref  config.ModelRef
	}{
		{"chat", models.Chat},
		{"evaluator", models.Evaluator},
		{"question", models.Question},
		{"judge", models.Judge},
	}

	routes := make([]Route, 0, len(roles))
	for _, role := range roles {
		_, ok := r.providers[role.ref.Provider]
		routes = append(routes, Route{Role: role.name, Ref: role.ref, Available: ok})
	}
	return routes
}

var _ ports.Provider = (*Model)(nil)
