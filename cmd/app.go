package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nidhishmalav/career-twin/twin/config"
	"github.com/nidhishmalav/career-twin/twin/db"
	"github.com/nidhishmalav/career-twin/twin/generation"
	"github.com/nidhishmalav/career-twin/twin/generation/harness"
	"github.com/nidhishmalav/career-twin/twin/generation/harness/adapters"
	"github.com/nidhishmalav/career-twin/twin/generation/harness/tools"
	"github.com/nidhishmalav/career-twin/twin/generation/providers"
	"github.com/nidhishmalav/career-twin/twin/persona"
)

// app holds the components shared by every command. It is built once per
// invocation, after flags are parsed.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	router  *providers.Router
	factory *harness.Factory
	db      *sql.DB
}

func newApp(ctx context.Context, opts *rootOptions, stderr io.Writer) (*app, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logger, err := newLogger(level, stderr)
	if err != nil {
		return nil, err
	}

	router, err := providers.NewRouter(cfg.Providers, logger)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, router: router}

	if cfg.Store.Enabled {
		a.db, err = db.ConnectToDB(ctx, cfg.Store.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open transcript store: %w", err)
		}
	}

	a.factory = harness.NewFactory(&cfg.Harness, a.db, logger)
	return a, nil
}

// close flushes tracing and releases the transcript store.
func (a *app) close(ctx context.Context) {
	if err := a.factory.Shutdown(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to flush tracer")
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close transcript store")
		}
	}
}

// twin builds the evaluator-gated chat controller from configuration.
func (a *app) twin() (*generation.Controller, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	me, err := persona.Load(a.cfg.Persona)
	if err != nil {
		return nil, err
	}

	chatModel, err := a.router.Model(a.cfg.Models.Chat)
	if err != nil {
		return nil, fmt.Errorf("chat model: %w", err)
	}
	evaluatorModel, err := a.router.Model(a.cfg.Models.Evaluator)
	if err != nil {
		return nil, fmt.Errorf("evaluator model: %w", err)
	}

	var dispatcher *tools.Dispatcher
	if a.cfg.Harness.EnableTools {
		notifier := adapters.NewPushoverNotifier(
			a.cfg.Notify.PushoverEndpoint,
			a.cfg.Notify.PushoverToken,
			a.cfg.Notify.PushoverUser,
			nil,
		)
		dispatcher, err = tools.NewDefaultDispatcher(notifier, a.logger)
		if err != nil {
			return nil, err
		}
	}

	genCfg := generation.HarnessGeneratorConfig{
		System:  me.SystemPrompt(dispatcher != nil),
		Policy:  a.factory.CreatePolicy(),
		Options: a.factory.CreateOptions(),
	}
	if dispatcher != nil {
		genCfg.Tools = dispatcher
	}

	generator := generation.NewHarnessGenerator(a.factory.CreateOrchestrator(chatModel), genCfg)
	evaluator := generation.NewModelEvaluator(
		a.factory.CreateOrchestrator(evaluatorModel),
		me.EvaluatorPrompt(),
		a.factory.CreateOptions(),
	)

	opts := []generation.Option{
		generation.WithSteering(a.cfg.Persona.Steering),
		generation.WithTracer(a.factory.CreateTracer()),
		generation.WithLogger(a.logger),
	}
	if a.db != nil {
		opts = append(opts, generation.WithRecorder(generation.NewStoreRecorder(a.factory.CreateStore())))
	}

	a.logger.Info().
		Str("persona", me.Name).
		Str("chat", a.cfg.Models.Chat.String()).
		Str("evaluator", a.cfg.Models.Evaluator.String()).
		Bool("tools", dispatcher != nil).
		Msg("Twin ready")

	return generation.NewController(generator, evaluator, opts...), nil
}

// model resolves a single model role after checking its credentials.
func (a *app) model(role string, ref config.ModelRef) (*providers.Model, error) {
	if err := a.cfg.ValidateRole(role, ref); err != nil {
		return nil, err
	}
	return a.router.Model(ref)
}

// newLogger builds the root logger writing human-readable lines to w.
func newLogger(level string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if w == nil {
		w = os.Stderr
	}

	out := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05", NoColor: true}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}
