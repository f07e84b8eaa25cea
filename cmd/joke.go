package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nidhishmalav/career-twin/twin/generation/harness"
	"github.com/nidhishmalav/career-twin/twin/generation/harness/adapters"
)

func newJokeCmd(opts *rootOptions) *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:   "joke",
		Short: "Run a one-shot joke-telling agent inside a trace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				model, err := a.model("models.chat", a.cfg.Models.Chat)
				if err != nil {
					return err
				}

				// A traced run needs a tracer even when harness tracing is off
				tracer := a.factory.CreateTracer()
				if !a.cfg.Harness.EnableTracing {
					tracer = adapters.NewZerologTracer(a.logger)
				}

				runner := harness.NewRunner(tracer, a.factory.CreatePolicy(), a.factory.CreateOptions(), a.logger)
				resp, err := runner.Run(ctx, "Telling a joke", harness.Agent{
					Name:         "Jokester",
					Instructions: "You are a joke teller",
					Provider:     model,
				}, "Tell a joke about "+topic)
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), resp.Text)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "Autonomous AI Agents", "what the joke is about")
	return cmd
}
