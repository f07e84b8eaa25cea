// Package cmd implements the career-twin command line.
package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	logLevel   string
	jsonOutput bool
}

// NewRootCmd creates the career-twin command with all subcommands.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "career-twin",
		Short: "A conversational stand-in for a professional persona",
		Long: `career-twin answers questions about a person's career, background and skills,
speaking as that person. Every reply is checked by a second model and rewritten
once when it is rejected.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default is ./config.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")

	root.AddCommand(
		newChatCmd(opts),
		newServeCmd(opts),
		newCompeteCmd(opts),
		newAskCmd(opts),
		newJokeCmd(opts),
		newModelsCmd(opts),
	)

	return root
}

// withApp builds the app for a command and releases it afterwards.
func withApp(cmd *cobra.Command, opts *rootOptions, run func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.close(closeCtx)
	}()

	return run(ctx, a)
}
