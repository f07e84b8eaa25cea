package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nidhishmalav/career-twin/twin/generation/harness"
	ports "github.com/nidhishmalav/career-twin/twin/generation/harness/ports"
)

// hardQuestionPrompt asks the model to invent a question for itself.
const hardQuestionPrompt = "Please propose a hard, challenging question to assess someone's IQ. Respond only with the question."

func newAskCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the question model a question, or let it propose and answer its own",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				model, err := a.model("models.question", a.cfg.Models.Question)
				if err != nil {
					return err
				}
				orchestrator := a.factory.CreateOrchestrator(model)
				options := a.factory.CreateOptions()
				out := cmd.OutOrStdout()

				var question string
				if len(args) == 1 {
					question = args[0]
				} else {
					question, err = askOnce(ctx, orchestrator, options, hardQuestionPrompt)
					if err != nil {
						return fmt.Errorf("question generation failed: %w", err)
					}
				}
				fmt.Fprintf(out, "Question: %s\n\n", question)

				answer, err := askOnce(ctx, orchestrator, options, question)
				if err != nil {
					return fmt.Errorf("answer failed: %w", err)
				}
				fmt.Fprintf(out, "Answer: %s\n", answer)
				return nil
			})
		},
	}
}

// askOnce sends a single user message with no system prompt and no history.
func askOnce(ctx context.Context, orchestrator *harness.HarnessOrchestrator, options ports.Options, prompt string) (string, error) {
	resp, err := orchestrator.Orchestrate(ctx, &harness.Request{
		Conversation: &harness.Conversation{
			Messages: []ports.PromptMessage{{Role: "user", Content: prompt}},
		},
		Options: options,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
