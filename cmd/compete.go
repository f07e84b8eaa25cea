package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nidhishmalav/career-twin/twin/generation/competition"
)

func newCompeteCmd(opts *rootOptions) *cobra.Command {
	var (
		question    string
		parallelism int
	)

	cmd := &cobra.Command{
		Use:   "compete",
		Short: "Ask several models one question and rank their answers",
		Long: `Sends one question to every configured competitor and asks the judge model
to rank the answers. Without --question the question model invents one.
Competitors whose provider has no API key are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				judge, err := a.model("models.judge", a.cfg.Models.Judge)
				if err != nil {
					return err
				}

				competitors, err := competition.ResolveCompetitors(a.router, a.cfg.Competition.Competitors, a.logger)
				if err != nil {
					return err
				}

				if !cmd.Flags().Changed("parallelism") {
					parallelism = a.cfg.Competition.Parallelism
				}

				compOpts := []competition.Option{
					competition.WithParallelism(parallelism),
					competition.WithOptions(a.factory.CreateOptions()),
					competition.WithTracer(a.factory.CreateTracer()),
					competition.WithLogger(a.logger),
				}
				if question == "" {
					questioner, err := a.model("models.question", a.cfg.Models.Question)
					if err != nil {
						return err
					}
					compOpts = append(compOpts, competition.WithQuestionModel(questioner))
				}

				board, err := competition.New(judge, competitors, compOpts...).Run(ctx, question)
				if err != nil {
					return err
				}

				if opts.jsonOutput {
					return writeLeaderboardJSON(cmd.OutOrStdout(), board)
				}
				return writeLeaderboard(cmd.OutOrStdout(), board)
			})
		},
	}

	cmd.Flags().StringVarP(&question, "question", "q", "", "question to ask (default: generated)")
	cmd.Flags().IntVarP(&parallelism, "parallelism", "p", 1, "competitors asked at once (default from competition.parallelism)")
	return cmd
}

func writeLeaderboard(w io.Writer, board *competition.Leaderboard) error {
	fmt.Fprintf(w, "Question: %s\n", board.Question)

	for _, answer := range board.Answers {
		fmt.Fprintf(w, "\n--- %s ---\n%s\n", answer.Competitor, answer.Text)
	}

	fmt.Fprintln(w, "\nLeaderboard")
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "RANK\tCOMPETITOR")
	for _, entry := range board.Entries {
		fmt.Fprintf(tw, "%d\t%s\n", entry.Rank, entry.Competitor)
	}
	return tw.Flush()
}

type leaderboardJSON struct {
	Question string        `json:"question"`
	Entries  []entryJSON   `json:"entries"`
	Answers  []answersJSON `json:"answers"`
}

type entryJSON struct {
	Rank       int    `json:"rank"`
	Competitor string `json:"competitor"`
}

type answersJSON struct {
	Competitor string `json:"competitor"`
	Answer     string `json:"answer"`
}

func writeLeaderboardJSON(w io.Writer, board *competition.Leaderboard) error {
	out := leaderboardJSON{Question: board.Question}
	for _, entry := range board.Entries {
		out.Entries = append(out.Entries, entryJSON{Rank: entry.Rank, Competitor: entry.Competitor.String()})
	}
	for _, answer := range board.Answers {
		out.Answers = append(out.Answers, answersJSON{Competitor: answer.Competitor.String(), Answer: answer.Text})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
