package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nidhishmalav/career-twin/twin/generation"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the twin in the terminal",
		Long: `Starts an interactive session. History is kept for the session only.
Type "exit" or press Ctrl-D to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				twin, err := a.twin()
				if err != nil {
					return err
				}
				return chatLoop(ctx, twin, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
}

// replier is the part of the controller the chat loop needs.
type replier interface {
	Reply(ctx context.Context, history generation.History, message string) (*generation.Outcome, error)
}

// chatLoop reads one message per line until EOF or "exit". A failed turn is
// reported and leaves the history unchanged.
func chatLoop(ctx context.Context, twin replier, in io.Reader, out io.Writer) error {
	var history generation.History
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, "you> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		message := strings.TrimSpace(scanner.Text())
		switch message {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		outcome, err := twin.Reply(ctx, history, message)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}

		fmt.Fprintf(out, "twin> %s\n", outcome.Text)
		history = history.Append(message, outcome.Text)
	}
}
