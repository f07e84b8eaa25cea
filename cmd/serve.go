package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nidhishmalav/career-twin/twin/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat API over HTTP",
		Long: `Serves POST /api/chat and GET /healthz. Clients send the full history with
every message; the server keeps no session state.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				twin, err := a.twin()
				if err != nil {
					return err
				}

				if a.logger.GetLevel() > zerolog.DebugLevel {
					gin.SetMode(gin.ReleaseMode)
				}
				if addr == "" {
					addr = a.cfg.Server.Addr
				}

				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()

				return server.New(twin, a.logger).Run(ctx, addr)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from server.addr)")
	return cmd
}
