package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cmdrelay/internal/config"
	"cmdrelay/internal/server"
)

func newServeCommand(cli *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interpreter over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := cli.newContainer(ctx, cli.cfg, true)
			if err != nil {
				return err
			}
			defer func() { _ = c.Shutdown(context.WithoutCancel(ctx)) }()
			if c.Assistant == nil {
				c.Logger.Warn("No API key configured; POST /v1/chat is disabled")
			}

			cfg := cli.cfg.Server
			srv, err := server.New(server.Config{
				Addr:           cfg.Addr,
				EnableCORS:     cfg.CORS,
				AllowedOrigins: cfg.AllowedOrigins,
				Debug:          cfg.Debug,
				ReadTimeout:    30 * time.Second,
				WriteTimeout:   2 * time.Minute,
				ShutdownGrace:  cfg.ShutdownGrace,
			}, c.Interpreter,
				server.WithAssistant(c.Assistant),
				server.WithMetrics(c.Obs.Metrics),
				server.WithTracer(c.Obs.Tracer),
				server.WithLogger(c.Logger),
			)
			if err != nil {
				return err
			}

			return srv.Run(ctx)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default "+config.DefaultServerAddr+")")
	return cmd
}
