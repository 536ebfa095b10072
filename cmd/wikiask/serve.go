package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	srv "github.com/mohammad-safakhou/wikiask/internal/server"
)

func serveCmd() *cobra.Command {
	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = cfg.Server.Address
			}
			opts := srv.Options{Config: cfg, Skill: a.skill, Sessions: a.sessions, Logger: logger}
			if a.registry != nil {
				opts.Gatherer = a.registry
			}
			return srv.Run(ctx, srv.New(opts), addr, logger)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return serve
}
