package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/colloquy-ai/colloquy/httpapi"
	"github.com/colloquy-ai/colloquy/watcher"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cfg.Watch.Enabled {
		if err := os.MkdirAll(a.cfg.Watch.Dir, 0o755); err != nil {
			return err
		}
		w := watcher.New(a.cfg.Watch.Dir, a.indexer, a.logger)
		go func() {
			if err := w.Run(ctx); err != nil && ctx.Err() == nil {
				a.logger.Error("watcher stopped", "error", err)
			}
		}()
		a.logger.Info("watching for document drops", "dir", a.cfg.Watch.Dir)
	}

	server := httpapi.NewServer(a.cfg.Listen.Addr(), a.orch, a.indexer, a.sessions, a.logger)
	return server.Start(ctx)
}
