package main

import (
	"context"
	"os/signal"
	"syscall"

	"lms-web/internal/app"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	backend, err := app.OpenSessionBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open session store", zap.Error(err))
		return err
	}

	srv := app.NewServer(cfg, logger)
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Warn("failed to close session store", zap.Error(err))
		}
	}()

	if err := srv.Build(ctx, backend); err != nil {
		logger.Error("failed to build server", zap.Error(err))
		return err
	}

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped gracefully")
	return nil
}
