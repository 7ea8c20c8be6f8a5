package main

import (
	"log"
	"os"

	"lms-web/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[MAIN] No .env file found, relying on system env vars")
	}

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "lms-web",
		Short:        "LMS web session service",
		Long:         "Serves the LMS pages and keeps the signed-in session for the browser.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.AddCommand(serveCmd(), sessionCmd())
	return cmd
}

// loadConfig reads and validates the environment, and builds the logger
// that goes with it.
func loadConfig() (config.AppConfig, *zap.Logger, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}

	var (
		logger *zap.Logger
		err    error
	)
	if cfg.IsLocal() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger.With(zap.String("env", cfg.Env)), nil
}
