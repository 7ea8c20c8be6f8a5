package main

import (
	"encoding/json"
	"fmt"
	"time"

	"lms-web/internal/app"
	"lms-web/internal/pkg/jwt"

	"github.com/spf13/cobra"
)

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or reset the persisted session",
	}
	cmd.AddCommand(sessionShowCmd(), sessionClearCmd())
	return cmd
}

func sessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored session (the credential is never printed)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()

			files, err := app.OpenSessionFiles(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer files.Close()

			report := files.Inspect(cmd.Context(), jwt.NewDecoder(), time.Now())
			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func sessionClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Sign out locally by removing the stored session and auth cookie",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()

			files, err := app.OpenSessionFiles(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer files.Close()

			if err := files.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "session cleared")
			return nil
		},
	}
}
