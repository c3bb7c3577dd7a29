package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/config"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/logger"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/sheets"
)

var rootCmd = &cobra.Command{
	Use:          "quizbot",
	Short:        "Telegram quiz and diagnosis bot driven by Google Sheets",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkSheetCmd)
	rootCmd.AddCommand(commandsCmd)
}

// loadConfig reads configuration and installs the logger. Sheet access is
// required by every subcommand.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Setup(cfg)
	if cfg.SheetsID == "" {
		return nil, fmt.Errorf("GOOGLE_SHEETS_ID is required")
	}
	return cfg, nil
}

func newSheetsClient(ctx context.Context, cfg *config.Config) (*sheets.Client, error) {
	client, err := sheets.NewServiceAccountClient(ctx, cfg.CredentialsFile, cfg.SheetsID)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return client, nil
}
