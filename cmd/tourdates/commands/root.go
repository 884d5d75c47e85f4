package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/riskibarqy/tour-dates/internal/config"
	"github.com/riskibarqy/tour-dates/internal/platform/logging"
	"github.com/spf13/cobra"
)

var (
	dbPath   string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:           "tourdates",
	Short:         "tourdates scrapes, stores and inspects NBA tour dates.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db-path", "", "Path to the SQLite database (default DB_PATH or tourdates.db).")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (default APP_LOG_LEVEL).")
}

func ExecuteContext(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// loadConfig reads the environment and applies persistent flag overrides.
func loadConfig() (config.Config, *logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if logLevel != "" {
		cfg.LogLevel = logging.ParseLevel(logLevel)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel)
	logging.SetDefault(logger)
	return cfg, logger, nil
}
