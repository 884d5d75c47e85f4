package commands

import (
	"fmt"

	"github.com/riskibarqy/tour-dates/internal/app"
	"github.com/spf13/cobra"
)

var (
	initNoSeed bool
	initForce  bool
)

func init() {
	initdbCmd.Flags().BoolVar(&initNoSeed, "no-seed", false, "Create the schema without loading seed data.")
	initdbCmd.Flags().BoolVar(&initForce, "force", false, "Replace an existing database file.")
	rootCmd.AddCommand(initdbCmd)
}

var initdbCmd = &cobra.Command{
	Use:   "initdb [--no-seed] [--force]",
	Short: "Creates a fresh database, applies migrations and loads the seed rows.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		res, err := app.InitDatabase(cmd.Context(), app.StoreOptions{
			Path:        cfg.DBPath,
			BusyTimeout: cfg.DBBusyTimeout,
			Seed:        !initNoSeed,
		}, initForce, logger)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Initialised %s (%d seed rows inserted, %d skipped)\n",
			cfg.DBPath, res.Seed.Inserted, res.Seed.Skipped)
		return nil
	},
}
