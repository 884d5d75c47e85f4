package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/riskibarqy/tour-dates/internal/app"
	"github.com/riskibarqy/tour-dates/internal/domain/tourdate"
	"github.com/riskibarqy/tour-dates/internal/infrastructure/repository/sqlite"
	"github.com/riskibarqy/tour-dates/internal/usecase"
	"github.com/spf13/cobra"
)

var missingSeason string

func init() {
	missingCmd.Flags().StringVar(&missingSeason, "season", "", "Season to inspect (default SEASON or 2025-26).")
	rootCmd.AddCommand(missingCmd)
}

var missingCmd = &cobra.Command{
	Use:   "missing [--season 2025-26]",
	Short: "Lists the calendar days nobody has claimed yet, grouped by month.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		db, _, err := app.OpenStore(cmd.Context(), app.StoreOptions{
			Path:        cfg.DBPath,
			BusyTimeout: cfg.DBBusyTimeout,
		}, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		svc := usecase.NewTourDateService(sqlite.NewTourDateRepository(db), usecase.TourDateServiceConfig{
			DefaultSeason: cfg.Season,
			CacheDisabled: true,
		})
		slots, err := svc.MissingSlots(cmd.Context(), missingSeason)
		if err != nil {
			return err
		}

		renderMissing(cmd, slots)
		return nil
	},
}

func renderMissing(cmd *cobra.Command, slots []tourdate.Slot) {
	byMonth := make(map[int][]int, 12)
	for _, slot := range slots {
		byMonth[slot.Month] = append(byMonth[slot.Month], slot.Day)
	}

	t := newTable(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Month", "Open", "Days"})
	for month := 1; month <= 12; month++ {
		days := byMonth[month]
		t.AppendRow(table.Row{tourdate.MonthName(month), len(days), formatDays(days)})
	}
	t.AppendFooter(table.Row{"Total", len(slots), fmt.Sprintf("of %d", tourdate.TotalSlots())})
	t.Render()
}

func formatDays(days []int) string {
	if len(days) == 0 {
		return "-"
	}
	out := make([]byte, 0, len(days)*3)
	for i, day := range days {
		if i > 0 {
			out = append(out, ' ')
		}
		out = fmt.Appendf(out, "%d", day)
	}
	return string(out)
}
