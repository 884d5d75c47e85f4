package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/riskibarqy/tour-dates/internal/app"
	"github.com/riskibarqy/tour-dates/internal/domain/tourdate"
	"github.com/riskibarqy/tour-dates/internal/usecase"
	"github.com/spf13/cobra"
)

var scrapeFlags struct {
	season     string
	since      string
	until      string
	dryRun     bool
	exportJSON string
}

func init() {
	flags := scrapeCmd.Flags()
	flags.StringVar(&scrapeFlags.season, "season", "", "Season identifier to target (default SEASON or 2025-26).")
	flags.StringVar(&scrapeFlags.since, "since", "", "Inclusive start date YYYY-MM-DD (default last stored date + 1).")
	flags.StringVar(&scrapeFlags.until, "until", "", "Inclusive end date YYYY-MM-DD (default today).")
	flags.BoolVar(&scrapeFlags.dryRun, "dry-run", false, "Collect and display candidates without writing to the database.")
	flags.StringVar(&scrapeFlags.exportJSON, "export-json", "", "Optional path to dump the new tour dates as JSON.")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--season 2025-26] [--since YYYY-MM-DD] [--until YYYY-MM-DD] [--dry-run] [--export-json path]",
	Short: "Scans box scores for a date range and stores the tour dates found.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		since, err := parseDateFlag("since", scrapeFlags.since)
		if err != nil {
			return err
		}
		until, err := parseDateFlag("until", scrapeFlags.until)
		if err != nil {
			return err
		}

		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		db, _, err := app.OpenStore(cmd.Context(), app.StoreOptions{
			Path:            cfg.DBPath,
			BusyTimeout:     cfg.DBBusyTimeout,
			CreateIfMissing: true,
		}, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		svc, err := app.NewScrapeService(cfg, db, nil, logger)
		if err != nil {
			return err
		}

		result, err := svc.Run(cmd.Context(), usecase.ScrapeInput{
			Season:     scrapeFlags.season,
			Since:      since,
			Until:      until,
			DryRun:     scrapeFlags.dryRun,
			ExportPath: scrapeFlags.exportJSON,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if result.DryRun {
			renderTourDates(out, result.Rows)
		}
		renderSummary(out, result)
		return nil
	},
}

func parseDateFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := tourdate.ParseGameDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return t, nil
}

func renderTourDates(w io.Writer, rows []tourdate.TourDate) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No tour dates found.")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Date", "Player", "Team", "Opp", "FG", "FG%", "Tour date"})
	for _, row := range rows {
		t.AppendRow(table.Row{
			row.GameDate.Format(tourdate.DateLayout),
			row.PlayerName,
			row.TeamAbbr,
			row.OpponentAbbr,
			fmt.Sprintf("%d-%d", row.FGM, row.FGA),
			tourdate.FormatPercentage(row.FGPct),
			row.Label(),
		})
	}
	t.Render()
}

func renderSummary(w io.Writer, result usecase.ScrapeResult) {
	t := newTable(w)
	t.SetTitle("Scrape %s (%s)", result.RunID, result.Season)
	t.AppendRows([]table.Row{
		{"Range", result.Since + " .. " + result.Until},
		{"Dry run", result.DryRun},
		{"Dates scanned", result.DatesScanned},
		{"Date failures", result.DateFailures},
		{"Games found", result.GamesFound},
		{"Games skipped", result.GamesSkipped},
		{"Games fetched", result.GamesFetched},
		{"Fetch failures", result.FetchFailures},
		{"Candidates", result.Candidates},
		{"Valid", result.Valid},
		{"Written", result.Written},
		{"Duration", (time.Duration(result.DurationMs) * time.Millisecond).String()},
	})
	if result.ExportPath != "" {
		t.AppendRow(table.Row{"Exported to", result.ExportPath})
	}
	t.Render()
}
