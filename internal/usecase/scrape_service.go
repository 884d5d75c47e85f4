package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/tour-dates/internal/domain/tourdate"
	"github.com/riskibarqy/tour-dates/internal/platform/id"
	"github.com/riskibarqy/tour-dates/internal/platform/logging"
)

const defaultScrapeWorkers = 4

// DefaultScrapeStart is where an empty season starts scanning.
var DefaultScrapeStart = time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)

// ScheduledGame is one game card discovered on a schedule page.
type ScheduledGame struct {
	ID   string
	URL  string
	Date time.Time
}

// BoxScoreSource lists games per day and returns raw player shooting lines for a game.
type BoxScoreSource interface {
	ListGames(ctx context.Context, date time.Time) ([]ScheduledGame, error)
	FetchBoxScore(ctx context.Context, game ScheduledGame, season string) ([]tourdate.TourDate, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, season string)
}

type ScrapeInput struct {
	Season string
	// Since and Until are inclusive; zero values pick the defaults.
	Since      time.Time
	Until      time.Time
	DryRun     bool
	ExportPath string
}

type ScrapeResult struct {
	RunID         string              `json:"run_id"`
	Season        string              `json:"season"`
	Since         string              `json:"since"`
	Until         string              `json:"until"`
	DryRun        bool                `json:"dry_run"`
	DatesScanned  int                 `json:"dates_scanned"`
	DateFailures  int                 `json:"date_failures"`
	GamesFound    int                 `json:"games_found"`
	GamesSkipped  int                 `json:"games_skipped"`
	GamesFetched  int                 `json:"games_fetched"`
	FetchFailures int                 `json:"fetch_failures"`
	Candidates    int                 `json:"candidates"`
	Valid         int                 `json:"valid"`
	Written       int                 `json:"written"`
	ExportPath    string              `json:"export_path,omitempty"`
	DurationMs    int64               `json:"duration_ms"`
	Rows          []tourdate.TourDate `json:"-"`
}

type ScrapeServiceConfig struct {
	DefaultSeason string
	Workers       int
	Now           func() time.Time
}

// ScrapeService walks a date range, collects box score lines and persists the tour dates among them.
type ScrapeService struct {
	source        BoxScoreSource
	repo          tourdate.Repository
	invalidator   cacheInvalidator
	ids           id.Generator
	logger        *logging.Logger
	defaultSeason string
	workers       int
	now           func() time.Time
}

func NewScrapeService(
	source BoxScoreSource,
	repo tourdate.Repository,
	invalidator cacheInvalidator,
	ids id.Generator,
	logger *logging.Logger,
	cfg ScrapeServiceConfig,
) *ScrapeService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewRunIDGenerator()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultScrapeWorkers
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &ScrapeService{
		source:        source,
		repo:          repo,
		invalidator:   invalidator,
		ids:           ids,
		logger:        logger,
		defaultSeason: strings.TrimSpace(cfg.DefaultSeason),
		workers:       workers,
		now:           now,
	}
}

func (s *ScrapeService) Run(ctx context.Context, input ScrapeInput) (ScrapeResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScrapeService.Run")
	defer span.End()

	started := s.now()
	input, err := s.normalizeInput(ctx, input)
	if err != nil {
		return ScrapeResult{}, err
	}

	runID, err := s.ids.NewID()
	if err != nil {
		return ScrapeResult{}, fmt.Errorf("generate run id: %w", err)
	}
	logger := s.logger.With("run_id", runID, "season", input.Season)

	result := ScrapeResult{
		RunID:      runID,
		Season:     input.Season,
		Since:      input.Since.Format(tourdate.DateLayout),
		Until:      input.Until.Format(tourdate.DateLayout),
		DryRun:     input.DryRun,
		ExportPath: input.ExportPath,
	}
	logger.InfoContext(ctx, "scrape started", "since", result.Since, "until", result.Until, "dry_run", input.DryRun)

	processed, err := s.repo.ListGameIDs(ctx, input.Season)
	if err != nil {
		return ScrapeResult{}, fmt.Errorf("load processed game ids: %w", err)
	}
	seen := make(map[string]struct{}, len(processed))
	for _, gameID := range processed {
		seen[gameID] = struct{}{}
	}

	candidates, err := s.collect(ctx, logger, input, seen, &result)
	if err != nil {
		return ScrapeResult{}, err
	}

	valid := tourdate.FilterTourDates(candidates)
	sortTourDates(valid)
	result.Candidates = len(candidates)
	result.Valid = len(valid)
	result.Rows = valid
	logger.InfoContext(ctx, "candidates filtered", "candidates", len(candidates), "valid", len(valid))

	if input.ExportPath != "" {
		if err := ExportTourDates(input.ExportPath, valid); err != nil {
			return ScrapeResult{}, err
		}
		logger.InfoContext(ctx, "exported tour dates", "path", input.ExportPath, "rows", len(valid))
	}

	if input.DryRun {
		for _, row := range valid {
			logger.InfoContext(ctx, "dry run tour date",
				"label", row.Label(),
				"player", row.PlayerName,
				"team", row.TeamAbbr,
				"opponent", row.OpponentAbbr,
				"game_id", row.GameID,
				"game_date", row.GameDate.Format(tourdate.DateLayout),
				"fg_pct", tourdate.FormatPercentage(row.FGPct),
			)
		}
	} else if len(valid) > 0 {
		written, err := s.repo.Upsert(ctx, valid)
		if err != nil {
			return ScrapeResult{}, fmt.Errorf("upsert tour dates: %w", err)
		}
		result.Written = written
		if s.invalidator != nil {
			s.invalidator.Invalidate(ctx, input.Season)
		}
	}

	result.DurationMs = s.now().Sub(started).Milliseconds()
	logger.InfoContext(ctx, "scrape finished",
		"written", result.Written,
		"dates", result.DatesScanned,
		"games_fetched", result.GamesFetched,
		"fetch_failures", result.FetchFailures,
		"date_failures", result.DateFailures,
		"duration_ms", result.DurationMs,
	)
	return result, nil
}

func (s *ScrapeService) collect(
	ctx context.Context,
	logger *logging.Logger,
	input ScrapeInput,
	seen map[string]struct{},
	result *ScrapeResult,
) ([]tourdate.TourDate, error) {
	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu         sync.Mutex
		candidates []tourdate.TourDate
		fetched    atomic.Int32
		failed     atomic.Int32
	)

	for day := input.Since; !day.After(input.Until); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scrape cancelled at %s: %w", day.Format(tourdate.DateLayout), err)
		}
		result.DatesScanned++

		games, err := s.source.ListGames(ctx, day)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("scrape cancelled at %s: %w", day.Format(tourdate.DateLayout), ctx.Err())
			}
			result.DateFailures++
			logger.WarnContext(ctx, "failed to load schedule", "date", day.Format(tourdate.DateLayout), "error", err)
			continue
		}
		result.GamesFound += len(games)
		logger.DebugContext(ctx, "discovered games", "date", day.Format(tourdate.DateLayout), "games", len(games))

		var workers sync.WaitGroup
		for _, game := range games {
			if _, ok := seen[game.ID]; ok {
				result.GamesSkipped++
				logger.DebugContext(ctx, "skipping already processed game", "game_id", game.ID)
				continue
			}
			seen[game.ID] = struct{}{}

			game := game
			workers.Add(1)
			if err := pool.Submit(func() {
				defer workers.Done()

				rows, err := s.source.FetchBoxScore(ctx, game, input.Season)
				if err != nil {
					failed.Add(1)
					logger.WarnContext(ctx, "failed to fetch box score", "game_id", game.ID, "error", err)
					return
				}
				fetched.Add(1)
				mu.Lock()
				candidates = append(candidates, rows...)
				mu.Unlock()
			}); err != nil {
				workers.Done()
				return nil, fmt.Errorf("submit box score task: %w", err)
			}
		}
		workers.Wait()
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scrape cancelled: %w", err)
	}
	result.GamesFetched = int(fetched.Load())
	result.FetchFailures = int(failed.Load())
	return candidates, nil
}

func (s *ScrapeService) normalizeInput(ctx context.Context, input ScrapeInput) (ScrapeInput, error) {
	input.Season = strings.TrimSpace(input.Season)
	if input.Season == "" {
		input.Season = s.defaultSeason
	}
	if err := ValidateSeason(input.Season); err != nil {
		return ScrapeInput{}, err
	}
	input.ExportPath = strings.TrimSpace(input.ExportPath)
	explicitRange := !input.Since.IsZero() && !input.Until.IsZero()

	if input.Since.IsZero() {
		last, ok, err := s.repo.LastGameDate(ctx, input.Season)
		if err != nil {
			return ScrapeInput{}, fmt.Errorf("load last game date: %w", err)
		}
		if ok {
			input.Since = last.AddDate(0, 0, 1)
		} else {
			input.Since = DefaultScrapeStart
		}
	}
	if input.Until.IsZero() {
		input.Until = s.now()
	}
	input.Since = tourdate.NormalizeDate(input.Since)
	input.Until = tourdate.NormalizeDate(input.Until)

	// A defaulted range is empty once the store has caught up with today.
	if explicitRange && input.Since.After(input.Until) {
		return ScrapeInput{}, fmt.Errorf("%w: since %s is after until %s", ErrInvalidInput,
			input.Since.Format(tourdate.DateLayout), input.Until.Format(tourdate.DateLayout))
	}
	return input, nil
}

func sortTourDates(rows []tourdate.TourDate) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].GameDate.Equal(rows[j].GameDate) {
			return rows[i].GameDate.Before(rows[j].GameDate)
		}
		if rows[i].GameID != rows[j].GameID {
			return rows[i].GameID < rows[j].GameID
		}
		return rows[i].PlayerName < rows[j].PlayerName
	})
}

// TourDateRecord is the JSON shape used for exports and seed files.
type TourDateRecord struct {
	Season       string  `json:"season"`
	PlayerName   string  `json:"player_name"`
	TeamAbbr     string  `json:"team_abbr"`
	OpponentAbbr string  `json:"opponent_abbr"`
	GameID       string  `json:"game_id"`
	GameDate     string  `json:"game_date"`
	FGM          int     `json:"fgm"`
	FGA          int     `json:"fga"`
	FGPct        float64 `json:"fg_pct"`
}

func NewTourDateRecord(row tourdate.TourDate) TourDateRecord {
	return TourDateRecord{
		Season:       row.Season,
		PlayerName:   row.PlayerName,
		TeamAbbr:     row.TeamAbbr,
		OpponentAbbr: row.OpponentAbbr,
		GameID:       row.GameID,
		GameDate:     row.GameDate.Format(tourdate.DateLayout),
		FGM:          row.FGM,
		FGA:          row.FGA,
		FGPct:        row.FGPct,
	}
}

func (r TourDateRecord) ToDomain() (tourdate.TourDate, error) {
	gameDate, err := tourdate.ParseGameDate(r.GameDate)
	if err != nil {
		return tourdate.TourDate{}, err
	}
	return tourdate.TourDate{
		Season:       strings.TrimSpace(r.Season),
		PlayerName:   strings.TrimSpace(r.PlayerName),
		TeamAbbr:     strings.TrimSpace(r.TeamAbbr),
		OpponentAbbr: strings.TrimSpace(r.OpponentAbbr),
		GameID:       strings.TrimSpace(r.GameID),
		GameDate:     gameDate,
		FGM:          r.FGM,
		FGA:          r.FGA,
		FGPct:        r.FGPct,
	}, nil
}

// ExportTourDates writes rows as an indented JSON array, creating parent directories.
func ExportTourDates(path string, rows []tourdate.TourDate) error {
	records := make([]TourDateRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, NewTourDateRecord(row))
	}
	payload, err := sonic.ConfigStd.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
		return fmt.Errorf("write export %s: %w", path, err)
	}
	return nil
}
