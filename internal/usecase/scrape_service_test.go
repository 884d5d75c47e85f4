package usecase

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/tour-dates/internal/domain/tourdate"
	"github.com/riskibarqy/tour-dates/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/tour-dates/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

type fakeBoxScoreSource struct {
	mu       sync.Mutex
	games    map[string][]ScheduledGame
	boxes    map[string][]tourdate.TourDate
	listErrs map[string]error
	boxErrs  map[string]error
	listed   []string
	fetched  []string
}

func newFakeSource() *fakeBoxScoreSource {
	return &fakeBoxScoreSource{
		games:    make(map[string][]ScheduledGame),
		boxes:    make(map[string][]tourdate.TourDate),
		listErrs: make(map[string]error),
		boxErrs:  make(map[string]error),
	}
}

func (f *fakeBoxScoreSource) addGame(date, gameID string, lines ...tourdate.TourDate) {
	d, _ := tourdate.ParseGameDate(date)
	f.games[date] = append(f.games[date], ScheduledGame{ID: gameID, URL: "https://example.test/game/" + gameID, Date: d})
	for i := range lines {
		lines[i].GameID = gameID
		lines[i].GameDate = d
	}
	f.boxes[gameID] = lines
}

func (f *fakeBoxScoreSource) ListGames(_ context.Context, date time.Time) ([]ScheduledGame, error) {
	key := date.Format(tourdate.DateLayout)
	f.mu.Lock()
	f.listed = append(f.listed, key)
	f.mu.Unlock()
	if err := f.listErrs[key]; err != nil {
		return nil, err
	}
	return f.games[key], nil
}

func (f *fakeBoxScoreSource) FetchBoxScore(_ context.Context, game ScheduledGame, season string) ([]tourdate.TourDate, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, game.ID)
	f.mu.Unlock()
	if err := f.boxErrs[game.ID]; err != nil {
		return nil, err
	}
	out := make([]tourdate.TourDate, 0, len(f.boxes[game.ID]))
	for _, line := range f.boxes[game.ID] {
		line.Season = season
		out = append(out, line)
	}
	return out, nil
}

type fixedIDs struct{}

func (fixedIDs) NewID() (string, error) { return "run-1", nil }

type invalidationSpy struct {
	seasons []string
}

func (s *invalidationSpy) Invalidate(_ context.Context, season string) {
	s.seasons = append(s.seasons, season)
}

func line(player, team, opp string, fgm, fga int) tourdate.TourDate {
	return tourdate.TourDate{
		PlayerName:   player,
		TeamAbbr:     team,
		OpponentAbbr: opp,
		FGM:          fgm,
		FGA:          fga,
		FGPct:        float64(fgm) / float64(fga),
	}
}

func mustDate(t *testing.T, v string) time.Time {
	t.Helper()
	d, err := tourdate.ParseGameDate(v)
	require.NoError(t, err)
	return d
}

func newScrapeService(source BoxScoreSource, repo tourdate.Repository, spy cacheInvalidator, today string) *ScrapeService {
	now, _ := tourdate.ParseGameDate(today)
	return NewScrapeService(source, repo, spy, fixedIDs{}, logging.NewNop(), ScrapeServiceConfig{
		DefaultSeason: "2025-26",
		Workers:       2,
		Now:           func() time.Time { return now.Add(15 * time.Hour) },
	})
}

func TestScrapeService_Run_PersistsOnlyTourDates(t *testing.T) {
	ctx := context.Background()
	source := newFakeSource()
	source.addGame("2025-11-20", "101",
		line("Jayson Tatum", "BOS", "NYK", 4, 28),
		line("Jaylen Brown", "BOS", "NYK", 10, 18),
		line("Jalen Brunson", "NYK", "BOS", 2, 30),
	)
	source.addGame("2025-11-21", "102", line("LeBron James", "LAL", "GSW", 13, 20))
	source.addGame("2025-11-21", "103", line("Stephen Curry", "GSW", "LAL", 3, 14))

	repo := memory.NewTourDateRepository()
	spy := &invalidationSpy{}
	service := newScrapeService(source, repo, spy, "2025-11-22")

	result, err := service.Run(ctx, ScrapeInput{Since: mustDate(t, "2025-11-20"), Until: mustDate(t, "2025-11-21")})
	require.NoError(t, err)

	require.Equal(t, "run-1", result.RunID)
	require.Equal(t, 2, result.DatesScanned)
	require.Equal(t, 3, result.GamesFound)
	require.Equal(t, 3, result.GamesFetched)
	require.Equal(t, 5, result.Candidates)
	require.Equal(t, 2, result.Valid)
	require.Equal(t, 2, result.Written)
	require.Equal(t, []string{"2025-26"}, spy.seasons)

	rows, err := repo.ListBySeason(ctx, "2025-26")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Jayson Tatum", rows[0].PlayerName)
	require.Equal(t, "Stephen Curry", rows[1].PlayerName)
	for _, row := range rows {
		require.Less(t, row.FGM, row.FGA)
		require.Less(t, row.FGPct, 0.5)
		require.LessOrEqual(t, row.FGA, tourdate.DaysInMonth(row.GameDate))
	}
}

func TestScrapeService_Run_IsIdempotentAndSkipsProcessedGames(t *testing.T) {
	ctx := context.Background()
	source := newFakeSource()
	source.addGame("2025-11-20", "101", line("Jayson Tatum", "BOS", "NYK", 4, 28))

	repo := memory.NewTourDateRepository()
	service := newScrapeService(source, repo, nil, "2025-11-22")
	input := ScrapeInput{Since: mustDate(t, "2025-11-20"), Until: mustDate(t, "2025-11-20")}

	_, err := service.Run(ctx, input)
	require.NoError(t, err)

	second, err := service.Run(ctx, input)
	require.NoError(t, err)
	require.Equal(t, 1, second.GamesSkipped)
	require.Zero(t, second.GamesFetched)
	require.Zero(t, second.Written)

	count, err := repo.Count(ctx, "2025-26")
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Equal(t, []string{"101"}, source.fetched)
}

func TestScrapeService_Run_DefaultRangeFollowsLastStoredDate(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewTourDateRepository(tourdate.TourDate{
		Season: "2025-26", PlayerName: "Seed", TeamAbbr: "BOS", OpponentAbbr: "NYK",
		GameID: "1", GameDate: mustDate(t, "2025-11-18"), FGM: 1, FGA: 9, FGPct: 0.111,
	})
	source := newFakeSource()
	service := newScrapeService(source, repo, nil, "2025-11-20")

	result, err := service.Run(ctx, ScrapeInput{})
	require.NoError(t, err)
	require.Equal(t, "2025-11-19", result.Since)
	require.Equal(t, "2025-11-20", result.Until)
	require.Equal(t, []string{"2025-11-19", "2025-11-20"}, source.listed)
}

func TestScrapeService_Run_UpToDateIsNoop(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewTourDateRepository(tourdate.TourDate{
		Season: "2025-26", PlayerName: "Seed", TeamAbbr: "BOS", OpponentAbbr: "NYK",
		GameID: "1", GameDate: mustDate(t, "2025-11-20"), FGM: 1, FGA: 9, FGPct: 0.111,
	})
	source := newFakeSource()
	spy := &invalidationSpy{}
	service := newScrapeService(source, repo, spy, "2025-11-20")

	result, err := service.Run(ctx, ScrapeInput{})
	require.NoError(t, err)
	require.Equal(t, "2025-11-21", result.Since)
	require.Equal(t, "2025-11-20", result.Until)
	require.Zero(t, result.DatesScanned)
	require.Zero(t, result.Candidates)
	require.Zero(t, result.Written)
	require.Empty(t, source.listed)
	require.Empty(t, spy.seasons)

	count, err := repo.Count(ctx, "2025-26")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestScrapeService_Run_LogsFilterCountsAsFields(t *testing.T) {
	source := newFakeSource()
	source.addGame("2025-11-20", "101", line("Jayson Tatum", "BOS", "NYK", 4, 28), line("Jaylen Brown", "BOS", "NYK", 10, 18))

	var out bytes.Buffer
	now := mustDate(t, "2025-11-21")
	service := NewScrapeService(source, memory.NewTourDateRepository(), nil, fixedIDs{}, logging.New(&out, logging.LevelInfo), ScrapeServiceConfig{
		DefaultSeason: "2025-26",
		Now:           func() time.Time { return now },
	})

	_, err := service.Run(context.Background(), ScrapeInput{Since: mustDate(t, "2025-11-20"), Until: mustDate(t, "2025-11-20")})
	require.NoError(t, err)
	require.Contains(t, out.String(), `"msg":"candidates filtered"`)
	require.Contains(t, out.String(), `"candidates":2`)
	require.Contains(t, out.String(), `"valid":1`)
}

func TestScrapeService_Run_DefaultStartForEmptySeason(t *testing.T) {
	source := newFakeSource()
	service := newScrapeService(source, memory.NewTourDateRepository(), nil, "2025-10-03")

	result, err := service.Run(context.Background(), ScrapeInput{})
	require.NoError(t, err)
	require.Equal(t, "2025-10-01", result.Since)
	require.Equal(t, 3, result.DatesScanned)
}

func TestScrapeService_Run_ToleratesFailures(t *testing.T) {
	source := newFakeSource()
	source.listErrs["2025-11-20"] = errors.New("schedule 503")
	source.addGame("2025-11-21", "201", line("A", "MIA", "ORL", 2, 10))
	source.addGame("2025-11-21", "202", line("B", "ORL", "MIA", 3, 15))
	source.boxErrs["201"] = errors.New("box score timeout")

	repo := memory.NewTourDateRepository()
	service := newScrapeService(source, repo, nil, "2025-11-22")

	result, err := service.Run(context.Background(), ScrapeInput{Since: mustDate(t, "2025-11-20"), Until: mustDate(t, "2025-11-21")})
	require.NoError(t, err)
	require.Equal(t, 1, result.DateFailures)
	require.Equal(t, 1, result.FetchFailures)
	require.Equal(t, 1, result.GamesFetched)
	require.Equal(t, 1, result.Written)
}

func TestScrapeService_Run_DryRunWritesNothingButExports(t *testing.T) {
	source := newFakeSource()
	source.addGame("2025-12-02", "301", line("Trae Young", "ATL", "BOS", 6, 21), line("Anfernee Simons", "BOS", "ATL", 2, 10))

	repo := memory.NewTourDateRepository()
	service := newScrapeService(source, repo, nil, "2025-12-03")
	exportPath := filepath.Join(t.TempDir(), "out", "tour_dates.json")

	result, err := service.Run(context.Background(), ScrapeInput{
		Since:      mustDate(t, "2025-12-02"),
		Until:      mustDate(t, "2025-12-02"),
		DryRun:     true,
		ExportPath: exportPath,
	})
	require.NoError(t, err)
	require.True(t, result.DryRun)
	require.Equal(t, 2, result.Valid)
	require.Zero(t, result.Written)

	count, err := repo.Count(context.Background(), "2025-26")
	require.NoError(t, err)
	require.Zero(t, count)

	payload, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	var records []TourDateRecord
	require.NoError(t, sonic.Unmarshal(payload, &records))
	require.Len(t, records, 2)
	names := []string{records[0].PlayerName, records[1].PlayerName}
	sort.Strings(names)
	require.Equal(t, []string{"Anfernee Simons", "Trae Young"}, names)
	require.Equal(t, "2025-12-02", records[0].GameDate)
	require.Equal(t, "2025-26", records[0].Season)
}

func TestScrapeService_Run_ValidatesInput(t *testing.T) {
	service := newScrapeService(newFakeSource(), memory.NewTourDateRepository(), nil, "2025-12-03")

	_, err := service.Run(context.Background(), ScrapeInput{Since: mustDate(t, "2025-12-05"), Until: mustDate(t, "2025-12-01")})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = service.Run(context.Background(), ScrapeInput{Season: "2025"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestScrapeService_Run_StopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	service := newScrapeService(newFakeSource(), memory.NewTourDateRepository(), nil, "2025-12-03")
	_, err := service.Run(ctx, ScrapeInput{Since: mustDate(t, "2025-12-01"), Until: mustDate(t, "2025-12-02")})
	require.ErrorIs(t, err, context.Canceled)
}
