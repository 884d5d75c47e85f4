package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/tour-dates/internal/domain/tourdate"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(context.Background(), Options{Path: MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, MigrateUp(db, nil))
	return db
}

func row(t *testing.T, player, gameID, date string, fgm, fga int) tourdate.TourDate {
	t.Helper()
	d, err := tourdate.ParseGameDate(date)
	require.NoError(t, err)
	return tourdate.TourDate{
		Season:       "2025-26",
		PlayerName:   player,
		TeamAbbr:     "BOS",
		OpponentAbbr: "NYK",
		GameID:       gameID,
		GameDate:     d,
		FGM:          fgm,
		FGA:          fga,
		FGPct:        float64(fgm) / float64(fga),
	}
}

func TestTourDateRepository_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewTourDateRepository(newTestDB(t))

	rows := []tourdate.TourDate{
		row(t, "Jayson Tatum", "0022500101", "2025-11-20", 4, 28),
		row(t, "Jaylen Brown", "0022500101", "2025-11-20", 3, 12),
	}

	n, err := repo.Upsert(ctx, rows)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = repo.Upsert(ctx, rows)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	count, err := repo.Count(ctx, "2025-26")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestTourDateRepository_UpsertOverwritesNonKeyColumns(t *testing.T) {
	ctx := context.Background()
	repo := NewTourDateRepository(newTestDB(t))

	first := row(t, "Jayson Tatum", "0022500101", "2025-11-20", 4, 28)
	_, err := repo.Upsert(ctx, []tourdate.TourDate{first})
	require.NoError(t, err)

	before, err := repo.ListBySeason(ctx, "2025-26")
	require.NoError(t, err)
	require.Len(t, before, 1)

	corrected := first
	corrected.FGM, corrected.FGA, corrected.FGPct = 5, 29, 5.0/29
	corrected.OpponentAbbr = "PHI"
	_, err = repo.Upsert(ctx, []tourdate.TourDate{corrected})
	require.NoError(t, err)

	after, err := repo.ListBySeason(ctx, "2025-26")
	require.NoError(t, err)
	require.Len(t, after, 1)
	require.Equal(t, 5, after[0].FGM)
	require.Equal(t, 29, after[0].FGA)
	require.Equal(t, "PHI", after[0].OpponentAbbr)
	require.Equal(t, before[0].ID, after[0].ID)
	require.Equal(t, before[0].CreatedAt, after[0].CreatedAt)
	require.False(t, after[0].CreatedAt.IsZero())
}

func TestTourDateRepository_UpsertDedupesWithinBatch(t *testing.T) {
	ctx := context.Background()
	repo := NewTourDateRepository(newTestDB(t))

	a := row(t, "Jayson Tatum", "1", "2025-11-20", 4, 28)
	b := a
	b.FGA, b.FGPct = 20, 0.2

	n, err := repo.Upsert(ctx, []tourdate.TourDate{a, b})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	rows, err := repo.ListBySeason(ctx, "2025-26")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 20, rows[0].FGA)
}

func TestTourDateRepository_InsertIgnoreKeepsExisting(t *testing.T) {
	ctx := context.Background()
	repo := NewTourDateRepository(newTestDB(t))

	original := row(t, "Jayson Tatum", "1", "2025-11-20", 4, 28)
	n, err := repo.InsertIgnore(ctx, []tourdate.TourDate{original})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	changed := original
	changed.FGA, changed.FGPct = 20, 0.2
	n, err = repo.InsertIgnore(ctx, []tourdate.TourDate{changed, row(t, "Derrick White", "1", "2025-11-20", 2, 9)})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	rows, err := repo.ListBySeason(ctx, "2025-26")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		if r.PlayerName == "Jayson Tatum" {
			require.Equal(t, 28, r.FGA)
		}
	}
}

func TestTourDateRepository_RejectsCheckViolations(t *testing.T) {
	ctx := context.Background()
	repo := NewTourDateRepository(newTestDB(t))

	cases := map[string]tourdate.TourDate{
		"fgm over twelve":        row(t, "A", "1", "2026-01-10", 13, 20),
		"fga beyond month":       row(t, "B", "1", "2025-11-10", 2, 31),
		"made not below attempt": row(t, "C", "1", "2026-01-10", 6, 6),
	}
	for name, r := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := repo.Upsert(ctx, []tourdate.TourDate{r})
			require.Error(t, err)
		})
	}

	highPct := row(t, "D", "1", "2026-01-10", 3, 5)
	highPct.FGPct = 0.6
	_, err := repo.Upsert(ctx, []tourdate.TourDate{highPct})
	require.Error(t, err)

	count, err := repo.Count(ctx, "2025-26")
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestTourDateRepository_Queries(t *testing.T) {
	ctx := context.Background()
	repo := NewTourDateRepository(newTestDB(t))

	_, err := repo.Upsert(ctx, []tourdate.TourDate{
		row(t, "Zach LaVine", "10", "2025-11-01", 2, 11),
		row(t, "Anthony Davis", "11", "2025-12-05", 4, 28),
		row(t, "Bam Adebayo", "11", "2025-12-05", 4, 28),
		row(t, "Chris Paul", "12", "2025-10-25", 1, 9),
	})
	require.NoError(t, err)

	other := row(t, "Old Timer", "99", "2024-12-30", 3, 7)
	other.Season = "2024-25"
	_, err = repo.Upsert(ctx, []tourdate.TourDate{other})
	require.NoError(t, err)

	recent, err := repo.ListRecent(ctx, "2025-26", 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	require.Equal(t, "Anthony Davis", recent[0].PlayerName)
	require.Equal(t, "Bam Adebayo", recent[1].PlayerName)
	require.Equal(t, "Zach LaVine", recent[2].PlayerName)

	ids, err := repo.ListGameIDs(ctx, "2025-26")
	require.NoError(t, err)
	require.Equal(t, []string{"10", "11", "12"}, ids)

	combos, err := repo.ListCombinations(ctx, "2025-26")
	require.NoError(t, err)
	require.Equal(t, []tourdate.Slot{{Month: 1, Day: 9}, {Month: 2, Day: 11}, {Month: 4, Day: 28}}, combos)

	last, ok, err := repo.LastGameDate(ctx, "2025-26")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC), last)

	_, ok, err = repo.LastGameDate(ctx, "2030-31")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPrepare(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tourdates.db")

	require.NoError(t, Prepare(path, false))
	require.False(t, Exists(path))

	db, err := Open(context.Background(), Options{Path: path})
	require.NoError(t, err)
	require.NoError(t, MigrateUp(db, nil))
	require.NoError(t, db.Close())
	require.True(t, Exists(path))

	require.ErrorIs(t, Prepare(path, false), ErrDatabaseExists)
	require.NoError(t, Prepare(path, true))
	require.False(t, Exists(path))
}
