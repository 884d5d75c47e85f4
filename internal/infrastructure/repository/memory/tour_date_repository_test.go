package memory

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/tour-dates/internal/domain/tourdate"
	"github.com/stretchr/testify/require"
)

func sample(player, gameID string, day int, fgm, fga int) tourdate.TourDate {
	return tourdate.TourDate{
		Season:       "2025-26",
		PlayerName:   player,
		TeamAbbr:     "LAL",
		OpponentAbbr: "GSW",
		GameID:       gameID,
		GameDate:     time.Date(2025, time.December, day, 0, 0, 0, 0, time.UTC),
		FGM:          fgm,
		FGA:          fga,
		FGPct:        float64(fgm) / float64(fga),
	}
}

func TestTourDateRepository_UpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewTourDateRepository()
	rows := []tourdate.TourDate{sample("LeBron James", "1", 3, 4, 28), sample("Austin Reaves", "1", 3, 2, 10)}

	for i := 0; i < 3; i++ {
		n, err := repo.Upsert(ctx, rows)
		require.NoError(t, err)
		require.Equal(t, 2, n)
	}

	count, err := repo.Count(ctx, "2025-26")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestTourDateRepository_UpsertKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	repo := NewTourDateRepository()
	repo.now = func() time.Time { return time.Date(2025, 12, 4, 1, 0, 0, 0, time.UTC) }

	original := sample("LeBron James", "1", 3, 4, 28)
	_, err := repo.Upsert(ctx, []tourdate.TourDate{original})
	require.NoError(t, err)

	repo.now = func() time.Time { return time.Date(2025, 12, 5, 1, 0, 0, 0, time.UTC) }
	updated := original
	updated.FGA, updated.FGPct = 20, 0.2
	_, err = repo.Upsert(ctx, []tourdate.TourDate{updated})
	require.NoError(t, err)

	rows, err := repo.ListBySeason(ctx, "2025-26")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, int64(1), rows[0].ID)
	require.Equal(t, 20, rows[0].FGA)
	require.Equal(t, time.Date(2025, 12, 4, 1, 0, 0, 0, time.UTC), rows[0].CreatedAt)
}

func TestTourDateRepository_RejectsIneligible(t *testing.T) {
	repo := NewTourDateRepository()
	bad := sample("X", "1", 3, 13, 20)

	_, err := repo.Upsert(context.Background(), []tourdate.TourDate{bad})
	require.ErrorIs(t, err, tourdate.ErrIneligible)
}

func TestTourDateRepository_InsertIgnoreAndQueries(t *testing.T) {
	ctx := context.Background()
	repo := NewTourDateRepository(sample("Seeded", "5", 1, 1, 9))

	n, err := repo.InsertIgnore(ctx, []tourdate.TourDate{sample("Seeded", "5", 1, 1, 12), sample("Fresh", "6", 20, 4, 28)})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	recent, err := repo.ListRecent(ctx, "2025-26", 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, "Fresh", recent[0].PlayerName)

	ids, err := repo.ListGameIDs(ctx, "2025-26")
	require.NoError(t, err)
	require.Equal(t, []string{"5", "6"}, ids)

	combos, err := repo.ListCombinations(ctx, "2025-26")
	require.NoError(t, err)
	require.Equal(t, []tourdate.Slot{{Month: 1, Day: 9}, {Month: 4, Day: 28}}, combos)

	last, ok, err := repo.LastGameDate(ctx, "2025-26")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 20, last.Day())
}
