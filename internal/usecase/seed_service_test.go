package usecase

import (
	"context"
	"testing"

	dbassets "github.com/riskibarqy/tour-dates/db"
	"github.com/riskibarqy/tour-dates/internal/domain/tourdate"
	"github.com/riskibarqy/tour-dates/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/tour-dates/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

func TestDecodeSeed_EmbeddedFileIsValid(t *testing.T) {
	payload, err := dbassets.Seed.ReadFile(dbassets.SeedFile)
	require.NoError(t, err)

	rows, err := DecodeSeed(payload)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	for _, row := range rows {
		require.NoError(t, row.Validate(), "seed row %s", row.PlayerName)
	}
}

func TestDecodeSeed_RejectsBadPayload(t *testing.T) {
	_, err := DecodeSeed([]byte(`{"not":"an array"}`))
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = DecodeSeed([]byte(`[{"season":"2025-26","game_date":"11/20/2025"}]`))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestSeedService_SeedIsRepeatable(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewTourDateRepository()
	service := NewSeedService(repo, logging.NewNop())

	payload, err := dbassets.Seed.ReadFile(dbassets.SeedFile)
	require.NoError(t, err)
	rows, err := DecodeSeed(payload)
	require.NoError(t, err)

	first, err := service.Seed(ctx, rows)
	require.NoError(t, err)
	require.Equal(t, len(rows), first.Inserted)

	second, err := service.Seed(ctx, rows)
	require.NoError(t, err)
	require.Zero(t, second.Inserted)
	require.Equal(t, len(rows), second.Skipped)
}

func TestSeedService_RejectsIneligibleRow(t *testing.T) {
	service := NewSeedService(memory.NewTourDateRepository(), logging.NewNop())
	bad := tourdate.TourDate{
		Season: "2025-26", PlayerName: "X", TeamAbbr: "BOS", GameID: "1",
		GameDate: mustDate(t, "2025-11-01"), FGM: 5, FGA: 32, FGPct: 0.15,
	}

	_, err := service.Seed(context.Background(), []tourdate.TourDate{bad})
	require.ErrorIs(t, err, ErrInvalidInput)
}
