package tourdate

import (
	"context"
	"time"
)

// Repository describes tour date persistence needs from use cases.
type Repository interface {
	// Upsert writes rows keyed by (season, game_id, player_name), overwriting the
	// non-key columns of existing rows. It returns the number of rows written.
	Upsert(ctx context.Context, rows []TourDate) (int, error)
	// InsertIgnore inserts rows whose key is not present yet and returns how many were added.
	InsertIgnore(ctx context.Context, rows []TourDate) (int, error)
	ListRecent(ctx context.Context, season string, limit int) ([]TourDate, error)
	ListBySeason(ctx context.Context, season string) ([]TourDate, error)
	ListGameIDs(ctx context.Context, season string) ([]string, error)
	ListCombinations(ctx context.Context, season string) ([]Slot, error)
	LastGameDate(ctx context.Context, season string) (time.Time, bool, error)
	Count(ctx context.Context, season string) (int, error)
}
