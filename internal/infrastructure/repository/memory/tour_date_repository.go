package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/tour-dates/internal/domain/tourdate"
)

// TourDateRepository keeps rows in process. Writes enforce the same checks
// as the SQLite schema so both stores accept exactly the same rows.
type TourDateRepository struct {
	mu     sync.RWMutex
	rows   []tourdate.TourDate
	index  map[tourdate.Key]int
	nextID int64
	now    func() time.Time
}

func NewTourDateRepository(seed ...tourdate.TourDate) *TourDateRepository {
	r := &TourDateRepository{
		index:  make(map[tourdate.Key]int),
		nextID: 1,
		now:    time.Now,
	}
	for _, row := range seed {
		r.put(row, true)
	}
	return r
}

func (r *TourDateRepository) Upsert(_ context.Context, rows []tourdate.TourDate) (int, error) {
	if err := checkRows(rows); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	written := make(map[tourdate.Key]struct{}, len(rows))
	for _, row := range rows {
		r.put(row, true)
		written[row.Key()] = struct{}{}
	}
	return len(written), nil
}

func (r *TourDateRepository) InsertIgnore(_ context.Context, rows []tourdate.TourDate) (int, error) {
	if err := checkRows(rows); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := 0
	for _, row := range rows {
		if r.put(row, false) {
			inserted++
		}
	}
	return inserted, nil
}

// put stores row and reports whether a new row was created. Caller holds mu.
func (r *TourDateRepository) put(row tourdate.TourDate, overwrite bool) bool {
	row.GameDate = tourdate.NormalizeDate(row.GameDate)
	if i, ok := r.index[row.Key()]; ok {
		if overwrite {
			existing := r.rows[i]
			row.ID = existing.ID
			row.CreatedAt = existing.CreatedAt
			r.rows[i] = row
		}
		return false
	}

	row.ID = r.nextID
	r.nextID++
	row.CreatedAt = r.now().UTC().Truncate(time.Second)
	r.index[row.Key()] = len(r.rows)
	r.rows = append(r.rows, row)
	return true
}

func checkRows(rows []tourdate.TourDate) error {
	for _, row := range rows {
		if !tourdate.Eligible(row.FGM, row.FGA, row.FGPct, row.GameDate) {
			return fmt.Errorf("%w: %s in game %s", tourdate.ErrIneligible, row.PlayerName, row.GameID)
		}
	}
	return nil
}

func (r *TourDateRepository) ListRecent(ctx context.Context, season string, limit int) ([]tourdate.TourDate, error) {
	rows, _ := r.ListBySeason(ctx, season)
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].GameDate.Equal(rows[j].GameDate) {
			return rows[i].GameDate.After(rows[j].GameDate)
		}
		return rows[i].PlayerName < rows[j].PlayerName
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (r *TourDateRepository) ListBySeason(_ context.Context, season string) ([]tourdate.TourDate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]tourdate.TourDate, 0, len(r.rows))
	for _, row := range r.rows {
		if row.Season == season {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].GameDate.Equal(out[j].GameDate) {
			return out[i].GameDate.Before(out[j].GameDate)
		}
		return out[i].PlayerName < out[j].PlayerName
	})
	return out, nil
}

func (r *TourDateRepository) ListGameIDs(ctx context.Context, season string) ([]string, error) {
	rows, _ := r.ListBySeason(ctx, season)
	seen := make(map[string]struct{}, len(rows))
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.GameID]; ok {
			continue
		}
		seen[row.GameID] = struct{}{}
		out = append(out, row.GameID)
	}
	sort.Strings(out)
	return out, nil
}

func (r *TourDateRepository) ListCombinations(ctx context.Context, season string) ([]tourdate.Slot, error) {
	rows, _ := r.ListBySeason(ctx, season)
	seen := make(map[tourdate.Slot]struct{}, len(rows))
	out := make([]tourdate.Slot, 0, len(rows))
	for _, row := range rows {
		s := tourdate.Slot{Month: row.FGM, Day: row.FGA}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].Day < out[j].Day
	})
	return out, nil
}

func (r *TourDateRepository) LastGameDate(ctx context.Context, season string) (time.Time, bool, error) {
	rows, _ := r.ListBySeason(ctx, season)
	if len(rows) == 0 {
		return time.Time{}, false, nil
	}
	return rows[len(rows)-1].GameDate, true, nil
}

func (r *TourDateRepository) Count(ctx context.Context, season string) (int, error) {
	rows, _ := r.ListBySeason(ctx, season)
	return len(rows), nil
}
