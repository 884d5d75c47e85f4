package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/tour-dates/internal/domain/tourdate"
	qb "github.com/riskibarqy/tour-dates/internal/platform/querybuilder"
)

// insertBatchSize keeps each statement well under SQLite's bound-parameter limit.
const insertBatchSize = 200

const upsertSuffix = `ON CONFLICT (season, game_id, player_name) DO UPDATE SET
    team_abbr = excluded.team_abbr,
    opponent_abbr = excluded.opponent_abbr,
    game_date = excluded.game_date,
    fgm = excluded.fgm,
    fga = excluded.fga,
    fg_pct = excluded.fg_pct`

const insertIgnoreSuffix = `ON CONFLICT (season, game_id, player_name) DO NOTHING`

type TourDateRepository struct {
	db *sqlx.DB
}

func NewTourDateRepository(db *sqlx.DB) *TourDateRepository {
	return &TourDateRepository{db: db}
}

func (r *TourDateRepository) Upsert(ctx context.Context, rows []tourdate.TourDate) (int, error) {
	rows = dedupeByKey(rows)
	if len(rows) == 0 {
		return 0, nil
	}
	if _, err := r.insertBatches(ctx, rows, upsertSuffix, "upsert"); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (r *TourDateRepository) InsertIgnore(ctx context.Context, rows []tourdate.TourDate) (int, error) {
	rows = dedupeByKey(rows)
	if len(rows) == 0 {
		return 0, nil
	}
	return r.insertBatches(ctx, rows, insertIgnoreSuffix, "insert")
}

func (r *TourDateRepository) insertBatches(ctx context.Context, rows []tourdate.TourDate, suffix, op string) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx %s tour dates: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	affected := 0
	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		models := make([]tourDateTableModel, 0, end-start)
		for _, row := range rows[start:end] {
			models = append(models, toTableModel(row))
		}

		query, args, err := qb.InsertModels(tourDatesTable, models, suffix)
		if err != nil {
			return 0, fmt.Errorf("build %s tour dates query: %w", op, err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("%s tour dates batch at %d: %w", op, start, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		affected += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit %s tour dates tx: %w", op, err)
	}
	return affected, nil
}

func (r *TourDateRepository) ListRecent(ctx context.Context, season string, limit int) ([]tourdate.TourDate, error) {
	query, args, err := qb.Select(tourDateSelectColumns...).From(tourDatesTable).
		Where(qb.Eq("season", season)).
		OrderBy("game_date DESC", "player_name ASC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select recent tour dates query: %w", err)
	}
	return r.selectRows(ctx, "select recent tour dates", query, args)
}

func (r *TourDateRepository) ListBySeason(ctx context.Context, season string) ([]tourdate.TourDate, error) {
	query, args, err := qb.Select(tourDateSelectColumns...).From(tourDatesTable).
		Where(qb.Eq("season", season)).
		OrderBy("game_date ASC", "player_name ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select season tour dates query: %w", err)
	}
	return r.selectRows(ctx, "select season tour dates", query, args)
}

func (r *TourDateRepository) selectRows(ctx context.Context, op, query string, args []any) ([]tourdate.TourDate, error) {
	var rows []tourDateTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]tourdate.TourDate, 0, len(rows))
	for _, row := range rows {
		item, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *TourDateRepository) ListGameIDs(ctx context.Context, season string) ([]string, error) {
	query, args, err := qb.SelectDistinct("game_id").From(tourDatesTable).
		Where(qb.Eq("season", season)).
		OrderBy("game_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select game ids query: %w", err)
	}

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("select game ids: %w", err)
	}
	return ids, nil
}

func (r *TourDateRepository) ListCombinations(ctx context.Context, season string) ([]tourdate.Slot, error) {
	query, args, err := qb.SelectDistinct("fgm", "fga").From(tourDatesTable).
		Where(qb.Eq("season", season)).
		OrderBy("fgm", "fga").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select combinations query: %w", err)
	}

	var rows []struct {
		FGM int `db:"fgm"`
		FGA int `db:"fga"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select combinations: %w", err)
	}

	out := make([]tourdate.Slot, 0, len(rows))
	for _, row := range rows {
		out = append(out, tourdate.Slot{Month: row.FGM, Day: row.FGA})
	}
	return out, nil
}

func (r *TourDateRepository) LastGameDate(ctx context.Context, season string) (time.Time, bool, error) {
	query, args, err := qb.Select("MAX(game_date)").From(tourDatesTable).
		Where(qb.Eq("season", season)).
		ToSQL()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("build select last game date query: %w", err)
	}

	var last sql.NullString
	if err := r.db.GetContext(ctx, &last, query, args...); err != nil {
		return time.Time{}, false, fmt.Errorf("select last game date: %w", err)
	}
	if !last.Valid || last.String == "" {
		return time.Time{}, false, nil
	}

	d, err := tourdate.ParseGameDate(last.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("select last game date: %w", err)
	}
	return d, true, nil
}

func (r *TourDateRepository) Count(ctx context.Context, season string) (int, error) {
	query, args, err := qb.Select("COUNT(*)").From(tourDatesTable).
		Where(qb.Eq("season", season)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count tour dates query: %w", err)
	}

	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count tour dates: %w", err)
	}
	return n, nil
}

// dedupeByKey keeps the last row for each key, preserving first-seen order.
func dedupeByKey(rows []tourdate.TourDate) []tourdate.TourDate {
	if len(rows) < 2 {
		return rows
	}
	index := make(map[tourdate.Key]int, len(rows))
	out := make([]tourdate.TourDate, 0, len(rows))
	for _, row := range rows {
		if i, ok := index[row.Key()]; ok {
			out[i] = row
			continue
		}
		index[row.Key()] = len(out)
		out = append(out, row)
	}
	return out
}
