package sqlite

import (
	"fmt"
	"time"

	"github.com/riskibarqy/tour-dates/internal/domain/tourdate"
)

const tourDatesTable = "tour_dates"

var tourDateSelectColumns = []string{
	"id",
	"season",
	"player_name",
	"team_abbr",
	"opponent_abbr",
	"game_id",
	"game_date",
	"fgm",
	"fga",
	"fg_pct",
	"created_at",
}

type tourDateTableModel struct {
	ID           int64   `db:"id,readonly"`
	Season       string  `db:"season"`
	PlayerName   string  `db:"player_name"`
	TeamAbbr     string  `db:"team_abbr"`
	OpponentAbbr string  `db:"opponent_abbr"`
	GameID       string  `db:"game_id"`
	GameDate     string  `db:"game_date"`
	FGM          int     `db:"fgm"`
	FGA          int     `db:"fga"`
	FGPct        float64 `db:"fg_pct"`
	CreatedAt    string  `db:"created_at,readonly"`
}

func toTableModel(item tourdate.TourDate) tourDateTableModel {
	return tourDateTableModel{
		Season:       item.Season,
		PlayerName:   item.PlayerName,
		TeamAbbr:     item.TeamAbbr,
		OpponentAbbr: item.OpponentAbbr,
		GameID:       item.GameID,
		GameDate:     item.GameDate.UTC().Format(tourdate.DateLayout),
		FGM:          item.FGM,
		FGA:          item.FGA,
		FGPct:        item.FGPct,
	}
}

func (m tourDateTableModel) toDomain() (tourdate.TourDate, error) {
	gameDate, err := tourdate.ParseGameDate(m.GameDate)
	if err != nil {
		return tourdate.TourDate{}, fmt.Errorf("row %d: %w", m.ID, err)
	}

	var createdAt time.Time
	if m.CreatedAt != "" {
		createdAt, err = parseTimestamp(m.CreatedAt)
		if err != nil {
			return tourdate.TourDate{}, fmt.Errorf("row %d created_at: %w", m.ID, err)
		}
	}

	return tourdate.TourDate{
		ID:           m.ID,
		Season:       m.Season,
		PlayerName:   m.PlayerName,
		TeamAbbr:     m.TeamAbbr,
		OpponentAbbr: m.OpponentAbbr,
		GameID:       m.GameID,
		GameDate:     gameDate,
		FGM:          m.FGM,
		FGA:          m.FGA,
		FGPct:        m.FGPct,
		CreatedAt:    createdAt,
	}, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

func parseTimestamp(v string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, v, time.UTC)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
