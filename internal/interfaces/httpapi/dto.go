package httpapi

import (
	"github.com/riskibarqy/tour-dates/internal/domain/tourdate"
)

type listDTO[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

type tourDateDTO struct {
	Season       string  `json:"season"`
	PlayerName   string  `json:"player_name"`
	TeamAbbr     string  `json:"team_abbr"`
	OpponentAbbr string  `json:"opponent_abbr"`
	GameID       string  `json:"game_id"`
	GameDate     string  `json:"game_date"`
	FGM          int     `json:"fgm"`
	FGA          int     `json:"fga"`
	FGPct        float64 `json:"fg_pct"`
	FGPctText    string  `json:"fg_pct_text"`
	Label        string  `json:"label"`
}

type calendarDayDTO struct {
	Day       int           `json:"day"`
	Announced bool          `json:"announced"`
	Entries   []tourDateDTO `json:"entries,omitempty"`
}

type calendarMonthDTO struct {
	Month int              `json:"month"`
	Name  string           `json:"name"`
	Days  []calendarDayDTO `json:"days"`
}

type slotDTO struct {
	Month int    `json:"month"`
	Day   int    `json:"day"`
	Label string `json:"label"`
}

func tourDateToDTO(v tourdate.TourDate) tourDateDTO {
	return tourDateDTO{
		Season:       v.Season,
		PlayerName:   v.PlayerName,
		TeamAbbr:     v.TeamAbbr,
		OpponentAbbr: v.OpponentAbbr,
		GameID:       v.GameID,
		GameDate:     v.GameDate.Format(tourdate.DateLayout),
		FGM:          v.FGM,
		FGA:          v.FGA,
		FGPct:        v.FGPct,
		FGPctText:    tourdate.FormatPercentage(v.FGPct),
		Label:        v.Label(),
	}
}

func calendarMonthToDTO(v tourdate.CalendarMonth) calendarMonthDTO {
	days := make([]calendarDayDTO, 0, len(v.Days))
	for _, day := range v.Days {
		var entries []tourDateDTO
		for _, entry := range day.Entries {
			entries = append(entries, tourDateToDTO(entry))
		}
		days = append(days, calendarDayDTO{
			Day:       day.Day,
			Announced: day.Announced,
			Entries:   entries,
		})
	}
	return calendarMonthDTO{Month: v.Month, Name: v.Name, Days: days}
}
