package tourdate

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the storage and wire format for game dates.
const DateLayout = "2006-01-02"

var (
	ErrInvalidRow   = errors.New("invalid tour date row")
	ErrIneligible   = errors.New("performance is not eligible")
	ErrInvalidLabel = errors.New("performance does not form a calendar day")
)

// TourDate is one box-score line whose (fgm, fga) pair reads as a calendar day.
type TourDate struct {
	ID           int64
	Season       string
	PlayerName   string
	TeamAbbr     string
	OpponentAbbr string
	GameID       string
	GameDate     time.Time
	FGM          int
	FGA          int
	FGPct        float64
	CreatedAt    time.Time
}

// Key identifies a row for upserts.
type Key struct {
	Season     string
	GameID     string
	PlayerName string
}

func (t TourDate) Key() Key {
	return Key{Season: t.Season, GameID: t.GameID, PlayerName: t.PlayerName}
}

// Month and Day are the calendar coordinates the shooting line maps to.
func (t TourDate) Month() int { return t.FGM }
func (t TourDate) Day() int   { return t.FGA }

func (t TourDate) Label() string {
	return Label(t.FGM, t.FGA)
}

// Validate checks identity fields, eligibility and that the label is a real day.
func (t TourDate) Validate() error {
	switch {
	case strings.TrimSpace(t.Season) == "":
		return fmt.Errorf("%w: season is required", ErrInvalidRow)
	case strings.TrimSpace(t.PlayerName) == "":
		return fmt.Errorf("%w: player name is required", ErrInvalidRow)
	case strings.TrimSpace(t.GameID) == "":
		return fmt.Errorf("%w: game id is required", ErrInvalidRow)
	case strings.TrimSpace(t.TeamAbbr) == "":
		return fmt.Errorf("%w: team abbreviation is required", ErrInvalidRow)
	case t.GameDate.IsZero():
		return fmt.Errorf("%w: game date is required", ErrInvalidRow)
	}

	if !Eligible(t.FGM, t.FGA, t.FGPct, t.GameDate) {
		return fmt.Errorf("%w: %d-for-%d at %.3f on %s", ErrIneligible, t.FGM, t.FGA, t.FGPct, t.GameDate.Format(DateLayout))
	}
	if !ValidLabel(t.FGM, t.FGA) {
		return fmt.Errorf("%w: %d-for-%d", ErrInvalidLabel, t.FGM, t.FGA)
	}
	return nil
}

// IsTourDate reports whether Validate would accept the row.
func (t TourDate) IsTourDate() bool {
	return t.Validate() == nil
}

// ParseGameDate parses a YYYY-MM-DD date as a UTC midnight.
func ParseGameDate(v string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(v), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: game date %q: %v", ErrInvalidRow, v, err)
	}
	return d, nil
}

// NormalizeDate truncates t to its UTC calendar date.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
