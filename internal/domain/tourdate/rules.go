package tourdate

import (
	"fmt"
	"time"
)

const (
	MinFGM       = 1
	MaxFGM       = 12
	MaxFGA       = 31
	MaxFGPct     = 0.50
	MonthsInYear = 12
)

var monthNames = [MonthsInYear + 1]string{
	"", "January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// calendarDays is the fixed grid used for labels; February always has 28 slots.
var calendarDays = [MonthsInYear + 1]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// Eligible applies the shooting filter against the real calendar of gameDate.
func Eligible(fgm, fga int, fgPct float64, gameDate time.Time) bool {
	return fgm >= MinFGM && fgm <= MaxFGM &&
		fgm < fga &&
		fgPct < MaxFGPct &&
		fga <= DaysInMonth(gameDate) &&
		fga <= MaxFGA
}

// ValidLabel reports whether (fgm, fga) names a day on the calendar grid.
func ValidLabel(fgm, fga int) bool {
	if fgm < MinFGM || fgm > MaxFGM {
		return false
	}
	return fga >= 1 && fga <= calendarDays[fgm]
}

// DaysInMonth returns the length of t's month, leap years included.
func DaysInMonth(t time.Time) int {
	y, m, _ := t.Date()
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// CalendarDays returns the number of grid slots for month, or 0 when out of range.
func CalendarDays(month int) int {
	if month < 1 || month > MonthsInYear {
		return 0
	}
	return calendarDays[month]
}

func MonthName(month int) string {
	if month < 1 || month > MonthsInYear {
		return ""
	}
	return monthNames[month]
}

// Label renders 4-for-28 as "April 28".
func Label(fgm, fga int) string {
	name := MonthName(fgm)
	if name == "" {
		return fmt.Sprintf("%d/%d", fgm, fga)
	}
	return fmt.Sprintf("%s %d", name, fga)
}

// FormatPercentage renders a 0..1 ratio with one decimal, e.g. 0.1428 -> "14.3%".
func FormatPercentage(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

// FilterTourDates keeps the rows that pass Validate.
func FilterTourDates(rows []TourDate) []TourDate {
	out := make([]TourDate, 0, len(rows))
	for _, row := range rows {
		if row.IsTourDate() {
			out = append(out, row)
		}
	}
	return out
}
