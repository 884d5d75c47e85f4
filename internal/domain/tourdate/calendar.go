package tourdate

// Slot is a (month, day) position on the calendar grid.
type Slot struct {
	Month int `json:"month"`
	Day   int `json:"day"`
}

func (s Slot) Label() string {
	return Label(s.Month, s.Day)
}

type CalendarDay struct {
	Day       int
	Announced bool
	Entries   []TourDate
}

type CalendarMonth struct {
	Month int
	Name  string
	Days  []CalendarDay
}

// BuildCalendar lays rows on a 12-month grid keyed by (fgm, fga).
// Entries within a day keep the order of rows.
func BuildCalendar(rows []TourDate) []CalendarMonth {
	grouped := make(map[Slot][]TourDate, len(rows))
	for _, row := range rows {
		key := Slot{Month: row.FGM, Day: row.FGA}
		grouped[key] = append(grouped[key], row)
	}

	months := make([]CalendarMonth, 0, MonthsInYear)
	for month := 1; month <= MonthsInYear; month++ {
		limit := CalendarDays(month)
		days := make([]CalendarDay, 0, limit)
		for day := 1; day <= limit; day++ {
			entries := grouped[Slot{Month: month, Day: day}]
			days = append(days, CalendarDay{
				Day:       day,
				Announced: len(entries) > 0,
				Entries:   entries,
			})
		}
		months = append(months, CalendarMonth{
			Month: month,
			Name:  MonthName(month),
			Days:  days,
		})
	}
	return months
}

// MissingSlots lists grid slots absent from known, month-major.
func MissingSlots(known []Slot) []Slot {
	seen := make(map[Slot]struct{}, len(known))
	for _, s := range known {
		seen[s] = struct{}{}
	}

	missing := make([]Slot, 0, max(TotalSlots()-len(seen), 0))
	for month := 1; month <= MonthsInYear; month++ {
		for day := 1; day <= CalendarDays(month); day++ {
			s := Slot{Month: month, Day: day}
			if _, ok := seen[s]; !ok {
				missing = append(missing, s)
			}
		}
	}
	return missing
}

// TotalSlots is the size of the grid (365).
func TotalSlots() int {
	total := 0
	for month := 1; month <= MonthsInYear; month++ {
		total += calendarDays[month]
	}
	return total
}
