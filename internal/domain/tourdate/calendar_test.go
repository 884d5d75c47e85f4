package tourdate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildCalendar(t *testing.T) {
	rows := []TourDate{
		{PlayerName: "A", FGM: 4, FGA: 28},
		{PlayerName: "B", FGM: 4, FGA: 28},
		{PlayerName: "C", FGM: 1, FGA: 3},
	}

	months := BuildCalendar(rows)
	require.Len(t, months, 12)
	require.Equal(t, "January", months[0].Name)
	require.Len(t, months[1].Days, 28)
	require.Len(t, months[3].Days, 30)

	april28 := months[3].Days[27]
	require.Equal(t, 28, april28.Day)
	require.True(t, april28.Announced)
	require.Len(t, april28.Entries, 2)
	require.Equal(t, "A", april28.Entries[0].PlayerName)

	require.True(t, months[0].Days[2].Announced)
	require.False(t, months[0].Days[3].Announced)
	require.Empty(t, months[0].Days[3].Entries)
}

func TestMissingSlots(t *testing.T) {
	require.Equal(t, 365, TotalSlots())

	missing := MissingSlots([]Slot{{Month: 1, Day: 1}, {Month: 4, Day: 28}})
	require.Len(t, missing, 363)
	require.Equal(t, Slot{Month: 1, Day: 2}, missing[0])
	require.Equal(t, Slot{Month: 12, Day: 31}, missing[len(missing)-1])
	for _, s := range missing {
		require.NotEqual(t, Slot{Month: 4, Day: 28}, s)
	}

	require.Len(t, MissingSlots(nil), 365)
	require.Equal(t, "April 28", Slot{Month: 4, Day: 28}.Label())
}
