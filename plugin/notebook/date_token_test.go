package notebook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		year  int
		want  CalendarDate
	}{
		{"month/day", "10/30", 2025, CalendarDate{2025, 10, 30}},
		{"month-day", "10-30", 2025, CalendarDate{2025, 10, 30}},
		{"single digits", "1/5", 2024, CalendarDate{2024, 1, 5}},
		{"chinese month day", "10月30日", 2025, CalendarDate{2025, 10, 30}},
		{"chinese month day without day mark", "3月8", 2025, CalendarDate{2025, 3, 8}},
		{"full date", "2024/2/29", 2025, CalendarDate{2024, 2, 29}},
		{"full chinese date", "2023年12月31日", 2025, CalendarDate{2023, 12, 31}},
		{"date with time", "10/28 10:01", 2025, CalendarDate{2025, 10, 28}},
		{"date after text", "記錄 11/2", 2025, CalendarDate{2025, 11, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input, tt.year)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDate_NoMatch(t *testing.T) {
	inputs := []string{"", "not a date", "15:30", "15.5", "七點半", "2025"}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, ok := ParseDate(input, 2025)
			assert.False(t, ok)
		})
	}
}

func TestMatchDate_Remainder(t *testing.T) {
	d, rest, ok := matchDate("10/30 08:06", 2025)
	require.True(t, ok)
	assert.Equal(t, CalendarDate{2025, 10, 30}, d)
	assert.Equal(t, "08:06", rest)

	_, rest, ok = matchDate("10月30日", 2025)
	require.True(t, ok)
	assert.Empty(t, rest)
}

func TestCalendarDate_At(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)

	got := CalendarDate{2025, 10, 30}.At(TimeOfDay{8, 6}, loc)
	assert.Equal(t, time.Date(2025, 10, 30, 8, 6, 0, 0, loc), got)

	// Overflowing days roll into the next month.
	got = CalendarDate{2025, 2, 30}.At(TimeOfDay{0, 0}, loc)
	assert.Equal(t, time.Date(2025, 3, 2, 0, 0, 0, 0, loc), got)

	assert.Equal(t, "2025-10-30", CalendarDate{2025, 10, 30}.String())
	assert.Equal(t, CalendarDate{2025, 10, 30}, DateOf(time.Date(2025, 10, 30, 23, 59, 0, 0, loc)))
}
