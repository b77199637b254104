package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestWeekOf_SevenConsecutiveDaysContainingAnchor(t *testing.T) {
	start := date(2023, time.December, 20)
	for i := 0; i < 500; i++ {
		anchor := start.AddDate(0, 0, i).Add(15 * time.Hour)
		for _, ws := range []time.Weekday{time.Sunday, time.Monday} {
			days := WeekOf(anchor, ws)
			require.Len(t, days, 7)
			assert.Equal(t, ws, days[0].Weekday(), anchor)

			found := false
			for j, d := range days {
				if j > 0 {
					assert.Equal(t, days[j-1].AddDate(0, 0, 1), d)
				}
				if SameDay(d, anchor) {
					found = true
				}
			}
			assert.True(t, found, "anchor %s not in its week", anchor)
		}
	}
}

func TestWeekOf_SundayStart(t *testing.T) {
	// 2024-06-10 is a Monday.
	days := WeekOf(date(2024, time.June, 10), time.Sunday)
	assert.Equal(t, date(2024, time.June, 9), days[0])
	assert.Equal(t, date(2024, time.June, 15), days[6])

	days = WeekOf(date(2024, time.June, 9), time.Monday)
	assert.Equal(t, date(2024, time.June, 3), days[0])
}

func TestMonthDays_Lengths(t *testing.T) {
	cases := []struct {
		y    int
		m    time.Month
		want int
	}{
		{2024, time.February, 29},
		{2023, time.February, 28},
		{1900, time.February, 28},
		{2000, time.February, 29},
		{2024, time.April, 30},
		{2024, time.December, 31},
	}
	for _, tc := range cases {
		days := MonthDays(date(tc.y, tc.m, 17))
		require.Len(t, days, tc.want)
		assert.Equal(t, 1, days[0].Day())
		assert.Equal(t, tc.want, days[len(days)-1].Day())
		assert.Equal(t, tc.m, days[len(days)-1].Month())
	}
}

func TestYearMonths(t *testing.T) {
	months := YearMonths(date(2024, time.August, 3))
	require.Len(t, months, 12)

	total := 0
	for i, m := range months {
		assert.Equal(t, time.Month(i+1), m.Month)
		assert.Equal(t, m.Month.String(), m.Label)
		total += len(m.Days)
		for _, d := range m.Days {
			assert.Equal(t, 2024, d.Year())
		}
	}
	assert.Equal(t, 366, total)
}

func TestAddMonths_Clamps(t *testing.T) {
	assert.Equal(t, date(2024, time.April, 30), AddMonths(date(2024, time.March, 31), 1))
	assert.Equal(t, date(2024, time.February, 29), AddMonths(date(2024, time.January, 31), 1))
	assert.Equal(t, date(2023, time.November, 30), AddMonths(date(2024, time.March, 31), -4))
	assert.Equal(t, date(2025, time.February, 28), AddMonths(date(2024, time.February, 29), 12))
	assert.Equal(t, date(2025, time.January, 15), AddMonths(date(2024, time.December, 15), 1))
}
