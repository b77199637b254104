// Package calendar holds the date-bucketing and layout-geometry engine:
// which days a view shows, which events land in which cell, and where an
// event block sits inside a day column.
package calendar

import "time"

// StartOfDay truncates t to local midnight of its calendar day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day,
// ignoring the time of day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysInMonth uses "day 0 of the next month" instead of a length table.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths moves t by n calendar months. The day of month is clamped to
// the target month's length, so Mar 31 + 1 month is Apr 30, not May 1.
func AddMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	day := min(t.Day(), DaysInMonth(first.Year(), first.Month()))
	return time.Date(first.Year(), first.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// WeekOf returns the seven days of the week containing anchor. The week
// starts at the latest weekStart on or before anchor.
func WeekOf(anchor time.Time, weekStart time.Weekday) []time.Time {
	day := StartOfDay(anchor)
	offset := (int(day.Weekday()) - int(weekStart) + 7) % 7
	first := day.AddDate(0, 0, -offset)

	days := make([]time.Time, 7)
	for i := range days {
		days[i] = first.AddDate(0, 0, i)
	}
	return days
}

// MonthDays returns every day of anchor's month, 1st through last.
func MonthDays(anchor time.Time) []time.Time {
	y, m := anchor.Year(), anchor.Month()
	n := DaysInMonth(y, m)

	days := make([]time.Time, n)
	for i := range days {
		days[i] = time.Date(y, m, i+1, 0, 0, 0, 0, anchor.Location())
	}
	return days
}

// MonthSpan is one month of a year view.
type MonthSpan struct {
	Month time.Month
	Label string
	Days  []time.Time
}

// YearMonths returns the twelve months of anchor's year with their days.
func YearMonths(anchor time.Time) []MonthSpan {
	months := make([]MonthSpan, 12)
	for i := range months {
		m := time.January + time.Month(i)
		first := time.Date(anchor.Year(), m, 1, 0, 0, 0, 0, anchor.Location())
		months[i] = MonthSpan{
			Month: m,
			Label: m.String(),
			Days:  MonthDays(first),
		}
	}
	return months
}
