package calendar

import (
	"time"

	"calassist/internal/model"
)

// HoursPerDay is the number of hour-rows in a day column.
const HoursPerDay = 24

// onDate reports whether ev's date is d's calendar day. Events whose date
// does not parse never match any day.
func onDate(ev model.Event, d time.Time) bool {
	day, err := ev.Day()
	if err != nil {
		return false
	}
	return SameDay(day, d)
}

// EventsOnDate returns the events dated on date's calendar day, in the
// order given.
func EventsOnDate(events []model.Event, date time.Time) []model.Event {
	out := make([]model.Event, 0)
	for _, ev := range events {
		if onDate(ev, date) {
			out = append(out, ev)
		}
	}
	return out
}

// Partition splits events into those on date and the rest. Every event
// lands in exactly one of the two slices and both keep input order.
func Partition(events []model.Event, date time.Time) (on, off []model.Event) {
	on = make([]model.Event, 0)
	off = make([]model.Event, 0)
	for _, ev := range events {
		if onDate(ev, date) {
			on = append(on, ev)
		} else {
			off = append(off, ev)
		}
	}
	return on, off
}

// HasEvents drives the month/year indicator dot.
func HasEvents(events []model.Event, date time.Time) bool {
	for _, ev := range events {
		if onDate(ev, date) {
			return true
		}
	}
	return false
}

// overlapsHour tests [start, end) against [hour:00, hour+1:00). A
// zero-length event occupies the row containing its start so it is never
// dropped from a rows layout.
func overlapsHour(start, end model.WallTime, hour int) bool {
	rowStart, rowEnd := hour*60, (hour+1)*60
	s, e := start.Minutes(), end.Minutes()
	if s == e {
		return s >= rowStart && s < rowEnd
	}
	return s < rowEnd && e > rowStart
}

// EventsOverlappingHour returns the events on date whose time range
// intersects the given hour-row. Events with unparseable times are skipped.
func EventsOverlappingHour(events []model.Event, date time.Time, hour int) []model.Event {
	out := make([]model.Event, 0)
	if hour < 0 || hour >= HoursPerDay {
		return out
	}
	for _, ev := range events {
		if !onDate(ev, date) {
			continue
		}
		start, end, err := ev.Span()
		if err != nil {
			continue
		}
		if overlapsHour(start, end, hour) {
			out = append(out, ev)
		}
	}
	return out
}

// HourRows binds the events of date into all 24 hour-rows at once. A
// multi-hour event appears in every row it overlaps.
func HourRows(events []model.Event, date time.Time) [HoursPerDay][]model.Event {
	var rows [HoursPerDay][]model.Event
	for h := range rows {
		rows[h] = make([]model.Event, 0)
	}
	for _, ev := range EventsOnDate(events, date) {
		start, end, err := ev.Span()
		if err != nil {
			continue
		}
		for h := start.Hour; h < HoursPerDay && h <= end.Hour; h++ {
			if overlapsHour(start, end, h) {
				rows[h] = append(rows[h], ev)
			}
		}
	}
	return rows
}
