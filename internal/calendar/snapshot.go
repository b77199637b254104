package calendar

import (
	"fmt"
	"time"

	"calassist/internal/model"
)

// Layout selects how day/week views bind events. The two strategies are
// exclusive: a snapshot carries either placed blocks or hour-rows.
type Layout string

const (
	// LayoutAbsolute emits each event once with its Geometry.
	LayoutAbsolute Layout = "absolute"
	// LayoutRows repeats each event in every hour-row it overlaps.
	LayoutRows Layout = "rows"
)

// dayTitleLayout mirrors the "Mon Jun 10 2024" style used in range headers.
const dayTitleLayout = "Mon Jan 02 2006"

// PlacedEvent is an event with its position in the day column. Geometry
// is nil when the event's times do not parse.
type PlacedEvent struct {
	Event    model.Event `json:"event"`
	Geometry *Geometry   `json:"geometry,omitempty"`
}

// HourRow is one hour band of a day column.
type HourRow struct {
	Hour   int           `json:"hour"`
	Label  string        `json:"label"`
	Events []model.Event `json:"events"`
}

// DayCell is one day in a day, week, month or year view.
type DayCell struct {
	Date       string        `json:"date"`
	Weekday    string        `json:"weekday"`
	Day        int           `json:"day"`
	Today      bool          `json:"today"`
	HasEvents  bool          `json:"has_events"`
	EventCount int           `json:"event_count"`
	Events     []PlacedEvent `json:"events,omitempty"`
	Hours      []HourRow     `json:"hours,omitempty"`
}

// MonthBlock is one month of a year view.
type MonthBlock struct {
	Month int       `json:"month"`
	Label string    `json:"label"`
	Days  []DayCell `json:"days"`
}

// Snapshot is the read-only data handed to the presentation layer.
type Snapshot struct {
	Granularity Granularity  `json:"granularity"`
	Anchor      string       `json:"anchor"`
	Title       string       `json:"title"`
	DarkMode    bool         `json:"dark_mode"`
	Selected    *model.Event `json:"selected,omitempty"`
	Layout      Layout       `json:"layout"`
	HourHeight  float64      `json:"hour_height"`
	Days        []DayCell    `json:"days,omitempty"`
	Months      []MonthBlock `json:"months,omitempty"`
	// NowLine is the current-time indicator offset; set only when today is
	// visible in a day or week view.
	NowLine *float64 `json:"now_line,omitempty"`
}

// BuildOptions carries everything Build needs besides state and events.
type BuildOptions struct {
	WeekStart time.Weekday
	Layout    Layout
	Mapper    *Mapper
	Now       time.Time
}

// Build resolves the visible dates for state and binds events to them.
func Build(state ViewState, events []model.Event, opts BuildOptions) Snapshot {
	if opts.Mapper == nil {
		opts.Mapper = NewMapper(DefaultHourHeight, DefaultMinHeight)
	}
	if opts.Layout != LayoutRows {
		opts.Layout = LayoutAbsolute
	}

	snap := Snapshot{
		Granularity: state.Granularity,
		Anchor:      model.FormatDate(state.Anchor),
		DarkMode:    state.DarkMode,
		Layout:      opts.Layout,
		HourHeight:  opts.Mapper.HourHeight(),
	}

	if state.SelectedID != nil {
		for _, ev := range events {
			if ev.ID == *state.SelectedID {
				sel := ev
				snap.Selected = &sel
				break
			}
		}
	}

	switch state.Granularity {
	case Day:
		snap.Title = state.Anchor.Format(dayTitleLayout)
		snap.Days = timedCells([]time.Time{state.Anchor}, events, opts)
	case Week:
		days := WeekOf(state.Anchor, opts.WeekStart)
		snap.Title = fmt.Sprintf("%s - %s", days[0].Format(dayTitleLayout), days[6].Format(dayTitleLayout))
		snap.Days = timedCells(days, events, opts)
	case Month:
		snap.Title = fmt.Sprintf("%s %d", state.Anchor.Month(), state.Anchor.Year())
		snap.Days = indicatorCells(MonthDays(state.Anchor), events, opts.Now)
	case Year:
		snap.Title = fmt.Sprintf("%d", state.Anchor.Year())
		for _, m := range YearMonths(state.Anchor) {
			snap.Months = append(snap.Months, MonthBlock{
				Month: int(m.Month),
				Label: m.Label,
				Days:  indicatorCells(m.Days, events, opts.Now),
			})
		}
	}

	if state.Granularity == Day || state.Granularity == Week {
		for _, c := range snap.Days {
			if c.Today {
				line := opts.Mapper.NowLine(opts.Now)
				snap.NowLine = &line
				break
			}
		}
	}

	return snap
}

func baseCell(d time.Time, onDay []model.Event, now time.Time) DayCell {
	return DayCell{
		Date:       model.FormatDate(d),
		Weekday:    d.Weekday().String(),
		Day:        d.Day(),
		Today:      !now.IsZero() && SameDay(d, now),
		HasEvents:  len(onDay) > 0,
		EventCount: len(onDay),
	}
}

func indicatorCells(days []time.Time, events []model.Event, now time.Time) []DayCell {
	cells := make([]DayCell, len(days))
	for i, d := range days {
		cells[i] = baseCell(d, EventsOnDate(events, d), now)
	}
	return cells
}

func timedCells(days []time.Time, events []model.Event, opts BuildOptions) []DayCell {
	cells := make([]DayCell, len(days))
	for i, d := range days {
		onDay := EventsOnDate(events, d)
		cell := baseCell(d, onDay, opts.Now)

		switch opts.Layout {
		case LayoutRows:
			rows := HourRows(onDay, d)
			cell.Hours = make([]HourRow, HoursPerDay)
			for h := range rows {
				cell.Hours[h] = HourRow{Hour: h, Label: fmt.Sprintf("%d:00", h), Events: rows[h]}
			}
		default:
			cell.Events = make([]PlacedEvent, 0, len(onDay))
			for _, ev := range onDay {
				pe := PlacedEvent{Event: ev}
				if g, err := opts.Mapper.Place(ev); err == nil {
					pe.Geometry = &g
				}
				cell.Events = append(cell.Events, pe)
			}
		}
		cells[i] = cell
	}
	return cells
}
