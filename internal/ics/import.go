package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "calassist/internal/log"
	"calassist/internal/model"
)

// ErrMalformed wraps payloads that are not readable iCalendar.
var ErrMalformed = errors.New("malformed iCalendar")

// Import parses an iCalendar payload into drafts ready for the store.
//
//   - DTSTART/DTEND are converted to local wall-clock time; an end on a
//     later day is clamped to 23:59 of the start day.
//   - All-day events span 00:00-23:59.
//   - RRULE FREQ maps to the recurring label; unsupported frequencies
//     become "None". Occurrences are not expanded.
//   - The first VALARM trigger maps to the closest reminder label.
//
// VEVENTs that cannot be read are logged and skipped.
func Import(body []byte) ([]model.Draft, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformed)
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	drafts := make([]model.Draft, 0)
	for _, ve := range cal.Events() {
		d, perr := parseVEvent(ve)
		if perr != nil {
			appLog.Error("ics vevent skipped", perr, "uid", propValue(&ve.ComponentBase, ical.ComponentPropertyUniqueId))
			continue
		}
		drafts = append(drafts, d)
	}

	appLog.Info("ics import parsed", "event_count", len(drafts))
	return drafts, nil
}

func parseVEvent(ve *ical.VEvent) (model.Draft, error) {
	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil {
		return model.Draft{}, errors.New("missing DTSTART")
	}
	start, allDay, err := propTime(startProp)
	if err != nil {
		return model.Draft{}, fmt.Errorf("DTSTART: %w", err)
	}

	end := start
	if endProp := ve.GetProperty(ical.ComponentPropertyDtEnd); endProp != nil {
		if end, _, err = propTime(endProp); err != nil {
			return model.Draft{}, fmt.Errorf("DTEND: %w", err)
		}
	}

	startWall := model.WallTimeOf(start)
	endWall := model.WallTimeOf(end)
	lastMinute := model.WallTime{Hour: 23, Minute: 59}
	switch {
	case allDay:
		startWall = model.WallTime{}
		endWall = lastMinute
	case end.Before(start):
		endWall = startWall
	case start.YearDay() != end.YearDay() || start.Year() != end.Year():
		endWall = lastMinute
	}

	d := model.Draft{
		Title:     propValue(&ve.ComponentBase, ical.ComponentPropertySummary),
		Date:      model.FormatDate(start),
		StartTime: startWall.String(),
		EndTime:   endWall.String(),
		Reminder:  model.Reminder10Minutes,
		Recurring: model.RecurringNone,
	}

	if raw := propValue(&ve.ComponentBase, ical.ComponentPropertyRrule); raw != "" {
		d.Recurring = recurringLabel(raw)
	}
	for _, alarm := range ve.Alarms() {
		trigger := propValue(&alarm.ComponentBase, ical.ComponentPropertyTrigger)
		if lead, err := parseTrigger(trigger); err == nil {
			d.Reminder = nearestReminder(lead)
			break
		}
	}
	return d, nil
}

func propValue(cb *ical.ComponentBase, p ical.ComponentProperty) string {
	if prop := cb.GetProperty(p); prop != nil {
		return prop.Value
	}
	return ""
}

// propTime reads a DATE or DATE-TIME property into local time. It reports
// whether the value is a date without time (all-day).
func propTime(p *ical.IANAProperty) (time.Time, bool, error) {
	v := strings.TrimSpace(p.Value)
	if v == "" {
		return time.Time{}, false, errors.New("empty time value")
	}

	loc := time.Local
	if tzs, ok := p.ICalParameters["TZID"]; ok && len(tzs) > 0 {
		if l, err := time.LoadLocation(tzs[0]); err == nil {
			loc = l
		} else {
			appLog.Warn("ics unknown TZID, using local time", "tzid", tzs[0])
		}
	}

	// UTC form, e.g., 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse("20060102T150405Z", v)
		return t.In(time.Local), false, err
	}
	// Local or TZID date-time, e.g., 20250101T090000
	if strings.Contains(v, "T") {
		t, err := time.ParseInLocation(floatingLayout, v, loc)
		return t.In(time.Local), false, err
	}
	// Date-only (all-day), e.g., 20250101
	t, err := time.ParseInLocation("20060102", v, time.Local)
	return t, true, err
}

var freqLabel = map[rrule.Frequency]string{
	rrule.DAILY:   model.RecurringDaily,
	rrule.WEEKLY:  model.RecurringWeekly,
	rrule.MONTHLY: model.RecurringMonthly,
}

func recurringLabel(raw string) string {
	opt, err := rrule.StrToROption(raw)
	if err != nil {
		appLog.Warn("ics RRULE unreadable, treating as non-recurring", "rrule", raw)
		return model.RecurringNone
	}
	if label, ok := freqLabel[opt.Freq]; ok {
		return label
	}
	return model.RecurringNone
}

// parseTrigger reads the relative TRIGGER forms -PnW, -PnD, -PTnHnMnS and
// -PnDTnH... and returns the lead time before the event start.
func parseTrigger(s string) (time.Duration, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "-P") && !strings.HasPrefix(s, "P") && !strings.HasPrefix(s, "+P") {
		return 0, fmt.Errorf("trigger %q is not a relative duration", s)
	}
	s = strings.TrimLeft(s, "+-")
	s = strings.TrimPrefix(s, "P")

	var total time.Duration
	inTime := false
	units := 0
	num := ""
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
		case r == 'T':
			inTime = true
		default:
			n, err := strconv.Atoi(num)
			if err != nil {
				return 0, fmt.Errorf("trigger %q: bad number", s)
			}
			num = ""
			units++
			switch {
			case r == 'W' && !inTime:
				total += time.Duration(n) * 7 * 24 * time.Hour
			case r == 'D' && !inTime:
				total += time.Duration(n) * 24 * time.Hour
			case r == 'H' && inTime:
				total += time.Duration(n) * time.Hour
			case r == 'M' && inTime:
				total += time.Duration(n) * time.Minute
			case r == 'S' && inTime:
				total += time.Duration(n) * time.Second
			default:
				return 0, fmt.Errorf("trigger %q: unexpected %q", s, r)
			}
		}
	}
	if num != "" {
		return 0, fmt.Errorf("trigger %q: dangling number", s)
	}
	if units == 0 {
		return 0, fmt.Errorf("trigger %q: no duration", s)
	}
	return total, nil
}

func nearestReminder(lead time.Duration) string {
	best := model.ReminderLabels[0]
	bestDiff := time.Duration(-1)
	for _, label := range model.ReminderLabels {
		d, _ := model.ReminderLead(label)
		diff := d - lead
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = label, diff
		}
	}
	return best
}
