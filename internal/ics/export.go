// Package ics converts the user's events to and from iCalendar. Times are
// written as floating local times since events carry no timezone.
package ics

import (
	"fmt"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "calassist/internal/log"
	"calassist/internal/model"
)

const (
	productID      = "-//calassist//calendar//EN"
	uidSuffix      = "@calassist"
	floatingLayout = "20060102T150405"
)

var recurringFreq = map[string]rrule.Frequency{
	model.RecurringDaily:   rrule.DAILY,
	model.RecurringWeekly:  rrule.WEEKLY,
	model.RecurringMonthly: rrule.MONTHLY,
}

// UID returns the iCalendar UID used for an event id.
func UID(id int64) string {
	return strconv.FormatInt(id, 10) + uidSuffix
}

// Export renders events as a VCALENDAR. Events whose date or times do not
// parse are logged and left out. now stamps DTSTAMP.
func Export(events []model.Event, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ical.MethodPublish)

	for _, ev := range events {
		if err := addEvent(cal, ev, now); err != nil {
			appLog.Error("ics export: event skipped", err, "id", ev.ID)
		}
	}
	return cal.Serialize()
}

func addEvent(cal *ical.Calendar, ev model.Event, now time.Time) error {
	day, err := ev.Day()
	if err != nil {
		return err
	}
	start, end, err := ev.Span()
	if err != nil {
		return err
	}

	ve := cal.AddEvent(UID(ev.ID))
	ve.SetDtStampTime(now.UTC())
	ve.SetSummary(ev.Title)
	ve.SetProperty(ical.ComponentPropertyDtStart, start.On(day).Format(floatingLayout))
	ve.SetProperty(ical.ComponentPropertyDtEnd, end.On(day).Format(floatingLayout))

	if freq, ok := recurringFreq[ev.Recurring]; ok {
		opt := rrule.ROption{Freq: freq}
		ve.SetProperty(ical.ComponentPropertyRrule, opt.RRuleString())
	}

	if lead, ok := model.ReminderLead(ev.Reminder); ok {
		alarm := ve.AddAlarm()
		alarm.SetProperty(ical.ComponentPropertyAction, string(ical.ActionDisplay))
		alarm.SetProperty(ical.ComponentPropertyDescription, ev.Title)
		alarm.SetProperty(ical.ComponentPropertyTrigger, formatTrigger(lead))
	}
	return nil
}

// formatTrigger writes a negative duration such as -PT10M or -P1D.
func formatTrigger(lead time.Duration) string {
	if lead%(24*time.Hour) == 0 {
		return fmt.Sprintf("-P%dD", int(lead/(24*time.Hour)))
	}
	if lead%time.Hour == 0 {
		return fmt.Sprintf("-PT%dH", int(lead/time.Hour))
	}
	return fmt.Sprintf("-PT%dM", int(lead/time.Minute))
}
