package model

import (
	"fmt"
	"time"
)

// DateLayout is the wire format of Event.Date.
const DateLayout = "2006-01-02"

// Reminder lead-time labels. Informational only: nothing is delivered.
const (
	Reminder10Minutes = "10 minutes before"
	Reminder30Minutes = "30 minutes before"
	Reminder1Hour     = "1 hour before"
	Reminder1Day      = "1 day before"
)

// Recurrence frequency labels. Stored, never expanded.
const (
	RecurringNone    = "None"
	RecurringDaily   = "Daily"
	RecurringWeekly  = "Weekly"
	RecurringMonthly = "Monthly"
)

// ReminderLabels lists the accepted reminder values in display order.
var ReminderLabels = []string{Reminder10Minutes, Reminder30Minutes, Reminder1Hour, Reminder1Day}

// RecurringLabels lists the accepted recurring values in display order.
var RecurringLabels = []string{RecurringNone, RecurringDaily, RecurringWeekly, RecurringMonthly}

var reminderLeads = map[string]time.Duration{
	Reminder10Minutes: 10 * time.Minute,
	Reminder30Minutes: 30 * time.Minute,
	Reminder1Hour:     time.Hour,
	Reminder1Day:      24 * time.Hour,
}

// ReminderLead returns the lead time a reminder label stands for.
func ReminderLead(label string) (time.Duration, bool) {
	d, ok := reminderLeads[label]
	return d, ok
}

// Event is a single calendar entry of the user. Field order and JSON keys
// match the persisted document so that load+save is byte-stable.
type Event struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Reminder  string `json:"reminder"`
	Recurring string `json:"recurring"`
}

// Day parses Date as a local calendar day at midnight.
func (e Event) Day() (time.Time, error) {
	return ParseDate(e.Date)
}

// Span parses StartTime and EndTime.
func (e Event) Span() (start, end WallTime, err error) {
	start, err = ParseWallTime(e.StartTime)
	if err != nil {
		return WallTime{}, WallTime{}, &ValidationError{Field: "startTime", Reason: err.Error()}
	}
	end, err = ParseWallTime(e.EndTime)
	if err != nil {
		return WallTime{}, WallTime{}, &ValidationError{Field: "endTime", Reason: err.Error()}
	}
	return start, end, nil
}

// Draft returns the editable fields of e, e.g. to prefill an edit form.
func (e Event) Draft() Draft {
	return Draft{
		Title:     e.Title,
		Date:      e.Date,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		Reminder:  e.Reminder,
		Recurring: e.Recurring,
	}
}

// User is the single persisted record: profile strings plus the events in
// insertion order.
type User struct {
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Birthdate string  `json:"birthdate"`
	Events    []Event `json:"events"`
}

// EmptyUser is substituted when nothing has been persisted yet.
func EmptyUser() User {
	return User{Events: []Event{}}
}

// Clone returns a copy whose Events slice does not alias u's.
func (u User) Clone() User {
	out := u
	out.Events = make([]Event, len(u.Events))
	copy(out.Events, u.Events)
	return out
}

// ParseDate parses a "YYYY-MM-DD" string into local midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is not YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate renders t's calendar day as "YYYY-MM-DD".
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
