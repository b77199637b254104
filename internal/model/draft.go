package model

import (
	"fmt"
	"slices"
)

// ValidationError reports a draft that must not be saved.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Draft is the editable part of an Event, as submitted by the edit form.
type Draft struct {
	Title     string `json:"title"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Reminder  string `json:"reminder"`
	Recurring string `json:"recurring"`
}

// WithDefaults fills empty labels with the form defaults.
func (d Draft) WithDefaults() Draft {
	if d.Reminder == "" {
		d.Reminder = Reminder10Minutes
	}
	if d.Recurring == "" {
		d.Recurring = RecurringNone
	}
	return d
}

// Validate checks the date, both times, the time order and the labels.
// An inverted range (end before start) is rejected rather than treated as
// an overnight event; equal start and end is allowed.
func (d Draft) Validate() error {
	if _, err := ParseDate(d.Date); err != nil {
		return &ValidationError{Field: "date", Reason: err.Error()}
	}
	start, err := ParseWallTime(d.StartTime)
	if err != nil {
		return &ValidationError{Field: "startTime", Reason: err.Error()}
	}
	end, err := ParseWallTime(d.EndTime)
	if err != nil {
		return &ValidationError{Field: "endTime", Reason: err.Error()}
	}
	if end.Before(start) {
		return &ValidationError{
			Field:  "endTime",
			Reason: fmt.Sprintf("%s is before start %s", end, start),
		}
	}
	if !slices.Contains(ReminderLabels, d.Reminder) {
		return &ValidationError{Field: "reminder", Reason: fmt.Sprintf("unknown label %q", d.Reminder)}
	}
	if !slices.Contains(RecurringLabels, d.Recurring) {
		return &ValidationError{Field: "recurring", Reason: fmt.Sprintf("unknown label %q", d.Recurring)}
	}
	return nil
}

// Event materializes d under the given id.
func (d Draft) Event(id int64) Event {
	return Event{
		ID:        id,
		Title:     d.Title,
		Date:      d.Date,
		StartTime: d.StartTime,
		EndTime:   d.EndTime,
		Reminder:  d.Reminder,
		Recurring: d.Recurring,
	}
}
