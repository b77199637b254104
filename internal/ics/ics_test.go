package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calassist/internal/model"
)

var stamp = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func TestExport_Properties(t *testing.T) {
	out := Export([]model.Event{{
		ID: 1718000000000, Title: "Standup", Date: "2024-06-10",
		StartTime: "09:15", EndTime: "10:45",
		Reminder: model.Reminder30Minutes, Recurring: model.RecurringWeekly,
	}}, stamp)

	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "UID:1718000000000@calassist")
	assert.Contains(t, out, "SUMMARY:Standup")
	assert.Contains(t, out, "DTSTART:20240610T091500")
	assert.Contains(t, out, "DTEND:20240610T104500")
	assert.Contains(t, out, "RRULE:FREQ=WEEKLY")
	assert.Contains(t, out, "BEGIN:VALARM")
	assert.Contains(t, out, "TRIGGER:-PT30M")
}

func TestExport_SkipsUnparseableAndNoRuleForNone(t *testing.T) {
	out := Export([]model.Event{
		{ID: 1, Title: "broken", Date: "someday", StartTime: "09:00", EndTime: "10:00"},
		{ID: 2, Title: "once", Date: "2024-06-10", StartTime: "09:00", EndTime: "10:00",
			Reminder: model.Reminder1Day, Recurring: model.RecurringNone},
	}, stamp)

	assert.NotContains(t, out, "UID:1@calassist")
	assert.Contains(t, out, "UID:2@calassist")
	assert.NotContains(t, out, "RRULE")
	assert.Contains(t, out, "TRIGGER:-P1D")
}

func TestExportImportRoundTrip(t *testing.T) {
	events := []model.Event{
		{ID: 1, Title: "Standup", Date: "2024-06-10", StartTime: "09:15", EndTime: "10:45",
			Reminder: model.Reminder10Minutes, Recurring: model.RecurringDaily},
		{ID: 2, Title: "Review, part 2; notes", Date: "2024-06-11", StartTime: "1:00 PM", EndTime: "2:30 PM",
			Reminder: model.Reminder1Hour, Recurring: model.RecurringMonthly},
		{ID: 3, Title: "Ping", Date: "2024-06-12", StartTime: "08:00", EndTime: "08:00",
			Reminder: model.Reminder1Day, Recurring: model.RecurringNone},
	}

	drafts, err := Import([]byte(Export(events, stamp)))
	require.NoError(t, err)
	require.Len(t, drafts, 3)

	assert.Equal(t, model.Draft{Title: "Standup", Date: "2024-06-10", StartTime: "09:15", EndTime: "10:45",
		Reminder: model.Reminder10Minutes, Recurring: model.RecurringDaily}, drafts[0])
	assert.Equal(t, model.Draft{Title: "Review, part 2; notes", Date: "2024-06-11", StartTime: "13:00", EndTime: "14:30",
		Reminder: model.Reminder1Hour, Recurring: model.RecurringMonthly}, drafts[1])
	assert.Equal(t, "08:00", drafts[2].EndTime)
	assert.Equal(t, model.Reminder1Day, drafts[2].Reminder)

	for _, d := range drafts {
		assert.NoError(t, d.Validate())
	}
}

func TestImport_ForeignCalendar(t *testing.T) {
	body := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:all-day",
		"DTSTAMP:20240601T000000Z",
		"SUMMARY:Holiday",
		"DTSTART;VALUE=DATE:20240704",
		"DTEND;VALUE=DATE:20240705",
		"RRULE:FREQ=YEARLY",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:late",
		"DTSTAMP:20240601T000000Z",
		"SUMMARY:Overnight",
		"DTSTART:20240610T220000",
		"DTEND:20240611T020000",
		"BEGIN:VALARM",
		"ACTION:DISPLAY",
		"TRIGGER:-PT40M",
		"END:VALARM",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:no-start",
		"DTSTAMP:20240601T000000Z",
		"SUMMARY:Nothing",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	drafts, err := Import([]byte(body))
	require.NoError(t, err)
	require.Len(t, drafts, 2)

	assert.Equal(t, "Holiday", drafts[0].Title)
	assert.Equal(t, "2024-07-04", drafts[0].Date)
	assert.Equal(t, "00:00", drafts[0].StartTime)
	assert.Equal(t, "23:59", drafts[0].EndTime)
	assert.Equal(t, model.RecurringNone, drafts[0].Recurring)

	assert.Equal(t, "22:00", drafts[1].StartTime)
	assert.Equal(t, "23:59", drafts[1].EndTime)
	// 40 minutes is closer to 30 minutes than to 1 hour.
	assert.Equal(t, model.Reminder30Minutes, drafts[1].Reminder)
}

func TestImport_Empty(t *testing.T) {
	_, err := Import([]byte("  \n"))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseTrigger(t *testing.T) {
	cases := map[string]time.Duration{
		"-PT10M":   10 * time.Minute,
		"-PT1H":    time.Hour,
		"-P1D":     24 * time.Hour,
		"-P1W":     7 * 24 * time.Hour,
		"-P1DT2H":  26 * time.Hour,
		"PT0S":     0,
		"-PT1H30M": 90 * time.Minute,
	}
	for in, want := range cases {
		got, err := parseTrigger(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "19970317T133000Z", "-PT", "-P1H", "-PTXM", "-PT5"} {
		_, err := parseTrigger(bad)
		assert.Error(t, err, bad)
	}
}
