package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WallTime is a local time of day with minute precision.
type WallTime struct {
	Hour   int
	Minute int
}

// WallTimeOf returns the time of day of t.
func WallTimeOf(t time.Time) WallTime {
	return WallTime{Hour: t.Hour(), Minute: t.Minute()}
}

// Minutes is the offset from midnight in minutes.
func (w WallTime) Minutes() int {
	return w.Hour*60 + w.Minute
}

func (w WallTime) Before(o WallTime) bool {
	return w.Minutes() < o.Minutes()
}

// String renders 24h "HH:MM".
func (w WallTime) String() string {
	return fmt.Sprintf("%02d:%02d", w.Hour, w.Minute)
}

// On places w on the calendar day of d.
func (w WallTime) On(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), w.Hour, w.Minute, 0, 0, d.Location())
}

// ParseWallTime accepts "HH:MM", "HH:MM:SS" and 12h forms such as
// "09:15 AM" or "9:15pm". Seconds are dropped.
func ParseWallTime(s string) (WallTime, error) {
	raw := s
	// Locale formatters emit NBSP / narrow NBSP before the meridiem.
	s = strings.NewReplacer("\u00a0", " ", "\u202f", " ").Replace(s)
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return WallTime{}, errors.New("time is empty")
	}

	meridiem := ""
	switch {
	case strings.HasSuffix(s, "AM"):
		meridiem = "AM"
	case strings.HasSuffix(s, "PM"):
		meridiem = "PM"
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, meridiem))

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return WallTime{}, fmt.Errorf("time %q is not HH:MM", raw)
	}
	h, ok := timeField(parts[0], 1)
	if !ok {
		return WallTime{}, fmt.Errorf("time %q has a bad hour", raw)
	}
	m, ok := timeField(parts[1], 2)
	if !ok || m > 59 {
		return WallTime{}, fmt.Errorf("time %q has a bad minute", raw)
	}
	if len(parts) == 3 {
		if sec, ok := timeField(parts[2], 2); !ok || sec > 59 {
			return WallTime{}, fmt.Errorf("time %q has a bad second", raw)
		}
	}

	switch meridiem {
	case "":
		if h < 0 || h > 23 {
			return WallTime{}, fmt.Errorf("time %q has a bad hour", raw)
		}
	default:
		if h < 1 || h > 12 {
			return WallTime{}, fmt.Errorf("time %q has a bad hour", raw)
		}
		h %= 12
		if meridiem == "PM" {
			h += 12
		}
	}

	return WallTime{Hour: h, Minute: m}, nil
}

// timeField reads a field of minLen to 2 ASCII digits. Signs and spaces
// are rejected.
func timeField(s string, minLen int) (int, bool) {
	if len(s) < minLen || len(s) > 2 {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}
