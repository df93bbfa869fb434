package utils

import (
	"fmt"
	"strings"
	"time"

	"finmcp/internal/models"
)

// DefaultLookback is the history requested when no start date is given.
// It covers a 200-day SMA with room to spare.
const DefaultLookback = 365 * 24 * time.Hour

// ParseDate parses a YYYY-MM-DD calendar date in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(models.DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be YYYY-MM-DD", s)
	}
	return t, nil
}

// ResolveDateRange parses start and end, defaulting end to today and start to
// DefaultLookback before end. Start must not be after end.
func ResolveDateRange(start, end string, now time.Time) (time.Time, time.Time, error) {
	to := Today(now)
	if strings.TrimSpace(end) != "" {
		t, err := ParseDate(end)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = t
	}

	from := to.Add(-DefaultLookback)
	if strings.TrimSpace(start) != "" {
		t, err := ParseDate(start)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = t
	}

	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("start date %s is after end date %s",
			from.Format(models.DateLayout), to.Format(models.DateLayout))
	}
	return from, to, nil
}

// Today truncates now to midnight UTC.
func Today(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// IsWeekend reports whether t falls on a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}

// TradingDaysBetween counts weekdays in [from, to]. Exchange holidays are ignored.
func TradingDaysBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	days := 0
	for d := Today(from); !d.After(to); d = d.AddDate(0, 0, 1) {
		if !IsWeekend(d) {
			days++
		}
	}
	return days
}
