// Package timezone provides the wall-clock helpers shared by the API and CLI.
package timezone

import (
	"time"

	"github.com/pkg/errors"
)

// DateLayout is the calendar date format used in URLs and flags.
const DateLayout = "2006-01-02"

// StartOfDay returns the start of the day (00:00:00) in the given timezone.
func StartOfDay(t time.Time, tz *time.Location) time.Time {
	if tz == nil {
		tz = time.Local
	}
	t = t.In(tz)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, tz)
}

// DayBounds returns [from 00:00, day after to 00:00) in tz for two
// YYYY-MM-DD dates. An empty date leaves its bound nil.
func DayBounds(from, to string, tz *time.Location) (start, end *time.Time, err error) {
	if tz == nil {
		tz = time.Local
	}
	if from != "" {
		t, err := time.ParseInLocation(DateLayout, from, tz)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "invalid date %q", from)
		}
		start = &t
	}
	if to != "" {
		t, err := time.ParseInLocation(DateLayout, to, tz)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "invalid date %q", to)
		}
		t = t.AddDate(0, 0, 1)
		end = &t
	}
	if start != nil && end != nil && !start.Before(*end) {
		return nil, nil, errors.Errorf("date range %s..%s is empty", from, to)
	}
	return start, end, nil
}

// FormatTimeWithTimezone formats a Unix timestamp as a string in the given timezone.
// The format should be a valid Go time format string (e.g., "2006-01-02 15:04").
func FormatTimeWithTimezone(ts int64, tz *time.Location, format string) string {
	if tz == nil {
		tz = time.Local
	}
	return time.Unix(ts, 0).In(tz).Format(format)
}
