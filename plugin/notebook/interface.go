// Package notebook turns free-text notebook lines into timestamps.
//
// Supported inputs mix numeric times ("15:30", "15.5", "15.半"), Chinese
// numeral times ("晚上七點半"), meridiem words or suffixes ("下午3:20", "9pm"),
// and optional leading dates ("10/30", "10月30日", "2025/10/30").
package notebook

import (
	"fmt"
	"time"
)

// TimeOfDay is an hour/minute pair. Hour is always within [0,23].
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// String formats the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// CalendarDate is a year/month/day triple.
// Day-of-month validity is not checked; time.Date normalizes overflow.
type CalendarDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) CalendarDate {
	return CalendarDate{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// String formats the date as YYYY-MM-DD.
func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// At builds the wall-clock instant of tod on this date in loc.
func (d CalendarDate) At(tod TimeOfDay, loc *time.Location) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, tod.Hour, tod.Minute, 0, 0, loc)
}
