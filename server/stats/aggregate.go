package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/hrygo/poplog/server/timezone"
	"github.com/hrygo/poplog/store"
)

const (
	dayKeyLayout = "2006-01-02"
	recentWindow = 7
)

// Bucket is a group of records sharing one calendar key.
type Bucket struct {
	Key     string          `json:"key"`
	Records []*store.Record `json:"-"`
}

// Count returns the number of records in the bucket.
func (b Bucket) Count() int {
	return len(b.Records)
}

// Signals are the advisory ratios computed over a record set.
type Signals struct {
	// RecentDays is the number of distinct recorded days in the 7-day window
	// ending on the reference day.
	RecentDays int     `json:"recentDays"`
	LowRate    float64 `json:"lowRate"`
	HighRate   float64 `json:"highRate"`
}

// Aggregator groups records into calendar buckets of one timezone.
type Aggregator struct {
	timezone *time.Location
}

// NewAggregator creates an aggregator for the given timezone.
func NewAggregator(timezone *time.Location) *Aggregator {
	if timezone == nil {
		timezone = time.Local
	}
	return &Aggregator{timezone: timezone}
}

// Location returns the aggregator timezone.
func (a *Aggregator) Location() *time.Location {
	return a.timezone
}

// DayKey returns the YYYY-MM-DD key of t.
func (a *Aggregator) DayKey(t time.Time) string {
	return t.In(a.timezone).Format(dayKeyLayout)
}

// MonthKey returns the YYYY-MM key of t.
func (a *Aggregator) MonthKey(t time.Time) string {
	return t.In(a.timezone).Format("2006-01")
}

// WeekKey returns the {year}W{NN} key of t. Weeks run Monday through Sunday
// and the partial week holding January 1st is week 1. When January 1st is a
// Sunday that day alone is week 0.
func (a *Aggregator) WeekKey(t time.Time) string {
	t = t.In(a.timezone)
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, a.timezone)
	day := t.YearDay() - 1 + int(jan1.Weekday())
	week := (day + 6) / 7
	return fmt.Sprintf("%dW%02d", t.Year(), week)
}

// GroupByDay buckets records by calendar day.
func (a *Aggregator) GroupByDay(records []*store.Record) []Bucket {
	return a.group(records, a.DayKey)
}

// GroupByWeek buckets records by week key.
func (a *Aggregator) GroupByWeek(records []*store.Record) []Bucket {
	return a.group(records, a.WeekKey)
}

// GroupByMonth buckets records by calendar month.
func (a *Aggregator) GroupByMonth(records []*store.Record) []Bucket {
	return a.group(records, a.MonthKey)
}

// group returns buckets sorted by key, each holding its records in
// chronological order. The input slice is not modified.
func (a *Aggregator) group(records []*store.Record, keyOf func(time.Time) string) []Bucket {
	sorted := SortRecords(records)

	index := make(map[string]int)
	buckets := make([]Bucket, 0)
	for _, r := range sorted {
		key := keyOf(time.Unix(r.Ts, 0))
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, Bucket{Key: key})
		}
		buckets[i].Records = append(buckets[i].Records, r)
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Key < buckets[j].Key
	})
	return buckets
}

// Flatten concatenates bucket records in bucket order.
func Flatten(buckets []Bucket) []*store.Record {
	out := make([]*store.Record, 0)
	for _, b := range buckets {
		out = append(out, b.Records...)
	}
	return out
}

// SortRecords returns a copy of records sorted by Ts. Ties keep input order.
func SortRecords(records []*store.Record) []*store.Record {
	sorted := make([]*store.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Ts < sorted[j].Ts
	})
	return sorted
}

// DayKeys returns the sorted distinct day keys of records.
func (a *Aggregator) DayKeys(records []*store.Record) []string {
	seen := make(map[string]bool)
	keys := make([]string, 0)
	for _, r := range records {
		k := a.DayKey(time.Unix(r.Ts, 0))
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// LongestGap returns the largest number of fully unrecorded days between two
// consecutive recorded days. Keys that fail to parse are ignored.
func LongestGap(dayKeys []string) int {
	days := make([]time.Time, 0, len(dayKeys))
	seen := make(map[string]bool)
	for _, k := range dayKeys {
		if seen[k] {
			continue
		}
		d, err := time.Parse(dayKeyLayout, k)
		if err != nil {
			continue
		}
		seen[k] = true
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	longest := 0
	for i := 1; i < len(days); i++ {
		gap := daysBetween(days[i-1], days[i]) - 1
		if gap > longest {
			longest = gap
		}
	}
	return longest
}

// daysBetween counts calendar days from a to b. Both must be UTC midnights.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// RateSignals computes the advisory signals of records relative to asOf.
func (a *Aggregator) RateSignals(records []*store.Record, asOf time.Time) Signals {
	var low, high int
	for _, r := range records {
		switch r.Category {
		case store.CategoryHard:
			low++
		case store.CategoryWatery:
			high++
		}
	}
	total := max(1, len(records))

	return Signals{
		RecentDays: a.activeDays(records, asOf, recentWindow),
		LowRate:    float64(low) / float64(total),
		HighRate:   float64(high) / float64(total),
	}
}

// activeDays counts distinct recorded days within the window of n calendar
// days ending on asOf's day.
func (a *Aggregator) activeDays(records []*store.Record, asOf time.Time, n int) int {
	end := a.DayKey(asOf)
	start := a.DayKey(a.startOfDay(asOf).AddDate(0, 0, -n+1))

	days := make(map[string]bool)
	for _, r := range records {
		k := a.DayKey(time.Unix(r.Ts, 0))
		if k >= start && k <= end {
			days[k] = true
		}
	}
	return len(days)
}

// CurrentStreak counts consecutive recorded days ending on asOf's day, or on
// the day before when asOf's day has no record yet.
func (a *Aggregator) CurrentStreak(records []*store.Record, asOf time.Time) int {
	days := make(map[string]bool)
	for _, r := range records {
		days[a.DayKey(time.Unix(r.Ts, 0))] = true
	}

	day := a.startOfDay(asOf)
	if !days[a.DayKey(day)] {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for days[a.DayKey(day)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func (a *Aggregator) startOfDay(t time.Time) time.Time {
	return timezone.StartOfDay(t, a.timezone)
}
