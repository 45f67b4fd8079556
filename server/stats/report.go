package stats

import (
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/poplog/store"
)

// ScopeMode selects which part of the history a report covers.
type ScopeMode string

const (
	ScopeAll   ScopeMode = "all"
	ScopeYear  ScopeMode = "year"
	ScopeMonth ScopeMode = "month"
)

// Scope restricts records to all time, one year or one month.
type Scope struct {
	Mode  ScopeMode `json:"mode"`
	Year  int       `json:"year,omitempty"`
	Month int       `json:"month,omitempty"`
}

// NewScope builds a scope of the given mode around asOf.
func NewScope(mode string, asOf time.Time) (Scope, error) {
	switch ScopeMode(mode) {
	case "", ScopeAll:
		return Scope{Mode: ScopeAll}, nil
	case ScopeYear:
		return Scope{Mode: ScopeYear, Year: asOf.Year()}, nil
	case ScopeMonth:
		return Scope{Mode: ScopeMonth, Year: asOf.Year(), Month: int(asOf.Month())}, nil
	}
	return Scope{}, errors.Errorf("unknown scope %q", mode)
}

// Contains reports whether t, already in the report timezone, is in scope.
func (s Scope) Contains(t time.Time) bool {
	switch s.Mode {
	case ScopeYear:
		return t.Year() == s.Year
	case ScopeMonth:
		return t.Year() == s.Year && int(t.Month()) == s.Month
	}
	return true
}

// Filter returns the records of s in the aggregator timezone.
func (a *Aggregator) Filter(records []*store.Record, s Scope) []*store.Record {
	out := make([]*store.Record, 0, len(records))
	for _, r := range records {
		if s.Contains(r.Time(a.timezone)) {
			out = append(out, r)
		}
	}
	return out
}

// Advice is a machine-readable advisory code. Texts live in the export layer.
type Advice string

const (
	AdviceFewThisWeek Advice = "few_this_week"
	AdviceHardHeavy   Advice = "hard_heavy"
	AdviceWateryHeavy Advice = "watery_heavy"
	AdviceGapDays     Advice = "gap_days"
	AdviceConsistent  Advice = "consistent"
	AdviceSteady      Advice = "steady"
)

// Advisory thresholds.
const (
	fewRecentDays    = 2
	hardRateLimit    = 0.35
	wateryRateLimit  = 0.25
	gapDaysLimit     = 2
	consistentDays   = 10
	consistentWindow = 14
)

// DailyStats summarizes one calendar day.
type DailyStats struct {
	Date       string                 `json:"date"`
	Total      int                    `json:"total"`
	ByCategory map[store.Category]int `json:"byCategory"`
	// Dominant is the most frequent category of the day; ties go to the
	// lower category and uncategorized days report CategoryNone.
	Dominant store.Category `json:"dominant"`
	Times    []string       `json:"times"`
}

// KeyCount is a bucket key with its record count.
type KeyCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Report is the aggregated view of a scoped record set.
type Report struct {
	Scope         Scope        `json:"scope"`
	AsOf          time.Time    `json:"asOf"`
	Total         int          `json:"total"`
	Days          []DailyStats `json:"days"`
	Weeks         []KeyCount   `json:"weeks"`
	Months        []KeyCount   `json:"months"`
	Signals       Signals      `json:"signals"`
	LongestGap    int          `json:"longestGap"`
	ActiveDays14  int          `json:"activeDays14"`
	CurrentStreak int          `json:"currentStreak"`
	Advice        []Advice     `json:"advice"`
}

// BuildReport aggregates records within scope relative to asOf.
func (a *Aggregator) BuildReport(records []*store.Record, scope Scope, asOf time.Time) *Report {
	scoped := a.Filter(records, scope)
	days := a.GroupByDay(scoped)

	report := &Report{
		Scope:         scope,
		AsOf:          asOf,
		Total:         len(scoped),
		Days:          make([]DailyStats, 0, len(days)),
		Weeks:         counts(a.GroupByWeek(scoped)),
		Months:        counts(a.GroupByMonth(scoped)),
		Signals:       a.RateSignals(scoped, asOf),
		LongestGap:    LongestGap(a.DayKeys(scoped)),
		ActiveDays14:  a.activeDays(scoped, asOf, consistentWindow),
		CurrentStreak: a.CurrentStreak(scoped, asOf),
	}
	for _, b := range days {
		report.Days = append(report.Days, a.daily(b))
	}
	report.Advice = Advise(report)
	return report
}

func (a *Aggregator) daily(b Bucket) DailyStats {
	ds := DailyStats{
		Date:       b.Key,
		Total:      len(b.Records),
		ByCategory: make(map[store.Category]int),
		Times:      make([]string, 0, len(b.Records)),
	}
	best := 0
	for _, r := range b.Records {
		ds.Times = append(ds.Times, r.Time(a.timezone).Format("15:04"))
		if r.Category == store.CategoryNone {
			continue
		}
		ds.ByCategory[r.Category]++
	}
	for c := store.CategoryHard; c <= store.CategoryWatery; c++ {
		if n := ds.ByCategory[c]; n > best {
			best = n
			ds.Dominant = c
		}
	}
	return ds
}

func counts(buckets []Bucket) []KeyCount {
	out := make([]KeyCount, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, KeyCount{Key: b.Key, Count: b.Count()})
	}
	return out
}

// Advise derives the advisory codes of a report. Several codes may apply at
// once; AdviceSteady is returned only when none does.
func Advise(r *Report) []Advice {
	advice := make([]Advice, 0)
	if r.Signals.RecentDays <= fewRecentDays {
		advice = append(advice, AdviceFewThisWeek)
	}
	if r.Signals.LowRate > hardRateLimit {
		advice = append(advice, AdviceHardHeavy)
	}
	if r.Signals.HighRate > wateryRateLimit {
		advice = append(advice, AdviceWateryHeavy)
	}
	if r.LongestGap >= gapDaysLimit {
		advice = append(advice, AdviceGapDays)
	}
	if r.ActiveDays14 >= consistentDays {
		advice = append(advice, AdviceConsistent)
	}
	if len(advice) == 0 {
		advice = append(advice, AdviceSteady)
	}
	return advice
}
