// Package sample generates synthetic record histories for demos.
package sample

import (
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/poplog/store"
)

// Kind selects the shape of a generated history.
type Kind string

const (
	KindNormal   Kind = "normal"
	KindAbnormal Kind = "abnormal"
	KindOver     Kind = "over"
)

// Kinds lists every supported kind.
var Kinds = []Kind{KindNormal, KindAbnormal, KindOver}

// ErrUnknownKind is returned for a kind outside Kinds.
var ErrUnknownKind = errors.New("unknown sample kind")

// ParseKind converts s to a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownKind, "kind %q", s)
}

const (
	minSpanDays   = 100
	spanJitter    = 50
	lastHourLimit = 50
)

// RandSource is the randomness used by Generator.
// *rand.Rand from math/rand/v2 satisfies it.
type RandSource interface {
	Float64() float64
	IntN(n int) int
}

// Sample is one generated history.
type Sample struct {
	Kind    Kind
	Days    int
	From    time.Time
	To      time.Time
	Records []*store.Record
}

// Generator draws synthetic histories.
type Generator struct {
	rand     RandSource
	timezone *time.Location
	now      func() time.Time
}

// NewGenerator creates a generator using rnd in the given timezone.
func NewGenerator(rnd RandSource, timezone *time.Location) *Generator {
	if timezone == nil {
		timezone = time.Local
	}
	return &Generator{
		rand:     rnd,
		timezone: timezone,
		now:      time.Now,
	}
}

// WithClock returns a copy of the generator that uses now as "today".
func (g *Generator) WithClock(now func() time.Time) *Generator {
	c := *g
	c.now = now
	return &c
}

// Generate returns a history of 100 to 150 consecutive days ending today.
// Every record is ephemeral, has origin sample and the list is sorted by Ts.
func (g *Generator) Generate(kind Kind) (*Sample, error) {
	shape, ok := shapes[kind]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownKind, "kind %q", kind)
	}

	days := minSpanDays + g.rand.IntN(spanJitter+1)
	now := g.now().In(g.timezone)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, g.timezone)
	start := today.AddDate(0, 0, -days+1)

	records := make([]*store.Record, 0, days*2)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		count := shape.count(g.rand)
		for j := 0; j < count; j++ {
			hour, minute := g.clock()
			at := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, g.timezone)
			records = append(records, &store.Record{
				UID:       fmt.Sprintf("s-%s-%d-%d", kind, i, j),
				Ts:        at.Unix(),
				Category:  shape.category.pick(g.rand.Float64()),
				Origin:    store.OriginSample,
				Ephemeral: true,
			})
		}
	}
	sort.SliceStable(records, func(a, b int) bool {
		return records[a].Ts < records[b].Ts
	})

	return &Sample{
		Kind:    kind,
		Days:    days,
		From:    start,
		To:      today,
		Records: records,
	}, nil
}

// clock draws an hour from the morning, midday or evening bucket and a minute
// within it. Events in the 23rd hour stay before 23:51.
func (g *Generator) clock() (int, int) {
	minute := g.between(0, 59)
	switch b := g.rand.Float64(); {
	case b < 0.45:
		return g.between(6, 10), minute
	case b < 0.6:
		return g.between(12, 14), minute
	default:
		hour := g.between(18, 23)
		if hour == 23 {
			minute = g.between(0, lastHourLimit)
		}
		return hour, minute
	}
}

// between draws uniformly from [lo, hi].
func (g *Generator) between(lo, hi int) int {
	return lo + g.rand.IntN(hi-lo+1)
}
