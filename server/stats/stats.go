// Package stats aggregates bowel-movement records into calendar buckets,
// advisory signals and a periodically refreshed usage summary.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hrygo/poplog/store"
)

// Stats represents the cached summary of persisted records.
type Stats struct {
	TotalRecords     int64
	RecordsLastWeek  int64
	RecordsLastMonth int64

	// ActiveDays is the number of recorded days in the last 30 days.
	ActiveDays       int64
	StreakDays       int64
	LongestGap       int64
	LastActivityTime time.Time

	ByCategory map[store.Category]int64

	LastUpdated time.Time
}

// Collector refreshes Stats from the store.
type Collector struct {
	store      *store.Store
	aggregator *Aggregator
	now        func() time.Time

	mu       sync.Mutex
	stats    *Stats
	tickStop chan struct{}
	stopOnce sync.Once
}

// NewCollector creates a new statistics collector.
func NewCollector(st *store.Store, aggregator *Aggregator) *Collector {
	return &Collector{
		store:      st,
		aggregator: aggregator,
		now:        time.Now,
		stats: &Stats{
			ByCategory:  map[store.Category]int64{},
			LastUpdated: time.Now(),
		},
		tickStop: make(chan struct{}),
	}
}

// Start collects once and then every interval until ctx is done or Stop is
// called.
func (c *Collector) Start(ctx context.Context, interval time.Duration) {
	c.collect(ctx)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.collect(ctx)
			case <-ctx.Done():
				c.Stop()
				return
			case <-c.tickStop:
				return
			}
		}
	}()
}

// Stop stops the statistics collector.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.tickStop) })
}

// Refresh collects immediately.
func (c *Collector) Refresh(ctx context.Context) {
	c.collect(ctx)
}

// GetStats returns a copy of current statistics.
func (c *Collector) GetStats() *Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	cp := *c.stats
	cp.ByCategory = make(map[store.Category]int64, len(c.stats.ByCategory))
	for k, v := range c.stats.ByCategory {
		cp.ByCategory[k] = v
	}
	return &cp
}

// collect gathers current statistics from the store. Failures keep the
// previous values.
func (c *Collector) collect(ctx context.Context) {
	records, err := c.store.ListRecords(ctx, &store.FindRecord{})
	if err != nil {
		slog.Warn("failed to collect record stats", slog.String("error", err.Error()))
		return
	}

	now := c.now()
	weekAgo := now.AddDate(0, 0, -7).Unix()
	monthAgo := now.AddDate(0, 0, -30).Unix()

	next := &Stats{
		TotalRecords: int64(len(records)),
		ByCategory:   map[store.Category]int64{},
		LastUpdated:  now,
	}
	for _, r := range records {
		if r.Ts >= weekAgo {
			next.RecordsLastWeek++
		}
		if r.Ts >= monthAgo {
			next.RecordsLastMonth++
		}
		if r.Category != store.CategoryNone {
			next.ByCategory[r.Category]++
		}
		if at := time.Unix(r.Ts, 0); at.After(next.LastActivityTime) {
			next.LastActivityTime = at
		}
	}
	next.ActiveDays = int64(c.aggregator.activeDays(records, now, 30))
	next.StreakDays = int64(c.aggregator.CurrentStreak(records, now))
	next.LongestGap = int64(LongestGap(c.aggregator.DayKeys(records)))

	c.mu.Lock()
	c.stats = next
	c.mu.Unlock()
}

// GetSummary returns a human-readable summary.
func (s *Stats) GetSummary() string {
	return fmt.Sprintf(
		`📊 排便統計 (更新於: %s)

📝 紀錄
  總計: %d 筆
  最近一週: %d 筆
  最近一月: %d 筆

🧻 型態
  偏硬: %d  理想: %d  稍軟: %d  糊狀: %d  水樣: %d

📈 規律度
  紀錄天數 (30天): %d 天
  連續天數: %d 天
  最長斷層: %d 天
  最後紀錄: %s`,
		s.LastUpdated.Format("2006-01-02 15:04"),
		s.TotalRecords,
		s.RecordsLastWeek,
		s.RecordsLastMonth,
		s.ByCategory[store.CategoryHard],
		s.ByCategory[store.CategoryIdeal],
		s.ByCategory[store.CategorySoft],
		s.ByCategory[store.CategoryMushy],
		s.ByCategory[store.CategoryWatery],
		s.ActiveDays,
		s.StreakDays,
		s.LongestGap,
		formatLastActivity(s.LastActivityTime, s.LastUpdated),
	)
}

func formatLastActivity(t, now time.Time) string {
	if t.IsZero() {
		return "無"
	}
	duration := now.Sub(t)
	if duration < time.Hour {
		return "剛剛"
	}
	if duration < 24*time.Hour {
		return fmt.Sprintf("%d小時前", int(duration.Hours()))
	}
	if duration < 7*24*time.Hour {
		return fmt.Sprintf("%d天前", int(duration.Hours()/24))
	}
	return t.Format("2006-01-02")
}
