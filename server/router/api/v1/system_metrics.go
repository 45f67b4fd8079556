package v1

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/poplog/store"
)

// StatsOverviewResponse is the cached usage summary of the store.
type StatsOverviewResponse struct {
	TotalRecords     int64            `json:"total_records"`
	RecordsInRange   int64            `json:"records_in_range"`
	ActiveDays       int64            `json:"active_days"`
	StreakDays       int64            `json:"streak_days"`
	LongestGap       int64            `json:"longest_gap"`
	ByCategory       map[string]int64 `json:"by_category"`
	LastActivityTime *time.Time       `json:"last_activity_time,omitempty"`
	LastUpdated      time.Time        `json:"last_updated"`
	TimeRange        string           `json:"time_range"`
	Summary          string           `json:"summary"`
}

// GetStatsOverview returns the periodically refreshed summary.
// GET /api/v1/system/stats?range=7d|30d|all
func (s *APIV1Service) GetStatsOverview(c echo.Context) error {
	timeRange := c.QueryParam("range")
	if timeRange == "" {
		timeRange = "7d"
	}
	if err := validateTimeRange(timeRange); err != nil {
		slog.Warn("invalid time range parameter in stats request", "range", timeRange, "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"code": "INVALID_ARGUMENT", "message": "invalid time range"})
	}
	if s.Collector == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"code": "INTERNAL", "message": "stats collector is not running"})
	}

	st := s.Collector.GetStats()
	resp := StatsOverviewResponse{
		TotalRecords: st.TotalRecords,
		ActiveDays:   st.ActiveDays,
		StreakDays:   st.StreakDays,
		LongestGap:   st.LongestGap,
		ByCategory:   make(map[string]int64, len(st.ByCategory)),
		LastUpdated:  st.LastUpdated,
		TimeRange:    timeRange,
		Summary:      st.GetSummary(),
	}
	switch timeRange {
	case "7d":
		resp.RecordsInRange = st.RecordsLastWeek
	case "30d":
		resp.RecordsInRange = st.RecordsLastMonth
	default:
		resp.RecordsInRange = st.TotalRecords
	}
	for category, n := range st.ByCategory {
		key := category.Label()
		if category == store.CategoryNone {
			key = "none"
		}
		resp.ByCategory[key] = n
	}
	if !st.LastActivityTime.IsZero() {
		last := st.LastActivityTime.In(s.location)
		resp.LastActivityTime = &last
	}
	return c.JSON(http.StatusOK, resp)
}

func validateTimeRange(timeRange string) error {
	switch timeRange {
	case "7d", "30d", "all":
		return nil
	default:
		return fmt.Errorf("invalid time range: %s (valid: 7d, 30d, all)", timeRange)
	}
}
