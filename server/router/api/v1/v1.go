package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/poplog/internal/profile"
	"github.com/hrygo/poplog/server/internal/observability"
	"github.com/hrygo/poplog/server/service/record"
	"github.com/hrygo/poplog/server/stats"
	"github.com/hrygo/poplog/store"
)

type APIV1Service struct {
	Profile       *profile.Profile
	Store         *store.Store
	RecordService record.Service
	Collector     *stats.Collector
	Metrics       *observability.Metrics

	location *time.Location
}

func NewAPIV1Service(profile *profile.Profile, st *store.Store, collector *stats.Collector, metrics *observability.Metrics) (*APIV1Service, error) {
	loc, err := profile.Location()
	if err != nil {
		return nil, err
	}
	return &APIV1Service{
		Profile:       profile,
		Store:         st,
		RecordService: record.NewService(st, loc),
		Collector:     collector,
		Metrics:       metrics,
		location:      loc,
	}, nil
}

// RegisterRoutes mounts the JSON API, the exports and the operational
// endpoints on e.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	e.HTTPErrorHandler = HTTPErrorHandler

	e.GET("/healthz", s.Healthz)
	if s.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))
	}

	g := e.Group("/api/v1")
	g.POST("/records/import", s.ImportRecords)
	g.POST("/records/quick", s.AddQuickRecord)
	g.POST("/records", s.AddManualRecord)
	g.GET("/records", s.ListRecords)
	g.PATCH("/records/:uid", s.UpdateRecord)
	g.DELETE("/records/:uid", s.DeleteRecord)
	g.DELETE("/records", s.ClearRecords)

	g.GET("/stats", s.GetStats)
	g.GET("/samples/:kind", s.GetSample)
	g.GET("/system/stats", s.GetStatsOverview)

	g.GET("/export/csv", s.ExportCSV)
	g.GET("/export/report", s.ExportReport)
	g.GET("/export/card.png", s.ExportCard)
}

// Healthz reports liveness together with the store schema version.
func (s *APIV1Service) Healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := s.Store.GetDriver().GetDB().PingContext(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.Profile.Version,
		"mode":    s.Profile.Mode,
	})
}

// refresh recomputes the cached summary after a write.
func (s *APIV1Service) refresh(ctx context.Context) {
	if s.Collector != nil {
		s.Collector.Refresh(ctx)
	}
}
