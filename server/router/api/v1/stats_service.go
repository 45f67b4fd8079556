package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/poplog/plugin/export"
	"github.com/hrygo/poplog/server/service/record"
	"github.com/hrygo/poplog/server/stats"
)

type GetStatsResponse struct {
	Report *stats.Report       `json:"report"`
	Advice []export.AdviceText `json:"advice"`
}

type GetSampleResponse struct {
	Kind    string    `json:"kind"`
	Days    int       `json:"days"`
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Records []*Record `json:"records"`
}

// GetStats aggregates the stored records, or a synthetic sample, into a report.
// GET /api/v1/stats?scope=&filter=&sample=
func (s *APIV1Service) GetStats(c echo.Context) error {
	report, err := s.report(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, &GetStatsResponse{
		Report: report,
		Advice: export.Explain(report),
	})
}

// GetSample draws a synthetic history. Nothing is stored.
// GET /api/v1/samples/:kind
func (s *APIV1Service) GetSample(c echo.Context) error {
	generated, err := s.RecordService.Sample(c.Param("kind"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, &GetSampleResponse{
		Kind:    string(generated.Kind),
		Days:    generated.Days,
		From:    generated.From,
		To:      generated.To,
		Records: s.convertRecords(generated.Records),
	})
}

func (s *APIV1Service) report(c echo.Context) (*stats.Report, error) {
	return s.RecordService.Report(c.Request().Context(), &record.ReportRequest{
		Scope:  c.QueryParam("scope"),
		Filter: c.QueryParam("filter"),
		Sample: c.QueryParam("sample"),
	})
}
