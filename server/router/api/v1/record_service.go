package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	apierrors "github.com/hrygo/poplog/server/internal/errors"
	"github.com/hrygo/poplog/server/service/record"
	"github.com/hrygo/poplog/store"
)

// Record is the JSON view of a stored record.
type Record struct {
	UID       string    `json:"uid"`
	Time      time.Time `json:"time"`
	Date      string    `json:"date"`
	Clock     string    `json:"clock"`
	Category  int       `json:"category"`
	Label     string    `json:"label,omitempty"`
	Origin    string    `json:"origin"`
	Ephemeral bool      `json:"ephemeral,omitempty"`
}

type ImportRecordsResponse struct {
	BatchID string    `json:"batchId"`
	Lines   int       `json:"lines"`
	Skipped int       `json:"skipped"`
	Records []*Record `json:"records"`
}

type ListRecordsResponse struct {
	Records []*Record `json:"records"`
	Total   int       `json:"total"`
}

func (s *APIV1Service) convertRecord(r *store.Record) *Record {
	t := r.Time(s.location)
	return &Record{
		UID:       r.UID,
		Time:      t,
		Date:      t.Format("2006-01-02"),
		Clock:     t.Format("15:04"),
		Category:  int(r.Category),
		Label:     r.Category.Label(),
		Origin:    string(r.Origin),
		Ephemeral: r.Ephemeral,
	}
}

func (s *APIV1Service) convertRecords(records []*store.Record) []*Record {
	views := make([]*Record, 0, len(records))
	for _, r := range records {
		views = append(views, s.convertRecord(r))
	}
	return views
}

// ImportRecords parses a pasted notebook.
// POST /api/v1/records/import
func (s *APIV1Service) ImportRecords(c echo.Context) error {
	req := &record.ImportRequest{}
	if err := c.Bind(req); err != nil {
		return apierrors.InvalidArgument("invalid request body")
	}

	ctx := c.Request().Context()
	result, err := s.RecordService.Import(ctx, req)
	if err != nil {
		return err
	}
	if s.Metrics != nil {
		s.Metrics.RecordImport(len(result.Records), result.Skipped)
		s.Metrics.RecordsCreated.WithLabelValues(string(store.OriginImport)).Add(float64(len(result.Records)))
	}
	s.refresh(ctx)

	return c.JSON(http.StatusCreated, &ImportRecordsResponse{
		BatchID: result.BatchID,
		Lines:   result.Lines,
		Skipped: result.Skipped,
		Records: s.convertRecords(result.Records),
	})
}

// AddQuickRecord records the current minute.
// POST /api/v1/records/quick
func (s *APIV1Service) AddQuickRecord(c echo.Context) error {
	req := &record.QuickRequest{}
	if err := c.Bind(req); err != nil {
		return apierrors.InvalidArgument("invalid request body")
	}
	return s.created(c, func() (*store.Record, error) {
		return s.RecordService.AddQuick(c.Request().Context(), req)
	})
}

// AddManualRecord records the time written in a free-text line.
// POST /api/v1/records
func (s *APIV1Service) AddManualRecord(c echo.Context) error {
	req := &record.ManualRequest{}
	if err := c.Bind(req); err != nil {
		return apierrors.InvalidArgument("invalid request body")
	}
	return s.created(c, func() (*store.Record, error) {
		return s.RecordService.AddManual(c.Request().Context(), req)
	})
}

func (s *APIV1Service) created(c echo.Context, create func() (*store.Record, error)) error {
	r, err := create()
	if err != nil {
		return err
	}
	if s.Metrics != nil {
		s.Metrics.RecordsCreated.WithLabelValues(string(r.Origin)).Inc()
	}
	s.refresh(c.Request().Context())
	return c.JSON(http.StatusCreated, s.convertRecord(r))
}

// ListRecords returns the stored records.
// GET /api/v1/records?scope=&origin=&filter=&from=&to=
func (s *APIV1Service) ListRecords(c echo.Context) error {
	records, err := s.RecordService.List(c.Request().Context(), &record.ListRequest{
		Scope:  c.QueryParam("scope"),
		Origin: c.QueryParam("origin"),
		Filter: c.QueryParam("filter"),
		From:   c.QueryParam("from"),
		To:     c.QueryParam("to"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, &ListRecordsResponse{
		Records: s.convertRecords(records),
		Total:   len(records),
	})
}

// UpdateRecord changes the time of day or category of a record.
// PATCH /api/v1/records/:uid
func (s *APIV1Service) UpdateRecord(c echo.Context) error {
	req := &record.EditRequest{}
	if err := c.Bind(req); err != nil {
		return apierrors.InvalidArgument("invalid request body")
	}

	ctx := c.Request().Context()
	r, err := s.RecordService.Edit(ctx, c.Param("uid"), req)
	if err != nil {
		return err
	}
	s.refresh(ctx)
	return c.JSON(http.StatusOK, s.convertRecord(r))
}

// DeleteRecord removes one record.
// DELETE /api/v1/records/:uid
func (s *APIV1Service) DeleteRecord(c echo.Context) error {
	ctx := c.Request().Context()
	if err := s.RecordService.Delete(ctx, c.Param("uid")); err != nil {
		return err
	}
	if s.Metrics != nil {
		s.Metrics.RecordsDeleted.Inc()
	}
	s.refresh(ctx)
	return c.NoContent(http.StatusNoContent)
}

// ClearRecords removes every stored record. It requires confirm=true.
// DELETE /api/v1/records?confirm=true
func (s *APIV1Service) ClearRecords(c echo.Context) error {
	confirm, _ := strconv.ParseBool(c.QueryParam("confirm"))
	if !confirm {
		return apierrors.InvalidArgument("clearing all records requires confirm=true")
	}

	ctx := c.Request().Context()
	existing, err := s.RecordService.List(ctx, &record.ListRequest{})
	if err != nil {
		return err
	}
	if err := s.RecordService.Clear(ctx); err != nil {
		return err
	}
	if s.Metrics != nil {
		s.Metrics.RecordsDeleted.Add(float64(len(existing)))
	}
	s.refresh(ctx)
	return c.NoContent(http.StatusNoContent)
}
