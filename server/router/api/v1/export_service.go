package v1

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/poplog/plugin/export"
	apierrors "github.com/hrygo/poplog/server/internal/errors"
	"github.com/hrygo/poplog/server/service/record"
)

const maxCardWidth = 1800

func attachment(c echo.Context, name string) {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
}

// ExportCSV downloads the stored records as date,time,type rows.
// GET /api/v1/export/csv?scope=&origin=&filter=
func (s *APIV1Service) ExportCSV(c echo.Context) error {
	records, err := s.RecordService.List(c.Request().Context(), &record.ListRequest{
		Scope:  c.QueryParam("scope"),
		Origin: c.QueryParam("origin"),
		Filter: c.QueryParam("filter"),
	})
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, records, s.location); err != nil {
		return err
	}
	attachment(c, export.CSVFileName(time.Now().In(s.location)))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportReport renders the weekly report as an HTML page.
// GET /api/v1/export/report?scope=&filter=&sample=
func (s *APIV1Service) ExportReport(c echo.Context) error {
	report, err := s.report(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.WriteHTML(&buf, report); err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// ExportCard renders the share card of the last seven recorded days.
// GET /api/v1/export/card.png?dark=&width=&scope=&filter=&sample=
func (s *APIV1Service) ExportCard(c echo.Context) error {
	opts := export.CardOptions{}
	if v := c.QueryParam("dark"); v != "" {
		dark, err := strconv.ParseBool(v)
		if err != nil {
			return apierrors.InvalidArgument("dark must be a boolean")
		}
		opts.Dark = dark
	}
	if v := c.QueryParam("width"); v != "" {
		width, err := strconv.Atoi(v)
		if err != nil || width < 1 || width > maxCardWidth {
			return apierrors.InvalidArgument(fmt.Sprintf("width must be between 1 and %d", maxCardWidth))
		}
		opts.Width = width
	}

	report, err := s.report(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.WriteCard(&buf, report.Days, report.AsOf, opts); err != nil {
		return err
	}
	attachment(c, export.CardFileName(report.AsOf))
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}
