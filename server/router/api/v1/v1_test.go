package v1

import (
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/poplog/internal/profile"
	apierrors "github.com/hrygo/poplog/server/internal/errors"
	"github.com/hrygo/poplog/server/internal/observability"
	"github.com/hrygo/poplog/server/stats"
	"github.com/hrygo/poplog/store/test"
)

func newTestServer(t *testing.T) (*APIV1Service, *echo.Echo) {
	t.Helper()
	st := test.NewTestingStore(context.Background(), t)
	p := &profile.Profile{Mode: "dev", Version: "test", Timezone: "UTC"}
	collector := stats.NewCollector(st, stats.NewAggregator(time.UTC))
	svc, err := NewAPIV1Service(p, st, collector, observability.NewMetrics("poplog_test", false))
	require.NoError(t, err)

	e := echo.New()
	svc.RegisterRoutes(e)
	return svc, e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) *T {
	t.Helper()
	v := new(T)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
	return v
}

func assertAPIError(t *testing.T, rec *httptest.ResponseRecorder, status int, code apierrors.ErrorCode) {
	t.Helper()
	assert.Equal(t, status, rec.Code, rec.Body.String())
	assert.Equal(t, code, decode[apierrors.APIError](t, rec).Code)
}

func TestHealthz(t *testing.T) {
	_, e := newTestServer(t)

	rec := do(e, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "ok", (*body)["status"])
	assert.Equal(t, "test", (*body)["version"])
}

func TestRecordLifecycle(t *testing.T) {
	svc, e := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/v1/records/import", `{"text":"08:06\n垃圾\n晚上七點半"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	imported := decode[ImportRecordsResponse](t, rec)
	assert.NotEmpty(t, imported.BatchID)
	assert.Equal(t, 3, imported.Lines)
	assert.Equal(t, 1, imported.Skipped)
	require.Len(t, imported.Records, 2)
	assert.Equal(t, "08:06", imported.Records[0].Clock)
	assert.Equal(t, "19:30", imported.Records[1].Clock)
	assert.Equal(t, "import", imported.Records[0].Origin)
	assert.Equal(t, int64(2), svc.Collector.GetStats().TotalRecords)

	rec = do(e, http.MethodPost, "/api/v1/records/quick", `{"category":2}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	quick := decode[Record](t, rec)
	assert.Equal(t, "quick", quick.Origin)
	assert.Equal(t, 2, quick.Category)
	assert.Equal(t, "理想", quick.Label)

	rec = do(e, http.MethodPost, "/api/v1/records", `{"line":"21:15","category":1}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	manual := decode[Record](t, rec)
	assert.Equal(t, "manual", manual.Origin)
	assert.Equal(t, "21:15", manual.Clock)

	rec = do(e, http.MethodPost, "/api/v1/records", `{"line":"nothing to see"}`)
	assertAPIError(t, rec, http.StatusUnprocessableEntity, apierrors.ErrCodeNoTimeFound)

	rec = do(e, http.MethodGet, "/api/v1/records", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, decode[ListRecordsResponse](t, rec).Total)

	rec = do(e, http.MethodGet, "/api/v1/records?origin=import", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[ListRecordsResponse](t, rec).Total)

	rec = do(e, http.MethodGet, "/api/v1/records?"+url.Values{"filter": {"category == 2"}}.Encode(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[ListRecordsResponse](t, rec)
	require.Equal(t, 1, listed.Total)
	assert.Equal(t, quick.UID, listed.Records[0].UID)

	rec = do(e, http.MethodPatch, "/api/v1/records/"+imported.Records[0].UID, `{"time":"09:45","category":3}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	edited := decode[Record](t, rec)
	assert.Equal(t, "09:45", edited.Clock)
	assert.Equal(t, 3, edited.Category)
	assert.Equal(t, imported.Records[0].Date, edited.Date)

	rec = do(e, http.MethodPatch, "/api/v1/records/"+imported.Records[0].UID, `{}`)
	assertAPIError(t, rec, http.StatusBadRequest, apierrors.ErrCodeInvalidArgument)

	rec = do(e, http.MethodPatch, "/api/v1/records/missing", `{"category":1}`)
	assertAPIError(t, rec, http.StatusNotFound, apierrors.ErrCodeNotFound)

	rec = do(e, http.MethodDelete, "/api/v1/records/"+manual.UID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(e, http.MethodDelete, "/api/v1/records/"+manual.UID, "")
	assertAPIError(t, rec, http.StatusNotFound, apierrors.ErrCodeNotFound)

	rec = do(e, http.MethodDelete, "/api/v1/records", "")
	assertAPIError(t, rec, http.StatusBadRequest, apierrors.ErrCodeInvalidArgument)

	rec = do(e, http.MethodDelete, "/api/v1/records?confirm=true", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/records", "")
	assert.Equal(t, 0, decode[ListRecordsResponse](t, rec).Total)
	assert.Equal(t, int64(0), svc.Collector.GetStats().TotalRecords)

	assert.Equal(t, 2.0, testutil.ToFloat64(svc.Metrics.RecordsCreated.WithLabelValues("import")))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.Metrics.RecordsCreated.WithLabelValues("quick")))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.Metrics.RecordsCreated.WithLabelValues("manual")))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.Metrics.ImportedLines.WithLabelValues("skipped")))
	assert.Equal(t, 4.0, testutil.ToFloat64(svc.Metrics.RecordsDeleted))
}

func TestRecordErrors(t *testing.T) {
	_, e := newTestServer(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"empty import", http.MethodPost, "/api/v1/records/import", `{"text":""}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/v1/records/quick", `{"category":`, http.StatusBadRequest},
		{"category out of range", http.MethodPost, "/api/v1/records/quick", `{"category":9}`, http.StatusBadRequest},
		{"unknown scope", http.MethodGet, "/api/v1/records?scope=decade", "", http.StatusBadRequest},
		{"bad filter", http.MethodGet, "/api/v1/records?filter=category", "", http.StatusBadRequest},
		{"bad date", http.MethodGet, "/api/v1/records?from=10-30", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, tt.method, tt.target, tt.body)
			assertAPIError(t, rec, tt.status, apierrors.ErrCodeInvalidArgument)
		})
	}

	rec := do(e, http.MethodGet, "/api/v1/nope", "")
	assertAPIError(t, rec, http.StatusNotFound, apierrors.ErrCodeNotFound)
}

func TestGetStats(t *testing.T) {
	_, e := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/v1/records/import", `{"text":"07:00\n12:30"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/v1/stats?scope=month", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[GetStatsResponse](t, rec)
	assert.Equal(t, 2, resp.Report.Total)
	assert.Equal(t, stats.ScopeMonth, resp.Report.Scope.Mode)
	require.Len(t, resp.Report.Days, 1)
	assert.Equal(t, []string{"07:00", "12:30"}, resp.Report.Days[0].Times)
	assert.Len(t, resp.Advice, len(resp.Report.Advice))

	rec = do(e, http.MethodGet, "/api/v1/stats?sample=normal", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp = decode[GetStatsResponse](t, rec)
	assert.Greater(t, resp.Report.Total, 0)
	assert.NotEmpty(t, resp.Advice)

	rec = do(e, http.MethodGet, "/api/v1/stats?sample=bogus", "")
	assertAPIError(t, rec, http.StatusBadRequest, apierrors.ErrCodeInvalidArgument)
}

func TestGetSample(t *testing.T) {
	_, e := newTestServer(t)

	for _, kind := range []string{"normal", "abnormal", "over"} {
		rec := do(e, http.MethodGet, "/api/v1/samples/"+kind, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[GetSampleResponse](t, rec)
		assert.Equal(t, kind, resp.Kind)
		assert.False(t, resp.To.Before(resp.From))
		for _, r := range resp.Records {
			assert.Equal(t, "sample", r.Origin)
			assert.True(t, r.Ephemeral)
		}
	}

	rec := do(e, http.MethodGet, "/api/v1/samples/weird", "")
	assertAPIError(t, rec, http.StatusBadRequest, apierrors.ErrCodeInvalidArgument)

	// Samples are never stored.
	rec = do(e, http.MethodGet, "/api/v1/records", "")
	assert.Equal(t, 0, decode[ListRecordsResponse](t, rec).Total)
}

func TestExport(t *testing.T) {
	_, e := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/v1/records/import", `{"text":"07:00"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/v1/export/csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/csv")
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "poop-records-")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "date,time,type", strings.TrimSpace(lines[0]))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(lines[1]), ",07:00,"), lines[1])

	rec = do(e, http.MethodGet, "/api/v1/export/report", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
	assert.Contains(t, rec.Body.String(), "排便週報")

	rec = do(e, http.MethodGet, "/api/v1/export/card.png?dark=true&width=450", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 450, img.Bounds().Dx())
	assert.Equal(t, 600, img.Bounds().Dy())

	for _, target := range []string{
		"/api/v1/export/card.png?width=0",
		"/api/v1/export/card.png?width=99999",
		"/api/v1/export/card.png?dark=maybe",
	} {
		rec = do(e, http.MethodGet, target, "")
		assertAPIError(t, rec, http.StatusBadRequest, apierrors.ErrCodeInvalidArgument)
	}
}

func TestGetStatsOverview(t *testing.T) {
	svc, e := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/v1/records/quick", `{"category":5}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/v1/system/stats", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[StatsOverviewResponse](t, rec)
	assert.Equal(t, "7d", resp.TimeRange)
	assert.Equal(t, int64(1), resp.TotalRecords)
	assert.Equal(t, int64(1), resp.RecordsInRange)
	assert.Equal(t, int64(1), resp.ByCategory["水樣"])
	assert.NotNil(t, resp.LastActivityTime)
	assert.Contains(t, resp.Summary, "排便統計")

	rec = do(e, http.MethodGet, "/api/v1/system/stats?range=1y", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.Collector = nil
	rec = do(e, http.MethodGet, "/api/v1/system/stats", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	_, e := newTestServer(t)

	rec := do(e, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "poplog_test_records_deleted_total")
}
