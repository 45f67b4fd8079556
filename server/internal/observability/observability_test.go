package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEcho(logger *slog.Logger, m *Metrics) *echo.Echo {
	e := echo.New()
	e.Use(m.Middleware())
	e.Use(RequestLogger(logger))
	e.GET("/ok/:id", func(c echo.Context) error {
		reqCtx, ok := FromContext(c.Request().Context())
		if !ok {
			return echo.NewHTTPError(http.StatusInternalServerError, "missing request context")
		}
		return c.String(http.StatusOK, reqCtx.RequestID)
	})
	e.GET("/bad", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "bad")
	})
	return e
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	e := newEcho(logger, NewMetrics("test", false))

	req := httptest.NewRequest(http.MethodGet, "/ok/1", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-123", rec.Body.String())
	assert.Equal(t, "req-123", rec.Header().Get(HeaderRequestID))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request completed", entry["msg"])
	assert.Equal(t, "req-123", entry[LogFieldRequestID])
	assert.Equal(t, "/ok/:id", entry[LogFieldRoute])
	assert.Equal(t, float64(200), entry[LogFieldStatus])
}

func TestRequestLogger_GeneratesIDAndLogsRejections(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	e := newEcho(logger, NewMetrics("test", false))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bad", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, rec.Header().Get(HeaderRequestID), 36)
	assert.True(t, strings.Contains(buf.String(), `"msg":"request rejected"`))
}

func TestMetrics_Middleware(t *testing.T) {
	m := NewMetrics("test", false)
	e := newEcho(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), m)

	for _, path := range []string{"/ok/1", "/ok/2", "/bad"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/ok/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/bad", "400")))

	m.RecordImport(3, 1)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ImportedLines.WithLabelValues("parsed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImportedLines.WithLabelValues("skipped")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "test_http_requests_total")
}

func TestRequestContext_FromContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	reqCtx := NewRequestContext(slog.Default(), http.MethodGet, "/")
	got, ok := FromContext(WithRequestContext(context.Background(), reqCtx))
	require.True(t, ok)
	assert.Equal(t, reqCtx.RequestID, got.RequestID)
	assert.NotNil(t, reqCtx.WithFields(slog.String("k", "v")))
}
