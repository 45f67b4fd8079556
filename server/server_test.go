package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/poplog/internal/profile"
	"github.com/hrygo/poplog/store/test"
)

func newTestProfile(burst int) *profile.Profile {
	return &profile.Profile{
		Mode:          "dev",
		Addr:          "127.0.0.1",
		Port:          0,
		Version:       "test",
		Timezone:      "UTC",
		RateLimit:     1,
		RateBurst:     burst,
		StatsInterval: time.Hour,
	}
}

func TestServer_Routes(t *testing.T) {
	ctx := context.Background()
	s, err := NewServer(ctx, newTestProfile(100), test.NewTestingStore(ctx, t))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/records/quick", strings.NewReader(`{"category":2}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderXRequestID, "req-1")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "req-1", rec.Header().Get(echo.HeaderXRequestID))

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `poplog_http_requests_total{method="POST",route="/api/v1/records/quick",status="201"} 1`)
	assert.Contains(t, body, `poplog_records_created_total{origin="quick"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestServer_RateLimit(t *testing.T) {
	ctx := context.Background()
	s, err := NewServer(ctx, newTestProfile(2), test.NewTestingStore(ctx, t))
	require.NoError(t, err)

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/records", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestServer_StartShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s, err := NewServer(ctx, newTestProfile(10), test.NewTestingStore(context.Background(), t))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
