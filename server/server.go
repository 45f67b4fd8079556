package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/poplog/internal/profile"
	"github.com/hrygo/poplog/server/internal/observability"
	"github.com/hrygo/poplog/server/middleware"
	apiv1 "github.com/hrygo/poplog/server/router/api/v1"
	"github.com/hrygo/poplog/server/stats"
	"github.com/hrygo/poplog/store"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	collector  *stats.Collector
	metrics    *observability.Metrics
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	loc, err := profile.Location()
	if err != nil {
		return nil, err
	}

	echoServer := echo.New()
	echoServer.Debug = true
	echoServer.HideBanner = true
	echoServer.HidePort = true

	s := &Server{
		Profile:    profile,
		Store:      store,
		echoServer: echoServer,
		collector:  stats.NewCollector(store, stats.NewAggregator(loc)),
		metrics:    observability.NewMetrics("poplog", true),
	}

	rateLimiter := middleware.NewRateLimiter(profile.RateLimit, profile.RateBurst)
	echoServer.Use(
		s.metrics.Middleware(),
		observability.RequestLogger(slog.Default()),
		echomw.Recover(),
		echomw.BodyLimit("2M"),
		rateLimiter.Middleware(),
	)

	apiV1Service, err := apiv1.NewAPIV1Service(profile, store, s.collector, s.metrics)
	if err != nil {
		return nil, err
	}
	apiV1Service.RegisterRoutes(echoServer)

	// Fill the summary before the first request.
	s.collector.Refresh(ctx)
	return s, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", address)
	}
	s.echoServer.Listener = listener

	g, gctx := errgroup.WithContext(ctx)
	s.collector.Start(gctx, s.Profile.StatsInterval)

	g.Go(func() error {
		slog.Info("poplog server started",
			slog.String("address", listener.Addr().String()),
			slog.String("mode", s.Profile.Mode),
			slog.String("version", s.Profile.Version),
		)
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server stopped")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Shutdown stops the collector and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("poplog server shutting down")
	s.collector.Stop()
	if err := s.echoServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "failed to shutdown http server")
	}
	return nil
}
