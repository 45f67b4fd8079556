package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// LogFieldRequestID is the field name for request ID.
	LogFieldRequestID = "request_id"
	// LogFieldMethod is the field name for the HTTP method.
	LogFieldMethod = "method"
	// LogFieldRoute is the field name for the matched route.
	LogFieldRoute = "route"
	// LogFieldStatus is the field name for the response status.
	LogFieldStatus = "status"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = echo.HeaderXRequestID

// RequestContext represents the context for a single request with structured logging.
type RequestContext struct {
	RequestID string
	Method    string
	Route     string
	StartTime time.Time
	Logger    *slog.Logger
}

// NewRequestContext creates a new request context with a generated request ID.
func NewRequestContext(logger *slog.Logger, method, route string) *RequestContext {
	return NewRequestContextWithID(logger, generateRequestID(), method, route)
}

// NewRequestContextWithID creates a new request context with a specific request ID.
func NewRequestContextWithID(logger *slog.Logger, requestID, method, route string) *RequestContext {
	return &RequestContext{
		RequestID: requestID,
		Method:    method,
		Route:     route,
		StartTime: time.Now(),
		Logger:    logger,
	}
}

// WithFields returns a new logger with additional fields.
func (r *RequestContext) WithFields(attrs ...slog.Attr) *slog.Logger {
	base := r.baseAttrsAppended(attrs...)
	args := make([]any, 0, len(base))
	for _, attr := range base {
		args = append(args, attr)
	}
	return r.Logger.With(args...)
}

// Info logs an info message.
func (r *RequestContext) Info(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelInfo, msg, r.baseAttrsAppended(attrs...)...)
}

// Warn logs a warning message.
func (r *RequestContext) Warn(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelWarn, msg, r.baseAttrsAppended(attrs...)...)
}

// Error logs an error message with the error.
func (r *RequestContext) Error(msg string, err error, attrs ...slog.Attr) {
	attrs = append(attrs, slog.String("error", err.Error()))
	r.Logger.LogAttrs(context.Background(), slog.LevelError, msg, r.baseAttrsAppended(attrs...)...)
}

// Duration returns the elapsed time since the request started.
func (r *RequestContext) Duration() time.Duration {
	return time.Since(r.StartTime)
}

// DurationMs returns the elapsed time in milliseconds.
func (r *RequestContext) DurationMs() int64 {
	return r.Duration().Milliseconds()
}

func (r *RequestContext) baseAttrsAppended(attrs ...slog.Attr) []slog.Attr {
	base := []slog.Attr{
		slog.String(LogFieldRequestID, r.RequestID),
		slog.String(LogFieldMethod, r.Method),
		slog.String(LogFieldRoute, r.Route),
	}
	return append(base, attrs...)
}

// generateRequestID generates a unique request ID using full UUID.
func generateRequestID() string {
	return uuid.New().String()
}

type ctxKey struct{}

// WithRequestContext adds the request context to the context.
func WithRequestContext(ctx context.Context, reqCtx *RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, reqCtx)
}

// FromContext extracts the request context from the context.
func FromContext(ctx context.Context) (*RequestContext, bool) {
	reqCtx, ok := ctx.Value(ctxKey{}).(*RequestContext)
	return reqCtx, ok
}

// RequestLogger attaches a RequestContext to every request and logs its
// outcome. An incoming X-Request-ID is reused, otherwise one is generated;
// either way it is echoed in the response.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			requestID := req.Header.Get(HeaderRequestID)
			if requestID == "" {
				requestID = generateRequestID()
			}
			reqCtx := NewRequestContextWithID(logger, requestID, req.Method, c.Path())
			c.SetRequest(req.WithContext(WithRequestContext(req.Context(), reqCtx)))
			c.Response().Header().Set(HeaderRequestID, requestID)

			err := next(c)
			if err != nil {
				// Let the error handler write the response so the status is final.
				c.Error(err)
			}

			status := c.Response().Status
			attrs := []slog.Attr{
				slog.Int(LogFieldStatus, status),
				slog.Int64(LogFieldDuration, reqCtx.DurationMs()),
			}
			switch {
			case status >= 500:
				if err == nil {
					reqCtx.Warn("request failed", attrs...)
				} else {
					reqCtx.Error("request failed", err, attrs...)
				}
			case status >= 400:
				reqCtx.Warn("request rejected", attrs...)
			default:
				reqCtx.Info("request completed", attrs...)
			}
			return nil
		}
	}
}
