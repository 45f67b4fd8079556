package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// idleTTL is how long an unused per-client limiter is kept.
const idleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter provides per-key token bucket rate limiting.
type RateLimiter struct {
	mu     sync.Mutex
	limits map[string]*clientLimiter
	limit  rate.Limit
	burst  int
	now    func() time.Time
}

// NewRateLimiter creates a rate limiter allowing rps requests per second per
// key with the given burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = 20
	}
	return &RateLimiter{
		limits: make(map[string]*clientLimiter),
		limit:  rate.Limit(rps),
		burst:  burst,
		now:    time.Now,
	}
}

// getLimiter gets or creates a limiter for the given key and drops limiters
// idle for longer than idleTTL.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for k, cl := range rl.limits {
		if now.Sub(cl.lastSeen) > idleTTL {
			delete(rl.limits, k)
		}
	}

	if cl, ok := rl.limits[key]; ok {
		cl.lastSeen = now
		return cl.limiter
	}
	cl := &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst), lastSeen: now}
	rl.limits[key] = cl
	return cl.limiter
}

// Allow checks if a request is allowed for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Wait waits for a request to be allowed.
// Returns error if the context is cancelled or rate limit exceeded.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	return rl.getLimiter(key).Wait(ctx)
}

// Size returns the number of tracked keys.
func (rl *RateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limits)
}

// Middleware rejects requests over the limit with 429, keyed by client IP.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.Allow(c.RealIP()) {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
