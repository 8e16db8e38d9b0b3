// Package ratelimit implements a fixed-window request limiter over the shared ephemeral store.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fr0stylo/tokengate/internal/app/ports"
	"github.com/fr0stylo/tokengate/internal/observability"
)

// CallerHeader identifies API callers; requests without it are keyed by client IP.
const CallerHeader = "X-API-Key"

// Rule is a window/limit pair applied to requests whose path starts with Prefix.
type Rule struct {
	Prefix    string
	WindowSec int
	Max       int
	Burst     int
}

// Config holds the default rule and ordered overrides. The first matching override wins.
type Config struct {
	WindowSec int
	Max       int
	Burst     int
	Routes    []Rule
}

// Decision is the outcome of one limiter check.
type Decision struct {
	Allowed    bool
	Count      int64
	Limit      int64
	RetryAfter int
	FailOpen   bool
}

// Limiter counts requests per (method, path, caller, window).
type Limiter struct {
	store ports.EphemeralStore
	cfg   Config
	log   *slog.Logger
	now   func() time.Time
	skip  func(path string) bool
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithSkipper excludes paths from limiting.
func WithSkipper(skip func(path string) bool) Option {
	return func(l *Limiter) { l.skip = skip }
}

// New constructs a limiter.
func New(store ports.EphemeralStore, cfg Config, log *slog.Logger, opts ...Option) *Limiter {
	if cfg.WindowSec <= 0 {
		cfg.WindowSec = 60
	}
	if cfg.Max <= 0 {
		cfg.Max = 60
	}
	if log == nil {
		log = slog.Default()
	}
	l := &Limiter{store: store, cfg: cfg, log: log, now: time.Now, skip: func(string) bool { return false }}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Limiter) rule(path string) Rule {
	for _, route := range l.cfg.Routes {
		if strings.HasPrefix(path, route.Prefix) {
			return route
		}
	}
	return Rule{WindowSec: l.cfg.WindowSec, Max: l.cfg.Max, Burst: l.cfg.Burst}
}

// Check increments the caller's counter for the current window and decides.
// Store failures admit the request.
func (l *Limiter) Check(ctx context.Context, method, path, callerKey string) Decision {
	rule := l.rule(path)
	window := int64(rule.WindowSec)
	bucket := l.now().Unix() / window
	key := fmt.Sprintf("rl:%s:%s:%s:%d", method, path, callerKey, bucket)
	limit := int64(rule.Max + rule.Burst)

	count, err := l.store.IncrementWindow(ctx, key, time.Duration(rule.WindowSec)*time.Second)
	if err != nil {
		l.log.WarnContext(ctx, "ratelimit_store_unavailable", "error", err, "path", path)
		observability.RecordRateLimitFailOpen(ctx)
		return Decision{Allowed: true, Limit: limit, FailOpen: true}
	}
	if count > limit {
		return Decision{Allowed: false, Count: count, Limit: limit, RetryAfter: rule.WindowSec}
	}
	return Decision{Allowed: true, Count: count, Limit: limit}
}

// Middleware enforces the limiter on every echo request.
func (l *Limiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if l.skip(path) {
				return next(c)
			}
			decision := l.Check(c.Request().Context(), c.Request().Method, path, callerKey(c))
			if !decision.Allowed {
				observability.RecordRateLimitRejected(c.Request().Context(), path)
				c.Response().Header().Set("Retry-After", strconv.Itoa(decision.RetryAfter))
				return c.JSON(http.StatusTooManyRequests, map[string]any{
					"error":      "rate_limited",
					"retryAfter": decision.RetryAfter,
				})
			}
			return next(c)
		}
	}
}

func callerKey(c echo.Context) string {
	if key := strings.TrimSpace(c.Request().Header.Get(CallerHeader)); key != "" {
		sum := sha256.Sum256([]byte(key))
		return "key:" + hex.EncodeToString(sum[:8])
	}
	return "ip:" + c.RealIP()
}
