package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"

	"github.com/fr0stylo/tokengate/internal/observability"
)

// RouteRegister registers Echo routes.
type RouteRegister interface {
	RegisterRoutes(s *echo.Echo)
}

// Server holds the Echo instance.
type Server struct {
	e *echo.Echo
}

// Options configures the HTTP server.
type Options struct {
	// TrustedProxies lists proxy CIDRs whose X-Forwarded-For is honoured.
	// When empty, the client IP is always the socket peer address.
	TrustedProxies []string
}

// New creates a new server instance. Extra middleware runs after request
// logging and tracing, in the order given.
func New(log *slog.Logger, opts Options, extra ...echo.MiddlewareFunc) (*Server, error) {
	e := echo.New()

	e.HideBanner = true
	e.HidePort = true

	extractor, err := ipExtractor(opts.TrustedProxies)
	if err != nil {
		return nil, err
	}
	e.IPExtractor = extractor

	e.Use(middleware.RequestID())
	e.Use(observability.EchoMiddleware())
	e.Use(observability.EchoSpanEnrichmentMiddleware())
	e.Use(slogecho.NewWithConfig(log, slogecho.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup: "header:X-CSRF-Token,form:_csrf",
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.HasPrefix(path, "/webhooks/") || path == "/healthz" || path == "/readyz"
		},
	}))
	for _, mw := range extra {
		e.Use(mw)
	}

	return &Server{
		e: e,
	}, nil
}

// ipExtractor never trusts forwarding headers from arbitrary peers, so
// per-IP rate limits cannot be dodged by rotating X-Forwarded-For.
func ipExtractor(trustedProxies []string) (echo.IPExtractor, error) {
	if len(trustedProxies) == 0 {
		return echo.ExtractIPDirect(), nil
	}
	trust := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, cidr := range trustedProxies {
		_, network, err := net.ParseCIDR(strings.TrimSpace(cidr))
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", cidr, err)
		}
		trust = append(trust, echo.TrustIPRange(network))
	}
	return echo.ExtractIPFromXFFHeader(trust...), nil
}

// RegisterRouter attaches a route registrar.
func (s *Server) RegisterRouter(r RouteRegister) {
	r.RegisterRoutes(s.e)
}

// Start runs the HTTP server.
func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
