package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthRoutes registers liveness and readiness probes.
type HealthRoutes struct {
	deps map[string]Pinger
}

// NewHealthRoutes constructs health routes over named dependencies.
func NewHealthRoutes(deps map[string]Pinger) *HealthRoutes {
	return &HealthRoutes{deps: deps}
}

// RegisterRoutes registers health endpoints.
func (h *HealthRoutes) RegisterRoutes(s *echo.Echo) {
	s.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]bool{"ok": true})
	})
	s.GET("/readyz", h.handleReady)
}

func (h *HealthRoutes) handleReady(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.deps))
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	return c.JSON(status, map[string]any{"ok": status == http.StatusOK, "checks": checks})
}
