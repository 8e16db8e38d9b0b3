package routes

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	appservices "github.com/fr0stylo/tokengate/internal/app/services"
	"github.com/fr0stylo/tokengate/internal/webhooks"
)

// WebhookRoutes registers inbound platform webhook endpoints.
type WebhookRoutes struct {
	gate *appservices.WebhookGate
}

// NewWebhookRoutes constructs webhook routes.
func NewWebhookRoutes(gate *appservices.WebhookGate) *WebhookRoutes {
	return &WebhookRoutes{gate: gate}
}

// RegisterRoutes registers webhook endpoints.
func (w *WebhookRoutes) RegisterRoutes(s *echo.Echo) {
	s.GET("/webhooks/:provider", w.handleHandshake)
	s.POST("/webhooks/:provider", w.handleReceive)
}

func (w *WebhookRoutes) handleHandshake(c echo.Context) error {
	resp, err := w.gate.Handshake(c.Param("provider"), c.QueryParams())
	if err != nil {
		return writeError(c, err)
	}
	switch {
	case resp.Status != http.StatusOK:
		return c.NoContent(resp.Status)
	case resp.JSON != nil:
		return c.JSON(http.StatusOK, resp.JSON)
	default:
		return c.String(http.StatusOK, resp.Text)
	}
}

func (w *WebhookRoutes) handleReceive(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, webhooks.MaxPayloadBytes+1))
	if err != nil {
		return writeError(c, err)
	}
	if len(body) > webhooks.MaxPayloadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": "payload_too_large"})
	}

	receipt, err := w.gate.Receive(c.Request().Context(), c.Param("provider"), body, c.Request().Header)
	if err != nil {
		if errors.Is(err, appservices.ErrUnsupportedProvider) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": appservices.ErrorCode(err)})
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"ok":        true,
		"idemKey":   receipt.IdempotencyKey,
		"duplicate": receipt.Duplicate,
	})
}
