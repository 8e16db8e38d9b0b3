package routes

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fr0stylo/tokengate/internal/app/domain"
	appservices "github.com/fr0stylo/tokengate/internal/app/services"
)

// TokenRoutes exposes token status for the active organization.
type TokenRoutes struct {
	tokens *appservices.TokenService
}

// NewTokenRoutes constructs token routes.
func NewTokenRoutes(tokens *appservices.TokenService) *TokenRoutes {
	return &TokenRoutes{tokens: tokens}
}

// RegisterRoutes registers token endpoints.
func (t *TokenRoutes) RegisterRoutes(s *echo.Echo) {
	s.GET("/tokens/:provider/status", t.handleStatus, RequireAuth)
}

func (t *TokenRoutes) handleStatus(c echo.Context) error {
	platform, ok := domain.ParsePlatform(c.Param("provider"))
	if !ok {
		return writeError(c, fmt.Errorf("%w: %q", appservices.ErrUnsupportedProvider, c.Param("provider")))
	}
	orgID, ok := GetActiveOrganizationID(c)
	if !ok {
		return writeError(c, appservices.ErrOrganizationMembershipRequired)
	}
	status, err := t.tokens.TokenStatus(c.Request().Context(), orgID, platform)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}
