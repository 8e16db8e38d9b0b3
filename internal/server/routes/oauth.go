package routes

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	appservices "github.com/fr0stylo/tokengate/internal/app/services"
)

// OAuthRoutes connects organization social accounts through provider OAuth.
type OAuthRoutes struct {
	flow    *appservices.OAuthFlow
	cookies *StateCookies
}

// NewOAuthRoutes constructs OAuth routes.
func NewOAuthRoutes(flow *appservices.OAuthFlow, cookies *StateCookies) *OAuthRoutes {
	return &OAuthRoutes{flow: flow, cookies: cookies}
}

// RegisterRoutes registers OAuth endpoints.
func (o *OAuthRoutes) RegisterRoutes(s *echo.Echo) {
	group := s.Group("/oauth", RequireAuth)
	group.GET("/:provider/start", o.handleStart, RequireManager)
	group.GET("/:provider/callback", o.handleCallback)
}

func (o *OAuthRoutes) handleStart(c echo.Context) error {
	provider := strings.ToLower(strings.TrimSpace(c.Param("provider")))
	orgID, _ := GetActiveOrganizationID(c)

	result, err := o.flow.Start(c.Request().Context(), provider, orgID)
	if err != nil {
		return writeError(c, err)
	}
	if err := o.cookies.Set(c, result.Provider, result.Nonce); err != nil {
		return err
	}
	if c.QueryParam("redirect") == "1" {
		return c.Redirect(http.StatusFound, result.RedirectURL)
	}
	return c.JSON(http.StatusOK, result)
}

func (o *OAuthRoutes) handleCallback(c echo.Context) error {
	provider := strings.ToLower(strings.TrimSpace(c.Param("provider")))
	orgID, _ := GetActiveOrganizationID(c)

	nonce := o.cookies.Read(c, provider)
	o.cookies.Clear(c, provider)

	result, err := o.flow.Callback(c.Request().Context(), appservices.CallbackInput{
		Provider:    provider,
		Code:        c.QueryParam("code"),
		State:       c.QueryParam("state"),
		CookieNonce: nonce,
		CallerOrgID: orgID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
