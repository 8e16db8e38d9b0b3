package routes

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fr0stylo/tokengate/internal/app/domain"
	appservices "github.com/fr0stylo/tokengate/internal/app/services"
)

// PublishRoutes registers publish admission and operator policy endpoints.
type PublishRoutes struct {
	admission *appservices.AdmissionGate
	policy    *appservices.PolicyService
	system    appservices.SystemOperators
}

// NewPublishRoutes constructs publish routes. Only system operators may pause
// publishing because the switch applies to every organization.
func NewPublishRoutes(admission *appservices.AdmissionGate, policy *appservices.PolicyService, system appservices.SystemOperators) *PublishRoutes {
	return &PublishRoutes{admission: admission, policy: policy, system: system}
}

// RegisterRoutes registers publish endpoints.
func (p *PublishRoutes) RegisterRoutes(s *echo.Echo) {
	s.POST("/publish/admissions", p.handleAdmit, RequireAuth)

	s.PUT("/admin/system/publishing-paused", p.handlePause, RequireAuth, RequireSystemOperator(p.system))

	admin := s.Group("/admin", RequireAuth, RequireManager)
	admin.PUT("/policy/autopost", p.handleAutopost)
	admin.PUT("/content/:contentItemId/status", p.handleContentStatus)
}

func (p *PublishRoutes) handleAdmit(c echo.Context) error {
	var req appservices.AdmissionRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, fmt.Errorf("%w: %v", appservices.ErrInvalidRequest, err))
	}
	orgID, _ := GetActiveOrganizationID(c)
	req.OrganizationID = strings.TrimSpace(req.OrganizationID)
	switch {
	case req.OrganizationID == "":
		req.OrganizationID = orgID
	case req.OrganizationID != orgID:
		return writeError(c, appservices.ErrOrganizationAccessDenied)
	}

	result, err := p.admission.Admit(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusAccepted, result)
}

func (p *PublishRoutes) handlePause(c echo.Context) error {
	var body struct {
		Paused *bool `json:"paused"`
	}
	if err := c.Bind(&body); err != nil || body.Paused == nil {
		return writeError(c, fmt.Errorf("%w: paused required", appservices.ErrInvalidRequest))
	}
	user, _ := GetAuthUser(c)
	if err := p.policy.SetPublishingPaused(c.Request().Context(), *body.Paused, user.Email); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"paused": *body.Paused})
}

func (p *PublishRoutes) handleAutopost(c echo.Context) error {
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := c.Bind(&body); err != nil || body.Enabled == nil {
		return writeError(c, fmt.Errorf("%w: enabled required", appservices.ErrInvalidRequest))
	}
	orgID, _ := GetActiveOrganizationID(c)
	if err := p.policy.SetAutopost(c.Request().Context(), orgID, *body.Enabled); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"organizationId": orgID, "enabled": *body.Enabled})
}

func (p *PublishRoutes) handleContentStatus(c echo.Context) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return writeError(c, fmt.Errorf("%w: %v", appservices.ErrInvalidRequest, err))
	}
	orgID, _ := GetActiveOrganizationID(c)
	contentItemID := c.Param("contentItemId")
	if err := p.policy.SetContentStatus(c.Request().Context(), orgID, contentItemID, domain.ContentStatus(strings.TrimSpace(body.Status))); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"contentItemId": contentItemID, "status": body.Status})
}
