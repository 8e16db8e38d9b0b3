package routes

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	appservices "github.com/fr0stylo/tokengate/internal/app/services"
)

// statusFor maps a classified service error to an HTTP status.
func statusFor(err error) int {
	switch appservices.ClassifyError(err) {
	case appservices.ErrorConfiguration, appservices.ErrorValidation:
		return http.StatusBadRequest
	case appservices.ErrorForbidden, appservices.ErrorSignature:
		return http.StatusForbidden
	case appservices.ErrorNotFound:
		return http.StatusNotFound
	case appservices.ErrorNeedsHuman:
		return http.StatusConflict
	case appservices.ErrorPaused:
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders {error: <code>}. Provider details never reach the body.
func writeError(c echo.Context, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "request_failed", "route", c.Path(), "error", err)
	}
	return c.JSON(status, map[string]string{"error": appservices.ErrorCode(err)})
}
