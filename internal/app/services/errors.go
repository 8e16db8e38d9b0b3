package services

import (
	"errors"

	"github.com/fr0stylo/tokengate/internal/webhooks"
)

// Sentinel errors. The message of each sentinel is the wire error code.
var (
	ErrUnsupportedProvider   = errors.New("unsupported_provider")
	ErrProviderNotConfigured = errors.New("provider_not_configured")
	ErrCallbackNotAllowed    = errors.New("callback_not_allowed")
	ErrInvalidRequest        = errors.New("invalid_request")

	ErrInvalidState          = errors.New("invalid_state")
	ErrStateProviderMismatch = errors.New("state_provider_mismatch")
	ErrStateExpired          = errors.New("state_expired")
	ErrStateOrgMismatch      = errors.New("state_org_mismatch")
	ErrStateCookieMismatch   = errors.New("state_cookie_mismatch")
	ErrStateNotFound         = errors.New("state_not_found")
	ErrMissingCode           = errors.New("missing_code")

	ErrTokenExchangeFailed = errors.New("token_exchange_failed")
	ErrRefreshFailed       = errors.New("refresh_failed")
	ErrRefreshSkipped      = errors.New("refresh_skipped")
	ErrNoToken             = errors.New("no_token")
	ErrStillUnauthorized   = errors.New("unauthorized_after_refresh")

	ErrInvalidSignature = webhooks.ErrInvalidSignature

	ErrPublishingPaused   = errors.New("publishing_paused")
	ErrContentNotApproved = errors.New("content_not_approved")
	ErrAutopostDisabled   = errors.New("autopost_disabled")
)

// ErrorKind groups errors by how callers must react to them.
type ErrorKind int

const (
	ErrorUnknown ErrorKind = iota
	ErrorConfiguration
	ErrorValidation
	ErrorForbidden
	ErrorSignature
	ErrorProvider
	ErrorNotFound
	ErrorNeedsHuman
	ErrorPaused
)

var codeOrder = []error{
	ErrUnsupportedProvider,
	ErrProviderNotConfigured,
	ErrCallbackNotAllowed,
	ErrInvalidRequest,
	ErrInvalidState,
	ErrStateProviderMismatch,
	ErrStateExpired,
	ErrStateOrgMismatch,
	ErrStateCookieMismatch,
	ErrStateNotFound,
	ErrMissingCode,
	ErrTokenExchangeFailed,
	ErrRefreshFailed,
	ErrRefreshSkipped,
	ErrNoToken,
	ErrStillUnauthorized,
	ErrPublishingPaused,
	ErrContentNotApproved,
	ErrAutopostDisabled,
	ErrOrganizationMembershipRequired,
	ErrOrganizationAccessDenied,
	ErrOrganizationAdminRequired,
	ErrSystemOperatorRequired,
}

// ClassifyError classifies a returned service error.
func ClassifyError(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrorUnknown
	case errors.Is(err, ErrUnsupportedProvider),
		errors.Is(err, ErrProviderNotConfigured),
		errors.Is(err, ErrCallbackNotAllowed):
		return ErrorConfiguration
	case errors.Is(err, ErrStateOrgMismatch),
		errors.Is(err, ErrOrganizationMembershipRequired),
		errors.Is(err, ErrOrganizationAccessDenied),
		errors.Is(err, ErrOrganizationAdminRequired),
		errors.Is(err, ErrSystemOperatorRequired):
		return ErrorForbidden
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrStateProviderMismatch),
		errors.Is(err, ErrStateExpired),
		errors.Is(err, ErrStateCookieMismatch),
		errors.Is(err, ErrStateNotFound),
		errors.Is(err, ErrMissingCode):
		return ErrorValidation
	case errors.Is(err, ErrInvalidSignature):
		return ErrorSignature
	case errors.Is(err, ErrTokenExchangeFailed),
		errors.Is(err, ErrRefreshFailed),
		errors.Is(err, ErrRefreshSkipped),
		errors.Is(err, ErrStillUnauthorized):
		return ErrorProvider
	case errors.Is(err, ErrNoToken):
		return ErrorNotFound
	case errors.Is(err, ErrContentNotApproved), errors.Is(err, ErrAutopostDisabled):
		return ErrorNeedsHuman
	case errors.Is(err, ErrPublishingPaused):
		return ErrorPaused
	default:
		return ErrorUnknown
	}
}

// ErrorCode returns the wire code of the first sentinel err wraps, or "internal_error".
func ErrorCode(err error) string {
	for _, sentinel := range codeOrder {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	if errors.Is(err, ErrInvalidSignature) {
		return "invalid_signature"
	}
	return "internal_error"
}
