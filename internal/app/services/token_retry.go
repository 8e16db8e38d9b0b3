package services

import (
	"context"

	"github.com/fr0stylo/tokengate/internal/app/domain"
	"github.com/fr0stylo/tokengate/internal/observability"
)

// CallResult is what a token-using call reports back. NeedsRefresh asks for
// one reactive refresh and retry; it is not an error.
type CallResult[T any] struct {
	OK           bool
	NeedsRefresh bool
	Value        T
}

// CallWithToken runs fn with the organization's current token and retries it
// at most once after a reactive refresh.
func CallWithToken[T any](ctx context.Context, tokens *TokenService, orgID string, platform domain.Platform, fn func(context.Context, domain.AccessToken) (CallResult[T], error)) (T, error) {
	var zero T
	token, err := tokens.GetValidAccessToken(ctx, orgID, platform)
	if err != nil {
		return zero, err
	}
	if token == nil {
		return zero, ErrNoToken
	}

	result, err := fn(ctx, *token)
	if err != nil {
		return zero, err
	}
	if !result.NeedsRefresh {
		return result.Value, nil
	}
	if tokens.refresher == nil {
		return zero, ErrStillUnauthorized
	}

	correlationID, _ := observability.CorrelationIDFromContext(ctx)
	refreshed, err := tokens.refresher.RefreshAfterUnauthorized(ctx, orgID, platform, token.SocialAccountID, correlationID)
	if err != nil {
		return zero, err
	}
	result, err = fn(ctx, *refreshed)
	if err != nil {
		return zero, err
	}
	if result.NeedsRefresh {
		return zero, ErrStillUnauthorized
	}
	return result.Value, nil
}
