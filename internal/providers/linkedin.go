package providers

import (
	"context"
	"net/http"

	"golang.org/x/oauth2/endpoints"

	"github.com/fr0stylo/tokengate/internal/app/domain"
)

const linkedInAPIBase = "https://api.linkedin.com"

var linkedInScopes = []string{"openid", "profile", "w_member_social"}

type linkedInStrategy struct {
	oauthStrategy
}

// NewLinkedIn builds the LinkedIn strategy.
func NewLinkedIn(creds Credentials, client *http.Client) Strategy {
	base := newOAuthStrategy(domain.PlatformLinkedIn, creds, endpoints.LinkedIn, linkedInScopes, client)
	base.apiBase = firstNonEmpty(creds.APIBaseURL, linkedInAPIBase)
	return linkedInStrategy{oauthStrategy: base}
}

func (s linkedInStrategy) Exchange(ctx context.Context, code, redirectURL, verifier string) (TokenSet, error) {
	return s.exchange(ctx, code, redirectURL, verifier)
}

func (s linkedInStrategy) Refresh(ctx context.Context, refreshToken string) (TokenSet, error) {
	return s.refresh(ctx, refreshToken)
}

func (s linkedInStrategy) ResolveIdentity(ctx context.Context, accessToken string) (Identity, error) {
	info, err := s.getJSON(ctx, s.apiURL("/v2/userinfo"), accessToken)
	if err != nil {
		return Identity{}, err
	}
	sub := info.Get("sub").String()
	if sub == "" {
		return Identity{}, ErrIdentityUnavailable
	}
	return Identity{ExternalID: sub, DisplayName: info.Get("name").String(), Kind: "profile"}, nil
}
