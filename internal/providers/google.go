package providers

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/fr0stylo/tokengate/internal/app/domain"
)

const (
	googleUserInfoBase = "https://openidconnect.googleapis.com"
	youTubeAPIBase     = "https://www.googleapis.com"
)

var (
	googleScopes  = []string{"email", "https://www.googleapis.com/auth/business.manage", "openid", "profile"}
	youTubeScopes = []string{"https://www.googleapis.com/auth/youtube.readonly", "https://www.googleapis.com/auth/youtube.upload"}
)

// Google only returns a refresh token for offline access with explicit consent.
var googleOfflineParams = []oauth2.AuthCodeOption{
	oauth2.AccessTypeOffline,
	oauth2.SetAuthURLParam("prompt", "consent"),
	oauth2.SetAuthURLParam("include_granted_scopes", "true"),
}

type googleStrategy struct {
	oauthStrategy
}

// NewGoogle builds the Google (business profile) strategy with PKCE.
func NewGoogle(creds Credentials, client *http.Client) Strategy {
	base := newOAuthStrategy(domain.PlatformGoogle, creds, endpoints.Google, googleScopes, client)
	base.pkce = true
	base.authParams = googleOfflineParams
	base.apiBase = firstNonEmpty(creds.APIBaseURL, googleUserInfoBase)
	return googleStrategy{oauthStrategy: base}
}

func (s googleStrategy) Exchange(ctx context.Context, code, redirectURL, verifier string) (TokenSet, error) {
	return s.exchange(ctx, code, redirectURL, verifier)
}

func (s googleStrategy) Refresh(ctx context.Context, refreshToken string) (TokenSet, error) {
	return s.refresh(ctx, refreshToken)
}

func (s googleStrategy) ResolveIdentity(ctx context.Context, accessToken string) (Identity, error) {
	info, err := s.getJSON(ctx, s.apiURL("/v1/userinfo"), accessToken)
	if err != nil {
		return Identity{}, err
	}
	sub := info.Get("sub").String()
	if sub == "" {
		return Identity{}, ErrIdentityUnavailable
	}
	name := info.Get("name").String()
	if name == "" {
		name = info.Get("email").String()
	}
	return Identity{ExternalID: sub, DisplayName: name, Kind: "profile"}, nil
}

type youTubeStrategy struct {
	oauthStrategy
}

// NewYouTube builds the YouTube strategy. It shares Google's endpoints and consent rules.
func NewYouTube(creds Credentials, client *http.Client) Strategy {
	base := newOAuthStrategy(domain.PlatformYouTube, creds, endpoints.Google, youTubeScopes, client)
	base.pkce = true
	base.authParams = googleOfflineParams
	base.apiBase = firstNonEmpty(creds.APIBaseURL, youTubeAPIBase)
	return youTubeStrategy{oauthStrategy: base}
}

func (s youTubeStrategy) Exchange(ctx context.Context, code, redirectURL, verifier string) (TokenSet, error) {
	return s.exchange(ctx, code, redirectURL, verifier)
}

func (s youTubeStrategy) Refresh(ctx context.Context, refreshToken string) (TokenSet, error) {
	return s.refresh(ctx, refreshToken)
}

func (s youTubeStrategy) ResolveIdentity(ctx context.Context, accessToken string) (Identity, error) {
	channels, err := s.getJSON(ctx, s.apiURL("/youtube/v3/channels?part=snippet&mine=true"), accessToken)
	if err != nil {
		return Identity{}, err
	}
	channel := channels.Get("items.0")
	if channel.Get("id").String() == "" {
		return Identity{}, ErrIdentityUnavailable
	}
	return Identity{ExternalID: channel.Get("id").String(), DisplayName: channel.Get("snippet.title").String(), Kind: "channel"}, nil
}
