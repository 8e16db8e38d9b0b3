package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/fr0stylo/tokengate/internal/app/domain"
)

const (
	metaAuthURL  = "https://www.facebook.com/v19.0/dialog/oauth"
	metaTokenURL = "https://graph.facebook.com/v19.0/oauth/access_token"
	metaAPIBase  = "https://graph.facebook.com/v19.0"
)

var metaScopes = []string{"pages_manage_posts", "pages_read_engagement", "pages_show_list"}

type metaStrategy struct {
	oauthStrategy
}

// NewMeta builds the Meta strategy. Meta issues long-lived tokens instead of
// refresh tokens, so Exchange upgrades the short-lived token and Refresh is unsupported.
func NewMeta(creds Credentials, client *http.Client) Strategy {
	base := newOAuthStrategy(domain.PlatformMeta, creds, oauth2.Endpoint{AuthURL: metaAuthURL, TokenURL: metaTokenURL}, metaScopes, client)
	base.apiBase = firstNonEmpty(creds.APIBaseURL, metaAPIBase)
	return metaStrategy{oauthStrategy: base}
}

func (s metaStrategy) Exchange(ctx context.Context, code, redirectURL, verifier string) (TokenSet, error) {
	short, err := s.exchange(ctx, code, redirectURL, verifier)
	if err != nil {
		return TokenSet{}, err
	}
	if len(short.Scopes) == 0 {
		// Meta's token endpoint never reports scope.
		short.Scopes = s.grantedPermissions(ctx, short.AccessToken)
	}
	long, err := s.longLived(ctx, short.AccessToken)
	if err != nil {
		// The short-lived token is still valid; keep it rather than failing the handshake.
		return short, nil
	}
	long.Scopes = short.Scopes
	return long, nil
}

// grantedPermissions lists permissions the user accepted. A failed lookup
// yields none, so every required scope is reported missing.
func (s metaStrategy) grantedPermissions(ctx context.Context, accessToken string) []string {
	result, err := s.getJSON(ctx, s.apiURL("/me/permissions"), accessToken)
	if err != nil {
		return nil
	}
	granted := make([]string, 0)
	for _, entry := range result.Get("data").Array() {
		if entry.Get("status").String() == "granted" {
			granted = append(granted, entry.Get("permission").String())
		}
	}
	return ParseScopes(strings.Join(granted, " "))
}

func (s metaStrategy) longLived(ctx context.Context, shortToken string) (TokenSet, error) {
	query := url.Values{}
	query.Set("grant_type", "fb_exchange_token")
	query.Set("client_id", s.conf.ClientID)
	query.Set("client_secret", s.conf.ClientSecret)
	query.Set("fb_exchange_token", shortToken)

	result, err := s.getJSON(ctx, s.conf.Endpoint.TokenURL+"?"+query.Encode(), shortToken)
	if err != nil {
		return TokenSet{}, err
	}
	accessToken := result.Get("access_token").String()
	if accessToken == "" {
		return TokenSet{}, ErrNoAccessToken
	}
	set := TokenSet{AccessToken: accessToken}
	if expiresIn := result.Get("expires_in").Int(); expiresIn > 0 {
		set.Expiry = time.Now().Add(time.Duration(expiresIn) * time.Second)
	}
	return set, nil
}

func (s metaStrategy) Refresh(context.Context, string) (TokenSet, error) {
	return TokenSet{}, fmt.Errorf("refresh not implemented for provider meta: %w", ErrRefreshNotSupported)
}

// ResolveIdentity prefers the first managed page and falls back to the user profile.
func (s metaStrategy) ResolveIdentity(ctx context.Context, accessToken string) (Identity, error) {
	pages, err := s.getJSON(ctx, s.apiURL("/me/accounts?fields=id,name&limit=1"), accessToken)
	if err == nil {
		if page := pages.Get("data.0"); page.Get("id").String() != "" {
			return Identity{ExternalID: page.Get("id").String(), DisplayName: page.Get("name").String(), Kind: "page"}, nil
		}
	}
	me, err := s.getJSON(ctx, s.apiURL("/me?fields=id,name"), accessToken)
	if err != nil {
		return Identity{}, err
	}
	if me.Get("id").String() == "" {
		return Identity{}, ErrIdentityUnavailable
	}
	return Identity{ExternalID: me.Get("id").String(), DisplayName: me.Get("name").String(), Kind: "profile"}, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
