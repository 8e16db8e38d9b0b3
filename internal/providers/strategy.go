// Package providers adapts each identity platform's OAuth dialect to one contract.
package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"github.com/fr0stylo/tokengate/internal/app/domain"
)

var (
	// ErrRefreshNotSupported is returned by platforms without a refresh grant.
	ErrRefreshNotSupported = errors.New("refresh not supported")
	// ErrNoAccessToken indicates the provider answered without an access token.
	ErrNoAccessToken = errors.New("provider returned no access token")
	// ErrIdentityUnavailable indicates no profile, page or channel could be resolved.
	ErrIdentityUnavailable = errors.New("identity unavailable")
)

// AuthRequest carries the per-handshake values embedded in the authorization URL.
type AuthRequest struct {
	State        string
	RedirectURL  string
	PKCEVerifier string
}

// TokenSet is the plaintext credential material returned by a provider.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
	Scopes       []string
}

// Identity is the account the credential acts as.
type Identity struct {
	ExternalID  string
	DisplayName string
	// Kind is "page", "profile" or "channel".
	Kind string
}

// Strategy is the per-platform OAuth dialect.
type Strategy interface {
	Platform() domain.Platform
	UsesPKCE() bool
	RequiredScopes() []string
	AuthCodeURL(req AuthRequest) string
	Exchange(ctx context.Context, code, redirectURL, verifier string) (TokenSet, error)
	Refresh(ctx context.Context, refreshToken string) (TokenSet, error)
	ResolveIdentity(ctx context.Context, accessToken string) (Identity, error)
}

// Credentials are the OAuth client settings for one platform. Empty URL
// fields fall back to the platform's production endpoints.
type Credentials struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	APIBaseURL   string
}

// Configured reports whether client credentials are present.
func (c Credentials) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// oauthStrategy holds the parts shared by every platform; the platform files
// supply endpoints, scopes and identity resolution.
type oauthStrategy struct {
	platform   domain.Platform
	conf       oauth2.Config
	client     *http.Client
	pkce       bool
	authParams []oauth2.AuthCodeOption
	apiBase    string
}

func newOAuthStrategy(platform domain.Platform, creds Credentials, endpoint oauth2.Endpoint, scopes []string, client *http.Client) oauthStrategy {
	if creds.AuthURL != "" {
		endpoint.AuthURL = creds.AuthURL
	}
	if creds.TokenURL != "" {
		endpoint.TokenURL = creds.TokenURL
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams
	if client == nil {
		client = http.DefaultClient
	}
	return oauthStrategy{
		platform: platform,
		conf: oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		client: client,
	}
}

func (s oauthStrategy) Platform() domain.Platform { return s.platform }

func (s oauthStrategy) UsesPKCE() bool { return s.pkce }

func (s oauthStrategy) RequiredScopes() []string {
	return append([]string(nil), s.conf.Scopes...)
}

func (s oauthStrategy) AuthCodeURL(req AuthRequest) string {
	conf := s.conf
	conf.RedirectURL = req.RedirectURL
	opts := append([]oauth2.AuthCodeOption(nil), s.authParams...)
	if s.pkce && req.PKCEVerifier != "" {
		opts = append(opts, oauth2.S256ChallengeOption(req.PKCEVerifier))
	}
	return conf.AuthCodeURL(req.State, opts...)
}

func (s oauthStrategy) exchange(ctx context.Context, code, redirectURL, verifier string) (TokenSet, error) {
	conf := s.conf
	conf.RedirectURL = redirectURL
	var opts []oauth2.AuthCodeOption
	if s.pkce && verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}
	token, err := conf.Exchange(s.httpContext(ctx), code, opts...)
	if err != nil {
		return TokenSet{}, fmt.Errorf("%s code exchange: %w", s.platform, err)
	}
	return s.tokenSet(token, "")
}

func (s oauthStrategy) refresh(ctx context.Context, refreshToken string) (TokenSet, error) {
	source := s.conf.TokenSource(s.httpContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return TokenSet{}, fmt.Errorf("%s refresh: %w", s.platform, err)
	}
	return s.tokenSet(token, refreshToken)
}

func (s oauthStrategy) httpContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.client)
}

func (s oauthStrategy) tokenSet(token *oauth2.Token, previousRefresh string) (TokenSet, error) {
	if token == nil || strings.TrimSpace(token.AccessToken) == "" {
		return TokenSet{}, fmt.Errorf("%s: %w", s.platform, ErrNoAccessToken)
	}
	refresh := token.RefreshToken
	if refresh == "" {
		refresh = previousRefresh
	}
	// An absent scope field leaves Scopes empty: nothing is assumed granted.
	granted, _ := token.Extra("scope").(string)
	return TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: refresh,
		Expiry:       token.Expiry,
		Scopes:       ParseScopes(granted),
	}, nil
}

func (s oauthStrategy) apiURL(path string) string {
	return strings.TrimRight(s.apiBase, "/") + path
}

const maxResponseBytes = 1 << 20

// getJSON performs an authenticated GET against the platform API.
func (s oauthStrategy) getJSON(ctx context.Context, url, accessToken string) (gjson.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s api request: %w", s.platform, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s api read: %w", s.platform, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return gjson.Result{}, &APIError{Platform: s.platform, StatusCode: resp.StatusCode, Body: gjson.GetBytes(body, "error").String()}
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%s api: invalid json response", s.platform)
	}
	return gjson.ParseBytes(body), nil
}

// APIError is a non-2xx answer from a platform API.
type APIError struct {
	Platform   domain.Platform
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s api status %d", e.Platform, e.StatusCode)
	}
	return fmt.Sprintf("%s api status %d: %s", e.Platform, e.StatusCode, e.Body)
}

// Unauthorized reports whether the platform rejected the credential itself.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// ParseScopes splits a provider scope string on commas or whitespace,
// returning a sorted, de-duplicated list.
func ParseScopes(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		out = append(out, field)
	}
	sort.Strings(out)
	return out
}

// MissingScopes returns required scopes absent from granted.
func MissingScopes(required, granted []string) []string {
	have := make(map[string]struct{}, len(granted))
	for _, scope := range granted {
		have[scope] = struct{}{}
	}
	missing := make([]string, 0)
	for _, scope := range required {
		if _, ok := have[scope]; !ok {
			missing = append(missing, scope)
		}
	}
	return missing
}
