package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/fr0stylo/tokengate/internal/app/domain"
	"github.com/fr0stylo/tokengate/internal/app/ports"
	"github.com/fr0stylo/tokengate/internal/observability"
	"github.com/fr0stylo/tokengate/internal/providers"
)

const (
	defaultStateTTL   = 300 * time.Second
	codeClaimTTL      = 300 * time.Second
	fallbackAccountID = "primary"
)

// OAuthFlowConfig controls callback URLs and state lifetime.
type OAuthFlowConfig struct {
	CallbackBaseURL string
	AllowList       []string
	StateTTL        time.Duration
	// AllowUnlisted skips the allow-list check in local development.
	AllowUnlisted bool
}

// OAuthFlow drives the authorization-code handshake for every platform.
type OAuthFlow struct {
	registry StrategyLookup
	store    ports.EphemeralStore
	tokens   *TokenService
	audit    *Auditor
	cfg      OAuthFlowConfig
	log      *slog.Logger
	now      func() time.Time
}

// NewOAuthFlow constructs the coordinator.
func NewOAuthFlow(registry StrategyLookup, store ports.EphemeralStore, tokens *TokenService, audit *Auditor, cfg OAuthFlowConfig, log *slog.Logger) *OAuthFlow {
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = defaultStateTTL
	}
	cfg.CallbackBaseURL = strings.TrimRight(cfg.CallbackBaseURL, "/")
	if log == nil {
		log = slog.Default()
	}
	return &OAuthFlow{registry: registry, store: store, tokens: tokens, audit: audit, cfg: cfg, log: log, now: time.Now}
}

// StateTTL is the lifetime shared by the stored state and the state cookie.
func (f *OAuthFlow) StateTTL() time.Duration {
	return f.cfg.StateTTL
}

// StartResult is returned to the operator who initiated the flow.
type StartResult struct {
	Provider    string `json:"provider"`
	RedirectURL string `json:"redirectUrl"`
	// Nonce is placed in the signed state cookie, never in the response body.
	Nonce string `json:"-"`
}

// CallbackURL is the redirect URI registered with providers.
func (f *OAuthFlow) CallbackURL(platform domain.Platform) string {
	return f.cfg.CallbackBaseURL + "/oauth/" + platform.String() + "/callback"
}

func (f *OAuthFlow) strategy(provider string) (providers.Strategy, error) {
	platform, ok := domain.ParsePlatform(provider)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
	}
	strategy, ok := f.registry.Lookup(platform)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, platform)
	}
	return strategy, nil
}

// Start issues state and PKCE material and returns the provider authorization URL.
func (f *OAuthFlow) Start(ctx context.Context, provider, orgID string) (StartResult, error) {
	strategy, err := f.strategy(provider)
	if err != nil {
		return StartResult{}, err
	}
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return StartResult{}, fmt.Errorf("%w: organization required", ErrInvalidRequest)
	}
	platform := strategy.Platform()
	callbackURL := f.CallbackURL(platform)
	if !f.cfg.AllowUnlisted && !slices.Contains(f.cfg.AllowList, callbackURL) {
		return StartResult{}, fmt.Errorf("%w: %s", ErrCallbackNotAllowed, callbackURL)
	}

	nonce, err := newNonce()
	if err != nil {
		return StartResult{}, err
	}
	expiresAt := f.now().Add(f.cfg.StateTTL)
	record := storedState{OrganizationID: orgID, ExpiresAt: unixMillis(expiresAt)}
	if strategy.UsesPKCE() {
		record.PKCEVerifier = oauth2.GenerateVerifier()
		record.PKCEChallenge = oauth2.S256ChallengeFromVerifier(record.PKCEVerifier)
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return StartResult{}, err
	}
	if err := f.store.Set(ctx, stateKey(platform, nonce), raw, f.cfg.StateTTL); err != nil {
		return StartResult{}, fmt.Errorf("persist oauth state: %w", err)
	}

	state, err := EncodeStateBlob(domain.StateBlob{
		OrgID:    orgID,
		Provider: platform.String(),
		Nonce:    nonce,
		Exp:      unixMillis(expiresAt),
	})
	if err != nil {
		return StartResult{}, err
	}
	redirect := strategy.AuthCodeURL(providers.AuthRequest{
		State:        state,
		RedirectURL:  callbackURL,
		PKCEVerifier: record.PKCEVerifier,
	})
	f.log.InfoContext(ctx, "oauth_started", "provider", platform, "org_id", orgID, "pkce", strategy.UsesPKCE())
	return StartResult{Provider: platform.String(), RedirectURL: redirect, Nonce: nonce}, nil
}

// CallbackInput carries everything the provider redirect and browser sent back.
type CallbackInput struct {
	Provider    string
	Code        string
	State       string
	CookieNonce string
	CallerOrgID string
}

// ScopeReport compares granted scopes with the strategy's required scopes.
type ScopeReport struct {
	Granted []string `json:"granted"`
	Missing []string `json:"missing"`
}

// AccountSummary identifies the linked social account.
type AccountSummary struct {
	ID          int64  `json:"id"`
	ExternalID  string `json:"externalId"`
	DisplayName string `json:"displayName"`
}

// CallbackResult is the outcome of a successful or deduplicated callback.
type CallbackResult struct {
	Provider     string          `json:"provider"`
	Saved        bool            `json:"saved"`
	Deduped      bool            `json:"deduped,omitempty"`
	HasAccess    bool            `json:"has_access"`
	HasRefresh   bool            `json:"has_refresh"`
	Scopes       *ScopeReport    `json:"scopes,omitempty"`
	Account      *AccountSummary `json:"account,omitempty"`
	TokenPreview string          `json:"tokenPreview,omitempty"`
}

// Callback validates state, exchanges the code once and stores the credential.
func (f *OAuthFlow) Callback(ctx context.Context, in CallbackInput) (CallbackResult, error) {
	strategy, err := f.strategy(in.Provider)
	if err != nil {
		return CallbackResult{}, err
	}
	platform := strategy.Platform()

	blob, err := f.validateState(platform, in)
	if err != nil {
		observability.RecordOAuthCallback(ctx, platform.String(), ErrorCode(err))
		return CallbackResult{}, err
	}
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return CallbackResult{}, ErrMissingCode
	}
	claimKey := codeClaimKey(platform, code)

	record, deduped, err := f.consumeState(ctx, platform, blob, claimKey)
	if err != nil {
		observability.RecordOAuthCallback(ctx, platform.String(), ErrorCode(err))
		return CallbackResult{}, err
	}
	if deduped {
		observability.RecordOAuthCallback(ctx, platform.String(), "deduped")
		return CallbackResult{Provider: platform.String(), Saved: true, Deduped: true}, nil
	}

	set, err := strategy.Exchange(ctx, code, f.CallbackURL(platform), record.PKCEVerifier)
	if err != nil {
		// Nothing was stored, so later callbacks with this code must not report a deduped success.
		f.releaseCodeClaim(ctx, platform, claimKey)
		f.audit.Record(ctx, domain.AuditRecord{
			Event:          domain.AuditFailure,
			OrganizationID: blob.OrgID,
			Provider:       platform,
			Reason:         "token_exchange_failed: " + err.Error(),
		})
		observability.RecordOAuthCallback(ctx, platform.String(), "exchange_failed")
		f.log.ErrorContext(ctx, "oauth_exchange_failed", "provider", platform, "org_id", blob.OrgID, "error", err)
		return CallbackResult{}, fmt.Errorf("%w: %w", ErrTokenExchangeFailed, err)
	}

	identity := f.resolveIdentity(ctx, strategy, set.AccessToken)
	account, stored, err := f.tokens.StoreAcquired(ctx, StoreTokenInput{
		OrganizationID: blob.OrgID,
		Platform:       platform,
		Identity:       identity,
		Tokens:         set,
	})
	if err != nil {
		return CallbackResult{}, fmt.Errorf("store acquired token: %w", err)
	}
	if identity.Kind == "page" {
		f.audit.Record(ctx, domain.AuditRecord{
			Event:           domain.AuditSelectPage,
			OrganizationID:  blob.OrgID,
			Provider:        platform,
			SocialAccountID: account.ID,
			Success:         true,
			Reason:          identity.ExternalID,
		})
	}

	missing := providers.MissingScopes(strategy.RequiredScopes(), set.Scopes)
	if len(missing) > 0 {
		f.log.WarnContext(ctx, "oauth_scopes_missing", "provider", platform, "org_id", blob.OrgID, "missing", missing)
	}
	f.audit.Record(ctx, domain.AuditRecord{
		Event:           domain.AuditAcquire,
		OrganizationID:  blob.OrgID,
		Provider:        platform,
		SocialAccountID: account.ID,
		Success:         true,
		Scopes:          stored.Scopes,
		ExpiresAt:       stored.ExpiresAt,
	})
	observability.RecordOAuthCallback(ctx, platform.String(), "stored")
	f.log.InfoContext(ctx, "oauth_token_stored", "provider", platform, "org_id", blob.OrgID, "account_id", account.ID, "token_id", stored.ID)

	return CallbackResult{
		Provider:   platform.String(),
		Saved:      true,
		HasAccess:  set.AccessToken != "",
		HasRefresh: set.RefreshToken != "",
		Scopes:     &ScopeReport{Granted: set.Scopes, Missing: missing},
		Account: &AccountSummary{
			ID:          account.ID,
			ExternalID:  account.ExternalID,
			DisplayName: account.DisplayName,
		},
		TokenPreview: observability.RedactToken(set.AccessToken),
	}, nil
}

// validateState rejects a state blob before any store access.
func (f *OAuthFlow) validateState(platform domain.Platform, in CallbackInput) (domain.StateBlob, error) {
	blob, err := DecodeStateBlob(strings.TrimSpace(in.State))
	if err != nil {
		return domain.StateBlob{}, err
	}
	if blob.Provider != platform.String() {
		return blob, ErrStateProviderMismatch
	}
	if f.now().UnixMilli() > blob.Exp {
		return blob, ErrStateExpired
	}
	if strings.TrimSpace(in.CallerOrgID) != blob.OrgID {
		return blob, ErrStateOrgMismatch
	}
	if in.CookieNonce == "" || in.CookieNonce != blob.Nonce {
		return blob, ErrStateCookieMismatch
	}
	return blob, nil
}

// consumeState claims the authorization code under the state's nonce, then
// consumes the stored state so the nonce can never match again. A callback
// whose code is already claimed reports deduped instead of exchanging twice;
// that includes a double submit of the same state whose twin already
// consumed it.
func (f *OAuthFlow) consumeState(ctx context.Context, platform domain.Platform, blob domain.StateBlob, claimKey string) (storedState, bool, error) {
	key := stateKey(platform, blob.Nonce)
	raw, found, err := f.store.Get(ctx, key)
	if err != nil {
		return storedState{}, false, fmt.Errorf("read oauth state: %w", err)
	}
	if !found {
		if f.codeClaimedBy(ctx, claimKey, blob.Nonce) {
			return storedState{}, true, nil
		}
		return storedState{}, false, ErrStateNotFound
	}

	won, err := f.store.SetIfAbsent(ctx, claimKey, []byte(blob.Nonce), codeClaimTTL)
	if err != nil {
		return storedState{}, false, fmt.Errorf("claim authorization code: %w", err)
	}
	if !won {
		return storedState{}, true, nil
	}

	won, err = f.store.SetIfAbsent(ctx, consumedKey(platform, blob.Nonce), []byte("1"), f.cfg.StateTTL)
	if err != nil {
		f.releaseCodeClaim(ctx, platform, claimKey)
		return storedState{}, false, fmt.Errorf("consume oauth state: %w", err)
	}
	if !won {
		// Another code already consumed this state.
		f.releaseCodeClaim(ctx, platform, claimKey)
		return storedState{}, false, ErrStateNotFound
	}
	if err := f.store.Delete(ctx, key); err != nil {
		f.log.WarnContext(ctx, "oauth_state_delete_failed", "provider", platform, "error", err)
	}

	var record storedState
	if err := json.Unmarshal(raw, &record); err != nil {
		f.releaseCodeClaim(ctx, platform, claimKey)
		return storedState{}, false, ErrInvalidState
	}
	if record.OrganizationID != blob.OrgID {
		f.releaseCodeClaim(ctx, platform, claimKey)
		return storedState{}, false, ErrStateOrgMismatch
	}
	return record, false, nil
}

func (f *OAuthFlow) codeClaimedBy(ctx context.Context, claimKey, nonce string) bool {
	owner, found, err := f.store.Get(ctx, claimKey)
	if err != nil {
		f.log.WarnContext(ctx, "oauth_code_claim_lookup_failed", "error", err)
		return false
	}
	return found && string(owner) == nonce
}

func (f *OAuthFlow) releaseCodeClaim(ctx context.Context, platform domain.Platform, claimKey string) {
	if err := f.store.Delete(ctx, claimKey); err != nil {
		f.log.WarnContext(ctx, "oauth_code_claim_release_failed", "provider", platform, "error", err)
	}
}

func (f *OAuthFlow) resolveIdentity(ctx context.Context, strategy providers.Strategy, accessToken string) providers.Identity {
	identity, err := strategy.ResolveIdentity(ctx, accessToken)
	if err == nil && identity.ExternalID != "" {
		return identity
	}
	if err != nil && !errors.Is(err, providers.ErrIdentityUnavailable) {
		f.log.WarnContext(ctx, "oauth_identity_unresolved", "provider", strategy.Platform(), "error", err)
	}
	return providers.Identity{ExternalID: fallbackAccountID, Kind: "profile"}
}
