package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fr0stylo/tokengate/internal/app/domain"
	"github.com/fr0stylo/tokengate/internal/app/ports"
	"github.com/fr0stylo/tokengate/internal/observability"
	"github.com/fr0stylo/tokengate/internal/providers"
)

// RefreshWindow is how close to expiry a token must be before reads refresh it.
const RefreshWindow = 15 * time.Minute

// dummyExternalID is the account id used for seeded placeholder credentials.
const dummyExternalID = "dummy"

// TokenService reads and writes platform credentials for organizations.
type TokenService struct {
	store     ports.TokenStore
	cipher    ports.TokenCipher
	cache     *TokenCache
	refresher *RefreshEngine
	log       *slog.Logger
	now       func() time.Time
}

// NewTokenService constructs a token service. refresher may be nil, in which
// case expiring tokens are returned as they are.
func NewTokenService(store ports.TokenStore, cipher ports.TokenCipher, cache *TokenCache, refresher *RefreshEngine, log *slog.Logger) *TokenService {
	if log == nil {
		log = slog.Default()
	}
	return &TokenService{store: store, cipher: cipher, cache: cache, refresher: refresher, log: log, now: time.Now}
}

// GetValidAccessToken returns the organization's usable token for platform,
// or nil when none is stored.
func (s *TokenService) GetValidAccessToken(ctx context.Context, orgID string, platform domain.Platform) (*domain.AccessToken, error) {
	if token, ok := s.cache.get(ctx, orgID, platform, 0); ok {
		return token, nil
	}
	stored, err := s.store.LatestToken(ctx, orgID, platform)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load token %s/%s: %w", orgID, platform, err)
	}
	return s.usable(ctx, stored, 0)
}

// GetValidAccessTokenForAccount is GetValidAccessToken scoped to one social account.
func (s *TokenService) GetValidAccessTokenForAccount(ctx context.Context, orgID string, platform domain.Platform, accountID int64) (*domain.AccessToken, error) {
	if token, ok := s.cache.get(ctx, orgID, platform, accountID); ok {
		return token, nil
	}
	stored, err := s.store.LatestTokenForAccount(ctx, accountID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load token for account %d: %w", accountID, err)
	}
	if stored.OrganizationID != orgID || stored.Platform != platform {
		return nil, nil
	}
	return s.usable(ctx, stored, accountID)
}

func (s *TokenService) usable(ctx context.Context, stored domain.StoredToken, cacheAccountID int64) (*domain.AccessToken, error) {
	now := s.now()
	if s.refresher != nil && !stored.IsDummy && stored.HasRefreshToken() && stored.ExpiresWithin(now, RefreshWindow) {
		refreshed, err := s.refresher.refresh(ctx, stored, "read", "")
		if err == nil {
			s.cache.put(ctx, stored.OrganizationID, stored.Platform, cacheAccountID, *refreshed)
			return refreshed, nil
		}
		s.log.WarnContext(ctx, "token_read_refresh_failed",
			"org_id", stored.OrganizationID,
			"provider", stored.Platform,
			"token_id", stored.ID,
			"error", err,
		)
		if stored.ExpiresWithin(now, 0) {
			return nil, nil
		}
	}

	plain, err := s.cipher.Decrypt(stored.AccessTokenEncrypted)
	if err != nil {
		return nil, fmt.Errorf("decrypt token %d: %w", stored.ID, err)
	}
	token := domain.AccessToken{AccessToken: plain, IsDummy: stored.IsDummy, SocialAccountID: stored.SocialAccountID}
	s.cache.put(ctx, stored.OrganizationID, stored.Platform, cacheAccountID, token)
	return &token, nil
}

// EvictTokenCache invalidates cached tokens. accountID 0 means unknown.
func (s *TokenService) EvictTokenCache(ctx context.Context, orgID string, platform domain.Platform, accountID int64) {
	s.cache.Evict(ctx, orgID, platform, accountID)
}

// TokenStatus summarizes the current token without exposing it.
func (s *TokenService) TokenStatus(ctx context.Context, orgID string, platform domain.Platform) (domain.TokenStatus, error) {
	token, err := s.GetValidAccessToken(ctx, orgID, platform)
	if err != nil {
		return domain.TokenStatus{}, err
	}
	if token == nil {
		return domain.TokenStatus{OK: true}, nil
	}
	return domain.TokenStatus{
		OK:           true,
		HasToken:     true,
		IsDummy:      token.IsDummy,
		TokenPreview: observability.RedactToken(token.AccessToken),
	}, nil
}

// StoreTokenInput is a freshly acquired credential and the account it acts as.
type StoreTokenInput struct {
	OrganizationID string
	Platform       domain.Platform
	Identity       providers.Identity
	Tokens         providers.TokenSet
	IsDummy        bool
}

// StoreAcquired upserts the social account, appends an encrypted token
// version and evicts the cache for that account.
func (s *TokenService) StoreAcquired(ctx context.Context, input StoreTokenInput) (domain.SocialAccount, domain.StoredToken, error) {
	account, err := s.store.UpsertSocialAccount(ctx, ports.UpsertSocialAccountInput{
		OrganizationID: input.OrganizationID,
		Platform:       input.Platform,
		ExternalID:     input.Identity.ExternalID,
		DisplayName:    input.Identity.DisplayName,
	})
	if err != nil {
		return domain.SocialAccount{}, domain.StoredToken{}, fmt.Errorf("upsert social account: %w", err)
	}

	stored, err := s.appendVersion(ctx, account.ID, input.Tokens, "", input.IsDummy)
	if err != nil {
		return domain.SocialAccount{}, domain.StoredToken{}, err
	}
	stored.OrganizationID = account.OrganizationID
	stored.Platform = account.Platform
	s.cache.Evict(ctx, input.OrganizationID, input.Platform, account.ID)
	return account, stored, nil
}

// SeedDummyToken stores a placeholder credential that is never refreshed.
func (s *TokenService) SeedDummyToken(ctx context.Context, orgID string, platform domain.Platform, accessToken string) (domain.StoredToken, error) {
	_, stored, err := s.StoreAcquired(ctx, StoreTokenInput{
		OrganizationID: orgID,
		Platform:       platform,
		Identity:       providers.Identity{ExternalID: dummyExternalID, DisplayName: "Dummy account"},
		Tokens:         providers.TokenSet{AccessToken: accessToken},
		IsDummy:        true,
	})
	return stored, err
}

// appendVersion encrypts set and inserts it. previousRefreshEncrypted is kept
// when set carries no refresh token.
func (s *TokenService) appendVersion(ctx context.Context, accountID int64, set providers.TokenSet, previousRefreshEncrypted string, dummy bool) (domain.StoredToken, error) {
	accessEncrypted, err := s.cipher.Encrypt(set.AccessToken)
	if err != nil {
		return domain.StoredToken{}, fmt.Errorf("encrypt access token: %w", err)
	}
	refreshEncrypted := previousRefreshEncrypted
	if set.RefreshToken != "" {
		refreshEncrypted, err = s.cipher.Encrypt(set.RefreshToken)
		if err != nil {
			return domain.StoredToken{}, fmt.Errorf("encrypt refresh token: %w", err)
		}
	}
	var expiresAt *time.Time
	if !set.Expiry.IsZero() {
		expiry := set.Expiry.UTC()
		expiresAt = &expiry
	}
	stored, err := s.store.InsertToken(ctx, ports.InsertTokenInput{
		SocialAccountID:       accountID,
		AccessTokenEncrypted:  accessEncrypted,
		RefreshTokenEncrypted: refreshEncrypted,
		ExpiresAt:             expiresAt,
		Scopes:                set.Scopes,
		IsDummy:               dummy,
	})
	if err != nil {
		return domain.StoredToken{}, fmt.Errorf("insert token version: %w", err)
	}
	return stored, nil
}
