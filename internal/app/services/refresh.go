package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/fr0stylo/tokengate/internal/app/domain"
	"github.com/fr0stylo/tokengate/internal/app/ports"
	"github.com/fr0stylo/tokengate/internal/observability"
	"github.com/fr0stylo/tokengate/internal/providers"
)

const (
	refreshFailureTTL = 60 * time.Second
	sweepBatchSize    = 100
)

// StrategyLookup resolves the provider strategy for a platform.
type StrategyLookup interface {
	Lookup(platform domain.Platform) (providers.Strategy, bool)
}

// RefreshEngine exchanges refresh tokens for new token versions.
type RefreshEngine struct {
	tokens   *TokenService
	store    ports.TokenStore
	markers  ports.EphemeralStore
	registry StrategyLookup
	audit    *Auditor
	log      *slog.Logger
	now      func() time.Time
}

// NewRefreshEngine wires the engine into tokens so reads can refresh synchronously.
func NewRefreshEngine(tokens *TokenService, markers ports.EphemeralStore, registry StrategyLookup, audit *Auditor, log *slog.Logger) *RefreshEngine {
	if log == nil {
		log = slog.Default()
	}
	e := &RefreshEngine{
		tokens:   tokens,
		store:    tokens.store,
		markers:  markers,
		registry: registry,
		audit:    audit,
		log:      log,
		now:      time.Now,
	}
	tokens.refresher = e
	return e
}

// RefreshAfterUnauthorized refreshes the latest token after a platform
// rejected it. accountID 0 selects the organization's latest token.
func (e *RefreshEngine) RefreshAfterUnauthorized(ctx context.Context, orgID string, platform domain.Platform, accountID int64, correlationID string) (*domain.AccessToken, error) {
	var (
		stored domain.StoredToken
		err    error
	)
	if accountID > 0 {
		stored, err = e.store.LatestTokenForAccount(ctx, accountID)
	} else {
		stored, err = e.store.LatestToken(ctx, orgID, platform)
	}
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("load token for refresh: %w", err)
	}
	if stored.OrganizationID != orgID || stored.Platform != platform {
		return nil, ErrNoToken
	}
	return e.refresh(ctx, stored, "unauthorized", correlationID)
}

// RefreshExpiring refreshes every latest token expiring within RefreshWindow.
func (e *RefreshEngine) RefreshExpiring(ctx context.Context) (refreshed, failed int, err error) {
	due, err := e.store.ListLatestTokensExpiringBefore(ctx, e.now().Add(RefreshWindow), sweepBatchSize)
	if err != nil {
		return 0, 0, fmt.Errorf("list expiring tokens: %w", err)
	}
	for _, stored := range due {
		if _, err := e.refresh(ctx, stored, "sweep", uuid.NewString()); err != nil {
			if !errors.Is(err, ErrRefreshSkipped) {
				failed++
			}
			continue
		}
		refreshed++
	}
	return refreshed, failed, nil
}

func failureMarkerKey(tokenID int64) string {
	return "refresh:failed:" + strconv.FormatInt(tokenID, 10)
}

func (e *RefreshEngine) refresh(ctx context.Context, stored domain.StoredToken, trigger, correlationID string) (*domain.AccessToken, error) {
	if correlationID == "" {
		correlationID, _ = observability.CorrelationIDFromContext(ctx)
	}
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	ctx = observability.WithCorrelationID(ctx, correlationID)

	if stored.IsDummy {
		return nil, fmt.Errorf("%w: dummy token", ErrRefreshSkipped)
	}
	_, marked, err := e.markers.Get(ctx, failureMarkerKey(stored.ID))
	if err != nil {
		e.log.WarnContext(ctx, "refresh_marker_read_failed", "token_id", stored.ID, "error", err)
	}
	if marked {
		return nil, fmt.Errorf("%w: recent failure for token %d", ErrRefreshSkipped, stored.ID)
	}

	base := domain.AuditRecord{
		OrganizationID:  stored.OrganizationID,
		Provider:        stored.Platform,
		SocialAccountID: stored.SocialAccountID,
		CorrelationID:   correlationID,
	}
	attempt := base
	attempt.Event = domain.AuditRefreshAttempt
	attempt.Success = true
	attempt.Reason = trigger
	e.audit.Record(ctx, attempt)

	set, err := e.exchange(ctx, stored)
	if err != nil {
		return nil, e.fail(ctx, stored, base, trigger, err)
	}
	if len(set.Scopes) == 0 {
		set.Scopes = stored.Scopes
	}

	next, err := e.tokens.appendVersion(ctx, stored.SocialAccountID, set, stored.RefreshTokenEncrypted, false)
	if err != nil {
		return nil, e.fail(ctx, stored, base, trigger, err)
	}
	e.tokens.cache.Evict(ctx, stored.OrganizationID, stored.Platform, stored.SocialAccountID)

	success := base
	success.Event = domain.AuditRefreshSuccess
	success.Success = true
	success.Scopes = next.Scopes
	success.ExpiresAt = next.ExpiresAt
	e.audit.Record(ctx, success)
	observability.RecordTokenRefresh(ctx, stored.Platform.String(), trigger, true)
	e.log.InfoContext(ctx, "token_refreshed",
		"org_id", stored.OrganizationID,
		"provider", stored.Platform,
		"token_id", next.ID,
		"trigger", trigger,
	)

	return &domain.AccessToken{AccessToken: set.AccessToken, SocialAccountID: stored.SocialAccountID}, nil
}

func (e *RefreshEngine) exchange(ctx context.Context, stored domain.StoredToken) (providers.TokenSet, error) {
	strategy, ok := e.registry.Lookup(stored.Platform)
	if !ok {
		return providers.TokenSet{}, ErrProviderNotConfigured
	}
	if !stored.HasRefreshToken() {
		if stored.Platform == domain.PlatformMeta {
			return strategy.Refresh(ctx, "")
		}
		return providers.TokenSet{}, errors.New("no refresh token stored")
	}
	refreshToken, err := e.tokens.cipher.Decrypt(stored.RefreshTokenEncrypted)
	if err != nil {
		return providers.TokenSet{}, fmt.Errorf("decrypt refresh token: %w", err)
	}
	return strategy.Refresh(ctx, refreshToken)
}

func (e *RefreshEngine) fail(ctx context.Context, stored domain.StoredToken, base domain.AuditRecord, trigger string, cause error) error {
	failure := base
	failure.Event = domain.AuditRefreshFailure
	failure.Reason = cause.Error()
	e.audit.Record(ctx, failure)
	observability.RecordTokenRefresh(ctx, stored.Platform.String(), trigger, false)

	if err := e.markers.Set(ctx, failureMarkerKey(stored.ID), []byte(strconv.FormatInt(e.now().Unix(), 10)), refreshFailureTTL); err != nil {
		e.log.WarnContext(ctx, "refresh_marker_write_failed", "token_id", stored.ID, "error", err)
	}
	e.log.WarnContext(ctx, "token_refresh_failed",
		"org_id", stored.OrganizationID,
		"provider", stored.Platform,
		"token_id", stored.ID,
		"trigger", trigger,
		"error", cause,
	)
	return fmt.Errorf("%w: %w", ErrRefreshFailed, cause)
}
