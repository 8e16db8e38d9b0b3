package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fr0stylo/tokengate/internal/app/domain"
	"github.com/fr0stylo/tokengate/internal/providers"
)

func TestRefreshAfterUnauthorizedAppendsVersionAndAudits(t *testing.T) {
	strategy := &fakeStrategy{platform: domain.PlatformGoogle, nextAccess: "new-access"}
	h := newHarness(t, strategy)
	old := h.seed(t, "org1", domain.PlatformGoogle, providers.TokenSet{AccessToken: "old-access", RefreshToken: "rt", Expiry: time.Now().Add(time.Hour)})
	if _, err := h.tokens.GetValidAccessToken(h.ctx, "org1", domain.PlatformGoogle); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	token, err := h.engine.RefreshAfterUnauthorized(h.ctx, "org1", domain.PlatformGoogle, old.SocialAccountID, "corr-42")
	if err != nil || token.AccessToken != "new-access" {
		t.Fatalf("expected refreshed token, got %+v err=%v", token, err)
	}
	latest, _ := h.store.LatestToken(h.ctx, "org1", domain.PlatformGoogle)
	if latest.ID == old.ID {
		t.Fatal("expected a new token version")
	}
	if cached, _ := h.tokens.GetValidAccessToken(h.ctx, "org1", domain.PlatformGoogle); cached.AccessToken != "new-access" {
		t.Fatalf("expected cache evicted after refresh, got %q", cached.AccessToken)
	}

	records, err := h.store.ListAudit(h.ctx, "org1", 10)
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(records) != 2 || records[0].Event != domain.AuditRefreshSuccess || records[1].Event != domain.AuditRefreshAttempt {
		t.Fatalf("unexpected audit trail %+v", records)
	}
	for _, record := range records {
		if record.CorrelationID != "corr-42" {
			t.Fatalf("expected correlation id on every record, got %q", record.CorrelationID)
		}
	}
}

func TestRefreshFailureKeepsPriorVersionAndSetsMarker(t *testing.T) {
	strategy := &fakeStrategy{platform: domain.PlatformLinkedIn, refreshErr: errors.New("invalid_grant")}
	h := newHarness(t, strategy)
	old := h.seed(t, "org1", domain.PlatformLinkedIn, providers.TokenSet{AccessToken: "old-access", RefreshToken: "rt", Expiry: time.Now().Add(time.Hour)})

	_, err := h.engine.RefreshAfterUnauthorized(h.ctx, "org1", domain.PlatformLinkedIn, 0, "")
	if !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("expected ErrRefreshFailed, got %v", err)
	}
	latest, _ := h.store.LatestToken(h.ctx, "org1", domain.PlatformLinkedIn)
	if latest.ID != old.ID {
		t.Fatal("expected prior version to remain latest")
	}
	if _, found, _ := h.ephemeral.Get(h.ctx, fmt.Sprintf("refresh:failed:%d", old.ID)); !found {
		t.Fatal("expected failure marker")
	}

	_, err = h.engine.RefreshAfterUnauthorized(h.ctx, "org1", domain.PlatformLinkedIn, 0, "")
	if !errors.Is(err, ErrRefreshSkipped) {
		t.Fatalf("expected marker to skip second refresh, got %v", err)
	}
	if strategy.refreshCalls.Load() != 1 {
		t.Fatalf("expected one provider refresh, got %d", strategy.refreshCalls.Load())
	}
	events := h.auditEvents(t, "org1")
	if len(events) != 2 || events[0] != domain.AuditRefreshAttempt || events[1] != domain.AuditRefreshFailure {
		t.Fatalf("unexpected audit trail %v", events)
	}
}

func TestMetaRefreshIsNotSupported(t *testing.T) {
	meta := providers.NewMeta(providers.Credentials{ClientID: "id", ClientSecret: "secret"}, nil)
	h := newHarness(t)
	h.registry[domain.PlatformMeta] = meta
	h.seed(t, "org1", domain.PlatformMeta, providers.TokenSet{AccessToken: "long-lived"})

	_, err := h.engine.RefreshAfterUnauthorized(h.ctx, "org1", domain.PlatformMeta, 0, "")
	if !errors.Is(err, ErrRefreshFailed) || !errors.Is(err, providers.ErrRefreshNotSupported) {
		t.Fatalf("expected unsupported refresh failure, got %v", err)
	}
}

func TestRefreshExpiringSweepsDueTokens(t *testing.T) {
	strategy := &fakeStrategy{platform: domain.PlatformYouTube}
	h := newHarness(t, strategy)
	h.seed(t, "org1", domain.PlatformYouTube, providers.TokenSet{AccessToken: "a", RefreshToken: "rt", Expiry: time.Now().Add(5 * time.Minute)})
	h.seed(t, "org2", domain.PlatformYouTube, providers.TokenSet{AccessToken: "b", RefreshToken: "rt", Expiry: time.Now().Add(2 * time.Hour)})

	refreshed, failed, err := h.engine.RefreshExpiring(h.ctx)
	if err != nil || refreshed != 1 || failed != 0 {
		t.Fatalf("unexpected sweep result refreshed=%d failed=%d err=%v", refreshed, failed, err)
	}

	sweep := NewRefreshSweep(h.engine, "", discardLogger())
	sweep.RunOnce(h.ctx)
	if strategy.refreshCalls.Load() != 1 {
		t.Fatalf("expected refreshed token to be outside the window, got %d refreshes", strategy.refreshCalls.Load())
	}
	if err := sweep.Start(); err != nil {
		t.Fatalf("start sweep: %v", err)
	}
	<-sweep.Stop().Done()
}

func TestCallWithTokenRetriesOnceAfterRefresh(t *testing.T) {
	strategy := &fakeStrategy{platform: domain.PlatformLinkedIn, nextAccess: "new-access"}
	h := newHarness(t, strategy)
	h.seed(t, "org1", domain.PlatformLinkedIn, providers.TokenSet{AccessToken: "old-access", RefreshToken: "rt", Expiry: time.Now().Add(time.Hour)})

	var seen []string
	value, err := CallWithToken(h.ctx, h.tokens, "org1", domain.PlatformLinkedIn, func(_ context.Context, token domain.AccessToken) (CallResult[string], error) {
		seen = append(seen, token.AccessToken)
		if token.AccessToken == "old-access" {
			return CallResult[string]{NeedsRefresh: true}, nil
		}
		return CallResult[string]{OK: true, Value: "posted"}, nil
	})
	if err != nil || value != "posted" {
		t.Fatalf("expected success after refresh, got %q err=%v", value, err)
	}
	if len(seen) != 2 || seen[1] != "new-access" {
		t.Fatalf("unexpected call sequence %v", seen)
	}

	calls := 0
	_, err = CallWithToken(h.ctx, h.tokens, "org1", domain.PlatformLinkedIn, func(context.Context, domain.AccessToken) (CallResult[string], error) {
		calls++
		return CallResult[string]{NeedsRefresh: true}, nil
	})
	if !errors.Is(err, ErrStillUnauthorized) || calls != 2 {
		t.Fatalf("expected a single retry, calls=%d err=%v", calls, err)
	}
}

func TestCallWithTokenWithoutToken(t *testing.T) {
	h := newHarness(t)
	_, err := CallWithToken(h.ctx, h.tokens, "org1", domain.PlatformGoogle, func(context.Context, domain.AccessToken) (CallResult[int], error) {
		t.Fatal("fn must not run without a token")
		return CallResult[int]{}, nil
	})
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}
