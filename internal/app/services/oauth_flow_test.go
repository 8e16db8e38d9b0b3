package services

import (
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/fr0stylo/tokengate/internal/app/domain"
	"github.com/fr0stylo/tokengate/internal/providers"
)

func stateFromRedirect(t *testing.T, redirect string) string {
	t.Helper()
	parsed, err := url.Parse(redirect)
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}
	return parsed.Query().Get("state")
}

func TestStartRejectsUnsupportedUnconfiguredAndUnlisted(t *testing.T) {
	h := newHarness(t, &fakeStrategy{platform: domain.PlatformLinkedIn}, &fakeStrategy{platform: domain.PlatformYouTube})

	if _, err := h.flow.Start(h.ctx, "myspace", "org1"); !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
	if _, err := h.flow.Start(h.ctx, "google", "org1"); !errors.Is(err, ErrProviderNotConfigured) {
		t.Fatalf("expected ErrProviderNotConfigured, got %v", err)
	}
	if _, err := h.flow.Start(h.ctx, "youtube", "org1"); !errors.Is(err, ErrCallbackNotAllowed) {
		t.Fatalf("expected ErrCallbackNotAllowed, got %v", err)
	}
	if ClassifyError(ErrCallbackNotAllowed) != ErrorConfiguration {
		t.Fatal("expected callback rejection to be a configuration error")
	}
}

func TestStartPersistsStateAndEncodesBlob(t *testing.T) {
	h := newHarness(t, &fakeStrategy{platform: domain.PlatformGoogle, pkce: true})

	result, err := h.flow.Start(h.ctx, "google", "org1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	blob, err := DecodeStateBlob(stateFromRedirect(t, result.RedirectURL))
	if err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if blob.OrgID != "org1" || blob.Provider != "google" || blob.Nonce != result.Nonce {
		t.Fatalf("unexpected blob %+v", blob)
	}
	if remaining := time.Until(time.UnixMilli(blob.Exp)); remaining < 290*time.Second || remaining > 300*time.Second {
		t.Fatalf("unexpected expiry window %s", remaining)
	}
	if _, found, _ := h.ephemeral.Get(h.ctx, "oauth:state:google:"+result.Nonce); !found {
		t.Fatal("expected stored state")
	}
}

func TestCallbackStoresTokenAndPassesVerifier(t *testing.T) {
	strategy := &fakeStrategy{
		platform: domain.PlatformGoogle,
		pkce:     true,
		identity: providers.Identity{ExternalID: "g-1", DisplayName: "Ada", Kind: "profile"},
	}
	h := newHarness(t, strategy)

	start, err := h.flow.Start(h.ctx, "google", "org1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	result, err := h.flow.Callback(h.ctx, CallbackInput{
		Provider:    "google",
		Code:        "code-1",
		State:       stateFromRedirect(t, start.RedirectURL),
		CookieNonce: start.Nonce,
		CallerOrgID: "org1",
	})
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	if !result.Saved || result.Deduped || !result.HasAccess || !result.HasRefresh {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Account == nil || result.Account.ExternalID != "g-1" {
		t.Fatalf("unexpected account %+v", result.Account)
	}
	if len(result.Scopes.Missing) != 1 || result.Scopes.Missing[0] != "write" {
		t.Fatalf("expected write scope missing, got %+v", result.Scopes)
	}
	if result.TokenPreview != "access…" {
		t.Fatalf("unexpected preview %q", result.TokenPreview)
	}

	verifier := strategy.verifier()
	if len(verifier) < 43 {
		t.Fatalf("expected PKCE verifier to reach the exchange, got %q", verifier)
	}

	token, err := h.tokens.GetValidAccessToken(h.ctx, "org1", domain.PlatformGoogle)
	if err != nil || token == nil || token.AccessToken != "access-code-1" {
		t.Fatalf("expected stored token, got %+v err=%v", token, err)
	}
	events := h.auditEvents(t, "org1")
	if len(events) != 1 || events[0] != domain.AuditAcquire {
		t.Fatalf("expected single acquire audit, got %v", events)
	}
}

func TestCallbackReplayIsStateNotFound(t *testing.T) {
	h := newHarness(t, &fakeStrategy{platform: domain.PlatformLinkedIn})
	start, err := h.flow.Start(h.ctx, "linkedin", "org1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	in := CallbackInput{
		Provider:    "linkedin",
		Code:        "code-1",
		State:       stateFromRedirect(t, start.RedirectURL),
		CookieNonce: start.Nonce,
		CallerOrgID: "org1",
	}
	if _, err := h.flow.Callback(h.ctx, in); err != nil {
		t.Fatalf("first callback: %v", err)
	}
	result, err := h.flow.Callback(h.ctx, in)
	if err != nil || !result.Saved || !result.Deduped {
		t.Fatalf("expected resubmitted callback to be deduped, got %+v err=%v", result, err)
	}
	in.Code = "code-2"
	if _, err := h.flow.Callback(h.ctx, in); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected ErrStateNotFound on replay, got %v", err)
	}
}

func TestCallbackStateValidation(t *testing.T) {
	h := newHarness(t, &fakeStrategy{platform: domain.PlatformLinkedIn})
	now := time.Now()
	encode := func(blob domain.StateBlob) string {
		state, err := EncodeStateBlob(blob)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		return state
	}

	cases := []struct {
		name string
		in   CallbackInput
		want error
	}{
		{"undecodable", CallbackInput{Provider: "linkedin", Code: "c", State: "%%%", CookieNonce: "abc", CallerOrgID: "org1"}, ErrInvalidState},
		{"provider mismatch", CallbackInput{Provider: "linkedin", Code: "c", State: encode(domain.StateBlob{OrgID: "org1", Provider: "meta", Nonce: "abc", Exp: now.Add(time.Minute).UnixMilli()}), CookieNonce: "abc", CallerOrgID: "org1"}, ErrStateProviderMismatch},
		{"expired", CallbackInput{Provider: "linkedin", Code: "c", State: encode(domain.StateBlob{OrgID: "org1", Provider: "linkedin", Nonce: "abc", Exp: now.Add(-time.Second).UnixMilli()}), CookieNonce: "abc", CallerOrgID: "org1"}, ErrStateExpired},
		{"org mismatch", CallbackInput{Provider: "linkedin", Code: "c", State: encode(domain.StateBlob{OrgID: "org1", Provider: "linkedin", Nonce: "abc", Exp: now.Add(time.Minute).UnixMilli()}), CookieNonce: "abc", CallerOrgID: "org2"}, ErrStateOrgMismatch},
		{"cookie mismatch", CallbackInput{Provider: "linkedin", Code: "c", State: encode(domain.StateBlob{OrgID: "org1", Provider: "linkedin", Nonce: "abc", Exp: now.Add(300 * time.Second).UnixMilli()}), CookieNonce: "xyz", CallerOrgID: "org1"}, ErrStateCookieMismatch},
		{"cookie absent", CallbackInput{Provider: "linkedin", Code: "c", State: encode(domain.StateBlob{OrgID: "org1", Provider: "linkedin", Nonce: "abc", Exp: now.Add(time.Minute).UnixMilli()}), CallerOrgID: "org1"}, ErrStateCookieMismatch},
		{"never issued", CallbackInput{Provider: "linkedin", Code: "c", State: encode(domain.StateBlob{OrgID: "org1", Provider: "linkedin", Nonce: "abc", Exp: now.Add(time.Minute).UnixMilli()}), CookieNonce: "abc", CallerOrgID: "org1"}, ErrStateNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.flow.Callback(h.ctx, tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if ClassifyError(ErrStateOrgMismatch) != ErrorForbidden || ClassifyError(ErrStateCookieMismatch) != ErrorValidation {
		t.Fatal("unexpected state error classification")
	}
}

func TestConcurrentDoubleSubmitExchangesOnce(t *testing.T) {
	strategy := &fakeStrategy{platform: domain.PlatformLinkedIn, exchangeDelay: 20 * time.Millisecond}
	h := newHarness(t, strategy)

	start, err := h.flow.Start(h.ctx, "linkedin", "org1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	in := CallbackInput{
		Provider:    "linkedin",
		Code:        "shared-code",
		State:       stateFromRedirect(t, start.RedirectURL),
		CookieNonce: start.Nonce,
		CallerOrgID: "org1",
	}

	const callers = 4
	results := make([]CallbackResult, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = h.flow.Callback(h.ctx, in)
		}(i)
	}
	wg.Wait()

	deduped := 0
	for i := range results {
		if errs[i] != nil {
			t.Fatalf("callback %d: %v", i, errs[i])
		}
		if !results[i].Saved {
			t.Fatalf("callback %d not saved: %+v", i, results[i])
		}
		if results[i].Deduped {
			deduped++
		}
	}
	if strategy.exchangeCalls.Load() != 1 {
		t.Fatalf("expected one upstream exchange, got %d", strategy.exchangeCalls.Load())
	}
	if deduped != callers-1 {
		t.Fatalf("expected %d deduped results, got %d", callers-1, deduped)
	}
}

func TestSameCodeAcrossStatesExchangesOnce(t *testing.T) {
	strategy := &fakeStrategy{platform: domain.PlatformLinkedIn}
	h := newHarness(t, strategy)

	for i := 0; i < 2; i++ {
		start, err := h.flow.Start(h.ctx, "linkedin", "org1")
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		result, err := h.flow.Callback(h.ctx, CallbackInput{
			Provider:    "linkedin",
			Code:        "shared-code",
			State:       stateFromRedirect(t, start.RedirectURL),
			CookieNonce: start.Nonce,
			CallerOrgID: "org1",
		})
		if err != nil {
			t.Fatalf("callback %d: %v", i, err)
		}
		if result.Deduped != (i == 1) {
			t.Fatalf("callback %d: unexpected deduped=%v", i, result.Deduped)
		}
	}
	if strategy.exchangeCalls.Load() != 1 {
		t.Fatalf("expected one upstream exchange, got %d", strategy.exchangeCalls.Load())
	}
}

func TestCallbackExchangeFailureIsAudited(t *testing.T) {
	strategy := &fakeStrategy{platform: domain.PlatformMeta, exchangeErr: errors.New("invalid_grant")}
	h := newHarness(t, strategy)
	start, err := h.flow.Start(h.ctx, "meta", "org1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	in := CallbackInput{
		Provider:    "meta",
		Code:        "bad",
		State:       stateFromRedirect(t, start.RedirectURL),
		CookieNonce: start.Nonce,
		CallerOrgID: "org1",
	}
	_, err = h.flow.Callback(h.ctx, in)
	if !errors.Is(err, ErrTokenExchangeFailed) || ErrorCode(err) != "token_exchange_failed" {
		t.Fatalf("expected token_exchange_failed, got %v", err)
	}
	if events := h.auditEvents(t, "org1"); len(events) != 1 || events[0] != domain.AuditFailure {
		t.Fatalf("expected failure audit, got %v", events)
	}
	if token, _ := h.tokens.GetValidAccessToken(h.ctx, "org1", domain.PlatformMeta); token != nil {
		t.Fatalf("expected no stored token, got %+v", token)
	}

	// A failed exchange saved nothing, so resubmitting must not look like a deduped success.
	if result, err := h.flow.Callback(h.ctx, in); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected ErrStateNotFound after failed exchange, got %+v err=%v", result, err)
	}

	strategy.exchangeErr = nil
	retry, err := h.flow.Start(h.ctx, "meta", "org1")
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	in.State = stateFromRedirect(t, retry.RedirectURL)
	in.CookieNonce = retry.Nonce
	result, err := h.flow.Callback(h.ctx, in)
	if err != nil || result.Deduped || !result.Saved {
		t.Fatalf("expected a fresh exchange after restart, got %+v err=%v", result, err)
	}
	if strategy.exchangeCalls.Load() != 2 {
		t.Fatalf("expected two upstream exchanges, got %d", strategy.exchangeCalls.Load())
	}
}

func TestCallbackMetaPageSelectionAndIdentityFallback(t *testing.T) {
	meta := &fakeStrategy{platform: domain.PlatformMeta, identity: providers.Identity{ExternalID: "page-1", DisplayName: "Cafe", Kind: "page"}}
	linkedIn := &fakeStrategy{platform: domain.PlatformLinkedIn, identityErr: errors.New("userinfo down")}
	h := newHarness(t, meta, linkedIn)

	run := func(provider string) CallbackResult {
		start, err := h.flow.Start(h.ctx, provider, "org1")
		if err != nil {
			t.Fatalf("start %s: %v", provider, err)
		}
		result, err := h.flow.Callback(h.ctx, CallbackInput{
			Provider:    provider,
			Code:        "code-" + provider,
			State:       stateFromRedirect(t, start.RedirectURL),
			CookieNonce: start.Nonce,
			CallerOrgID: "org1",
		})
		if err != nil {
			t.Fatalf("callback %s: %v", provider, err)
		}
		return result
	}

	if result := run("meta"); result.Account.ExternalID != "page-1" {
		t.Fatalf("expected page account, got %+v", result.Account)
	}
	if result := run("linkedin"); result.Account.ExternalID != "primary" {
		t.Fatalf("expected fallback account, got %+v", result.Account)
	}
	events := h.auditEvents(t, "org1")
	want := []domain.AuditEvent{domain.AuditSelectPage, domain.AuditAcquire, domain.AuditAcquire}
	if len(events) != len(want) {
		t.Fatalf("unexpected audit events %v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("unexpected audit events %v", events)
		}
	}
}
