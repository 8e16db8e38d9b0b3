package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/fr0stylo/tokengate/internal/app/domain"
	"github.com/fr0stylo/tokengate/internal/app/ports"
	"github.com/fr0stylo/tokengate/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "store-test"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return NewStore(database)
}

func TestTokensAreAppendOnlyAndLatestWins(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	account, err := store.UpsertSocialAccount(ctx, ports.UpsertSocialAccountInput{
		OrganizationID: "org1",
		Platform:       domain.PlatformLinkedIn,
		ExternalID:     "urn:li:person:1",
		DisplayName:    "Ada",
	})
	if err != nil {
		t.Fatalf("upsert account: %v", err)
	}

	again, err := store.UpsertSocialAccount(ctx, ports.UpsertSocialAccountInput{
		OrganizationID: "org1",
		Platform:       domain.PlatformLinkedIn,
		ExternalID:     "urn:li:person:1",
	})
	if err != nil {
		t.Fatalf("re-upsert account: %v", err)
	}
	if again.ID != account.ID || again.DisplayName != "Ada" {
		t.Fatalf("expected same account with preserved name, got %+v", again)
	}

	expiry := time.Now().Add(time.Hour).Truncate(time.Millisecond)
	first, err := store.InsertToken(ctx, ports.InsertTokenInput{
		SocialAccountID:       account.ID,
		AccessTokenEncrypted:  "enc-a1",
		RefreshTokenEncrypted: "enc-r1",
		ExpiresAt:             &expiry,
		Scopes:                []string{"w_member_social", "openid", "openid"},
	})
	if err != nil {
		t.Fatalf("insert first: %v", err)
	}
	second, err := store.InsertToken(ctx, ports.InsertTokenInput{
		SocialAccountID:      account.ID,
		AccessTokenEncrypted: "enc-a2",
	})
	if err != nil {
		t.Fatalf("insert second: %v", err)
	}

	latest, err := store.LatestToken(ctx, "org1", domain.PlatformLinkedIn)
	if err != nil {
		t.Fatalf("latest token: %v", err)
	}
	if latest.ID != second.ID || latest.AccessTokenEncrypted != "enc-a2" {
		t.Fatalf("expected second version to be latest, got %+v", latest)
	}
	if latest.OrganizationID != "org1" || latest.Platform != domain.PlatformLinkedIn {
		t.Fatalf("expected account identity on token, got %+v", latest)
	}

	byAccount, err := store.LatestTokenForAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("latest for account: %v", err)
	}
	if byAccount.ID != second.ID {
		t.Fatalf("expected latest for account %d, got %d", second.ID, byAccount.ID)
	}
	if first.ID == second.ID {
		t.Fatal("expected distinct token versions")
	}
}

func TestLatestTokenNotFound(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	_, err := store.LatestToken(context.Background(), "org-missing", domain.PlatformMeta)
	if !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListLatestTokensExpiringBefore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)
	now := time.Now()

	insert := func(org, ext string, expiresIn time.Duration, refresh string, dummy bool) {
		t.Helper()
		account, err := store.UpsertSocialAccount(ctx, ports.UpsertSocialAccountInput{OrganizationID: org, Platform: domain.PlatformGoogle, ExternalID: ext})
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}
		expiry := now.Add(expiresIn)
		if _, err := store.InsertToken(ctx, ports.InsertTokenInput{
			SocialAccountID:       account.ID,
			AccessTokenEncrypted:  "enc",
			RefreshTokenEncrypted: refresh,
			ExpiresAt:             &expiry,
			IsDummy:               dummy,
		}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	insert("org1", "soon", 5*time.Minute, "enc-r", false)
	insert("org2", "later", 2*time.Hour, "enc-r", false)
	insert("org3", "dummy", 5*time.Minute, "enc-r", true)
	insert("org4", "norefresh", 5*time.Minute, "", false)

	tokens, err := store.ListLatestTokensExpiringBefore(ctx, now.Add(15*time.Minute), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tokens) != 1 || tokens[0].OrganizationID != "org1" {
		t.Fatalf("expected only org1 token, got %+v", tokens)
	}
}

func TestAuditAppendAndList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	for _, event := range []domain.AuditEvent{domain.AuditRefreshAttempt, domain.AuditRefreshFailure} {
		if err := store.AppendAudit(ctx, domain.AuditRecord{
			Event:          event,
			OrganizationID: "org1",
			Provider:       domain.PlatformMeta,
			Reason:         "boom",
			CorrelationID:  "corr-1",
		}); err != nil {
			t.Fatalf("append audit: %v", err)
		}
	}

	records, err := store.ListAudit(ctx, "org1", 10)
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Event != domain.AuditRefreshFailure || records[0].CorrelationID != "corr-1" {
		t.Fatalf("expected newest failure record first, got %+v", records[0])
	}
}

func TestWebhookEventsDedupeOnIdempotencyKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	event := domain.WebhookEvent{
		OrganizationID: domain.UnknownOrganization,
		Provider:       domain.PlatformMeta,
		EventType:      "page",
		Payload:        []byte(`{"object":"page"}`),
		Headers:        map[string]string{"Content-Type": "application/json"},
		IdempotencyKey: "key-1",
	}
	inserted, err := store.InsertWebhookEvent(ctx, event)
	if err != nil || !inserted {
		t.Fatalf("expected first insert, inserted=%v err=%v", inserted, err)
	}
	inserted, err = store.InsertWebhookEvent(ctx, event)
	if err != nil || inserted {
		t.Fatalf("expected duplicate to be ignored, inserted=%v err=%v", inserted, err)
	}
	if processed, err := store.IsWebhookProcessed(ctx, "key-1"); err != nil || processed {
		t.Fatalf("expected unprocessed event, processed=%v err=%v", processed, err)
	}
	if err := store.MarkWebhookProcessed(ctx, "key-1", time.Now()); err != nil {
		t.Fatalf("mark processed: %v", err)
	}
	if processed, err := store.IsWebhookProcessed(ctx, "key-1"); err != nil || !processed {
		t.Fatalf("expected processed event, processed=%v err=%v", processed, err)
	}
	if _, err := store.IsWebhookProcessed(ctx, "missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected not found for unknown key, got %v", err)
	}
}

func TestAdmissionFacts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	paused, err := store.IsPublishingPaused(ctx)
	if err != nil || paused {
		t.Fatalf("expected unpaused default, paused=%v err=%v", paused, err)
	}
	if err := store.SetPublishingPaused(ctx, true); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if paused, _ := store.IsPublishingPaused(ctx); !paused {
		t.Fatal("expected paused after set")
	}

	if _, err := store.GetContentStatus(ctx, "org1", "c1"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown content, got %v", err)
	}
	if err := store.UpsertContentItem(ctx, "org1", "c1", domain.ContentApproved); err != nil {
		t.Fatalf("upsert content: %v", err)
	}
	status, err := store.GetContentStatus(ctx, "org1", "c1")
	if err != nil || status != domain.ContentApproved {
		t.Fatalf("unexpected content status %q err=%v", status, err)
	}

	if enabled, _ := store.IsAutopostEnabled(ctx, "org1"); enabled {
		t.Fatal("expected autopost disabled by default")
	}
	if err := store.SetAutopostEnabled(ctx, "org1", true); err != nil {
		t.Fatalf("enable autopost: %v", err)
	}
	if enabled, _ := store.IsAutopostEnabled(ctx, "org1"); !enabled {
		t.Fatal("expected autopost enabled")
	}
}

func TestIdentityMemberships(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	user, err := store.UpsertUser(ctx, ports.UpsertUserInput{GitHubID: "dev:ada", Email: "ada@example.local", Nickname: "ada"})
	if err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	if err := store.UpsertMembership(ctx, domain.Membership{UserID: user.ID, OrganizationID: "org1", Role: domain.RoleMember}); err != nil {
		t.Fatalf("upsert membership: %v", err)
	}
	if err := store.UpsertMembership(ctx, domain.Membership{UserID: user.ID, OrganizationID: "org1", Role: domain.RoleOwner}); err != nil {
		t.Fatalf("promote membership: %v", err)
	}
	memberships, err := store.ListMemberships(ctx, user.ID)
	if err != nil {
		t.Fatalf("list memberships: %v", err)
	}
	if len(memberships) != 1 || memberships[0].Role != domain.RoleOwner {
		t.Fatalf("unexpected memberships: %+v", memberships)
	}
}
