package services

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fr0stylo/tokengate/internal/adapters/memory"
	"github.com/fr0stylo/tokengate/internal/adapters/sqlite"
	"github.com/fr0stylo/tokengate/internal/app/domain"
	"github.com/fr0stylo/tokengate/internal/db"
	"github.com/fr0stylo/tokengate/internal/providers"
	"github.com/fr0stylo/tokengate/internal/secrets"
)

const testCallbackBase = "https://tokengate.test"

type fakeStrategy struct {
	platform domain.Platform
	pkce     bool

	exchangeCalls atomic.Int32
	refreshCalls  atomic.Int32
	exchangeDelay time.Duration
	exchangeErr   error
	refreshErr    error
	identity      providers.Identity
	identityErr   error
	nextAccess    string

	mu           sync.Mutex
	lastVerifier string
}

func (f *fakeStrategy) Platform() domain.Platform { return f.platform }
func (f *fakeStrategy) UsesPKCE() bool            { return f.pkce }
func (f *fakeStrategy) RequiredScopes() []string  { return []string{"read", "write"} }

func (f *fakeStrategy) AuthCodeURL(req providers.AuthRequest) string {
	return "https://provider.test/authorize?state=" + req.State
}

func (f *fakeStrategy) Exchange(_ context.Context, code, _ string, verifier string) (providers.TokenSet, error) {
	f.exchangeCalls.Add(1)
	f.mu.Lock()
	f.lastVerifier = verifier
	f.mu.Unlock()
	if f.exchangeDelay > 0 {
		time.Sleep(f.exchangeDelay)
	}
	if f.exchangeErr != nil {
		return providers.TokenSet{}, f.exchangeErr
	}
	return providers.TokenSet{
		AccessToken:  "access-" + code,
		RefreshToken: "refresh-" + code,
		Expiry:       time.Now().Add(time.Hour),
		Scopes:       []string{"read"},
	}, nil
}

func (f *fakeStrategy) Refresh(_ context.Context, refreshToken string) (providers.TokenSet, error) {
	f.refreshCalls.Add(1)
	if f.refreshErr != nil {
		return providers.TokenSet{}, f.refreshErr
	}
	access := f.nextAccess
	if access == "" {
		access = "refreshed-" + refreshToken
	}
	return providers.TokenSet{AccessToken: access, Expiry: time.Now().Add(time.Hour)}, nil
}

func (f *fakeStrategy) ResolveIdentity(context.Context, string) (providers.Identity, error) {
	if f.identityErr != nil {
		return providers.Identity{}, f.identityErr
	}
	return f.identity, nil
}

func (f *fakeStrategy) verifier() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastVerifier
}

type staticRegistry map[domain.Platform]providers.Strategy

func (r staticRegistry) Lookup(platform domain.Platform) (providers.Strategy, bool) {
	s, ok := r[platform]
	return s, ok
}

type harness struct {
	ctx       context.Context
	store     *sqlite.Store
	ephemeral *memory.Store
	cipher    *secrets.Cipher
	audit     *Auditor
	cache     *TokenCache
	tokens    *TokenService
	engine    *RefreshEngine
	flow      *OAuthFlow
	registry  staticRegistry
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(t *testing.T, strategies ...*fakeStrategy) *harness {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "services-test"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	cipher, err := secrets.NewCipher("services-test-key")
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	registry := staticRegistry{}
	for _, s := range strategies {
		registry[s.platform] = s
	}

	log := discardLogger()
	h := &harness{
		ctx:       context.Background(),
		store:     sqlite.NewStore(database),
		ephemeral: memory.NewStore(),
		cipher:    cipher,
		registry:  registry,
	}
	h.audit = NewAuditor(h.store, log)
	h.cache = NewTokenCache(h.ephemeral, cipher, log)
	h.tokens = NewTokenService(h.store, cipher, h.cache, nil, log)
	h.engine = NewRefreshEngine(h.tokens, h.ephemeral, registry, h.audit, log)
	h.flow = NewOAuthFlow(registry, h.ephemeral, h.tokens, h.audit, OAuthFlowConfig{
		CallbackBaseURL: testCallbackBase,
		AllowList: []string{
			testCallbackBase + "/oauth/linkedin/callback",
			testCallbackBase + "/oauth/google/callback",
			testCallbackBase + "/oauth/meta/callback",
		},
	}, log)
	return h
}

// seed stores a token version for org/platform through the public write path.
func (h *harness) seed(t *testing.T, orgID string, platform domain.Platform, set providers.TokenSet) domain.StoredToken {
	t.Helper()
	_, stored, err := h.tokens.StoreAcquired(h.ctx, StoreTokenInput{
		OrganizationID: orgID,
		Platform:       platform,
		Identity:       providers.Identity{ExternalID: "acct-1", DisplayName: "Account"},
		Tokens:         set,
	})
	if err != nil {
		t.Fatalf("seed token: %v", err)
	}
	return stored
}

func (h *harness) auditEvents(t *testing.T, orgID string) []domain.AuditEvent {
	t.Helper()
	records, err := h.store.ListAudit(h.ctx, orgID, 100)
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	events := make([]domain.AuditEvent, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		events = append(events, records[i].Event)
	}
	return events
}
