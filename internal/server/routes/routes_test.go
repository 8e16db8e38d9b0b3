package routes

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/markbates/goth/gothic"

	"github.com/fr0stylo/tokengate/internal/adapters/memory"
	"github.com/fr0stylo/tokengate/internal/adapters/sqlite"
	"github.com/fr0stylo/tokengate/internal/app/domain"
	appservices "github.com/fr0stylo/tokengate/internal/app/services"
	"github.com/fr0stylo/tokengate/internal/db"
	"github.com/fr0stylo/tokengate/internal/jobs"
	"github.com/fr0stylo/tokengate/internal/providers"
	"github.com/fr0stylo/tokengate/internal/secrets"
)

const testBaseURL = "https://tokengate.test"

type routeStrategy struct {
	platform domain.Platform
}

func (s routeStrategy) Platform() domain.Platform { return s.platform }
func (s routeStrategy) UsesPKCE() bool            { return false }
func (s routeStrategy) RequiredScopes() []string  { return []string{"w_member_social"} }

func (s routeStrategy) AuthCodeURL(req providers.AuthRequest) string {
	return "https://provider.test/authorize?" + url.Values{"state": {req.State}}.Encode()
}

func (s routeStrategy) Exchange(_ context.Context, code, _, _ string) (providers.TokenSet, error) {
	return providers.TokenSet{AccessToken: "access-" + code, RefreshToken: "refresh-" + code, Expiry: time.Now().Add(time.Hour), Scopes: []string{"w_member_social"}}, nil
}

func (s routeStrategy) Refresh(context.Context, string) (providers.TokenSet, error) {
	return providers.TokenSet{}, providers.ErrRefreshNotSupported
}

func (s routeStrategy) ResolveIdentity(context.Context, string) (providers.Identity, error) {
	return providers.Identity{ExternalID: "urn:li:person:1", DisplayName: "Ada", Kind: "profile"}, nil
}

type routeEnv struct {
	e         *echo.Echo
	store     *sqlite.Store
	tokens    *appservices.TokenService
	operators *appservices.OperatorService
}

func initAuthStoreForTests() {
	store := sessions.NewCookieStore([]byte("test-session-secret-32-bytes-long"))
	store.Options = &sessions.Options{Path: "/", MaxAge: 3600, HttpOnly: true, SameSite: http.SameSiteLaxMode}
	gothic.Store = store
}

func newRouteEnv(t *testing.T) *routeEnv {
	t.Helper()
	initAuthStoreForTests()

	database, err := db.New(filepath.Join(t.TempDir(), "routes-test"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	cipher, err := secrets.NewCipher("routes-test-key")
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := sqlite.NewStore(database)
	ephemeral := memory.NewStore()
	queue := jobs.New(ephemeral, log, jobs.Options{Workers: 1, QueueSize: 16})
	t.Cleanup(queue.Stop)

	registry := providers.NewRegistry(nil, nil)
	registry.Register(routeStrategy{platform: domain.PlatformLinkedIn})

	audit := appservices.NewAuditor(store, log)
	tokens := appservices.NewTokenService(store, cipher, appservices.NewTokenCache(ephemeral, cipher, log), nil, log)
	appservices.NewRefreshEngine(tokens, ephemeral, registry, audit, log)
	flow := appservices.NewOAuthFlow(registry, ephemeral, tokens, audit, appservices.OAuthFlowConfig{
		CallbackBaseURL: testBaseURL,
		AllowList:       []string{testBaseURL + "/oauth/linkedin/callback"},
	}, log)
	gate := appservices.NewWebhookGate(store, queue, map[domain.Platform]appservices.WebhookSecrets{
		domain.PlatformMeta: {Secret: "meta-secret", VerifyToken: "vt"},
	}, log)
	operators := appservices.NewOperatorService(store)

	e := echo.New()
	NewAuthRoutes(operators, true).RegisterRoutes(e)
	NewOAuthRoutes(flow, NewStateCookies("routes-test", flow.StateTTL(), false)).RegisterRoutes(e)
	NewWebhookRoutes(gate).RegisterRoutes(e)
	NewTokenRoutes(tokens).RegisterRoutes(e)
	NewPublishRoutes(appservices.NewAdmissionGate(store, queue, log), appservices.NewPolicyService(store, log),
		appservices.NewSystemOperators([]string{systemOperatorEmail})).RegisterRoutes(e)
	NewHealthRoutes(map[string]Pinger{"db": database}).RegisterRoutes(e)

	return &routeEnv{e: e, store: store, tokens: tokens, operators: operators}
}

const systemOperatorEmail = "ops@example.com"

// sessionCookies signs in an operator with role in orgID and returns the session cookies.
func (env *routeEnv) sessionCookies(t *testing.T, orgID string, role domain.Role) []*http.Cookie {
	t.Helper()
	return env.sessionCookiesAs(t, "u@example.com", orgID, role)
}

func (env *routeEnv) sessionCookiesAs(t *testing.T, email, orgID string, role domain.Role) []*http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	session, err := gothic.Store.Get(req, authSessionName)
	if err != nil {
		t.Fatalf("session get: %v", err)
	}
	session.Values["user"] = AuthUser{ID: 10, Email: email, NickName: "tester"}
	session.Values[authSessionUserIDKey] = int64(10)
	session.Values[authSessionActiveOrgIDKey] = orgID
	session.Values[authSessionRoleKey] = string(role)
	if err := session.Save(req, rec); err != nil {
		t.Fatalf("session save: %v", err)
	}
	return rec.Result().Cookies()
}

func (env *routeEnv) do(method, target, body string, header http.Header, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if body != "" && req.Header.Get(echo.HeaderContentType) == "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, cookie := range cookies {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	env := newRouteEnv(t)
	for _, target := range []string{"/oauth/linkedin/start", "/tokens/linkedin/status"} {
		rec := env.do(http.MethodGet, target, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", target, rec.Code)
		}
	}
}

func TestHealthz(t *testing.T) {
	env := newRouteEnv(t)
	if rec := env.do(http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/readyz", "", nil); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"db":"ok"`) {
		t.Fatalf("expected ready db, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestDevLoginBootstrapsOrganization(t *testing.T) {
	env := newRouteEnv(t)
	form := url.Values{"email": {"ada@example.local"}, "org": {"org-ada"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/dev/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect after dev login, got %d %s", rec.Code, rec.Body.String())
	}

	session := env.do(http.MethodGet, "/auth/session", "", nil, rec.Result().Cookies()...)
	if session.Code != http.StatusOK {
		t.Fatalf("expected session, got %d", session.Code)
	}
	if !strings.Contains(session.Body.String(), `"organizationId":"org-ada"`) || !strings.Contains(session.Body.String(), `"role":"owner"`) {
		t.Fatalf("unexpected session body %s", session.Body.String())
	}
}
