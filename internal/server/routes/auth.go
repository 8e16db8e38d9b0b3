package routes

import (
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/github"

	"github.com/fr0stylo/tokengate/internal/app/domain"
	appservices "github.com/fr0stylo/tokengate/internal/app/services"
	"github.com/fr0stylo/tokengate/internal/observability"
)

const (
	authSessionName           = "tokengate-auth"
	authSessionActiveOrgIDKey = "activeOrgID"
	authSessionRoleKey        = "role"
	authSessionUserIDKey      = "userID"
	authUserContextKey        = "authUser"
	githubProvider            = "github"
	gothSessionName           = "_gothic_session"
)

// AuthConfig configures session and GitHub OAuth authentication.
type AuthConfig struct {
	SessionKey         string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
	SecureCookies      bool
}

// AuthUser is the authenticated operator stored in session and context.
type AuthUser struct {
	ID        int64
	Name      string
	NickName  string
	Email     string
	AvatarURL string
}

func init() {
	gob.Register(AuthUser{})
}

// ConfigureAuth initializes session store and GitHub OAuth provider.
func ConfigureAuth(config AuthConfig) {
	store := sessions.NewCookieStore([]byte(config.SessionKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int((7 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = store

	goth.UseProviders(
		github.New(
			config.GitHubClientID,
			config.GitHubClientSecret,
			config.GitHubCallbackURL,
			"read:user",
			"user:email",
		),
	)
}

// AuthRoutes registers operator authentication endpoints.
type AuthRoutes struct {
	operators      *appservices.OperatorService
	enableDevLogin bool
}

// NewAuthRoutes constructs auth routes.
func NewAuthRoutes(operators *appservices.OperatorService, enableDevLogin bool) *AuthRoutes {
	return &AuthRoutes{operators: operators, enableDevLogin: enableDevLogin}
}

// RegisterRoutes registers authentication routes on the server.
func (a *AuthRoutes) RegisterRoutes(s *echo.Echo) {
	s.GET("/login", a.handleLogin)
	s.GET("/logout", a.handleLogout)
	s.GET("/auth/:provider", a.handleAuthBegin)
	s.GET("/auth/:provider/callback", a.handleAuthCallback)
	s.GET("/auth/session", a.handleSession, RequireAuth)
	s.PUT("/auth/organization", a.handleSwitchOrganization, RequireAuth)
	if a.enableDevLogin {
		s.GET("/auth/dev/login", a.handleDevLogin)
		s.POST("/auth/dev/login", a.handleDevLogin)
	}
}

// RequireAuth ensures a request has an authenticated operator session.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := authUserFromSession(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
		}
		orgID, _ := GetActiveOrganizationID(c)
		ctx := observability.WithRequestIdentity(c.Request().Context(), user.ID, orgID)
		c.SetRequest(c.Request().WithContext(ctx))
		c.Set(authUserContextKey, user)
		return next(c)
	}
}

// RequireManager allows only owners and admins of the active organization.
func RequireManager(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := GetActiveOrganizationID(c); !ok {
			return writeError(c, appservices.ErrOrganizationMembershipRequired)
		}
		if err := appservices.RequireManager(GetActiveRole(c)); err != nil {
			return writeError(c, err)
		}
		return next(c)
	}
}

// RequireSystemOperator allows only allow-listed operators, whatever their organization role.
func RequireSystemOperator(operators appservices.SystemOperators) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, _ := GetAuthUser(c)
			if err := operators.Require(user.Email); err != nil {
				return writeError(c, err)
			}
			return next(c)
		}
	}
}

func (a *AuthRoutes) handleLogin(c echo.Context) error {
	if _, ok := authUserFromSession(c); ok {
		return c.Redirect(http.StatusFound, "/auth/session")
	}
	if a.enableDevLogin {
		return c.Redirect(http.StatusFound, "/auth/dev/login")
	}
	return c.Redirect(http.StatusFound, "/auth/"+githubProvider)
}

func (a *AuthRoutes) handleLogout(c echo.Context) error {
	session, err := gothic.Store.Get(c.Request(), authSessionName)
	if err != nil {
		if isInvalidSecureCookieError(err) {
			clearSessionCookie(c, authSessionName)
			clearSessionCookie(c, gothSessionName)
			return c.NoContent(http.StatusNoContent)
		}
		return err
	}
	delete(session.Values, authSessionActiveOrgIDKey)
	delete(session.Values, authSessionRoleKey)
	delete(session.Values, authSessionUserIDKey)
	session.Options.MaxAge = -1
	if err := session.Save(c.Request(), c.Response()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *AuthRoutes) handleAuthBegin(c echo.Context) error {
	provider := c.Param("provider")
	if provider != githubProvider {
		return c.NoContent(http.StatusNotFound)
	}
	request := addProviderParam(c.Request(), provider)
	gothic.BeginAuthHandler(c.Response(), request)
	return nil
}

func (a *AuthRoutes) handleAuthCallback(c echo.Context) error {
	provider := c.Param("provider")
	if provider != githubProvider {
		return c.NoContent(http.StatusNotFound)
	}
	request := addProviderParam(c.Request(), provider)
	user, err := gothic.CompleteUserAuth(c.Response(), request)
	if err != nil {
		if isInvalidSecureCookieError(err) {
			clearSessionCookie(c, authSessionName)
			clearSessionCookie(c, gothSessionName)
			return c.Redirect(http.StatusFound, "/login")
		}
		return err
	}

	operator, signInErr := a.operators.SignIn(request.Context(), appservices.OperatorLogin{
		ProviderUserID: user.UserID,
		Email:          user.Email,
		Nickname:       user.NickName,
		Name:           user.Name,
		AvatarURL:      user.AvatarURL,
	})
	return a.completeSignIn(c, operator, signInErr, "/auth/session")
}

func (a *AuthRoutes) handleDevLogin(c echo.Context) error {
	if !a.enableDevLogin {
		return c.NoContent(http.StatusNotFound)
	}

	email := strings.TrimSpace(c.FormValue("email"))
	if email == "" {
		email = "dev-user@example.local"
	}
	nickname := strings.TrimSpace(c.FormValue("nickname"))
	if nickname == "" {
		nickname = strings.Split(email, "@")[0]
	}
	providerID := strings.TrimSpace(c.FormValue("github_id"))
	if providerID == "" {
		providerID = "dev:" + nickname
	}
	org := strings.TrimSpace(c.FormValue("org"))
	if org == "" {
		org = "dev-org"
	}

	operator, signInErr := a.operators.SignIn(c.Request().Context(), appservices.OperatorLogin{
		ProviderUserID:          providerID,
		Email:                   email,
		Nickname:                nickname,
		Name:                    strings.TrimSpace(c.FormValue("name")),
		AvatarURL:               strings.TrimSpace(c.FormValue("avatar_url")),
		BootstrapOrganizationID: org,
	})

	next := strings.TrimSpace(c.FormValue("next"))
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = "/auth/session"
	}
	return a.completeSignIn(c, operator, signInErr, next)
}

func (a *AuthRoutes) completeSignIn(c echo.Context, operator appservices.Operator, signInErr error, next string) error {
	if operator.User.ID <= 0 {
		if signInErr == nil {
			signInErr = errors.New("sign in returned no user")
		}
		return signInErr
	}

	session, err := gothic.Store.Get(c.Request(), authSessionName)
	if err != nil {
		if isInvalidSecureCookieError(err) {
			clearSessionCookie(c, authSessionName)
			clearSessionCookie(c, gothSessionName)
			return c.Redirect(http.StatusFound, "/login")
		}
		return err
	}
	session.Values["user"] = AuthUser{
		ID:        operator.User.ID,
		Name:      firstNonEmpty(operator.User.Name, operator.User.Nickname),
		NickName:  operator.User.Nickname,
		Email:     operator.User.Email,
		AvatarURL: operator.User.AvatarURL,
	}
	session.Values[authSessionUserIDKey] = operator.User.ID
	if signInErr == nil {
		session.Values[authSessionActiveOrgIDKey] = operator.Membership.OrganizationID
		session.Values[authSessionRoleKey] = string(operator.Membership.Role)
	} else {
		delete(session.Values, authSessionActiveOrgIDKey)
		delete(session.Values, authSessionRoleKey)
	}
	if err := session.Save(c.Request(), c.Response()); err != nil {
		return err
	}
	if errors.Is(signInErr, appservices.ErrOrganizationMembershipRequired) {
		return writeError(c, signInErr)
	}
	if signInErr != nil {
		return signInErr
	}
	return c.Redirect(http.StatusFound, next)
}

func (a *AuthRoutes) handleSession(c echo.Context) error {
	user, _ := GetAuthUser(c)
	orgID, _ := GetActiveOrganizationID(c)
	return c.JSON(http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":       user.ID,
			"name":     user.Name,
			"nickname": user.NickName,
			"email":    user.Email,
		},
		"organizationId": orgID,
		"role":           GetActiveRole(c),
	})
}

func (a *AuthRoutes) handleSwitchOrganization(c echo.Context) error {
	var body struct {
		OrganizationID string `json:"organizationId"`
	}
	if err := c.Bind(&body); err != nil {
		return writeError(c, fmt.Errorf("%w: %v", appservices.ErrInvalidRequest, err))
	}
	userID, _ := GetAuthUserID(c)
	membership, err := a.operators.SwitchOrganization(c.Request().Context(), userID, strings.TrimSpace(body.OrganizationID))
	if err != nil {
		return writeError(c, err)
	}
	if err := setActiveMembership(c, membership); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"organizationId": membership.OrganizationID, "role": string(membership.Role)})
}

// GetAuthUserID returns authenticated local user id.
func GetAuthUserID(c echo.Context) (int64, bool) {
	if user, ok := GetAuthUser(c); ok && user.ID > 0 {
		return user.ID, true
	}
	session, ok := authSession(c)
	if !ok {
		return 0, false
	}
	switch v := session.Values[authSessionUserIDKey].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}

// GetAuthUser returns the authenticated user from request context.
func GetAuthUser(c echo.Context) (AuthUser, bool) {
	user, ok := c.Get(authUserContextKey).(AuthUser)
	return user, ok
}

// GetActiveOrganizationID returns the selected organization id from session.
func GetActiveOrganizationID(c echo.Context) (string, bool) {
	session, ok := authSession(c)
	if !ok {
		return "", false
	}
	orgID, ok := session.Values[authSessionActiveOrgIDKey].(string)
	if !ok || orgID == "" {
		return "", false
	}
	return orgID, true
}

// GetActiveRole returns the operator's role in the active organization.
func GetActiveRole(c echo.Context) domain.Role {
	session, ok := authSession(c)
	if !ok {
		return ""
	}
	role, _ := session.Values[authSessionRoleKey].(string)
	return domain.Role(role)
}

func setActiveMembership(c echo.Context, membership domain.Membership) error {
	session, err := gothic.Store.Get(c.Request(), authSessionName)
	if err != nil {
		return err
	}
	session.Values[authSessionActiveOrgIDKey] = membership.OrganizationID
	session.Values[authSessionRoleKey] = string(membership.Role)
	if err := session.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("save auth session: %w", err)
	}
	return nil
}

func authSession(c echo.Context) (*sessions.Session, bool) {
	session, err := gothic.Store.Get(c.Request(), authSessionName)
	if err != nil {
		if isInvalidSecureCookieError(err) {
			clearSessionCookie(c, authSessionName)
			clearSessionCookie(c, gothSessionName)
		}
		return nil, false
	}
	return session, true
}

func addProviderParam(request *http.Request, provider string) *http.Request {
	query := request.URL.Query()
	query.Set("provider", provider)
	request.URL.RawQuery = query.Encode()
	return request
}

func authUserFromSession(c echo.Context) (AuthUser, bool) {
	session, ok := authSession(c)
	if !ok {
		return AuthUser{}, false
	}
	user, ok := session.Values["user"].(AuthUser)
	return user, ok
}

func isInvalidSecureCookieError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "securecookie") && strings.Contains(msg, "not valid")
}

func clearSessionCookie(c echo.Context, name string) {
	http.SetCookie(c.Response(), &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.Request().TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
