package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/drivedesk"
	"github.com/dmitrymomot/drivedesk/pkg/oauth"
	"github.com/dmitrymomot/drivedesk/views"
)

const (
	stateCookie     = "oauth_state"
	defaultStateTTL = 10 * time.Minute
)

// AuthHandler runs the OAuth2 authorization-code flow against the provider.
type AuthHandler struct {
	provider   oauth.Provider
	stateTTL   time.Duration
	afterLogin string
}

// AuthOption configures AuthHandler.
type AuthOption func(*AuthHandler)

// WithStateTTL sets how long a login attempt may take.
func WithStateTTL(d time.Duration) AuthOption {
	return func(h *AuthHandler) {
		h.stateTTL = d
	}
}

// WithAfterLogin sets where a successful login lands.
func WithAfterLogin(path string) AuthOption {
	return func(h *AuthHandler) {
		h.afterLogin = path
	}
}

// NewAuth creates the auth handler.
func NewAuth(provider oauth.Provider, opts ...AuthOption) *AuthHandler {
	h := &AuthHandler{
		provider:   provider,
		stateTTL:   defaultStateTTL,
		afterLogin: BrowserPath,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes implements drivedesk.Handler.
func (h *AuthHandler) Routes(r drivedesk.Router) {
	r.Route("/auth", func(r drivedesk.Router) {
		r.GET("/login", h.login)
		r.GET("/callback", h.callback)
		r.GET("/logout", h.logout)
	})
}

// login renders the sign-in page. Every visit starts a new attempt with a
// fresh state.
func (h *AuthHandler) login(c drivedesk.Context) error {
	state := uuid.NewString()
	if err := c.SetCookieSigned(stateCookie, state, int(h.stateTTL.Seconds())); err != nil {
		return err
	}

	return c.Render(http.StatusOK, views.Login(views.LoginPage{
		Page:    page(c, "Sign in"),
		AuthURL: h.provider.AuthCodeURL(state),
	}))
}

// callback completes the flow: the state is checked, the code exchanged and
// the resulting token bound to a freshly rotated session.
func (h *AuthHandler) callback(c drivedesk.Context) error {
	want, err := c.CookieSigned(stateCookie)
	c.DeleteCookie(stateCookie)

	got := c.Query("state")
	if err != nil || got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		c.LogWarn("oauth state mismatch", slog.Any("cookie_error", err))
		return drivedesk.ErrBadRequest("Invalid OAuth state")
	}

	if reason := c.Query("error"); reason != "" {
		c.LogInfo("authorization declined", slog.String("reason", reason))
		return drivedesk.ErrBadRequest("Failed to retrieve access token")
	}

	token, err := h.provider.Exchange(c.Context(), c.Query("code"), "")
	if err != nil {
		return drivedesk.ErrBadRequest("Failed to retrieve access token", drivedesk.WithError(err))
	}

	// The profile only decorates the UI, so a failure does not block login.
	info, err := h.provider.FetchUserInfo(c.Context(), token)
	if err != nil {
		c.LogWarn("failed to fetch user profile", slog.Any("error", err))
		info = &oauth.UserInfo{}
	}

	userID := info.ID
	if userID == "" {
		userID = uuid.NewString()
	}

	if err := c.AuthenticateSession(userID); err != nil {
		return err
	}
	if err := c.SetCredentials(token); err != nil {
		return err
	}
	if info.Email != "" {
		if err := c.SetSessionValue(emailKey, info.Email); err != nil {
			return err
		}
	}
	if info.Name != "" {
		if err := c.SetSessionValue(nameKey, info.Name); err != nil {
			return err
		}
	}

	c.LogInfo("user signed in", slog.String("user_id", userID), slog.String("provider", h.provider.Name()))
	return c.Redirect(http.StatusSeeOther, h.afterLogin)
}

// logout forgets the session and its token.
func (h *AuthHandler) logout(c drivedesk.Context) error {
	if err := c.DestroySession(); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, LoginPath)
}
