package internal

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/drivedesk/pkg/logger"
	"github.com/dmitrymomot/drivedesk/pkg/session"
)

// Default session configuration.
const (
	defaultSessionCookieName = "session_id"
	defaultSessionTTL        = 24 * time.Hour
	defaultTouchInterval     = time.Minute
)

// SessionManager handles session lifecycle and cookie management.
type SessionManager struct {
	store         session.Store
	logger        *slog.Logger
	cookieName    string
	domain        string
	path          string
	ttl           time.Duration
	touchInterval time.Duration
	sameSite      http.SameSite
	secure        bool
	httpOnly      bool
}

// SessionOption configures the SessionManager.
type SessionOption func(*SessionManager)

// NewSessionManager creates a new SessionManager with the given store and options.
func NewSessionManager(store session.Store, opts ...SessionOption) *SessionManager {
	sm := &SessionManager{
		store:         store,
		logger:        logger.NewNope(),
		cookieName:    defaultSessionCookieName,
		ttl:           defaultSessionTTL,
		touchInterval: defaultTouchInterval,
		path:          "/",
		httpOnly:      true,
		sameSite:      http.SameSiteLaxMode,
	}

	for _, opt := range opts {
		opt(sm)
	}

	return sm
}

// WithSessionCookieName sets the session cookie name.
func WithSessionCookieName(name string) SessionOption {
	return func(sm *SessionManager) {
		if name != "" {
			sm.cookieName = name
		}
	}
}

// WithSessionTTL sets how long a session lives after creation.
// The cookie Max-Age follows the same value.
func WithSessionTTL(ttl time.Duration) SessionOption {
	return func(sm *SessionManager) {
		if ttl > 0 {
			sm.ttl = ttl
		}
	}
}

// WithSessionTouchInterval sets how stale LastActiveAt may get before a
// request refreshes it in the store. Zero touches on every request.
func WithSessionTouchInterval(d time.Duration) SessionOption {
	return func(sm *SessionManager) {
		if d >= 0 {
			sm.touchInterval = d
		}
	}
}

// WithSessionDomain sets the session cookie domain.
func WithSessionDomain(domain string) SessionOption {
	return func(sm *SessionManager) {
		sm.domain = domain
	}
}

// WithSessionPath sets the session cookie path.
func WithSessionPath(path string) SessionOption {
	return func(sm *SessionManager) {
		if path != "" {
			sm.path = path
		}
	}
}

// WithSessionSecure sets the session cookie Secure flag.
func WithSessionSecure(secure bool) SessionOption {
	return func(sm *SessionManager) {
		sm.secure = secure
	}
}

// WithSessionHTTPOnly sets the session cookie HttpOnly flag.
func WithSessionHTTPOnly(httpOnly bool) SessionOption {
	return func(sm *SessionManager) {
		sm.httpOnly = httpOnly
	}
}

// WithSessionSameSite sets the session cookie SameSite attribute.
func WithSessionSameSite(sameSite http.SameSite) SessionOption {
	return func(sm *SessionManager) {
		sm.sameSite = sameSite
	}
}

// SetLogger sets the logger for session events. Called by App after initialization.
func (sm *SessionManager) SetLogger(l *slog.Logger) {
	if l != nil {
		sm.logger = l
	}
}

// LoadSession loads an existing session from the request cookie.
// Returns nil, nil if there is no cookie or the cookie points at a session
// the store no longer knows (missing or expired). Store failures are returned.
func (sm *SessionManager) LoadSession(ctx context.Context, r *http.Request) (*session.Session, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	sess, err := sm.store.Get(ctx, cookie.Value)
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrExpired), errors.Is(err, session.ErrInvalidToken):
		sm.logger.DebugContext(ctx, "stale session cookie", slog.Any("error", err))
		return nil, nil
	case err != nil:
		return nil, err
	}

	if now := time.Now(); now.Sub(sess.LastActiveAt) >= sm.touchInterval {
		if err := sm.store.Touch(ctx, sess.Token, now); err != nil {
			sm.logger.WarnContext(ctx, "failed to touch session",
				slog.String("session_id", sess.ID),
				slog.Any("error", err),
			)
		} else {
			sess.LastActiveAt = now
		}
	}

	return sess, nil
}

// CreateSession creates and persists a new anonymous session.
func (sm *SessionManager) CreateSession(ctx context.Context) (*session.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	sess := session.New(uuid.NewString(), token, time.Now().Add(sm.ttl))
	if err := sm.store.Create(ctx, sess); err != nil {
		return nil, err
	}

	sess.ClearNew()
	sess.ClearDirty()

	return sess, nil
}

// SaveSession writes the session cookie to the response.
func (sm *SessionManager) SaveSession(w http.ResponseWriter, sess *session.Session) {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	http.SetCookie(w, sm.cookie(sess.Token, maxAge))
}

// RotateToken issues a new cookie token for the session and moves it in the store.
// Called after authentication so a token planted before login is useless afterwards.
func (sm *SessionManager) RotateToken(ctx context.Context, sess *session.Session) error {
	oldToken := sess.Token
	newToken, err := generateToken()
	if err != nil {
		return fmt.Errorf("generate session token: %w", err)
	}
	sess.RotateToken(newToken)

	if err := sm.store.Update(ctx, sess); err != nil {
		sess.Token = oldToken
		sess.ClearPreviousToken()
		return err
	}
	sess.ClearDirty()

	return nil
}

// DeleteSession clears the session cookie.
func (sm *SessionManager) DeleteSession(w http.ResponseWriter) {
	http.SetCookie(w, sm.cookie("", -1))
}

// Store returns the underlying session store.
func (sm *SessionManager) Store() session.Store {
	return sm.store
}

// CookieName returns the name of the session cookie.
func (sm *SessionManager) CookieName() string {
	return sm.cookieName
}

func (sm *SessionManager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sm.cookieName,
		Value:    value,
		Path:     sm.path,
		Domain:   sm.domain,
		MaxAge:   maxAge,
		Secure:   sm.secure,
		HttpOnly: sm.httpOnly,
		SameSite: sm.sameSite,
	}
}

// generateToken creates a cryptographically secure random token.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
