package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"

	"github.com/dmitrymomot/drivedesk/pkg/cookie"
	"github.com/dmitrymomot/drivedesk/pkg/gdrive"
	"github.com/dmitrymomot/drivedesk/pkg/session"
)

// Component is the interface for renderable templates.
// This is compatible with templ.Component.
type Component interface {
	Render(ctx context.Context, w io.Writer) error
}

// Context provides request/response access and helper methods.
// It also implements context.Context by delegating to the underlying request context.
type Context interface {
	context.Context

	// Request returns the underlying *http.Request.
	Request() *http.Request

	// Response returns the underlying http.ResponseWriter.
	Response() http.ResponseWriter

	// Context returns the request's context.Context.
	Context() context.Context

	// Param returns the URL parameter value by name.
	Param(name string) string

	// Query returns the query parameter value by name.
	Query(name string) string

	// QueryDefault returns the query parameter value or a default.
	QueryDefault(name, defaultValue string) string

	// Header returns the request header value by name.
	Header(name string) string

	// SetHeader sets a response header.
	SetHeader(name, value string)

	// JSON writes a JSON response with the given status code.
	JSON(code int, v any) error

	// String writes a plain text response with the given status code.
	String(code int, s string) error

	// NoContent writes a response with no body.
	NoContent(code int) error

	// Redirect redirects to the given URL with the given status code.
	Redirect(code int, url string) error

	// Render renders a component with the given status code.
	// The component is rendered into memory first, so a failing template
	// still reaches the error handler.
	Render(code int, component Component) error

	// Stream copies r to the response with status 200.
	// A non-empty filename is sent as an attachment disposition.
	Stream(contentType, filename string, r io.Reader) error

	// Error creates an HTTPError without writing a response.
	Error(code int, message string, opts ...HTTPErrorOption) *HTTPError

	// Written returns true if a response has already been written.
	Written() bool

	// Logger returns the logger for advanced usage.
	Logger() *slog.Logger

	LogDebug(msg string, attrs ...any)
	LogInfo(msg string, attrs ...any)
	LogWarn(msg string, attrs ...any)
	LogError(msg string, attrs ...any)

	// Set stores a value in the request context.
	Set(key any, value any)

	// Get retrieves a value from the request context.
	Get(key any) any

	// Cookie returns a plain cookie value.
	Cookie(name string) (string, error)

	// SetCookie sets a plain cookie.
	SetCookie(name, value string, maxAge int)

	// DeleteCookie removes a cookie.
	DeleteCookie(name string)

	// CookieSigned returns a signed cookie value.
	// Returns cookie.ErrNoSecret if no secret is configured.
	CookieSigned(name string) (string, error)

	// SetCookieSigned sets a signed cookie.
	// Returns cookie.ErrNoSecret if no secret is configured.
	SetCookieSigned(name, value string, maxAge int) error

	// Flash reads and deletes a flash message.
	Flash(key string, dest any) error

	// SetFlash sets a flash message.
	SetFlash(key string, value any) error

	// Session returns the current session, loading it lazily.
	// Returns nil, nil when the request carries no usable session cookie.
	// Returns session.ErrNotConfigured if WithSession was not called.
	Session() (*session.Session, error)

	// InitSession creates a new session for this request and sets its cookie.
	InitSession() error

	// AuthenticateSession associates a user with the session and rotates the token.
	// Creates a new session if one doesn't exist.
	AuthenticateSession(userID string) error

	// UserID returns the authenticated user's ID, or an empty string.
	UserID() string

	// IsAuthenticated returns true if a user is associated with the session.
	IsAuthenticated() bool

	// SessionValue retrieves a value from the session.
	// Returns session.ErrNotFound if no session exists.
	SessionValue(key string) (any, error)

	// SetSessionValue stores a value in the session.
	// Returns session.ErrNotFound if no session exists.
	SetSessionValue(key string, val any) error

	// DestroySession removes the session from the store and clears the cookie.
	DestroySession() error

	// Credentials returns the provider token bound to the session.
	// Returns session.ErrNoCredentials if there is none.
	Credentials() (*oauth2.Token, error)

	// SetCredentials binds a provider token to the session, creating the
	// session if needed.
	SetCredentials(tok *oauth2.Token) error

	// ClearCredentials drops the token and the user from the session.
	ClearCredentials() error

	// Drive returns a provider client acting with the session's credentials.
	// The client is created once per request. Tokens refreshed while it is
	// used are written back to the session.
	// Returns gdrive.ErrNotConfigured if WithDrive was not called.
	Drive() (*gdrive.Client, error)
}

// requestContext implements the Context interface.
type requestContext struct {
	response       http.ResponseWriter
	request        *http.Request
	responseWriter *ResponseWriter
	logger         *slog.Logger
	cookieManager  *cookie.Manager

	sessionManager *SessionManager
	session        *session.Session

	connector *driveConnector
	drive     *gdrive.Client
	refreshMu sync.Mutex

	sessionLoaded         bool
	sessionHookRegistered bool
}

// newContext creates a new context with the response wrapper.
func newContext(w http.ResponseWriter, r *http.Request, app *App) *requestContext {
	rw := NewResponseWriter(w)

	return &requestContext{
		request:        r,
		response:       rw,
		responseWriter: rw,
		logger:         app.logger,
		cookieManager:  app.cookieManager,
		sessionManager: app.sessionManager,
		connector:      app.drive,
	}
}

func (c *requestContext) Request() *http.Request {
	return c.request
}

func (c *requestContext) Response() http.ResponseWriter {
	return c.response
}

func (c *requestContext) Context() context.Context {
	return c.request.Context()
}

func (c *requestContext) Param(name string) string {
	return chi.URLParam(c.request, name)
}

func (c *requestContext) Query(name string) string {
	return c.request.URL.Query().Get(name)
}

func (c *requestContext) QueryDefault(name, defaultValue string) string {
	v := c.request.URL.Query().Get(name)
	if v == "" {
		return defaultValue
	}
	return v
}

func (c *requestContext) Deadline() (time.Time, bool) {
	return c.request.Context().Deadline()
}

func (c *requestContext) Done() <-chan struct{} {
	return c.request.Context().Done()
}

func (c *requestContext) Err() error {
	return c.request.Context().Err()
}

func (c *requestContext) Value(key any) any {
	return c.request.Context().Value(key)
}

func (c *requestContext) Header(name string) string {
	return c.request.Header.Get(name)
}

func (c *requestContext) SetHeader(name, value string) {
	c.response.Header().Set(name, value)
}

func (c *requestContext) JSON(code int, v any) error {
	c.response.Header().Set("Content-Type", "application/json; charset=utf-8")
	c.response.WriteHeader(code)
	return json.NewEncoder(c.response).Encode(v)
}

func (c *requestContext) String(code int, s string) error {
	c.response.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.response.WriteHeader(code)
	_, err := c.response.Write([]byte(s))
	return err
}

func (c *requestContext) NoContent(code int) error {
	c.response.WriteHeader(code)
	return nil
}

func (c *requestContext) Redirect(code int, url string) error {
	http.Redirect(c.response, c.request, url, code)
	return nil
}

func (c *requestContext) Render(code int, component Component) error {
	var buf bytes.Buffer
	if err := component.Render(c.request.Context(), &buf); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	c.response.Header().Set("Content-Type", "text/html; charset=utf-8")
	c.response.WriteHeader(code)
	_, err := buf.WriteTo(c.response)
	return err
}

func (c *requestContext) Stream(contentType, filename string, r io.Reader) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := c.response.Header()
	h.Set("Content-Type", contentType)
	h.Set("X-Content-Type-Options", "nosniff")
	if filename != "" {
		h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	}
	c.response.WriteHeader(http.StatusOK)

	if _, err := io.Copy(c.response, r); err != nil {
		// Headers are gone at this point; the error handler will skip it.
		c.LogWarn("stream interrupted", slog.String("filename", filename), slog.Any("error", err))
		return err
	}
	return nil
}

func (c *requestContext) Error(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(code, message, opts...)
}

func (c *requestContext) Written() bool {
	return c.responseWriter.Written()
}

func (c *requestContext) Logger() *slog.Logger {
	return c.logger
}

func (c *requestContext) LogDebug(msg string, attrs ...any) {
	c.logger.DebugContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogInfo(msg string, attrs ...any) {
	c.logger.InfoContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogWarn(msg string, attrs ...any) {
	c.logger.WarnContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogError(msg string, attrs ...any) {
	c.logger.ErrorContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) Set(key, value any) {
	ctx := context.WithValue(c.request.Context(), key, value)
	c.request = c.request.WithContext(ctx)
}

func (c *requestContext) Get(key any) any {
	return c.request.Context().Value(key)
}

func (c *requestContext) Cookie(name string) (string, error) {
	return c.cookieManager.Get(c.request, name)
}

func (c *requestContext) SetCookie(name, value string, maxAge int) {
	c.cookieManager.Set(c.response, name, value, maxAge)
}

func (c *requestContext) DeleteCookie(name string) {
	c.cookieManager.Delete(c.response, name)
}

func (c *requestContext) CookieSigned(name string) (string, error) {
	return c.cookieManager.GetSigned(c.request, name)
}

func (c *requestContext) SetCookieSigned(name, value string, maxAge int) error {
	return c.cookieManager.SetSigned(c.response, name, value, maxAge)
}

func (c *requestContext) Flash(key string, dest any) error {
	return c.cookieManager.Flash(c.response, c.request, key, dest)
}

func (c *requestContext) SetFlash(key string, value any) error {
	return c.cookieManager.SetFlash(c.response, key, value)
}

// registerSessionHook ensures the session flush hook is registered once.
// It runs before the response is written to persist any session changes.
func (c *requestContext) registerSessionHook() {
	if c.sessionHookRegistered || c.sessionManager == nil {
		return
	}
	c.sessionHookRegistered = true
	c.responseWriter.OnBeforeWrite(func() {
		c.refreshMu.Lock()
		defer c.refreshMu.Unlock()

		if c.session == nil || !c.session.IsDirty() {
			return
		}
		// Best-effort: a failed save must not interrupt the response.
		err := c.sessionManager.Store().Update(c.Context(), c.session)
		switch {
		case errors.Is(err, session.ErrNotFound):
			c.logger.InfoContext(c.Context(), "session was deleted concurrently, changes dropped")
			return
		case err != nil:
			c.logger.ErrorContext(c.Context(), "failed to save session", slog.Any("error", err))
			return
		}
		c.session.ClearDirty()
	})
}

func (c *requestContext) Session() (*session.Session, error) {
	if c.sessionManager == nil {
		return nil, session.ErrNotConfigured
	}

	c.registerSessionHook()

	if c.sessionLoaded {
		return c.session, nil
	}

	sess, err := c.sessionManager.LoadSession(c.Context(), c.request)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		if _, cerr := c.request.Cookie(c.sessionManager.CookieName()); cerr == nil {
			c.sessionManager.DeleteSession(c.response)
		}
	}

	c.session = sess
	c.sessionLoaded = true
	return c.session, nil
}

func (c *requestContext) InitSession() error {
	if c.sessionManager == nil {
		return session.ErrNotConfigured
	}

	c.registerSessionHook()

	sess, err := c.sessionManager.CreateSession(c.Context())
	if err != nil {
		return err
	}

	c.session = sess
	c.sessionLoaded = true
	c.sessionManager.SaveSession(c.response, sess)
	return nil
}

func (c *requestContext) AuthenticateSession(userID string) error {
	if c.sessionManager == nil {
		return session.ErrNotConfigured
	}

	sess, err := c.Session()
	if err != nil {
		c.logger.WarnContext(c.Context(), "failed to load session", slog.Any("error", err))
	}
	if sess == nil {
		if err := c.InitSession(); err != nil {
			return err
		}
		sess = c.session
	}

	sess.UserID = &userID
	sess.MarkDirty()

	// Rotate so a cookie planted before login cannot ride the new identity.
	if err := c.sessionManager.RotateToken(c.Context(), sess); err != nil {
		return err
	}

	c.sessionManager.SaveSession(c.response, sess)
	return nil
}

func (c *requestContext) UserID() string {
	sess, err := c.Session()
	if err != nil || sess == nil || sess.UserID == nil {
		return ""
	}
	return *sess.UserID
}

func (c *requestContext) IsAuthenticated() bool {
	return c.UserID() != ""
}

func (c *requestContext) SessionValue(key string) (any, error) {
	sess, err := c.Session()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, session.ErrNotFound
	}

	val, _ := sess.GetValue(key)
	return val, nil
}

func (c *requestContext) SetSessionValue(key string, val any) error {
	sess, err := c.Session()
	if err != nil {
		return err
	}
	if sess == nil {
		return session.ErrNotFound
	}

	sess.SetValue(key, val)
	return nil
}

func (c *requestContext) DestroySession() error {
	if c.sessionManager == nil {
		return session.ErrNotConfigured
	}

	sess, err := c.Session()
	if err != nil {
		c.logger.WarnContext(c.Context(), "failed to load session", slog.Any("error", err))
	}
	if sess != nil {
		if err := c.sessionManager.Store().Delete(c.Context(), sess.Token); err != nil {
			return err
		}
	}

	c.sessionManager.DeleteSession(c.response)

	// Loaded as nil so the flush hook and later calls see no session.
	c.session = nil
	c.sessionLoaded = true
	c.drive = nil

	return nil
}

func (c *requestContext) Credentials() (*oauth2.Token, error) {
	sess, err := c.Session()
	if err != nil {
		return nil, err
	}
	if sess == nil || !sess.HasCredentials() {
		return nil, session.ErrNoCredentials
	}
	return sess.Credentials, nil
}

func (c *requestContext) SetCredentials(tok *oauth2.Token) error {
	sess, err := c.Session()
	if err != nil {
		return err
	}
	if sess == nil {
		if err := c.InitSession(); err != nil {
			return err
		}
		sess = c.session
	}

	c.refreshMu.Lock()
	sess.SetCredentials(tok)
	c.refreshMu.Unlock()

	c.drive = nil
	return nil
}

func (c *requestContext) ClearCredentials() error {
	sess, err := c.Session()
	if err != nil {
		return err
	}
	if sess != nil {
		sess.ClearCredentials()
	}
	c.drive = nil
	return nil
}

func (c *requestContext) Drive() (*gdrive.Client, error) {
	if c.drive != nil {
		return c.drive, nil
	}
	if c.connector == nil {
		return nil, gdrive.ErrNotConfigured
	}

	tok, err := c.Credentials()
	if err != nil {
		return nil, err
	}

	client, err := c.connector.connect(c.Context(), tok, c.storeRefreshedToken)
	if err != nil {
		return nil, err
	}
	c.drive = client
	return client, nil
}

// storeRefreshedToken receives tokens minted by the token source.
// Uploads refresh from several goroutines, hence the lock.
func (c *requestContext) storeRefreshedToken(tok *oauth2.Token) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if c.session == nil {
		return
	}
	c.session.SetCredentials(tok)
	c.LogDebug("provider token refreshed", slog.Time("expiry", tok.Expiry))

	// The flush hook already ran once the response started.
	if c.responseWriter.Written() {
		if err := c.sessionManager.Store().Update(c.Context(), c.session); err != nil {
			c.LogError("failed to save refreshed token", slog.Any("error", err))
			return
		}
		c.session.ClearDirty()
	}
}

