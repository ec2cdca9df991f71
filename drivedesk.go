package drivedesk

import (
	"context"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dmitrymomot/drivedesk/internal"
	"github.com/dmitrymomot/drivedesk/pkg/cookie"
	"github.com/dmitrymomot/drivedesk/pkg/gdrive"
	"github.com/dmitrymomot/drivedesk/pkg/health"
	"github.com/dmitrymomot/drivedesk/pkg/oauth"
	"github.com/dmitrymomot/drivedesk/pkg/session"
)

// Type aliases - public API
type (
	// App orchestrates the application lifecycle.
	App = internal.App

	// Router is the interface handlers use to declare routes.
	Router = internal.Router

	// Context provides request/response access and helper methods.
	Context = internal.Context

	// Handler declares routes on a router.
	Handler = internal.Handler

	// HandlerFunc is the signature for route handlers.
	HandlerFunc = internal.HandlerFunc

	// Middleware wraps a HandlerFunc to add cross-cutting concerns.
	Middleware = internal.Middleware

	// ErrorHandler handles errors returned from handlers.
	ErrorHandler = internal.ErrorHandler

	// Option configures the application.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// Component is the interface for renderable templates.
	Component = internal.Component

	// HealthOption configures health check endpoints.
	HealthOption = internal.HealthOption

	// SessionOption configures the session manager.
	SessionOption = internal.SessionOption

	// Session represents a browser session.
	Session = session.Session

	// SessionStore defines the interface for session persistence.
	SessionStore = session.Store

	// ResponseWriter wraps http.ResponseWriter with write hooks.
	ResponseWriter = internal.ResponseWriter

	// HTTPError represents an HTTP error with all data needed for rendering.
	HTTPError = internal.HTTPError

	// HTTPErrorOption configures an HTTPError.
	HTTPErrorOption = internal.HTTPErrorOption
)

// New creates a new application with the given options.
// The App is immutable after creation.
//
// Example:
//
//	app := drivedesk.New(
//	    drivedesk.WithLogger(log),
//	    drivedesk.WithSession(session.NewMemoryStore()),
//	    drivedesk.WithDrive(google),
//	    drivedesk.WithHandlers(handlers.NewAuth(google), handlers.NewDrive()),
//	)
//
//	err := app.Run(":8000", drivedesk.Logger(log))
func New(opts ...Option) *App {
	return internal.New(opts...)
}

// App options

// WithMiddleware adds global middleware to the application.
// Middleware is applied in the order provided.
func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

// WithHandlers registers handlers that declare routes.
func WithHandlers(h ...Handler) Option {
	return internal.WithHandlers(h...)
}

// WithStaticFiles mounts a static file handler at the given pattern.
// Directory listings are disabled.
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return internal.WithStaticFiles(pattern, fsys, subDir)
}

// WithErrorHandler sets the handler for errors returned by handlers.
func WithErrorHandler(h ErrorHandler) Option {
	return internal.WithErrorHandler(h)
}

// WithNotFoundHandler sets a custom 404 handler.
func WithNotFoundHandler(h HandlerFunc) Option {
	return internal.WithNotFoundHandler(h)
}

// WithMethodNotAllowedHandler sets a custom 405 handler.
func WithMethodNotAllowedHandler(h HandlerFunc) Option {
	return internal.WithMethodNotAllowedHandler(h)
}

// WithHealthChecks enables /health/live and /health/ready.
//
// Example:
//
//	drivedesk.WithHealthChecks(
//	    drivedesk.WithReadinessCheck("redis", redis.Healthcheck(client)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return internal.WithHealthChecks(opts...)
}

// WithLogger sets the application logger.
func WithLogger(l *slog.Logger) Option {
	return internal.WithLogger(l)
}

// WithCookieOptions configures the cookie manager.
func WithCookieOptions(opts ...cookie.Option) Option {
	return internal.WithCookieOptions(opts...)
}

// WithSession enables server-side sessions backed by store.
func WithSession(store SessionStore, opts ...SessionOption) Option {
	return internal.WithSession(store, opts...)
}

// WithDrive enables c.Drive() with clients authorized through provider.
func WithDrive(provider oauth.Provider, opts ...gdrive.Option) Option {
	return internal.WithDrive(provider, opts...)
}

// Health options

// WithLivenessPath sets a custom liveness endpoint path.
func WithLivenessPath(path string) HealthOption {
	return internal.WithLivenessPath(path)
}

// WithReadinessPath sets a custom readiness endpoint path.
func WithReadinessPath(path string) HealthOption {
	return internal.WithReadinessPath(path)
}

// WithHealthTimeout bounds a whole readiness probe.
func WithHealthTimeout(d time.Duration) HealthOption {
	return internal.WithHealthTimeout(d)
}

// WithReadinessCheck adds a named readiness check.
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return internal.WithReadinessCheck(name, fn)
}

// Session options

func WithSessionCookieName(name string) SessionOption {
	return internal.WithSessionCookieName(name)
}

func WithSessionTTL(ttl time.Duration) SessionOption {
	return internal.WithSessionTTL(ttl)
}

func WithSessionTouchInterval(d time.Duration) SessionOption {
	return internal.WithSessionTouchInterval(d)
}

func WithSessionDomain(domain string) SessionOption {
	return internal.WithSessionDomain(domain)
}

func WithSessionPath(path string) SessionOption {
	return internal.WithSessionPath(path)
}

func WithSessionSecure(secure bool) SessionOption {
	return internal.WithSessionSecure(secure)
}

func WithSessionHTTPOnly(httpOnly bool) SessionOption {
	return internal.WithSessionHTTPOnly(httpOnly)
}

func WithSessionSameSite(sameSite http.SameSite) SessionOption {
	return internal.WithSessionSameSite(sameSite)
}

// Run options

// Address sets the HTTP server address used when Run gets an empty one.
func Address(addr string) RunOption {
	return internal.Address(addr)
}

// Logger sets the runtime logger.
func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

// ShutdownTimeout sets the timeout for graceful shutdown.
func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

// ShutdownHook registers a cleanup function to run during shutdown.
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

// WithContext sets a custom base context for signal handling.
func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}

// OnReady registers a callback that receives the bound listener address.
func OnReady(fn func(net.Addr)) RunOption {
	return internal.OnReady(fn)
}

// Errors

// AsHTTPError extracts the HTTPError from an error chain.
func AsHTTPError(err error) *HTTPError {
	return internal.AsHTTPError(err)
}

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrBadRequest(message, opts...)
}

func WithTitle(title string) HTTPErrorOption {
	return internal.WithTitle(title)
}

func WithError(err error) HTTPErrorOption {
	return internal.WithError(err)
}

// Helpers

// QueryDefault retrieves a typed query parameter with a default value.
func QueryDefault[T internal.Scalar](c Context, name string, defaultValue T) T {
	return internal.QueryDefault(c, name, defaultValue)
}

// Query returns a typed query parameter, or the zero value if it cannot be parsed.
func Query[T internal.Scalar](c Context, name string) T {
	return internal.Query[T](c, name)
}

// Param returns a typed URL parameter, or the zero value if it cannot be parsed.
func Param[T internal.Scalar](c Context, name string) T {
	return internal.Param[T](c, name)
}
