package internal

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/drivedesk/pkg/cookie"
	"github.com/dmitrymomot/drivedesk/pkg/gdrive"
	"github.com/dmitrymomot/drivedesk/pkg/health"
	"github.com/dmitrymomot/drivedesk/pkg/logger"
)

// Default server timeouts.
const (
	defaultReadTimeout       = 2 * time.Minute // multipart uploads
	defaultWriteTimeout      = 5 * time.Minute // downloads stream through
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

// App orchestrates the application lifecycle.
// It manages HTTP routing, middleware, and graceful shutdown.
// App is immutable after creation; all configuration is done via New().
type App struct {
	router                  chi.Router
	errorHandler            ErrorHandler
	notFoundHandler         HandlerFunc
	methodNotAllowedHandler HandlerFunc
	healthConfig            *healthConfig
	logger                  *slog.Logger
	cookieManager           *cookie.Manager
	sessionManager          *SessionManager
	drive                   *driveConnector
	middlewares             []Middleware
	handlers                []Handler
	staticRoutes            []staticRoute
}

// staticRoute represents a static file handler mount point.
type staticRoute struct {
	handler http.Handler
	pattern string
}

// New creates a new application with the given options.
//
// Example:
//
//	app := drivedesk.New(
//	    drivedesk.WithMiddleware(middlewares.RequestID()),
//	    drivedesk.WithSession(session.NewMemoryStore()),
//	    drivedesk.WithDrive(provider),
//	    drivedesk.WithHandlers(
//	        handlers.NewAuth(provider),
//	        handlers.NewDrive(),
//	    ),
//	)
func New(opts ...Option) *App {
	a := &App{
		router:        chi.NewRouter(),
		logger:        logger.NewNope(),
		cookieManager: cookie.New(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.sessionManager != nil {
		a.sessionManager.SetLogger(a.logger)
	}
	if a.drive != nil {
		// Caller options come last so an explicit WithLogger wins.
		a.drive.opts = append([]gdrive.Option{gdrive.WithLogger(a.logger)}, a.drive.opts...)
	}

	a.setupRoutes()
	return a
}

// Router returns the underlying chi.Router.
// Tests drive the app through it with httptest.
func (a *App) Router() chi.Router {
	return a.router
}

// ServeHTTP makes App an http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Run starts the HTTP server and blocks until shutdown.
//
// Example:
//
//	err := app.Run(cfg.Address,
//	    drivedesk.Logger(log),
//	    drivedesk.ShutdownHook(redis.Shutdown(client)),
//	)
func (a *App) Run(addr string, opts ...RunOption) error {
	cfg := buildRunConfig(opts...)
	if addr != "" {
		cfg.address = addr
	}
	return serve(a.router, cfg)
}

// setupRoutes configures the router with middleware and handlers.
func (a *App) setupRoutes() {
	if a.notFoundHandler != nil {
		a.router.NotFound(a.wrapHandler(a.notFoundHandler))
	}
	if a.methodNotAllowedHandler != nil {
		a.router.MethodNotAllowed(a.wrapHandler(a.methodNotAllowedHandler))
	}

	for _, mw := range a.middlewares {
		a.router.Use(a.adaptMiddleware(mw))
	}

	for _, sr := range a.staticRoutes {
		a.router.Mount(sr.pattern, sr.handler)
	}

	if a.healthConfig != nil {
		a.router.Get(a.healthConfig.livenessPath, health.LivenessHandler())
		a.router.Get(a.healthConfig.readinessPath, health.ReadinessHandler(
			a.healthConfig.checks,
			health.WithTimeout(a.healthConfig.timeout),
			health.WithLogger(a.logger),
		))
	}

	r := &routerAdapter{mux: a.router, app: a}
	for _, h := range a.handlers {
		h.Routes(r)
	}
}

// wrapHandler converts a HandlerFunc to http.HandlerFunc using the app's error handler.
func (a *App) wrapHandler(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := newContext(w, r, a)
		if err := h(c); err != nil {
			a.handleError(c, err)
		}
	}
}

// handleError routes a handler error to the error handler.
// Errors raised after the response started can only be logged.
func (a *App) handleError(c Context, err error) {
	if c.Written() {
		c.LogWarn("error after response was written", slog.Any("error", err))
		return
	}
	if a.errorHandler != nil {
		if herr := a.errorHandler(c, err); herr != nil && !c.Written() {
			c.LogError("error handler failed", slog.Any("error", herr), slog.Any("cause", err))
			http.Error(c.Response(), http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}
	http.Error(c.Response(), http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// healthConfig holds health check endpoint configuration.
type healthConfig struct {
	checks        health.Checks
	livenessPath  string
	readinessPath string
	timeout       time.Duration
}

// Default health check settings.
const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
	defaultHealthTimeout = 5 * time.Second
)

// HealthOption configures health check endpoints.
type HealthOption func(*healthConfig)

// WithLivenessPath sets a custom liveness endpoint path.
// Defaults to "/health/live".
func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

// WithReadinessPath sets a custom readiness endpoint path.
// Defaults to "/health/ready".
func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

// WithHealthTimeout bounds a whole readiness probe.
// Defaults to 5 seconds.
func WithHealthTimeout(d time.Duration) HealthOption {
	return func(c *healthConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithReadinessCheck adds a named readiness check.
// Checks run in parallel during readiness probe.
//
// Example:
//
//	drivedesk.WithReadinessCheck("redis", redis.Healthcheck(client))
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return func(c *healthConfig) {
		c.checks[name] = fn
	}
}
