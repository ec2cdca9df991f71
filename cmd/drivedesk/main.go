package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/dmitrymomot/drivedesk"
	"github.com/dmitrymomot/drivedesk/handlers"
	"github.com/dmitrymomot/drivedesk/middlewares"
	"github.com/dmitrymomot/drivedesk/pkg/config"
	"github.com/dmitrymomot/drivedesk/pkg/cookie"
	"github.com/dmitrymomot/drivedesk/pkg/gdrive"
	"github.com/dmitrymomot/drivedesk/pkg/logger"
	"github.com/dmitrymomot/drivedesk/pkg/oauth"
	"github.com/dmitrymomot/drivedesk/pkg/redis"
	"github.com/dmitrymomot/drivedesk/pkg/session"
	"github.com/dmitrymomot/drivedesk/views"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(2)
	}

	log, flush := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		SentryDSN:   cfg.SentryDSN,
		Environment: cfg.Environment,
	}, middlewares.RequestIDExtractor())

	if err := run(cfg, log, flush); err != nil {
		log.Error("application error", slog.Any("error", err))
		_ = flush(context.Background())
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger, flush func(context.Context) error) error {
	ctx := context.Background()

	google, err := oauth.NewGoogleProvider(cfg.Google)
	if err != nil {
		return err
	}

	hooks := []drivedesk.RunOption{
		drivedesk.Logger(log),
		drivedesk.ShutdownTimeout(cfg.ShutdownTimeout),
	}
	var health []drivedesk.HealthOption

	// Sessions live in Redis when it is configured, in process memory otherwise.
	var store session.Store
	if addr := cfg.RedisAddr(); addr != "" {
		client, err := redis.Open(ctx, addr,
			redis.WithRetry(5, time.Second),
			redis.WithLogger(log),
		)
		if err != nil {
			return err
		}
		store = session.NewRedisStore(client)
		health = append(health, drivedesk.WithReadinessCheck("redis", redis.Healthcheck(client)))
		hooks = append(hooks, drivedesk.ShutdownHook(redis.Shutdown(client)))
	} else {
		mem := session.NewMemoryStore()
		store = mem
		hooks = append(hooks, drivedesk.ShutdownHook(func(context.Context) error { return mem.Close() }))
		log.Warn("REDIS_URL is not set, sessions are kept in memory")
	}
	hooks = append(hooks, drivedesk.ShutdownHook(flush))

	app := drivedesk.New(
		drivedesk.WithLogger(log),
		drivedesk.WithCookieOptions(
			cookie.WithSecret(cfg.Secret),
			cookie.WithSecure(cfg.CookieSecure),
		),
		drivedesk.WithSession(store,
			drivedesk.WithSessionCookieName(cfg.SessionCookieName),
			drivedesk.WithSessionTTL(cfg.SessionTTL),
			drivedesk.WithSessionSecure(cfg.CookieSecure),
		),
		drivedesk.WithDrive(google, gdrive.WithLogger(log)),

		drivedesk.WithMiddleware(
			middlewares.CORS(cfg.CORSOrigins),
			middlewares.RequestID(),
			middlewares.Recover(),
		),

		drivedesk.WithHandlers(
			handlers.NewAuth(google),
			handlers.NewDrive(handlers.WithMaxUploadSize(cfg.MaxUploadSize)),
		),
		drivedesk.WithErrorHandler(handlers.ErrorHandler(handlers.LoginPath)),
		drivedesk.WithNotFoundHandler(handlers.NotFound),
		drivedesk.WithMethodNotAllowedHandler(handlers.MethodNotAllowed),

		drivedesk.WithStaticFiles("/static/", views.Assets, "static"),
		drivedesk.WithHealthChecks(health...),
	)

	return app.Run(cfg.Address, hooks...)
}
