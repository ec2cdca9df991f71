// Package logger builds the process-wide slog logger.
//
// Records are written as JSON (or text) to stdout at the configured level.
// A [LogHandlerDecorator] adds request-scoped attributes, such as the
// request ID, from the context of every call:
//
//	log, flush := logger.New(logger.Config{
//		Level:     "info",
//		SentryDSN: os.Getenv("SENTRY_DSN"),
//	}, middlewares.RequestIDExtractor())
//	defer flush(context.Background())
//
//	log.InfoContext(ctx, "folder listed", slog.Int("count", n))
//
// With a Sentry DSN, records are fanned out to Sentry as well. Errors create
// issues, and warnings are kept as logs for context. Without a DSN, or when
// Sentry fails to initialize, logging falls back to stdout only.
package logger
