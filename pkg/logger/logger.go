package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// Config describes the process logger.
type Config struct {
	Level       string    // debug, info, warn, error
	Format      string    // json or text
	SentryDSN   string    // empty disables Sentry
	Environment string    // reported to Sentry
	Output      io.Writer // defaults to os.Stdout
}

// New builds the process logger.
// When a Sentry DSN is configured, records are also forwarded to Sentry:
// errors become events and warnings become searchable logs.
// The returned flush func drains buffered Sentry events; it is a no-op
// without Sentry and fits the server's shutdown hooks.
func New(cfg Config, extractors ...ContextExtractor) (*slog.Logger, func(context.Context) error) {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	level := ParseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		base = slog.NewTextHandler(out, opts)
	} else {
		base = slog.NewJSONHandler(out, opts)
	}

	noop := func(context.Context) error { return nil }

	if cfg.SentryDSN == "" {
		return slog.New(NewLogHandlerDecorator(base, extractors...)), noop
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.Environment,
		EnableLogs:  true,
	}); err != nil {
		// Stdout keeps working when Sentry cannot be reached.
		slog.New(base).Error("failed to initialize sentry", slog.String("error", err.Error()))
		return slog.New(NewLogHandlerDecorator(base, extractors...)), noop
	}

	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
	}.NewSentryHandler(context.Background())

	flush := func(ctx context.Context) error {
		timeout := flushTimeout(ctx)
		if !sentry.Flush(timeout) {
			return fmt.Errorf("logger: sentry flush timed out after %s", timeout)
		}
		return nil
	}

	handler := newMultiHandler(base, sentryHandler)
	return slog.New(NewLogHandlerDecorator(handler, extractors...)), flush
}

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewNope creates a logger that discards all output.
// It is the default until a real logger is configured.
func NewNope() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

const (
	defaultFlushTimeout = 2 * time.Second
	minFlushTimeout     = 500 * time.Millisecond
)

// flushTimeout follows the context deadline but never drops below
// minFlushTimeout, so an exhausted shutdown budget still gets one attempt.
func flushTimeout(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return defaultFlushTimeout
	}
	return max(time.Until(deadline), minFlushTimeout)
}
