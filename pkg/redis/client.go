package redis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Option configures a Redis connection.
type Option func(*options)

type options struct {
	logger        *slog.Logger
	poolSize      int
	retryAttempts int
	retryInterval time.Duration
	timeout       time.Duration
}

func defaultOptions() *options {
	return &options{
		poolSize:      10,
		retryAttempts: 3,
		retryInterval: 2 * time.Second,
		timeout:       3 * time.Second,
	}
}

// WithPoolSize sets the maximum number of pooled connections.
// Default: 10
func WithPoolSize(n int) Option {
	return func(o *options) {
		o.poolSize = n
	}
}

// WithRetry configures startup retries. The wait grows linearly with each attempt.
// Default: 3 attempts, 2 second base interval.
func WithRetry(attempts int, interval time.Duration) Option {
	return func(o *options) {
		o.retryAttempts = attempts
		o.retryInterval = interval
	}
}

// WithTimeout sets dial, read and write timeouts.
// Default: 3 seconds
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithLogger logs failed connection attempts.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// URL builds a connection URL for database 0 from a host and a port.
// An empty port falls back to 6379.
func URL(host string, port int) string {
	if port <= 0 {
		port = 6379
	}
	return "redis://" + net.JoinHostPort(host, strconv.Itoa(port)) + "/0"
}

// Open connects to Redis and pings it before returning.
// Supports both redis:// and rediss:// (TLS) URL schemes.
//
// Example:
//
//	client, err := redis.Open(ctx, redis.URL(cfg.RedisHost, cfg.RedisPort),
//	    redis.WithRetry(5, time.Second),
//	)
func Open(ctx context.Context, url string, opts ...Option) (redis.UniversalClient, error) {
	if url == "" {
		return nil, ErrEmptyConnectionURL
	}
	if !strings.HasPrefix(url, "redis://") && !strings.HasPrefix(url, "rediss://") {
		return nil, ErrFailedToParseURL
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	ro, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseURL, err)
	}
	ro.PoolSize = o.poolSize
	ro.DialTimeout = o.timeout
	ro.ReadTimeout = o.timeout
	ro.WriteTimeout = o.timeout

	attempts := max(o.retryAttempts, 1)
	var lastErr error
	for i := range attempts {
		client := redis.NewClient(ro)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		if o.logger != nil {
			o.logger.WarnContext(ctx, "redis ping failed",
				slog.Int("attempt", i+1),
				slog.String("addr", ro.Addr),
				slog.Any("error", lastErr),
			)
		}
		if i == attempts-1 {
			break
		}
		if err := wait(ctx, time.Duration(i+1)*o.retryInterval); err != nil {
			return nil, errors.Join(ErrConnectionFailed, err)
		}
	}

	return nil, errors.Join(ErrConnectionFailed, fmt.Errorf("%s: %w", ro.Addr, lastErr))
}

// Healthcheck returns a readiness probe that pings the client.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return ErrHealthcheckFailed
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

// Shutdown returns a shutdown hook that closes the client.
func Shutdown(client io.Closer) func(context.Context) error {
	return func(context.Context) error {
		return client.Close()
	}
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
