package gdrive

import (
	"context"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultMaxRetries  = 3
	defaultBaseBackoff = 500 * time.Millisecond
	maxBackoff         = 30 * time.Second
	backoffFactor      = 2.0
	jitterFraction     = 0.25
)

// retryTransport retries idempotent requests on throttling and server errors.
// Requests with a body are never retried since the body cannot be replayed.
type retryTransport struct {
	base        http.RoundTripper
	logger      *slog.Logger
	maxRetries  int
	baseBackoff time.Duration

	// sleepFunc waits between retries. Tests override it to avoid real delays.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !idempotent(req) {
		return t.base.RoundTrip(req)
	}

	ctx := req.Context()
	for attempt := 0; ; attempt++ {
		resp, err := t.base.RoundTrip(req)
		if err != nil {
			if ctx.Err() != nil || attempt >= t.maxRetries {
				return nil, err
			}
			backoff := t.calcBackoff(attempt)
			t.logger.WarnContext(ctx, "retrying drive request after network error",
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
				slog.String("error", err.Error()),
			)
			if sleepErr := t.sleepFunc(ctx, backoff); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}

		if !isRetryable(resp.StatusCode) || attempt >= t.maxRetries {
			return resp, nil
		}

		backoff := t.retryBackoff(resp, attempt)
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		resp.Body.Close()

		t.logger.WarnContext(ctx, "retrying drive request",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Int("status", resp.StatusCode),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", backoff),
		)

		if err := t.sleepFunc(ctx, backoff); err != nil {
			return nil, err
		}
	}
}

func idempotent(req *http.Request) bool {
	return (req.Method == http.MethodGet || req.Method == http.MethodHead) &&
		(req.Body == nil || req.Body == http.NoBody)
}

// retryBackoff honours Retry-After on 429 responses.
func (t *retryTransport) retryBackoff(resp *http.Response, attempt int) time.Duration {
	if resp.StatusCode == http.StatusTooManyRequests {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
				return time.Duration(seconds) * time.Second
			}
		}
	}
	return t.calcBackoff(attempt)
}

// calcBackoff computes exponential backoff with ±25% jitter.
func (t *retryTransport) calcBackoff(attempt int) time.Duration {
	backoff := float64(t.baseBackoff) * math.Pow(backoffFactor, float64(attempt))
	backoff = min(backoff, float64(maxBackoff))

	jitter := backoff * jitterFraction * (rand.Float64()*2 - 1) //nolint:gosec // jitter does not need crypto rand
	return time.Duration(backoff + jitter)
}

func timeSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
