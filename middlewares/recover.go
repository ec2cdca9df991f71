package middlewares

import (
	"log/slog"
	"runtime"

	"github.com/dmitrymomot/drivedesk/internal"
)

// DefaultStackSize is the default maximum stack trace size in bytes.
const DefaultStackSize = 4096

type recoverConfig struct {
	stackSize    int
	disableStack bool
}

// RecoverOption configures the recover middleware.
type RecoverOption func(*recoverConfig)

// WithRecoverStackSize sets the maximum stack trace size.
func WithRecoverStackSize(size int) RecoverOption {
	return func(cfg *recoverConfig) {
		cfg.stackSize = size
	}
}

// WithRecoverDisableStack skips capturing the stack trace.
func WithRecoverDisableStack() RecoverOption {
	return func(cfg *recoverConfig) {
		cfg.disableStack = true
	}
}

// Recover returns middleware that turns a panic into a *PanicError.
// The panic is logged with its stack and the error goes to the app's
// ErrorHandler like any other.
func Recover(opts ...RecoverOption) internal.Middleware {
	cfg := &recoverConfig{stackSize: DefaultStackSize}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				pe := &PanicError{Value: r}
				if !cfg.disableStack && cfg.stackSize > 0 {
					buf := make([]byte, cfg.stackSize)
					pe.Stack = buf[:runtime.Stack(buf, false)]
					c.LogError("panic recovered", slog.Any("panic", r), slog.String("stack", string(pe.Stack)))
				} else {
					c.LogError("panic recovered", slog.Any("panic", r))
				}
				err = pe
			}()

			return next(c)
		}
	}
}
