package middlewares

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/dmitrymomot/drivedesk/internal"
)

// DefaultCORSMethods are the methods browsers may use cross-origin.
var DefaultCORSMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodOptions,
	http.MethodDelete,
	http.MethodPatch,
	http.MethodPut,
}

// DefaultCORSHeaders are the request headers allowed cross-origin.
var DefaultCORSHeaders = []string{
	"Content-Type",
	"Set-Cookie",
	"Access-Control-Allow-Headers",
	"Access-Control-Allow-Origin",
	"Authorization",
}

// CORSOption adjusts the rs/cors options before the handler is built.
type CORSOption func(*cors.Options)

// WithCORSMethods replaces the allowed methods.
func WithCORSMethods(methods ...string) CORSOption {
	return func(o *cors.Options) {
		o.AllowedMethods = methods
	}
}

// WithCORSHeaders replaces the allowed request headers.
func WithCORSHeaders(headers ...string) CORSOption {
	return func(o *cors.Options) {
		o.AllowedHeaders = headers
	}
}

// WithCORSMaxAge sets how long, in seconds, a preflight result may be cached.
func WithCORSMaxAge(seconds int) CORSOption {
	return func(o *cors.Options) {
		o.MaxAge = seconds
	}
}

// CORS returns middleware that applies the cross-origin policy for the given
// origins. Credentials are always allowed, so the matching origin is echoed
// back instead of "*". Preflight requests are answered here and never reach
// the route.
func CORS(origins []string, opts ...CORSOption) internal.Middleware {
	o := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   DefaultCORSMethods,
		AllowedHeaders:   DefaultCORSHeaders,
		AllowCredentials: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	policy := cors.New(o)

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			r := c.Request()
			policy.HandlerFunc(c.Response(), r)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				return nil
			}
			return next(c)
		}
	}
}
