package internal

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
)

// Router is the interface handlers use to declare routes.
//
// Only GET and POST are exposed: browser forms and links are the only
// clients, and every Drive action is reachable through one of the two.
type Router interface {
	// GET registers h for GET requests. Route middleware runs in the
	// order given.
	GET(path string, h HandlerFunc, mw ...Middleware)

	// POST registers h for POST requests.
	POST(path string, h HandlerFunc, mw ...Middleware)

	// Group creates an inline group sharing middleware but no prefix.
	Group(fn func(r Router))

	// Route creates a group under a pattern prefix.
	Route(pattern string, fn func(r Router))

	// Use appends middleware to the group's stack. Each middleware gets
	// its own Context; values set on it reach the handler through the
	// request context.
	Use(mw ...Middleware)
}

type routerAdapter struct {
	mux chi.Router
	app *App
}

func (r *routerAdapter) GET(path string, h HandlerFunc, mw ...Middleware) {
	r.handle(http.MethodGet, path, h, mw)
}

func (r *routerAdapter) POST(path string, h HandlerFunc, mw ...Middleware) {
	r.handle(http.MethodPost, path, h, mw)
}

func (r *routerAdapter) Group(fn func(Router)) {
	r.mux.Group(func(sub chi.Router) {
		fn(r.sub(sub))
	})
}

func (r *routerAdapter) Route(pattern string, fn func(Router)) {
	r.mux.Route(pattern, func(sub chi.Router) {
		fn(r.sub(sub))
	})
}

func (r *routerAdapter) Use(mw ...Middleware) {
	for _, m := range mw {
		r.mux.Use(r.app.adaptMiddleware(m))
	}
}

func (r *routerAdapter) sub(mux chi.Router) *routerAdapter {
	return &routerAdapter{mux: mux, app: r.app}
}

func (r *routerAdapter) handle(method, path string, h HandlerFunc, mw []Middleware) {
	for _, m := range slices.Backward(mw) {
		h = m(h)
	}
	r.mux.Method(method, path, r.app.wrapHandler(h))
}

// adaptMiddleware turns a Middleware into a chi middleware. The wrapped
// next handler forwards c.Request(), so a middleware that replaces the
// request (to carry a value) hands that request on.
func (a *App) adaptMiddleware(mw Middleware) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return a.wrapHandler(mw(func(c Context) error {
			next.ServeHTTP(c.Response(), c.Request())
			return nil
		}))
	}
}
