// Package internal provides the application kernel behind package drivedesk.
//
// Import "github.com/dmitrymomot/drivedesk" instead; it re-exports the public API.
//
// # Core Types
//
//   - App: routing, middleware, health endpoints and graceful shutdown
//   - Context: request/response access, cookies, sessions and the Drive client
//   - Router: interface handlers use to declare routes
//   - Handler: types that declare routes on a router
//   - HandlerFunc, Middleware, ErrorHandler: the request pipeline
//
// # Context as context.Context
//
// Context embeds context.Context, so it can be passed directly to any function
// that expects one:
//
//	func (h *DriveHandler) browse(c internal.Context) error {
//	    d, err := c.Drive()
//	    if err != nil {
//	        return err
//	    }
//	    files, err := d.ListChildren(c, c.Query("file_id"))
//	    ...
//	}
//
// # Sessions and Credentials
//
// Sessions are loaded lazily from the session cookie. A cookie pointing at a
// missing or expired session is treated as no session and cleared. Changes
// are flushed to the store right before the first byte of the response.
// AuthenticateSession rotates the cookie token.
//
// Credentials binds the provider token to the session. Drive builds a
// provider client from it once per request; tokens refreshed by that client
// flow back into the session and are persisted with it.
//
// # Error Handling
//
// Handlers return errors instead of writing them. The App passes them to the
// single ErrorHandler unless the response already started:
//
//	internal.WithErrorHandler(func(c internal.Context, err error) error {
//	    if he := internal.AsHTTPError(err); he != nil {
//	        return c.String(he.Code, he.Message)
//	    }
//	    return c.String(http.StatusInternalServerError, "internal error")
//	})
//
// # Server Runtime
//
//	err := app.Run(":8000",
//	    internal.Logger(log),
//	    internal.ShutdownHook(redis.Shutdown(client)),
//	)
//
// Run stops on SIGINT or SIGTERM, drains the server and then runs the
// shutdown hooks in order, joining their errors.
package internal
