// Package middlewares provides HTTP middleware for drivedesk applications.
//
// # Request ID
//
// RequestID assigns an ID to each request. An upstream X-Request-ID,
// X-Request-Id or X-Correlation-ID header is reused; otherwise a UUID is
// generated. Pass RequestIDExtractor to the logger so every record made with
// the request context carries it:
//
//	log, flush := logger.New(cfg, middlewares.RequestIDExtractor())
//	app := drivedesk.New(
//	    drivedesk.WithLogger(log),
//	    drivedesk.WithMiddleware(middlewares.RequestID()),
//	)
//
// # Recover
//
// Recover converts a panic into a *PanicError and hands it to the
// ErrorHandler:
//
//	drivedesk.WithErrorHandler(func(c drivedesk.Context, err error) error {
//	    if _, ok := middlewares.AsPanicError(err); ok {
//	        return c.String(http.StatusInternalServerError, "Internal Server Error")
//	    }
//	    return err
//	})
//
// # CORS
//
// CORS applies the cross-origin policy on top of github.com/rs/cors.
// Credentials are always allowed, so origins must be listed explicitly:
//
//	middlewares.CORS(cfg.CORSOrigins)
//
// # RequireCredentials
//
// RequireCredentials guards routes that need a provider token. Requests
// without one are redirected to the login page:
//
//	r.Group(func(r drivedesk.Router) {
//	    r.Use(middlewares.RequireCredentials("/auth/login"))
//	    r.GET("/drive/folders_and_files", h.list)
//	})
//
// # Order
//
//	drivedesk.WithMiddleware(
//	    middlewares.CORS(origins),  // answer preflight first
//	    middlewares.RequestID(),    // ID for all later logging
//	    middlewares.Recover(),
//	)
package middlewares
