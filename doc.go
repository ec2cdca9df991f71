// Package drivedesk is a small web front end for Google Drive.
//
// A user signs in with Google through the OAuth2 authorization-code flow.
// The resulting token is bound to a server-side session keyed by an opaque
// cookie. Every Drive route then acts on the user's files through the Drive
// v3 API: browsing, search, upload, download, move, trash, delete and export.
//
// The package exposes a thin application kernel in the style of a web
// framework: an [App] with options, a [Router], and a [Context] passed to
// every [HandlerFunc]. Handlers return errors and a single [ErrorHandler]
// turns them into responses.
//
// # Quick Start
//
//	google, err := oauth.NewGoogleProvider(cfg.Google)
//	if err != nil {
//	    return err
//	}
//
//	app := drivedesk.New(
//	    drivedesk.WithLogger(log),
//	    drivedesk.WithCookieOptions(cookie.WithSecret(cfg.Secret)),
//	    drivedesk.WithSession(session.NewMemoryStore()),
//	    drivedesk.WithDrive(google),
//	    drivedesk.WithErrorHandler(handlers.ErrorHandler("/auth/login")),
//	    drivedesk.WithHandlers(
//	        handlers.NewAuth(google),
//	        handlers.NewDrive(),
//	    ),
//	)
//
//	if err := app.Run(cfg.Address, drivedesk.Logger(log)); err != nil {
//	    log.Error("server stopped", "error", err)
//	}
//
// # Sessions and Drive access
//
// [Context.Session] loads the session lazily; changes are saved before the
// first response byte. [Context.Drive] returns a Drive client bound to the
// session credentials. Expired access tokens are refreshed transparently and
// written back to the session.
//
// The binary lives in cmd/drivedesk.
package drivedesk
