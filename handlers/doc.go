// Package handlers implements the drivedesk routes.
//
// AuthHandler runs the OAuth2 login against the provider and binds the token
// to the session. DriveHandler exposes folder browsing, search, transfers and
// trash management; every /drive route requires credentials. ErrorHandler
// turns handler errors into redirects or rendered error pages.
//
//	app := drivedesk.New(
//	    drivedesk.WithErrorHandler(handlers.ErrorHandler(handlers.LoginPath)),
//	    drivedesk.WithNotFoundHandler(handlers.NotFound),
//	    drivedesk.WithHandlers(
//	        handlers.NewAuth(google),
//	        handlers.NewDrive(handlers.WithMaxUploadSize(cfg.MaxUploadSize)),
//	    ),
//	)
package handlers
