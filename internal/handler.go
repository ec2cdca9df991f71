package internal

// Handler declares routes on a router.
//
// Example:
//
//	type DriveHandler struct {
//	    maxUpload int64
//	}
//
//	func (h *DriveHandler) Routes(r drivedesk.Router) {
//	    r.GET("/drive/folders_and_files", h.browse)
//	    r.POST("/drive/create_files", h.createFiles)
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc is the signature for route handlers.
// Returning a non-nil error triggers the error handler.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc to add cross-cutting concerns.
// Middleware can inspect the request, short-circuit processing,
// or wrap the response.
//
// Example:
//
//	func Auth(next drivedesk.HandlerFunc) drivedesk.HandlerFunc {
//	    return func(c drivedesk.Context) error {
//	        if _, err := c.Credentials(); err != nil {
//	            return c.Redirect(http.StatusSeeOther, "/auth/login")
//	        }
//	        return next(c)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler handles errors returned from handlers.
type ErrorHandler func(Context, error) error
