package middlewares

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/drivedesk/internal"
	"github.com/dmitrymomot/drivedesk/pkg/session"
)

// RequireCredentials returns middleware that lets a request through only
// when its session holds provider credentials. Anything else is sent to
// loginPath with 303 See Other. Store failures are passed on as errors.
func RequireCredentials(loginPath string) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			_, err := c.Credentials()
			switch {
			case err == nil:
				return next(c)
			case errors.Is(err, session.ErrNoCredentials):
				c.LogDebug("request without credentials", slog.String("path", c.Request().URL.Path))
				return c.Redirect(http.StatusSeeOther, loginPath)
			default:
				return err
			}
		}
	}
}
