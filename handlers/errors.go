package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/drivedesk"
	"github.com/dmitrymomot/drivedesk/middlewares"
	"github.com/dmitrymomot/drivedesk/pkg/gdrive"
	"github.com/dmitrymomot/drivedesk/pkg/oauth"
	"github.com/dmitrymomot/drivedesk/pkg/session"
	"github.com/dmitrymomot/drivedesk/views"
)

// authFailures mean the stored credentials can no longer be used.
var authFailures = []error{
	gdrive.ErrUnauthorized,
	oauth.ErrTokenExpired,
	oauth.ErrRefreshFailed,
	session.ErrNoCredentials,
	session.ErrNotFound,
	session.ErrExpired,
}

// providerErrors maps provider failures to a status and a message for the user.
// Order matters: the first match wins.
var providerErrors = []struct {
	err     error
	code    int
	message string
}{
	{gdrive.ErrNoMatch, http.StatusNotFound, "No file with that name"},
	{gdrive.ErrNotFound, http.StatusNotFound, "File not found"},
	{gdrive.ErrForbidden, http.StatusForbidden, "You do not have access to this file"},
	{gdrive.ErrEmptyName, http.StatusBadRequest, "A name is required"},
	{gdrive.ErrNoFiles, http.StatusBadRequest, "No files to upload"},
	{gdrive.ErrBadRequest, http.StatusBadRequest, "Google Drive rejected the request"},
	{gdrive.ErrAmbiguousName, http.StatusConflict, "More than one file has that name, use its ID instead"},
	{gdrive.ErrConflict, http.StatusConflict, "The file was changed by someone else"},
	{gdrive.ErrThrottled, http.StatusTooManyRequests, "Too many requests, try again in a moment"},
	{gdrive.ErrServerError, http.StatusBadGateway, "Google Drive is unavailable right now"},
}

// ErrorHandler maps handler errors to responses. Credential failures clear
// the session's token and send the user to loginPath; everything else
// renders an error page carrying the request ID.
func ErrorHandler(loginPath string) drivedesk.ErrorHandler {
	return func(c drivedesk.Context, err error) error {
		// A panic value may wrap a sentinel; it is still a server fault.
		if pe, ok := middlewares.AsPanicError(err); ok {
			c.LogError("handler panicked", slog.Any("panic", pe.Value), slog.String("stack", string(pe.Stack)))
			return renderError(c, http.StatusInternalServerError, "", "Something went wrong")
		}

		if isAuthFailure(err) {
			c.LogInfo("credentials rejected", slog.Any("error", err))
			if cerr := c.ClearCredentials(); cerr != nil {
				c.LogWarn("failed to clear credentials", slog.Any("error", cerr))
			}
			return c.Redirect(http.StatusSeeOther, loginPath)
		}

		code, title, message := classify(err)
		if code >= http.StatusInternalServerError {
			c.LogError("request failed", slog.Int("status", code), slog.Any("error", err))
		} else {
			c.LogWarn("request rejected", slog.Int("status", code), slog.Any("error", err))
		}

		return renderError(c, code, title, message)
	}
}

// NotFound renders the 404 page for unknown routes.
func NotFound(c drivedesk.Context) error {
	return renderError(c, http.StatusNotFound, "", "Page not found")
}

// MethodNotAllowed renders the 405 page.
func MethodNotAllowed(c drivedesk.Context) error {
	return renderError(c, http.StatusMethodNotAllowed, "", "Method not allowed")
}

func renderError(c drivedesk.Context, code int, title, message string) error {
	if title == "" {
		title = http.StatusText(code)
	}
	return c.Render(code, views.Error(views.ErrorPage{
		Page:      page(c, title),
		Code:      code,
		Message:   message,
		RequestID: middlewares.GetRequestID(c),
	}))
}

func isAuthFailure(err error) bool {
	for _, target := range authFailures {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func classify(err error) (code int, title, message string) {
	if he := drivedesk.AsHTTPError(err); he != nil {
		return he.StatusCode(), he.StatusText(), he.Message
	}
	for _, pe := range providerErrors {
		if errors.Is(err, pe.err) {
			return pe.code, "", pe.message
		}
	}
	return http.StatusInternalServerError, "", "Something went wrong"
}
