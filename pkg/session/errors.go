package session

import "errors"

// Session errors.
var (
	// ErrNotConfigured is returned when session functionality is used
	// but WithSession was not configured on the app.
	ErrNotConfigured = errors.New("session: not configured")

	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("session: not found")

	// ErrExpired is returned when a session has expired.
	ErrExpired = errors.New("session: expired")

	// ErrInvalidToken is returned when a session token is empty or malformed.
	ErrInvalidToken = errors.New("session: invalid token")

	// ErrNoCredentials is returned when the session holds no provider token.
	ErrNoCredentials = errors.New("session: no credentials")

	// ErrClosed is returned when the store was closed.
	ErrClosed = errors.New("session: store closed")
)
