package session

import (
	"context"
	"time"
)

// Store defines the interface for session persistence.
// Sessions are addressed by their cookie token.
type Store interface {
	// Create persists a new session.
	Create(ctx context.Context, s *Session) error

	// Get retrieves a session by its token.
	// Returns ErrNotFound if the session doesn't exist.
	// Returns ErrExpired if the session has expired.
	Get(ctx context.Context, token string) (*Session, error)

	// Update saves changes to an existing session.
	// If the token was rotated, the entry under the previous token is removed.
	Update(ctx context.Context, s *Session) error

	// Delete removes the session stored under token.
	Delete(ctx context.Context, token string) error

	// Touch updates the LastActiveAt timestamp.
	Touch(ctx context.Context, token string, lastActiveAt time.Time) error
}
