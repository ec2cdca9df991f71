package session

import (
	"errors"
	"maps"
	"time"

	"golang.org/x/oauth2"
)

// Session represents a browser session bound to provider credentials.
type Session struct {
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
	ExpiresAt    time.Time `json:"expires_at"`

	UserID      *string        `json:"user_id,omitempty"`     // nil = anonymous session
	Credentials *oauth2.Token  `json:"credentials,omitempty"` // OAuth token issued by the provider
	Values      map[string]any `json:"values,omitempty"`      // Arbitrary session data
	ID          string         `json:"id"`                    // Unique identifier (UUID)
	Token       string         `json:"token"`                 // Cookie token (different from ID)

	previousToken string // set when the cookie token was rotated and not yet persisted
	dirty         bool
	isNew         bool
}

// New creates a new session with the given ID and token.
func New(id, token string, expiresAt time.Time) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Token:        token,
		Values:       make(map[string]any),
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    expiresAt,
		isNew:        true,
		dirty:        true,
	}
}

// IsAuthenticated returns true if the session has an associated user.
func (s *Session) IsAuthenticated() bool {
	return s.UserID != nil && *s.UserID != ""
}

// HasCredentials reports whether the session holds an OAuth token.
func (s *Session) HasCredentials() bool {
	return s.Credentials != nil && (s.Credentials.AccessToken != "" || s.Credentials.RefreshToken != "")
}

// SetCredentials stores the OAuth token on the session.
func (s *Session) SetCredentials(tok *oauth2.Token) {
	s.Credentials = tok
	s.dirty = true
}

// ClearCredentials drops the OAuth token and the associated user.
func (s *Session) ClearCredentials() {
	if s.Credentials == nil && s.UserID == nil {
		return
	}
	s.Credentials = nil
	s.UserID = nil
	s.dirty = true
}

// SetValue stores a value in the session.
// Marks the session as dirty for automatic saving.
func (s *Session) SetValue(key string, val any) {
	if s.Values == nil {
		s.Values = make(map[string]any)
	}
	s.Values[key] = val
	s.dirty = true
}

// GetValue retrieves a value from the session.
func (s *Session) GetValue(key string) (any, bool) {
	if s.Values == nil {
		return nil, false
	}
	val, ok := s.Values[key]
	return val, ok
}

// DeleteValue removes a value from the session.
// Marks the session as dirty only if the key existed.
func (s *Session) DeleteValue(key string) {
	if s.Values == nil {
		return
	}
	if _, exists := s.Values[key]; exists {
		delete(s.Values, key)
		s.dirty = true
	}
}

// RotateToken replaces the cookie token and remembers the old one
// so stores can drop the stale key on the next Update.
func (s *Session) RotateToken(token string) {
	if s.previousToken == "" {
		s.previousToken = s.Token
	}
	s.Token = token
	s.dirty = true
}

// PreviousToken returns the token replaced by RotateToken, if any.
func (s *Session) PreviousToken() string {
	return s.previousToken
}

// ClearPreviousToken forgets the rotated token after it was persisted.
func (s *Session) ClearPreviousToken() {
	s.previousToken = ""
}

// IsDirty returns true if the session has unsaved changes.
func (s *Session) IsDirty() bool {
	return s.dirty
}

// ClearDirty marks the session as saved.
func (s *Session) ClearDirty() {
	s.dirty = false
}

// MarkDirty marks the session as needing to be saved.
func (s *Session) MarkDirty() {
	s.dirty = true
}

// IsNew returns true if the session was just created.
func (s *Session) IsNew() bool {
	return s.isNew
}

// ClearNew marks the session as no longer new.
func (s *Session) ClearNew() {
	s.isNew = false
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Clone returns a deep copy of the persisted fields.
// Stores hand out clones so concurrent requests never share one instance.
func (s *Session) Clone() *Session {
	c := *s
	c.previousToken = ""
	c.dirty = false
	c.isNew = false
	c.Values = maps.Clone(s.Values)
	if s.UserID != nil {
		uid := *s.UserID
		c.UserID = &uid
	}
	if s.Credentials != nil {
		tok := *s.Credentials
		c.Credentials = &tok
	}
	return &c
}

// Value is a typed helper to retrieve session values with type safety.
// Returns an error if the key doesn't exist or type assertion fails.
func Value[T any](s *Session, key string) (T, error) {
	var zero T
	if s == nil {
		return zero, ErrNotFound
	}

	val, ok := s.GetValue(key)
	if !ok {
		return zero, ErrNotFound
	}

	typed, ok := val.(T)
	if !ok {
		return zero, errors.New("session: type mismatch for key: " + key)
	}

	return typed, nil
}

// ValueOr is a typed helper that returns a default value if the key
// doesn't exist or type assertion fails.
func ValueOr[T any](s *Session, key string, defaultVal T) T {
	val, err := Value[T](s, key)
	if err != nil {
		return defaultVal
	}
	return val
}
