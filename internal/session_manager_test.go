package internal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/drivedesk/pkg/session"
)

// mockStore implements session.Store for testing.
type mockStore struct {
	sessions map[string]*session.Session
	onUpdate func(s *session.Session) error
	onGet    func(token string) error
	touched  []string
	mu       sync.Mutex
}

func newMockStore() *mockStore {
	return &mockStore{
		sessions: make(map[string]*session.Session),
	}
}

func (s *mockStore) Create(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = sess.Clone()
	return nil
}

func (s *mockStore) Get(_ context.Context, token string) (*session.Session, error) {
	if s.onGet != nil {
		if err := s.onGet(token); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, session.ErrNotFound
	}
	if sess.IsExpired() {
		return nil, session.ErrExpired
	}
	return sess.Clone(), nil
}

func (s *mockStore) Update(_ context.Context, sess *session.Session) error {
	if s.onUpdate != nil {
		if err := s.onUpdate(sess); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev := sess.PreviousToken(); prev != "" {
		delete(s.sessions, prev)
	}
	s.sessions[sess.Token] = sess.Clone()
	sess.ClearPreviousToken()
	return nil
}

func (s *mockStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *mockStore) Touch(_ context.Context, token string, lastActiveAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return session.ErrNotFound
	}
	sess.LastActiveAt = lastActiveAt
	s.touched = append(s.touched, token)
	return nil
}

func (s *mockStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func requestWithCookie(name, value string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: name, Value: value})
	return req
}

func TestSessionManager_CreateSession(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	sm := NewSessionManager(store, WithSessionTTL(time.Hour))

	sess, err := sm.CreateSession(context.Background())
	require.NoError(t, err)

	_, err = uuid.Parse(sess.ID)
	require.NoError(t, err, "session IDs are UUIDs")
	require.NotEmpty(t, sess.Token)
	require.NotEqual(t, sess.ID, sess.Token)
	require.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, 5*time.Second)
	require.False(t, sess.IsNew())
	require.False(t, sess.IsDirty())
	require.Equal(t, 1, store.len())

	other, err := sm.CreateSession(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, sess.Token, other.Token)
}

func TestSessionManager_LoadSession(t *testing.T) {
	t.Parallel()

	t.Run("no cookie", func(t *testing.T) {
		t.Parallel()

		sm := NewSessionManager(newMockStore())
		sess, err := sm.LoadSession(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		require.Nil(t, sess)
	})

	t.Run("stale cookie is ignored", func(t *testing.T) {
		t.Parallel()

		sm := NewSessionManager(newMockStore())
		sess, err := sm.LoadSession(context.Background(), requestWithCookie("session_id", "gone"))
		require.NoError(t, err)
		require.Nil(t, sess)
	})

	t.Run("expired session is ignored", func(t *testing.T) {
		t.Parallel()

		store := newMockStore()
		require.NoError(t, store.Create(context.Background(), session.New("sid", "tok", time.Now().Add(-time.Minute))))

		sm := NewSessionManager(store)
		sess, err := sm.LoadSession(context.Background(), requestWithCookie("session_id", "tok"))
		require.NoError(t, err)
		require.Nil(t, sess)
	})

	t.Run("store failure is returned", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("connection refused")
		store := newMockStore()
		store.onGet = func(string) error { return boom }

		sm := NewSessionManager(store)
		_, err := sm.LoadSession(context.Background(), requestWithCookie("session_id", "tok"))
		require.ErrorIs(t, err, boom)
	})

	t.Run("touches idle sessions", func(t *testing.T) {
		t.Parallel()

		store := newMockStore()
		stale := session.New("sid", "tok", time.Now().Add(time.Hour))
		stale.LastActiveAt = time.Now().Add(-time.Hour)
		require.NoError(t, store.Create(context.Background(), stale))

		sm := NewSessionManager(store, WithSessionCookieName("sid"))
		sess, err := sm.LoadSession(context.Background(), requestWithCookie("sid", "tok"))
		require.NoError(t, err)
		require.Equal(t, "sid", sess.ID)
		require.WithinDuration(t, time.Now(), sess.LastActiveAt, 5*time.Second)
		require.Equal(t, []string{"tok"}, store.touched)
	})

	t.Run("fresh sessions are not touched", func(t *testing.T) {
		t.Parallel()

		store := newMockStore()
		require.NoError(t, store.Create(context.Background(), session.New("sid", "tok", time.Now().Add(time.Hour))))

		sm := NewSessionManager(store)
		_, err := sm.LoadSession(context.Background(), requestWithCookie("session_id", "tok"))
		require.NoError(t, err)
		require.Empty(t, store.touched)
	})
}

func TestSessionManager_RotateToken(t *testing.T) {
	t.Parallel()

	t.Run("moves the session to a new token", func(t *testing.T) {
		t.Parallel()

		store := newMockStore()
		sm := NewSessionManager(store)
		sess, err := sm.CreateSession(context.Background())
		require.NoError(t, err)
		old := sess.Token

		require.NoError(t, sm.RotateToken(context.Background(), sess))
		require.NotEqual(t, old, sess.Token)
		require.Empty(t, sess.PreviousToken())

		_, err = store.Get(context.Background(), old)
		require.ErrorIs(t, err, session.ErrNotFound)
		got, err := store.Get(context.Background(), sess.Token)
		require.NoError(t, err)
		require.Equal(t, sess.ID, got.ID)
	})

	t.Run("rolls back on store failure", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("write failed")
		store := newMockStore()
		sm := NewSessionManager(store)
		sess, err := sm.CreateSession(context.Background())
		require.NoError(t, err)
		old := sess.Token

		store.onUpdate = func(*session.Session) error { return boom }
		require.ErrorIs(t, sm.RotateToken(context.Background(), sess), boom)
		require.Equal(t, old, sess.Token)
		require.Empty(t, sess.PreviousToken())
	})
}

func TestSessionManager_Cookies(t *testing.T) {
	t.Parallel()

	sm := NewSessionManager(newMockStore(),
		WithSessionCookieName("sid"),
		WithSessionDomain("example.com"),
		WithSessionPath("/app"),
		WithSessionSecure(true),
		WithSessionSameSite(http.SameSiteStrictMode),
	)

	w := httptest.NewRecorder()
	sess := session.New("id", "tok", time.Now().Add(time.Hour))
	sm.SaveSession(w, sess)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	require.Equal(t, "sid", c.Name)
	require.Equal(t, "tok", c.Value)
	require.Equal(t, "example.com", c.Domain)
	require.Equal(t, "/app", c.Path)
	require.True(t, c.Secure)
	require.True(t, c.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, c.SameSite)
	require.InDelta(t, 3600, c.MaxAge, 5)

	w = httptest.NewRecorder()
	sm.DeleteSession(w)
	cookies = w.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Empty(t, cookies[0].Value)
	require.Less(t, cookies[0].MaxAge, 0)
}
