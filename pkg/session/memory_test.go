package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/drivedesk/pkg/session"
)

func newSession(token string, ttl time.Duration) *session.Session {
	return session.New("id-"+token, token, time.Now().Add(ttl))
}

func TestMemoryStore_CreateGet(t *testing.T) {
	t.Parallel()

	t.Run("returns stored session", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		defer store.Close()

		ctx := context.Background()
		sess := newSession("tok", time.Hour)
		sess.SetValue("email", "a@example.com")
		require.NoError(t, store.Create(ctx, sess))

		got, err := store.Get(ctx, "tok")
		require.NoError(t, err)
		require.Equal(t, sess.ID, got.ID)
		require.Equal(t, "a@example.com", session.ValueOr(got, "email", ""))
		require.False(t, got.IsNew())
		require.False(t, got.IsDirty())
	})

	t.Run("hands out independent copies", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		defer store.Close()

		ctx := context.Background()
		require.NoError(t, store.Create(ctx, newSession("tok", time.Hour)))

		a, err := store.Get(ctx, "tok")
		require.NoError(t, err)
		a.SetValue("k", "mutated")

		b, err := store.Get(ctx, "tok")
		require.NoError(t, err)
		_, ok := b.GetValue("k")
		require.False(t, ok)
	})

	t.Run("missing token", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		defer store.Close()

		_, err := store.Get(context.Background(), "nope")
		require.ErrorIs(t, err, session.ErrNotFound)

		_, err = store.Get(context.Background(), "")
		require.ErrorIs(t, err, session.ErrInvalidToken)
	})

	t.Run("expired session is evicted on read", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore(session.WithCleanupInterval(0))
		defer store.Close()

		ctx := context.Background()
		require.NoError(t, store.Create(ctx, newSession("tok", -time.Second)))

		_, err := store.Get(ctx, "tok")
		require.ErrorIs(t, err, session.ErrExpired)
		require.Equal(t, 0, store.Len())
	})
}

func TestMemoryStore_UpdateRotation(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore()
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newSession("old", time.Hour)))

	sess, err := store.Get(ctx, "old")
	require.NoError(t, err)

	sess.RotateToken("new")
	require.NoError(t, store.Update(ctx, sess))
	require.Empty(t, sess.PreviousToken())

	_, err = store.Get(ctx, "old")
	require.ErrorIs(t, err, session.ErrNotFound)

	got, err := store.Get(ctx, "new")
	require.NoError(t, err)
	require.Equal(t, sess.ID, got.ID)
	require.Equal(t, 1, store.Len())
}

func TestMemoryStore_UpdateAfterDelete(t *testing.T) {
	t.Parallel()

	t.Run("plain update", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		defer store.Close()

		ctx := context.Background()
		require.NoError(t, store.Create(ctx, newSession("tok", time.Hour)))

		sess, err := store.Get(ctx, "tok")
		require.NoError(t, err)

		// A logout in another request lands first.
		require.NoError(t, store.Delete(ctx, "tok"))

		sess.SetValue("k", "v")
		require.ErrorIs(t, store.Update(ctx, sess), session.ErrNotFound)

		_, err = store.Get(ctx, "tok")
		require.ErrorIs(t, err, session.ErrNotFound)
		require.Zero(t, store.Len())
	})

	t.Run("rotation", func(t *testing.T) {
		t.Parallel()

		store := session.NewMemoryStore()
		defer store.Close()

		ctx := context.Background()
		require.NoError(t, store.Create(ctx, newSession("old", time.Hour)))

		sess, err := store.Get(ctx, "old")
		require.NoError(t, err)
		require.NoError(t, store.Delete(ctx, "old"))

		sess.RotateToken("new")
		require.ErrorIs(t, store.Update(ctx, sess), session.ErrNotFound)

		_, err = store.Get(ctx, "new")
		require.ErrorIs(t, err, session.ErrNotFound)
	})
}

func TestMemoryStore_Delete(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore()
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newSession("tok", time.Hour)))
	require.NoError(t, store.Delete(ctx, "tok"))
	require.NoError(t, store.Delete(ctx, "tok"), "deleting twice is not an error")

	_, err := store.Get(ctx, "tok")
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestMemoryStore_Touch(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore()
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newSession("tok", time.Hour)))

	at := time.Now().Add(time.Minute).Truncate(time.Second)
	require.NoError(t, store.Touch(ctx, "tok", at))

	got, err := store.Get(ctx, "tok")
	require.NoError(t, err)
	require.True(t, got.LastActiveAt.Equal(at))

	require.ErrorIs(t, store.Touch(ctx, "missing", at), session.ErrNotFound)
}

func TestMemoryStore_MaxSessions(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore(session.WithMaxSessions(2))
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newSession("a", time.Hour)))
	require.NoError(t, store.Create(ctx, newSession("b", time.Hour)))

	_, err := store.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, store.Create(ctx, newSession("c", time.Hour)))

	_, err = store.Get(ctx, "b")
	require.ErrorIs(t, err, session.ErrNotFound, "least recently used session is evicted")
	_, err = store.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())
}

func TestMemoryStore_Janitor(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore(session.WithCleanupInterval(5 * time.Millisecond))
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newSession("stale", 10*time.Millisecond)))
	require.NoError(t, store.Create(ctx, newSession("fresh", time.Hour)))

	require.Eventually(t, func() bool {
		return store.Len() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestMemoryStore_Close(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore()
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	err := store.Create(context.Background(), newSession("tok", time.Hour))
	require.ErrorIs(t, err, session.ErrClosed)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore()
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newSession("tok", time.Hour)))

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, err := store.Get(ctx, "tok")
			if err != nil {
				return
			}
			sess.SetValue("k", "v")
			_ = store.Update(ctx, sess)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "tok")
	require.NoError(t, err)
	require.Equal(t, "v", session.ValueOr(got, "k", ""))
}
