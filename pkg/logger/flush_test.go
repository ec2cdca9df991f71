package logger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFlushTimeout(t *testing.T) {
	t.Parallel()

	t.Run("no deadline", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, defaultFlushTimeout, flushTimeout(context.Background()))
	})

	t.Run("follows the deadline", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		got := flushTimeout(ctx)
		require.Greater(t, got, 5*time.Second)
		require.LessOrEqual(t, got, 10*time.Second)
	})

	t.Run("expired deadline is clamped", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()

		require.Equal(t, minFlushTimeout, flushTimeout(ctx))
	})
}
