package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResponseWriter_WriteHeader(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusInternalServerError)

	require.Equal(t, http.StatusNotFound, rw.Status())
	require.Equal(t, http.StatusNotFound, w.Code, "only the first status is sent")
	require.True(t, rw.Written())
}

func TestResponseWriter_Write(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)
	require.False(t, rw.Written())

	n, err := rw.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	_, err = rw.Write([]byte(" world"))
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int64(11), rw.Size())
	require.Equal(t, "hello world", w.Body.String())
}

func TestResponseWriter_OnBeforeWrite(t *testing.T) {
	t.Parallel()

	t.Run("hooks run once in order before headers", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		rw := NewResponseWriter(w)

		var calls []string
		rw.OnBeforeWrite(func() {
			calls = append(calls, "first")
			rw.Header().Set("Set-Cookie", "session_id=abc")
		})
		rw.OnBeforeWrite(func() { calls = append(calls, "second") })

		rw.WriteHeader(http.StatusSeeOther)
		_, _ = rw.Write([]byte("x"))

		require.Equal(t, []string{"first", "second"}, calls)
		require.Equal(t, "session_id=abc", w.Header().Get("Set-Cookie"))
	})

	t.Run("hooks run on implicit write", func(t *testing.T) {
		t.Parallel()

		rw := NewResponseWriter(httptest.NewRecorder())
		ran := false
		rw.OnBeforeWrite(func() { ran = true })

		_, _ = rw.Write([]byte("body"))
		require.True(t, ran)
	})

	t.Run("late hooks are ignored", func(t *testing.T) {
		t.Parallel()

		rw := NewResponseWriter(httptest.NewRecorder())
		rw.WriteHeader(http.StatusOK)

		ran := false
		rw.OnBeforeWrite(func() { ran = true })
		_, _ = rw.Write([]byte("body"))
		require.False(t, ran)
	})
}

func TestResponseWriter_Unwrap(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	rw := NewResponseWriter(w)

	require.Same(t, w, rw.Unwrap())

	rw.Flush()
	require.True(t, w.Flushed)
}
