package middlewares_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/dmitrymomot/drivedesk/internal"
	"github.com/dmitrymomot/drivedesk/middlewares"
	"github.com/dmitrymomot/drivedesk/pkg/session"
)

func TestRequireCredentials(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	withCreds := session.New("sid-1", "tok-creds", time.Now().Add(time.Hour))
	withCreds.SetCredentials(&oauth2.Token{AccessToken: "at", RefreshToken: "rt"})
	require.NoError(t, store.Create(ctx, withCreds))
	require.NoError(t, store.Create(ctx, session.New("sid-2", "tok-anon", time.Now().Add(time.Hour))))

	app := internal.New(
		internal.WithSession(store),
		internal.WithHandlers(routes(func(r internal.Router) {
			r.Group(func(r internal.Router) {
				r.Use(middlewares.RequireCredentials("/auth/login"))
				r.GET("/drive/folders_and_files", ok)
			})
		})),
	)

	tests := []struct {
		name     string
		cookie   string
		wantCode int
	}{
		{name: "session with credentials", cookie: "tok-creds", wantCode: http.StatusOK},
		{name: "anonymous session", cookie: "tok-anon", wantCode: http.StatusSeeOther},
		{name: "no cookie", wantCode: http.StatusSeeOther},
		{name: "stale cookie", cookie: "tok-gone", wantCode: http.StatusSeeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/drive/folders_and_files", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "session_id", Value: tt.cookie})
			}

			w := serve(app, req)
			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusSeeOther {
				require.Equal(t, "/auth/login", w.Header().Get("Location"))
			}
		})
	}
}

func TestRequireCredentials_NoSessionStore(t *testing.T) {
	t.Parallel()

	var got error
	app := internal.New(
		internal.WithErrorHandler(func(c internal.Context, err error) error {
			got = err
			return c.NoContent(http.StatusInternalServerError)
		}),
		internal.WithHandlers(routes(func(r internal.Router) {
			r.GET("/drive", ok, middlewares.RequireCredentials("/auth/login"))
		})),
	)

	w := serve(app, httptest.NewRequest(http.MethodGet, "/drive", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.ErrorIs(t, got, session.ErrNotConfigured)
}
