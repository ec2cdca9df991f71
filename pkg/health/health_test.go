package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/drivedesk/pkg/health"
)

func TestLivenessHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	health.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())

	rec = httptest.NewRecorder()
	health.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live?format=json", nil))
	require.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestReadinessHandler(t *testing.T) {
	t.Parallel()

	t.Run("no checks", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		health.ReadinessHandler(nil)(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("failing check", func(t *testing.T) {
		t.Parallel()

		checks := health.Checks{
			"redis":   func(context.Context) error { return errors.New("connection refused") },
			"session": func(context.Context) error { return nil },
		}

		req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		health.ReadinessHandler(checks)(rec, req)

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var resp health.Response
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Equal(t, health.StatusUnhealthy, resp.Status)
		require.Equal(t, "connection refused", resp.Checks["redis"].Error)
		require.Equal(t, health.StatusHealthy, resp.Checks["session"].Status)
	})

	t.Run("plain text failure", func(t *testing.T) {
		t.Parallel()

		checks := health.Checks{"redis": func(context.Context) error { return errors.New("down") }}
		rec := httptest.NewRecorder()
		health.ReadinessHandler(checks)(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.Equal(t, "Service Unavailable", rec.Body.String())
	})
}

func TestRun_Timeout(t *testing.T) {
	t.Parallel()

	checks := health.Checks{
		"slow": func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}

	start := time.Now()
	resp := health.Run(context.Background(), checks, 20*time.Millisecond)
	require.Less(t, time.Since(start), time.Second)
	require.Equal(t, health.StatusUnhealthy, resp.Status)
	require.Contains(t, resp.Checks["slow"].Error, "health: check timeout")
}

func TestRun_NilCheck(t *testing.T) {
	t.Parallel()

	resp := health.Run(context.Background(), health.Checks{"broken": nil}, time.Second)
	require.Equal(t, health.StatusUnhealthy, resp.Status)
}
