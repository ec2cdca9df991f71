package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/drivedesk/pkg/logger"
)

type ctxKey struct{}

func requestID(ctx context.Context) (slog.Attr, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	if !ok {
		return slog.Attr{}, false
	}
	return slog.String("request_id", id), true
}

func TestNew_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, flush := logger.New(logger.Config{Level: "debug", Output: &buf}, requestID, nil)
	require.NoError(t, flush(context.Background()))

	ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
	log.DebugContext(ctx, "listing folder", slog.String("folder_id", "root"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "listing folder", rec["msg"])
	require.Equal(t, "DEBUG", rec["level"])
	require.Equal(t, "req-1", rec["request_id"])
	require.Equal(t, "root", rec["folder_id"])
}

func TestNew_TextAndLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, _ := logger.New(logger.Config{Level: "warn", Format: "text", Output: &buf})

	log.Info("hidden")
	log.With(slog.String("component", "drive")).Warn("shown")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "msg=shown")
	require.Contains(t, out, "component=drive")
	require.Equal(t, 1, strings.Count(out, "\n"))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	require.Equal(t, slog.LevelDebug, logger.ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, logger.ParseLevel("warning"))
	require.Equal(t, slog.LevelError, logger.ParseLevel(" error "))
	require.Equal(t, slog.LevelInfo, logger.ParseLevel("verbose"))
	require.Equal(t, slog.LevelInfo, logger.ParseLevel(""))
}

func TestNewNope(t *testing.T) {
	t.Parallel()

	log := logger.NewNope()
	require.False(t, log.Enabled(context.Background(), slog.LevelError))
}
