package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleHandler_PkgLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	//nolint:exhaustruct
	handler := &ConsoleHandler{
		Output: &buf,
		Level:  LevelInfo,
		PkgLevels: map[string]slog.Level{
			"repo":         LevelDebug,
			"svc.mediasvc": LevelError,
		},
	}

	ctx := context.Background()

	slog.New(handler).With(LoggerNameKey, "repo.content.sqlite").DebugContext(ctx, "repo debug")
	slog.New(handler).With(LoggerNameKey, "svc.mediasvc.media_service").WarnContext(ctx, "media warn")
	slog.New(handler).With(LoggerNameKey, "svc.postsvc").DebugContext(ctx, "post debug")
	slog.New(handler).With(LoggerNameKey, "svc.postsvc").InfoContext(ctx, "post info", "id", 7)

	out := buf.String()

	assert.Contains(t, out, "repo debug", "prefix entry lowers the level")
	assert.NotContains(t, out, "media warn", "prefix entry raises the level")
	assert.NotContains(t, out, "post debug", "default level applies without entry")
	assert.Contains(t, out, "post info")
	assert.Contains(t, out, "id=")
}

func TestLoggerConfig_pkgLevels(t *testing.T) {
	t.Parallel()

	//nolint:exhaustruct
	cfg := LoggerConfig{Filter: "repo:debug, svc.mediasvc:WARN,broken,svc:nope"}

	assert.Equal(t, map[string]slog.Level{
		"repo":         LevelDebug,
		"svc.mediasvc": LevelWarn,
		"svc":          LevelDebug,
	}, cfg.pkgLevels())
}
