package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/princekumarofficial/tiktok-downloader/internal/config"
)

func TestSetupLogger(t *testing.T) {
	ctx := context.Background()

	assert.True(t, setupLogger(config.EnvLocal).Enabled(ctx, slog.LevelDebug))
	assert.True(t, setupLogger(config.EnvDev).Enabled(ctx, slog.LevelDebug))
	assert.False(t, setupLogger(config.EnvProduction).Enabled(ctx, slog.LevelDebug))
	assert.True(t, setupLogger("unknown").Enabled(ctx, slog.LevelInfo))
}
