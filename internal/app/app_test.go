package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/opphub/internal/config"
	"github.com/MrSnakeDoc/opphub/internal/logger"
	"github.com/MrSnakeDoc/opphub/internal/sources"
)

func TestCloseConnectionsReleasesRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	require.NoError(t, client.Ping(context.Background()).Err())

	closeConnections(logger.NewNop(), nil, client)

	assert.ErrorIs(t, client.Ping(context.Background()).Err(), goredis.ErrClosed)
}

func TestCloseConnectionsWithNothingOpen(t *testing.T) {
	assert.NotPanics(t, func() { closeConnections(logger.NewNop(), nil, nil) })
}

func TestLoadSourcesOverlaysCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources:\n  adzuna:\n    countries: [gb]\n"), 0o600))

	cfg := &config.Config{
		SourcesFile:      path,
		AdzunaAppID:      "id",
		AdzunaAppKey:     "key",
		ReliefWebAppName: "hub-test",
	}
	got, err := loadSources(cfg)
	require.NoError(t, err)

	adzuna := got.Sources[sources.KeyAdzuna]
	assert.Equal(t, "id", adzuna.AppID)
	assert.Equal(t, "key", adzuna.AppKey)
	assert.Equal(t, []string{"gb"}, adzuna.Countries)
	assert.Equal(t, "hub-test", got.Sources[sources.KeyReliefWeb].AppName)
}

func TestLoadSourcesRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources: [unterminated"), 0o600))

	_, err := loadSources(&config.Config{SourcesFile: path})
	assert.Error(t, err)
}
