package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
allowed_versions: ["153", "130"]
log_level: debug
rate_limit:
  enabled: true
  address_connects_per_second: 2
  address_events_per_second: 50
  user_events_per_second: 25
worlds:
  blizzard:
    port: 6112
    max_users: 200
  frostbite:
    port: 6113
    ws_port: 6114
    max_users: 100
redis:
  addr: "localhost:6379"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"153", "130"}, cfg.AllowedVersions)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 2.0, cfg.RateLimit.AddressConnectsPerSecond)
	assert.Equal(t, 6114, cfg.Worlds["frostbite"].WSPort)
	assert.Equal(t, 200, cfg.Worlds["blizzard"].MaxUsers)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadRejectsBadWorlds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{
			name: "no worlds",
			body: "worlds: {}\n",
		},
		{
			name: "invalid port",
			body: "worlds:\n  w:\n    port: 0\n    max_users: 10\n",
		},
		{
			name: "zero max users",
			body: "worlds:\n  w:\n    port: 6112\n    max_users: 0\n",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestVersionAllowed(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.True(t, cfg.VersionAllowed("153"))
	assert.False(t, cfg.VersionAllowed("999"))
}

func TestSlogLevelDefaultsToInfo(t *testing.T) {
	t.Parallel()

	cfg := &Config{LogLevel: "bogus"}
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}
