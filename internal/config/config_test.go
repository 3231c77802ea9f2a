package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultRoot, cfg.Root)
	assert.Equal(t, time.Hour, cfg.Cache.TTL.Duration)
	assert.Equal(t, 4096, cfg.Cache.Capacity)
	assert.Equal(t, 100000, cfg.Traverse.MaxNodes)
	assert.Equal(t, 8, cfg.Traverse.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout.Duration)
	assert.Equal(t, 1.0, cfg.Index.CellSize)
	assert.Equal(t, 5, cfg.Index.H3Resolution)
	assert.Equal(t, time.Hour, cfg.RefreshEvery())
	require.NoError(t, cfg.Validate())
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stac.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
root = "s3://bucket/catalog.json"

[cache]
ttl = "15m"
dir = "/tmp/stac"

[traverse]
max_nodes = 50
skip_fetch_errors = true

[index]
cell_size = 0.5

[server]
refresh_interval = "5m"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/catalog.json", cfg.Root)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL.Duration)
	assert.Equal(t, 4096, cfg.Cache.Capacity, "unset keys keep defaults")
	assert.Equal(t, "/tmp/stac", cfg.Cache.Dir)
	assert.Equal(t, 50, cfg.Traverse.MaxNodes)
	assert.True(t, cfg.Traverse.SkipFetchErrors)
	assert.Equal(t, 0.5, cfg.Index.CellSize)
	assert.Equal(t, 5*time.Minute, cfg.RefreshEvery())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, `[cache]
ttl = "forever"`))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"STAC_ROOT":              "https://example.com/catalog.json",
		"STAC_CACHE_TTL":         "2h",
		"STAC_MAX_NODES":         "0",
		"STAC_CELL_SIZE":         "2.5",
		"STAC_SKIP_FETCH_ERRORS": "true",
		"STAC_LOG_LEVEL":         "debug",
	}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, "https://example.com/catalog.json", cfg.Root)
	assert.Equal(t, 2*time.Hour, cfg.Cache.TTL.Duration)
	assert.Equal(t, 0, cfg.Traverse.MaxNodes)
	assert.Equal(t, 2.5, cfg.Index.CellSize)
	assert.True(t, cfg.Traverse.SkipFetchErrors)
	assert.Equal(t, "debug", cfg.Logging.Level)

	env = map[string]string{"STAC_CONCURRENCY": "many", "STAC_CACHE_TTL": "soon"}
	cfg = Default()
	err := cfg.ApplyEnv(lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STAC_CONCURRENCY")
	assert.Contains(t, err.Error(), "STAC_CACHE_TTL")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Cache.Capacity = 0
	cfg.Traverse.Concurrency = 0
	cfg.Index.H3Resolution = 16
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capacity")
	assert.Contains(t, err.Error(), "concurrency")
	assert.Contains(t, err.Error(), "h3 resolution")
}

func TestFromCommand(t *testing.T) {
	path := writeFile(t, `root = "https://file.example.com/catalog.json"
[cache]
capacity = 10`)

	var got Config
	cmd := &cli.Command{
		Name:  "test",
		Flags: Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			var err error
			got, err = FromCommand(cmd)
			return err
		},
	}
	err := cmd.Run(context.Background(), []string{"test", "--config", path, "--max-nodes", "7", "--cache-ttl", "10m"})
	require.NoError(t, err)

	assert.Equal(t, "https://file.example.com/catalog.json", got.Root)
	assert.Equal(t, 10, got.Cache.Capacity)
	assert.Equal(t, 7, got.Traverse.MaxNodes)
	assert.Equal(t, 10*time.Minute, got.Cache.TTL.Duration)
	assert.Equal(t, 8, got.Traverse.Concurrency, "unset flags do not override")
}
