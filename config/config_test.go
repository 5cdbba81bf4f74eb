package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexandro/contextrank-mcp/relevance"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, FileName+".yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	return p
}

func Test_Load_Defaults(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load(nil, root)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.RootDir)
	assert.Equal(t, filepath.Join(root, ".contextrank"), cfg.CacheDir)
	assert.Equal(t, filepath.Join(root, "contextrank-mcp.log"), cfg.LogFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, relevance.DefaultConfig(), cfg.Relevance)
	assert.Equal(t, 3*time.Second, cfg.Git.Timeout)
	assert.Equal(t, 3*time.Second, cfg.Rebuild.QuiescenceWindow)
	assert.Equal(t, 5*time.Second, cfg.Rebuild.IdleWindow)
	assert.True(t, cfg.Rebuild.Watch)
	assert.Equal(t, time.Minute, cfg.Rebuild.SyncInterval)
}

func Test_Load_YAMLFile(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
log_level: debug
exclude:
  - "fixtures/**"
relevance:
  max_neighbor_tokens: 4000
  active_edit_window: 30m
  weights:
    sibling: 30
git:
  timeout: 5s
rebuild:
  sync_interval: 0s
`)

	cfg, err := Load(nil, root)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"fixtures/**"}, cfg.Exclude)
	assert.Equal(t, 4000, cfg.Relevance.MaxNeighborTokens)
	assert.Equal(t, 30*time.Minute, cfg.Relevance.ActiveEditWindow)
	assert.Equal(t, 30.0, cfg.Relevance.Weights.Sibling)
	assert.Equal(t, 50.0, cfg.Relevance.Weights.DirectDependency, "unset weights keep their defaults")
	assert.Equal(t, 5*time.Second, cfg.Git.Timeout)
	assert.Zero(t, cfg.Rebuild.SyncInterval, "zero disables periodic sync")
}

func Test_Load_EnvironmentOverridesFile(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "relevance:\n  seed_basket_size: 6\n")
	t.Setenv("CONTEXTRANK_RELEVANCE_SEED_BASKET_SIZE", "7")
	t.Setenv("CONTEXTRANK_GIT_TIMEOUT", "1s")

	cfg, err := Load(nil, root)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Relevance.SeedBasketSize)
	assert.Equal(t, time.Second, cfg.Git.Timeout)
}

func Test_Load_FlagsOverrideEverything(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "relevance:\n  max_neighbor_tokens: 4000\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{
		"--root", root,
		"--max-neighbor-tokens=2500",
		"--watch=false",
		"--exclude", "*.snap",
	}))

	cfg, err := Load(flags, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, root, cfg.RootDir)
	assert.Equal(t, 2500, cfg.Relevance.MaxNeighborTokens)
	assert.False(t, cfg.Rebuild.Watch)
	assert.Equal(t, []string{"*.snap"}, cfg.Exclude)
}

func Test_Load_ExplicitConfigFileMustExist(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}))

	_, err := Load(flags, t.TempDir())
	assert.Error(t, err)
}

func Test_Load_RejectsInvalidValues(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
log_level: chatty
rebuild:
  idle_window: 0s
relevance:
  min_preview_lines: 90
`)

	_, err := Load(nil, root)
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "rebuild windows")
	assert.Contains(t, err.Error(), "preview lines")
}

func Test_Config_CachePath(t *testing.T) {
	cfg := Default("/project")
	cfg.CacheDir = "/project/.contextrank"
	assert.Equal(t, filepath.Join("/project/.contextrank", "graph.zst"), cfg.CachePath("graph.zst"))
}
