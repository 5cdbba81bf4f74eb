package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexandro/contextrank-mcp/config"
	"github.com/lexandro/contextrank-mcp/graph"
)

func newTestApp(t *testing.T, root string) *app {
	t.Helper()
	cfg := config.Default(root)
	cfg.CacheDir = filepath.Join(root, ".contextrank")
	require.NoError(t, cfg.Validate())
	return newApp(&cfg, testLogger())
}

func writeShopProject(t *testing.T, root string) {
	t.Helper()
	writeProjectFile(t, root, "src/api.ts", "import { format } from './util'\n\nexport function api() { return format() }\n")
	writeProjectFile(t, root, "src/util.ts", "export function format() { return '' }\n")
	writeProjectFile(t, root, "README.md", "# Shop\n")
}

func Test_app_LoadBuildsGraphAndCache(t *testing.T) {
	root := t.TempDir()
	writeShopProject(t, root)
	a := newTestApp(t, root)

	require.NoError(t, a.load(context.Background()))

	snap := a.graph.Current()
	assert.Equal(t, 3, a.files.FileCount())
	assert.Equal(t, []string{"src/api.ts"}, snap.ImportedBy("src/util.ts"))
	assert.FileExists(t, a.cfg.CachePath(graph.CacheFileName))

	reopened := newTestApp(t, root)
	require.NoError(t, reopened.load(context.Background()))
	assert.Equal(t, 1, reopened.graph.Current().EdgeCount())
	assert.Nil(t, reopened.files.GetFile(".contextrank/"+graph.CacheFileName), "cache stays out of the file tree")
}

func Test_app_RecalculateRanksDirectDependency(t *testing.T) {
	root := t.TempDir()
	writeShopProject(t, root)
	a := newTestApp(t, root)
	require.NoError(t, a.load(context.Background()))

	result, err := a.engine.Recalculate(context.Background(), []string{"src/api.ts"}, "")
	require.NoError(t, err)

	assert.Contains(t, result.PromptNeighbors, "src/util.ts")
	assert.GreaterOrEqual(t, result.Scores["src/util.ts"], 50.0)
	assert.NotContains(t, result.PromptNeighbors, "src/api.ts")
}

func Test_app_RebuildGraphPicksUpMissedFiles(t *testing.T) {
	root := t.TempDir()
	writeShopProject(t, root)
	a := newTestApp(t, root)
	require.NoError(t, a.load(context.Background()))
	before := a.graph.Current().Version

	writeProjectFile(t, root, "src/cart.ts", "import { format } from './util'\n")
	require.NoError(t, a.rebuildGraph(context.Background()))

	snap := a.graph.Current()
	assert.Greater(t, snap.Version, before)
	assert.Equal(t, []string{"src/api.ts", "src/cart.ts"}, snap.ImportedBy("src/util.ts"))
	assert.False(t, a.graph.IsStale())
}

func Test_withCacheDirExcluded(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "work", "shop")
	tests := []struct {
		name     string
		cacheDir string
		want     []string
	}{
		{"inside root", filepath.Join(root, "tmp", "rank"), []string{"docs/**", "tmp/rank", "tmp/rank/**"}},
		{"outside root", filepath.Join(string(filepath.Separator), "var", "cache"), []string{"docs/**"}},
		{"root itself", root, []string{"docs/**"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, withCacheDirExcluded([]string{"docs/**"}, root, tt.cacheDir))
		})
	}
}

func Test_registerCommand_WritesProjectConfig(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"register", "project", dir, "--name", "rank", "--", "--exclude", "fixtures/**"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		registerName = ""
	})

	require.NoError(t, rootCmd.Execute())

	configPath := filepath.Join(dir, ".mcp.json")
	assert.Contains(t, out.String(), configPath)

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	var cfg struct {
		MCPServers map[string]struct {
			Command string   `json:"command"`
			Args    []string `json:"args"`
		} `json:"mcpServers"`
	}
	require.NoError(t, json.Unmarshal(data, &cfg))
	require.Contains(t, cfg.MCPServers, "rank")
	assert.Equal(t, []string{"--exclude", "fixtures/**"}, cfg.MCPServers["rank"].Args)
}
