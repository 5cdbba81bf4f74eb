package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexandro/contextrank-mcp/ignore"
	"github.com/lexandro/contextrank-mcp/index"
	"github.com/lexandro/contextrank-mcp/watcher"
)

func writeProjectFile(t *testing.T, root, relPath, content string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func Test_performIndexing_RecordsTextAndBinaryFiles(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "src/app.ts", "import { x } from './x'\n\nexport const app = x\n")
	writeProjectFile(t, root, "assets/data.bin", "\x00\x01\x02binary")
	writeProjectFile(t, root, "node_modules/lib/index.js", "module.exports = 1\n")
	writeProjectFile(t, root, "empty.txt", "")

	fileIndex := index.NewFileIndex()
	count, size := performIndexing(root, fileIndex, testIgnoreMatcher(root), testLogger())

	assert.Equal(t, 3, count)
	assert.Positive(t, size)

	app := fileIndex.GetFile("src/app.ts")
	require.NotNil(t, app)
	assert.True(t, app.IsText)
	assert.Equal(t, 4, app.LineCount)
	assert.Equal(t, filepath.Join(root, "src", "app.ts"), app.Path)

	bin := fileIndex.GetFile("assets/data.bin")
	require.NotNil(t, bin)
	assert.False(t, bin.IsText)
	assert.Zero(t, bin.LineCount)

	empty := fileIndex.GetFile("empty.txt")
	require.NotNil(t, empty)
	assert.True(t, empty.IsText)
	assert.Zero(t, empty.LineCount)

	assert.Nil(t, fileIndex.GetFile("node_modules/lib/index.js"))
}

func Test_applyWatcherBatch_WriteAndRemove(t *testing.T) {
	root := t.TempDir()
	kept := writeProjectFile(t, root, "kept.go", "package main\n")
	gone := writeProjectFile(t, root, "gone.go", "package main\n")
	fileIndex := index.NewFileIndex()
	matcher := testIgnoreMatcher(root)
	performIndexing(root, fileIndex, matcher, testLogger())

	writeProjectFile(t, root, "kept.go", "package main\n\nfunc main() {}\n")
	require.NoError(t, os.Remove(gone))

	changed := applyWatcherBatch([]watcher.DebouncedEvent{
		{Path: gone, Op: watcher.OpRemove},
		{Path: kept, Op: watcher.OpWrite},
	}, root, fileIndex, matcher, testLogger())

	assert.True(t, changed)
	assert.Nil(t, fileIndex.GetFile("gone.go"))
	require.NotNil(t, fileIndex.GetFile("kept.go"))
	assert.Equal(t, 4, fileIndex.GetFile("kept.go").LineCount)
}

func Test_applyWatcherBatch_DirectoryCreateAndRemove(t *testing.T) {
	root := t.TempDir()
	fileIndex := index.NewFileIndex()
	matcher := testIgnoreMatcher(root)

	dir := filepath.Join(root, "feature")
	writeProjectFile(t, root, "feature/a.ts", "export const a = 1\n")
	writeProjectFile(t, root, "feature/deep/b.ts", "export const b = 2\n")

	changed := applyWatcherBatch([]watcher.DebouncedEvent{{Path: dir, Op: watcher.OpCreate}},
		root, fileIndex, matcher, testLogger())
	assert.True(t, changed)
	assert.Equal(t, 2, fileIndex.FileCount())

	require.NoError(t, os.RemoveAll(dir))
	changed = applyWatcherBatch([]watcher.DebouncedEvent{{Path: dir, Op: watcher.OpRemove}},
		root, fileIndex, matcher, testLogger())
	assert.True(t, changed)
	assert.Zero(t, fileIndex.FileCount())
}

func Test_applyWatcherBatch_DropsFileGrownPastSizeLimit(t *testing.T) {
	root := t.TempDir()
	data := writeProjectFile(t, root, "data.json", "{}\n")
	fileIndex := index.NewFileIndex()
	matcher := ignore.NewMatcher(ignore.MatcherOptions{RootDir: root, MaxFileSizeBytes: 64})
	performIndexing(root, fileIndex, matcher, testLogger())
	require.NotNil(t, fileIndex.GetFile("data.json"))

	writeProjectFile(t, root, "data.json", strings.Repeat("x", 128))
	changed := applyWatcherBatch([]watcher.DebouncedEvent{{Path: data, Op: watcher.OpWrite}},
		root, fileIndex, matcher, testLogger())

	assert.True(t, changed)
	assert.Nil(t, fileIndex.GetFile("data.json"))

	changed = applyWatcherBatch([]watcher.DebouncedEvent{{Path: data, Op: watcher.OpWrite}},
		root, fileIndex, matcher, testLogger())
	assert.False(t, changed)
}

func Test_applyWatcherBatch_IgnoredPathIsNoChange(t *testing.T) {
	root := t.TempDir()
	fileIndex := index.NewFileIndex()
	logPath := writeProjectFile(t, root, "server.log", "started\n")

	changed := applyWatcherBatch([]watcher.DebouncedEvent{{Path: logPath, Op: watcher.OpWrite}},
		root, fileIndex, testIgnoreMatcher(root), testLogger())

	assert.False(t, changed)
	assert.Zero(t, fileIndex.FileCount())
}

func Test_applyWatcherBatch_IgnoreRulesReload(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "src/main.go", "package main\n")
	writeProjectFile(t, root, "fixtures/big.json", "{}\n")
	fileIndex := index.NewFileIndex()
	matcher := testIgnoreMatcher(root)
	performIndexing(root, fileIndex, matcher, testLogger())
	require.NotNil(t, fileIndex.GetFile("fixtures/big.json"))

	rules := writeProjectFile(t, root, ".gitignore", "fixtures/\n")
	changed := applyWatcherBatch([]watcher.DebouncedEvent{{Path: rules, Op: watcher.OpCreate}},
		root, fileIndex, matcher, testLogger())

	assert.True(t, changed)
	assert.Nil(t, fileIndex.GetFile("fixtures/big.json"))
	assert.NotNil(t, fileIndex.GetFile("src/main.go"))
}

func Test_handleWatcherEvents_NotifiesPerChangingBatch(t *testing.T) {
	root := t.TempDir()
	fileIndex := index.NewFileIndex()
	notifier := &countingNotifier{}
	events := make(chan []watcher.DebouncedEvent)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		handleWatcherEvents(ctx, events, root, fileIndex, testIgnoreMatcher(root), notifier, testLogger())
		close(done)
	}()

	src := writeProjectFile(t, root, "a.go", "package a\n")
	logPath := writeProjectFile(t, root, "a.log", "x\n")
	events <- []watcher.DebouncedEvent{{Path: src, Op: watcher.OpCreate}}
	events <- []watcher.DebouncedEvent{{Path: logPath, Op: watcher.OpCreate}}
	events <- []watcher.DebouncedEvent{{Path: filepath.Join(root, "never.go"), Op: watcher.OpRemove}}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handleWatcherEvents did not return after cancel")
	}

	assert.Equal(t, int32(1), notifier.calls.Load())
	assert.NotNil(t, fileIndex.GetFile("a.go"))
}
