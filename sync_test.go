package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lexandro/contextrank-mcp/ignore"
	"github.com/lexandro/contextrank-mcp/index"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testIgnoreMatcher(rootDir string) *ignore.Matcher {
	return ignore.NewMatcher(ignore.MatcherOptions{
		RootDir:          rootDir,
		MaxFileSizeBytes: 1024 * 1024,
	})
}

type countingNotifier struct {
	calls atomic.Int32
}

func (n *countingNotifier) NotifyFileChange() {
	n.calls.Add(1)
}

func Test_performSyncVerification_DetectsMissingFiles(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := testIgnoreMatcher(tmpDir)
	fileIndex := index.NewFileIndex()

	// Create a file on disk but don't index it
	os.WriteFile(filepath.Join(tmpDir, "missing.go"), []byte("package main\n"), 0644)

	result := performSyncVerification(tmpDir, fileIndex, matcher, testLogger())

	if result.MissingFiles != 1 {
		t.Errorf("expected 1 missing file, got %d", result.MissingFiles)
	}
	if result.StaleFiles != 0 {
		t.Errorf("expected 0 stale files, got %d", result.StaleFiles)
	}
	if result.ModifiedFiles != 0 {
		t.Errorf("expected 0 modified files, got %d", result.ModifiedFiles)
	}
	if fileIndex.GetFile("missing.go") == nil {
		t.Error("expected missing.go to be indexed after sync")
	}
}

func Test_performSyncVerification_DetectsStaleFiles(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := testIgnoreMatcher(tmpDir)
	fileIndex := index.NewFileIndex()

	// Add a file to the index that doesn't exist on disk
	fileIndex.AddFile(&index.ProjectFile{
		Path:         filepath.Join(tmpDir, "deleted.go"),
		RelativePath: "deleted.go",
		Language:     "Go",
		SizeBytes:    100,
		ModTime:      time.Now(),
		LineCount:    5,
		IsText:       true,
	})

	result := performSyncVerification(tmpDir, fileIndex, matcher, testLogger())

	if result.StaleFiles != 1 {
		t.Errorf("expected 1 stale file, got %d", result.StaleFiles)
	}
	if fileIndex.GetFile("deleted.go") != nil {
		t.Error("expected deleted.go to be removed from the index")
	}
}

func Test_performSyncVerification_DetectsModifiedFiles(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := testIgnoreMatcher(tmpDir)
	fileIndex := index.NewFileIndex()

	filePath := filepath.Join(tmpDir, "modified.go")
	os.WriteFile(filePath, []byte("package main\n"), 0644)
	performIndexing(tmpDir, fileIndex, matcher, testLogger())

	later := time.Now().Add(2 * time.Second)
	os.WriteFile(filePath, []byte("package main\n\nfunc main() {}\n"), 0644)
	os.Chtimes(filePath, later, later)

	result := performSyncVerification(tmpDir, fileIndex, matcher, testLogger())

	if result.ModifiedFiles != 1 {
		t.Errorf("expected 1 modified file, got %d", result.ModifiedFiles)
	}
	indexed := fileIndex.GetFile("modified.go")
	if indexed == nil {
		t.Fatal("expected modified.go to stay indexed")
	}
	if indexed.LineCount != 4 {
		t.Errorf("expected 4 lines after re-index, got %d", indexed.LineCount)
	}
}

func Test_performSyncVerification_InSync(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := testIgnoreMatcher(tmpDir)
	fileIndex := index.NewFileIndex()

	os.WriteFile(filepath.Join(tmpDir, "a.go"), []byte("package a\n"), 0644)
	os.MkdirAll(filepath.Join(tmpDir, "sub"), 0755)
	os.WriteFile(filepath.Join(tmpDir, "sub", "b.go"), []byte("package sub\n"), 0644)
	performIndexing(tmpDir, fileIndex, matcher, testLogger())

	result := performSyncVerification(tmpDir, fileIndex, matcher, testLogger())

	if result.Changed() {
		t.Errorf("expected no discrepancies, got %+v", result)
	}
}

func Test_performSyncVerification_RespectsIgnoreRules(t *testing.T) {
	tmpDir := t.TempDir()
	fileIndex := index.NewFileIndex()

	os.WriteFile(filepath.Join(tmpDir, "kept.go"), []byte("package main\n"), 0644)
	os.WriteFile(filepath.Join(tmpDir, "debug.log"), []byte("log line\n"), 0644)
	os.MkdirAll(filepath.Join(tmpDir, "node_modules", "pkg"), 0755)
	os.WriteFile(filepath.Join(tmpDir, "node_modules", "pkg", "index.js"), []byte("module.exports = {}\n"), 0644)

	result := performSyncVerification(tmpDir, fileIndex, testIgnoreMatcher(tmpDir), testLogger())

	if result.MissingFiles != 1 {
		t.Errorf("expected only kept.go to be indexed, got %d files", result.MissingFiles)
	}
	if fileIndex.GetFile("node_modules/pkg/index.js") != nil {
		t.Error("expected node_modules to be skipped")
	}
}

func Test_runPeriodicSync_NotifiesOnCorrections(t *testing.T) {
	tmpDir := t.TempDir()
	matcher := testIgnoreMatcher(tmpDir)
	fileIndex := index.NewFileIndex()
	notifier := &countingNotifier{}

	// Written before the loop starts so no tick sees a partial file.
	os.WriteFile(filepath.Join(tmpDir, "late.go"), []byte("package main\n"), 0644)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runPeriodicSync(ctx, 10*time.Millisecond, tmpDir, fileIndex, matcher, notifier, testLogger())
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for fileIndex.GetFile("late.go") == nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if fileIndex.GetFile("late.go") == nil {
		t.Fatal("expected periodic sync to index late.go")
	}
	if notifier.calls.Load() != 1 {
		t.Errorf("expected 1 change notification, got %d", notifier.calls.Load())
	}
}
