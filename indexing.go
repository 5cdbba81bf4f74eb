package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lexandro/contextrank-mcp/ignore"
	"github.com/lexandro/contextrank-mcp/index"
	"github.com/lexandro/contextrank-mcp/language"
	"github.com/lexandro/contextrank-mcp/watcher"
)

// changeNotifier is told when the file tree changed.
type changeNotifier interface {
	NotifyFileChange()
}

// walkProject calls visit for every eligible file under startDir, which is
// rootDir or one of its subdirectories.
func walkProject(rootDir, startDir string, ignoreMatcher *ignore.Matcher, visit func(absolutePath, relativePath string, info os.FileInfo)) {
	filepath.WalkDir(startDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != rootDir && ignoreMatcher.ShouldIgnoreDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if ignoreMatcher.ShouldIgnore(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		if ignoreMatcher.IsFileTooLarge(info.Size()) {
			return nil
		}
		visit(path, relativeSlashPath(rootDir, path), info)
		return nil
	})
}

// performIndexing walks the root directory and adds all eligible files to
// the file index. Returns the number of files indexed and total bytes.
func performIndexing(rootDir string, fileIndex *index.FileIndex, ignoreMatcher *ignore.Matcher, logger *slog.Logger) (int, int64) {
	return indexTree(rootDir, rootDir, fileIndex, ignoreMatcher, logger)
}

// indexTree indexes startDir with a bounded worker pool.
func indexTree(
	rootDir string,
	startDir string,
	fileIndex *index.FileIndex,
	ignoreMatcher *ignore.Matcher,
	logger *slog.Logger,
) (int, int64) {
	var indexedCount int
	var totalSize int64
	var mu sync.Mutex

	const workerCount = 8
	type indexJob struct {
		path    string
		relPath string
		info    os.FileInfo
	}
	jobs := make(chan indexJob, 100)

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if err := indexSingleFile(job.path, job.relPath, job.info, fileIndex); err != nil {
					logger.Debug("skipped file", "path", job.relPath, "error", err)
					continue
				}
				mu.Lock()
				indexedCount++
				totalSize += job.info.Size()
				mu.Unlock()
			}
		}()
	}

	walkProject(rootDir, startDir, ignoreMatcher, func(absolutePath, relativePath string, info os.FileInfo) {
		jobs <- indexJob{path: absolutePath, relPath: relativePath, info: info}
	})

	close(jobs)
	wg.Wait()
	return indexedCount, totalSize
}

// indexSingleFile reads one file and records it in the file index. Binary
// files are kept in the tree but marked as not text.
func indexSingleFile(absolutePath string, relativePath string, info os.FileInfo, fileIndex *index.FileIndex) error {
	content, err := index.ReadFileWithRetry(absolutePath)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	isText := !language.IsBinaryContent(content)
	lineCount := 0
	if isText && len(content) > 0 {
		lineCount = strings.Count(string(content), "\n") + 1
	}

	fileIndex.AddFile(&index.ProjectFile{
		Path:         absolutePath,
		RelativePath: relativePath,
		Language:     language.DetectLanguage(absolutePath),
		SizeBytes:    info.Size(),
		ModTime:      info.ModTime(),
		LineCount:    lineCount,
		IsText:       isText,
	})
	return nil
}

// handleWatcherEvents applies debounced batches to the file index and tells
// the notifier about every batch that changed the tree. It returns when ctx
// is done or events is closed.
func handleWatcherEvents(
	ctx context.Context,
	events <-chan []watcher.DebouncedEvent,
	rootDir string,
	fileIndex *index.FileIndex,
	ignoreMatcher *ignore.Matcher,
	notifier changeNotifier,
	logger *slog.Logger,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-events:
			if !ok {
				return
			}
			if applyWatcherBatch(batch, rootDir, fileIndex, ignoreMatcher, logger) {
				notifier.NotifyFileChange()
			}
		}
	}
}

// applyWatcherBatch updates the file index for one batch and reports whether
// anything in the tree changed.
func applyWatcherBatch(
	batch []watcher.DebouncedEvent,
	rootDir string,
	fileIndex *index.FileIndex,
	ignoreMatcher *ignore.Matcher,
	logger *slog.Logger,
) bool {
	changed := false
	rulesChanged := false

	for _, event := range batch {
		relPath := relativeSlashPath(rootDir, event.Path)

		switch event.Op {
		case watcher.OpRemove, watcher.OpRename:
			if fileIndex.GetFile(relPath) != nil {
				fileIndex.RemoveFile(relPath)
				changed = true
			}
			if removed := fileIndex.RemoveDir(relPath); removed > 0 {
				logger.Debug("removed directory from index", "path", relPath, "files", removed)
				changed = true
			}
			if ignore.IsIgnoreFile(filepath.Base(event.Path)) {
				rulesChanged = true
			}

		case watcher.OpCreate, watcher.OpWrite:
			if ignore.IsIgnoreFile(filepath.Base(event.Path)) {
				rulesChanged = true
			}
			if ignoreMatcher.ShouldIgnore(event.Path) {
				continue
			}

			info, err := os.Stat(event.Path)
			if err != nil {
				continue
			}
			if info.IsDir() {
				count, _ := indexTree(rootDir, event.Path, fileIndex, ignoreMatcher, logger)
				logger.Debug("indexed new directory", "path", relPath, "files", count)
				changed = changed || count > 0
				continue
			}
			if !info.Mode().IsRegular() {
				continue
			}
			if ignoreMatcher.IsFileTooLarge(info.Size()) {
				if fileIndex.GetFile(relPath) != nil {
					fileIndex.RemoveFile(relPath)
					logger.Debug("dropped file over size limit", "path", relPath, "size", info.Size())
					changed = true
				}
				continue
			}

			if err := indexSingleFile(event.Path, relPath, info, fileIndex); err != nil {
				logger.Debug("skipped file update", "path", relPath, "error", err)
				continue
			}
			logger.Debug("updated index", "path", relPath)
			changed = true
		}
	}

	if rulesChanged {
		ignoreMatcher.Reload()
		result := performSyncVerification(rootDir, fileIndex, ignoreMatcher, logger)
		logger.Info("reloaded ignore rules",
			"missing", result.MissingFiles,
			"stale", result.StaleFiles,
		)
		changed = true
	}
	return changed
}

func relativeSlashPath(rootDir, absolutePath string) string {
	relPath, err := filepath.Rel(rootDir, absolutePath)
	if err != nil {
		return filepath.ToSlash(absolutePath)
	}
	return filepath.ToSlash(relPath)
}
