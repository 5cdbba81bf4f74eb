package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lexandro/contextrank-mcp/ignore"
	"github.com/lexandro/contextrank-mcp/index"
)

// SyncResult holds the outcome of a single sync verification run.
type SyncResult struct {
	MissingFiles  int // files on disk but not in index
	StaleFiles    int // files in index but not on disk
	ModifiedFiles int // files whose ModTime or size differs
	Duration      time.Duration
}

// Changed reports whether the run corrected the index.
func (r SyncResult) Changed() bool {
	return r.MissingFiles+r.StaleFiles+r.ModifiedFiles > 0
}

// runPeriodicSync verifies the file index against the disk at the given
// interval until ctx is done. Corrections count as file changes, so a missed
// watcher event still leads to a graph rebuild.
func runPeriodicSync(
	ctx context.Context,
	interval time.Duration,
	rootDir string,
	fileIndex *index.FileIndex,
	ignoreMatcher *ignore.Matcher,
	notifier changeNotifier,
	logger *slog.Logger,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("periodic sync started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			logger.Info("periodic sync stopped")
			return
		case <-ticker.C:
			result := performSyncVerification(rootDir, fileIndex, ignoreMatcher, logger)
			if result.Changed() {
				logger.Info("sync verification complete",
					"missing", result.MissingFiles,
					"stale", result.StaleFiles,
					"modified", result.ModifiedFiles,
					"duration", result.Duration,
				)
				notifier.NotifyFileChange()
			} else {
				logger.Debug("sync verification complete, index is in sync", "duration", result.Duration)
			}
		}
	}
}

// performSyncVerification compares the filesystem with the file index and
// re-indexes any out-of-sync files.
func performSyncVerification(
	rootDir string,
	fileIndex *index.FileIndex,
	ignoreMatcher *ignore.Matcher,
	logger *slog.Logger,
) SyncResult {
	start := time.Now()
	var result SyncResult

	diskFiles := make(map[string]os.FileInfo)
	walkProject(rootDir, rootDir, ignoreMatcher, func(absolutePath, relativePath string, info os.FileInfo) {
		diskFiles[relativePath] = info
	})

	indexedFiles := fileIndex.AllFiles()
	indexedSet := make(map[string]*index.ProjectFile, len(indexedFiles))
	for _, f := range indexedFiles {
		indexedSet[f.RelativePath] = f
	}

	for relPath, info := range diskFiles {
		indexed, exists := indexedSet[relPath]
		if exists && info.ModTime().Equal(indexed.ModTime) && info.Size() == indexed.SizeBytes {
			continue
		}
		absPath := filepath.Join(rootDir, filepath.FromSlash(relPath))
		if err := indexSingleFile(absPath, relPath, info, fileIndex); err != nil {
			logger.Debug("sync: skipped file", "path", relPath, "error", err)
			continue
		}
		if exists {
			logger.Debug("sync: re-indexed modified file", "path", relPath)
			result.ModifiedFiles++
		} else {
			logger.Debug("sync: indexed missing file", "path", relPath)
			result.MissingFiles++
		}
	}

	for relPath := range indexedSet {
		if _, exists := diskFiles[relPath]; !exists {
			fileIndex.RemoveFile(relPath)
			logger.Debug("sync: removed stale file", "path", relPath)
			result.StaleFiles++
		}
	}

	result.Duration = time.Since(start)
	return result
}
