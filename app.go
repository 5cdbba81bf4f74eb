package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/lexandro/contextrank-mcp/config"
	"github.com/lexandro/contextrank-mcp/githistory"
	"github.com/lexandro/contextrank-mcp/graph"
	"github.com/lexandro/contextrank-mcp/ignore"
	"github.com/lexandro/contextrank-mcp/index"
	"github.com/lexandro/contextrank-mcp/relevance"
	"github.com/lexandro/contextrank-mcp/scheduler"
	"github.com/lexandro/contextrank-mcp/server"
	"github.com/lexandro/contextrank-mcp/tools"
)

// app holds the services of one project root.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	startTime time.Time

	ignore    *ignore.Matcher
	files     *index.FileIndex
	reader    index.DiskReader
	graph     *graph.Service
	git       *githistory.Service
	engine    *relevance.Engine
	scheduler *scheduler.Scheduler
}

func newApp(cfg *config.Config, logger *slog.Logger) *app {
	a := &app{
		cfg:       cfg,
		logger:    logger,
		startTime: time.Now(),
		files:     index.NewFileIndex(),
		reader:    index.DiskReader{RootDir: cfg.RootDir},
	}

	a.ignore = ignore.NewMatcher(ignore.MatcherOptions{
		RootDir:          cfg.RootDir,
		CustomPatterns:   withCacheDirExcluded(cfg.Exclude, cfg.RootDir, cfg.CacheDir),
		MaxFileSizeBytes: cfg.MaxFileSize,
	})
	a.graph = graph.NewService(graph.ServiceOptions{
		Files:     a.files,
		Reader:    a.reader,
		CachePath: cfg.CachePath(graph.CacheFileName),
		Logger:    logger,
	})
	a.git = githistory.New(githistory.Options{
		RootDir:  cfg.RootDir,
		Timeout:  cfg.Git.Timeout,
		CacheTTL: cfg.Git.CacheTTL,
		Logger:   logger,
	})
	a.engine = relevance.NewEngine(relevance.Options{
		Config:  cfg.Relevance,
		Graph:   a.graph,
		Files:   a.files,
		History: a.git,
		Reader:  a.reader,
		Logger:  logger,
	})
	a.scheduler = scheduler.New(scheduler.Options{
		Rebuild:          a.rebuildGraph,
		QuiescenceWindow: cfg.Rebuild.QuiescenceWindow,
		IdleWindow:       cfg.Rebuild.IdleWindow,
		Logger:           logger,
	})
	return a
}

// withCacheDirExcluded keeps a cache directory inside the root out of the
// file tree. Otherwise every cache write would look like a project change.
func withCacheDirExcluded(excludes []string, rootDir, cacheDir string) []string {
	patterns := append([]string(nil), excludes...)
	rel, err := filepath.Rel(rootDir, cacheDir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return patterns
	}
	rel = filepath.ToSlash(rel)
	return append(patterns, rel, rel+"/**")
}

// indexFiles walks the root into the file index.
func (a *app) indexFiles() {
	start := time.Now()
	count, size := performIndexing(a.cfg.RootDir, a.files, a.ignore, a.logger)
	a.logger.Info("initial indexing complete",
		"files", count,
		"totalSize", size,
		"duration", time.Since(start),
	)
}

// load indexes the file tree and publishes a graph, from the cache when it
// still matches the tree.
func (a *app) load(ctx context.Context) error {
	a.indexFiles()
	snap, err := a.graph.Prime(ctx)
	if err != nil {
		return fmt.Errorf("building project graph: %w", err)
	}
	a.logger.Info("project graph ready",
		"version", snap.Version,
		"files", snap.FileCount(),
		"edges", snap.EdgeCount(),
	)
	return nil
}

// rebuildGraph is the scheduler's rebuild: verify the file tree, drop cached
// git answers and publish a fresh graph.
func (a *app) rebuildGraph(ctx context.Context) error {
	result := performSyncVerification(a.cfg.RootDir, a.files, a.ignore, a.logger)
	if result.Changed() {
		a.logger.Info("file tree corrected before rebuild",
			"missing", result.MissingFiles,
			"stale", result.StaleFiles,
			"modified", result.ModifiedFiles,
		)
	}
	a.git.Invalidate()

	start := time.Now()
	snap, err := a.graph.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("rebuilding project graph: %w", err)
	}
	a.logger.Info("project graph rebuilt",
		"version", snap.Version,
		"files", snap.FileCount(),
		"edges", snap.EdgeCount(),
		"duration", time.Since(start),
	)
	return nil
}

// handlers wires the MCP tool handlers to the services.
func (a *app) handlers() server.Handlers {
	return server.Handlers{
		Recalculate: &tools.RecalculateHandler{Engine: a.engine, Input: a.scheduler, Logger: a.logger},
		Rebuild: &tools.RebuildHandler{
			DoRebuild: func(ctx context.Context) error {
				return a.scheduler.Trigger(ctx, true)
			},
			Graph:  a.graph,
			Logger: a.logger,
		},
		Hubs:    &tools.HubsHandler{Graph: a.graph, DefaultTopN: a.cfg.Relevance.HubTopN, Logger: a.logger},
		Preview: &tools.PreviewHandler{Engine: a.engine, Logger: a.logger},
		Status: &tools.StatusHandler{
			FileIndex: a.files,
			Graph:     a.graph,
			Git:       a.git,
			Scheduler: a.scheduler,
			StartTime: a.startTime,
			RootDir:   a.cfg.RootDir,
			Logger:    a.logger,
		},
		UIState: &tools.UIStateHandler{Tracker: a.scheduler, Logger: a.logger},
		Files:   &tools.FilesHandler{FileIndex: a.files, Logger: a.logger},
	}
}
