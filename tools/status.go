package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/contextrank-mcp/index"
	"github.com/lexandro/contextrank-mcp/language"
	"github.com/lexandro/contextrank-mcp/scheduler"
)

// StatusArgs defines the input parameters for the context_status tool (none required).
type StatusArgs struct{}

// GraphStatus describes the graph service.
type GraphStatus interface {
	GraphSource
	IsStale() bool
	CachePath() string
}

// RepositoryChecker reports whether the root is inside a git work tree.
type RepositoryChecker interface {
	IsRepository(ctx context.Context) bool
}

// SchedulerStatus exposes the rebuild scheduler state.
type SchedulerStatus interface {
	State() scheduler.State
}

// StatusHandler holds the dependencies for the status tool.
type StatusHandler struct {
	FileIndex *index.FileIndex
	Graph     GraphStatus
	Git       RepositoryChecker
	Scheduler SchedulerStatus
	StartTime time.Time
	RootDir   string
	Logger    *slog.Logger
}

// Handle processes a context_status request.
func (h *StatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
	var builder strings.Builder

	fileCount := h.FileIndex.FileCount()
	totalSize := h.FileIndex.TotalSizeBytes()
	langCounts := h.FileIndex.LanguageCounts()
	snap := h.Graph.Current()
	uptime := time.Since(h.StartTime)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	h.Logger.Info("context_status",
		"files", fileCount,
		"graphVersion", snap.Version,
		"memory", memStats.Alloc,
		"uptime", uptime,
	)

	builder.WriteString("=== contextrank-mcp Status ===\n\n")
	builder.WriteString(fmt.Sprintf("Root directory: %s\n", h.RootDir))
	builder.WriteString(fmt.Sprintf("Uptime: %s\n", formatDuration(uptime)))
	builder.WriteString(fmt.Sprintf("Project files: %d (%s)\n", fileCount, formatFileSize(totalSize)))
	builder.WriteString(fmt.Sprintf("Memory usage: %s (heap: %s)\n",
		formatFileSize(int64(memStats.Alloc)),
		formatFileSize(int64(memStats.HeapAlloc)),
	))

	builder.WriteString("\nProject graph:\n")
	builder.WriteString(fmt.Sprintf("  Version: %d\n", snap.Version))
	builder.WriteString(fmt.Sprintf("  Files: %d, import edges: %d\n", snap.FileCount(), snap.EdgeCount()))
	if !snap.BuiltAt.IsZero() {
		builder.WriteString(fmt.Sprintf("  Built: %s ago\n", formatDuration(time.Since(snap.BuiltAt))))
	}
	builder.WriteString(fmt.Sprintf("  Stale: %t\n", h.Graph.IsStale()))
	if cachePath := h.Graph.CachePath(); cachePath != "" {
		builder.WriteString(fmt.Sprintf("  Cache: %s\n", cachePath))
	}

	if h.Scheduler != nil {
		st := h.Scheduler.State()
		builder.WriteString("\nRebuilds:\n")
		builder.WriteString(fmt.Sprintf("  Completed: %d\n", st.Rebuilds))
		builder.WriteString(fmt.Sprintf("  Running: %t, pending: %t, changes waiting: %t\n", st.Running, st.Pending, st.Dirty))
		builder.WriteString(fmt.Sprintf("  UI focused: %t\n", st.Focused))
		if st.LastDuration > 0 {
			builder.WriteString(fmt.Sprintf("  Last duration: %s\n", st.LastDuration.Round(time.Millisecond)))
		}
		if st.LastError != "" {
			builder.WriteString(fmt.Sprintf("  Last error: %s\n", st.LastError))
		}
	}

	if h.Git != nil {
		builder.WriteString(fmt.Sprintf("\nGit repository: %t\n", h.Git.IsRepository(ctx)))
	}

	if len(langCounts) > 0 {
		builder.WriteString("\nLanguages:\n")

		type langEntry struct {
			lang  language.Tag
			count int
		}
		entries := make([]langEntry, 0, len(langCounts))
		for lang, count := range langCounts {
			entries = append(entries, langEntry{lang, count})
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].count != entries[j].count {
				return entries[i].count > entries[j].count
			}
			return entries[i].lang < entries[j].lang
		})

		for _, entry := range entries {
			builder.WriteString(fmt.Sprintf("  %-20s %d files\n", entry.lang, entry.count))
		}
	}

	return textResult(builder.String()), nil, nil
}
