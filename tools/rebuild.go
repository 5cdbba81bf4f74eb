package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/contextrank-mcp/graph"
)

// RebuildGraphArgs defines the input parameters for the context_rebuild_graph tool.
type RebuildGraphArgs struct{}

// RebuildFunc runs a manual graph rebuild and waits for it. It is provided
// by main to keep the scheduler out of this package.
type RebuildFunc func(ctx context.Context) error

// GraphSource returns the current graph snapshot.
type GraphSource interface {
	Current() *graph.Snapshot
}

// RebuildHandler holds the dependencies for the rebuild tool.
type RebuildHandler struct {
	DoRebuild RebuildFunc
	Graph     GraphSource
	Logger    *slog.Logger
}

// Handle processes a context_rebuild_graph request.
func (h *RebuildHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args RebuildGraphArgs) (*mcp.CallToolResult, any, error) {
	h.Logger.Info("context_rebuild_graph started")
	start := time.Now()

	if err := h.DoRebuild(ctx); err != nil {
		h.Logger.Error("context_rebuild_graph failed", "error", err)
		return errorResult("Rebuild error: %v", err), nil, nil
	}

	snap := h.Graph.Current()
	elapsed := time.Since(start).Round(time.Millisecond)
	h.Logger.Info("context_rebuild_graph complete",
		"version", snap.Version,
		"files", snap.FileCount(),
		"edges", snap.EdgeCount(),
		"elapsed", elapsed,
	)

	return textResult(fmt.Sprintf("graph rebuilt: version %d, %d files, %d import edges in %s",
		snap.Version, snap.FileCount(), snap.EdgeCount(), elapsed)), nil, nil
}
