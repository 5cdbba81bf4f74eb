package tools

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// maxHubs caps the topN a client may request.
const maxHubs = 100

// HubsArgs defines the input parameters for the context_hubs tool.
type HubsArgs struct {
	TopN int `json:"topN,omitempty" jsonschema:"Number of hub files to return (default: configured hub_top_n)"`
}

// HubsHandler lists the most imported files of the current graph.
type HubsHandler struct {
	Graph       GraphSource
	DefaultTopN int
	Logger      *slog.Logger
}

// Handle processes a context_hubs request.
func (h *HubsHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args HubsArgs) (*mcp.CallToolResult, any, error) {
	topN := args.TopN
	if topN <= 0 {
		topN = h.DefaultTopN
	}
	if topN > maxHubs {
		topN = maxHubs
	}

	snap := h.Graph.Current()
	hubs := snap.HubFiles(topN)
	h.Logger.Info("context_hubs", "topN", topN, "results", len(hubs), "graphVersion", snap.Version)

	return textResult(FormatHubs(hubs, snap.Version)), nil, nil
}
