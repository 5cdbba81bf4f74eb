package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/contextrank-mcp/tools"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// Handlers are the tool handlers the server exposes.
type Handlers struct {
	Recalculate *tools.RecalculateHandler
	Rebuild     *tools.RebuildHandler
	Hubs        *tools.HubsHandler
	Preview     *tools.PreviewHandler
	Status      *tools.StatusHandler
	UIState     *tools.UIStateHandler
	Files       *tools.FilesHandler
}

// Setup creates and configures the MCP server with all tool registrations.
func Setup(h Handlers) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "contextrank-mcp",
			Version: Version,
		},
		&mcp.ServerOptions{
			Instructions: `This server decides which project files belong in a prompt next to the files you are working on. It ranks files with a static import graph, git co-change history, recent edits, task keywords and path heuristics, then fills a token budget with Smart Previews (whole short files, the head of long ones).

Typical flow:
- Call context_recalculate with the files you selected and a short task description.
- Include the returned promptNeighbors (or their previews, with includePreviews) in your prompt.
- Use context_preview to see what a single file contributes and what it costs.
- The import graph rebuilds in the background after files change; call context_rebuild_graph to force it.`,
		},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "context_recalculate",
		Description: `Rank project files by relevance to the selected files and task, and pick the ones that fit the token budget.

Returns JSON with:
  - userSelected / heuristicSeedFiles: the seed basket (files are added automatically when few are selected)
  - allNeighbors: every positively scored file with per-heuristic reasons
  - promptNeighbors: the files that fit the budget, best first
  - promptTokens and scores

A request overtaken by a newer one returns a "superseded" error.`,
	}, h.Recalculate.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "context_preview",
		Description: "Show the Smart Preview of a project file as it would appear in a prompt, with its estimated token cost.",
	}, h.Preview.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "context_hubs",
		Description: "List the project's hub files: the files imported by the most other files.",
	}, h.Hubs.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "context_files",
		Description: `Find project files by glob pattern, e.g. to choose selectedPaths.

Pattern examples:
  - "**/*.go" - all Go files
  - "src/**/*.ts" - TypeScript files under src/`,
	}, h.Files.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "context_rebuild_graph",
		Description: "Rebuild the project import graph now and wait for it. Cancels a background rebuild in progress.",
	}, h.Rebuild.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "context_status",
		Description: "Show file tree, graph, rebuild and git status, plus memory usage and uptime.",
	}, h.Status.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "context_ui_state",
		Description: "Report whether the client UI has focus. Background graph rebuilds wait while the user is active.",
	}, h.UIState.Handle)

	return mcpServer
}
