package tools

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/contextrank-mcp/index"
	"github.com/lexandro/contextrank-mcp/relevance"
)

// PreviewArgs defines the input parameters for the context_preview tool.
type PreviewArgs struct {
	FilePath string `json:"filePath" jsonschema:"Project-relative file path (e.g. src/main.go)"`
}

// Previewer renders Smart Previews.
type Previewer interface {
	Preview(relativePath string) (relevance.Preview, error)
}

// PreviewHandler holds the dependencies for the preview tool.
type PreviewHandler struct {
	Engine Previewer
	Logger *slog.Logger
}

// Handle processes a context_preview request.
func (h *PreviewHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args PreviewArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.FilePath == "" {
		h.Logger.Warn("context_preview called with empty filePath")
		return errorResult("Error: filePath parameter is required"), nil, nil
	}

	preview, err := h.Engine.Preview(args.FilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		h.Logger.Info("context_preview file not found", "filePath", args.FilePath)
		return errorResult("File not found: %s", args.FilePath), nil, nil
	case errors.Is(err, index.ErrBinary):
		return errorResult("Binary file has no preview: %s", args.FilePath), nil, nil
	case err != nil:
		h.Logger.Warn("context_preview failed", "filePath", args.FilePath, "error", err)
		return errorResult("Preview error: %v", err), nil, nil
	}

	h.Logger.Info("context_preview", "filePath", args.FilePath, "tokens", preview.Tokens, "elapsed", time.Since(start))
	return textResult(FormatPreview(args.FilePath, preview)), nil, nil
}
