package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// UIStateArgs defines the input parameters for the context_ui_state tool.
type UIStateArgs struct {
	Focused bool `json:"focused" jsonschema:"Whether the client user interface currently has focus"`
}

// FocusTracker receives user interface state.
type FocusTracker interface {
	SetFocus(focused bool)
	NotifyUserInput()
}

// UIStateHandler feeds client focus and activity into rebuild scheduling.
type UIStateHandler struct {
	Tracker FocusTracker
	Logger  *slog.Logger
}

// Handle processes a context_ui_state request.
func (h *UIStateHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args UIStateArgs) (*mcp.CallToolResult, any, error) {
	h.Tracker.NotifyUserInput()
	h.Tracker.SetFocus(args.Focused)
	h.Logger.Debug("context_ui_state", "focused", args.Focused)
	return textResult(fmt.Sprintf("ui state recorded: focused=%t", args.Focused)), nil, nil
}
