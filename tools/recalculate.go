package tools

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/contextrank-mcp/relevance"
)

// RecalculateArgs defines the input parameters for the context_recalculate tool.
type RecalculateArgs struct {
	SelectedPaths   []string `json:"selectedPaths,omitempty" jsonschema:"Project-relative paths of the files the user selected"`
	TaskDescription string   `json:"taskDescription,omitempty" jsonschema:"Free-text description of the task"`
	IncludePreviews bool     `json:"includePreviews,omitempty" jsonschema:"If true include the Smart Preview text of every prompt neighbour"`
}

// Recalculator computes the context for a prompt.
type Recalculator interface {
	Recalculate(ctx context.Context, selected []string, task string) (*relevance.Result, error)
}

// InputNotifier is told about user activity.
type InputNotifier interface {
	NotifyUserInput()
}

// RecalculateHandler holds the dependencies for the recalculate tool.
type RecalculateHandler struct {
	Engine Recalculator
	Input  InputNotifier
	Logger *slog.Logger
}

// Handle processes a context_recalculate request.
func (h *RecalculateHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args RecalculateArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()
	if h.Input != nil {
		h.Input.NotifyUserInput()
	}

	result, err := h.Engine.Recalculate(ctx, args.SelectedPaths, args.TaskDescription)
	switch {
	case errors.Is(err, relevance.ErrSuperseded):
		h.Logger.Info("context_recalculate superseded")
		return errorResult("Superseded by a newer context_recalculate request."), nil, nil
	case errors.Is(err, relevance.ErrNoContext):
		return errorResult("No project files are indexed; nothing to rank."), nil, nil
	case err != nil:
		h.Logger.Error("context_recalculate failed", "error", err)
		return errorResult("Recalculation error: %v", err), nil, nil
	}

	if !args.IncludePreviews {
		result = result.WithoutPreviewText()
	}
	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errorResult("Encoding error: %v", err), nil, nil
	}

	h.Logger.Info("context_recalculate",
		"request", result.RequestID,
		"selected", len(args.SelectedPaths),
		"promptNeighbors", len(result.PromptNeighbors),
		"elapsed", time.Since(start),
	)
	return textResult(string(output)), nil, nil
}
