package tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/contextrank-mcp/graph"
	"github.com/lexandro/contextrank-mcp/index"
	"github.com/lexandro/contextrank-mcp/relevance"
)

// FormatFileResults formats file search results as human-readable text.
func FormatFileResults(results []*index.ProjectFile, nameOnly bool) string {
	if len(results) == 0 {
		return "No files matched."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d files:\n\n", len(results)))

	for _, file := range results {
		if nameOnly {
			builder.WriteString(file.RelativePath)
			builder.WriteString("\n")
		} else {
			builder.WriteString(fmt.Sprintf("  %s  (%s, %s, %d lines)\n",
				file.RelativePath,
				file.Language,
				formatFileSize(file.SizeBytes),
				file.LineCount,
			))
		}
	}

	return builder.String()
}

// FormatHubs lists hub files with their in-degree.
func FormatHubs(hubs []graph.HubScore, graphVersion int64) string {
	if len(hubs) == 0 {
		return "No hub files: no file is imported by another file."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Top %d hub files (graph version %d):\n\n", len(hubs), graphVersion))
	width := len(fmt.Sprintf("%d", len(hubs)))
	for i, hub := range hubs {
		builder.WriteString(fmt.Sprintf("%*d. %s  (imported by %d)\n", width, i+1, hub.Path, hub.InDegree))
	}
	return builder.String()
}

// FormatPreview renders a Smart Preview with a header naming its cost.
func FormatPreview(filePath string, preview relevance.Preview) string {
	var builder strings.Builder
	if preview.Truncated {
		builder.WriteString(fmt.Sprintf("── %s (%d of %d lines, ~%d tokens) ──\n",
			filePath, preview.ShownLines, preview.TotalLines, preview.Tokens))
	} else {
		builder.WriteString(fmt.Sprintf("── %s (%d lines, ~%d tokens) ──\n",
			filePath, preview.TotalLines, preview.Tokens))
	}
	builder.WriteString(preview.Text)
	if !strings.HasSuffix(preview.Text, "\n") {
		builder.WriteString("\n")
	}
	return builder.String()
}

// formatFileSize converts bytes to a human-readable string.
func formatFileSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%ds", totalSeconds)
	}
	totalMinutes := totalSeconds / 60
	remainderSeconds := totalSeconds % 60
	if totalMinutes < 60 {
		return fmt.Sprintf("%dm%ds", totalMinutes, remainderSeconds)
	}
	hours := totalMinutes / 60
	remainderMinutes := totalMinutes % 60
	return fmt.Sprintf("%dh%dm", hours, remainderMinutes)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
