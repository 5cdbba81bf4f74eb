package relevance

import (
	"fmt"
	"strings"
)

// Preview is the prompt form of a file: whole when short, otherwise its head
// cut at a natural break.
type Preview struct {
	Text       string
	TotalLines int
	ShownLines int
	Truncated  bool
	Tokens     int
}

// SmartPreview returns text unchanged when it has at most maxLines lines.
// Longer text is cut at the first blank line at or after minLines, and never
// after maxLines, followed by a marker naming the omitted line count. The
// shown text is costed with tokens.
func SmartPreview(text string, minLines, maxLines int, tokens TokenCounter) Preview {
	lines := strings.Split(text, "\n")
	total := len(lines)
	if strings.HasSuffix(text, "\n") {
		total--
	}

	if total <= maxLines {
		return Preview{Text: text, TotalLines: total, ShownLines: total, Tokens: tokens.CountTokens(text)}
	}

	cut := maxLines
	for i := minLines; i < maxLines; i++ {
		if strings.TrimSpace(lines[i]) == "" {
			cut = i
			break
		}
	}

	shown := strings.Join(lines[:cut], "\n") + fmt.Sprintf("\n// ... (%d more lines)\n", total-cut)
	return Preview{
		Text:       shown,
		TotalLines: total,
		ShownLines: cut,
		Truncated:  true,
		Tokens:     tokens.CountTokens(shown),
	}
}
