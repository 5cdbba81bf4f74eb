package relevance

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numberedLines(n int, blankAt ...int) string {
	blank := make(map[int]bool, len(blankAt))
	for _, i := range blankAt {
		blank[i] = true
	}
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if !blank[i] {
			fmt.Fprintf(&sb, "line %d", i+1)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func Test_SmartPreview_ShortFileIsWhole(t *testing.T) {
	text := numberedLines(10)
	preview := SmartPreview(text, 20, 60, estimateCounter{})
	assert.False(t, preview.Truncated)
	assert.Equal(t, text, preview.Text)
	assert.Equal(t, 10, preview.TotalLines)
	assert.Equal(t, 10, preview.ShownLines)
}

func Test_SmartPreview_CutsAtBlankLine(t *testing.T) {
	// blank lines at index 5 (before min) and 30
	text := numberedLines(100, 5, 30)
	preview := SmartPreview(text, 20, 60, estimateCounter{})

	require.True(t, preview.Truncated)
	assert.Equal(t, 30, preview.ShownLines)
	assert.Equal(t, 100, preview.TotalLines)
	assert.True(t, strings.HasSuffix(preview.Text, "line 30\n// ... (70 more lines)\n"))
	assert.Equal(t, EstimateTokens(preview.Text), preview.Tokens)
}

func Test_SmartPreview_CutsAtMaxWithoutBlankLine(t *testing.T) {
	preview := SmartPreview(numberedLines(100), 20, 60, estimateCounter{})
	require.True(t, preview.Truncated)
	assert.Equal(t, 60, preview.ShownLines)
	assert.True(t, strings.HasSuffix(preview.Text, "line 60\n// ... (40 more lines)\n"))
}

func Test_SmartPreview_ExactlyMaxLines(t *testing.T) {
	preview := SmartPreview(numberedLines(60), 20, 60, estimateCounter{})
	assert.False(t, preview.Truncated)
	assert.Equal(t, 60, preview.ShownLines)
}

func Test_SmartPreview_CostsShownTextOnly(t *testing.T) {
	counter := NewTokenCounter(testLogger())
	preview := SmartPreview(numberedLines(100), 20, 60, counter)
	assert.Equal(t, counter.CountTokens(preview.Text), preview.Tokens)
	assert.Less(t, preview.Tokens, counter.CountTokens(numberedLines(100)))
}

func Test_NewTokenCounter_UsesCl100k(t *testing.T) {
	counter := NewTokenCounter(testLogger())
	require.IsType(t, &tiktokenCounter{}, counter)
	assert.Equal(t, 0, counter.CountTokens(""))
	assert.Equal(t, 2, counter.CountTokens("hello world"))
}

func Test_EstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 600, EstimateTokens(strings.Repeat("x", 2400)))
	assert.Equal(t, 600, estimateCounter{}.CountTokens(strings.Repeat("x", 2400)))
}
