package relevance

import (
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// tokenEncoding is the BPE used to cost previews.
const tokenEncoding = "cl100k_base"

// charsPerToken approximates tokenizer output when no encoding is available.
const charsPerToken = 4

// TokenCounter reports how many prompt tokens text costs.
type TokenCounter interface {
	CountTokens(text string) int
}

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
	encodingErr  error
)

func loadEncoding() (*tiktoken.Tiktoken, error) {
	encodingOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
		encoding, encodingErr = tiktoken.GetEncoding(tokenEncoding)
	})
	return encoding, encodingErr
}

type tiktokenCounter struct {
	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

func (c *tiktokenCounter) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.enc.Encode(text, nil, nil))
}

type estimateCounter struct{}

func (estimateCounter) CountTokens(text string) int {
	return EstimateTokens(text)
}

// NewTokenCounter returns a cl100k_base counter backed by the embedded BPE
// tables. If the encoding cannot be built it logs a warning and estimates
// from the character count instead.
func NewTokenCounter(logger *slog.Logger) TokenCounter {
	enc, err := loadEncoding()
	if err != nil {
		logger.Warn("tokenizer unavailable, estimating tokens from characters",
			"encoding", tokenEncoding, "charsPerToken", charsPerToken, "error", err)
		return estimateCounter{}
	}
	return &tiktokenCounter{enc: enc}
}

// EstimateTokens approximates the token count of text.
func EstimateTokens(text string) int {
	return (utf8.RuneCountInString(text) + charsPerToken - 1) / charsPerToken
}
