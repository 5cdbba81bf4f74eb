package relevance

import (
	"path"
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"
)

// minKeywordLength drops words too short to identify a file.
const minKeywordLength = 3

// minPrefixKeywordLength is the shortest keyword allowed to match a path
// token by prefix ("auth" matches "authentication").
const minPrefixKeywordLength = 4

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "to": true, "for": true,
	"in": true, "on": true, "at": true, "by": true, "with": true,
	"from": true, "of": true, "is": true, "are": true, "was": true,
	"be": true, "been": true, "being": true, "have": true, "has": true,
	"had": true, "do": true, "does": true, "did": true, "will": true,
	"would": true, "could": true, "should": true, "may": true, "might": true,
	"must": true, "and": true, "or": true, "but": true, "if": true,
	"then": true, "so": true, "that": true, "this": true, "these": true,
	"those": true, "it": true, "its": true, "me": true, "my": true,
	"we": true, "our": true, "you": true, "your": true, "they": true,
	"them": true, "their": true, "what": true, "which": true, "who": true,
	"when": true, "where": true, "why": true, "how": true, "all": true,
	"each": true, "every": true, "some": true, "any": true, "not": true,
	"only": true, "more": true, "most": true, "other": true, "into": true,
	"through": true, "need": true, "needs": true, "want": true, "wants": true,
	"like": true, "please": true, "can": true, "also": true, "there": true,
	"file": true, "files": true, "code": true,
}

var actionWords = map[string]bool{
	"add": true, "implement": true, "create": true, "build": true, "make": true,
	"fix": true, "repair": true, "debug": true, "resolve": true,
	"update": true, "change": true, "modify": true, "edit": true,
	"refactor": true, "restructure": true, "reorganize": true, "clean": true,
	"optimize": true, "improve": true, "speed": true, "rename": true, "move": true,
	"remove": true, "delete": true, "deprecate": true, "support": true,
	"test": true, "verify": true, "document": true, "write": true, "use": true,
}

// ExtractKeywords returns the distinct lowercase task words worth matching
// against file paths, in order of appearance.
func ExtractKeywords(task string) []string {
	words := strings.FieldsFunc(task, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-')
	})

	seen := make(map[string]bool)
	keywords := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.ToLower(strings.Trim(word, "-_"))
		if len(word) < minKeywordLength || stopWords[word] || actionWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
	}
	return keywords
}

// PathTokens splits a path into lowercase tokens on separators, dots,
// underscores, hyphens and camelCase boundaries.
func PathTokens(p string) []string {
	parts := strings.FieldsFunc(p, func(r rune) bool {
		return r == '/' || r == '.' || r == '_' || r == '-' || r == ' '
	})

	var tokens []string
	for _, part := range parts {
		tokens = append(tokens, splitCamelCase(part)...)
		if lower := strings.ToLower(part); len(tokens) == 0 || tokens[len(tokens)-1] != lower {
			tokens = append(tokens, lower)
		}
	}
	return tokens
}

// splitCamelCase splits "LoginButton" into "login" and "button". Runs of
// capitals stay together: "HTTPServer" yields "http" and "server".
func splitCamelCase(s string) []string {
	runes := []rune(s)
	var words []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		boundary := unicode.IsLower(prev) && unicode.IsUpper(cur) ||
			unicode.IsUpper(prev) && unicode.IsUpper(cur) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) ||
			unicode.IsLetter(prev) != unicode.IsLetter(cur)
		if boundary {
			words = append(words, strings.ToLower(string(runes[start:i])))
			start = i
		}
	}
	if start < len(runes) {
		words = append(words, strings.ToLower(string(runes[start:])))
	}
	return words
}

// countKeywordMatches returns how many distinct keywords match a token of p.
func countKeywordMatches(keywords []string, p string) int {
	if len(keywords) == 0 {
		return 0
	}
	tokens := PathTokens(p)
	matches := 0
	for _, kw := range keywords {
		for _, tok := range tokens {
			if tok == kw || len(kw) >= minPrefixKeywordLength && strings.HasPrefix(tok, kw) {
				matches++
				break
			}
		}
	}
	return matches
}

// matchesAny reports whether p matches one of the lowercase globs. Globs
// without a slash are matched against the base name.
func matchesAny(globs []string, p string) bool {
	lower := strings.ToLower(p)
	base := path.Base(lower)
	for _, g := range globs {
		target := lower
		if !strings.Contains(g, "/") {
			target = base
		}
		if ok, _ := doublestar.Match(strings.ToLower(g), target); ok {
			return true
		}
	}
	return false
}
