package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ExtractKeywords_DropsStopAndActionWords(t *testing.T) {
	assert.Equal(t, []string{"login", "button"}, ExtractKeywords("Fix the login button"))
	assert.Equal(t, []string{"session", "cookie"}, ExtractKeywords("Refactor session, cookie and session"))
	assert.Empty(t, ExtractKeywords(""))
	assert.Empty(t, ExtractKeywords("fix it for me"))
}

func Test_ExtractKeywords_KeepsIdentifiers(t *testing.T) {
	assert.Equal(t, []string{"user_store", "rate-limiter"}, ExtractKeywords("update user_store and the rate-limiter"))
}

func Test_PathTokens(t *testing.T) {
	tokens := PathTokens("src/login/LoginButton.test.tsx")
	assert.Contains(t, tokens, "login")
	assert.Contains(t, tokens, "button")
	assert.Contains(t, tokens, "loginbutton")
	assert.Contains(t, tokens, "tsx")

	assert.Equal(t, []string{"http", "server", "httpserver"}, PathTokens("HTTPServer"))
	assert.Equal(t, []string{"user", "store"}, PathTokens("user_store"))
}

func Test_countKeywordMatches(t *testing.T) {
	tests := []struct {
		keywords []string
		path     string
		want     int
	}{
		{[]string{"login", "button"}, "src/login/Button.tsx", 2},
		{[]string{"login", "button"}, "src/login/form.tsx", 1},
		{[]string{"auth"}, "lib/authentication.go", 1},
		{[]string{"api"}, "lib/apiclient.go", 0},
		{[]string{"api"}, "lib/api/client.go", 1},
		{nil, "anything.go", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, countKeywordMatches(tt.keywords, tt.path), tt.path)
	}
}

func Test_matchesAny(t *testing.T) {
	globs := DefaultConfig().AlwaysRelevant
	assert.True(t, matchesAny(globs, "README.md"))
	assert.True(t, matchesAny(globs, "web/package.json"))
	assert.True(t, matchesAny(globs, "src/types.ts"))
	assert.True(t, matchesAny(globs, "vite.config.ts"))
	assert.True(t, matchesAny(globs, "src/global.d.ts"))
	assert.False(t, matchesAny(globs, "src/login/Button.tsx"))
	assert.True(t, matchesAny([]string{"docs/**"}, "docs/guide/intro.md"))
}

func Test_splitCamelCase(t *testing.T) {
	assert.Equal(t, []string{"login", "button"}, splitCamelCase("LoginButton"))
	assert.Equal(t, []string{"parse", "json", "2"}, splitCamelCase("parseJSON2"))
	assert.Equal(t, []string{"plain"}, splitCamelCase("plain"))
}
