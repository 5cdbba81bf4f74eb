package graph

import (
	"path"
	"strings"
)

// minStemLength keeps short names like "db" or "ui" from matching everywhere.
const minStemLength = 3

// genericStems never produce mentions; they appear in almost every file.
var genericStems = map[string]bool{
	"index": true, "main": true, "init": true, "__init__": true, "mod": true, "lib": true,
	"app": true, "src": true, "test": true, "tests": true, "spec": true,
	"util": true, "utils": true, "helpers": true, "common": true, "base": true,
	"types": true, "type": true, "const": true, "constants": true, "data": true,
	"file": true, "string": true, "default": true, "package": true,
	"readme": true, "license": true, "changelog": true, "setup": true,
}

// FileStem is the lowercased base name up to the first dot:
// "src/LoginButton.test.tsx" has stem "loginbutton".
func FileStem(p string) string {
	base := strings.ToLower(path.Base(p))
	if i := strings.IndexByte(base, '.'); i > 0 {
		return base[:i]
	}
	return base
}

// mentionStem returns the stem used for mention detection, or "" when the
// file cannot be mentioned.
func mentionStem(p string) string {
	stem := FileStem(p)
	if len(stem) < minStemLength || genericStems[stem] {
		return ""
	}
	return stem
}

// Tokenize splits text into lowercase word tokens. Hyphenated runs yield the
// whole run and each part.
func Tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	add := func(tok string) {
		if tok != "" {
			tokens[tok] = struct{}{}
		}
	}

	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		run := strings.ToLower(text[start:end])
		start = -1
		add(run)
		if strings.Contains(run, "-") {
			for _, part := range strings.Split(run, "-") {
				add(part)
			}
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		if isTokenByte(c) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(text))
	return tokens
}

func isTokenByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-'
}

// stemIndex maps mention stems to the files that carry them.
func stemIndex(paths []string) map[string][]string {
	idx := make(map[string][]string)
	for _, p := range paths {
		if stem := mentionStem(p); stem != "" {
			idx[stem] = append(idx[stem], p)
		}
	}
	return idx
}

// mentionedFiles returns the files whose stem appears as a token in the text
// of mentioner, excluding mentioner itself.
func mentionedFiles(mentioner string, tokens map[string]struct{}, stems map[string][]string) []string {
	var mentioned []string
	for tok := range tokens {
		for _, p := range stems[tok] {
			if p != mentioner {
				mentioned = append(mentioned, p)
			}
		}
	}
	return mentioned
}

// IsGenericStem reports whether stem is too common to identify a file.
func IsGenericStem(stem string) bool {
	return genericStems[stem]
}
