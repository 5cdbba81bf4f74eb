// Package scanner extracts raw import specifiers from source text using a
// per-language regular expression table.
package scanner

import (
	"sort"
	"strings"

	"github.com/lexandro/contextrank-mcp/language"
)

type match struct {
	offset    int
	specifier string
}

// Supports reports whether the scanner has patterns for lang.
func Supports(lang language.Tag) bool {
	_, ok := patternTable[lang]
	return ok
}

// Scan returns the distinct import specifiers found in text, in the order they
// appear. Specifiers are returned raw; resolving them to project files is the
// caller's job. Unknown languages yield an empty slice.
func Scan(text string, lang language.Tag) []string {
	rules, ok := patternTable[lang]
	if !ok || text == "" {
		return []string{}
	}

	var found []match
	for _, rl := range rules {
		for _, loc := range rl.re.FindAllStringSubmatchIndex(text, -1) {
			if len(loc) < 4 || loc[2] < 0 {
				continue
			}
			capture := text[loc[2]:loc[3]]
			switch {
			case rl.inner != nil:
				for _, in := range rl.inner.FindAllStringSubmatchIndex(capture, -1) {
					found = append(found, match{offset: loc[2] + in[2], specifier: capture[in[2]:in[3]]})
				}
			case rl.list:
				for i, part := range strings.Split(capture, ",") {
					fields := strings.Fields(part)
					if len(fields) > 0 {
						found = append(found, match{offset: loc[2] + i, specifier: fields[0]})
					}
				}
			default:
				found = append(found, match{offset: loc[2], specifier: capture})
			}
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].offset < found[j].offset })

	seen := make(map[string]bool, len(found))
	specifiers := make([]string, 0, len(found))
	for _, m := range found {
		spec := strings.TrimSpace(m.specifier)
		if spec == "" || seen[spec] {
			continue
		}
		seen[spec] = true
		specifiers = append(specifiers, spec)
	}
	return specifiers
}
