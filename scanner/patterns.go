package scanner

import (
	"regexp"

	"github.com/lexandro/contextrank-mcp/language"
)

// rule extracts specifiers from one import construct. When inner is set the
// first capture group is a block that inner is applied to (Go import blocks).
// When list is set the capture is a comma separated module list (Python).
type rule struct {
	re    *regexp.Regexp
	inner *regexp.Regexp
	list  bool
}

func r(expr string) rule { return rule{re: regexp.MustCompile(expr)} }

var scriptRules = []rule{
	r(`\bimport\s+(?:type\s+)?[^'";]*?\s*\bfrom\s*['"]([^'"\n]+)['"]`),
	r(`\bexport\s+(?:type\s+)?[^'";]*?\s*\bfrom\s*['"]([^'"\n]+)['"]`),
	r(`\brequire\s*\(\s*['"]([^'"\n]+)['"]\s*\)`),
	r(`\bimport\s*\(\s*['"]([^'"\n]+)['"]\s*\)`),
	r(`(?m)^\s*import\s+['"]([^'"\n]+)['"]`),
}

var styleRules = []rule{
	r(`@(?:import|use|forward)\s+(?:url\(\s*)?['"]([^'"\n]+)['"]`),
}

var cIncludeRules = []rule{
	r(`(?m)^\s*#\s*include\s*"([^"\n]+)"`),
}

// patternTable is the per-language lookup table. Languages without an entry
// have no import syntax worth scanning.
var patternTable = map[language.Tag][]rule{
	language.TypeScript: scriptRules,
	language.JavaScript: scriptRules,
	language.Vue:        scriptRules,
	language.Svelte:     scriptRules,
	language.Python: {
		r(`(?m)^[ \t]*from\s+(\.*[\w.]*)\s+import\b`),
		{re: regexp.MustCompile(`(?m)^[ \t]*import\s+([\w.]+(?:[ \t]+as[ \t]+\w+)?(?:[ \t]*,[ \t]*[\w.]+(?:[ \t]+as[ \t]+\w+)?)*)`), list: true},
	},
	language.Go: {
		r(`(?m)^\s*import\s+(?:[\w.]+\s+)?"([^"\n]+)"`),
		{re: regexp.MustCompile(`(?s)\bimport\s*\((.*?)\)`), inner: regexp.MustCompile(`"([^"\n]+)"`)},
	},
	language.Rust: {
		r(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?use\s+([^;]+);`),
		r(`(?m)^\s*(?:pub(?:\([^)]*\))?\s+)?mod\s+(\w+)\s*;`),
	},
	language.Java: {
		r(`(?m)^\s*import\s+(?:static\s+)?([\w.]+(?:\.\*)?)\s*;`),
	},
	language.Kotlin: {
		r(`(?m)^\s*import\s+([\w.]+)`),
	},
	language.C:   cIncludeRules,
	language.CPP: cIncludeRules,
	language.CSS: styleRules, language.SCSS: styleRules, language.Sass: styleRules, language.Less: styleRules,
	language.Ruby: {
		r(`(?m)^\s*require_relative\s*\(?\s*['"]([^'"\n]+)['"]`),
		r(`(?m)^\s*require\s*\(?\s*['"]([^'"\n]+)['"]`),
	},
	language.PHP: {
		r(`\b(?:require|include)(?:_once)?\s*\(?\s*(?:__DIR__\s*\.\s*)?['"]([^'"\n]+)['"]`),
	},
	language.Dart: {
		r(`(?m)^\s*(?:import|export|part)\s+['"]([^'"\n]+)['"]`),
	},
}
