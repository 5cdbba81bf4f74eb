package language

import (
	"path/filepath"
	"strings"
)

// Tag identifies the language of a project file. The dependency scanner keys
// its pattern table on it.
type Tag string

const (
	Unknown    Tag = "Unknown"
	Go         Tag = "Go"
	JavaScript Tag = "JavaScript"
	TypeScript Tag = "TypeScript"
	Python     Tag = "Python"
	Rust       Tag = "Rust"
	Java       Tag = "Java"
	Kotlin     Tag = "Kotlin"
	C          Tag = "C"
	CPP        Tag = "C++"
	CSharp     Tag = "C#"
	Swift      Tag = "Swift"
	Dart       Tag = "Dart"
	Ruby       Tag = "Ruby"
	PHP        Tag = "PHP"
	Shell      Tag = "Shell"
	HTML       Tag = "HTML"
	CSS        Tag = "CSS"
	SCSS       Tag = "SCSS"
	Sass       Tag = "Sass"
	Less       Tag = "Less"
	Vue        Tag = "Vue"
	Svelte     Tag = "Svelte"
	JSON       Tag = "JSON"
	YAML       Tag = "YAML"
	TOML       Tag = "TOML"
	XML        Tag = "XML"
	Markdown   Tag = "Markdown"
	SQL        Tag = "SQL"
	Protobuf   Tag = "Protobuf"
	Dockerfile Tag = "Dockerfile"
	Makefile   Tag = "Makefile"
	Text       Tag = "Text"
)

// ExtensionToLanguage maps file extensions (without dot) to language tags.
var ExtensionToLanguage = map[string]Tag{
	"go": Go,
	"js": JavaScript, "jsx": JavaScript, "mjs": JavaScript, "cjs": JavaScript,
	"ts": TypeScript, "tsx": TypeScript, "mts": TypeScript, "cts": TypeScript,
	"py": Python, "pyi": Python, "pyw": Python,
	"rs":   Rust,
	"java": Java, "kt": Kotlin, "kts": Kotlin,
	"c": C, "h": C,
	"cpp": CPP, "cc": CPP, "cxx": CPP, "hpp": CPP, "hxx": CPP,
	"cs":    CSharp,
	"swift": Swift,
	"dart":  Dart,
	"rb":    Ruby, "erb": Ruby,
	"php": PHP,
	"sh":  Shell, "bash": Shell, "zsh": Shell,
	"html": HTML, "htm": HTML,
	"css": CSS, "scss": SCSS, "sass": Sass, "less": Less,
	"vue": Vue, "svelte": Svelte,
	"json": JSON, "jsonc": JSON,
	"yaml": YAML, "yml": YAML,
	"toml": TOML,
	"xml":  XML,
	"md":   Markdown, "mdx": Markdown,
	"sql":   SQL,
	"proto": Protobuf,
	"txt":   Text,
}

// DetectLanguage returns the language tag for a file path based on its extension.
// Returns Unknown if the extension is not recognized.
func DetectLanguage(filePath string) Tag {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))
	if ext == "" {
		switch strings.ToLower(filepath.Base(filePath)) {
		case "makefile", "gnumakefile":
			return Makefile
		case "dockerfile":
			return Dockerfile
		case "gemfile", "rakefile":
			return Ruby
		}
		return Unknown
	}

	if lang, ok := ExtensionToLanguage[ext]; ok {
		return lang
	}
	return Unknown
}

// IsStyleSheet reports whether the tag is one of the CSS family.
func (t Tag) IsStyleSheet() bool {
	return t == CSS || t == SCSS || t == Sass || t == Less
}

// IsScript reports whether imports for the tag follow ECMAScript module syntax.
func (t Tag) IsScript() bool {
	return t == JavaScript || t == TypeScript || t == Vue || t == Svelte
}
