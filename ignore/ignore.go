package ignore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
)

// IgnoreFileNames are the per-project rule files the matcher reads from the root.
var IgnoreFileNames = []string{".gitignore", ".contextignore"}

// Matcher decides which files belong to the project file tree. It combines
// default patterns, .gitignore, .contextignore and user exclude globs.
// Reload takes the write lock; the Should* checks take the read lock.
type Matcher struct {
	mu               sync.RWMutex
	rootDir          string
	ruleFiles        []gitignore.GitIgnore
	customPatterns   []string
	maxFileSizeBytes int64
}

// MatcherOptions configures the ignore matcher.
type MatcherOptions struct {
	RootDir string
	// CustomPatterns are doublestar globs matched against the relative path
	// and the base name.
	CustomPatterns   []string
	MaxFileSizeBytes int64
}

// NewMatcher creates a matcher for the given root.
func NewMatcher(options MatcherOptions) *Matcher {
	matcher := &Matcher{
		rootDir:          options.RootDir,
		customPatterns:   options.CustomPatterns,
		maxFileSizeBytes: options.MaxFileSizeBytes,
	}
	if matcher.maxFileSizeBytes <= 0 {
		matcher.maxFileSizeBytes = 1024 * 1024
	}
	matcher.ruleFiles = loadRuleFiles(options.RootDir)
	return matcher
}

// IsIgnoreFile reports whether a base name is one of the rule files, so the
// watcher can trigger a Reload when it changes.
func IsIgnoreFile(baseName string) bool {
	for _, name := range IgnoreFileNames {
		if baseName == name {
			return true
		}
	}
	return false
}

// ShouldIgnore returns true if the given absolute path is excluded from the file tree.
func (m *Matcher) ShouldIgnore(absolutePath string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	relativePath, err := filepath.Rel(m.rootDir, absolutePath)
	if err != nil {
		relativePath = absolutePath
	}
	relativePath = filepath.ToSlash(relativePath)

	if matchesDefaultPatterns(relativePath) {
		return true
	}

	isDir := false
	if info, err := os.Stat(absolutePath); err == nil {
		isDir = info.IsDir()
	}

	// Relative() does not require the file to exist on disk.
	for _, rules := range m.ruleFiles {
		if match := rules.Relative(relativePath, isDir); match != nil && match.Ignore() {
			return true
		}
	}

	return m.matchesCustomPatterns(relativePath)
}

// ShouldIgnoreDir returns true if a directory should be skipped entirely during traversal.
func (m *Matcher) ShouldIgnoreDir(absolutePath string) bool {
	switch filepath.Base(absolutePath) {
	case ".git", ".svn", ".hg", "node_modules", "__pycache__",
		".idea", ".vscode", ".vs", ".next", ".nuxt",
		".cache", ".parcel-cache", "coverage", ".nyc_output", "htmlcov",
		".venv", "venv", ".contextrank":
		return true
	}
	return m.ShouldIgnore(absolutePath)
}

// IsFileTooLarge returns true if the file exceeds the max file size limit.
func (m *Matcher) IsFileTooLarge(fileSize int64) bool {
	return fileSize > m.maxFileSizeBytes
}

// MaxFileSizeBytes returns the configured maximum file size.
func (m *Matcher) MaxFileSizeBytes() int64 {
	return m.maxFileSizeBytes
}

// matchesDefaultPatterns checks plain names against every path component and
// globs against the base name.
func matchesDefaultPatterns(relativePath string) bool {
	lowerPath := strings.ToLower(relativePath)
	parts := strings.Split(lowerPath, "/")
	baseName := parts[len(parts)-1]

	for _, pattern := range DefaultIgnorePatterns {
		pattern = strings.ToLower(pattern)
		if !strings.ContainsAny(pattern, "*?[") {
			for _, part := range parts {
				if part == pattern {
					return true
				}
			}
			continue
		}
		if matched, _ := filepath.Match(pattern, baseName); matched {
			return true
		}
	}
	return false
}

func (m *Matcher) matchesCustomPatterns(relativePath string) bool {
	baseName := filepath.Base(relativePath)
	for _, pattern := range m.customPatterns {
		if matched, _ := doublestar.Match(pattern, relativePath); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, baseName); matched {
			return true
		}
	}
	return false
}

// Reload re-reads the rule files from disk.
func (m *Matcher) Reload() {
	ruleFiles := loadRuleFiles(m.rootDir)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ruleFiles = ruleFiles
}

func loadRuleFiles(rootDir string) []gitignore.GitIgnore {
	var ruleFiles []gitignore.GitIgnore
	for _, name := range IgnoreFileNames {
		if gi := loadIgnoreFile(filepath.Join(rootDir, name), rootDir); gi != nil {
			ruleFiles = append(ruleFiles, gi)
		}
	}
	return ruleFiles
}

// loadIgnoreFile reads an ignore file through an io.Reader so the handle is
// closed before returning.
func loadIgnoreFile(filePath string, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	return gitignore.New(f, baseDir, nil)
}
