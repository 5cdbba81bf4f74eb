package index

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/lexandro/contextrank-mcp/language"
)

// ProjectFile is one file of the working tree as last seen on disk.
type ProjectFile struct {
	Path         string       // Absolute file path
	RelativePath string       // Path relative to project root (forward slashes)
	Language     language.Tag // Detected from the extension
	SizeBytes    int64
	ModTime      time.Time
	LineCount    int
	IsText       bool
}

// FileIndex is the live file tree of the project. It uses a map for O(1) path
// lookups and a sorted slice for deterministic iteration.
type FileIndex struct {
	mu          sync.RWMutex
	files       map[string]*ProjectFile // key: relative path (forward slashes)
	sortedPaths []string
	generation  uint64
}

// NewFileIndex creates a new empty file index.
func NewFileIndex() *FileIndex {
	return &FileIndex{
		files:       make(map[string]*ProjectFile),
		sortedPaths: make([]string, 0),
	}
}

// AddFile adds or updates a file in the index.
func (fi *FileIndex) AddFile(file *ProjectFile) {
	fi.mu.Lock()
	defer fi.mu.Unlock()

	_, exists := fi.files[file.RelativePath]
	fi.files[file.RelativePath] = file
	fi.generation++

	if !exists {
		idx := sort.SearchStrings(fi.sortedPaths, file.RelativePath)
		fi.sortedPaths = append(fi.sortedPaths, "")
		copy(fi.sortedPaths[idx+1:], fi.sortedPaths[idx:])
		fi.sortedPaths[idx] = file.RelativePath
	}
}

// RemoveFile removes a file from the index by its relative path.
func (fi *FileIndex) RemoveFile(relativePath string) {
	fi.mu.Lock()
	defer fi.mu.Unlock()

	if _, exists := fi.files[relativePath]; !exists {
		return
	}
	delete(fi.files, relativePath)
	fi.generation++

	idx := sort.SearchStrings(fi.sortedPaths, relativePath)
	if idx < len(fi.sortedPaths) && fi.sortedPaths[idx] == relativePath {
		fi.sortedPaths = append(fi.sortedPaths[:idx], fi.sortedPaths[idx+1:]...)
	}
}

// RemoveDir removes every file under the relative directory and returns how
// many were dropped.
func (fi *FileIndex) RemoveDir(relativeDir string) int {
	fi.mu.Lock()
	defer fi.mu.Unlock()

	prefix := strings.TrimSuffix(relativeDir, "/") + "/"
	start := sort.SearchStrings(fi.sortedPaths, prefix)
	end := start
	for end < len(fi.sortedPaths) && strings.HasPrefix(fi.sortedPaths[end], prefix) {
		delete(fi.files, fi.sortedPaths[end])
		end++
	}
	removed := end - start
	if removed > 0 {
		fi.sortedPaths = append(fi.sortedPaths[:start], fi.sortedPaths[end:]...)
		fi.generation++
	}
	return removed
}

// GetFile returns the ProjectFile for a relative path, or nil if not found.
func (fi *FileIndex) GetFile(relativePath string) *ProjectFile {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return fi.files[relativePath]
}

// FileCount returns the number of indexed files.
func (fi *FileIndex) FileCount() int {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return len(fi.files)
}

// Generation increases on every mutation.
func (fi *FileIndex) Generation() uint64 {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return fi.generation
}

// TotalSizeBytes returns the total size of all indexed files.
func (fi *FileIndex) TotalSizeBytes() int64 {
	fi.mu.RLock()
	defer fi.mu.RUnlock()

	var totalSize int64
	for _, file := range fi.files {
		totalSize += file.SizeBytes
	}
	return totalSize
}

// LanguageCounts returns a map of language -> file count for all indexed files.
func (fi *FileIndex) LanguageCounts() map[language.Tag]int {
	fi.mu.RLock()
	defer fi.mu.RUnlock()

	counts := make(map[language.Tag]int)
	for _, file := range fi.files {
		counts[file.Language]++
	}
	return counts
}

// SearchByGlob returns files matching a doublestar glob pattern against relative paths.
func (fi *FileIndex) SearchByGlob(pattern string, maxResults int) ([]*ProjectFile, error) {
	fi.mu.RLock()
	defer fi.mu.RUnlock()

	if maxResults <= 0 {
		maxResults = 50
	}

	pattern = strings.ReplaceAll(pattern, "\\", "/")
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
	}

	var results []*ProjectFile
	for _, path := range fi.sortedPaths {
		if len(results) >= maxResults {
			break
		}
		if matched, _ := doublestar.Match(pattern, path); matched {
			results = append(results, fi.files[path])
		}
	}
	return results, nil
}

// AllFiles returns all indexed files in path order.
func (fi *FileIndex) AllFiles() []*ProjectFile {
	fi.mu.RLock()
	defer fi.mu.RUnlock()

	result := make([]*ProjectFile, 0, len(fi.sortedPaths))
	for _, path := range fi.sortedPaths {
		if file, ok := fi.files[path]; ok {
			result = append(result, file)
		}
	}
	return result
}

// Clear removes all files from the index.
func (fi *FileIndex) Clear() {
	fi.mu.Lock()
	defer fi.mu.Unlock()

	fi.files = make(map[string]*ProjectFile)
	fi.sortedPaths = make([]string, 0)
	fi.generation++
}
