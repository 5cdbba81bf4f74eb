package index

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lexandro/contextrank-mcp/language"
)

var (
	// ErrBinary is returned when a file's content is not text.
	ErrBinary = errors.New("binary file")
	// ErrOutsideRoot is returned for paths that leave the project root.
	ErrOutsideRoot = errors.New("path outside project root")
)

// DiskReader reads project files relative to a root directory.
type DiskReader struct {
	RootDir string
}

// ReadText returns the content of a project-relative path as text.
func (r DiskReader) ReadText(relativePath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(relativePath))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", relativePath, ErrOutsideRoot)
	}
	data, err := ReadFileWithRetry(filepath.Join(r.RootDir, clean))
	if err != nil {
		return "", err
	}
	if language.IsBinaryContent(data) {
		return "", fmt.Errorf("%s: %w", relativePath, ErrBinary)
	}
	return string(data), nil
}

// ReadFileWithRetry reads a file, retrying once after a short delay in case
// an editor holds it locked mid-save.
func ReadFileWithRetry(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		time.Sleep(50 * time.Millisecond)
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}
