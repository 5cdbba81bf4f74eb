package index

import (
	"fmt"

	"github.com/zeebo/xxh3"
)

// Fingerprint summarises a file tree cheaply enough to compare a cached graph
// against the live tree.
type Fingerprint struct {
	FileCount  int
	MaxModTime int64  // unix nanoseconds
	PathHash   uint64 // xxh3 over the sorted relative paths
}

func (f Fingerprint) String() string {
	return fmt.Sprintf("%d files, mtime %d, paths %016x", f.FileCount, f.MaxModTime, f.PathHash)
}

// FingerprintOf computes the fingerprint of files. The slice must be in path
// order, which AllFiles guarantees.
func FingerprintOf(files []*ProjectFile) Fingerprint {
	h := xxh3.New()
	var fp Fingerprint
	for _, f := range files {
		fp.FileCount++
		if mt := f.ModTime.UnixNano(); mt > fp.MaxModTime {
			fp.MaxModTime = mt
		}
		h.WriteString(f.RelativePath)
		h.Write([]byte{0})
	}
	fp.PathHash = h.Sum64()
	return fp
}

// Fingerprint returns the fingerprint of the current tree.
func (fi *FileIndex) Fingerprint() Fingerprint {
	return FingerprintOf(fi.AllFiles())
}
