package graph

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/lexandro/contextrank-mcp/index"
)

// cacheFormatVersion changes whenever Snapshot's encoding does.
const cacheFormatVersion = 1

// CacheFileName is the artifact name inside the cache directory.
const CacheFileName = "project-graph.v1.zst"

var (
	// ErrCacheMiss means no usable artifact exists: missing, corrupt or written
	// by another format version.
	ErrCacheMiss = errors.New("graph cache miss")
	// ErrCacheStale means the artifact is readable but the tree changed since.
	ErrCacheStale = errors.New("graph cache stale")
)

type cacheEnvelope struct {
	FormatVersion int
	Snapshot      *Snapshot
}

// SaveToCache writes snap to path atomically.
func SaveToCache(path string, snap *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".graph-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	zw, err := zstd.NewWriter(tmp)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("creating zstd writer: %w", err)
	}
	if err := gob.NewEncoder(zw).Encode(cacheEnvelope{FormatVersion: cacheFormatVersion, Snapshot: snap}); err != nil {
		zw.Close()
		tmp.Close()
		return fmt.Errorf("encoding graph: %w", err)
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing zstd stream: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp cache file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming cache file: %w", err)
	}
	return nil
}

// LoadFromCache reads the artifact at path and returns it only if it was
// built from a tree with the live fingerprint.
func LoadFromCache(path string, live index.Fingerprint) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCacheMiss, err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCacheMiss, err)
	}
	defer zr.Close()

	var env cacheEnvelope
	if err := gob.NewDecoder(zr).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: decoding: %w", ErrCacheMiss, err)
	}
	if env.FormatVersion != cacheFormatVersion || env.Snapshot == nil {
		return nil, fmt.Errorf("%w: format version %d", ErrCacheMiss, env.FormatVersion)
	}
	if env.Snapshot.Fingerprint != live {
		return nil, fmt.Errorf("%w: cached %s, live %s", ErrCacheStale, env.Snapshot.Fingerprint, live)
	}

	snap := env.Snapshot
	if snap.Outgoing == nil {
		snap.Outgoing = map[string][]string{}
	}
	if snap.Incoming == nil {
		snap.Incoming = map[string][]string{}
	}
	if snap.Mentions == nil {
		snap.Mentions = map[string][]string{}
	}
	snap.prepare()
	return snap, nil
}
