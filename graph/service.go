package graph

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/lexandro/contextrank-mcp/index"
)

// FileSource lists the current project files in path order.
type FileSource interface {
	AllFiles() []*index.ProjectFile
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	Files  FileSource
	Reader ContentReader
	// CachePath is the artifact location; empty disables the cache.
	CachePath string
	Logger    *slog.Logger
}

// Service owns the current snapshot. Readers never block: Current returns
// whichever snapshot was last swapped in. Rebuilds are serialised and only
// publish complete builds.
type Service struct {
	files     FileSource
	reader    ContentReader
	cachePath string
	logger    *slog.Logger

	current atomic.Pointer[Snapshot]
	buildMu sync.Mutex
}

// NewService creates a Service holding an empty snapshot.
func NewService(opts ServiceOptions) *Service {
	s := &Service{
		files:     opts.Files,
		reader:    opts.Reader,
		cachePath: opts.CachePath,
		logger:    opts.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.current.Store(EmptySnapshot())
	return s
}

// Current returns the latest published snapshot.
func (s *Service) Current() *Snapshot {
	return s.current.Load()
}

// Prime publishes the cached graph when it matches the live tree and
// otherwise builds one.
func (s *Service) Prime(ctx context.Context) (*Snapshot, error) {
	if s.cachePath != "" {
		live := index.FingerprintOf(s.files.AllFiles())
		snap, err := LoadFromCache(s.cachePath, live)
		if err == nil {
			s.buildMu.Lock()
			snap.Version = s.Current().Version + 1
			s.current.Store(snap)
			s.buildMu.Unlock()
			s.logger.Info("project graph loaded from cache", "files", snap.FileCount(), "edges", snap.EdgeCount())
			return snap, nil
		}
		if errors.Is(err, ErrCacheStale) {
			s.logger.Info("graph cache is stale, rebuilding", "reason", err)
		} else {
			s.logger.Info("graph cache unavailable, rebuilding", "reason", err)
		}
	}
	return s.Rebuild(ctx)
}

// Rebuild builds a new snapshot from the current file tree and publishes it.
// On error the previous snapshot stays current.
func (s *Service) Rebuild(ctx context.Context) (*Snapshot, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	snap, err := Build(ctx, s.files.AllFiles(), s.reader, s.logger)
	if err != nil {
		return nil, err
	}
	snap.Version = s.Current().Version + 1
	s.current.Store(snap)

	if s.cachePath != "" {
		if err := SaveToCache(s.cachePath, snap); err != nil {
			s.logger.Warn("failed to write graph cache", "path", s.cachePath, "error", err)
		}
	}
	return snap, nil
}

// IsStale reports whether the file tree changed since the current snapshot.
func (s *Service) IsStale() bool {
	return s.Current().Fingerprint != index.FingerprintOf(s.files.AllFiles())
}

// CachePath returns the cache artifact location.
func (s *Service) CachePath() string {
	return s.cachePath
}
