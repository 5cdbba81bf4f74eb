// Package githistory answers co-change and recency questions from the local
// git history. Every query is time-bounded and degrades to an empty result.
package githistory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	DefaultTimeout  = 3 * time.Second
	DefaultCacheTTL = 30 * time.Second

	// commitSeparator is printed before every commit in log output.
	commitSeparator = "\x1e"
)

// Options configures a Service.
type Options struct {
	RootDir  string
	Timeout  time.Duration
	CacheTTL time.Duration
	Runner   Runner
	Logger   *slog.Logger
	Now      func() time.Time
}

type coCommitKey struct {
	path       string
	maxCommits int
}

type coCommitEntry struct {
	at     time.Time
	counts map[string]int
}

type recentEntry struct {
	at    time.Time
	files map[string]struct{}
}

// Service queries git history for a project root.
type Service struct {
	rootDir  string
	timeout  time.Duration
	cacheTTL time.Duration
	runner   Runner
	logger   *slog.Logger
	now      func() time.Time

	mu          sync.Mutex
	repoChecked bool
	isRepo      bool
	coCommits   map[coCommitKey]coCommitEntry
	recent      map[time.Duration]recentEntry
}

// New creates a Service. Zero options fall back to the package defaults and
// the git binary on PATH.
func New(opts Options) *Service {
	s := &Service{
		rootDir:   opts.RootDir,
		timeout:   opts.Timeout,
		cacheTTL:  opts.CacheTTL,
		runner:    opts.Runner,
		logger:    opts.Logger,
		now:       opts.Now,
		coCommits: make(map[coCommitKey]coCommitEntry),
		recent:    make(map[time.Duration]recentEntry),
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = DefaultCacheTTL
	}
	if s.runner == nil {
		s.runner = ExecRunner{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// IsRepository reports whether the root is inside a git work tree. The answer
// is cached until Invalidate. A check cut short by a timeout or cancellation
// reports false for that call only.
func (s *Service) IsRepository(ctx context.Context) bool {
	s.mu.Lock()
	checked, isRepo := s.repoChecked, s.isRepo
	s.mu.Unlock()
	if checked {
		return isRepo
	}

	out, err := s.run(ctx, "rev-parse", "--is-inside-work-tree")
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logQueryFailure("repository check", "", err)
		return false
	}
	isRepo = err == nil && strings.TrimSpace(out) == "true"
	if !isRepo {
		s.logger.Info("git history unavailable, history heuristics disabled", "root", s.rootDir, "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.repoChecked = true
	s.isRepo = isRepo
	return isRepo
}

// Invalidate drops all cached answers, including repository detection.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repoChecked = false
	s.coCommits = make(map[coCommitKey]coCommitEntry)
	s.recent = make(map[time.Duration]recentEntry)
}

// CoCommittedFiles returns, for the last maxCommits commits touching path, how
// many of those commits each other file also appeared in. Paths are relative
// to the project root.
func (s *Service) CoCommittedFiles(ctx context.Context, path string, maxCommits int) map[string]int {
	if maxCommits <= 0 || !s.IsRepository(ctx) {
		return map[string]int{}
	}

	key := coCommitKey{path: path, maxCommits: maxCommits}
	s.mu.Lock()
	if entry, ok := s.coCommits[key]; ok && s.now().Sub(entry.at) < s.cacheTTL {
		s.mu.Unlock()
		return entry.counts
	}
	s.mu.Unlock()

	out, err := s.run(ctx, "log",
		fmt.Sprintf("-n%d", maxCommits),
		"--full-diff",
		"--name-only",
		"--relative",
		"--format=%x1e",
		"--", path,
	)
	if err != nil {
		s.logQueryFailure("co-commit query", path, err)
		return map[string]int{}
	}

	counts := parseCoCommits(out, path)

	s.mu.Lock()
	s.coCommits[key] = coCommitEntry{at: s.now(), counts: counts}
	s.mu.Unlock()
	return counts
}

// RecentlyCommittedFiles returns the files touched by any commit within window.
func (s *Service) RecentlyCommittedFiles(ctx context.Context, window time.Duration) map[string]struct{} {
	if window <= 0 || !s.IsRepository(ctx) {
		return map[string]struct{}{}
	}

	s.mu.Lock()
	if entry, ok := s.recent[window]; ok && s.now().Sub(entry.at) < s.cacheTTL {
		s.mu.Unlock()
		return entry.files
	}
	s.mu.Unlock()

	out, err := s.run(ctx, "log",
		fmt.Sprintf("--since=%d seconds ago", int64(window.Seconds())),
		"--name-only",
		"--relative",
		"--format=",
	)
	if err != nil {
		s.logQueryFailure("recent commits query", "", err)
		return map[string]struct{}{}
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files[line] = struct{}{}
		}
	}

	s.mu.Lock()
	s.recent[window] = recentEntry{at: s.now(), files: files}
	s.mu.Unlock()
	return files
}

func (s *Service) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	out, err := s.runner.Run(ctx, s.rootDir, args...)
	if err != nil && ctx.Err() != nil {
		return "", fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	return out, err
}

func (s *Service) logQueryFailure(query string, path string, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		s.logger.Warn("git query timed out", "query", query, "path", path, "timeout", s.timeout)
		return
	}
	s.logger.Debug("git query failed", "query", query, "path", path, "error", err)
}

// parseCoCommits tallies files per commit block, excluding path itself.
func parseCoCommits(out string, path string) map[string]int {
	counts := make(map[string]int)
	for _, block := range strings.Split(out, commitSeparator) {
		seen := make(map[string]bool)
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || line == path || seen[line] {
				continue
			}
			seen[line] = true
			counts[line]++
		}
	}
	return counts
}
