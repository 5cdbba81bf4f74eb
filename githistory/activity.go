package githistory

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// maxParallelQueries bounds concurrent git processes for one Activity call.
const maxParallelQueries = 4

// Activity is the git view needed for one scoring pass.
type Activity struct {
	Recent    map[string]struct{}
	CoCommits map[string]map[string]int // seed path -> co-committed path -> shared commits
}

// SharedCommits returns how many of seed's recent commits also touched path.
func (a *Activity) SharedCommits(seed, path string) int {
	if a == nil {
		return 0
	}
	return a.CoCommits[seed][path]
}

// RecentlyCommitted reports whether path was committed within the window.
func (a *Activity) RecentlyCommitted(path string) bool {
	if a == nil {
		return false
	}
	_, ok := a.Recent[path]
	return ok
}

// Activity gathers recent commits and co-commit counts for every seed in
// parallel. Individual failures leave the corresponding part empty.
func (s *Service) Activity(ctx context.Context, seeds []string, maxCommits int, window time.Duration) *Activity {
	activity := &Activity{
		Recent:    map[string]struct{}{},
		CoCommits: make(map[string]map[string]int, len(seeds)),
	}
	if !s.IsRepository(ctx) {
		return activity
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(maxParallelQueries)

	g.Go(func() error {
		recent := s.RecentlyCommittedFiles(ctx, window)
		mu.Lock()
		activity.Recent = recent
		mu.Unlock()
		return nil
	})
	for _, seed := range seeds {
		g.Go(func() error {
			counts := s.CoCommittedFiles(ctx, seed, maxCommits)
			mu.Lock()
			activity.CoCommits[seed] = counts
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return activity
}
