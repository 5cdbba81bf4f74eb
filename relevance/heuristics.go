package relevance

import (
	"path"
	"sort"
	"time"

	"github.com/lexandro/contextrank-mcp/githistory"
	"github.com/lexandro/contextrank-mcp/graph"
	"github.com/lexandro/contextrank-mcp/index"
)

// Heuristic names, in table order.
const (
	HeuristicDirectDependency = "direct_dependency"
	HeuristicTaskKeywords     = "task_keywords"
	HeuristicSharedCommits    = "shared_commits"
	HeuristicActivelyEditing  = "actively_editing"
	HeuristicSibling          = "sibling_file"
	HeuristicProjectHub       = "project_hub"
	HeuristicRecentCommit     = "recent_commit"
	HeuristicFolderColocation = "folder_colocation"
	HeuristicFileMention      = "file_mention"
	HeuristicGlobalKeyword    = "global_keyword"
)

// heuristicSeedFactor scales seed-dependent points contributed through a
// seed the engine picked rather than the user.
const heuristicSeedFactor = 0.5

// SeedEntry is a member of the seed basket.
type SeedEntry struct {
	Path                 string `json:"path"`
	IsOriginallySelected bool   `json:"isOriginallySelected"`
}

// Reason is one heuristic's contribution to a score.
type Reason struct {
	Heuristic string  `json:"heuristic"`
	Points    float64 `json:"points"`
	Via       string  `json:"via,omitempty"`
}

// ScoredFile is a candidate with its accumulated score.
type ScoredFile struct {
	Path    string   `json:"path"`
	Score   float64  `json:"score"`
	Reasons []Reason `json:"reasons,omitempty"`
}

func (f *ScoredFile) add(heuristic string, points float64, via string) {
	if points <= 0 {
		return
	}
	f.Score += points
	f.Reasons = append(f.Reasons, Reason{Heuristic: heuristic, Points: points, Via: via})
}

// scoringEnv is everything one scoring pass reads. It is built once per
// pass and never mutated.
type scoringEnv struct {
	cfg      Config
	snap     *graph.Snapshot
	files    []*index.ProjectFile
	activity *githistory.Activity
	keywords []string
	hubs     map[string]bool
	now      time.Time
}

func newScoringEnv(cfg Config, snap *graph.Snapshot, files []*index.ProjectFile, activity *githistory.Activity, keywords []string, now time.Time) *scoringEnv {
	hubs := make(map[string]bool, cfg.HubTopN)
	for _, h := range snap.HubFiles(cfg.HubTopN) {
		hubs[h.Path] = true
	}
	return &scoringEnv{
		cfg:      cfg,
		snap:     snap,
		files:    files,
		activity: activity,
		keywords: keywords,
		hubs:     hubs,
		now:      now,
	}
}

// score evaluates every text file not in exclude against the seeds and returns
// the positive scorers ordered by score desc, then path.
func (env *scoringEnv) score(seeds []SeedEntry, exclude map[string]bool) []*ScoredFile {
	w := env.cfg.Weights
	var scored []*ScoredFile

	for _, file := range env.files {
		p := file.RelativePath
		if exclude[p] || !file.IsText {
			continue
		}
		candidate := &ScoredFile{Path: p}
		stem := graph.FileStem(p)
		dir := path.Dir(p)

		for _, seed := range seeds {
			if seed.Path == p {
				continue
			}
			factor := 1.0
			if !seed.IsOriginallySelected {
				factor = heuristicSeedFactor
			}

			if env.snap.Connected(seed.Path, p) {
				candidate.add(HeuristicDirectDependency, w.DirectDependency*factor, seed.Path)
			}
			if n := env.activity.SharedCommits(seed.Path, p); n >= env.cfg.ManySharedCommits {
				candidate.add(HeuristicSharedCommits, w.SharedCommitsMany*factor, seed.Path)
			} else if n > 0 {
				candidate.add(HeuristicSharedCommits, w.SharedCommitsFew*factor, seed.Path)
			}
			if isSibling(seed.Path, p, stem) {
				candidate.add(HeuristicSibling, w.Sibling*factor, seed.Path)
			}
			if path.Dir(seed.Path) == dir {
				candidate.add(HeuristicFolderColocation, w.FolderColocation*factor, seed.Path)
			}
			if env.snap.IsMentionedBy(p, seed.Path) {
				candidate.add(HeuristicFileMention, w.FileMention*factor, seed.Path)
			}
		}

		switch n := countKeywordMatches(env.keywords, p); {
		case n >= 2:
			candidate.add(HeuristicTaskKeywords, w.TaskKeywordMulti, "")
		case n == 1:
			candidate.add(HeuristicTaskKeywords, w.TaskKeywordSingle, "")
		}
		if env.cfg.ActiveEditWindow > 0 && env.now.Sub(file.ModTime) < env.cfg.ActiveEditWindow {
			candidate.add(HeuristicActivelyEditing, w.ActivelyEditing, "")
		}
		if env.hubs[p] {
			candidate.add(HeuristicProjectHub, w.ProjectHub, "")
		}
		if env.activity.RecentlyCommitted(p) {
			candidate.add(HeuristicRecentCommit, w.RecentCommit, "")
		}
		if matchesAny(env.cfg.AlwaysRelevant, p) {
			candidate.add(HeuristicGlobalKeyword, w.GlobalKeyword, "")
		}

		if candidate.Score > 0 {
			sortReasons(candidate.Reasons)
			scored = append(scored, candidate)
		}
	}

	sortScored(scored)
	return scored
}

// isSibling reports whether two paths share a meaningful stem but differ in
// file name: Button.tsx and Button.css, or Button.test.tsx.
func isSibling(seed, candidate, candidateStem string) bool {
	if candidateStem == "" || graph.IsGenericStem(candidateStem) {
		return false
	}
	return graph.FileStem(seed) == candidateStem && path.Base(seed) != path.Base(candidate)
}

var heuristicOrder = map[string]int{
	HeuristicDirectDependency: 0,
	HeuristicTaskKeywords:     1,
	HeuristicSharedCommits:    2,
	HeuristicActivelyEditing:  3,
	HeuristicSibling:          4,
	HeuristicProjectHub:       5,
	HeuristicRecentCommit:     6,
	HeuristicFolderColocation: 7,
	HeuristicFileMention:      8,
	HeuristicGlobalKeyword:    9,
}

func sortReasons(reasons []Reason) {
	sort.SliceStable(reasons, func(i, j int) bool {
		if reasons[i].Heuristic != reasons[j].Heuristic {
			return heuristicOrder[reasons[i].Heuristic] < heuristicOrder[reasons[j].Heuristic]
		}
		return reasons[i].Via < reasons[j].Via
	})
}

func sortScored(scored []*ScoredFile) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Path < scored[j].Path
	})
}
