// Package relevance decides which project files belong in a prompt next to
// the files a user selected. It seeds a basket, scores every other file with
// explainable heuristics and fills a token budget with Smart Previews.
package relevance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lexandro/contextrank-mcp/githistory"
	"github.com/lexandro/contextrank-mcp/graph"
	"github.com/lexandro/contextrank-mcp/index"
)

var (
	// ErrSuperseded is returned by a recalculation that a newer one overtook.
	ErrSuperseded = errors.New("recalculation superseded by a newer request")
	// ErrNoContext is returned when the project file tree is empty.
	ErrNoContext = errors.New("project file tree is empty")
)

// GraphSource returns the current graph snapshot without blocking.
type GraphSource interface {
	Current() *graph.Snapshot
}

// FileSource lists the live project files in path order.
type FileSource interface {
	AllFiles() []*index.ProjectFile
}

// History supplies git activity for a set of seeds.
type History interface {
	Activity(ctx context.Context, seeds []string, maxCommits int, window time.Duration) *githistory.Activity
}

// ContentReader returns the text of a project-relative path.
type ContentReader interface {
	ReadText(relativePath string) (string, error)
}

// Options configures an Engine. History may be nil when the project has no
// git repository. A nil Tokens uses NewTokenCounter.
type Options struct {
	Config  Config
	Graph   GraphSource
	Files   FileSource
	History History
	Reader  ContentReader
	Tokens  TokenCounter
	Logger  *slog.Logger
	Now     func() time.Time
}

// Engine runs recalculations. Only the most recently started call can
// return a result.
type Engine struct {
	cfg     Config
	graph   GraphSource
	files   FileSource
	history History
	reader  ContentReader
	tokens  TokenCounter
	logger  *slog.Logger
	now     func() time.Time

	latest          atomic.Uint64
	noContextLogged atomic.Bool
}

// NewEngine creates an Engine.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		cfg:     opts.Config,
		graph:   opts.Graph,
		files:   opts.Files,
		history: opts.History,
		reader:  opts.Reader,
		tokens:  opts.Tokens,
		logger:  opts.Logger,
		now:     opts.Now,
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.tokens == nil {
		e.tokens = NewTokenCounter(e.logger)
	}
	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Recalculate selects the context for a prompt. selected holds
// project-relative paths; task is the free-text task description.
func (e *Engine) Recalculate(ctx context.Context, selected []string, task string) (*Result, error) {
	ticket := e.latest.Add(1)
	requestID := uuid.New().String()
	logger := e.logger.With("request", requestID)
	start := time.Now()

	files := e.files.AllFiles()
	if len(files) == 0 {
		if !e.noContextLogged.Swap(true) {
			logger.Warn("no project files available, context calculation skipped")
		}
		return nil, ErrNoContext
	}
	e.noContextLogged.Store(false)

	snap := e.graph.Current()
	selected = normalizePaths(selected)
	keywords := ExtractKeywords(task)
	now := e.now()

	logger.Debug("recalculation started", "state", "seeding", "selected", len(selected), "keywords", keywords, "graphVersion", snap.Version)

	// Phase 1: seed basket.
	basket := make([]SeedEntry, 0, max(len(selected), e.cfg.SeedBasketSize))
	for _, p := range selected {
		basket = append(basket, SeedEntry{Path: p, IsOriginallySelected: true})
	}
	var heuristicSeeds []*ScoredFile
	if len(selected) <= e.cfg.SeedTriggerThreshold {
		env := newScoringEnv(e.cfg, snap, files, e.activity(ctx, selected), keywords, now)
		for _, candidate := range env.score(basket, pathSet(selected)) {
			if len(basket) >= e.cfg.SeedBasketSize {
				break
			}
			basket = append(basket, SeedEntry{Path: candidate.Path})
			heuristicSeeds = append(heuristicSeeds, candidate)
		}
	}
	if err := e.checkCurrent(ctx, ticket); err != nil {
		return nil, err
	}

	// Phase 2: neighbourhood scoring against the whole basket.
	logger.Debug("recalculation progressing", "state", "scoring", "basket", len(basket))
	basketPaths := make([]string, len(basket))
	for i, s := range basket {
		basketPaths[i] = s.Path
	}
	env := newScoringEnv(e.cfg, snap, files, e.activity(ctx, basketPaths), keywords, now)
	neighbors := env.score(basket, pathSet(basketPaths))
	if err := e.checkCurrent(ctx, ticket); err != nil {
		return nil, err
	}

	// Phase 3: token-budgeted selection.
	logger.Debug("recalculation progressing", "state", "selecting", "candidates", len(neighbors)+len(heuristicSeeds))
	ranked := make([]*ScoredFile, 0, len(neighbors)+len(heuristicSeeds))
	ranked = append(ranked, heuristicSeeds...)
	ranked = append(ranked, neighbors...)
	sortScored(ranked)
	previews, tokens := e.selectWithinBudget(ranked, logger)

	if err := e.checkCurrent(ctx, ticket); err != nil {
		return nil, err
	}

	result := &Result{
		RequestID:          requestID,
		GraphVersion:       snap.Version,
		Keywords:           keywords,
		UserSelected:       selected,
		HeuristicSeedFiles: make([]SeedFile, 0, len(heuristicSeeds)),
		AllNeighbors:       make([]ScoredFile, 0, len(neighbors)),
		PromptNeighbors:    make([]string, 0, len(previews)),
		Previews:           previews,
		PromptTokens:       tokens,
		Scores:             make(map[string]float64, len(ranked)),
	}
	for _, s := range heuristicSeeds {
		result.HeuristicSeedFiles = append(result.HeuristicSeedFiles, SeedFile{Path: s.Path, Score: s.Score})
		result.Scores[s.Path] = s.Score
	}
	for _, n := range neighbors {
		result.AllNeighbors = append(result.AllNeighbors, *n)
		result.Scores[n.Path] = n.Score
	}
	for _, p := range previews {
		result.PromptNeighbors = append(result.PromptNeighbors, p.Path)
	}

	logger.Info("context recalculated",
		"selected", len(selected),
		"heuristicSeeds", len(heuristicSeeds),
		"neighbors", len(neighbors),
		"promptNeighbors", len(previews),
		"promptTokens", tokens,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return result, nil
}

// Preview returns the Smart Preview of a project file.
func (e *Engine) Preview(relativePath string) (Preview, error) {
	text, err := e.reader.ReadText(relativePath)
	if err != nil {
		return Preview{}, fmt.Errorf("reading %s: %w", relativePath, err)
	}
	return SmartPreview(text, e.cfg.MinPreviewLines, e.cfg.MaxPreviewLines, e.tokens), nil
}

// selectWithinBudget walks ranked in order and accepts previews until the
// next one would exceed the budget. Unreadable files are skipped.
func (e *Engine) selectWithinBudget(ranked []*ScoredFile, logger *slog.Logger) ([]FilePreview, int) {
	previews := make([]FilePreview, 0)
	total := 0
	for _, candidate := range ranked {
		preview, err := e.Preview(candidate.Path)
		if err != nil {
			logger.Debug("skipping unreadable candidate", "path", candidate.Path, "error", err)
			continue
		}
		if total+preview.Tokens > e.cfg.MaxNeighborTokens {
			break
		}
		total += preview.Tokens
		previews = append(previews, FilePreview{
			Path:       candidate.Path,
			Score:      candidate.Score,
			Tokens:     preview.Tokens,
			TotalLines: preview.TotalLines,
			ShownLines: preview.ShownLines,
			Truncated:  preview.Truncated,
			Text:       preview.Text,
		})
	}
	return previews, total
}

func (e *Engine) activity(ctx context.Context, seeds []string) *githistory.Activity {
	if e.history == nil || len(seeds) == 0 && e.cfg.RecentCommitWindow <= 0 {
		return nil
	}
	return e.history.Activity(ctx, seeds, e.cfg.MaxCommitsToCheck, e.cfg.RecentCommitWindow)
}

// checkCurrent fails when the caller gave up or a newer call started.
func (e *Engine) checkCurrent(ctx context.Context, ticket uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.latest.Load() != ticket {
		return ErrSuperseded
	}
	return nil
}

func normalizePaths(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		p = filepath.ToSlash(filepath.Clean(p))
		if p == "." || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func pathSet(paths []string) map[string]bool {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return set
}
