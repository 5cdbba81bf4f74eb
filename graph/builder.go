// Package graph builds and serves the project dependency graph: resolved
// import edges, in-degree hub ranking and the file mention index.
package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"sync"
	"time"

	graphlib "github.com/dominikbraun/graph"

	"github.com/lexandro/contextrank-mcp/index"
	"github.com/lexandro/contextrank-mcp/scanner"
)

// buildWorkers bounds concurrent file reads during a build.
const buildWorkers = 8

// ContentReader returns the text of a project-relative path.
type ContentReader interface {
	ReadText(relativePath string) (string, error)
}

type fileResult struct {
	targets   []string
	mentioned []string
}

// Build scans every text file, resolves its imports and mentions, and
// returns a complete snapshot. Unreadable files are logged and contribute
// nothing. A cancelled context aborts the build.
func Build(ctx context.Context, files []*index.ProjectFile, reader ContentReader, logger *slog.Logger) (*Snapshot, error) {
	start := time.Now()

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.RelativePath
	}
	sort.Strings(paths)
	byPath := make(map[string]*index.ProjectFile, len(files))
	for _, f := range files {
		byPath[f.RelativePath] = f
	}

	res := newResolver(paths, readGoModules(paths, reader, logger))
	stems := stemIndex(paths)
	results := make([]fileResult, len(paths))

	jobs := make(chan int, 100)
	var wg sync.WaitGroup
	for i := 0; i < buildWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					continue
				}
				p := paths[j]
				file := byPath[p]
				if !file.IsText {
					continue
				}
				text, err := reader.ReadText(p)
				if err != nil {
					logger.Warn("skipping unreadable file", "path", p, "error", err)
					continue
				}
				var targets []string
				for _, spec := range scanner.Scan(text, file.Language) {
					targets = append(targets, res.Resolve(p, file.Language, spec)...)
				}
				results[j] = fileResult{
					targets:   targets,
					mentioned: mentionedFiles(p, Tokenize(text), stems),
				}
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("graph build aborted: %w", err)
	}

	g := graphlib.New(graphlib.StringHash, graphlib.Directed())
	for _, p := range paths {
		if err := g.AddVertex(p); err != nil && !errors.Is(err, graphlib.ErrVertexAlreadyExists) {
			return nil, fmt.Errorf("adding vertex %s: %w", p, err)
		}
	}

	mentions := make(map[string][]string)
	for i, from := range paths {
		for _, to := range results[i].targets {
			if to == from {
				continue
			}
			err := g.AddEdge(from, to)
			if err != nil && !errors.Is(err, graphlib.ErrEdgeAlreadyExists) {
				return nil, fmt.Errorf("adding edge %s -> %s: %w", from, to, err)
			}
		}
		for _, target := range results[i].mentioned {
			mentions[target] = append(mentions[target], from)
		}
	}

	adjacency, err := g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("reading adjacency: %w", err)
	}
	predecessors, err := g.PredecessorMap()
	if err != nil {
		return nil, fmt.Errorf("reading predecessors: %w", err)
	}

	snap := &Snapshot{
		BuiltAt:     time.Now(),
		Fingerprint: index.FingerprintOf(sortedFiles(files)),
		Files:       paths,
		Outgoing:    flatten(adjacency),
		Incoming:    flatten(predecessors),
		Mentions:    mentions,
	}
	for _, mentioners := range snap.Mentions {
		sort.Strings(mentioners)
	}
	snap.Hubs = rankHubs(snap.Incoming)
	snap.prepare()

	logger.Info("project graph built",
		"files", len(paths),
		"edges", snap.EdgeCount(),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return snap, nil
}

// readGoModules finds go.mod files and the module paths they declare.
func readGoModules(paths []string, reader ContentReader, logger *slog.Logger) []goModule {
	var modules []goModule
	for _, p := range paths {
		if path.Base(p) != "go.mod" {
			continue
		}
		content, err := reader.ReadText(p)
		if err != nil {
			logger.Debug("cannot read go.mod", "path", p, "error", err)
			continue
		}
		if modulePath := parseGoModulePath(content); modulePath != "" {
			modules = append(modules, goModule{path: modulePath, dir: path.Dir(p)})
		}
	}
	return modules
}

// flatten turns a dominikbraun adjacency map into sorted neighbour lists,
// dropping vertices without neighbours.
func flatten(m map[string]map[string]graphlib.Edge[string]) map[string][]string {
	out := make(map[string][]string, len(m))
	for vertex, neighbours := range m {
		if len(neighbours) == 0 {
			continue
		}
		list := make([]string, 0, len(neighbours))
		for n := range neighbours {
			list = append(list, n)
		}
		sort.Strings(list)
		out[vertex] = list
	}
	return out
}

func sortedFiles(files []*index.ProjectFile) []*index.ProjectFile {
	sorted := make([]*index.ProjectFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RelativePath < sorted[j].RelativePath })
	return sorted
}
