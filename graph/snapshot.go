package graph

import (
	"sort"
	"time"

	"github.com/lexandro/contextrank-mcp/index"
)

// Edge is a resolved import: From imports To.
type Edge struct {
	From string
	To   string
}

// HubScore is a file and the number of files importing it.
type HubScore struct {
	Path     string
	InDegree int
}

// Snapshot is an immutable build of the project graph. Every edge endpoint is
// a member of Files. Fields are exported for the cache encoding only; treat
// them as read-only.
type Snapshot struct {
	Version     int64
	BuiltAt     time.Time
	Fingerprint index.Fingerprint
	Files       []string            // sorted
	Outgoing    map[string][]string // importer -> imported, sorted
	Incoming    map[string][]string // imported -> importers, sorted
	Mentions    map[string][]string // mentioned file -> mentioning files, sorted
	Hubs        []HubScore          // in-degree desc, then path

	fileSet map[string]struct{}
}

// EmptySnapshot is the graph of a project with no files.
func EmptySnapshot() *Snapshot {
	s := &Snapshot{
		Outgoing: map[string][]string{},
		Incoming: map[string][]string{},
		Mentions: map[string][]string{},
	}
	s.prepare()
	return s
}

func (s *Snapshot) prepare() {
	s.fileSet = make(map[string]struct{}, len(s.Files))
	for _, f := range s.Files {
		s.fileSet[f] = struct{}{}
	}
}

// HasFile reports whether path was part of the build.
func (s *Snapshot) HasFile(path string) bool {
	_, ok := s.fileSet[path]
	return ok
}

// FileCount returns the number of files in the build.
func (s *Snapshot) FileCount() int {
	return len(s.Files)
}

// EdgeCount returns the number of dependency edges.
func (s *Snapshot) EdgeCount() int {
	n := 0
	for _, targets := range s.Outgoing {
		n += len(targets)
	}
	return n
}

// Edges returns every edge ordered by From then To.
func (s *Snapshot) Edges() []Edge {
	edges := make([]Edge, 0, s.EdgeCount())
	for _, from := range s.Files {
		for _, to := range s.Outgoing[from] {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}

// Imports returns the files path imports.
func (s *Snapshot) Imports(path string) []string {
	return s.Outgoing[path]
}

// ImportedBy returns the files importing path.
func (s *Snapshot) ImportedBy(path string) []string {
	return s.Incoming[path]
}

// InDegree returns how many files import path.
func (s *Snapshot) InDegree(path string) int {
	return len(s.Incoming[path])
}

// Connected reports whether a imports b or b imports a.
func (s *Snapshot) Connected(a, b string) bool {
	return containsSorted(s.Outgoing[a], b) || containsSorted(s.Outgoing[b], a)
}

// MentionedBy returns the files whose text mentions path's base name.
func (s *Snapshot) MentionedBy(path string) []string {
	return s.Mentions[path]
}

// IsMentionedBy reports whether mentioner's text mentions path's base name.
func (s *Snapshot) IsMentionedBy(path, mentioner string) bool {
	return containsSorted(s.Mentions[path], mentioner)
}

// HubFiles returns up to topN files with the highest in-degree.
func (s *Snapshot) HubFiles(topN int) []HubScore {
	if topN <= 0 {
		return nil
	}
	if topN > len(s.Hubs) {
		topN = len(s.Hubs)
	}
	return s.Hubs[:topN]
}

// IsHub reports whether path ranks within the topN hubs.
func (s *Snapshot) IsHub(path string, topN int) bool {
	for _, h := range s.HubFiles(topN) {
		if h.Path == path {
			return true
		}
	}
	return false
}

// rankHubs orders every file with a positive in-degree.
func rankHubs(incoming map[string][]string) []HubScore {
	hubs := make([]HubScore, 0, len(incoming))
	for p, importers := range incoming {
		if len(importers) > 0 {
			hubs = append(hubs, HubScore{Path: p, InDegree: len(importers)})
		}
	}
	sort.Slice(hubs, func(i, j int) bool {
		if hubs[i].InDegree != hubs[j].InDegree {
			return hubs[i].InDegree > hubs[j].InDegree
		}
		return hubs[i].Path < hubs[j].Path
	})
	return hubs
}

func containsSorted(sorted []string, v string) bool {
	i := sort.SearchStrings(sorted, v)
	return i < len(sorted) && sorted[i] == v
}
