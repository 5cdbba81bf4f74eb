package relevance

import (
	"errors"
	"fmt"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Weights are the points each heuristic contributes.
type Weights struct {
	DirectDependency  float64 `mapstructure:"direct_dependency"`
	TaskKeywordSingle float64 `mapstructure:"task_keyword_single"`
	TaskKeywordMulti  float64 `mapstructure:"task_keyword_multi"`
	SharedCommitsFew  float64 `mapstructure:"shared_commits_few"`
	SharedCommitsMany float64 `mapstructure:"shared_commits_many"`
	ActivelyEditing   float64 `mapstructure:"actively_editing"`
	Sibling           float64 `mapstructure:"sibling"`
	ProjectHub        float64 `mapstructure:"project_hub"`
	RecentCommit      float64 `mapstructure:"recent_commit"`
	FolderColocation  float64 `mapstructure:"folder_colocation"`
	FileMention       float64 `mapstructure:"file_mention"`
	GlobalKeyword     float64 `mapstructure:"global_keyword"`
}

// Config holds the engine's tunables.
type Config struct {
	// SeedTriggerThreshold: selections larger than this are used as the
	// seed basket verbatim.
	SeedTriggerThreshold int `mapstructure:"seed_trigger_threshold"`
	SeedBasketSize       int `mapstructure:"seed_basket_size"`
	MaxNeighborTokens    int `mapstructure:"max_neighbor_tokens"`
	MaxCommitsToCheck    int `mapstructure:"max_commits_to_check"`
	// ManySharedCommits is the shared commit count that earns the higher
	// shared-commit weight.
	ManySharedCommits  int           `mapstructure:"many_shared_commits"`
	HubTopN            int           `mapstructure:"hub_top_n"`
	MinPreviewLines    int           `mapstructure:"min_preview_lines"`
	MaxPreviewLines    int           `mapstructure:"max_preview_lines"`
	ActiveEditWindow   time.Duration `mapstructure:"active_edit_window"`
	RecentCommitWindow time.Duration `mapstructure:"recent_commit_window"`
	// AlwaysRelevant are doublestar globs for files that matter to almost
	// any task. Globs without a slash match the base name.
	AlwaysRelevant []string `mapstructure:"always_relevant"`
	Weights        Weights  `mapstructure:"weights"`
}

// DefaultWeights returns the standard heuristic table.
func DefaultWeights() Weights {
	return Weights{
		DirectDependency:  50,
		TaskKeywordSingle: 40,
		TaskKeywordMulti:  60,
		SharedCommitsFew:  30,
		SharedCommitsMany: 50,
		ActivelyEditing:   35,
		Sibling:           25,
		ProjectHub:        20,
		RecentCommit:      10,
		FolderColocation:  10,
		FileMention:       8,
		GlobalKeyword:     5,
	}
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		SeedTriggerThreshold: 2,
		SeedBasketSize:       5,
		MaxNeighborTokens:    10000,
		MaxCommitsToCheck:    50,
		ManySharedCommits:    3,
		HubTopN:              10,
		MinPreviewLines:      20,
		MaxPreviewLines:      60,
		ActiveEditWindow:     time.Hour,
		RecentCommitWindow:   7 * 24 * time.Hour,
		AlwaysRelevant: []string{
			"readme*", "package.json", "go.mod", "cargo.toml", "pyproject.toml",
			"*config*", "types.*", "*.d.ts", "schema.*", "constants.*", "routes.*",
		},
		Weights: DefaultWeights(),
	}
}

// Validate reports the first group of unusable settings.
func (c Config) Validate() error {
	var errs []error
	if c.SeedTriggerThreshold < 0 {
		errs = append(errs, fmt.Errorf("seed_trigger_threshold must not be negative"))
	}
	if c.SeedBasketSize < 1 {
		errs = append(errs, fmt.Errorf("seed_basket_size must be at least 1"))
	}
	if c.MaxNeighborTokens < 0 {
		errs = append(errs, fmt.Errorf("max_neighbor_tokens must not be negative"))
	}
	if c.MaxCommitsToCheck < 0 || c.ManySharedCommits < 1 {
		errs = append(errs, fmt.Errorf("commit limits out of range"))
	}
	if c.HubTopN < 0 {
		errs = append(errs, fmt.Errorf("hub_top_n must not be negative"))
	}
	if c.MinPreviewLines < 1 || c.MaxPreviewLines < c.MinPreviewLines {
		errs = append(errs, fmt.Errorf("preview lines need 1 <= min (%d) <= max (%d)", c.MinPreviewLines, c.MaxPreviewLines))
	}
	if c.ActiveEditWindow < 0 || c.RecentCommitWindow < 0 {
		errs = append(errs, fmt.Errorf("time windows must not be negative"))
	}
	for _, w := range []float64{
		c.Weights.DirectDependency, c.Weights.TaskKeywordSingle, c.Weights.TaskKeywordMulti,
		c.Weights.SharedCommitsFew, c.Weights.SharedCommitsMany, c.Weights.ActivelyEditing,
		c.Weights.Sibling, c.Weights.ProjectHub, c.Weights.RecentCommit,
		c.Weights.FolderColocation, c.Weights.FileMention, c.Weights.GlobalKeyword,
	} {
		if w < 0 {
			errs = append(errs, fmt.Errorf("heuristic weights must not be negative"))
			break
		}
	}
	for _, pattern := range c.AlwaysRelevant {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, fmt.Errorf("invalid always_relevant glob %q", pattern))
		}
	}
	return errors.Join(errs...)
}
