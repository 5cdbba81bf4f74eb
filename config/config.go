// Package config loads runtime settings from defaults, an optional YAML file,
// CONTEXTRANK_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lexandro/contextrank-mcp/relevance"
)

// FileName is the config file looked up in the project root.
const FileName = ".contextrank"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CONTEXTRANK"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Git configures history queries.
type Git struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// Rebuild configures background graph rebuilds.
type Rebuild struct {
	QuiescenceWindow time.Duration `mapstructure:"quiescence_window"`
	IdleWindow       time.Duration `mapstructure:"idle_window"`
	Watch            bool          `mapstructure:"watch"`
	// SyncInterval spaces full file tree verifications; zero disables them.
	SyncInterval time.Duration `mapstructure:"sync_interval"`
}

// Config is the complete runtime configuration.
type Config struct {
	RootDir     string           `mapstructure:"root"`
	LogLevel    string           `mapstructure:"log_level"`
	LogFile     string           `mapstructure:"log_file"`
	CacheDir    string           `mapstructure:"cache_dir"`
	Exclude     []string         `mapstructure:"exclude"`
	MaxFileSize int64            `mapstructure:"max_file_size"`
	Relevance   relevance.Config `mapstructure:"relevance"`
	Git         Git              `mapstructure:"git"`
	Rebuild     Rebuild          `mapstructure:"rebuild"`
}

// Default returns the built-in configuration for rootDir.
func Default(rootDir string) Config {
	return Config{
		RootDir:     rootDir,
		LogLevel:    "info",
		CacheDir:    ".contextrank",
		MaxFileSize: 1024 * 1024,
		Relevance:   relevance.DefaultConfig(),
		Git: Git{
			Timeout:  3 * time.Second,
			CacheTTL: 30 * time.Second,
		},
		Rebuild: Rebuild{
			QuiescenceWindow: 3 * time.Second,
			IdleWindow:       5 * time.Second,
			Watch:            true,
			SyncInterval:     time.Minute,
		},
	}
}

// flagKeys maps persistent flag names to configuration keys.
var flagKeys = map[string]string{
	"root":                "root",
	"log-level":           "log_level",
	"log-file":            "log_file",
	"cache-dir":           "cache_dir",
	"exclude":             "exclude",
	"max-file-size":       "max_file_size",
	"max-neighbor-tokens": "relevance.max_neighbor_tokens",
	"git-timeout":         "git.timeout",
	"watch":               "rebuild.watch",
}

// RegisterFlags adds the overridable settings to a flag set.
func RegisterFlags(flags *pflag.FlagSet) {
	def := Default("")
	flags.String("config", "", "Path to a YAML config file (default: <root>/.contextrank.yaml)")
	flags.String("root", "", "Project root directory (default: current working directory)")
	flags.String("log-level", def.LogLevel, "Log level: debug|info|warn|error")
	flags.String("log-file", "", "Log file path (default: <root>/contextrank-mcp.log)")
	flags.String("cache-dir", def.CacheDir, "Graph cache directory, relative to the root unless absolute")
	flags.StringSlice("exclude", nil, "Extra exclude glob (repeatable)")
	flags.Int64("max-file-size", def.MaxFileSize, "Maximum file size in bytes")
	flags.Int("max-neighbor-tokens", def.Relevance.MaxNeighborTokens, "Token budget for neighbouring files")
	flags.Duration("git-timeout", def.Git.Timeout, "Timeout for each git query")
	flags.Bool("watch", def.Rebuild.Watch, "Watch the file tree and rebuild the graph in the background")
}

// Load resolves the configuration. flags may be nil.
func Load(flags *pflag.FlagSet, workingDir string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default(workingDir))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	rootDir, err := filepath.Abs(v.GetString("root"))
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}

	configFile := ""
	if flags != nil {
		configFile, _ = flags.GetString("config")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(rootDir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.RootDir = rootDir
	if !filepath.IsAbs(cfg.CacheDir) {
		cfg.CacheDir = filepath.Join(rootDir, cfg.CacheDir)
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(rootDir, "contextrank-mcp.log")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	var problems []string
	if c.MaxFileSize <= 0 {
		problems = append(problems, "max_file_size must be positive")
	}
	if c.Git.Timeout <= 0 {
		problems = append(problems, "git.timeout must be positive")
	}
	if c.Rebuild.QuiescenceWindow <= 0 || c.Rebuild.IdleWindow <= 0 {
		problems = append(problems, "rebuild windows must be positive")
	}
	if c.Rebuild.SyncInterval < 0 {
		problems = append(problems, "rebuild.sync_interval must not be negative")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("unknown log_level %q", c.LogLevel))
	}
	if err := c.Relevance.Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// CachePath is the graph cache artifact location.
func (c *Config) CachePath(fileName string) string {
	return filepath.Join(c.CacheDir, fileName)
}

func setDefaults(v *viper.Viper, def Config) {
	v.SetDefault("root", def.RootDir)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_file", def.LogFile)
	v.SetDefault("cache_dir", def.CacheDir)
	v.SetDefault("exclude", def.Exclude)
	v.SetDefault("max_file_size", def.MaxFileSize)

	r := def.Relevance
	v.SetDefault("relevance.seed_trigger_threshold", r.SeedTriggerThreshold)
	v.SetDefault("relevance.seed_basket_size", r.SeedBasketSize)
	v.SetDefault("relevance.max_neighbor_tokens", r.MaxNeighborTokens)
	v.SetDefault("relevance.max_commits_to_check", r.MaxCommitsToCheck)
	v.SetDefault("relevance.many_shared_commits", r.ManySharedCommits)
	v.SetDefault("relevance.hub_top_n", r.HubTopN)
	v.SetDefault("relevance.min_preview_lines", r.MinPreviewLines)
	v.SetDefault("relevance.max_preview_lines", r.MaxPreviewLines)
	v.SetDefault("relevance.active_edit_window", r.ActiveEditWindow)
	v.SetDefault("relevance.recent_commit_window", r.RecentCommitWindow)
	v.SetDefault("relevance.always_relevant", r.AlwaysRelevant)

	w := r.Weights
	v.SetDefault("relevance.weights.direct_dependency", w.DirectDependency)
	v.SetDefault("relevance.weights.task_keyword_single", w.TaskKeywordSingle)
	v.SetDefault("relevance.weights.task_keyword_multi", w.TaskKeywordMulti)
	v.SetDefault("relevance.weights.shared_commits_few", w.SharedCommitsFew)
	v.SetDefault("relevance.weights.shared_commits_many", w.SharedCommitsMany)
	v.SetDefault("relevance.weights.actively_editing", w.ActivelyEditing)
	v.SetDefault("relevance.weights.sibling", w.Sibling)
	v.SetDefault("relevance.weights.project_hub", w.ProjectHub)
	v.SetDefault("relevance.weights.recent_commit", w.RecentCommit)
	v.SetDefault("relevance.weights.folder_colocation", w.FolderColocation)
	v.SetDefault("relevance.weights.file_mention", w.FileMention)
	v.SetDefault("relevance.weights.global_keyword", w.GlobalKeyword)

	v.SetDefault("git.timeout", def.Git.Timeout)
	v.SetDefault("git.cache_ttl", def.Git.CacheTTL)
	v.SetDefault("rebuild.quiescence_window", def.Rebuild.QuiescenceWindow)
	v.SetDefault("rebuild.idle_window", def.Rebuild.IdleWindow)
	v.SetDefault("rebuild.watch", def.Rebuild.Watch)
	v.SetDefault("rebuild.sync_interval", def.Rebuild.SyncInterval)
}
