package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/lexandro/contextrank-mcp/config"
	"github.com/lexandro/contextrank-mcp/register"
	"github.com/lexandro/contextrank-mcp/server"
	"github.com/lexandro/contextrank-mcp/tools"
	"github.com/lexandro/contextrank-mcp/watcher"
)

var rootCmd = &cobra.Command{
	Use:   "contextrank-mcp",
	Short: "Relevance engine that picks the project files a prompt needs",
	Long: `contextrank-mcp ranks the files of a project by how relevant they are to the
files you selected and the task you describe. It combines a static import graph,
git co-change history, recent edits, task keywords and path heuristics, then
fills a token budget with Smart Previews.

Without a subcommand it serves the MCP tools on stdio.`,
	Version:       server.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the MCP tools on stdio (default)",
	Long: `Index the project, load or build the import graph and serve the MCP tools on
stdio. The file tree is watched and the graph rebuilt in the background once
changes settle and the user is idle.

Examples:
  contextrank-mcp serve
  contextrank-mcp serve --root ~/src/shop --exclude "fixtures/**" --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	recalcTask     string
	recalcPreviews bool
)

var recalcCmd = &cobra.Command{
	Use:   "recalc [paths...]",
	Short: "Rank project files for a selection and print the result as JSON",
	Long: `Run one recalculation against the project and print the result. Paths are
relative to the project root. With no paths the seed basket is filled from
recent edits, hub files and the task keywords.

Examples:
  contextrank-mcp recalc src/auth/login.ts --task "fix login button"
  contextrank-mcp recalc --task "session cookies" --previews`,
	RunE: runRecalc,
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect or rebuild the project import graph",
}

var graphBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Rebuild the import graph and refresh its cache",
	Long: `Scan every project file, rebuild the import graph and write the cache that the
server loads on start.

Examples:
  contextrank-mcp graph build
  contextrank-mcp graph build --cache-dir /tmp/contextrank`,
	Args: cobra.NoArgs,
	RunE: runGraphBuild,
}

var graphHubsTop int

var graphHubsCmd = &cobra.Command{
	Use:   "hubs",
	Short: "List the files imported by the most other files",
	Long: `Print the hub files of the project graph with their in-degree.

Examples:
  contextrank-mcp graph hubs
  contextrank-mcp graph hubs --top 20`,
	Args: cobra.NoArgs,
	RunE: runGraphHubs,
}

var registerName string

var registerCmd = &cobra.Command{
	Use:   "register <project|user> [dir] [-- server-args...]",
	Short: "Add this server to an MCP client configuration",
	Long: `Write the server entry into .mcp.json of a project (project scope) or into
~/.claude.json (user scope). Arguments after -- are passed to the server on
every start.

Examples:
  contextrank-mcp register project
  contextrank-mcp register project ~/src/shop -- --exclude "fixtures/**"
  contextrank-mcp register user --name contextrank`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRegister,
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())
	rootCmd.SetVersionTemplate("contextrank-mcp version {{.Version}}\n")

	recalcCmd.Flags().StringVar(&recalcTask, "task", "", "Task description used for keyword matching")
	recalcCmd.Flags().BoolVar(&recalcPreviews, "previews", false, "Include preview text in the output")

	graphHubsCmd.Flags().IntVar(&graphHubsTop, "top", 0, "Number of hubs to list (default: relevance.hub_top_n)")

	registerCmd.Flags().StringVar(&registerName, "name", "", "Server name in the client config (default: derived from the binary name)")

	graphCmd.AddCommand(graphBuildCmd, graphHubsCmd)
	rootCmd.AddCommand(serveCmd, recalcCmd, graphCmd, registerCmd)
}

// loadConfig resolves the configuration for cmd's flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	return config.Load(cmd.Flags(), wd)
}

// openProject loads the configuration and builds the services without
// touching the file tree.
func openProject(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := setupLogger(cfg.LogLevel, cfg.LogFile)
	logger.Info("starting contextrank-mcp",
		"command", cmd.Name(),
		"root", cfg.RootDir,
		"maxFileSize", cfg.MaxFileSize,
		"maxNeighborTokens", cfg.Relevance.MaxNeighborTokens,
	)
	return newApp(cfg, logger), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openProject(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.load(ctx); err != nil {
		return err
	}

	go a.scheduler.Run(ctx)

	if a.cfg.Rebuild.Watch {
		fileWatcher, err := watcher.NewWatcher(watcher.Options{
			RootDir:     a.cfg.RootDir,
			Ignore:      a.ignore,
			QuietPeriod: a.cfg.Rebuild.QuiescenceWindow,
			Logger:      a.logger,
		})
		if err != nil {
			a.logger.Warn("failed to start file watcher, continuing without live updates", "error", err)
		} else {
			go fileWatcher.Start()
			go handleWatcherEvents(ctx, fileWatcher.Events(), a.cfg.RootDir, a.files, a.ignore, a.scheduler, a.logger)
			defer fileWatcher.Close()
		}
	}

	if a.cfg.Rebuild.SyncInterval > 0 {
		go runPeriodicSync(ctx, a.cfg.Rebuild.SyncInterval, a.cfg.RootDir, a.files, a.ignore, a.scheduler, a.logger)
	}

	mcpServer := server.Setup(a.handlers())

	a.logger.Info("MCP server starting on stdio")
	if err := mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("MCP server error", "error", err)
		return fmt.Errorf("MCP server: %w", err)
	}
	a.logger.Info("MCP server stopped")
	return nil
}

func runRecalc(cmd *cobra.Command, args []string) error {
	a, err := openProject(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := a.load(ctx); err != nil {
		return err
	}

	result, err := a.engine.Recalculate(ctx, args, recalcTask)
	if err != nil {
		return fmt.Errorf("recalculating: %w", err)
	}
	if !recalcPreviews {
		result = result.WithoutPreviewText()
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runGraphBuild(cmd *cobra.Command, args []string) error {
	a, err := openProject(cmd)
	if err != nil {
		return err
	}
	a.indexFiles()

	start := time.Now()
	snap, err := a.graph.Rebuild(cmd.Context())
	if err != nil {
		return fmt.Errorf("rebuilding project graph: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "graph rebuilt: %d files, %d import edges in %s\n",
		snap.FileCount(), snap.EdgeCount(), time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(out, "cache: %s\n", a.graph.CachePath())
	return nil
}

func runGraphHubs(cmd *cobra.Command, args []string) error {
	a, err := openProject(cmd)
	if err != nil {
		return err
	}
	if err := a.load(cmd.Context()); err != nil {
		return err
	}

	top := graphHubsTop
	if top <= 0 {
		top = a.cfg.Relevance.HubTopN
	}
	snap := a.graph.Current()
	fmt.Fprint(cmd.OutOrStdout(), tools.FormatHubs(snap.HubFiles(top), snap.Version))
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	positional := args
	var serverArgs []string
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		positional = args[:dash]
		serverArgs = args[dash:]
	}
	if len(positional) == 0 || len(positional) > 2 {
		return fmt.Errorf("expected <project|user> [dir], got %d arguments", len(positional))
	}

	scope, err := register.ParseScope(positional[0])
	if err != nil {
		return err
	}
	opts := register.Options{
		Scope:      scope,
		ServerName: registerName,
		ServerArgs: serverArgs,
	}
	if len(positional) == 2 {
		if scope != register.ScopeProject {
			return errors.New("a directory only applies to the project scope")
		}
		opts.Directory = positional[1]
	}

	configPath, err := register.Register(opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered MCP server in %s\n", configPath)
	return nil
}
