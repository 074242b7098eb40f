package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/cellgen/internal/cli/config"
	"github.com/leapstack-labs/cellgen/internal/cli/output"
	"github.com/leapstack-labs/cellgen/internal/engine"
	"github.com/leapstack-labs/cellgen/internal/loader"
	"github.com/leapstack-labs/cellgen/internal/store"
	"github.com/leapstack-labs/cellgen/pkg/core"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
	// Store is the history store, nil when history is disabled.
	Store *store.SQLiteStore
}

// NewCommandContext creates a CommandContext with an engine wired to the
// history store.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cc := NewCommandContextWithoutEngine(cmd)

	profiles, err := cc.Cfg.ResolveProfiles()
	if err != nil {
		return nil, nil, err
	}

	engCfg := engine.Config{
		Profiles:          profiles,
		Externals:         cc.Cfg.Externals,
		Untrack:           cc.Cfg.Untrack,
		InterfaceFileName: cc.Cfg.InterfaceFile,
		Concurrency:       cc.Cfg.Concurrency,
		Logger:            cc.Logger,
	}

	cleanup := func() {}
	if cc.Cfg.HistoryPath != "" {
		s, err := openHistory(cc.Cfg.HistoryPath, cc.Logger)
		if err != nil {
			return nil, nil, err
		}
		cc.Store = s
		engCfg.Store = s
		cleanup = func() {
			if err := s.Close(); err != nil {
				cc.Logger.Warn("failed to close history store", slog.String("error", err.Error()))
			}
		}
	}

	cc.Engine = engine.New(engCfg)
	return cc, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that don't analyse models.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the current configuration, or defaults when none was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		OutputFormat: config.DefaultOutput,
		Profile:      []string{config.DefaultProfile},
	}
}

// openHistory opens and migrates the history database, creating its directory.
func openHistory(path string, logger *slog.Logger) (*store.SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	s := store.NewSQLiteStore(logger)
	if err := s.Open(path); err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// modelPaths expands command arguments into model document paths. No
// argument means the project root.
func modelPaths(cfg *config.Config, args []string) ([]string, error) {
	if len(args) == 0 {
		root := cfg.ProjectRoot
		if root == "" {
			root = "."
		}
		args = []string{root}
	}

	var paths []string
	for _, arg := range args {
		found, err := loader.Discover(arg)
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			if !config.IsConfigFile(p) {
				paths = append(paths, p)
			}
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no model documents found in %s", strings.Join(args, ", "))
	}
	slices.Sort(paths)
	return slices.Compact(paths), nil
}

// analyseAll loads and analyses every document.
func analyseAll(ctx context.Context, eng *engine.Engine, paths []string) ([]*engine.Analysis, error) {
	analyses := make([]*engine.Analysis, 0, len(paths))
	for _, path := range paths {
		src, err := loader.Load(path)
		if err != nil {
			return nil, err
		}
		a, err := eng.Analyse(ctx, src)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}
	return analyses, nil
}

// errInvalid reports how many analysed models are invalid.
func errInvalid(n int) error {
	if n == 1 {
		return fmt.Errorf("1 model is invalid")
	}
	return fmt.Errorf("%d models are invalid", n)
}

// renderIssues writes issues as a styled list or markdown bullets.
func renderIssues(r *output.Renderer, issues core.Issues) {
	if len(issues) == 0 {
		return
	}
	r.Header(2, fmt.Sprintf("Issues (%d)", len(issues)))
	styles := r.Styles()
	for _, i := range issues {
		if r.EffectiveMode() == output.ModeMarkdown {
			r.Printf("- **[%s]** %s (`%s`)\n", severityLabel(i.Severity), i.Description, i.Code)
			continue
		}
		sev := styles.Severity(i.Severity).Render(fmt.Sprintf("%-7s", i.Severity))
		r.Printf("  %s %s %s\n", sev, i.Description, r.Muted("["+string(i.Code)+"]"))
	}
	r.Println("")
}

func severityLabel(s core.Severity) string {
	return strings.ToUpper(s.String())
}
