// Package engine runs the cellgen pipeline over model documents.
// It loads documents, analyses them, applies tracking requests and
// generates code for every configured profile, recording each run in the
// history store when one is configured.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/cellgen/internal/loader"
	"github.com/leapstack-labs/cellgen/internal/store"
	"github.com/leapstack-labs/cellgen/pkg/analyser"
	"github.com/leapstack-labs/cellgen/pkg/core"
	"github.com/leapstack-labs/cellgen/pkg/generator"
	"github.com/leapstack-labs/cellgen/pkg/profile"
	"github.com/leapstack-labs/cellgen/pkg/tracking"
)

// Untrack selectors accepted in Config.Untrack besides component.variable
// paths.
const (
	UntrackConstants         = "constants"
	UntrackComputedConstants = "computed_constants"
	UntrackAlgebraic         = "algebraic"
	UntrackAll               = "all"
)

// Recorder stores run records.
type Recorder interface {
	RecordRun(ctx context.Context, run *store.Run) error
}

// Config holds engine configuration.
type Config struct {
	// Profiles code is generated for. Analyse ignores them.
	Profiles []*profile.Profile
	// Externals lists extra "component.variable" paths supplied by the
	// external-variable callback, on top of those a document declares.
	Externals []string
	// Untrack lists "component.variable" paths or one of the Untrack
	// selectors.
	Untrack []string
	// InterfaceFileName overrides the interface file name of every profile.
	InterfaceFileName string
	// Concurrency bounds GenerateAll (defaults to GOMAXPROCS).
	Concurrency int
	// Store records runs (optional).
	Store Recorder
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Engine runs the pipeline. It is safe for concurrent use.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.GOMAXPROCS(0)
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Analysis is an analysed document with its tracking state.
type Analysis struct {
	Source  *loader.Source
	Model   *analyser.Model
	Tracker *tracking.Tracker
	// Issues holds the issues of the model followed by those of the
	// tracking requests.
	Issues core.Issues
}

// Output is the generated code of one document.
type Output struct {
	*Analysis
	// Results holds one result per profile, in profile order. It is empty
	// when the model cannot be generated.
	Results []*generator.Result
}

// Analyse classifies src and applies the configured tracking requests.
func (e *Engine) Analyse(ctx context.Context, src *loader.Source) (*Analysis, error) {
	externals, err := e.externals(src)
	if err != nil {
		return nil, err
	}

	am := analyser.Analyse(ctx, src.Model,
		analyser.WithExternals(externals...),
		analyser.WithLogger(e.logger))

	a := &Analysis{
		Source:  src,
		Model:   am,
		Tracker: tracking.New(),
		Issues:  am.Issues(),
	}

	if am.IsValid() {
		issues, err := e.untrack(am, a.Tracker)
		if err != nil {
			return nil, err
		}
		a.Issues = append(a.Issues, issues...)
	}

	e.logger.DebugContext(ctx, "document analysed",
		slog.String("path", src.Path),
		slog.String("type", am.Type.String()),
		slog.Int("issues", len(a.Issues)))
	return a, nil
}

// Generate analyses src and generates code for every profile.
func (e *Engine) Generate(ctx context.Context, src *loader.Source) (*Output, error) {
	a, err := e.Analyse(ctx, src)
	if err != nil {
		return nil, err
	}
	out := &Output{Analysis: a}
	if !a.Model.IsValid() {
		return out, nil
	}

	opts := []generator.Option{
		generator.WithTracker(a.Tracker),
		generator.WithLogger(e.logger),
	}
	if e.cfg.InterfaceFileName != "" {
		opts = append(opts, generator.WithInterfaceFileName(e.cfg.InterfaceFileName))
	}
	for _, p := range e.cfg.Profiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := generator.Generate(a.Model, p, opts...)
		if err != nil {
			return nil, fmt.Errorf("generating %s code for %s: %w", p.Name, src.Path, err)
		}
		out.Results = append(out.Results, res)
	}
	return out, nil
}

// GenerateAll loads and generates every document concurrently. Outputs are
// returned in path order and recorded in the store, if any, once all
// documents succeeded.
func (e *Engine) GenerateAll(ctx context.Context, paths []string) ([]*Output, error) {
	outputs := make([]*Output, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for i, path := range paths {
		g.Go(func() error {
			src, err := loader.Load(path)
			if err != nil {
				return err
			}
			out, err := e.Generate(gctx, src)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, out := range outputs {
		if err := e.Record(ctx, out.Analysis, out.Results...); err != nil {
			return nil, err
		}
	}
	return outputs, nil
}

// Record stores a run of a, if a store is configured.
func (e *Engine) Record(ctx context.Context, a *Analysis, results ...*generator.Result) error {
	if e.cfg.Store == nil {
		return nil
	}
	run := &store.Run{
		Model:     a.Source.Model.Name,
		Path:      a.Source.Path,
		Hash:      a.Source.Hash,
		Type:      a.Model.Type.String(),
		States:    len(a.Model.States()),
		Variables: len(a.Model.Variables()),
		Equations: len(a.Model.Equations()),
		Issues:    a.Issues,
	}
	for _, r := range results {
		run.Profiles = append(run.Profiles, r.Profile)
	}
	if err := e.cfg.Store.RecordRun(ctx, run); err != nil {
		return fmt.Errorf("recording run of %s: %w", a.Source.Path, err)
	}
	return nil
}

func (e *Engine) externals(src *loader.Source) ([]analyser.External, error) {
	externals := append([]analyser.External(nil), src.Externals...)
	for _, path := range e.cfg.Externals {
		v, err := loader.ResolveVariable(src.Model, path)
		if err != nil {
			return nil, fmt.Errorf("external variable of %s: %w", src.Path, err)
		}
		externals = append(externals, analyser.External{Variable: v})
	}
	return externals, nil
}

// untrack applies the configured untrack requests and returns the issues
// they raised.
func (e *Engine) untrack(am *analyser.Model, t *tracking.Tracker) (core.Issues, error) {
	var issues core.Issues
	for _, sel := range e.cfg.Untrack {
		switch strings.ToLower(sel) {
		case UntrackConstants:
			t.UntrackAllConstants(am)
		case UntrackComputedConstants:
			t.UntrackAllComputedConstants(am)
		case UntrackAlgebraic:
			t.UntrackAllAlgebraic(am)
		case UntrackAll:
			t.UntrackAllVariables(am)
		default:
			v, err := loader.ResolveVariable(am.Source(), sel)
			if err != nil {
				return nil, fmt.Errorf("untrack: %w", err)
			}
			t.UntrackVariable(am, am.VariableOf(v))
		}
		issues = append(issues, t.Issues()...)
	}
	return issues, nil
}
