// Package generator renders analysed models as source code.
//
// Generate orders the equations of an analysed model into four routines
// (initialiseVariables, computeComputedConstants, computeRates and
// computeVariables) plus one objective function and findRoot routine per NLA
// system, and prints them with the spellings and templates of a profile.
// Variables an Overlay reports as untracked get no array slot: each routine
// that reads one recomputes it into a local temporary.
package generator

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/cellgen/pkg/analyser"
	"github.com/leapstack-labs/cellgen/pkg/core"
	"github.com/leapstack-labs/cellgen/pkg/profile"
	"github.com/leapstack-labs/cellgen/pkg/tracking"
)

// Version is written into generated code.
const Version = "0.1.0"

// Sentinel errors.
var (
	ErrInvalidModel = errors.New("model cannot be generated")
	ErrNilProfile   = errors.New("nil profile")
)

// Result is the generated code of one model for one profile.
type Result struct {
	Profile string
	// InterfaceFileName and Interface are empty when the profile has no
	// interface file.
	InterfaceFileName      string
	ImplementationFileName string
	Interface              string
	Implementation         string
	// Issues are those of the analysed model.
	Issues core.Issues
}

type config struct {
	tracker           tracking.Overlay
	interfaceFileName string
	logger            *slog.Logger
}

// Option is a functional option for Generate.
type Option func(*config)

// WithTracker decides which variables keep an array slot. Without it every
// variable is tracked.
func WithTracker(o tracking.Overlay) Option {
	return func(c *config) { c.tracker = o }
}

// WithInterfaceFileName overrides the interface file name the implementation
// includes.
func WithInterfaceFileName(name string) Option {
	return func(c *config) { c.interfaceFileName = name }
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Generate renders m with profile p. A model that is nil or not valid yields
// an ErrInvalidModel error; the result then carries the model issues only.
func Generate(m *analyser.Model, p *profile.Profile, opts ...Option) (*Result, error) {
	cfg := config{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&cfg)
	}

	if m == nil {
		return &Result{Issues: core.Issues{{
			Severity:    core.SeverityError,
			Code:        core.CodeGeneratorNullModel,
			Description: "The model is null.",
			Item:        core.Item{Kind: core.ItemModel},
		}}}, fmt.Errorf("%w: nil model", ErrInvalidModel)
	}
	if !m.IsValid() {
		return &Result{Issues: m.Issues()}, fmt.Errorf("%w: model is %s", ErrInvalidModel, m.Type)
	}
	if p == nil {
		return nil, ErrNilProfile
	}

	if cfg.interfaceFileName == "" {
		cfg.interfaceFileName = p.Templates.InterfaceFileName
	}

	g := newEmitter(m, p, cfg)
	res := &Result{
		Profile:                p.Name,
		ImplementationFileName: p.Templates.ImplementationFileName,
		Implementation:         g.implementation(),
		Issues:                 m.Issues(),
	}
	if p.HasInterface {
		res.InterfaceFileName = cfg.interfaceFileName
		res.Interface = g.iface()
	}
	return res, nil
}
