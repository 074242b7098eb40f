package analyser

import (
	"log/slog"

	"github.com/leapstack-labs/cellgen/pkg/model"
)

// External marks a variable as supplied by the external-variable callback of
// generated code. Dependencies lists the variables the callback needs to be
// up to date before it is called.
type External struct {
	Variable     *model.Variable
	Dependencies []*model.Variable
}

type config struct {
	externals []External
	logger    *slog.Logger
}

// Option is a functional option for Analyse.
type Option func(*config)

// WithExternals marks variables as externally supplied.
func WithExternals(externals ...External) Option {
	return func(c *config) {
		c.externals = append(c.externals, externals...)
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}
