package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/cellgen/internal/cli/output"
	"github.com/leapstack-labs/cellgen/internal/engine"
	"github.com/leapstack-labs/cellgen/internal/loader"
	"github.com/leapstack-labs/cellgen/pkg/ast"
)

// OrderOutput is the JSON output of the order command.
type OrderOutput struct {
	Name   string           `json:"name"`
	Levels [][]OrderedEntry `json:"levels"`
}

// OrderedEntry is one equation of an execution level.
type OrderedEntry struct {
	ID       int      `json:"id"`
	Type     string   `json:"type"`
	Equation string   `json:"equation,omitempty"`
	Computes []string `json:"computes"`
}

// NewOrderCommand creates the order command.
func NewOrderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order <path>",
		Short: "Show the execution levels of a model's equations",
		Long: `Group the equations of a valid model into execution levels. Every equation
only depends on equations of earlier levels. The equations of an NLA system
share a level. Rates do not create dependencies since states are inputs of
every generated routine.`,
		Example: `  cellgen order models/two_states.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(cmd, args[0])
		},
	}
	cmd.Flags().StringSlice("externals", nil, "Variables computed by the external-variable callback (component.variable)")
	return cmd
}

func runOrder(cmd *cobra.Command, path string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	src, err := loader.Load(path)
	if err != nil {
		return err
	}
	a, err := cmdCtx.Engine.Analyse(cmd.Context(), src)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer
	if !a.Model.IsValid() {
		renderIssues(r, a.Issues)
		return errInvalid(1)
	}

	levels, err := engine.Levels(a.Model)
	if err != nil {
		return err
	}

	out := OrderOutput{Name: src.Model.Name, Levels: make([][]OrderedEntry, len(levels))}
	for i, level := range levels {
		out.Levels[i] = []OrderedEntry{}
		for _, e := range level {
			entry := OrderedEntry{ID: e.ID(), Type: e.Type.String()}
			if e.Ast != nil {
				entry.Equation = ast.String(e.Ast)
			}
			for _, v := range a.Model.ComputedVariables(e) {
				entry.Computes = append(entry.Computes, v.String())
			}
			out.Levels[i] = append(out.Levels[i], entry)
		}
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	r.Header(1, fmt.Sprintf("Execution order: %s", out.Name))
	rows := make([][]string, 0, len(a.Model.Equations()))
	for i, level := range out.Levels {
		for _, e := range level {
			rows = append(rows, []string{
				strconv.Itoa(i + 1), strconv.Itoa(e.ID), typeTitle(e.Type),
				e.Equation, strings.Join(e.Computes, ", "),
			})
		}
	}
	r.Table([]string{"Level", "#", "Type", "Equation", "Computes"}, rows)
	return nil
}
