package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/cellgen/internal/cli/output"
	"github.com/leapstack-labs/cellgen/internal/engine"
	"github.com/leapstack-labs/cellgen/pkg/analyser"
	"github.com/leapstack-labs/cellgen/pkg/ast"
	"github.com/leapstack-labs/cellgen/pkg/core"
)

// AnalyseOutput is the JSON output of the analyse command.
type AnalyseOutput struct {
	Models []ModelReport `json:"models"`
}

// ModelReport describes one analysed model.
type ModelReport struct {
	Name      string           `json:"name"`
	Path      string           `json:"path"`
	Type      string           `json:"type"`
	Valid     bool             `json:"valid"`
	Variables []VariableReport `json:"variables"`
	Equations []EquationReport `json:"equations"`
	Issues    core.Issues      `json:"issues"`
	Counts    map[string]int   `json:"counts"`
}

// VariableReport describes one analysed variable.
type VariableReport struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Index   int    `json:"index"`
	Units   string `json:"units,omitempty"`
	Initial string `json:"initial,omitempty"`
}

// EquationReport describes one analysed equation.
type EquationReport struct {
	ID        int      `json:"id"`
	Type      string   `json:"type"`
	Component string   `json:"component,omitempty"`
	Equation  string   `json:"equation,omitempty"`
	Computes  []string `json:"computes"`
	DependsOn []int    `json:"depends_on,omitempty"`
	NlaSystem int      `json:"nla_system,omitempty"`
}

// NewAnalyseCommand creates the analyse command.
func NewAnalyseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "analyse [paths...]",
		Aliases: []string{"analyze"},
		Short:   "Classify the variables and equations of model documents",
		Long: `Analyse model documents: find the variable of integration and the states,
classify every other variable and equation, and report the issues that make a
model invalid or its units inconsistent.

Paths may be model files or directories, searched recursively for .yaml, .yml
and .hcl documents. Without paths the project root is searched.

Output adapts to environment:
  - Terminal: Styled tables
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # Analyse one model
  cellgen analyse models/hodgkin_huxley.yaml

  # Analyse with an externally computed variable
  cellgen analyse models/membrane.hcl --externals membrane.i_Na

  # Analyse every model as JSON
  cellgen analyse models --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyse(cmd, args)
		},
	}
	cmd.Flags().StringSlice("externals", nil, "Variables computed by the external-variable callback (component.variable)")
	return cmd
}

func runAnalyse(cmd *cobra.Command, args []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	paths, err := modelPaths(cmdCtx.Cfg, args)
	if err != nil {
		return err
	}
	analyses, err := analyseAll(cmd.Context(), cmdCtx.Engine, paths)
	if err != nil {
		return err
	}

	invalid := 0
	out := AnalyseOutput{Models: make([]ModelReport, 0, len(analyses))}
	for _, a := range analyses {
		if err := cmdCtx.Engine.Record(cmd.Context(), a); err != nil {
			return err
		}
		if !a.Model.IsValid() {
			invalid++
		}
		out.Models = append(out.Models, buildModelReport(a))
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		if err := r.JSON(out); err != nil {
			return err
		}
	} else {
		for _, m := range out.Models {
			renderModelReport(r, m)
		}
	}

	if invalid > 0 {
		return errInvalid(invalid)
	}
	return nil
}

func buildModelReport(a *engine.Analysis) ModelReport {
	m := a.Model
	report := ModelReport{
		Name:   a.Source.Model.Name,
		Path:   a.Source.Path,
		Type:   m.Type.String(),
		Valid:  m.IsValid(),
		Issues: a.Issues,
		Counts: map[string]int{},
	}
	if report.Issues == nil {
		report.Issues = core.Issues{}
	}

	for _, v := range reportVariables(m) {
		vr := VariableReport{
			Name:  v.String(),
			Type:  v.Type.String(),
			Index: v.Index,
			Units: v.Variable.Units,
		}
		if v.Initialising != nil {
			vr.Initial = v.Initialising.InitialValue
		}
		report.Variables = append(report.Variables, vr)
		report.Counts[vr.Type]++
	}

	for _, e := range m.Equations() {
		er := EquationReport{
			ID:   e.ID(),
			Type: e.Type.String(),
		}
		if e.Component != nil {
			er.Component = e.Component.Name
		}
		if e.Ast != nil {
			er.Equation = ast.String(e.Ast)
		}
		if e.Type == analyser.EquationNLA {
			er.NlaSystem = e.NlaSystemIndex + 1
		}
		for _, v := range m.ComputedVariables(e) {
			er.Computes = append(er.Computes, v.String())
		}
		for _, d := range m.Dependencies(e) {
			er.DependsOn = append(er.DependsOn, d.ID())
		}
		report.Equations = append(report.Equations, er)
	}
	return report
}

// reportVariables lists the variable of integration, states, variables and
// externals of m, each once.
func reportVariables(m *analyser.Model) []*analyser.Variable {
	var vs []*analyser.Variable
	seen := map[int]bool{}
	add := func(list ...*analyser.Variable) {
		for _, v := range list {
			if v != nil && !seen[v.ID()] {
				seen[v.ID()] = true
				vs = append(vs, v)
			}
		}
	}
	add(m.Voi())
	add(m.States()...)
	add(m.Variables()...)
	add(m.Externals()...)
	return vs
}

// typeTitle turns an enum string such as computed_constant into a heading.
func typeTitle(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(s, "_", " "))
}

func renderModelReport(r *output.Renderer, m ModelReport) {
	r.Header(1, fmt.Sprintf("%s (%s)", m.Name, m.Path))
	status := "valid"
	if !m.Valid {
		status = "invalid"
	}
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatKeyValue("Type", m.Type))
		r.Println(output.FormatKeyValue("Status", status))
		r.Println("")
	} else {
		style := r.Styles().Success
		if !m.Valid {
			style = r.Styles().Error
		}
		r.Printf("Type: %s  Status: %s\n\n", r.Styles().Bold.Render(m.Type), style.Render(status))
	}

	if len(m.Variables) > 0 {
		r.Header(2, fmt.Sprintf("Variables (%d)", len(m.Variables)))
		rows := make([][]string, 0, len(m.Variables))
		for _, v := range m.Variables {
			rows = append(rows, []string{v.Name, typeTitle(v.Type), strconv.Itoa(v.Index), v.Units, v.Initial})
		}
		r.Table([]string{"Variable", "Type", "Index", "Units", "Initial"}, rows)
	}

	if len(m.Equations) > 0 {
		r.Header(2, fmt.Sprintf("Equations (%d)", len(m.Equations)))
		rows := make([][]string, 0, len(m.Equations))
		for _, e := range m.Equations {
			typ := typeTitle(e.Type)
			if e.NlaSystem > 0 {
				typ += fmt.Sprintf(" #%d", e.NlaSystem)
			}
			deps := make([]string, len(e.DependsOn))
			for i, d := range e.DependsOn {
				deps[i] = strconv.Itoa(d)
			}
			rows = append(rows, []string{
				strconv.Itoa(e.ID), typ, e.Equation,
				strings.Join(e.Computes, ", "), strings.Join(deps, ", "),
			})
		}
		r.Table([]string{"#", "Type", "Equation", "Computes", "Depends On"}, rows)
	}

	renderIssues(r, m.Issues)
}
