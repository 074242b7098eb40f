package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/cellgen/internal/cli/output"
	"github.com/leapstack-labs/cellgen/internal/engine"
	"github.com/leapstack-labs/cellgen/internal/loader"
	"github.com/leapstack-labs/cellgen/pkg/analyser"
	"github.com/leapstack-labs/cellgen/pkg/core"
)

// TrackOutput is the JSON output of the track command.
type TrackOutput struct {
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Variables []TrackedEntry `json:"variables"`
	Counts    []TrackCount   `json:"counts"`
	Issues    core.Issues    `json:"issues"`
}

// TrackedEntry is the tracking state of one variable.
type TrackedEntry struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Tracked bool   `json:"tracked"`
}

// TrackCount counts tracked and untracked variables of one kind.
type TrackCount struct {
	Kind      string `json:"kind"`
	Tracked   int    `json:"tracked"`
	Untracked int    `json:"untracked"`
}

// NewTrackCommand creates the track command.
func NewTrackCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track <path>",
		Short: "Show which variables generated code stores",
		Long: `Report the tracking state of the constants, computed constants and algebraic
variables of a model after applying --untrack requests.

Tracked variables have a slot in the generated variables array. Untracked
ones are recomputed where needed. States, the variable of integration and
externals are always tracked, as are variables an external variable depends
on. Rejected requests are listed as issues.`,
		Example: `  # Untrack two variables
  cellgen track models/decay.yaml --untrack main.k,main.a

  # Untrack every algebraic variable
  cellgen track models/decay.yaml --untrack algebraic`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrack(cmd, args[0])
		},
	}
	cmd.Flags().StringSlice("untrack", nil, "Variables to untrack (component.variable, constants, computed_constants, algebraic or all)")
	cmd.Flags().StringSlice("externals", nil, "Variables computed by the external-variable callback (component.variable)")
	return cmd
}

func runTrack(cmd *cobra.Command, path string) error {
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
	out := trackOutput(a)
	switch {
	case r.EffectiveMode() == output.ModeJSON:
		if err := r.JSON(out); err != nil {
			return err
		}
	case a.Model.IsValid():
		renderTrack(r, out)
	default:
		renderIssues(r, out.Issues)
	}

	if !a.Model.IsValid() {
		return errInvalid(1)
	}
	return nil
}

func trackOutput(a *engine.Analysis) TrackOutput {
	m, t := a.Model, a.Tracker
	out := TrackOutput{
		Name:      a.Source.Model.Name,
		Type:      m.Type.String(),
		Variables: []TrackedEntry{},
		Counts:    []TrackCount{},
		Issues:    a.Issues,
	}
	if out.Issues == nil {
		out.Issues = core.Issues{}
	}
	if !m.IsValid() {
		return out
	}

	var trackable []*analyser.Variable
	trackable = append(trackable, m.Constants()...)
	trackable = append(trackable, m.ComputedConstants()...)
	trackable = append(trackable, m.Algebraic()...)
	for _, v := range trackable {
		out.Variables = append(out.Variables, TrackedEntry{
			Name:    v.String(),
			Type:    v.Type.String(),
			Tracked: t.IsTracked(m, v),
		})
	}

	out.Counts = []TrackCount{
		{"constant", t.TrackedConstantCount(m), t.UntrackedConstantCount(m)},
		{"computed_constant", t.TrackedComputedConstantCount(m), t.UntrackedComputedConstantCount(m)},
		{"algebraic", t.TrackedAlgebraicCount(m), t.UntrackedAlgebraicCount(m)},
		{"total", t.TrackedVariableCount(m), t.UntrackedVariableCount(m)},
	}
	return out
}

func renderTrack(r *output.Renderer, out TrackOutput) {
	r.Header(1, fmt.Sprintf("Tracking: %s (%s)", out.Name, out.Type))

	rows := make([][]string, 0, len(out.Variables))
	for _, v := range out.Variables {
		state := "tracked"
		if !v.Tracked {
			state = "untracked"
		}
		rows = append(rows, []string{v.Name, typeTitle(v.Type), state})
	}
	if len(rows) > 0 {
		r.Table([]string{"Variable", "Type", "State"}, rows)
	}

	counts := make([][]string, 0, len(out.Counts))
	for _, c := range out.Counts {
		counts = append(counts, []string{typeTitle(c.Kind), strconv.Itoa(c.Tracked), strconv.Itoa(c.Untracked)})
	}
	r.Header(2, "Counts")
	r.Table([]string{"Kind", "Tracked", "Untracked"}, counts)

	renderIssues(r, out.Issues)
}
