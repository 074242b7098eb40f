package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/cellgen/internal/cli/output"
	"github.com/leapstack-labs/cellgen/internal/loader"
	"github.com/leapstack-labs/cellgen/pkg/units"
)

// UnitsOutput is the JSON output of the units command.
type UnitsOutput struct {
	From          UnitsInfo `json:"from"`
	To            UnitsInfo `json:"to"`
	Equivalent    bool      `json:"equivalent"`
	ScalingFactor float64   `json:"scaling_factor,omitempty"`
}

// UnitsInfo is a units name with its base dimension. Multiplier is the
// power of ten the units carry over their base, 0 for base units.
type UnitsInfo struct {
	Name       string  `json:"name"`
	Dimension  string  `json:"dimension"`
	Multiplier float64 `json:"multiplier"`
}

// NewUnitsCommand creates the units command.
func NewUnitsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "units <path> <from> <to>",
		Short: "Compare two units of a model",
		Long: `Resolve two units, standard or defined by the model, to their base
dimensions and print the factor a value in <from> is multiplied by to
express it in <to>.`,
		Example: `  cellgen units models/membrane.yaml millisecond second
  cellgen units models/membrane.yaml millivolt volt --output json`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnits(cmd, args[0], args[1], args[2])
		},
	}
}

func runUnits(cmd *cobra.Command, path, from, to string) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)

	src, err := loader.Load(path)
	if err != nil {
		return err
	}
	reg := units.NewRegistry(src.Model)

	out := UnitsOutput{From: UnitsInfo{Name: from}, To: UnitsInfo{Name: to}}
	for _, info := range []*UnitsInfo{&out.From, &out.To} {
		d, err := reg.Resolve(info.Name)
		if err != nil {
			return fmt.Errorf("units %q: %w", info.Name, err)
		}
		info.Dimension = d.Base()
		info.Multiplier = d.Multiplier
	}
	out.ScalingFactor, out.Equivalent = reg.ScalingFactor(from, to)

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	r.Table([]string{"Units", "Dimension", "Multiplier"}, [][]string{
		{out.From.Name, out.From.Dimension, multiplier(out.From.Multiplier)},
		{out.To.Name, out.To.Dimension, multiplier(out.To.Multiplier)},
	})
	if !out.Equivalent {
		r.Warning(fmt.Sprintf("%s and %s are not equivalent", from, to))
		return nil
	}
	r.Printf("1 %s = %s %s\n", from, strconv.FormatFloat(out.ScalingFactor, 'g', -1, 64), to)
	return nil
}

func multiplier(exp float64) string {
	return "10^" + strconv.FormatFloat(exp, 'g', -1, 64)
}
