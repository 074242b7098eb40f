package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/cellgen/internal/cli/output"
	"github.com/leapstack-labs/cellgen/internal/engine"
	"github.com/leapstack-labs/cellgen/pkg/core"
)

// GenerateOutput is the JSON output of the generate command.
type GenerateOutput struct {
	Models []GeneratedModel `json:"models"`
}

// GeneratedModel holds the files generated for one model.
type GeneratedModel struct {
	Name   string          `json:"name"`
	Path   string          `json:"path"`
	Type   string          `json:"type"`
	Files  []GeneratedFile `json:"files"`
	Issues core.Issues     `json:"issues"`
}

// GeneratedFile is one generated file. Path is set when it was written to
// disk, Content otherwise.
type GeneratedFile struct {
	Profile string `json:"profile"`
	Name    string `json:"name"`
	Path    string `json:"path,omitempty"`
	Content string `json:"content,omitempty"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [paths...]",
		Short: "Generate simulation code from model documents",
		Long: `Generate the interface and implementation files of every model document for
each selected profile.

Files are written to --out-dir, in one subdirectory per model when several
documents are generated. Without --out-dir the code is printed.

With --watch, documents are regenerated whenever they change.`,
		Example: `  # Print the C code of a model
  cellgen generate models/decay.yaml

  # Write C and Python code
  cellgen generate models --profile c,python --out-dir generated

  # Regenerate on change, recomputing algebraic variables instead of storing them
  cellgen generate models --out-dir generated --untrack algebraic --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args)
		},
	}

	cmd.Flags().StringSliceP("profile", "p", nil, "Profiles to generate (c, python)")
	cmd.Flags().String("out-dir", "", "Directory generated files are written to")
	cmd.Flags().String("interface-file", "", "Interface file name included by the implementation")
	cmd.Flags().StringSlice("externals", nil, "Variables computed by the external-variable callback (component.variable)")
	cmd.Flags().StringSlice("untrack", nil, "Variables to untrack (component.variable, constants, computed_constants, algebraic or all)")
	cmd.Flags().Bool("watch", false, "Regenerate when model documents change")

	_ = cmd.RegisterFlagCompletionFunc("profile", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"c", "python"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	paths, err := modelPaths(cmdCtx.Cfg, args)
	if err != nil {
		return err
	}
	multi := len(paths) > 1

	if err := generateOnce(cmd.Context(), cmdCtx, paths, multi); err != nil {
		return err
	}

	watch, _ := cmd.Flags().GetBool("watch")
	if !watch {
		return nil
	}

	roots := args
	if len(roots) == 0 {
		roots = []string{cmdCtx.Cfg.ProjectRoot}
	}
	cmdCtx.Renderer.Println(cmdCtx.Renderer.Muted("Watching for changes (Ctrl+C to stop)..."))
	return watchModels(cmd.Context(), roots, watchDebounce, cmdCtx.Logger, func(changed []string) {
		if err := generateOnce(cmd.Context(), cmdCtx, changed, multi); err != nil {
			cmdCtx.Renderer.Error(err.Error())
		}
	})
}

// generateOnce generates paths and writes or prints the results. Invalid
// models are reported as an error after the valid ones were generated.
func generateOnce(ctx context.Context, cmdCtx *CommandContext, paths []string, multi bool) error {
	outputs, err := cmdCtx.Engine.GenerateAll(ctx, paths)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	result := GenerateOutput{Models: make([]GeneratedModel, 0, len(outputs))}
	invalid := 0
	for _, out := range outputs {
		gm, err := generatedModel(cmdCtx.Cfg.OutDir, out, multi)
		if err != nil {
			return err
		}
		if !out.Model.IsValid() {
			invalid++
		}
		result.Models = append(result.Models, gm)
	}

	if r.EffectiveMode() == output.ModeJSON {
		if err := r.JSON(result); err != nil {
			return err
		}
	} else {
		for _, gm := range result.Models {
			renderGeneratedModel(r, gm)
		}
	}

	if invalid > 0 {
		return errInvalid(invalid)
	}
	return nil
}

// generatedModel writes the files of out under outDir, or keeps their
// content when outDir is empty.
func generatedModel(outDir string, out *engine.Output, multi bool) (GeneratedModel, error) {
	gm := GeneratedModel{
		Name:   out.Source.Model.Name,
		Path:   out.Source.Path,
		Type:   out.Model.Type.String(),
		Files:  []GeneratedFile{},
		Issues: out.Issues,
	}
	if gm.Issues == nil {
		gm.Issues = core.Issues{}
	}

	dir := outDir
	if dir != "" && multi {
		dir = filepath.Join(outDir, gm.Name)
	}

	for _, res := range out.Results {
		files := []GeneratedFile{{Profile: res.Profile, Name: res.ImplementationFileName, Content: res.Implementation}}
		if res.InterfaceFileName != "" && res.Interface != "" {
			files = append([]GeneratedFile{{Profile: res.Profile, Name: res.InterfaceFileName, Content: res.Interface}}, files...)
		}
		for _, f := range files {
			if dir != "" {
				if err := os.MkdirAll(dir, 0750); err != nil {
					return gm, fmt.Errorf("failed to create output directory: %w", err)
				}
				f.Path = filepath.Join(dir, f.Name)
				if err := os.WriteFile(f.Path, []byte(f.Content), 0o644); err != nil { //nolint:gosec // generated sources are meant to be readable
					return gm, fmt.Errorf("failed to write %s: %w", f.Path, err)
				}
				f.Content = ""
			}
			gm.Files = append(gm.Files, f)
		}
	}
	return gm, nil
}

func renderGeneratedModel(r *output.Renderer, gm GeneratedModel) {
	markdown := r.EffectiveMode() == output.ModeMarkdown
	r.Header(1, fmt.Sprintf("%s (%s)", gm.Name, gm.Type))

	for _, f := range gm.Files {
		if f.Path != "" {
			r.Success(fmt.Sprintf("%s: %s", f.Profile, f.Path))
			continue
		}
		r.Header(2, f.Name)
		if markdown {
			r.Printf("```%s\n%s```\n\n", fenceLanguage(f.Profile), f.Content)
			continue
		}
		r.Println(f.Content)
	}
	if len(gm.Files) > 0 && gm.Files[0].Path != "" {
		r.Println("")
	}

	renderIssues(r, gm.Issues)
}

func fenceLanguage(profile string) string {
	switch profile {
	case "python":
		return "python"
	default:
		return "c"
	}
}
