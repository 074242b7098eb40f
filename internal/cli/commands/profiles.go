package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/cellgen/internal/cli/output"
	"github.com/leapstack-labs/cellgen/pkg/profile"
)

// ProfileInfo describes a registered profile.
type ProfileInfo struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	InterfaceFile      string `json:"interface_file,omitempty"`
	ImplementationFile string `json:"implementation_file"`
}

// NewProfilesCommand creates the profiles command.
func NewProfilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the code generation profiles",
		Long: `List the registered code generation profiles. The spellings and templates of
a profile can be overridden under profiles.<name> in cellgen.yaml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProfiles(cmd)
		},
	}
}

func runProfiles(cmd *cobra.Command) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)

	infos := make([]ProfileInfo, 0)
	for _, name := range profile.List() {
		p, err := profile.Resolve(name, cmdCtx.Cfg.Profiles[name])
		if err != nil {
			return err
		}
		info := ProfileInfo{
			Name:               p.Name,
			Description:        p.Description,
			ImplementationFile: p.Templates.ImplementationFileName,
		}
		if p.HasInterface {
			info.InterfaceFile = p.Templates.InterfaceFileName
		}
		infos = append(infos, info)
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(infos)
	}

	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, []string{info.Name, info.Description, info.InterfaceFile, info.ImplementationFile})
	}
	r.Table([]string{"Profile", "Description", "Interface", "Implementation"}, rows)
	return nil
}
