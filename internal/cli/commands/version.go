package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/cellgen/pkg/generator"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the cellgen version and the version written into generated code.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "cellgen v%s\n", version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Generated code version: %s\n", generator.Version)
		},
	}
}
