package cmd

import (
	"fmt"

	"github.com/quantmind-br/msipkg/internal/core"
	"github.com/quantmind-br/msipkg/internal/provider"
	"github.com/spf13/cobra"
)

// NewVersionCmd creates the version command
func NewVersionCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "msipkg version %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "provider %s (%s)\n", core.ProviderName, provider.ID)
		},
	}

	return cmd
}
