package cmd

import (
	"github.com/quantmind-br/msipkg/internal/provider"
	"github.com/spf13/cobra"
)

// NewFindCmd creates the find command
func NewFindCmd(app *App) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "find <path>",
		Short: "Read the record of a package file",
		Long:  `Read the product or patch record of an .msi or .msp file without installing it.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.provider()
			if err != nil {
				return err
			}

			app.Log.Debug().Str("package_path", args[0]).Msg("reading package")

			out := newOutputWriter(cmd.ErrOrStderr(), "")
			if err := p.FindPackage(cmd.Context(), provider.Request{Path: args[0]}, out); err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), out.packages, true)
			}
			for _, pkg := range out.packages {
				printPackageDetails(cmd.OutOrStdout(), pkg)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	return cmd
}
