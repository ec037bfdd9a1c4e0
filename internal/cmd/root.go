package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd(app *App, version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "msipkg",
		Short: "Windows Installer package provider",
		Long: `Find, list, install and uninstall Windows Installer products (.msi)
and patches (.msp) through msiexec.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewFindCmd(app))
	cmd.AddCommand(NewGetCmd(app))
	cmd.AddCommand(NewInstallCmd(app))
	cmd.AddCommand(NewUninstallCmd(app))
	cmd.AddCommand(NewHistoryCmd(app))
	cmd.AddCommand(NewDoctorCmd(app))
	cmd.AddCommand(NewCompletionCmd(app))
	cmd.AddCommand(NewVersionCmd(version))

	return cmd
}
