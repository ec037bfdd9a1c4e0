package cmd

import (
	"errors"
	"slices"

	"github.com/quantmind-br/msipkg/internal/core"
	"github.com/quantmind-br/msipkg/internal/fsops"
	"github.com/quantmind-br/msipkg/internal/helpers"
	"github.com/quantmind-br/msipkg/internal/journal"
	"github.com/quantmind-br/msipkg/internal/provider"
	"github.com/quantmind-br/msipkg/internal/security"
	"github.com/quantmind-br/msipkg/internal/ui"
	"github.com/spf13/cobra"
)

// packageExtensions are the file extensions that make an argument a path
var packageExtensions = []string{".msi", ".msp"}

// NewInstallCmd creates the install command
func NewInstallCmd(app *App) *cobra.Command {
	var (
		version     string
		installType string
		properties  []string
		jsonOutput  bool
		timeoutSecs int
	)

	cmd := &cobra.Command{
		Use:   "install <path-or-name>",
		Short: "Install a product or apply a patch",
		Long: `Install an .msi product or apply an .msp patch. An argument that is not a
package file names an installed package, which is reinstalled from its cached
local package.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := core.ParseInstallType(installType)
			if err != nil {
				return err
			}
			if err := security.ValidateProperties(properties); err != nil {
				return &core.Error{Kind: core.KindInvalidOperation, Message: "invalid property", Err: err}
			}

			p, err := app.provider()
			if err != nil {
				return err
			}

			req := provider.Request{Version: version}
			if isPackagePath(app, args[0]) {
				req.Path = args[0]
			} else {
				if err := security.ValidateName(args[0]); err != nil {
					return &core.Error{Kind: core.KindInvalidOperation, Target: args[0], Err: err}
				}
				req.Name = args[0]
			}

			app.Log.Info().
				Str("package_path", req.Path).
				Str("name", req.Name).
				Strs("properties", properties).
				Msg("starting installation")

			ctx, cancel := withTimeout(cmd.Context(), timeoutSecs)
			defer cancel()

			out := newOutputWriter(cmd.ErrOrStderr(), journal.OpInstall)
			spinner := ui.NewSpinner(cmd.ErrOrStderr(), "Installing", app.Spinner && !jsonOutput)
			err = spinner.Run(func() error {
				return p.InstallPackage(ctx, req, provider.InstallOptions{InstallType: t, Properties: properties}, out)
			})
			if err != nil {
				out.fail(err)
			}
			app.record(cmd.Context(), out.journalEntries())

			if err != nil {
				return err
			}

			if jsonOutput {
				if err := writeJSON(cmd.OutOrStdout(), out.packages, false); err != nil {
					return err
				}
			} else {
				for _, pkg := range out.packages {
					ui.PrintSuccess(cmd.OutOrStdout(), "Installed %s %s", pkg.Name, pkg.VersionString())
				}
			}

			app.Log.Info().Int("packages", len(out.packages)).Msg("installation completed successfully")

			if len(out.warnings) > 0 {
				return ErrRebootRequired
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "version of the installed package to reinstall")
	cmd.Flags().StringVarP(&installType, "install-type", "t", "all", "product, patch or all, when installing by name")
	cmd.Flags().StringArrayVarP(&properties, "property", "p", nil, "installer property NAME=value (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	cmd.Flags().IntVar(&timeoutSecs, "timeout", 3600, "installation timeout in seconds (0 for none)")

	return cmd
}

// isPackagePath reports whether arg refers to a package file rather than a name
func isPackagePath(app *App, arg string) bool {
	if slices.Contains(packageExtensions, helpers.ExtensionOf(arg)) {
		return true
	}
	return fsops.IsFile(app.Fs, arg)
}

// ErrRebootRequired reports that an operation succeeded but needs a restart
var ErrRebootRequired = errors.New("a restart is required to complete the operation")
