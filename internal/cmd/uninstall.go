package cmd

import (
	"context"
	"fmt"

	"github.com/quantmind-br/msipkg/internal/core"
	"github.com/quantmind-br/msipkg/internal/journal"
	"github.com/quantmind-br/msipkg/internal/provider"
	"github.com/quantmind-br/msipkg/internal/security"
	"github.com/quantmind-br/msipkg/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

// NewUninstallCmd creates the uninstall command
func NewUninstallCmd(app *App) *cobra.Command {
	var (
		version     string
		installType string
		properties  []string
		yes         bool
		jsonOutput  bool
		timeoutSecs int
	)

	cmd := &cobra.Command{
		Use:     "uninstall <name>",
		Aliases: []string{"remove", "rm"},
		Short:   "Uninstall products and remove patches",
		Long: `Uninstall every installed product and remove every patch matching the name
and version. A failure on one package does not stop the others.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeInstalledNames(app),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := security.ValidateName(name); err != nil {
				return &core.Error{Kind: core.KindInvalidOperation, Target: name, Err: err}
			}
			if err := security.ValidateProperties(properties); err != nil {
				return &core.Error{Kind: core.KindInvalidOperation, Message: "invalid property", Err: err}
			}

			t, err := core.ParseInstallType(installType)
			if err != nil {
				return err
			}

			p, err := app.provider()
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout(cmd.Context(), timeoutSecs)
			defer cancel()

			req := provider.Request{Name: name, Version: version}
			opts := provider.UninstallOptions{InstallType: t, Properties: properties}
			out := newOutputWriter(cmd.ErrOrStderr(), journal.OpUninstall)

			if yes {
				err = p.UninstallPackage(ctx, req, opts, out)
			} else {
				err = confirmAndUninstall(ctx, cmd, app, p, req, opts, out)
			}
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
					ui.PrintSuccess(cmd.OutOrStdout(), "Removed %s %s", pkg.Name, pkg.VersionString())
				}
				if yes && len(out.packages) == 0 && out.Err() == nil {
					ui.PrintWarning(cmd.OutOrStdout(), "Nothing was uninstalled")
				}
			}

			if out.Err() != nil {
				return &batchError{failed: len(multierr.Errors(out.Err())), err: out.Err()}
			}
			if len(out.warnings) > 0 {
				return ErrRebootRequired
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "exact version or version range")
	cmd.Flags().StringVarP(&installType, "install-type", "t", "all", "product, patch or all")
	cmd.Flags().StringArrayVarP(&properties, "property", "p", nil, "installer property NAME=value (repeatable)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	cmd.Flags().IntVar(&timeoutSecs, "timeout", 3600, "uninstallation timeout in seconds (0 for none)")

	return cmd
}

// confirmAndUninstall shows what matches, asks, then removes each confirmed
// record on its own so the batch is exactly what the user saw
func confirmAndUninstall(ctx context.Context, cmd *cobra.Command, app *App, p *provider.Provider, req provider.Request, opts provider.UninstallOptions, out *outputWriter) error {
	matches := &core.CollectingWriter{}
	getOpts := provider.GetOptions{InstallType: opts.InstallType}
	if err := p.GetPackage(ctx, req, getOpts, matches); err != nil {
		return err
	}

	if len(matches.Packages) == 0 {
		ui.PrintWarning(cmd.OutOrStdout(), "No installed packages match %s", describeQuery(req.Name, req.Version))
		printSuggestions(ctx, cmd.OutOrStdout(), p, req.Name, getOpts)
		return nil
	}

	targets := make([]string, 0, len(matches.Packages))
	for _, pkg := range matches.Packages {
		targets = append(targets, fmt.Sprintf("%s %s", pkg.Name, pkg.VersionString()))
	}

	ok, err := ui.ConfirmDangerousAction(cmd.OutOrStdout(), app.Prompter, fmt.Sprintf("uninstall %d package(s)", len(targets)), targets)
	if err != nil {
		return err
	}
	if !ok {
		ui.PrintInfo(cmd.OutOrStdout(), "Uninstall cancelled")
		return nil
	}

	for _, pkg := range matches.Packages {
		if err := p.UninstallPackage(ctx, provider.Request{Package: pkg}, opts, out); err != nil {
			return err
		}
	}
	return nil
}
