package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/quantmind-br/msipkg/internal/core"
	"github.com/quantmind-br/msipkg/internal/provider"
	"github.com/quantmind-br/msipkg/internal/security"
	"github.com/quantmind-br/msipkg/internal/ui"
	"github.com/spf13/cobra"
)

// maxSuggestions bounds the "did you mean" list
const maxSuggestions = 3

// NewGetCmd creates the get command
func NewGetCmd(app *App) *cobra.Command {
	var (
		version         string
		installType     string
		systemComponent bool
		jsonOutput      bool
		showDetails     bool
	)

	cmd := &cobra.Command{
		Use:     "get [name]",
		Aliases: []string{"list"},
		Short:   "List installed products and patches",
		Long: `List installed products and patches. The name may contain * and ? wildcards
and is matched case-insensitively. --version takes an exact version or a range
such as ">=1.2, <2".`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeInstalledNames(app),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) == 1 {
				name = args[0]
				if err := security.ValidateName(name); err != nil {
					return &core.Error{Kind: core.KindInvalidOperation, Target: name, Err: err}
				}
			}

			t, err := core.ParseInstallType(installType)
			if err != nil {
				return err
			}

			p, err := app.provider()
			if err != nil {
				return err
			}

			out := newOutputWriter(cmd.ErrOrStderr(), "")
			req := provider.Request{Name: name, Version: version}
			opts := provider.GetOptions{InstallType: t, SystemComponent: systemComponent}
			if err := p.GetPackage(cmd.Context(), req, opts, out); err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), out.packages, showDetails)
			}

			if len(out.packages) == 0 {
				if name == "" && version == "" {
					ui.PrintInfo(cmd.OutOrStdout(), "No installed packages")
					return nil
				}
				ui.PrintWarning(cmd.OutOrStdout(), "No installed packages match %s", describeQuery(name, version))
				printSuggestions(cmd.Context(), cmd.OutOrStdout(), p, name, opts)
				return nil
			}

			printPackageTable(cmd.OutOrStdout(), out.packages, showDetails)
			ui.PrintInfo(cmd.OutOrStdout(), "%d package(s)", len(out.packages))
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "exact version or version range")
	cmd.Flags().StringVarP(&installType, "install-type", "t", "all", "product, patch or all")
	cmd.Flags().BoolVar(&systemComponent, "system-component", false, "include system components")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	cmd.Flags().BoolVarP(&showDetails, "details", "d", false, "show product codes and local packages")

	return cmd
}

func describeQuery(name, version string) string {
	switch {
	case name == "":
		return fmt.Sprintf("version %q", version)
	case version == "":
		return fmt.Sprintf("%q", name)
	default:
		return fmt.Sprintf("%q version %q", name, version)
	}
}

// printSuggestions lists installed names that resemble name
func printSuggestions(ctx context.Context, w io.Writer, p *provider.Provider, name string, opts provider.GetOptions) {
	if name == "" {
		return
	}

	all := &core.CollectingWriter{}
	if err := p.GetPackage(ctx, provider.Request{}, opts, all); err != nil {
		return
	}

	names := make([]string, 0, len(all.Packages))
	for _, pkg := range all.Packages {
		names = append(names, pkg.Name)
	}

	if suggestions := ui.Suggest(name, names, maxSuggestions); len(suggestions) > 0 {
		fmt.Fprintln(w, "Did you mean:")
		ui.PrintList(w, suggestions)
	}
}
