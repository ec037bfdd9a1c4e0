package cmd

import (
	"slices"
	"strings"

	"github.com/quantmind-br/msipkg/internal/core"
	"github.com/quantmind-br/msipkg/internal/provider"
	"github.com/quantmind-br/msipkg/internal/ui"
	"github.com/spf13/cobra"
)

// NewCompletionCmd creates the completion command
func NewCompletionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for msipkg.

To load completions:

Bash:
  $ source <(msipkg completion bash)

Zsh:
  $ msipkg completion zsh > "${fpath[1]}/_msipkg"

Fish:
  $ msipkg completion fish | source

PowerShell:
  PS> msipkg completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := args[0]
			out := cmd.OutOrStdout()

			var err error
			switch shell {
			case "bash":
				err = cmd.Root().GenBashCompletion(out)
			case "zsh":
				err = cmd.Root().GenZshCompletion(out)
			case "fish":
				err = cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				err = cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			if err != nil {
				ui.PrintError(cmd.ErrOrStderr(), "failed to generate %s completion: %v", shell, err)
				return err
			}

			app.Log.Debug().Str("shell", shell).Msg("generated shell completion")
			return nil
		},
	}

	return cmd
}

// completeInstalledNames completes the first argument with installed product
// and patch names that start with what was typed
func completeInstalledNames(app *App) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		p, err := app.provider()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		all := &core.CollectingWriter{}
		if err := p.GetPackage(cmd.Context(), provider.Request{}, provider.GetOptions{InstallType: core.InstallTypeAll}, all); err != nil {
			app.Log.Debug().Err(err).Msg("completion enumeration failed")
			return nil, cobra.ShellCompDirectiveError
		}

		prefix := strings.ToLower(toComplete)
		seen := make(map[string]bool)
		var names []cobra.Completion
		for _, pkg := range all.Packages {
			if seen[pkg.Name] || !strings.HasPrefix(strings.ToLower(pkg.Name), prefix) {
				continue
			}
			seen[pkg.Name] = true
			names = append(names, cobra.CompletionWithDesc(pkg.Name, installTypeOf(pkg)))
		}
		slices.Sort(names)
		return names, cobra.ShellCompDirectiveNoFileComp
	}
}
