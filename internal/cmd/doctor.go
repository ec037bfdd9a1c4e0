package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/quantmind-br/msipkg/internal/core"
	"github.com/quantmind-br/msipkg/internal/fsops"
	"github.com/quantmind-br/msipkg/internal/helpers"
	"github.com/quantmind-br/msipkg/internal/inventory"
	"github.com/quantmind-br/msipkg/internal/journal"
	"github.com/quantmind-br/msipkg/internal/msidb"
	"github.com/quantmind-br/msipkg/internal/paths"
	"github.com/quantmind-br/msipkg/internal/provider"
	"github.com/quantmind-br/msipkg/internal/registry"
	"github.com/quantmind-br/msipkg/internal/ui"
	"github.com/spf13/cobra"
)

// diagnosis collects the outcome of the doctor checks
type diagnosis struct {
	out      io.Writer
	issues   []string
	warnings []string
}

func (d *diagnosis) ok(format string, args ...any) {
	ui.PrintSuccess(d.out, format, args...)
}

func (d *diagnosis) issue(summary, format string, args ...any) {
	ui.PrintError(d.out, format, args...)
	d.issues = append(d.issues, summary)
}

func (d *diagnosis) warn(summary, format string, args ...any) {
	ui.PrintWarning(d.out, format, args...)
	d.warnings = append(d.warnings, summary)
}

// NewDoctorCmd creates the doctor command
func NewDoctorCmd(app *App) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check installer tools, directories and the installation registry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := &diagnosis{out: cmd.OutOrStdout()}

			ui.PrintHeader(d.out, "Installer Tools")
			checkTools(app, d)

			ui.PrintHeader(d.out, "Directories")
			checkDirectories(app, d)

			ui.PrintHeader(d.out, "Installation Registry")
			checkRegistry(app, d)

			ui.PrintHeader(d.out, "Journal")
			checkJournal(cmd.Context(), app, d)

			if verbose {
				ui.PrintHeader(d.out, "Cached Packages")
				checkLocalPackages(cmd.Context(), app, d)
			}

			ui.PrintHeader(d.out, "Summary")
			if len(d.issues) == 0 {
				ui.PrintSuccess(d.out, "All critical checks passed!")
			} else {
				ui.PrintError(d.out, "Found %d issue(s):", len(d.issues))
				ui.PrintList(d.out, d.issues)
			}
			if len(d.warnings) > 0 {
				ui.PrintWarning(d.out, "Found %d warning(s):", len(d.warnings))
				ui.PrintList(d.out, d.warnings)
			}

			if len(d.issues) > 0 {
				return fmt.Errorf("system check failed with %d issue(s)", len(d.issues))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "also check that cached local packages exist")

	return cmd
}

// checkTools looks up the executables behind the configured commands
func checkTools(app *App, d *diagnosis) {
	tools := []struct {
		name    string
		command string
		purpose string
	}{
		{"msiexec", app.Config.Engine.Msiexec, "install and remove packages"},
		{"msiinfo", app.Config.Engine.Msiinfo, "read package databases"},
	}

	switch reader := ReaderFor(app.Fs, app.Runner, app.Config, app.Log); {
	case isNative(reader):
		d.ok("msi.dll: loaded (read package databases)")
		tools = tools[:1]
	case app.Config.Engine.Reader == ReaderNative:
		d.warn("msi.dll unavailable, falling back to msiinfo", "msi.dll: NOT AVAILABLE")
	}

	for _, tool := range tools {
		c := helpers.ParseCommand(tool.command, tool.name)
		if app.Runner.CommandExists(c.Name) {
			d.ok("%s: found (%s)", tool.name, c)
		} else {
			d.issue(fmt.Sprintf("Missing %s (%s)", tool.name, tool.purpose), "%s: NOT FOUND (%s)", tool.name, c.Name)
		}
	}
}

func isNative(r msidb.Reader) bool {
	_, ok := r.(*msidb.NativeReader)
	return ok
}

// checkDirectories creates the msipkg directories when missing and checks they are writable
func checkDirectories(app *App, d *diagnosis) {
	resolver := paths.NewResolver(app.Config)
	dirs := []struct {
		name string
		path string
	}{
		{"Data directory", resolver.DataDir()},
		{"Journal directory", filepath.Dir(resolver.JournalFile())},
		{"Installer log directory", resolver.EngineLogDir()},
	}

	for _, dir := range dirs {
		err := fsops.EnsureDir(app.Fs, dir.path, 0o755)
		if err == nil {
			err = fsops.CheckWritable(app.Fs, dir.path)
		}
		if err != nil {
			d.issue(fmt.Sprintf("Directory not writable: %s", dir.path), "%s: NOT WRITABLE (%s)", dir.name, dir.path)
			continue
		}
		d.ok("%s: %s", dir.name, dir.path)
	}
}

// checkRegistry opens the configured registry and looks for the installer data
func checkRegistry(app *App, d *diagnosis) {
	source := "live registry"
	if app.Config.Inventory.HiveFile != "" {
		source = "offline hive " + app.Config.Inventory.HiveFile
	}

	reg, err := app.Opener.Open()
	if err != nil {
		d.issue("Installation registry unavailable", "%s: %v", source, err)
		if errors.Is(err, registry.ErrUnsupported) {
			ui.PrintInfo(d.out, "Set inventory.hive_file to read an offline SOFTWARE hive")
		}
		return
	}
	defer reg.Close()
	d.ok("Opened %s", source)

	key, err := reg.OpenKey(registry.HiveLocalMachine, inventory.UserDataKey)
	if err != nil {
		d.warn("No Windows Installer data", "Installer data not found: %v", err)
		return
	}
	defer key.Close()

	owners, _ := key.SubkeyNames()
	d.ok("Installer data: %d owner(s)", len(owners))
	if app.Config.Inventory.Fallback {
		ui.PrintInfo(d.out, "Using Add/Remove Programs entries (inventory.fallback)")
	}
}

// checkJournal opens the operation journal
func checkJournal(ctx context.Context, app *App, d *diagnosis) {
	j, err := journal.Open(ctx, app.Config.Paths.JournalFile)
	if err != nil {
		d.issue("Cannot open journal", "Journal: NOT ACCESSIBLE (%v)", err)
		return
	}
	defer j.Close()

	entries, err := j.List(ctx, journal.ListOptions{})
	if err != nil {
		d.warn("Cannot read journal", "Cannot read journal: %v", err)
		return
	}
	d.ok("Journal: %d recorded operation(s) (%s)", len(entries), j.Path())
}

// checkLocalPackages reports installed records whose cached package is gone.
// Those cannot be uninstalled.
func checkLocalPackages(ctx context.Context, app *App, d *diagnosis) {
	p, err := app.provider()
	if err != nil {
		d.issue("Provider not registered", "%v", err)
		return
	}

	all := &core.CollectingWriter{}
	opts := provider.GetOptions{InstallType: core.InstallTypeAll, SystemComponent: true}
	if err := p.GetPackage(ctx, provider.Request{}, opts, all); err != nil {
		d.warn("Cannot enumerate installed packages", "Cannot enumerate installed packages: %v", err)
		return
	}

	var missing []string
	for _, pkg := range all.Packages {
		location := pkg.Location()
		if location == "" || !fsops.Exists(app.Fs, location) {
			missing = append(missing, fmt.Sprintf("%s (%s)", pkg.Name, orDash(location)))
		}
	}

	if len(missing) == 0 {
		d.ok("All %d installed package(s) have a cached local package", len(all.Packages))
		return
	}
	d.warn(fmt.Sprintf("%d package(s) without a cached local package", len(missing)),
		"%d of %d installed package(s) cannot be uninstalled:", len(missing), len(all.Packages))
	ui.PrintList(d.out, missing)
}
