package cmd

import (
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/quantmind-br/msipkg/internal/core"
	"github.com/quantmind-br/msipkg/internal/helpers"
	"github.com/quantmind-br/msipkg/internal/journal"
	"github.com/quantmind-br/msipkg/internal/ui"
	"go.uber.org/multierr"
)

// outputWriter is the core.Writer the commands hand to the provider. Records
// are buffered for rendering; errors and warnings are shown as they arrive.
type outputWriter struct {
	errOut   io.Writer
	op       string // journal operation; empty disables journaling
	packages []*core.Package
	warnings []string
	entries  []*journal.Entry
	err      error
}

func newOutputWriter(errOut io.Writer, op string) *outputWriter {
	return &outputWriter{errOut: errOut, op: op}
}

// WritePackage implements core.Writer
func (w *outputWriter) WritePackage(pkg *core.Package) {
	w.packages = append(w.packages, pkg)
	w.journal(pkg, nil)
}

// WriteError implements core.Writer
func (w *outputWriter) WriteError(err *core.Error) {
	ui.PrintError(w.errOut, "%v", err)
	multierr.AppendInto(&w.err, err)
	w.journal(err.Package, err)
}

// WriteWarning implements core.Writer
func (w *outputWriter) WriteWarning(message string) {
	ui.PrintWarning(w.errOut, "%s", message)
	w.warnings = append(w.warnings, message)
}

// fail records an error returned by the operation itself
func (w *outputWriter) fail(err error) {
	multierr.AppendInto(&w.err, err)
	var pkg *core.Package
	var perr *core.Error
	if errors.As(err, &perr) {
		pkg = perr.Package
	}
	w.journal(pkg, err)
}

func (w *outputWriter) journal(pkg *core.Package, err error) {
	if w.op == "" {
		return
	}
	e := journal.NewEntry(w.op, pkg, err)
	if e.Kind == "" && pkg != nil {
		e.Kind = installTypeOf(pkg)
	}
	w.entries = append(w.entries, e)
}

// journalEntries returns the entries to record. A pending restart applies to
// the whole operation, so it marks every successful entry.
func (w *outputWriter) journalEntries() []*journal.Entry {
	reboot := len(w.warnings) > 0
	for _, e := range w.entries {
		if e.Status == journal.StatusSucceeded {
			e.RebootRequired = reboot
		}
	}
	return w.entries
}

// Err returns every error written, combined
func (w *outputWriter) Err() error {
	return w.err
}

// packageJSON is the --json shape of a record
type packageJSON struct {
	Name         string        `json:"name"`
	Version      string        `json:"version,omitempty"`
	Description  string        `json:"description,omitempty"`
	InstallType  string        `json:"install_type,omitempty"`
	Source       string        `json:"source,omitempty"`
	Location     string        `json:"location,omitempty"`
	Provider     string        `json:"provider"`
	Dependencies []string      `json:"dependencies"`
	Metadata     core.Metadata `json:"metadata,omitempty"`
}

func toJSON(pkg *core.Package, withMetadata bool) packageJSON {
	out := packageJSON{
		Name:         pkg.Name,
		Version:      pkg.VersionString(),
		Description:  pkg.Description,
		Location:     pkg.Location(),
		Provider:     pkg.Provider,
		Dependencies: []string{},
	}
	out.InstallType = installTypeOf(pkg)
	if pkg.Source != nil {
		out.Source = pkg.Source.Name
	}
	if withMetadata {
		out.Metadata = pkg.Metadata
	}
	return out
}

// writeJSON encodes records as an indented JSON array
func writeJSON(w io.Writer, packages []*core.Package, withMetadata bool) error {
	out := make([]packageJSON, 0, len(packages))
	for _, pkg := range packages {
		out = append(out, toJSON(pkg, withMetadata))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// printPackageTable prints records as a compact table
func printPackageTable(w io.Writer, packages []*core.Package, details bool) {
	header := []string{"Name", "Type", "Version", "Description"}
	if details {
		header = append(header, "Product Code", "Local Package")
	}

	symbols := tw.StyleNone
	if details {
		symbols = tw.StyleLight
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithHeader(header),
		tablewriter.WithAlignment(tw.MakeAlign(len(header), tw.AlignLeft)),
		tablewriter.WithSymbols(tw.NewSymbols(symbols)),
	)

	for _, pkg := range packages {
		kind := installTypeOf(pkg)
		row := []any{
			pkg.Name,
			ui.ColorizeInstallType(kind),
			orDash(pkg.VersionString()),
			orDash(truncate(pkg.Description, 50)),
		}
		if details {
			code, _ := pkg.Metadata.String(core.KeyProductCode)
			row = append(row, orDash(code), orDash(truncatePath(pkg.Location(), 40)))
		}
		table.Append(row...)
	}

	table.Render()
}

// printPackageDetails prints one record with its full metadata
func printPackageDetails(w io.Writer, pkg *core.Package) {
	ui.PrintHeader(w, pkg.Name)
	ui.PrintKeyValue(w, "Version", orDash(pkg.VersionString()))
	ui.PrintKeyValue(w, "Type", ui.ColorizeInstallType(installTypeOf(pkg)))
	ui.PrintKeyValue(w, "Description", orDash(pkg.Description))
	ui.PrintKeyValue(w, "Location", orDash(pkg.Location()))
	ui.PrintKeyValue(w, "Provider", pkg.Provider)

	keys := make([]string, 0, len(pkg.Metadata))
	for k := range pkg.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Property", "Value"}),
		tablewriter.WithAlignment(tw.MakeAlign(2, tw.AlignLeft)),
		tablewriter.WithSymbols(tw.NewSymbols(tw.StyleLight)),
	)
	for _, k := range keys {
		table.Append(k, formatValue(pkg.Metadata[k]))
	}
	table.Render()
}

// installTypeOf returns the install type tag of an enumerated record, or
// derives it from the file extension of an extracted one
func installTypeOf(pkg *core.Package) string {
	if t, ok := pkg.Metadata.String(core.KeyInstallType); ok {
		return t
	}
	switch helpers.ExtensionOf(pkg.Location()) {
	case ".msi":
		return core.InstallTypeProduct.String()
	case ".msp":
		return core.InstallTypePatch.String()
	default:
		return ""
	}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case string:
		if x == "" {
			return "-"
		}
		return strings.ReplaceAll(x, "\n", "; ")
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return "?"
		}
		return string(b)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func truncatePath(path string, n int) string {
	if len(path) <= n {
		return path
	}
	return "..." + path[len(path)-(n-3):]
}
