package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Color scheme for msipkg
var (
	// Primary actions
	Success = color.New(color.FgGreen)
	Error   = color.New(color.FgRed, color.Bold)
	Warning = color.New(color.FgYellow)
	Info    = color.New(color.FgCyan)

	// Secondary actions
	Highlight = color.New(color.FgHiCyan, color.Bold)
	Muted     = color.New(color.Faint)
	Bold      = color.New(color.Bold)

	// Install type colors
	TypeProduct = color.New(color.FgBlue)
	TypePatch   = color.New(color.FgMagenta)
)

// Status indicators. Functions so they follow the current color mode.
func checkMark() string { return color.GreenString("✓") }
func crossMark() string { return color.RedString("✗") }
func arrow() string     { return color.CyanString("→") }
func bullet() string    { return color.HiBlackString("•") }

// InitColors applies the resolved color mode
func InitColors(noColor bool) {
	color.NoColor = noColor
}

// AreColorsEnabled returns whether colors are currently enabled
func AreColorsEnabled() bool {
	return !color.NoColor
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, format string, args ...any) {
	Success.Fprintf(w, "%s %s\n", checkMark(), fmt.Sprintf(format, args...))
}

// PrintError prints an error message
func PrintError(w io.Writer, format string, args ...any) {
	Error.Fprintf(w, "%s Error: %s\n", crossMark(), fmt.Sprintf(format, args...))
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, format string, args ...any) {
	Warning.Fprintf(w, "Warning: %s\n", fmt.Sprintf(format, args...))
}

// PrintInfo prints an info message
func PrintInfo(w io.Writer, format string, args ...any) {
	Info.Fprintf(w, "%s %s\n", arrow(), fmt.Sprintf(format, args...))
}

// PrintKeyValue prints a key-value pair with a bold key
func PrintKeyValue(w io.Writer, key, value string) {
	Bold.Fprintf(w, "%s: ", key)
	fmt.Fprintln(w, value)
}

// PrintHeader prints a section header
func PrintHeader(w io.Writer, text string) {
	fmt.Fprintln(w)
	Bold.Fprintln(w, text)
	Muted.Fprintln(w, "────────────────────────────────────────")
}

// PrintList prints a bulleted list
func PrintList(w io.Writer, items []string) {
	for _, item := range items {
		fmt.Fprintf(w, "  %s %s\n", bullet(), item)
	}
}

// ColorizeInstallType returns a colored install type tag
func ColorizeInstallType(installType string) string {
	switch installType {
	case "Product":
		return TypeProduct.Sprint(installType)
	case "Patch":
		return TypePatch.Sprint(installType)
	default:
		return installType
	}
}

// ColorizeStatus returns a colored journal status
func ColorizeStatus(status string) string {
	switch status {
	case "succeeded":
		return Success.Sprint(status)
	case "failed":
		return Error.Sprint(status)
	default:
		return status
	}
}
