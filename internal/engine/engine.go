// Package engine drives the Windows Installer execution primitive. It decides
// the command line for each action and interprets the installer exit code;
// mutual exclusion against concurrent installs is left to the installer service.
package engine

import (
	"context"
	"fmt"
	"strings"
)

// SuppressReboot keeps the installer from restarting the machine on its own
const SuppressReboot = "REBOOT=ReallySuppress"

// RemoveAll is the property that removes every feature of a product
const RemoveAll = "REMOVE=ALL"

// DefaultLogMode is the verbose logging mode passed to the installer
const DefaultLogMode = "voicewarmupx"

// Executor is the installer execution primitive
type Executor interface {
	// InstallProduct installs a product package
	InstallProduct(ctx context.Context, path, properties string) error

	// ApplyPatch applies a patch package to the products it targets
	ApplyPatch(ctx context.Context, path, properties string) error

	// RemoveProduct uninstalls the product a package belongs to
	RemoveProduct(ctx context.Context, path, properties string) error

	// RemovePatches removes patches from the product identified by productCode
	RemovePatches(ctx context.Context, patches []string, productCode, properties string) error

	// EnableLog routes installer diagnostics to path until DisableLog
	EnableLog(mode, path string)

	// DisableLog stops installer diagnostics
	DisableLog()

	// RebootPending reports whether an action since construction left a restart pending
	RebootPending() bool
}

// FormatProperties builds the property string passed to every install action:
// reboot suppression first, then the caller's KEY=VALUE tokens space-joined.
// Tokens are not validated.
func FormatProperties(extra ...string) string {
	parts := make([]string, 0, len(extra)+1)
	parts = append(parts, SuppressReboot)
	for _, p := range extra {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Installer exit codes
const (
	ExitSuccess               = 0
	ExitUserCancel            = 1602
	ExitInstallFailure        = 1603
	ExitInstallAlreadyRunning = 1618
	ExitPackageOpenFailed     = 1619
	ExitUnknownProduct        = 1605
	ExitPatchNotApplicable    = 1642
	ExitProductVersion        = 1638
	ExitRebootInitiated       = 1641
	ExitRebootRequired        = 3010
)

var exitDescriptions = map[int]string{
	ExitUserCancel:            "installation cancelled by user",
	ExitInstallFailure:        "fatal error during installation",
	ExitInstallAlreadyRunning: "another installation is already in progress",
	ExitPackageOpenFailed:     "installation package could not be opened",
	ExitUnknownProduct:        "product is not currently installed",
	ExitPatchNotApplicable:    "patch does not apply to any installed product",
	ExitProductVersion:        "another version of this product is already installed",
}

// ExitError is a non-zero, non-reboot installer outcome
type ExitError struct {
	Action string
	Code   int
	Output string
	Err    error
}

func (e *ExitError) Error() string {
	desc, ok := exitDescriptions[e.Code]
	if !ok {
		desc = "installer returned an error"
	}
	return fmt.Sprintf("%s failed with exit code %d: %s", e.Action, e.Code, desc)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
