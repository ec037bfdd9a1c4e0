package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/quantmind-br/msipkg/internal/core"
	"go.uber.org/multierr"
)

// ExitCode maps a command error to the process exit status. For a combined
// batch error the first failure decides.
func ExitCode(err error) int {
	if err == nil {
		return core.ExitSuccess
	}
	if errors.Is(err, ErrRebootRequired) {
		return core.ExitRebootRequired
	}
	if errors.Is(err, context.Canceled) {
		return core.ExitInterrupted
	}

	var jerr *journalError
	if errors.As(err, &jerr) {
		return core.ExitDatabase
	}

	var berr *batchError
	if errors.As(err, &berr) {
		err = berr.err
	}

	for _, e := range multierr.Errors(err) {
		switch core.KindOf(e) {
		case core.KindInvalidOperation:
			return core.ExitInvalidArgs
		case core.KindExtraction:
			return core.ExitNotFound
		case core.KindInstallFailed:
			return core.ExitInstallFailed
		case core.KindUninstallFailed, core.KindMissingPackagePath, core.KindMissingProductCode:
			return core.ExitUninstallFailed
		}
	}
	return core.ExitGeneral
}

// batchError summarizes per-item failures that were already reported one by one
type batchError struct {
	failed int
	err    error
}

func (e *batchError) Error() string {
	return fmt.Sprintf("%d package(s) failed", e.failed)
}

func (e *batchError) Unwrap() error {
	return e.err
}
