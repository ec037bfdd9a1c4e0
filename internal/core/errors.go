package core

import (
	"errors"
	"fmt"
)

// Kind classifies a provider error. A Kind is itself an error so callers can
// write errors.Is(err, core.KindMissingProductCode).
type Kind string

const (
	KindExtraction         Kind = "ExtractionError"
	KindMissingPackagePath Kind = "MissingPackagePath"
	KindMissingProductCode Kind = "MissingProductCode"
	KindInstallFailed      Kind = "InstallFailed"
	KindUninstallFailed    Kind = "UninstallFailed"
	KindInvalidOperation   Kind = "InvalidOperationError"
)

func (k Kind) Error() string {
	return string(k)
}

// Error is a kind-tagged failure associated with one item
type Error struct {
	Kind    Kind
	Target  string   // name or path the error is about
	Package *Package // record being processed, when there is one
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}

	if e.Target != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Target, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches a Kind target
func (e *Error) Is(target error) bool {
	var k Kind
	if errors.As(target, &k) {
		return e.Kind == k
	}
	return false
}

// NewError builds an Error for pkg, using its name as target
func NewError(kind Kind, pkg *Package, message string, err error) *Error {
	e := &Error{Kind: kind, Package: pkg, Message: message, Err: err}
	if pkg != nil {
		e.Target = pkg.Name
	}
	return e
}

// KindOf returns the Kind of err, or "" when err is not a provider error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
