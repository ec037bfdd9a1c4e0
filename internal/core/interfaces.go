package core

// Writer receives the output of a provider operation: zero or more records,
// zero or more per-item errors and advisory warnings.
type Writer interface {
	WritePackage(pkg *Package)
	WriteError(err *Error)
	WriteWarning(message string)
}

// CollectingWriter buffers everything written to it
type CollectingWriter struct {
	Packages []*Package
	Errors   []*Error
	Warnings []string
}

// WritePackage implements Writer
func (w *CollectingWriter) WritePackage(pkg *Package) {
	w.Packages = append(w.Packages, pkg)
}

// WriteError implements Writer
func (w *CollectingWriter) WriteError(err *Error) {
	w.Errors = append(w.Errors, err)
}

// WriteWarning implements Writer
func (w *CollectingWriter) WriteWarning(message string) {
	w.Warnings = append(w.Warnings, message)
}
