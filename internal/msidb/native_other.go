//go:build !windows

package msidb

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// NativeReader reads installer databases through msi.dll, which only exists on Windows
type NativeReader struct{}

// NewNativeReader always fails with ErrNativeUnsupported
func NewNativeReader(afero.Fs, *zerolog.Logger) (*NativeReader, error) {
	return nil, ErrNativeUnsupported
}

// Open always fails with ErrNativeUnsupported
func (r *NativeReader) Open(context.Context, string) (Database, error) {
	return nil, ErrNativeUnsupported
}
