//go:build !windows

package msidb

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
)

func TestNewNativeReader_Unsupported(t *testing.T) {
	t.Parallel()

	logger := zerolog.New(io.Discard)
	r, err := NewNativeReader(afero.NewMemMapFs(), &logger)
	assert.ErrorIs(t, err, ErrNativeUnsupported)
	assert.Nil(t, r)

	_, err = (&NativeReader{}).Open(context.Background(), "setup.msi")
	assert.ErrorIs(t, err, ErrNativeUnsupported)
}
