//go:build !windows

package registry

// LiveOpener fails to open on platforms without a registry
type LiveOpener struct{}

// NewLiveOpener creates a LiveOpener
func NewLiveOpener() *LiveOpener {
	return &LiveOpener{}
}

// Open always returns ErrUnsupported
func (o *LiveOpener) Open() (Registry, error) {
	return nil, ErrUnsupported
}
