// Package registry abstracts the Windows registry so the installed-software
// inventory can be read from the live machine, from an offline SOFTWARE hive,
// or from an in-memory mock in tests.
package registry

import (
	"errors"
	"strings"
)

// Hives accepted by Registry.OpenKey
const (
	HiveLocalMachine = "HKLM"
	HiveCurrentUser  = "HKCU"
	HiveUsers        = "HKU"
)

var (
	// ErrNotExist is returned when a key or value does not exist
	ErrNotExist = errors.New("registry key or value does not exist")
	// ErrUnsupported is returned when the live registry is not available on this platform
	ErrUnsupported = errors.New("live registry is only available on windows")
)

// Opener opens a registry. Opening is delayed until the registry is needed.
type Opener interface {
	Open() (Registry, error)
}

// Registry is an open registry
type Registry interface {
	// OpenKey opens the key at path under hive
	OpenKey(hive, path string) (Key, error)

	// Close releases the registry
	Close() error
}

// Key is an open registry key
type Key interface {
	// Name returns the key name
	Name() string

	// SubkeyNames returns the names of the direct subkeys
	SubkeyNames() ([]string, error)

	// ValueNames returns the names of the values of the key
	ValueNames() ([]string, error)

	// ValueString returns a string value. Integer values are formatted in decimal.
	ValueString(name string) (string, error)

	// ValueInteger returns a DWORD or QWORD value
	ValueInteger(name string) (uint64, error)

	// Close releases the key
	Close() error
}

// Join joins key path segments with the registry separator
func Join(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(p, `\`); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return strings.Join(cleaned, `\`)
}

// StringOr returns the named string value, or def when it cannot be read
func StringOr(k Key, name, def string) string {
	v, err := k.ValueString(name)
	if err != nil {
		return def
	}
	return v
}
