// Package mockregistry provides an in-memory registry.Registry for tests.
package mockregistry

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/quantmind-br/msipkg/internal/registry"
)

// Opener returns the wrapped MockRegistry
type Opener struct {
	Registry *MockRegistry
	Err      error
}

// NewOpener creates an Opener for reg
func NewOpener(reg *MockRegistry) *Opener {
	return &Opener{Registry: reg}
}

// Open implements registry.Opener
func (o *Opener) Open() (registry.Registry, error) {
	if o.Err != nil {
		return nil, o.Err
	}
	return o.Registry, nil
}

// MockRegistry holds keys by path. Hives are ignored and paths are case-insensitive.
type MockRegistry struct {
	mu     sync.Mutex
	Keys   map[string]*MockKey
	closed int
}

// New creates an empty MockRegistry
func New() *MockRegistry {
	return &MockRegistry{Keys: make(map[string]*MockKey)}
}

func normalize(path string) string {
	return strings.ToLower(strings.Trim(path, `\`))
}

// Add creates the key at path, and any missing parents, and merges values
// into it. Values are string or integer typed.
func (r *MockRegistry) Add(path string, values map[string]any) *MockKey {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Keys == nil {
		r.Keys = make(map[string]*MockKey)
	}

	parts := strings.Split(strings.Trim(path, `\`), `\`)
	var parent *MockKey
	for i := range parts {
		full := strings.Join(parts[:i+1], `\`)
		key, ok := r.Keys[normalize(full)]
		if !ok {
			key = &MockKey{KName: parts[i], KValues: map[string]any{}}
			r.Keys[normalize(full)] = key
			if parent != nil {
				parent.KSubkeys = append(parent.KSubkeys, parts[i])
			}
		}
		parent = key
	}

	for name, v := range values {
		parent.KValues[name] = v
	}
	return parent
}

// OpenKey implements registry.Registry
func (r *MockRegistry) OpenKey(_ string, path string) (registry.Key, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if key, ok := r.Keys[normalize(path)]; ok {
		return key, nil
	}
	return nil, registry.ErrNotExist
}

// Close implements registry.Registry
func (r *MockRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed++
	return nil
}

// CloseCount returns how many times Close was called
func (r *MockRegistry) CloseCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// MockKey is an in-memory registry.Key
type MockKey struct {
	KName    string
	KSubkeys []string
	KValues  map[string]any
}

// Name implements registry.Key
func (k *MockKey) Name() string {
	return k.KName
}

// SubkeyNames implements registry.Key
func (k *MockKey) SubkeyNames() ([]string, error) {
	return append([]string(nil), k.KSubkeys...), nil
}

// ValueNames implements registry.Key
func (k *MockKey) ValueNames() ([]string, error) {
	names := make([]string, 0, len(k.KValues))
	for name := range k.KValues {
		names = append(names, name)
	}
	return names, nil
}

// ValueString implements registry.Key
func (k *MockKey) ValueString(name string) (string, error) {
	v, ok := k.KValues[name]
	if !ok {
		return "", registry.ErrNotExist
	}
	switch val := v.(type) {
	case string:
		return val, nil
	case int:
		return strconv.Itoa(val), nil
	case uint32:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	default:
		return "", fmt.Errorf("unsupported mock value type %T", v)
	}
}

// ValueInteger implements registry.Key
func (k *MockKey) ValueInteger(name string) (uint64, error) {
	v, ok := k.KValues[name]
	if !ok {
		return 0, registry.ErrNotExist
	}
	switch val := v.(type) {
	case int:
		return uint64(val), nil
	case uint32:
		return uint64(val), nil
	case uint64:
		return val, nil
	default:
		return 0, fmt.Errorf("value %q is not an integer", name)
	}
}

// Close implements registry.Key
func (k *MockKey) Close() error {
	return nil
}
