//go:build windows

package registry

import (
	"errors"
	"fmt"
	"strconv"

	winregistry "golang.org/x/sys/windows/registry"
)

// LiveOpener opens the registry of the running machine
type LiveOpener struct{}

// NewLiveOpener creates a LiveOpener
func NewLiveOpener() *LiveOpener {
	return &LiveOpener{}
}

// Open implements Opener
func (o *LiveOpener) Open() (Registry, error) {
	return &LiveRegistry{}, nil
}

// LiveRegistry reads the registry of the running machine
type LiveRegistry struct{}

// OpenKey implements Registry
func (r *LiveRegistry) OpenKey(hive, path string) (Key, error) {
	var root winregistry.Key
	switch hive {
	case HiveLocalMachine:
		root = winregistry.LOCAL_MACHINE
	case HiveCurrentUser:
		root = winregistry.CURRENT_USER
	case HiveUsers:
		root = winregistry.USERS
	default:
		return nil, fmt.Errorf("unsupported hive: %s", hive)
	}

	key, err := winregistry.OpenKey(root, path, winregistry.QUERY_VALUE|winregistry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return nil, liveErr(err)
	}
	return &liveKey{key: key, name: path}, nil
}

// Close implements Registry; the live registry holds nothing open
func (r *LiveRegistry) Close() error {
	return nil
}

type liveKey struct {
	key  winregistry.Key
	name string
}

func (k *liveKey) Name() string {
	return k.name
}

func (k *liveKey) SubkeyNames() ([]string, error) {
	names, err := k.key.ReadSubKeyNames(0)
	return names, liveErr(err)
}

func (k *liveKey) ValueNames() ([]string, error) {
	names, err := k.key.ReadValueNames(0)
	return names, liveErr(err)
}

func (k *liveKey) ValueString(name string) (string, error) {
	val, valtype, err := k.key.GetStringValue(name)
	if err == nil {
		return val, nil
	}

	switch valtype {
	case winregistry.DWORD, winregistry.DWORD_BIG_ENDIAN, winregistry.QWORD:
		n, _, err := k.key.GetIntegerValue(name)
		if err != nil {
			return "", liveErr(err)
		}
		return strconv.FormatUint(n, 10), nil
	}
	return "", liveErr(err)
}

func (k *liveKey) ValueInteger(name string) (uint64, error) {
	n, _, err := k.key.GetIntegerValue(name)
	return n, liveErr(err)
}

func (k *liveKey) Close() error {
	return k.key.Close()
}

func liveErr(err error) error {
	if errors.Is(err, winregistry.ErrNotExist) {
		return ErrNotExist
	}
	return err
}
