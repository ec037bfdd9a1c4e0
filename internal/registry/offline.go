package registry

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/text/encoding/unicode"
	"www.velocidex.com/golang/regparser"
)

// Registry value types
const (
	typeSZ       = 1
	typeExpandSZ = 2
	typeDWORD    = 4
	typeDWORDBE  = 5
	typeMultiSZ  = 7
	typeQWORD    = 11
)

// softwareRoot is the mount point of a SOFTWARE hive in the live registry
const softwareRoot = `SOFTWARE`

// OfflineOpener opens a SOFTWARE hive file copied from another machine.
// Keys are addressed exactly as in the live registry under HKLM.
type OfflineOpener struct {
	fs   afero.Fs
	path string
}

// NewOfflineOpener creates an opener for the hive file at path
func NewOfflineOpener(fs afero.Fs, path string) *OfflineOpener {
	return &OfflineOpener{fs: fs, path: path}
}

// Open implements Opener
func (o *OfflineOpener) Open() (Registry, error) {
	f, err := o.fs.Open(o.path)
	if err != nil {
		return nil, fmt.Errorf("open hive %s: %w", o.path, err)
	}

	reg, err := regparser.NewRegistry(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("parse hive %s: %w", o.path, err)
	}

	return &OfflineRegistry{registry: reg, file: f}, nil
}

// OfflineRegistry reads keys from a parsed hive file
type OfflineRegistry struct {
	registry *regparser.Registry
	file     afero.File
}

// OpenKey implements Registry. Only HKLM\SOFTWARE paths resolve.
func (r *OfflineRegistry) OpenKey(hive, path string) (Key, error) {
	if hive != HiveLocalMachine {
		return nil, ErrNotExist
	}

	head, rel, _ := strings.Cut(strings.Trim(path, `\`), `\`)
	if !strings.EqualFold(head, softwareRoot) {
		return nil, ErrNotExist
	}

	node := r.registry.OpenKey(rel)
	if node == nil {
		return nil, ErrNotExist
	}
	return &offlineKey{node: node}, nil
}

// Close implements Registry
func (r *OfflineRegistry) Close() error {
	return r.file.Close()
}

type offlineKey struct {
	node *regparser.CM_KEY_NODE
}

func (k *offlineKey) Name() string {
	return k.node.Name()
}

func (k *offlineKey) SubkeyNames() ([]string, error) {
	var names []string
	for _, sub := range k.node.Subkeys() {
		names = append(names, sub.Name())
	}
	return names, nil
}

func (k *offlineKey) ValueNames() ([]string, error) {
	var names []string
	for _, v := range k.node.Values() {
		names = append(names, v.ValueName())
	}
	return names, nil
}

func (k *offlineKey) value(name string) (*regparser.ValueData, error) {
	for _, v := range k.node.Values() {
		if strings.EqualFold(v.ValueName(), name) {
			return v.ValueData(), nil
		}
	}
	return nil, ErrNotExist
}

func (k *offlineKey) ValueString(name string) (string, error) {
	data, err := k.value(name)
	if err != nil {
		return "", err
	}

	switch data.Type {
	case typeSZ, typeExpandSZ, typeMultiSZ:
		return DecodeUTF16(data.Data)
	case typeDWORD, typeDWORDBE, typeQWORD:
		n, err := decodeInteger(data.Type, data.Data)
		if err != nil {
			return "", fmt.Errorf("value %q: %w", name, err)
		}
		return strconv.FormatUint(n, 10), nil
	default:
		return "", fmt.Errorf("value %q: unsupported type %d", name, data.Type)
	}
}

func (k *offlineKey) ValueInteger(name string) (uint64, error) {
	data, err := k.value(name)
	if err != nil {
		return 0, err
	}

	n, err := decodeInteger(data.Type, data.Data)
	if err != nil {
		return 0, fmt.Errorf("value %q: %w", name, err)
	}
	return n, nil
}

func (k *offlineKey) Close() error {
	return nil
}

// DecodeUTF16 decodes little-endian UTF-16 registry string data. Trailing NULs
// are dropped and MULTI_SZ separators become newlines.
func DecodeUTF16(b []byte) (string, error) {
	decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode utf-16: %w", err)
	}
	s := strings.TrimRight(string(decoded), "\x00")
	return strings.ReplaceAll(s, "\x00", "\n"), nil
}

func decodeInteger(valueType uint32, b []byte) (uint64, error) {
	switch {
	case valueType == typeDWORD && len(b) >= 4:
		return uint64(binary.LittleEndian.Uint32(b)), nil
	case valueType == typeDWORDBE && len(b) >= 4:
		return uint64(binary.BigEndian.Uint32(b)), nil
	case valueType == typeQWORD && len(b) >= 8:
		return binary.LittleEndian.Uint64(b), nil
	default:
		return 0, fmt.Errorf("not an integer value (type %d, %d bytes)", valueType, len(b))
	}
}
