//go:build windows

package msidb

import (
	"context"
	"fmt"
	"math"
	"sync"
	"syscall"
	"unsafe"

	"github.com/quantmind-br/msipkg/internal/helpers"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/sys/windows"
)

var (
	msiDLL = windows.NewLazySystemDLL("msi.dll")

	procOpenDatabase        = msiDLL.NewProc("MsiOpenDatabaseW")
	procDatabaseOpenView    = msiDLL.NewProc("MsiDatabaseOpenViewW")
	procGetPrimaryKeys      = msiDLL.NewProc("MsiDatabaseGetPrimaryKeysW")
	procViewExecute         = msiDLL.NewProc("MsiViewExecute")
	procViewFetch           = msiDLL.NewProc("MsiViewFetch")
	procViewGetColumnInfo   = msiDLL.NewProc("MsiViewGetColumnInfo")
	procRecordGetFieldCount = msiDLL.NewProc("MsiRecordGetFieldCount")
	procRecordIsNull        = msiDLL.NewProc("MsiRecordIsNull")
	procRecordGetInteger    = msiDLL.NewProc("MsiRecordGetInteger")
	procRecordGetString     = msiDLL.NewProc("MsiRecordGetStringW")
	procCloseHandle         = msiDLL.NewProc("MsiCloseHandle")
)

const (
	// persistence modes passed as the szPersist pointer value
	openReadOnly  = 0
	openPatchFile = 32 // MSIDBOPEN_READONLY + MSIDBOPEN_PATCHFILE

	colInfoNames = 0
	colInfoTypes = 1
)

type msiHandle uint32

// NativeReader opens installer databases read-only through msi.dll
type NativeReader struct {
	fs     afero.Fs
	logger *zerolog.Logger
}

// NewNativeReader loads msi.dll. It fails with ErrNativeUnsupported when the
// library or its database functions cannot be found.
func NewNativeReader(fs afero.Fs, log *zerolog.Logger) (*NativeReader, error) {
	if err := msiDLL.Load(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNativeUnsupported, err)
	}
	for _, proc := range []*windows.LazyProc{
		procOpenDatabase, procDatabaseOpenView, procGetPrimaryKeys, procViewExecute,
		procViewFetch, procViewGetColumnInfo, procRecordGetFieldCount, procRecordIsNull,
		procRecordGetInteger, procRecordGetString, procCloseHandle,
	} {
		if err := proc.Find(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNativeUnsupported, err)
		}
	}
	return &NativeReader{fs: fs, logger: log}, nil
}

// Open implements Reader. Patch files are opened as patch storage.
func (r *NativeReader) Open(ctx context.Context, path string) (Database, error) {
	fileType, err := helpers.DetectFileType(r.fs, path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if fileType == helpers.FileTypeUnknown {
		return nil, fmt.Errorf("open %s: %w", path, ErrNotInstallerDatabase)
	}

	persist := uintptr(openReadOnly)
	if fileType == helpers.FileTypeMSP {
		persist = openPatchFile
	}

	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	var h msiHandle
	if err := call(procOpenDatabase, uintptr(unsafe.Pointer(p)), persist, uintptr(unsafe.Pointer(&h))); err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	db := &nativeDatabase{
		reader: r,
		path:   path,
		handle: h,
		tables: make(map[string]struct{}),
		cache:  make(map[string]*View),
	}

	names, err := db.view(ctx, "SELECT `Name` FROM `_Tables`")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	for _, row := range names.Rows {
		name, _ := row[0].(string)
		if _, seen := db.tables[name]; name != "" && !seen {
			db.tables[name] = struct{}{}
			db.order = append(db.order, name)
		}
	}

	r.logger.Debug().
		Str("path", path).
		Int("tables", len(db.order)).
		Msg("installer database opened")

	return db, nil
}

type nativeDatabase struct {
	reader *NativeReader
	path   string
	tables map[string]struct{}
	order  []string

	mu     sync.Mutex
	handle msiHandle
	cache  map[string]*View
	closed bool
}

func (d *nativeDatabase) Path() string {
	return d.path
}

func (d *nativeDatabase) Tables(_ context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	return append([]string(nil), d.order...), nil
}

func (d *nativeDatabase) Query(ctx context.Context, q Query) (*View, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if _, ok := d.tables[q.Table]; !ok {
		return nil, fmt.Errorf("%s: %w", q.Table, ErrTableNotFound)
	}

	table, ok := d.cache[q.Table]
	if !ok {
		var err error
		table, err = d.load(ctx, q.Table)
		if err != nil {
			return nil, err
		}
		d.cache[q.Table] = table
	}

	d.reader.logger.Trace().
		Str("path", d.path).
		Str("query", q.String()).
		Msg("installer database query")

	return Select(table, q)
}

// load reads a whole table with its primary keys
func (d *nativeDatabase) load(ctx context.Context, table string) (*View, error) {
	view, err := d.view(ctx, Query{Table: table}.String())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	view.Table = table

	name, err := windows.UTF16PtrFromString(table)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	var keys msiHandle
	if err := call(procGetPrimaryKeys, uintptr(d.handle), uintptr(unsafe.Pointer(name)), uintptr(unsafe.Pointer(&keys))); err != nil {
		return nil, fmt.Errorf("primary keys of %s: %w", table, err)
	}
	defer closeHandle(keys)

	for i := 1; i <= fieldCount(keys); i++ {
		key, err := recordString(keys, i)
		if err != nil {
			return nil, fmt.Errorf("primary keys of %s: %w", table, err)
		}
		view.Keys = append(view.Keys, key)
	}
	return view, nil
}

// view runs one SQL statement and returns its typed columns and rows
func (d *nativeDatabase) view(ctx context.Context, sql string) (*View, error) {
	q, err := windows.UTF16PtrFromString(sql)
	if err != nil {
		return nil, err
	}
	var hv msiHandle
	if err := call(procDatabaseOpenView, uintptr(d.handle), uintptr(unsafe.Pointer(q)), uintptr(unsafe.Pointer(&hv))); err != nil {
		return nil, fmt.Errorf("%s: %w", sql, err)
	}
	defer closeHandle(hv)

	if err := call(procViewExecute, uintptr(hv), 0); err != nil {
		return nil, fmt.Errorf("%s: %w", sql, err)
	}

	names, err := columnInfo(hv, colInfoNames)
	if err != nil {
		return nil, err
	}
	types, err := columnInfo(hv, colInfoTypes)
	if err != nil {
		return nil, err
	}
	if len(names) != len(types) {
		return nil, fmt.Errorf("%s: %d columns, %d types", sql, len(names), len(types))
	}

	view := &View{}
	for i, name := range names {
		view.Columns = append(view.Columns, Column{Name: name, Type: ColumnType(types[i])})
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var rec msiHandle
		r, _, _ := procViewFetch.Call(uintptr(hv), uintptr(unsafe.Pointer(&rec)))
		if errno := syscall.Errno(r); errno == windows.ERROR_NO_MORE_ITEMS {
			break
		} else if errno != 0 {
			return nil, fmt.Errorf("%s: fetch: %w", sql, errno)
		}

		row, err := readRow(rec, view.Columns)
		closeHandle(rec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sql, err)
		}
		view.Rows = append(view.Rows, row)
	}

	return view, nil
}

func (d *nativeDatabase) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.cache = nil
	return closeHandle(d.handle)
}

// readRow converts a fetched record the way archive exports are coerced:
// empty strings and null integers become nil
func readRow(rec msiHandle, columns []Column) ([]any, error) {
	row := make([]any, len(columns))
	for i, col := range columns {
		field := i + 1
		if isNull(rec, field) {
			continue
		}

		switch {
		case col.Type.IsInteger():
			r, _, _ := procRecordGetInteger.Call(uintptr(rec), uintptr(field))
			if n := int32(uint32(r)); n != math.MinInt32 {
				row[i] = int64(n)
			}
		case col.Type.IsStream():
			// stream data is not read; the cell names its column like an export does
			row[i] = col.Name
		default:
			s, err := recordString(rec, field)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", col.Name, err)
			}
			if s != "" {
				row[i] = s
			}
		}
	}
	return row, nil
}

func columnInfo(view msiHandle, kind uintptr) ([]string, error) {
	var rec msiHandle
	if err := call(procViewGetColumnInfo, uintptr(view), kind, uintptr(unsafe.Pointer(&rec))); err != nil {
		return nil, fmt.Errorf("column info: %w", err)
	}
	defer closeHandle(rec)

	n := fieldCount(rec)
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		s, err := recordString(rec, i)
		if err != nil {
			return nil, fmt.Errorf("column info: %w", err)
		}
		out = append(out, s)
	}
	return out, nil
}

func fieldCount(rec msiHandle) int {
	r, _, _ := procRecordGetFieldCount.Call(uintptr(rec))
	if n := int32(uint32(r)); n > 0 {
		return int(n)
	}
	return 0
}

func isNull(rec msiHandle, field int) bool {
	r, _, _ := procRecordIsNull.Call(uintptr(rec), uintptr(field))
	return r != 0
}

func recordString(rec msiHandle, field int) (string, error) {
	buf := make([]uint16, 256)
	for {
		size := uint32(len(buf))
		r, _, _ := procRecordGetString.Call(uintptr(rec), uintptr(field), uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&size)))
		switch errno := syscall.Errno(r); {
		case errno == 0:
			return windows.UTF16ToString(buf[:size]), nil
		case errno == windows.ERROR_MORE_DATA:
			buf = make([]uint16, size+1)
		default:
			return "", fmt.Errorf("%s: %w", procRecordGetString.Name, errno)
		}
	}
}

func closeHandle(h msiHandle) error {
	if h == 0 {
		return nil
	}
	return call(procCloseHandle, uintptr(h))
}

// call runs an msi.dll function whose UINT result is a Win32 error code
func call(proc *windows.LazyProc, args ...uintptr) error {
	r, _, _ := proc.Call(args...)
	if r != 0 {
		return fmt.Errorf("%s: %w", proc.Name, syscall.Errno(r))
	}
	return nil
}
