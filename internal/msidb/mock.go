package msidb

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// MockReader serves in-memory databases keyed by path, for tests
type MockReader struct {
	Databases map[string]map[string]*View // path -> table -> contents

	mu     sync.Mutex
	opened int
	closed int
}

// Open implements Reader
func (m *MockReader) Open(_ context.Context, path string) (Database, error) {
	tables, ok := m.Databases[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}

	m.mu.Lock()
	m.opened++
	m.mu.Unlock()

	return &mockDatabase{reader: m, path: path, tables: tables}, nil
}

// OpenCount returns how many databases were opened
func (m *MockReader) OpenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opened
}

// CloseCount returns how many databases were closed
func (m *MockReader) CloseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

type mockDatabase struct {
	reader *MockReader
	path   string
	tables map[string]*View
	closed bool
}

func (d *mockDatabase) Path() string {
	return d.path
}

func (d *mockDatabase) Tables(_ context.Context) ([]string, error) {
	if d.closed {
		return nil, ErrClosed
	}
	names := make([]string, 0, len(d.tables))
	for name := range d.tables {
		names = append(names, name)
	}
	return names, nil
}

func (d *mockDatabase) Query(_ context.Context, q Query) (*View, error) {
	if d.closed {
		return nil, ErrClosed
	}
	table, ok := d.tables[q.Table]
	if !ok {
		return nil, fmt.Errorf("%s: %w", q.Table, ErrTableNotFound)
	}
	return Select(table, q)
}

func (d *mockDatabase) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.reader.mu.Lock()
	d.reader.closed++
	d.reader.mu.Unlock()
	return nil
}

// PropertyTable builds a Property table view from name/value pairs
func PropertyTable(pairs ...string) *View {
	view := &View{
		Table:   "Property",
		Keys:    []string{"Property"},
		Columns: []Column{{Name: "Property", Type: "s72"}, {Name: "Value", Type: "l0"}},
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		view.Rows = append(view.Rows, []any{pairs[i], pairs[i+1]})
	}
	return view
}

// PatchMetadataTable builds an MsiPatchMetadata table view from company/property/value triples
func PatchMetadataTable(triples ...string) *View {
	view := &View{
		Table: "MsiPatchMetadata",
		Keys:  []string{"Company", "Property"},
		Columns: []Column{
			{Name: "Company", Type: "S72"},
			{Name: "Property", Type: "s72"},
			{Name: "Value", Type: "l0"},
		},
	}
	for i := 0; i+2 < len(triples); i += 3 {
		var company any
		if triples[i] != "" {
			company = triples[i]
		}
		view.Rows = append(view.Rows, []any{company, triples[i+1], triples[i+2]})
	}
	return view
}
