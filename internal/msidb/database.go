// Package msidb reads installer databases (.msi products and .msp patches)
// read-only, exposing their tables through parameterised queries.
package msidb

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrClosed is returned by queries on a closed database
	ErrClosed = errors.New("database is closed")
	// ErrTableNotFound is returned when a query names a table the database lacks
	ErrTableNotFound = errors.New("table not found")
	// ErrNotInstallerDatabase is returned when a file is not a compound installer database
	ErrNotInstallerDatabase = errors.New("not an installer database")
	// ErrNativeUnsupported is returned when the Windows Installer API cannot be loaded
	ErrNativeUnsupported = errors.New("windows installer database API is not available")
)

// Query selects columns from one table, optionally filtered by equality on a column
type Query struct {
	Table   string
	Columns []string // empty selects every column
	Where   string   // column compared against Arg; empty for no filter
	Arg     any
}

// String renders the query in the installer's SQL dialect, for logs
func (q Query) String() string {
	cols := "*"
	if len(q.Columns) > 0 {
		quoted := make([]string, len(q.Columns))
		for i, c := range q.Columns {
			quoted[i] = "`" + c + "`"
		}
		cols = strings.Join(quoted, ", ")
	}

	s := fmt.Sprintf("SELECT %s FROM `%s`", cols, q.Table)
	if q.Where != "" {
		s += fmt.Sprintf(" WHERE `%s` = ?", q.Where)
	}
	return s
}

// Database is an open, read-only installer database
type Database interface {
	// Path returns the file the database was opened from
	Path() string

	// Tables lists the tables present in the database
	Tables(ctx context.Context) ([]string, error)

	// Query runs a query and returns its result view
	Query(ctx context.Context, q Query) (*View, error)

	// Close releases the database. Closing twice is a no-op.
	Close() error
}

// Reader opens installer databases
type Reader interface {
	Open(ctx context.Context, path string) (Database, error)
}

// Select applies a query to an already loaded table view
func Select(table *View, q Query) (*View, error) {
	indexes := make([]int, 0, len(table.Columns))
	result := &View{Table: table.Table, Keys: table.Keys}

	if len(q.Columns) == 0 {
		for i, c := range table.Columns {
			indexes = append(indexes, i)
			result.Columns = append(result.Columns, c)
		}
	} else {
		for _, name := range q.Columns {
			i := table.ColumnIndex(name)
			if i < 0 {
				return nil, fmt.Errorf("%s: unknown column %q", q, name)
			}
			indexes = append(indexes, i)
			result.Columns = append(result.Columns, table.Columns[i])
		}
	}

	where := -1
	if q.Where != "" {
		where = table.ColumnIndex(q.Where)
		if where < 0 {
			return nil, fmt.Errorf("%s: unknown column %q", q, q.Where)
		}
	}

	for _, row := range table.Rows {
		if where >= 0 && row[where] != q.Arg {
			continue
		}
		out := make([]any, len(indexes))
		for i, idx := range indexes {
			out[i] = row[idx]
		}
		result.Rows = append(result.Rows, out)
	}

	return result, nil
}
