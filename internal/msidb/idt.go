package msidb

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// ColumnType is an installer column definition such as "s72", "L0" or "i2".
// Uppercase letters mark nullable columns.
type ColumnType string

// Nullable reports whether the column accepts null values
func (t ColumnType) Nullable() bool {
	return len(t) > 0 && t[0] >= 'A' && t[0] <= 'Z'
}

// IsInteger reports whether the column holds i2/i4 integers
func (t ColumnType) IsInteger() bool {
	return len(t) > 0 && (t[0] == 'i' || t[0] == 'I' || t[0] == 'j' || t[0] == 'J')
}

// IsStream reports whether the column holds binary stream data
func (t ColumnType) IsStream() bool {
	return len(t) > 0 && (t[0] == 'v' || t[0] == 'V')
}

// Column describes one table column
type Column struct {
	Name string
	Type ColumnType
}

// View is the result of a query: named, typed columns and coerced rows
type View struct {
	Table   string
	Keys    []string
	Columns []Column
	Rows    [][]any
}

// ColumnIndex returns the position of a column or -1
func (v *View) ColumnIndex(name string) int {
	for i, c := range v.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// idtEscapes maps the archive-format control substitutes back to their characters
var idtEscapes = strings.NewReplacer("\x11", "\r", "\x19", "\n", "\x15", "\t")

// ParseIDT parses a table exported in installer archive (.idt) format:
// column names, column types, table name plus key columns, then one row per line.
func ParseIDT(data string) (*View, error) {
	scanner := bufio.NewScanner(strings.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var header [3][]string
	for i := range header {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("read idt header: %w", err)
			}
			return nil, fmt.Errorf("truncated idt header: got %d of 3 lines", i)
		}
		header[i] = strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t")
	}

	names, types, tableLine := header[0], header[1], header[2]
	if len(names) != len(types) {
		return nil, fmt.Errorf("idt header mismatch: %d columns, %d types", len(names), len(types))
	}

	// An optional leading codepage precedes the table name
	if len(tableLine) > 1 {
		if _, err := strconv.Atoi(tableLine[0]); err == nil {
			tableLine = tableLine[1:]
		}
	}
	if len(tableLine) == 0 || tableLine[0] == "" {
		return nil, fmt.Errorf("idt header has no table name")
	}

	view := &View{
		Table: tableLine[0],
		Keys:  tableLine[1:],
	}
	for i, name := range names {
		view.Columns = append(view.Columns, Column{Name: name, Type: ColumnType(types[i])})
	}

	for line := 4; scanner.Scan(); line++ {
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" {
			continue
		}

		fields := strings.Split(text, "\t")
		if len(fields) > len(view.Columns) {
			return nil, fmt.Errorf("%s line %d: %d fields for %d columns", view.Table, line, len(fields), len(view.Columns))
		}

		row := make([]any, len(view.Columns))
		for i, col := range view.Columns {
			raw := ""
			if i < len(fields) {
				raw = fields[i]
			}
			value, err := coerce(col.Type, raw)
			if err != nil {
				return nil, fmt.Errorf("%s line %d column %s: %w", view.Table, line, col.Name, err)
			}
			row[i] = value
		}
		view.Rows = append(view.Rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read idt rows: %w", err)
	}

	return view, nil
}

// coerce converts a raw cell according to its column type. The installer stores
// empty strings as null, so an empty cell is nil for every type.
func coerce(t ColumnType, raw string) (any, error) {
	if raw == "" {
		return nil, nil
	}

	switch {
	case t.IsInteger():
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", raw)
		}
		return n, nil
	case t.IsStream():
		// streams are exported as side files; the cell holds the file name
		return raw, nil
	default:
		return idtEscapes.Replace(raw), nil
	}
}
