package table

import (
	"fmt"
	"strings"
)

// Frame is an in-memory table. Values are stored column-major: each column
// name maps to an equal-length slice of raw cell values.
type Frame struct {
	Name    string
	columns []string
	index   map[string]int
	values  [][]string
	rows    int
}

// MissingColumnError reports a required column that is absent from a table.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("missing column %q in %s", e.Column, e.Table)
	}
	return fmt.Sprintf("missing column %q", e.Column)
}

// New creates an empty frame with the given header. Duplicate column names
// keep their first position for lookups.
func New(name string, columns []string) *Frame {
	f := &Frame{
		Name:    name,
		columns: make([]string, len(columns)),
		index:   make(map[string]int, len(columns)),
		values:  make([][]string, len(columns)),
	}
	for i, c := range columns {
		c = strings.TrimSpace(c)
		f.columns[i] = c
		key := strings.ToLower(c)
		if _, dup := f.index[key]; !dup {
			f.index[key] = i
		}
	}
	return f
}

// Columns returns the column names in header order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.columns))
	copy(out, f.columns)
	return out
}

// Len returns the number of rows.
func (f *Frame) Len() int { return f.rows }

// Has reports whether the column exists (case-insensitive).
func (f *Frame) Has(col string) bool {
	_, ok := f.index[strings.ToLower(strings.TrimSpace(col))]
	return ok
}

// Col returns the values of a column.
func (f *Frame) Col(col string) ([]string, bool) {
	i, ok := f.index[strings.ToLower(strings.TrimSpace(col))]
	if !ok {
		return nil, false
	}
	return f.values[i], true
}

// ColAt returns the values of the column at header position i. Unlike Col it
// distinguishes columns whose names collide.
func (f *Frame) ColAt(i int) []string {
	if i < 0 || i >= len(f.values) {
		return nil
	}
	return f.values[i]
}

// Value returns the cell at row for col, or "" if the column does not exist.
func (f *Frame) Value(row int, col string) string {
	vals, ok := f.Col(col)
	if !ok || row < 0 || row >= len(vals) {
		return ""
	}
	return vals[row]
}

// AppendRow adds a record, padding or truncating it to the header width.
func (f *Frame) AppendRow(rec []string) {
	for i := range f.columns {
		v := ""
		if i < len(rec) {
			v = strings.TrimSpace(rec[i])
		}
		f.values[i] = append(f.values[i], v)
	}
	f.rows++
}

// Require returns a *MissingColumnError for the first absent column.
func (f *Frame) Require(cols ...string) error {
	for _, c := range cols {
		if !f.Has(c) {
			return &MissingColumnError{Table: f.Name, Column: c}
		}
	}
	return nil
}

// Filter returns a new frame holding only the rows for which keep is true.
func (f *Frame) Filter(keep func(row int) bool) *Frame {
	out := New(f.Name, f.columns)
	rec := make([]string, len(f.columns))
	for r := 0; r < f.rows; r++ {
		if !keep(r) {
			continue
		}
		for c := range f.columns {
			rec[c] = f.values[c][r]
		}
		out.AppendRow(rec)
	}
	return out
}

// Drop returns a new frame without the named columns. Names that are not
// present are ignored.
func (f *Frame) Drop(cols ...string) *Frame {
	drop := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		drop[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	var keepIdx []int
	var keepNames []string
	for i, c := range f.columns {
		if _, ok := drop[strings.ToLower(c)]; ok {
			continue
		}
		keepIdx = append(keepIdx, i)
		keepNames = append(keepNames, c)
	}
	out := New(f.Name, keepNames)
	for j, i := range keepIdx {
		vals := make([]string, f.rows)
		copy(vals, f.values[i])
		out.values[j] = vals
	}
	out.rows = f.rows
	return out
}

// Rename returns a new frame whose column names are mapped through fn.
func (f *Frame) Rename(fn func(string) string) *Frame {
	names := make([]string, len(f.columns))
	for i, c := range f.columns {
		names[i] = fn(c)
	}
	out := New(f.Name, names)
	for i := range f.columns {
		vals := make([]string, f.rows)
		copy(vals, f.values[i])
		out.values[i] = vals
	}
	out.rows = f.rows
	return out
}
