// Package table provides the labeled, ordered tabular value type passed
// between the fetch, align, aggregate and upload components. A Table owns its
// cells outright: every transform consumes its inputs and produces a new
// Table, so there is no shared mutable state between pipeline stages.
package table

import (
	"fmt"
	"sort"
	"time"
)

// Table is an ordered sequence of rows under a fixed, ordered set of column
// names. A nil cell represents a missing (null) value.
type Table struct {
	cols   []string
	colIdx map[string]int
	rows   [][]interface{}
}

// New creates an empty Table with the given column names.
// Column names must be unique.
func New(cols []string) (*Table, error) {
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, dup := idx[c]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c)
		}
		idx[c] = i
	}
	return &Table{
		cols:   append([]string(nil), cols...),
		colIdx: idx,
		rows:   make([][]interface{}, 0),
	}, nil
}

// FromRows creates a Table from column names and row data. Every row must
// have exactly len(cols) cells.
func FromRows(cols []string, rows [][]interface{}) (*Table, error) {
	t, err := New(cols)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if err := t.AppendRow(row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return t, nil
}

// Columns returns a copy of the ordered column names.
func (t *Table) Columns() []string {
	return append([]string(nil), t.cols...)
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return len(t.rows)
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.cols)
}

// ColumnIndex returns the position of the named column, or false if absent.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.colIdx[name]
	return i, ok
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.colIdx[name]
	return ok
}

// AppendRow appends a row. The row must have exactly NumCols cells; the slice
// is copied so the caller may reuse it.
func (t *Table) AppendRow(row []interface{}) error {
	if len(row) != len(t.cols) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(row), len(t.cols))
	}
	t.rows = append(t.rows, append([]interface{}(nil), row...))
	return nil
}

// Row returns the i-th row. The returned slice is the backing storage; it is
// only valid for read access.
func (t *Table) Row(i int) []interface{} {
	return t.rows[i]
}

// Cell returns the cell at row i under the named column. The second return
// value is false when the column does not exist.
func (t *Table) Cell(i int, col string) (interface{}, bool) {
	j, ok := t.colIdx[col]
	if !ok {
		return nil, false
	}
	return t.rows[i][j], true
}

// SetCell overwrites the cell at row i, column j.
func (t *Table) SetCell(i, j int, v interface{}) {
	t.rows[i][j] = v
}

// Rename renames a column in place. It fails if oldName is absent or newName
// already exists.
func (t *Table) Rename(oldName, newName string) error {
	if oldName == newName {
		return nil
	}
	i, ok := t.colIdx[oldName]
	if !ok {
		return fmt.Errorf("column %q not found", oldName)
	}
	if _, dup := t.colIdx[newName]; dup {
		return fmt.Errorf("column %q already exists", newName)
	}
	t.cols[i] = newName
	delete(t.colIdx, oldName)
	t.colIdx[newName] = i
	return nil
}

// Clone returns a deep copy of the table structure. Cell values themselves
// are copied by assignment, which is sufficient for the scalar cell types the
// pipeline uses.
func (t *Table) Clone() *Table {
	c, _ := New(t.cols)
	c.rows = make([][]interface{}, len(t.rows))
	for i, row := range t.rows {
		c.rows[i] = append([]interface{}(nil), row...)
	}
	return c
}

// SortStable stably sorts rows in place using the given comparison.
func (t *Table) SortStable(less func(a, b []interface{}) bool) {
	sort.SliceStable(t.rows, func(i, j int) bool {
		return less(t.rows[i], t.rows[j])
	})
}

// Float extracts a numeric cell value as float64. It recognizes the numeric
// scalar types produced by database/sql scans and the CSV codec. A nil cell
// or non-numeric cell yields ok == false.
func Float(cell interface{}) (float64, bool) {
	switch v := cell.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// Time extracts a cell value as time.Time. ok is false for nil or
// non-temporal cells.
func Time(cell interface{}) (time.Time, bool) {
	v, ok := cell.(time.Time)
	return v, ok
}
