// Package table holds the in-memory tabular data model and the loaders that
// build it from CSV and XLSX sources. A Table lives for a single pipeline
// run and is discarded after aggregation.
package table

import (
	"fmt"
	"strings"

	"reportpipe/internal/errs"
)

// Record is one row of source data, positionally aligned with the owning
// Table's column list.
type Record []Value

// Table is an ordered sequence of Records plus an ordered column list.
// Every Record has exactly len(Columns) cells and row order reflects source
// order.
type Table struct {
	Columns []string
	Rows    []Record

	index map[string]int
}

// New creates an empty table with the given columns. Column names must be
// non-empty and unique after trimming.
func New(columns []string) (*Table, error) {
	if len(columns) == 0 {
		return nil, errs.New(errs.KindFormat, "table requires at least one column")
	}
	index := make(map[string]int, len(columns))
	cleaned := make([]string, len(columns))
	for i, col := range columns {
		name := strings.TrimSpace(col)
		if name == "" {
			return nil, errs.New(errs.KindFormat, fmt.Sprintf("column %d has an empty name", i+1))
		}
		if _, dup := index[name]; dup {
			return nil, errs.New(errs.KindFormat, fmt.Sprintf("duplicate column name %q", name))
		}
		index[name] = i
		cleaned[i] = name
	}
	return &Table{Columns: cleaned, index: index}, nil
}

// Append adds a record, enforcing the column-count invariant.
func (t *Table) Append(rec Record) error {
	if len(rec) != len(t.Columns) {
		return errs.New(errs.KindFormat,
			fmt.Sprintf("row has %d cells, table has %d columns", len(rec), len(t.Columns)))
	}
	t.Rows = append(t.Rows, rec)
	return nil
}

// ColumnIndex returns the position of a column by name.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// HasColumn reports whether the table declares the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// RowCount returns the number of records.
func (t *Table) RowCount() int { return len(t.Rows) }

// Cell returns the value at the given row for the named column.
func (t *Table) Cell(row int, column string) (Value, bool) {
	i, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.Rows) {
		return Value{}, false
	}
	return t.Rows[row][i], true
}
