package core

import "github.com/JonMunkholm/sheetview/internal/codec"

// RowID is a stable synthetic identifier assigned to a row when it is loaded.
// Ids are never reused within a Table, including across reloads.
type RowID int64

// Cell is one column/value pair of a Row.
type Cell struct {
	Column string
	Value  string
}

// Row is one record of tabular data, keyed by column name. Cells keep the
// column order they were loaded with.
//
// Rows are values: a Table replaces a row when one of its cells changes, so
// a Row obtained from a derived view never changes under the caller.
type Row struct {
	ID    RowID
	cells []Cell
}

// NewRow builds a row from parallel column and value slices. Missing values
// are empty strings; surplus values are dropped.
func NewRow(columns, values []string) Row {
	cells := make([]Cell, len(columns))
	for i, col := range columns {
		cells[i].Column = col
		if i < len(values) {
			cells[i].Value = values[i]
		}
	}
	return Row{cells: cells}
}

// RowsFromSheet converts a decoded sheet into rows, one per data record.
func RowsFromSheet(sheet *codec.Sheet) []Row {
	if sheet == nil {
		return nil
	}
	rows := make([]Row, len(sheet.Rows))
	for i, rec := range sheet.Rows {
		rows[i] = NewRow(sheet.Header, rec)
	}
	return rows
}

// Lookup returns the value stored under column.
func (r Row) Lookup(column string) (string, bool) {
	for _, c := range r.cells {
		if c.Column == column {
			return c.Value, true
		}
	}
	return "", false
}

// Value returns the value stored under column, or "" if the row has no such column.
func (r Row) Value(column string) string {
	v, _ := r.Lookup(column)
	return v
}

// Columns returns the row's column names in order.
func (r Row) Columns() []string {
	cols := make([]string, len(r.cells))
	for i, c := range r.cells {
		cols[i] = c.Column
	}
	return cols
}

// Values returns the row's values in column order.
func (r Row) Values() []string {
	vals := make([]string, len(r.cells))
	for i, c := range r.cells {
		vals[i] = c.Value
	}
	return vals
}

// Cells returns a copy of the row's cells.
func (r Row) Cells() []Cell {
	out := make([]Cell, len(r.cells))
	copy(out, r.cells)
	return out
}

// Len returns the number of cells.
func (r Row) Len() int {
	return len(r.cells)
}

// with returns a copy of r where column holds value. An unknown column is
// appended as a new cell.
func (r Row) with(column, value string) Row {
	cells := make([]Cell, len(r.cells), len(r.cells)+1)
	copy(cells, r.cells)

	for i := range cells {
		if cells[i].Column == column {
			cells[i].Value = value
			return Row{ID: r.ID, cells: cells}
		}
	}
	cells = append(cells, Cell{Column: column, Value: value})
	return Row{ID: r.ID, cells: cells}
}
