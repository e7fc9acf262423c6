package core

import "slices"

// Table is the canonical in-memory row sequence for one uploaded file.
//
// Table is not safe for concurrent use; Workspace serializes access.
type Table struct {
	rows    []Row
	index   map[RowID]int
	lastID  RowID
	version uint64
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{index: make(map[RowID]int)}
}

// Load replaces the table contents wholesale. Each row receives a fresh id.
func (t *Table) Load(rows []Row) {
	loaded := make([]Row, len(rows))
	index := make(map[RowID]int, len(rows))

	for i, row := range rows {
		t.lastID++
		row.ID = t.lastID
		loaded[i] = row
		index[row.ID] = i
	}

	t.rows = loaded
	t.index = index
	t.version++
}

// UpdateCell sets one cell of the row identified by id. A column the row
// does not have is added to that row only. Returns false, changing nothing,
// when no row has that id.
func (t *Table) UpdateCell(id RowID, column, value string) bool {
	pos, ok := t.index[id]
	if !ok {
		return false
	}

	// Copy on write: slices handed out by Rows or derived views keep
	// their contents.
	rows := slices.Clone(t.rows)
	rows[pos] = rows[pos].with(column, value)
	t.rows = rows
	t.version++
	return true
}

// Row returns the row with the given id.
func (t *Table) Row(id RowID) (Row, bool) {
	pos, ok := t.index[id]
	if !ok {
		return Row{}, false
	}
	return t.rows[pos], true
}

// Rows returns the rows in table order. The slice must not be modified.
func (t *Table) Rows() []Row {
	return t.rows
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Version increases on every load and every successful cell update.
func (t *Table) Version() uint64 {
	return t.version
}

// Columns returns the column set, taken from the first row.
func (t *Table) Columns() []string {
	if len(t.rows) == 0 {
		return nil
	}
	return t.rows[0].Columns()
}
