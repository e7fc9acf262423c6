package core

// edit.go implements the two-state cell editor.
//
//	Viewing --SelectCell--> Editing(cell)
//	Editing --CommitEdit--> Viewing
//
// Losing focus and pressing Enter both call CommitEdit. The target is
// resolved to a RowID when it is selected, so later re-sorting or filtering
// cannot redirect the edit to a different row.

import "fmt"

// EditTarget identifies the single cell being edited.
type EditTarget struct {
	RowID        RowID
	DisplayIndex int // 0-based position on the page when selected
	Column       string
}

// SelectCell puts the cell at displayIndex on the current page into edit
// mode, replacing any previous target without committing it.
func (w *Workspace) SelectCell(displayIndex int, column string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()

	page := w.viewLocked().Rows
	if displayIndex < 0 || displayIndex >= len(page) {
		return fmt.Errorf("%w: row %d of %d", ErrCellNotDisplayed, displayIndex, len(page))
	}

	w.edit = &EditTarget{
		RowID:        page[displayIndex].ID,
		DisplayIndex: displayIndex,
		Column:       column,
	}
	return nil
}

// CommitEdit writes value to the target cell and leaves edit mode. The
// target is cleared even when its row no longer exists. Reports whether a
// cell was written; committing while not editing does nothing.
func (w *Workspace) CommitEdit(value string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()

	if w.edit == nil {
		return false
	}
	target := *w.edit
	w.edit = nil

	return w.table.UpdateCell(target.RowID, target.Column, value)
}

// Editing returns the current edit target, if any.
func (w *Workspace) Editing() (EditTarget, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.edit == nil {
		return EditTarget{}, false
	}
	return *w.edit, true
}
