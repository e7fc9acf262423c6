package core

import (
	"sync"
	"time"

	"github.com/JonMunkholm/sheetview/internal/codec"
)

// Status is the load state of a workspace.
type Status string

const (
	StatusEmpty   Status = "empty"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Workspace binds one table to its view state and edit target. It is the
// unit a single user works in; all methods are safe for concurrent use and
// run one at a time.
type Workspace struct {
	ID string

	mu        sync.Mutex
	table     *Table
	state     ViewState
	edit      *EditTarget
	status    Status
	loadErr   error
	fileName  string
	createdAt time.Time
	touchedAt time.Time
	cache     derivedCache
}

// derivedCache memoizes the filter+sort stages for one table version and
// ViewState. Pagination is cheap and always recomputed.
type derivedCache struct {
	valid   bool
	version uint64
	search  string
	sortKey string
	sortDir SortDirection
	rows    []Row
}

func (c *derivedCache) lookup(version uint64, s ViewState) ([]Row, bool) {
	if !c.valid || c.version != version || c.search != s.Search ||
		c.sortKey != s.SortKey || c.sortDir != s.SortDir {
		return nil, false
	}
	return c.rows, true
}

func (c *derivedCache) store(version uint64, s ViewState, rows []Row) {
	*c = derivedCache{
		valid:   true,
		version: version,
		search:  s.Search,
		sortKey: s.SortKey,
		sortDir: s.SortDir,
		rows:    rows,
	}
}

// NewWorkspace returns an empty workspace.
func NewWorkspace(id string) *Workspace {
	now := time.Now()
	return &Workspace{
		ID:        id,
		table:     NewTable(),
		state:     NewViewState(),
		status:    StatusEmpty,
		createdAt: now,
		touchedAt: now,
	}
}

// BeginLoad marks an upload as in progress. The current table stays visible
// until Load or FailLoad. Only one upload may be loading at a time.
func (w *Workspace) BeginLoad(fileName string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()

	if w.status == StatusLoading {
		return ErrUploadInProgress
	}
	w.status = StatusLoading
	w.loadErr = nil
	w.fileName = fileName
	return nil
}

// Load replaces the table, returns to page 1 and clears the edit target.
// Search and sort settings carry over.
func (w *Workspace) Load(fileName string, rows []Row) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()

	w.table.Load(rows)
	w.state.Page = 1
	w.edit = nil
	w.status = StatusReady
	w.loadErr = nil
	w.fileName = fileName
}

// FailLoad records a failed upload. The previous table is kept and the
// workspace can be loaded again.
func (w *Workspace) FailLoad(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()

	w.status = StatusFailed
	w.loadErr = err
}

// Status returns the load status and, when failed, the error.
func (w *Workspace) Status() (Status, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status, w.loadErr
}

// FileName returns the name of the most recently uploaded file.
func (w *Workspace) FileName() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fileName
}

// State returns the current view state.
func (w *Workspace) State() ViewState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// View runs the pipeline for the current state.
func (w *Workspace) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	return w.viewLocked()
}

func (w *Workspace) viewLocked() View {
	return buildView(w.table, w.state, w.sortedLocked())
}

// sortedLocked returns the filtered and sorted rows, from cache when the
// table and the relevant view state are unchanged.
func (w *Workspace) sortedLocked() []Row {
	version := w.table.Version()
	if rows, ok := w.cache.lookup(version, w.state); ok {
		return rows
	}
	rows := FilterSort(w.table.Rows(), w.state)
	w.cache.store(version, w.state, rows)
	return rows
}

// SetSearch changes the search term and returns to page 1.
func (w *Workspace) SetSearch(term string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	w.state = w.state.WithSearch(term)
}

// ToggleSort applies a header click on column.
func (w *Workspace) ToggleSort(column string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	w.state = w.state.ToggleSort(column)
}

// SetSort sets the sort column and direction.
func (w *Workspace) SetSort(column string, dir SortDirection) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	w.state = w.state.WithSort(column, dir)
}

// NextPage moves forward one page, stopping at the last page.
func (w *Workspace) NextPage() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	total := TotalPages(len(w.sortedLocked()), DefaultPageSize)
	w.state = w.state.NextPage(total)
}

// PrevPage moves back one page, stopping at page 1.
func (w *Workspace) PrevPage() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	w.state = w.state.PrevPage()
}

// GoToPage jumps to page, clamped to the available pages.
func (w *Workspace) GoToPage(page int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	total := TotalPages(len(w.sortedLocked()), DefaultPageSize)
	w.state = w.state.WithPage(page, total)
}

// ExportSheet builds the export of every filtered and sorted row,
// ignoring pagination.
func (w *Workspace) ExportSheet() *codec.Sheet {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	return BuildExport(w.sortedLocked())
}

// IdleSince returns when the workspace was last used.
func (w *Workspace) IdleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.touchedAt
}

// touch records activity. Callers hold w.mu.
func (w *Workspace) touch() {
	w.touchedAt = time.Now()
}
