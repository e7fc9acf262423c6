package core

// pipeline.go derives what is shown from a row sequence and a ViewState.
//
// The stages always run in the same order: Filter, then Sort, then Paginate.
// Each stage reads only its input slice and its own part of the ViewState and
// returns a new slice; none of them modify their input.

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultPageSize is the number of rows per page.
const DefaultPageSize = 10

// SortDirection is the order applied to the sort column.
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// ParseSortDirection accepts "desc" (any case); anything else is ascending.
func ParseSortDirection(s string) SortDirection {
	if strings.EqualFold(strings.TrimSpace(s), string(SortDescending)) {
		return SortDescending
	}
	return SortAscending
}

// Sort glyphs shown in column headers.
const (
	GlyphAscending  = "▲"
	GlyphDescending = "▼"
	GlyphUnsorted   = "↕"
)

// ViewState holds the search, sort and pagination parameters. It is an
// immutable value: every transition returns a new ViewState.
type ViewState struct {
	Search  string
	SortKey string // empty means unsorted
	SortDir SortDirection
	Page    int // 1-based
}

// NewViewState returns the state used for a fresh upload.
func NewViewState() ViewState {
	return ViewState{SortDir: SortAscending, Page: 1}
}

// WithSearch sets the search term and returns to the first page.
func (v ViewState) WithSearch(term string) ViewState {
	v.Search = term
	v.Page = 1
	return v
}

// ToggleSort flips the direction when column is already the sort key and
// otherwise sorts ascending by column.
func (v ViewState) ToggleSort(column string) ViewState {
	if v.SortKey == column {
		if v.SortDir == SortAscending {
			v.SortDir = SortDescending
		} else {
			v.SortDir = SortAscending
		}
		return v
	}
	v.SortKey = column
	v.SortDir = SortAscending
	return v
}

// WithSort sets the sort key and direction directly.
func (v ViewState) WithSort(column string, dir SortDirection) ViewState {
	v.SortKey = column
	v.SortDir = dir
	return v
}

// NextPage advances one page unless already on the last page.
func (v ViewState) NextPage(totalPages int) ViewState {
	if v.Page < totalPages {
		v.Page++
	}
	return v
}

// PrevPage goes back one page, never below 1.
func (v ViewState) PrevPage() ViewState {
	if v.Page > 1 {
		v.Page--
	}
	return v
}

// WithPage jumps to page, clamped to [1, totalPages]. With no pages at all
// the current page is kept.
func (v ViewState) WithPage(page, totalPages int) ViewState {
	if totalPages <= 0 {
		return v
	}
	v.Page = min(max(page, 1), totalPages)
	return v
}

// SortGlyph returns the indicator for column's header.
func (v ViewState) SortGlyph(column string) string {
	if v.SortKey != column {
		return GlyphUnsorted
	}
	if v.SortDir == SortDescending {
		return GlyphDescending
	}
	return GlyphAscending
}

// Filter keeps rows where at least one value contains term, ignoring case.
// An empty term returns rows unchanged.
func Filter(rows []Row, term string) []Row {
	if term == "" {
		return rows
	}
	needle := strings.ToLower(term)

	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		for _, c := range row.cells {
			if strings.Contains(strings.ToLower(c.Value), needle) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// Sort orders rows by the value under key using locale-aware collation with
// numeric ordering of digit runs, so "2" sorts before "10". A missing value
// sorts as "". Ties keep their input order. An empty key returns rows
// unchanged.
func Sort(rows []Row, key string, dir SortDirection) []Row {
	if key == "" {
		return rows
	}

	// Collator is not safe for concurrent use; build one per call.
	coll := collate.New(language.Und, collate.Numeric)
	var buf collate.Buffer

	type keyed struct {
		row Row
		key []byte
	}
	items := make([]keyed, len(rows))
	for i, row := range rows {
		items[i] = keyed{row: row, key: coll.KeyFromString(&buf, row.Value(key))}
	}

	slices.SortStableFunc(items, func(a, b keyed) int {
		c := bytes.Compare(a.key, b.key)
		if dir == SortDescending {
			return -c
		}
		return c
	})

	out := make([]Row, len(items))
	for i, it := range items {
		out[i] = it.row
	}
	return out
}

// Paginate returns rows [(page-1)*size, page*size). Pages outside the
// sequence yield an empty slice. A non-positive size means DefaultPageSize.
func Paginate(rows []Row, page, size int) []Row {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		return []Row{}
	}
	start := (page - 1) * size
	if start >= len(rows) {
		return []Row{}
	}
	end := min(start+size, len(rows))
	return rows[start:end:end]
}

// TotalPages returns ceil(n/size); zero rows means zero pages.
func TotalPages(n, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	return (n + size - 1) / size
}

// View is the result of running the pipeline once.
type View struct {
	State      ViewState
	Columns    []string
	Rows       []Row // the current page
	Matched    int   // rows after filtering
	Total      int   // rows in the table
	TotalPages int
	PageSize   int
}

// FirstRow returns the 1-based position of the first row on the page within
// the matched rows, or 0 when the page is empty.
func (v View) FirstRow() int {
	if len(v.Rows) == 0 {
		return 0
	}
	return (v.State.Page-1)*v.PageSize + 1
}

// LastRow returns the 1-based position of the last row on the page.
func (v View) LastRow() int {
	if len(v.Rows) == 0 {
		return 0
	}
	return v.FirstRow() + len(v.Rows) - 1
}

// Summary describes the rows on the page, e.g.
// "Showing 11-20 of 25 rows (filtered from 40)".
func (v View) Summary() string {
	if v.Matched == 0 {
		return fmt.Sprintf("No rows to show (%d in file)", v.Total)
	}
	text := fmt.Sprintf("Showing %d-%d of %d rows", v.FirstRow(), v.LastRow(), v.Matched)
	if v.Matched != v.Total {
		text += fmt.Sprintf(" (filtered from %d)", v.Total)
	}
	return text
}

// FilterSort runs the first two stages.
func FilterSort(rows []Row, state ViewState) []Row {
	return Sort(Filter(rows, state.Search), state.SortKey, state.SortDir)
}

// Derive runs the whole pipeline over a table.
func Derive(t *Table, state ViewState) View {
	return buildView(t, state, FilterSort(t.Rows(), state))
}

func buildView(t *Table, state ViewState, sorted []Row) View {
	return View{
		State:      state,
		Columns:    t.Columns(),
		Rows:       Paginate(sorted, state.Page, DefaultPageSize),
		Matched:    len(sorted),
		Total:      t.Len(),
		TotalPages: TotalPages(len(sorted), DefaultPageSize),
		PageSize:   DefaultPageSize,
	}
}
