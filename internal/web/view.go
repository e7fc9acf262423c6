package web

import "github.com/JonMunkholm/sheetview/internal/core"

// ViewResponse is the JSON form of a workspace and its current page.
type ViewResponse struct {
	ID         string         `json:"id"`
	FileName   string         `json:"file_name"`
	Status     core.Status    `json:"status"`
	Error      *ErrorResponse `json:"error,omitempty"`
	Search     string         `json:"search"`
	SortKey    string         `json:"sort_key,omitempty"`
	SortDir    string         `json:"sort_dir"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	PageSize   int            `json:"page_size"`
	Matched    int            `json:"matched"`
	Total      int            `json:"total"`
	Columns    []string       `json:"columns"`
	Rows       []RowResponse  `json:"rows"`
	Editing    *EditResponse  `json:"editing,omitempty"`
}

// RowResponse is one displayed row.
type RowResponse struct {
	ID    core.RowID        `json:"id"`
	Cells map[string]string `json:"cells"`
}

// EditResponse is the cell currently in edit mode.
type EditResponse struct {
	RowID  core.RowID `json:"row_id"`
	Row    int        `json:"row"`
	Column string     `json:"column"`
}

func newViewResponse(ws *core.Workspace) ViewResponse {
	v := ws.View()
	status, loadErr := ws.Status()

	resp := ViewResponse{
		ID:         ws.ID,
		FileName:   ws.FileName(),
		Status:     status,
		Search:     v.State.Search,
		SortKey:    v.State.SortKey,
		SortDir:    string(v.State.SortDir),
		Page:       v.State.Page,
		TotalPages: v.TotalPages,
		PageSize:   v.PageSize,
		Matched:    v.Matched,
		Total:      v.Total,
		Columns:    v.Columns,
		Rows:       make([]RowResponse, len(v.Rows)),
	}
	if resp.Columns == nil {
		resp.Columns = []string{}
	}
	if loadErr != nil {
		e := newErrorResponse(core.MapError(loadErr))
		resp.Error = &e
	}
	for i, row := range v.Rows {
		cells := make(map[string]string, row.Len())
		for _, c := range row.Cells() {
			cells[c.Column] = c.Value
		}
		resp.Rows[i] = RowResponse{ID: row.ID, Cells: cells}
	}
	if t, ok := ws.Editing(); ok {
		resp.Editing = &EditResponse{RowID: t.RowID, Row: t.DisplayIndex, Column: t.Column}
	}
	return resp
}
