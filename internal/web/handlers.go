package web

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/JonMunkholm/sheetview/internal/core"
	"github.com/JonMunkholm/sheetview/internal/logging"
	"github.com/JonMunkholm/sheetview/internal/web/templates"
	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
)

// multipartOverhead is allowed on top of the file size limit for the rest
// of the form.
const multipartOverhead = 1 << 20

type workspaceHandlerFunc func(w http.ResponseWriter, r *http.Request, ws *core.Workspace)

// withWorkspace resolves the {id} URL parameter to a workspace.
func (s *Server) withWorkspace(h workspaceHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := s.service.Workspace(chi.URLParam(r, "id"))
		if err != nil {
			s.respondError(w, r, err, statusFor(err))
			return
		}
		h(w, r, ws)
	}
}

// handleLanding renders the upload page.
func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	resume := ""
	if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
		if _, err := s.service.Workspace(c.Value); err == nil {
			resume = c.Value
		}
	}
	s.render(w, r, http.StatusOK, templates.Landing(resume, nil))
}

// handleCreate opens a new workspace and loads the uploaded file into it.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	file, header, err := s.formFile(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer file.Close()

	ws, err := s.service.CreateWorkspace()
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	if err := s.service.Upload(r.Context(), ws, header.Filename, file); err != nil {
		// API clients never learn the id of a workspace that failed to
		// load, so drop it. Browsers are sent to it to see the failure.
		if wantsJSON(r) {
			s.discardWorkspace(r, ws.ID)
			s.respondError(w, r, err, statusFor(err))
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    ws.ID,
		Path:     "/",
		MaxAge:   int(s.cfg.Session.IdleTimeout / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.respondWorkspace(w, r, ws, http.StatusCreated)
}

// handleView renders the current page of a workspace.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request, ws *core.Workspace) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, newViewResponse(ws))
		return
	}

	status, loadErr := ws.Status()
	data := templates.WorkspaceData{
		ID:       ws.ID,
		FileName: ws.FileName(),
		Status:   status,
		View:     ws.View(),
	}
	if loadErr != nil {
		msg := core.MapError(loadErr)
		data.Failure = &msg
	}
	if target, ok := ws.Editing(); ok {
		data.Edit = &target
	}
	s.render(w, r, http.StatusOK, templates.WorkspacePage(data))
}

// handleUpload replaces the workspace table with a new file.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, ws *core.Workspace) {
	file, header, err := s.formFile(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer file.Close()

	if err := s.service.Upload(r.Context(), ws, header.Filename, file); err != nil {
		// The failure is recorded on the workspace and shown on its page.
		if wantsJSON(r) || errors.Is(err, core.ErrUploadInProgress) {
			s.respondError(w, r, err, statusFor(err))
			return
		}
	}
	s.respondWorkspace(w, r, ws, http.StatusOK)
}

// handleSearch sets the search term (q) and returns to page 1.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request, ws *core.Workspace) {
	vals, err := readParams(w, r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	ws.SetSearch(vals.Get("q"))
	s.respondWorkspace(w, r, ws, http.StatusOK)
}

// handleSort toggles sorting on column. An explicit dir sets the direction
// instead of toggling.
func (s *Server) handleSort(w http.ResponseWriter, r *http.Request, ws *core.Workspace) {
	vals, err := readParams(w, r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	column := vals.Get("column")
	if dir := vals.Get("dir"); dir != "" {
		ws.SetSort(column, core.ParseSortDirection(dir))
	} else {
		ws.ToggleSort(column)
	}
	s.respondWorkspace(w, r, ws, http.StatusOK)
}

// handlePage moves by dir=next|prev or jumps to page=N.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request, ws *core.Workspace) {
	vals, err := readParams(w, r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if page, ok := intParam(vals, "page"); ok {
		ws.GoToPage(page)
	} else {
		switch vals.Get("dir") {
		case "next":
			ws.NextPage()
		case "prev":
			ws.PrevPage()
		default:
			s.respondError(w, r, fmt.Errorf("page: expected dir=next|prev or page=N"), http.StatusBadRequest)
			return
		}
	}
	s.respondWorkspace(w, r, ws, http.StatusOK)
}

// handleEdit selects the cell at display row and column for editing.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request, ws *core.Workspace) {
	vals, err := readParams(w, r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	row, ok := intParam(vals, "row")
	column := vals.Get("column")
	if !ok || column == "" {
		s.respondError(w, r, fmt.Errorf("edit: row and column are required"), http.StatusBadRequest)
		return
	}
	if err := ws.SelectCell(row, column); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.respondWorkspace(w, r, ws, http.StatusOK)
}

// handleCommit writes value to the selected cell and leaves edit mode.
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request, ws *core.Workspace) {
	vals, err := readParams(w, r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if target, ok := ws.Editing(); ok {
		updated := ws.CommitEdit(vals.Get("value"))
		logging.FromContext(r.Context()).Debug("cell committed",
			"workspace", ws.ID,
			"row_id", target.RowID,
			"column", target.Column,
			"updated", updated,
		)
	}
	s.respondWorkspace(w, r, ws, http.StatusOK)
}

// handleExport downloads the filtered and sorted rows as export.xlsx.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, ws *core.Workspace) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, core.ExportFileName))

	// Encode into the response directly; an encode failure after the
	// headers are sent can only be logged.
	cw := &countingWriter{w: w}
	if err := s.service.Export(ws, cw); err != nil {
		if cw.n == 0 {
			w.Header().Del("Content-Disposition")
			s.respondError(w, r, err, http.StatusInternalServerError)
			return
		}
		logging.FromContext(r.Context()).Error("export interrupted", "workspace", ws.ID, "error", err)
	}
}

// handleDelete discards the workspace.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, ws *core.Workspace) {
	if err := s.service.DeleteWorkspace(ws.ID); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: s.cfg.Session.CookieName, Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// StatusResponse reports server load.
type StatusResponse struct {
	Workspaces int                      `json:"workspaces"`
	Uploads    core.UploadLimiterStatus `json:"uploads"`
}

// handleStatus reports upload-limiter and session counts.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Workspaces: s.service.WorkspaceCount(),
		Uploads:    s.service.UploadLimiterStatus(),
	})
}

// formFile extracts the multipart "file" field. A missing field or a
// non-multipart body is ErrNoFile.
func (s *Server) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, nil, core.ErrFileTooLarge
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, io.EOF):
			return nil, nil, core.ErrNoFile
		default:
			return nil, nil, fmt.Errorf("read upload: %w", err)
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, core.ErrNoFile
	}
	return file, header, nil
}

// discardWorkspace drops a workspace the client will never see.
func (s *Server) discardWorkspace(r *http.Request, id string) {
	if err := s.service.DeleteWorkspace(id); err != nil {
		logging.FromContext(r.Context()).Warn("discard workspace", "workspace", id, "error", err)
	}
}

// respondWorkspace answers a mutation: JSON clients get the view, browsers
// are redirected to the workspace page.
func (s *Server) respondWorkspace(w http.ResponseWriter, r *http.Request, ws *core.Workspace, status int) {
	if wantsJSON(r) {
		writeJSON(w, status, newViewResponse(ws))
		return
	}
	http.Redirect(w, r, string(templates.WorkspaceURL(ws.ID, "")), http.StatusSeeOther)
}

// render writes an HTML component with the given status.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render failed", "path", r.URL.Path, "error", err)
	}
}

// countingWriter records how many bytes reached the client.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
