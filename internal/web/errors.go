package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/sheetview/internal/codec"
	"github.com/JonMunkholm/sheetview/internal/core"
	"github.com/JonMunkholm/sheetview/internal/logging"
	"github.com/JonMunkholm/sheetview/internal/web/templates"
)

// ErrorResponse is the JSON body of every failed API call. Code is stable
// for clients to switch on; Message and Action are meant for people.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

func newErrorResponse(m core.UserMessage) ErrorResponse {
	return ErrorResponse{Error: m.Message, Message: m.Message, Action: m.Action, Code: m.Code}
}

// respondError logs err with the request id and answers with its user
// message, as JSON or as an error page depending on the client.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	m := core.MapError(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger := logging.WithFields(r.Context(), "path", r.URL.Path, "method", r.Method)
	logger.Log(r.Context(), level, "request error", "status", status, "code", m.Code, "error", err)

	if wantsJSON(r) {
		writeJSON(w, status, newErrorResponse(m))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ErrorPage(m.Message, m.Action, m.Code).Render(r.Context(), w); err != nil {
		logger.Error("render error page", "error", err)
	}
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrWorkspaceNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrFileTooLarge),
		errors.Is(err, codec.ErrWorkbookTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrNoFile),
		errors.Is(err, core.ErrCellNotDisplayed):
		return http.StatusBadRequest
	case errors.Is(err, codec.ErrEmptyFile),
		errors.Is(err, codec.ErrUnsupportedFormat),
		errors.Is(err, codec.ErrInvalidSpreadsheet):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrUploadInProgress):
		return http.StatusConflict
	case errors.Is(err, core.ErrTooManyUploads),
		errors.Is(err, core.ErrTooManyWorkspaces):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// wantsJSON is true for /api routes and for clients that send or accept JSON.
func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}
