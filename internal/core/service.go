package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/JonMunkholm/sheetview/internal/codec"
	"github.com/JonMunkholm/sheetview/internal/config"
	"github.com/JonMunkholm/sheetview/internal/logging"
	"github.com/google/uuid"
)

// Service owns the live workspaces of the server and runs ingestion and
// export against a codec.
type Service struct {
	codec         codec.Codec
	uploadLimiter *UploadLimiter
	maxFileSize   int64
	uploadTimeout time.Duration
	maxWorkspaces int

	mu         sync.RWMutex
	workspaces map[string]*Workspace
}

// NewService creates a Service using the upload and session settings of cfg.
func NewService(c codec.Codec, cfg *config.Config) *Service {
	return &Service{
		codec:         c,
		uploadLimiter: NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		maxFileSize:   cfg.Upload.MaxFileSize,
		uploadTimeout: cfg.Upload.Timeout,
		maxWorkspaces: cfg.Session.MaxWorkspaces,
		workspaces:    make(map[string]*Workspace),
	}
}

// CreateWorkspace registers a new empty workspace under a random id.
func (s *Service) CreateWorkspace() (*Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxWorkspaces > 0 && len(s.workspaces) >= s.maxWorkspaces {
		return nil, ErrTooManyWorkspaces
	}

	ws := NewWorkspace(uuid.NewString())
	s.workspaces[ws.ID] = ws
	return ws, nil
}

// Workspace looks up a workspace by id.
func (s *Service) Workspace(id string) (*Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ws, ok := s.workspaces[id]
	if !ok {
		return nil, ErrWorkspaceNotFound
	}
	return ws, nil
}

// DeleteWorkspace discards a workspace and its table.
func (s *Service) DeleteWorkspace(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.workspaces[id]; !ok {
		return ErrWorkspaceNotFound
	}
	delete(s.workspaces, id)
	return nil
}

// WorkspaceCount returns the number of live workspaces.
func (s *Service) WorkspaceCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.workspaces)
}

// Upload reads a spreadsheet from r and replaces the workspace table with
// its rows. The workspace reports StatusLoading while the file is decoded.
// On failure the previous table is kept and the workspace is marked failed
// with the returned error.
func (s *Service) Upload(ctx context.Context, ws *Workspace, fileName string, r io.Reader) (err error) {
	if r == nil {
		return ErrNoFile
	}
	if err := ws.BeginLoad(fileName); err != nil {
		return err
	}

	logger := logging.WithFields(ctx, "workspace", ws.ID, "file", fileName)
	start := time.Now()

	defer func() {
		if err != nil {
			ws.FailLoad(err)
			logger.Warn("upload failed", "error", err)
		}
	}()

	if err := s.uploadLimiter.Acquire(ctx); err != nil {
		return fmt.Errorf("acquire upload slot: %w", err)
	}
	defer s.uploadLimiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()

	data, err := io.ReadAll(io.LimitReader(r, s.maxFileSize+1))
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxFileSize {
		return fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.maxFileSize)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rows, err := Ingest(s.codec, fileName, data)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ws.Load(fileName, rows)
	logger.Info("upload completed",
		"rows", len(rows),
		"bytes", len(data),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Ingest decodes data and converts the first sheet into rows. A panic in
// the decoder is returned as an error.
func Ingest(c codec.Codec, fileName string, data []byte) (rows []Row, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic while decoding spreadsheet", "file", fileName, "panic", r)
			rows = nil
			err = fmt.Errorf("%w: %v", codec.ErrInvalidSpreadsheet, r)
		}
	}()

	sheet, err := c.Decode(fileName, data)
	if err != nil {
		return nil, err
	}
	return RowsFromSheet(sheet), nil
}

// Export writes the filtered and sorted rows of ws as an xlsx workbook.
func (s *Service) Export(ws *Workspace, w io.Writer) error {
	return WriteExport(s.codec, ws, w)
}

// WriteExport encodes the export of ws with c.
func WriteExport(c codec.Codec, ws *Workspace, w io.Writer) error {
	if err := c.Encode(w, ws.ExportSheet()); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	return nil
}

// WriteExportFile writes the export of ws to path. The workbook is built in
// a temporary file beside path and renamed into place, so a failed export
// leaves neither a truncated file nor a clobbered previous export.
func WriteExportFile(c codec.Codec, ws *Workspace, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*.xlsx")
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if err := WriteExport(c, ws, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("export failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	return nil
}

// UploadLimiterStatus returns the current state of the upload limiter.
func (s *Service) UploadLimiterStatus() UploadLimiterStatus {
	return s.uploadLimiter.Status()
}

// WaitForUploads blocks until in-flight uploads finish or ctx is done.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.uploadLimiter.WaitForDrain(ctx)
}

// SweepIdle removes workspaces not used since before now-maxIdle and
// returns how many were removed. Workspaces that are still loading are kept.
func (s *Service) SweepIdle(now time.Time, maxIdle time.Duration) int {
	cutoff := now.Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, ws := range s.workspaces {
		if status, _ := ws.Status(); status == StatusLoading {
			continue
		}
		if ws.IdleSince().Before(cutoff) {
			delete(s.workspaces, id)
			removed++
		}
	}
	return removed
}

// IsNotFound reports whether err means the workspace does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWorkspaceNotFound)
}
