package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/sheetview/internal/codec"
)

const peopleCSV = "Name,City,Score\nJohn Smith,Oslo,3\nAnna,Bergen,10\nBob,Oslo,2\n"

func newTestService() *Service {
	return NewService(codec.New(), testConfig())
}

func TestService_WorkspaceLifecycle(t *testing.T) {
	s := newTestService()

	ws, err := s.CreateWorkspace()
	if err != nil {
		t.Fatalf("CreateWorkspace() error = %v", err)
	}
	if ws.ID == "" {
		t.Fatal("workspace id is empty")
	}

	got, err := s.Workspace(ws.ID)
	if err != nil || got != ws {
		t.Fatalf("Workspace(%q) = %v, %v", ws.ID, got, err)
	}

	if err := s.DeleteWorkspace(ws.ID); err != nil {
		t.Fatalf("DeleteWorkspace() error = %v", err)
	}
	if _, err := s.Workspace(ws.ID); !IsNotFound(err) {
		t.Errorf("Workspace() after delete error = %v, want ErrWorkspaceNotFound", err)
	}
	if err := s.DeleteWorkspace(ws.ID); !errors.Is(err, ErrWorkspaceNotFound) {
		t.Errorf("second DeleteWorkspace() error = %v, want ErrWorkspaceNotFound", err)
	}
}

func TestService_WorkspaceLimit(t *testing.T) {
	s := newTestService()
	for i := 0; i < 3; i++ {
		if _, err := s.CreateWorkspace(); err != nil {
			t.Fatalf("CreateWorkspace() #%d error = %v", i, err)
		}
	}
	if _, err := s.CreateWorkspace(); !errors.Is(err, ErrTooManyWorkspaces) {
		t.Errorf("CreateWorkspace() over limit error = %v, want ErrTooManyWorkspaces", err)
	}
	if s.WorkspaceCount() != 3 {
		t.Errorf("WorkspaceCount() = %d, want 3", s.WorkspaceCount())
	}
}

func TestService_Upload(t *testing.T) {
	s := newTestService()
	ws, _ := s.CreateWorkspace()

	if err := s.Upload(context.Background(), ws, "people.csv", strings.NewReader(peopleCSV)); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	v := ws.View()
	if v.Total != 3 {
		t.Errorf("Total = %d, want 3", v.Total)
	}
	if want := []string{"Name", "City", "Score"}; !slices.Equal(v.Columns, want) {
		t.Errorf("Columns = %v, want %v", v.Columns, want)
	}
	if st, _ := ws.Status(); st != StatusReady {
		t.Errorf("Status() = %q, want ready", st)
	}
	if s.UploadLimiterStatus().Active != 0 {
		t.Error("upload slot not released")
	}
}

func TestService_UploadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		reader  io.Reader
		wantErr error
	}{
		{"no file", "", nil, ErrNoFile},
		{"empty file", "a.csv", strings.NewReader(""), codec.ErrEmptyFile},
		{"too large", "a.csv", strings.NewReader(strings.Repeat("x", 1<<20+1)), ErrFileTooLarge},
		{"legacy xls", "a.xls", bytes.NewReader([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}), codec.ErrUnsupportedFormat},
		{"broken xlsx", "a.xlsx", strings.NewReader("PK\x03\x04 truncated"), codec.ErrInvalidSpreadsheet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService()
			ws, _ := s.CreateWorkspace()

			err := s.Upload(context.Background(), ws, tt.file, tt.reader)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Upload() error = %v, want %v", err, tt.wantErr)
			}
			if tt.reader == nil {
				return
			}
			st, loadErr := ws.Status()
			if st != StatusFailed || !errors.Is(loadErr, tt.wantErr) {
				t.Errorf("Status() = %q, %v, want failed with %v", st, loadErr, tt.wantErr)
			}
		})
	}
}

func TestService_FailedUploadIsRecoverable(t *testing.T) {
	s := newTestService()
	ws, _ := s.CreateWorkspace()
	ctx := context.Background()

	s.Upload(ctx, ws, "people.csv", strings.NewReader(peopleCSV))
	if err := s.Upload(ctx, ws, "bad.xlsx", strings.NewReader("PK\x03\x04junk")); err == nil {
		t.Fatal("Upload() of broken file succeeded")
	}
	if got := ws.View().Total; got != 3 {
		t.Errorf("Total = %d after failed upload, want previous 3", got)
	}

	if err := s.Upload(ctx, ws, "people.csv", strings.NewReader(peopleCSV+"Eve,Oslo,1\n")); err != nil {
		t.Fatalf("Upload() after failure error = %v", err)
	}
	st, err := ws.Status()
	if st != StatusReady || err != nil {
		t.Errorf("Status() = %q, %v, want ready", st, err)
	}
	if got := ws.View().Total; got != 4 {
		t.Errorf("Total = %d, want 4", got)
	}
}

func TestService_UploadWhileLoading(t *testing.T) {
	s := newTestService()
	ws, _ := s.CreateWorkspace()
	ws.BeginLoad("slow.csv")

	err := s.Upload(context.Background(), ws, "b.csv", strings.NewReader(peopleCSV))
	if !errors.Is(err, ErrUploadInProgress) {
		t.Errorf("Upload() error = %v, want ErrUploadInProgress", err)
	}
}

func TestService_UploadLimiterFull(t *testing.T) {
	s := newTestService()
	for i := 0; i < 2; i++ {
		s.uploadLimiter.TryAcquire()
	}
	defer s.uploadLimiter.Release()
	defer s.uploadLimiter.Release()

	ws, _ := s.CreateWorkspace()
	err := s.Upload(context.Background(), ws, "a.csv", strings.NewReader(peopleCSV))
	if !errors.Is(err, ErrTooManyUploads) {
		t.Errorf("Upload() error = %v, want ErrTooManyUploads", err)
	}
	if st, _ := ws.Status(); st != StatusFailed {
		t.Errorf("Status() = %q, want failed", st)
	}
}

func TestService_ExportRoundTrip(t *testing.T) {
	s := newTestService()
	ws, _ := s.CreateWorkspace()
	s.Upload(context.Background(), ws, "people.csv", strings.NewReader(peopleCSV))
	ws.SetSearch("o")
	ws.ToggleSort("Score")

	var buf bytes.Buffer
	if err := s.Export(ws, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	sheet, err := codec.New().Decode(ExportFileName, buf.Bytes())
	if err != nil {
		t.Fatalf("Decode(export) error = %v", err)
	}
	if sheet.Name != ExportSheetName {
		t.Errorf("sheet name = %q, want %q", sheet.Name, ExportSheetName)
	}

	want := ws.ExportSheet()
	if !slices.Equal(sheet.Header, want.Header) {
		t.Errorf("Header = %v, want %v", sheet.Header, want.Header)
	}
	// Anna has no "o" in any column.
	if len(sheet.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(sheet.Rows))
	}
	for i := range want.Rows {
		if !slices.Equal(sheet.Rows[i], want.Rows[i]) {
			t.Errorf("row %d = %v, want %v", i, sheet.Rows[i], want.Rows[i])
		}
	}
	if got := []string{sheet.Rows[0][2], sheet.Rows[1][2]}; !slices.Equal(got, []string{"2", "3"}) {
		t.Errorf("scores = %v, want numeric ascending", got)
	}
}

func TestService_SweepIdle(t *testing.T) {
	s := newTestService()
	stale, _ := s.CreateWorkspace()
	fresh, _ := s.CreateWorkspace()
	loading, _ := s.CreateWorkspace()

	old := time.Now().Add(-time.Hour)
	for _, ws := range []*Workspace{stale, loading} {
		ws.mu.Lock()
		ws.touchedAt = old
		ws.mu.Unlock()
	}
	loading.mu.Lock()
	loading.status = StatusLoading
	loading.mu.Unlock()

	if got := s.SweepIdle(time.Now(), 30*time.Minute); got != 1 {
		t.Errorf("SweepIdle() = %d, want 1", got)
	}
	if _, err := s.Workspace(stale.ID); err == nil {
		t.Error("stale workspace survived sweep")
	}
	for _, ws := range []*Workspace{fresh, loading} {
		if _, err := s.Workspace(ws.ID); err != nil {
			t.Errorf("workspace %s removed, want kept", ws.ID)
		}
	}
}

func TestService_SessionSweeperStops(t *testing.T) {
	s := newTestService()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.StartSessionSweeper(ctx, SweepConfig{IdleTimeout: time.Minute, CheckInterval: 5 * time.Millisecond})
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

// brokenEncoder writes half a workbook and fails.
type brokenEncoder struct{ codec.Codec }

func (brokenEncoder) Encode(w io.Writer, _ *codec.Sheet) error {
	w.Write([]byte("PK\x03\x04partial"))
	return errors.New("disk full")
}

func TestWriteExportFile(t *testing.T) {
	ws := NewWorkspace("people")
	ws.Load("people.csv", []Row{NewRow([]string{"Name"}, []string{"Ann"})})

	t.Run("writes workbook", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ExportFileName)
		if err := WriteExportFile(codec.New(), ws, path); err != nil {
			t.Fatalf("WriteExportFile() error = %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		sheet, err := codec.New().Decode(ExportFileName, data)
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if len(sheet.Rows) != 1 || sheet.Rows[0][0] != "Ann" {
			t.Errorf("rows = %v, want [[Ann]]", sheet.Rows)
		}
	})

	t.Run("failure leaves nothing behind", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, ExportFileName)

		err := WriteExportFile(brokenEncoder{}, ws, path)
		if err == nil || !strings.Contains(err.Error(), "export failed") {
			t.Fatalf("WriteExportFile() error = %v, want export failure", err)
		}
		if entries, _ := os.ReadDir(dir); len(entries) != 0 {
			t.Errorf("dir holds %d entries after failed export, want 0", len(entries))
		}
	})

	t.Run("failure keeps previous export", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ExportFileName)
		if err := os.WriteFile(path, []byte("previous"), 0o644); err != nil {
			t.Fatal(err)
		}

		if err := WriteExportFile(brokenEncoder{}, ws, path); err == nil {
			t.Fatal("WriteExportFile() error = nil, want failure")
		}
		if data, _ := os.ReadFile(path); string(data) != "previous" {
			t.Errorf("previous export = %q, want untouched", data)
		}
	})
}
