package core

import (
	"errors"
	"testing"
	"time"
)

func TestWorkspace_LoadResetsPageAndEditKeepsSearchSort(t *testing.T) {
	ws := loadedWorkspace(peopleRows())
	ws.SetSort("Name", SortDescending)
	ws.SetSearch("person")
	ws.NextPage()
	ws.SelectCell(0, "Name")

	ws.Load("again.csv", peopleRows())

	s := ws.State()
	if s.Page != 1 {
		t.Errorf("Page = %d, want 1", s.Page)
	}
	if s.Search != "person" || s.SortKey != "Name" || s.SortDir != SortDescending {
		t.Errorf("State = %+v, want search and sort kept", s)
	}
	if _, ok := ws.Editing(); ok {
		t.Error("edit target survived reload")
	}
	if ws.FileName() != "again.csv" {
		t.Errorf("FileName() = %q, want again.csv", ws.FileName())
	}
}

func TestWorkspace_StatusLifecycle(t *testing.T) {
	ws := NewWorkspace("w")
	if st, _ := ws.Status(); st != StatusEmpty {
		t.Fatalf("Status() = %q, want %q", st, StatusEmpty)
	}

	if err := ws.BeginLoad("a.csv"); err != nil {
		t.Fatalf("BeginLoad() error = %v", err)
	}
	if err := ws.BeginLoad("b.csv"); !errors.Is(err, ErrUploadInProgress) {
		t.Errorf("second BeginLoad() error = %v, want ErrUploadInProgress", err)
	}

	failure := errors.New("boom")
	ws.FailLoad(failure)
	st, err := ws.Status()
	if st != StatusFailed || !errors.Is(err, failure) {
		t.Errorf("Status() = %q, %v, want failed, boom", st, err)
	}

	if err := ws.BeginLoad("c.csv"); err != nil {
		t.Fatalf("BeginLoad() after failure error = %v", err)
	}
	ws.Load("c.csv", peopleRows())
	st, err = ws.Status()
	if st != StatusReady || err != nil {
		t.Errorf("Status() = %q, %v, want ready, nil", st, err)
	}
}

func TestWorkspace_FailLoadKeepsTable(t *testing.T) {
	ws := loadedWorkspace(peopleRows())
	ws.BeginLoad("broken.xlsx")
	ws.FailLoad(errors.New("bad zip"))

	if got := ws.View().Total; got != 25 {
		t.Errorf("Total = %d after failed load, want 25", got)
	}
}

func TestWorkspace_PageNavigation(t *testing.T) {
	ws := loadedWorkspace(peopleRows())

	ws.NextPage()
	ws.NextPage()
	ws.NextPage()
	if got := ws.State().Page; got != 3 {
		t.Errorf("Page = %d after paging past the end, want 3", got)
	}

	ws.GoToPage(2)
	ws.PrevPage()
	ws.PrevPage()
	if got := ws.State().Page; got != 1 {
		t.Errorf("Page = %d after paging before the start, want 1", got)
	}

	ws.SetSearch("nothing matches this")
	ws.NextPage()
	v := ws.View()
	if v.State.Page != 1 || v.TotalPages != 0 || len(v.Rows) != 0 {
		t.Errorf("View = page %d of %d with %d rows, want page 1 of 0 with none",
			v.State.Page, v.TotalPages, len(v.Rows))
	}
}

func TestWorkspace_CacheInvalidatedByEdit(t *testing.T) {
	ws := loadedWorkspace(peopleRows())
	ws.SetSearch("smith")

	if got := ws.View().Matched; got != 4 {
		t.Fatalf("Matched = %d, want 4", got)
	}

	ws.SelectCell(0, "Name")
	ws.CommitEdit("nobody")

	if got := ws.View().Matched; got != 3 {
		t.Errorf("Matched = %d after edit, want 3", got)
	}
}

func TestWorkspace_IdleSince(t *testing.T) {
	ws := NewWorkspace("w")
	before := ws.IdleSince()
	time.Sleep(time.Millisecond)
	ws.View()
	if !ws.IdleSince().After(before) {
		t.Error("IdleSince() not advanced by View()")
	}
}
