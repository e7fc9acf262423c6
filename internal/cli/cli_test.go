package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/sheetview/internal/codec"
)

// writePeople writes a 25 row csv with Name, City and Score columns.
// Person 25 is first and Person 01 last; Score counts up from 1.
func writePeople(t *testing.T) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("Name,City,Score\n")
	for i := range 25 {
		city := "Oslo"
		if i%5 == 0 {
			city = "Bergen"
		}
		fmt.Fprintf(&b, "Person %02d,%s,%d\n", 25-i, city, i+1)
	}

	path := filepath.Join(t.TempDir(), "people.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func readExport(t *testing.T, path string) *codec.Sheet {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	sheet, err := codec.New().Decode(filepath.Base(path), data)
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}
	return sheet
}

func TestView(t *testing.T) {
	path := writePeople(t)

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name:    "first page",
			args:    []string{"view", path},
			want:    []string{"Name ↕", "Person 25", "Person 16", "Page 1 of 3", "Showing 1-10 of 25 rows"},
			notWant: []string{"Person 15"},
		},
		{
			name:    "search and sort",
			args:    []string{"view", path, "--search", "bergen", "--sort-by", "Score", "--desc"},
			want:    []string{"Score ▼", "Person 05", "Page 1 of 1", "Showing 1-5 of 5 rows (filtered from 25)"},
			notWant: []string{"Oslo"},
		},
		{
			name: "page clamps to last",
			args: []string{"view", path, "--page", "99"},
			want: []string{"Page 3 of 3", "Showing 21-25 of 25 rows", "Person 01"},
		},
		{
			name:    "numeric sort",
			args:    []string{"view", path, "--sort-by", "Score", "--page", "1"},
			want:    []string{"Score ▲", "Showing 1-10 of 25 rows"},
			notWant: []string{"Person 15"},
		},
		{
			name: "no matches",
			args: []string{"view", path, "--search", "nowhere"},
			want: []string{"Page 1 of 0", "No rows to show (25 in file)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, tt.args...)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("output should not contain %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestView_Errors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing file", []string{"view", filepath.Join(dir, "nope.csv")}, "read"},
		{"empty file", []string{"view", empty}, "empty file"},
		{"no argument", []string{"view"}, "accepts 1 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, err := run(t, tt.args...)
			if err == nil {
				t.Fatal("Execute() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err, tt.want)
			}
			if stderr == "" {
				t.Error("nothing written to stderr")
			}
		})
	}
}

func TestExport(t *testing.T) {
	path := writePeople(t)
	out := filepath.Join(t.TempDir(), "bergen.xlsx")

	stdout, _, err := run(t, "export", path, "--search", "bergen", "--sort-by", "Score", "--desc", "-o", out)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(stdout, "wrote 5 rows") {
		t.Errorf("stdout = %q, want row count", stdout)
	}

	sheet := readExport(t, out)
	if sheet.Name != codec.DefaultSheetName {
		t.Errorf("sheet name = %q, want %q", sheet.Name, codec.DefaultSheetName)
	}
	if len(sheet.Rows) != 5 {
		t.Fatalf("exported rows = %d, want 5", len(sheet.Rows))
	}
	var scores []string
	for _, rec := range sheet.Rows {
		scores = append(scores, rec[2])
	}
	if got, want := strings.Join(scores, ","), "21,16,11,6,1"; got != want {
		t.Errorf("scores = %s, want %s", got, want)
	}
}

func TestEdit(t *testing.T) {
	path := writePeople(t)
	out := filepath.Join(t.TempDir(), "edited.xlsx")

	// Row 2 of page 2 sorted by Score is Score 12.
	_, _, err := run(t, "edit", path,
		"--sort-by", "Score", "--page", "2",
		"--row", "2", "--column", "City", "--value", "Tromsø",
		"-o", out)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	sheet := readExport(t, out)
	if len(sheet.Rows) != 25 {
		t.Fatalf("exported rows = %d, want 25", len(sheet.Rows))
	}
	for _, rec := range sheet.Rows {
		want := "Oslo"
		switch rec[2] {
		case "12":
			want = "Tromsø"
		case "1", "6", "11", "16", "21":
			want = "Bergen"
		}
		if rec[1] != want {
			t.Errorf("row with Score %s: City = %q, want %q", rec[2], rec[1], want)
		}
	}
}

func TestEdit_RowNotOnPage(t *testing.T) {
	path := writePeople(t)
	out := filepath.Join(t.TempDir(), "edited.xlsx")

	_, _, err := run(t, "edit", path, "--search", "bergen", "--row", "6", "--column", "City", "--value", "x", "-o", out)
	if err == nil {
		t.Fatal("Execute() error = nil, want error")
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("export written despite failed edit")
	}
}
