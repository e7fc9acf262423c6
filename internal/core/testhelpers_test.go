package core

import (
	"fmt"
	"time"

	"github.com/JonMunkholm/sheetview/internal/config"
)

// makeRows builds rows from a header and records without ids.
func makeRows(header []string, records ...[]string) []Row {
	rows := make([]Row, len(records))
	for i, rec := range records {
		rows[i] = NewRow(header, rec)
	}
	return rows
}

// peopleHeader and peopleRows are a 25-row, 3-column fixture. Four rows
// mention "smith" in some casing, one of them only in the City column.
var peopleHeader = []string{"Name", "City", "Score"}

func peopleRows() []Row {
	records := make([][]string, 25)
	for i := range records {
		n := i + 1
		records[i] = []string{fmt.Sprintf("Person %02d", 26-n), "Oslo", fmt.Sprint(n * 3)}
	}
	records[2][0] = "John Smith"
	records[7][0] = "ANNA SMITH"
	records[14][0] = "smithers"
	records[19][1] = "Smithfield"
	return makeRows(peopleHeader, records...)
}

func values(rows []Row, column string) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Value(column)
	}
	return out
}

func ids(rows []Row) []RowID {
	out := make([]RowID, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func testConfig() *config.Config {
	return &config.Config{
		Upload: config.UploadConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   50 * time.Millisecond,
			Timeout:       5 * time.Second,
		},
		Session: config.SessionConfig{
			MaxWorkspaces: 3,
			IdleTimeout:   time.Minute,
			SweepInterval: time.Second,
			CookieName:    "ws",
		},
	}
}
