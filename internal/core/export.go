package core

import (
	"unicode/utf8"

	"github.com/JonMunkholm/sheetview/internal/codec"
)

const (
	// ExportFileName is the fixed download name of an export.
	ExportFileName = "export.xlsx"

	// ExportSheetName is the name of the single exported sheet.
	ExportSheetName = codec.DefaultSheetName

	// exportWidthPadding is added to the widest value of each column.
	exportWidthPadding = 2
)

// BuildExport lays rows out as a sheet: a header of column names in
// first-seen order, one record per row, and a width per column of the
// longest name or value plus padding. No rows gives an empty sheet with no
// header.
func BuildExport(rows []Row) *codec.Sheet {
	sheet := &codec.Sheet{Name: ExportSheetName}
	if len(rows) == 0 {
		return sheet
	}

	header := exportColumns(rows)
	widths := make([]float64, len(header))
	for i, col := range header {
		widths[i] = float64(utf8.RuneCountInString(col))
	}

	records := make([][]string, len(rows))
	for r, row := range rows {
		rec := make([]string, len(header))
		for i, col := range header {
			v := row.Value(col)
			rec[i] = v
			if n := float64(utf8.RuneCountInString(v)); n > widths[i] {
				widths[i] = n
			}
		}
		records[r] = rec
	}

	for i := range widths {
		widths[i] += exportWidthPadding
	}

	sheet.Header = header
	sheet.Rows = records
	sheet.Widths = widths
	return sheet
}

// exportColumns returns every column name across rows in first-seen order.
func exportColumns(rows []Row) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, row := range rows {
		for _, c := range row.cells {
			if !seen[c.Column] {
				seen[c.Column] = true
				cols = append(cols, c.Column)
			}
		}
	}
	return cols
}
