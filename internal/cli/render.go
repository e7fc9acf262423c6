package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/sheetview/internal/core"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// renderView writes the page as a bordered table followed by the pager and
// summary lines. Header labels carry the sort glyph. The first column is the
// 1-based row number on the page, which is what edit --row expects.
func renderView(w io.Writer, v core.View) error {
	if len(v.Columns) == 0 {
		_, err := fmt.Fprintln(w, v.Summary())
		return err
	}

	headers := make([]string, 0, len(v.Columns)+1)
	headers = append(headers, "#")
	for _, col := range v.Columns {
		headers = append(headers, col+" "+v.State.SortGlyph(col))
	}

	rows := make([][]string, len(v.Rows))
	for i, row := range v.Rows {
		cells := make([]string, 0, len(v.Columns)+1)
		cells = append(cells, fmt.Sprint(i+1))
		for _, col := range v.Columns {
			cells = append(cells, singleLine(row.Value(col)))
		}
		rows[i] = cells
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	var b strings.Builder
	b.WriteString(t.Render())
	b.WriteString("\n")
	fmt.Fprintf(&b, "Page %d of %d\n", v.State.Page, v.TotalPages)
	b.WriteString(v.Summary())
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// singleLine keeps multi-line cell values on one table row.
func singleLine(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ").Replace(s)
}
