package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const (
	// minColumnWidth is the width budgeted per column when deciding how
	// many columns fit the terminal.
	minColumnWidth = 14
	maxCellLength  = 40
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	cursorStyle  = cellStyle.Reverse(true)
	editingStyle = cellStyle.Foreground(lipgloss.Color("214")).Underline(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	borderColor  = lipgloss.Color("238")
)

// visibleColumns returns how many columns fit the terminal width. Before
// the first resize every column is shown.
func (m Model) visibleColumns() int {
	n := len(m.view.Columns)
	if m.width <= 0 {
		return n
	}
	return clamp(m.width/minColumnWidth, 1, n)
}

// scrollToCursor moves the column window so the cursor column is visible.
func (m *Model) scrollToCursor() {
	visible := m.visibleColumns()
	if visible <= 0 {
		m.colOffset = 0
		return
	}
	if m.cursorCol < m.colOffset {
		m.colOffset = m.cursorCol
	}
	if m.cursorCol >= m.colOffset+visible {
		m.colOffset = m.cursorCol - visible + 1
	}
	m.colOffset = clamp(m.colOffset, 0, len(m.view.Columns)-visible)
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.ws.FileName()))
	b.WriteString("\n")

	if m.mode == modeSearch {
		b.WriteString(m.search.View())
	} else if term := m.view.State.Search; term != "" {
		b.WriteString(mutedStyle.Render("Search: " + term))
	} else {
		b.WriteString(mutedStyle.Render("Search: (none, press / to filter)"))
	}
	b.WriteString("\n")

	b.WriteString(m.renderTable())
	b.WriteString("\n")

	fmt.Fprintf(&b, "Page %d of %d  ", m.view.State.Page, m.view.TotalPages)
	b.WriteString(mutedStyle.Render(m.view.Summary()))
	b.WriteString("\n")

	if m.mode == modeEdit {
		b.WriteString(m.editor.View())
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderTable() string {
	if len(m.view.Columns) == 0 {
		return mutedStyle.Render("No data loaded")
	}

	start := m.colOffset
	end := min(start+m.visibleColumns(), len(m.view.Columns))
	columns := m.view.Columns[start:end]

	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col + " " + m.view.State.SortGlyph(col)
	}

	rows := make([][]string, len(m.view.Rows))
	for r, row := range m.view.Rows {
		cells := make([]string, len(columns))
		for c, col := range columns {
			cells[c] = truncate(row.Value(col), maxCellLength)
		}
		rows[r] = cells
	}

	editing := -1
	editCol := ""
	if target, ok := m.ws.Editing(); ok {
		editing = target.DisplayIndex
		editCol = target.Column
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			name := columns[col]
			switch {
			case row == editing && name == editCol:
				return editingStyle
			case row == m.cursorRow && start+col == m.cursorCol:
				return cursorStyle
			}
			return cellStyle
		})
	return t.Render()
}

// truncate shortens s to at most n runes on a single line.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
