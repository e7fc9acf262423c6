// Package tui is the terminal front end: a bubbletea program over one
// workspace. It drives the same workspace operations as the web pages, so
// searching, sorting, paging, editing and export behave identically.
package tui

import (
	"fmt"

	"github.com/JonMunkholm/sheetview/internal/codec"
	"github.com/JonMunkholm/sheetview/internal/core"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeEdit
)

// exportedMsg reports the result of an export started with the export key.
type exportedMsg struct {
	path string
	rows int
	err  error
}

type Model struct {
	ws         *core.Workspace
	codec      codec.Codec
	exportPath string

	view      core.View
	cursorRow int // position on the page
	cursorCol int // index into view.Columns
	colOffset int

	mode   mode
	search textinput.Model
	editor textinput.Model
	status string

	keys   keyMap
	help   help.Model
	width  int
	height int
}

// New returns a model browsing ws. Exports are encoded with c.
func New(ws *core.Workspace, c codec.Codec) Model {
	search := textinput.New()
	search.Prompt = "Search: "
	search.Placeholder = "type to filter rows"
	search.SetValue(ws.State().Search)

	editor := textinput.New()

	m := Model{
		ws:         ws,
		codec:      c,
		exportPath: core.ExportFileName,
		search:     search,
		editor:     editor,
		keys:       defaultKeyMap(),
		help:       help.New(),
	}
	m.refresh()
	return m
}

// Run starts the program on the alternate screen and blocks until quit.
func Run(ws *core.Workspace, c codec.Codec) error {
	_, err := tea.NewProgram(New(ws, c), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.scrollToCursor()
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.status = core.FormatUserError(msg.err)
		} else {
			m.status = fmt.Sprintf("Exported %d rows to %s", msg.rows, msg.path)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeEdit:
			return m.updateEdit(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursorRow > 0 {
			m.cursorRow--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursorRow < len(m.view.Rows)-1 {
			m.cursorRow++
		}
	case key.Matches(msg, m.keys.Left):
		if m.cursorCol > 0 {
			m.cursorCol--
		}
	case key.Matches(msg, m.keys.Right):
		if m.cursorCol < len(m.view.Columns)-1 {
			m.cursorCol++
		}

	case key.Matches(msg, m.keys.Next):
		m.ws.NextPage()
		m.cursorRow = 0
	case key.Matches(msg, m.keys.Prev):
		m.ws.PrevPage()
		m.cursorRow = 0

	case key.Matches(msg, m.keys.Sort):
		if col, ok := m.cursorColumn(); ok {
			m.ws.ToggleSort(col)
		}

	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.status = ""
		cmd := m.search.Focus()
		m.search.CursorEnd()
		return m, cmd

	case key.Matches(msg, m.keys.Edit):
		col, ok := m.cursorColumn()
		if !ok {
			return m, nil
		}
		if err := m.ws.SelectCell(m.cursorRow, col); err != nil {
			m.status = core.FormatUserError(err)
			return m, nil
		}
		m.mode = modeEdit
		m.status = ""
		m.editor.Prompt = col + ": "
		m.editor.SetValue(m.view.Rows[m.cursorRow].Value(col))
		m.editor.CursorEnd()
		return m, m.editor.Focus()

	case key.Matches(msg, m.keys.Export):
		return m, m.export()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	m.refresh()
	return m, nil
}

// updateSearch applies the search term on every keystroke.
func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Commit) || key.Matches(msg, m.keys.Leave) {
		m.mode = modeBrowse
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	before := m.search.Value()
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		m.ws.SetSearch(m.search.Value())
		m.cursorRow = 0
		m.refresh()
	}
	return m, cmd
}

// updateEdit commits on enter and on esc, the terminal's focus loss.
func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Commit) || key.Matches(msg, m.keys.Leave) {
		m.ws.CommitEdit(m.editor.Value())
		m.mode = modeBrowse
		m.editor.Blur()
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) export() tea.Cmd {
	ws, c, path := m.ws, m.codec, m.exportPath
	return func() tea.Msg {
		err := core.WriteExportFile(c, ws, path)
		return exportedMsg{path: path, rows: ws.View().Matched, err: err}
	}
}

// refresh re-derives the view and keeps the cursor on the page.
func (m *Model) refresh() {
	m.view = m.ws.View()
	m.cursorRow = clamp(m.cursorRow, 0, len(m.view.Rows)-1)
	m.cursorCol = clamp(m.cursorCol, 0, len(m.view.Columns)-1)
	m.scrollToCursor()
}

func (m Model) cursorColumn() (string, bool) {
	if m.cursorCol < 0 || m.cursorCol >= len(m.view.Columns) {
		return "", false
	}
	return m.view.Columns[m.cursorCol], true
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}
