package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/sheetview/internal/core"

	"github.com/spf13/cobra"
)

// viewOptions are the search/sort/page flags shared by view, export and edit.
type viewOptions struct {
	search string
	sortBy string
	desc   bool
	page   int
}

func (o *viewOptions) bind(cmd *cobra.Command, withPage bool) {
	cmd.Flags().StringVar(&o.search, "search", "", "Keep rows where any cell contains this text (case-insensitive)")
	cmd.Flags().StringVar(&o.sortBy, "sort-by", "", "Column to sort by")
	cmd.Flags().BoolVar(&o.desc, "desc", false, "Sort descending")
	if withPage {
		cmd.Flags().IntVar(&o.page, "page", 1, "Page to show (clamped to the available pages)")
	}
}

// apply replays the options onto ws in pipeline order.
func (o viewOptions) apply(ws *core.Workspace) {
	if o.search != "" {
		ws.SetSearch(o.search)
	}
	if o.sortBy != "" {
		dir := core.SortAscending
		if o.desc {
			dir = core.SortDescending
		}
		ws.SetSort(o.sortBy, dir)
	}
	if o.page > 1 {
		ws.GoToPage(o.page)
	}
}

// loadWorkspace reads path and loads it into a fresh workspace.
func (app *App) loadWorkspace(path string) (*core.Workspace, error) {
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	name := filepath.Base(path)
	rows, err := core.Ingest(app.codec, name, data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	ws := core.NewWorkspace(name)
	ws.Load(name, rows)

	app.logger.Debug("file loaded",
		"file", name,
		"rows", len(rows),
		"bytes", len(data),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return ws, nil
}

// writeExportFile writes the export of ws to path.
func (app *App) writeExportFile(ws *core.Workspace, path string) error {
	if err := core.WriteExportFile(app.codec, ws, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	app.logger.Info("export written", "path", path)
	return nil
}
