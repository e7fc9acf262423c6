package cli

import (
	"fmt"

	"github.com/JonMunkholm/sheetview/internal/core"

	"github.com/spf13/cobra"
)

func newEditCmd(app *App) *cobra.Command {
	var (
		opts   viewOptions
		row    int
		column string
		value  string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "edit FILE",
		Short: "Change one cell and write the result",
		Long: "Edit selects row --row (1-based, as numbered by `view` with the same flags) on the current page, " +
			"sets --column to --value and writes the export to --output.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.loadWorkspace(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			opts.apply(ws)

			if err := ws.SelectCell(row-1, column); err != nil {
				return writeErr(cmd, err)
			}
			target, _ := ws.Editing()
			ws.CommitEdit(value)
			app.logger.Debug("cell committed", "row_id", target.RowID, "column", column)

			if err := app.writeExportFile(ws, out); err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "set %s on row %d, wrote %s\n", column, row, out)
			return nil
		},
	}
	opts.bind(cmd, true)
	cmd.Flags().IntVar(&row, "row", 0, "Row on the page (1-based)")
	cmd.Flags().StringVar(&column, "column", "", "Column to change")
	cmd.Flags().StringVar(&value, "value", "", "New cell value")
	cmd.Flags().StringVarP(&out, "output", "o", core.ExportFileName, "Output file")
	_ = cmd.MarkFlagRequired("row")
	_ = cmd.MarkFlagRequired("column")
	return cmd
}
