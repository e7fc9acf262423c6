package cli

import (
	"fmt"

	"github.com/JonMunkholm/sheetview/internal/core"

	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var (
		opts viewOptions
		out  string
	)

	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Write the filtered and sorted rows to a new workbook",
		Long:  "Export writes every row that matches the search, in sort order, to one sheet named Sheet1. Pagination does not apply.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.loadWorkspace(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			opts.apply(ws)

			if err := app.writeExportFile(ws, out); err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", ws.View().Matched, out)
			return nil
		},
	}
	opts.bind(cmd, false)
	cmd.Flags().StringVarP(&out, "output", "o", core.ExportFileName, "Output file")
	return cmd
}
