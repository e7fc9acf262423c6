package cli

import (
	"github.com/spf13/cobra"
)

func newViewCmd(app *App) *cobra.Command {
	var opts viewOptions

	cmd := &cobra.Command{
		Use:   "view FILE",
		Short: "Print one page of a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.loadWorkspace(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			opts.apply(ws)

			if err := renderView(cmd.OutOrStdout(), ws.View()); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	opts.bind(cmd, true)
	return cmd
}
