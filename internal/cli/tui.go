package cli

import (
	"github.com/JonMunkholm/sheetview/internal/tui"

	"github.com/spf13/cobra"
)

func newTUICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui FILE",
		Short: "Browse and edit a spreadsheet interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.loadWorkspace(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return tui.Run(ws, app.codec)
		},
	}
}
