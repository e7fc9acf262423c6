// Package cli implements the sheetview command line: one-shot view, export
// and edit commands over a local file, and the interactive terminal UI.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/JonMunkholm/sheetview/internal/codec"
	"github.com/JonMunkholm/sheetview/internal/logging"

	"github.com/spf13/cobra"
)

type App struct {
	LogLevel  string
	LogFormat string

	codec  codec.Codec
	logger *slog.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{codec: codec.New()}

	cmd := &cobra.Command{
		Use:          "sheetview",
		Short:        "View, filter, sort, edit and export spreadsheets",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Print the first page of a workbook
  sheetview view report.xlsx

  # Search and sort, then look at page 2
  sheetview view people.csv --search smith --sort-by Score --desc --page 2

  # Export the filtered rows
  sheetview export people.csv --search oslo -o oslo.xlsx

  # Browse interactively
  sheetview tui report.xlsx
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		app.logger = logging.New(cmd.ErrOrStderr(), app.LogLevel, app.LogFormat)
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("LOG_LEVEL", "warn"), "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&app.LogFormat, "log-format", envOr("LOG_FORMAT", "text"), "Log format (text|json)")

	cmd.AddCommand(newViewCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newTUICmd(app))

	return cmd
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
