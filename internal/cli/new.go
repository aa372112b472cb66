package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newNewCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "new <title...>",
		Short: "Start a workstream from an idea title",
		Long: `Create a workstream directory named after the title's slug, write the
first step's skeleton into it and make it the active workstream.

Example:
  aisdlc new "Add dark mode toggle"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.load(); err != nil {
				return err
			}

			res, err := app.Executor.New(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return app.fail(err)
			}

			app.Printer.Success("Created %s", relTo(app.Root, res.File))
			app.Printer.Detail("Fill it out, then run `aisdlc next`.")
			app.statusBar()
			return nil
		},
	}
}
