package cli

import (
	"github.com/spf13/cobra"
)

func newDoneCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "done",
		Short: "Archive the active workstream",
		Long: `Move the active workstream from the active directory to the done directory
and clear the lock. Every configured step must have its document; otherwise
the missing steps are listed and nothing is moved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.load(); err != nil {
				return err
			}

			res, err := app.Executor.Done(cmd.Context())
			if err != nil {
				return app.fail(err)
			}

			app.Printer.Success("Archived %s to %s", res.Slug, relTo(app.Root, res.ArchivedTo))
			return nil
		},
	}
}
