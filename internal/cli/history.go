package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newHistoryCommand(app *App) *cobra.Command {
	var limit int
	var slug string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded workstream transitions",
		Long: `List the transitions recorded by new, next and done, newest first.
History is kept in a SQLite file configured by [history] in .aisdlc.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.load(); err != nil {
				return err
			}
			if app.Journal == nil {
				app.Printer.Info("History is disabled.")
				return nil
			}

			entries, err := app.Journal.List(cmd.Context(), slug, limit)
			if err != nil {
				return app.fail(err)
			}
			if len(entries) == 0 {
				app.Printer.Plain("No history recorded yet.")
				return nil
			}

			rows := make([][]string, len(entries))
			for i, e := range entries {
				step := e.ToStep
				if e.FromStep != "" && e.ToStep != "" {
					step = fmt.Sprintf("%s → %s", e.FromStep, e.ToStep)
				} else if step == "" {
					step = e.FromStep
				}
				tokens := ""
				if e.PromptTokens > 0 {
					tokens = strconv.Itoa(e.PromptTokens)
				}
				rows[i] = []string{
					e.CreatedAt.Local().Format("2006-01-02 15:04"),
					e.Slug,
					e.Action,
					step,
					e.Mode,
					tokens,
				}
			}
			app.Printer.Table([]string{"WHEN", "SLUG", "ACTION", "STEP", "MODE", "TOKENS"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries to show (0 for all)")
	cmd.Flags().StringVar(&slug, "slug", "", "only show this workstream")
	return cmd
}
