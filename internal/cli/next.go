package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"aisdlc/internal/lifecycle"
	"aisdlc/internal/workflow"
)

func newNextCommand(app *App) *cobra.Command {
	var manual bool

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Generate the next step of the active workstream",
		Long: `Merge the current step's document into the next step's prompt template and
generate the next document with the configured agent (or provider API).

With --manual, or when generation is unavailable, the merged prompt is saved
as _prompt-<step>.md inside the workstream. Run it with your AI tool, save
the answer as the next step's file, then run "aisdlc next" again to advance.

Note: running aisdlc commands concurrently against the same project is not
supported; the lock file does not guard against it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.load(); err != nil {
				return err
			}

			res, err := app.Executor.Next(cmd.Context(), lifecycle.NextOptions{Manual: manual})
			if err != nil {
				return app.fail(err)
			}

			reportNext(app, res)
			return nil
		},
	}

	cmd.Flags().BoolVar(&manual, "manual", false, "write the merged prompt to a file instead of calling the agent")
	return cmd
}

func reportNext(app *App, res *lifecycle.NextResult) {
	p := app.Printer

	if res.Description != "" {
		p.Detail("%s: %s", res.To.ID, res.Description)
	}
	if res.PromptTokens > 0 {
		p.Debug("prompt is ~%d tokens", res.PromptTokens)
	}
	if len(res.Libraries) > 0 {
		p.Detail("libraries mentioned so far: %s", strings.Join(res.Libraries, ", "))
	}

	if !res.Advanced {
		if res.Outcome.FallbackReason != "" {
			p.Warning("Direct API generation failed; falling back to manual mode")
			p.Detail("%s", res.Outcome.FallbackReason)
		}
		p.Info("Prompt written to %s", relTo(app.Root, res.Outcome.PromptFile))
		p.Detail("Run it with your AI tool, save the result as %s,", relTo(app.Root, res.OutputFile))
		p.Detail("then run `aisdlc next` again to advance.")
		return
	}

	switch res.Outcome.Mode {
	case workflow.ModeManual:
		p.Success("Found %s, advanced to %s", relTo(app.Root, res.OutputFile), res.To.ID)
	default:
		p.Success("Wrote %s", relTo(app.Root, res.OutputFile))
	}
	if app.Executor.Router().IsLast(res.To.ID) {
		p.Detail("That was the last step. Run `aisdlc done` to archive the workstream.")
	}
	app.statusBar()
}
