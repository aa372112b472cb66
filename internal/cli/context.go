package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"aisdlc/internal/libdetect"
)

func newContextCommand(app *App) *cobra.Command {
	var libraries []string

	cmd := &cobra.Command{
		Use:   "context",
		Short: "Show libraries detected in the active workstream",
		Long: `Scan the active workstream's documents for library and framework mentions
and list them, along with libraries commonly needed by the next step.

Example:
  aisdlc context
  aisdlc context --libraries react,fastapi,postgresql`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, lib := range libraries {
				if !libdetect.ValidName(lib) {
					return app.fail(fmt.Errorf("invalid library name %q: use letters, digits, '-' or '_' (max 50)", lib))
				}
			}

			if err := app.load(); err != nil {
				return err
			}

			current, detected, err := app.Executor.Libraries()
			if err != nil {
				return app.fail(err)
			}
			if len(libraries) > 0 {
				detected = libraries
			}

			p := app.Printer
			p.Header(fmt.Sprintf("Library detection for %s", current.ID))
			if len(detected) == 0 {
				p.Plain("No libraries detected in the current documents.")
				p.Detail("Name them explicitly: aisdlc context --libraries react,fastapi")
			} else {
				for _, lib := range detected {
					p.Detail("• %s", lib)
				}
			}

			if next, err := app.Executor.Router().Next(current.ID); err == nil {
				if extra := libdetect.Missing(libdetect.ForStep(next.ID), detected); len(extra) > 0 {
					p.Plain("")
					p.Info("Often relevant for %s: %s", next.ID, strings.Join(extra, ", "))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&libraries, "libraries", nil, "comma-separated libraries to use instead of detection")
	return cmd
}
