package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"aisdlc/internal/lifecycle"
)

// statusView is the machine-readable form of status.
type statusView struct {
	Active    bool       `json:"active" yaml:"active"`
	Slug      string     `json:"slug,omitempty" yaml:"slug,omitempty"`
	Current   string     `json:"current_step,omitempty" yaml:"current_step,omitempty"`
	Position  int        `json:"position,omitempty" yaml:"position,omitempty"`
	Total     int        `json:"total" yaml:"total"`
	CreatedAt *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	Steps     []stepView `json:"steps,omitempty" yaml:"steps,omitempty"`
}

type stepView struct {
	ID       string `json:"id" yaml:"id"`
	Complete bool   `json:"complete" yaml:"complete"`
}

func newStatusView(st lifecycle.Status) statusView {
	v := statusView{
		Active:   st.Active,
		Slug:     st.Slug,
		Current:  st.Current.ID,
		Position: st.Position,
		Total:    st.Total,
	}
	if !st.CreatedAt.IsZero() {
		created := st.CreatedAt.UTC()
		v.CreatedAt = &created
	}
	for _, s := range st.Steps {
		v.Steps = append(v.Steps, stepView{ID: s.Step.ID, Complete: s.Complete})
	}
	return v
}

func newStatusCommand(app *App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the active workstream and its progress",
		Long: `Show the active workstream, its current step and a progress bar.
A missing or damaged lock file is reported as "no active workstream".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "text", "json", "yaml":
			default:
				return app.fail(fmt.Errorf("unknown format %q (want text, json or yaml)", format))
			}

			if err := app.load(); err != nil {
				return err
			}
			st := app.Executor.Status()

			switch format {
			case "json":
				enc := json.NewEncoder(app.Printer.Writer())
				enc.SetIndent("", "  ")
				if err := enc.Encode(newStatusView(st)); err != nil {
					return app.fail(err)
				}
			case "yaml":
				enc := yaml.NewEncoder(app.Printer.Writer())
				enc.SetIndent(2)
				if err := enc.Encode(newStatusView(st)); err != nil {
					return app.fail(err)
				}
				if err := enc.Close(); err != nil {
					return app.fail(err)
				}
			default:
				printStatus(app, st)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or yaml")
	return cmd
}

func printStatus(app *App, st lifecycle.Status) {
	p := app.Printer
	p.Header("Active workstreams")

	if !st.Active {
		p.Plain("none – create one with `aisdlc new`")
		return
	}

	p.Table(
		[]string{"SLUG", "STEP", "PROGRESS"},
		[][]string{{st.Slug, st.Current.ID, fmt.Sprintf("%d/%d", st.Position, st.Total)}},
	)
	app.statusBar()

	for _, s := range st.Steps {
		if !s.Complete && s.Step.Index <= st.Current.Index {
			p.Warning("%s has no document yet", s.Step.ID)
		}
	}
	if len(st.Remaining) > 0 {
		p.Detail("next: %s", st.Remaining[0].Step.ID)
	} else {
		p.Detail("all steps generated; run `aisdlc done` to archive")
	}
}
