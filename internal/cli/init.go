package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"aisdlc/internal/config"
	"aisdlc/internal/lock"
	"aisdlc/internal/project"
	"aisdlc/internal/prompt"
)

func newInitCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Scaffold aisdlc in the current project",
		Long: `Create the .aisdlc manifest, the prompt/doing/done directories, the
default prompt templates and an empty lock file.

Existing files are left untouched, so init is safe to re-run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runInit(app); err != nil {
				return app.fail(err)
			}
			return nil
		},
	}
}

func runInit(app *App) error {
	p := app.Printer
	paths := project.NewPaths(app.Root, nil)

	if _, err := os.Stat(paths.Manifest()); errors.Is(err, os.ErrNotExist) {
		data, err := config.RenderDefault()
		if err != nil {
			return err
		}
		if err := os.WriteFile(paths.Manifest(), data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", paths.Manifest(), err)
		}
		p.Success("Created %s", config.FileName)
	} else if err != nil {
		return fmt.Errorf("failed to check %s: %w", paths.Manifest(), err)
	} else {
		p.Info("%s already exists, keeping it", config.FileName)
	}

	cfg, err := app.Loader.Load(app.Root)
	if err != nil {
		return err
	}
	paths = project.NewPaths(app.Root, cfg)

	for _, dir := range []string{paths.PromptDir(), paths.ActiveDir(), paths.DoneDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	written, err := prompt.WriteDefaults(paths.PromptDir(), cfg.Steps, cfg.PromptFileName)
	if err != nil {
		return err
	}
	for _, path := range written {
		p.Detail("wrote %s", relTo(app.Root, path))
	}

	if _, err := os.Stat(paths.Lock()); errors.Is(err, os.ErrNotExist) {
		if err := lock.NewWriter(paths.Lock()).Clear(); err != nil {
			return fmt.Errorf("failed to write %s: %w", paths.Lock(), err)
		}
	}

	p.Success("Initialized aisdlc in %s", app.Root)
	p.Plain("")
	p.Plain("Next steps:")
	p.Detail("aisdlc new \"Your feature idea\"   create a workstream")
	p.Detail("aisdlc next                      generate the following step")
	p.Detail("aisdlc status                    show progress")
	p.Detail("aisdlc done                      archive a finished workstream")
	return nil
}

func relTo(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return rel
	}
	return path
}
