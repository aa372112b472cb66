package cli

import (
	"errors"
	"strings"

	"aisdlc/internal/claude"
	"aisdlc/internal/config"
	"aisdlc/internal/lifecycle"
	"aisdlc/internal/prompt"
	"aisdlc/internal/router"
	"aisdlc/internal/slug"
	"aisdlc/internal/workstream"
)

// fail prints err with remediation hints and returns the exit error for it.
func (a *App) fail(err error) error {
	p := a.Printer

	var procErr *claude.ProcessError
	var incomplete *workstream.IncompleteError

	switch {
	case errors.As(err, &procErr):
		p.Error("Agent exited with status %d", procErr.ExitCode)
		if out := strings.TrimSpace(procErr.Stdout); out != "" {
			p.Block("stdout", out)
		}
		if errOut := strings.TrimSpace(procErr.Stderr); errOut != "" {
			p.Block("stderr", errOut)
		}
		p.Detail("Fix the problem and re-run `aisdlc next`.")
		return NewExitError(1)

	case errors.As(err, &incomplete):
		p.Error("Cannot archive %s: some steps are missing", incomplete.Slug)
		for _, step := range incomplete.Missing {
			p.Detail("missing %s", workstream.StepFileName(step, incomplete.Slug))
		}
		return NewExitError(1)
	}

	p.Error("%v", err)
	if hint := hintFor(err); hint != "" {
		p.Detail("%s", hint)
	}
	return NewExitError(1)
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, config.ErrManifestMissing):
		return "Run `aisdlc init` to create it."
	case errors.Is(err, config.ErrManifestCorrupt), errors.Is(err, config.ErrManifestInvalid):
		return "Fix .aisdlc by hand, or move it aside and run `aisdlc init` again."
	case errors.Is(err, lifecycle.ErrNoActiveWorkstream):
		return "Start one with `aisdlc new \"<title>\"`."
	case errors.Is(err, lifecycle.ErrActiveWorkstream):
		return "Finish it and run `aisdlc done` before starting another."
	case errors.Is(err, lifecycle.ErrPreviousStepMissing):
		return "Restore the file (for example from version control) and re-run `aisdlc next`."
	case errors.Is(err, prompt.ErrTemplateMissing):
		return "Restore the template from version control; it is not regenerated automatically."
	case errors.Is(err, router.ErrFinalStep):
		return "All steps are complete. Run `aisdlc done` to archive the workstream."
	case errors.Is(err, router.ErrUnknownStep):
		return "The lock names a step that is not in .aisdlc; fix the lock or the step list."
	case errors.Is(err, claude.ErrTimeout):
		return "Raise agent.timeout_seconds (or AISDLC_AGENT_TIMEOUT) and re-run `aisdlc next`."
	case errors.Is(err, workstream.ErrExists):
		return "Pick a different title or remove the existing directory."
	case errors.Is(err, slug.ErrInvalidTitle):
		return "Titles must be between 3 and 200 characters."
	}
	return ""
}
