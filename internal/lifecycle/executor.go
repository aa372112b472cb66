// Package lifecycle drives a workstream through the configured step sequence.
//
// [Executor] owns the state machine: New starts a workstream at the first
// step, Next advances it one step at a time, Done archives it once every step
// file exists, and Status reports where it stands. The lock file is read at
// the start of each operation and written only after the operation's file
// system effects have succeeded.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"aisdlc/internal/config"
	"aisdlc/internal/fsutil"
	"aisdlc/internal/history"
	"aisdlc/internal/libdetect"
	"aisdlc/internal/lock"
	"aisdlc/internal/prompt"
	"aisdlc/internal/router"
	"aisdlc/internal/slug"
	"aisdlc/internal/workflow"
	"aisdlc/internal/workstream"
)

var (
	// ErrNoActiveWorkstream is returned when the lock is empty.
	ErrNoActiveWorkstream = errors.New("no active workstream")

	// ErrActiveWorkstream is returned by New while another workstream is active.
	ErrActiveWorkstream = errors.New("another workstream is already active")

	// ErrPreviousStepMissing is returned by Next when the current step's file is gone.
	ErrPreviousStepMissing = errors.New("previous step file not found")
)

// LockReader reads the lock record. Implementations never fail.
type LockReader interface {
	Read() lock.Record
}

// LockWriter persists lock changes.
type LockWriter interface {
	Write(rec lock.Record) error
	Clear() error
}

// Generator produces step content. [workflow.Runner] implements it.
type Generator interface {
	Generate(ctx context.Context, job workflow.Job) (workflow.Outcome, error)
}

// Journal records transitions. [history.Journal] implements it.
type Journal interface {
	Record(ctx context.Context, e history.Entry) error
}

// TemplateLocator maps a step to its prompt template path.
type TemplateLocator func(step string) (string, error)

// ProgressCallback is invoked before Next generates a step.
type ProgressCallback func(position, total int, from, to string)

// WarnFunc receives non-fatal problems.
type WarnFunc func(msg string)

// NextOptions modifies a Next call.
type NextOptions struct {
	// Manual writes the merged prompt to a file instead of generating.
	Manual bool
}

// NewResult describes a freshly created workstream.
type NewResult struct {
	Slug      string
	Step      router.Step
	File      string
	CreatedAt time.Time
}

// NextResult describes the outcome of Next.
type NextResult struct {
	Slug string
	From router.Step
	To   router.Step

	// Advanced is false when the prompt was written for manual completion
	// and the lock still points at From.
	Advanced bool

	// Description comes from the template's front matter.
	Description string

	Outcome      workflow.Outcome
	OutputFile   string
	PromptTokens int
	Libraries    []string
}

// DoneResult describes an archived workstream.
type DoneResult struct {
	Slug       string
	ArchivedTo string
}

// StepState is one step's presence in the active workstream.
type StepState struct {
	Step     router.Step
	Complete bool
	Current  bool
}

// Status is a read-only snapshot of the active workstream.
type Status struct {
	Active    bool
	Slug      string
	Current   router.Step
	Position  int
	Total     int
	Remaining []router.LifecycleStep
	CreatedAt time.Time
	Steps     []StepState
}

// Executor orchestrates the workstream lifecycle.
//
// Dependencies are injected so tests can substitute the lock, generator and
// journal. Use [NewExecutor] and the Set methods for optional collaborators.
type Executor struct {
	config      *config.Config
	router      *router.Router
	workstreams *workstream.Manager
	templates   TemplateLocator
	lockReader  LockReader
	lockWriter  LockWriter
	generator   Generator
	journal     Journal
	progress    ProgressCallback
	warn        WarnFunc
	now         func() time.Time
}

// NewExecutor creates an Executor for cfg.
func NewExecutor(cfg *config.Config, workstreams *workstream.Manager, templates TemplateLocator, reader LockReader, writer LockWriter) *Executor {
	return &Executor{
		config:      cfg,
		router:      router.NewRouter(cfg.Steps),
		workstreams: workstreams,
		templates:   templates,
		lockReader:  reader,
		lockWriter:  writer,
		now:         time.Now,
	}
}

// SetGenerator configures how Next produces content.
func (e *Executor) SetGenerator(g Generator) {
	e.generator = g
}

// SetJournal enables transition history. A nil journal disables it.
func (e *Executor) SetJournal(j Journal) {
	e.journal = j
}

// SetProgressCallback configures a callback invoked before generation.
func (e *Executor) SetProgressCallback(cb ProgressCallback) {
	e.progress = cb
}

// SetWarn configures where non-fatal problems are reported.
func (e *Executor) SetWarn(fn WarnFunc) {
	e.warn = fn
}

// Router returns the step router built from the configuration.
func (e *Executor) Router() *router.Router {
	return e.router
}

// New creates a workstream for title and points the lock at its first step.
func (e *Executor) New(ctx context.Context, title string) (*NewResult, error) {
	if rec := e.lockReader.Read(); !rec.IsEmpty() {
		return nil, fmt.Errorf("%w: %s (archive it with done first)", ErrActiveWorkstream, rec.Slug)
	}

	s, err := slug.New(title)
	if err != nil {
		return nil, err
	}

	first := e.router.Steps()[0]
	title = strings.TrimSpace(title)
	path, err := e.workstreams.Create(s, first.ID, title)
	if err != nil {
		return nil, err
	}

	created := e.now().UTC()
	if err := e.lockWriter.Write(lock.Record{Slug: s, CurrentStep: first.ID, CreatedAt: created}); err != nil {
		return nil, fmt.Errorf("created %s but failed to write lock: %w", path, err)
	}

	e.record(ctx, history.Entry{Slug: s, Action: history.ActionNew, ToStep: first.ID})

	return &NewResult{Slug: s, Step: first, File: path, CreatedAt: created}, nil
}

// Next advances the active workstream by one step.
//
// The current step's file and the next step's template must exist. Agent
// failures leave the lock and the output file untouched. With manual
// generation, or after a direct-API fallback, the merged prompt is written
// next to the step files and the lock only advances once the user has
// produced the next step's file. A hand-written file is never regenerated.
func (e *Executor) Next(ctx context.Context, opts NextOptions) (*NextResult, error) {
	rec := e.lockReader.Read()
	if rec.IsEmpty() {
		return nil, ErrNoActiveWorkstream
	}

	from, err := e.router.Lookup(rec.CurrentStep)
	if err != nil {
		return nil, fmt.Errorf("invalid lock: %w", err)
	}
	to, err := e.router.Next(from.ID)
	if err != nil {
		return nil, err
	}

	result := &NextResult{
		Slug:       rec.Slug,
		From:       from,
		To:         to,
		OutputFile: e.workstreams.StepFile(rec.Slug, to.ID),
	}

	prevPath := e.workstreams.StepFile(rec.Slug, from.ID)
	previous, err := os.ReadFile(prevPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrPreviousStepMissing, prevPath)
		}
		return nil, fmt.Errorf("failed to read %s: %w", prevPath, err)
	}

	manual := opts.Manual || e.config.Agent.Mode == config.AgentModeManual
	promptPath := e.workstreams.PromptFile(rec.Slug, to.ID)

	pending := fileExists(promptPath)
	if (manual || pending) && fileExists(result.OutputFile) {
		if err := e.advance(rec, to); err != nil {
			return nil, err
		}
		if err := os.Remove(promptPath); err != nil && !os.IsNotExist(err) {
			e.warnf("could not remove %s: %v", promptPath, err)
		}
		result.Advanced = true
		result.Outcome = workflow.Outcome{Mode: workflow.ModeManual}
		e.record(ctx, history.Entry{Slug: rec.Slug, Action: history.ActionNext, FromStep: from.ID, ToStep: to.ID, Mode: string(workflow.ModeManual)})
		return result, nil
	}

	templatePath, err := e.templates(to.ID)
	if err != nil {
		return nil, err
	}
	tmpl, err := prompt.Load(templatePath)
	if err != nil {
		return nil, err
	}
	if !tmpl.HasPlaceholder() {
		e.warnf("template %s has no %s placeholder; the previous step will not be included", templatePath, prompt.Placeholder)
	}

	result.Description = tmpl.Meta.Description
	merged := tmpl.Merge(string(previous))
	result.PromptTokens = prompt.CountTokens(merged)
	if e.config.Context.Enabled {
		result.Libraries = libdetect.Detect(e.collectText(rec.Slug, from))
	}

	if e.progress != nil {
		e.progress(to.Index+1, e.router.Len(), from.ID, to.ID)
	}

	if e.generator == nil {
		return nil, errors.New("no generator configured")
	}
	outcome, err := e.generator.Generate(ctx, workflow.Job{
		Slug:       rec.Slug,
		FromStep:   from.ID,
		Step:       to.ID,
		Prompt:     merged,
		Model:      tmpl.Meta.Model,
		PromptFile: promptPath,
		Manual:     manual,
	})
	if err != nil {
		return nil, err
	}
	result.Outcome = outcome

	if outcome.Mode == workflow.ModeManual {
		return result, nil
	}

	if err := fsutil.WriteFile(result.OutputFile, []byte(outcome.Text), 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", result.OutputFile, err)
	}
	if err := e.advance(rec, to); err != nil {
		return nil, err
	}
	_ = os.Remove(promptPath)

	result.Advanced = true
	e.record(ctx, history.Entry{
		Slug:         rec.Slug,
		Action:       history.ActionNext,
		FromStep:     from.ID,
		ToStep:       to.ID,
		Mode:         string(outcome.Mode),
		PromptTokens: result.PromptTokens,
	})
	return result, nil
}

// Done archives the active workstream and clears the lock.
//
// Every configured step must have its file; otherwise a
// [*workstream.IncompleteError] is returned and nothing changes.
func (e *Executor) Done(ctx context.Context) (*DoneResult, error) {
	rec := e.lockReader.Read()
	if rec.IsEmpty() {
		return nil, ErrNoActiveWorkstream
	}

	dest, err := e.workstreams.Archive(rec.Slug, e.config.Steps)
	if err != nil {
		return nil, err
	}

	if err := e.lockWriter.Clear(); err != nil {
		return nil, fmt.Errorf("archived to %s but failed to clear lock: %w", dest, err)
	}

	e.record(ctx, history.Entry{Slug: rec.Slug, Action: history.ActionDone, FromStep: rec.CurrentStep})

	return &DoneResult{Slug: rec.Slug, ArchivedTo: dest}, nil
}

// Status reports the active workstream without changing anything. A lock
// that names an unknown step is reported as inactive with a warning.
func (e *Executor) Status() Status {
	rec := e.lockReader.Read()
	if rec.IsEmpty() {
		return Status{Total: e.router.Len()}
	}

	position, total, err := e.router.Progress(rec.CurrentStep)
	if err != nil {
		e.warnf("lock points at %q which is not a configured step", rec.CurrentStep)
		return Status{Total: total}
	}
	current, _ := e.router.Lookup(rec.CurrentStep)
	remaining, _ := e.router.GetLifecycle(rec.CurrentStep)

	st := Status{
		Active:    true,
		Slug:      rec.Slug,
		Current:   current,
		Position:  position,
		Total:     total,
		Remaining: remaining,
		CreatedAt: rec.CreatedAt,
	}
	for _, step := range e.router.Steps() {
		st.Steps = append(st.Steps, StepState{
			Step:     step,
			Complete: fileExists(e.workstreams.StepFile(rec.Slug, step.ID)),
			Current:  step.ID == current.ID,
		})
	}
	return st
}

// Libraries returns the libraries mentioned in the active workstream's files
// up to and including the current step.
func (e *Executor) Libraries() (current router.Step, libs []string, err error) {
	rec := e.lockReader.Read()
	if rec.IsEmpty() {
		return router.Step{}, nil, ErrNoActiveWorkstream
	}
	current, err = e.router.Lookup(rec.CurrentStep)
	if err != nil {
		return router.Step{}, nil, err
	}
	return current, libdetect.Detect(e.collectText(rec.Slug, current)), nil
}

func (e *Executor) advance(rec lock.Record, to router.Step) error {
	rec.CurrentStep = to.ID
	if err := e.lockWriter.Write(rec); err != nil {
		return fmt.Errorf("failed to advance lock to %s: %w", to.ID, err)
	}
	return nil
}

func (e *Executor) collectText(s string, upTo router.Step) string {
	var parts []string
	for _, step := range e.router.Steps()[:upTo.Index+1] {
		data, err := os.ReadFile(e.workstreams.StepFile(s, step.ID))
		if err == nil {
			parts = append(parts, string(data))
		}
	}
	return strings.Join(parts, "\n\n")
}

func (e *Executor) record(ctx context.Context, entry history.Entry) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Record(ctx, entry); err != nil {
		e.warnf("could not record history: %v", err)
	}
}

func (e *Executor) warnf(format string, args ...any) {
	if e.warn != nil {
		e.warn(fmt.Sprintf(format, args...))
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
