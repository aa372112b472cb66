// Package workflow produces the content of a single lifecycle step.
//
// A [Runner] turns a merged prompt into step text by one of three routes:
// the external agent subprocess, a direct provider API call, or a prompt file
// written for the user to run by hand. Provider failures degrade to the
// manual route instead of failing the command.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"aisdlc/internal/claude"
	"aisdlc/internal/config"
	"aisdlc/internal/output"
	"aisdlc/internal/provider"
)

// Mode identifies how a step's content was produced.
type Mode string

const (
	ModeAgent  Mode = "agent"
	ModeAPI    Mode = "api"
	ModeManual Mode = "manual"
)

// Job describes one generation request.
type Job struct {
	Slug     string
	FromStep string
	Step     string

	// Prompt is the fully merged prompt text.
	Prompt string

	// Model overrides the provider's configured model when set.
	Model string

	// PromptFile is where the prompt is written when generation is manual.
	PromptFile string

	// Manual skips both the agent and the provider.
	Manual bool
}

// Outcome reports what Generate did.
type Outcome struct {
	Mode Mode

	// Text is the generated content. Empty for ModeManual.
	Text string

	// PromptFile is set for ModeManual.
	PromptFile string

	// FallbackReason explains why an API call fell back to ModeManual.
	FallbackReason string

	Duration time.Duration
}

// Runner dispatches generation jobs.
type Runner struct {
	executor  claude.Executor
	generator provider.Generator
	printer   *output.Printer
	config    *config.Config
}

// NewRunner creates a Runner that invokes the agent through executor.
func NewRunner(executor claude.Executor, printer *output.Printer, cfg *config.Config) *Runner {
	return &Runner{
		executor: executor,
		printer:  printer,
		config:   cfg,
	}
}

// SetGenerator enables direct API generation. A nil generator disables it.
func (r *Runner) SetGenerator(g provider.Generator) {
	r.generator = g
}

// Generate produces content for job. Agent failures are returned; provider
// failures fall back to writing job.PromptFile.
func (r *Runner) Generate(ctx context.Context, job Job) (Outcome, error) {
	switch {
	case job.Manual || r.config.Agent.Mode == config.AgentModeManual:
		return r.manual(job, "")
	case r.generator != nil:
		return r.api(ctx, job)
	default:
		return r.agent(ctx, job)
	}
}

func (r *Runner) agent(ctx context.Context, job Job) (Outcome, error) {
	if r.executor == nil {
		return Outcome{}, errors.New("no agent executor configured")
	}

	start := time.Now()
	result, err := r.executor.ExecuteWithResult(ctx, claude.Request{
		Prompt: job.Prompt,
		Step:   job.Step,
		Slug:   job.Slug,
	}, func(event claude.Event) {
		r.handleEvent(event, start)
	})
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{Mode: ModeAgent, Text: result.Text, Duration: time.Since(start)}, nil
}

func (r *Runner) api(ctx context.Context, job Job) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.ProviderTimeout())
	defer cancel()

	r.printer.Info("Calling %s API...", r.generator.Name())
	start := time.Now()
	text, err := r.generator.Generate(ctx, provider.Request{Prompt: job.Prompt, Model: job.Model})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", r.config.ProviderTimeout(), err)
		}
		r.printer.Warning("%s API call failed: %v", r.generator.Name(), err)
		return r.manual(job, err.Error())
	}

	return Outcome{Mode: ModeAPI, Text: text, Duration: time.Since(start)}, nil
}

func (r *Runner) manual(job Job, reason string) (Outcome, error) {
	if job.PromptFile == "" {
		return Outcome{}, errors.New("no prompt file path for manual generation")
	}
	if err := os.WriteFile(job.PromptFile, []byte(job.Prompt), 0644); err != nil {
		return Outcome{}, fmt.Errorf("failed to write prompt file: %w", err)
	}
	return Outcome{Mode: ModeManual, PromptFile: job.PromptFile, FallbackReason: reason}, nil
}

func (r *Runner) handleEvent(event claude.Event, start time.Time) {
	switch {
	case event.SessionStarted:
		r.printer.SessionStarted()
	case event.SessionComplete:
		r.printer.SessionComplete(time.Since(start))
	case event.IsToolResult():
		if event.ToolStderr != "" {
			r.printer.Debug("tool stderr: %s", event.ToolStderr)
		}
	}

	if event.IsText() {
		r.printer.AgentText(event.Text)
	}
	if event.IsToolUse() {
		r.printer.ToolUse(event.ToolName, toolDetail(event))
	}
}

func toolDetail(event claude.Event) string {
	switch {
	case event.ToolDescription != "":
		return event.ToolDescription
	case event.ToolCommand != "":
		return event.ToolCommand
	default:
		return event.ToolFilePath
	}
}
