package claude

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"aisdlc/internal/config"
)

// Errors returned by [Executor] implementations.
var (
	// ErrTimeout indicates the agent did not finish within its time limit.
	ErrTimeout = errors.New("agent timed out")

	// ErrEmptyOutput indicates the agent exited cleanly but produced nothing.
	ErrEmptyOutput = errors.New("agent produced no output")

	// ErrSessionFailed indicates a stream-json result event flagged an error.
	ErrSessionFailed = errors.New("agent session reported an error")
)

// ProcessError reports a non-zero agent exit with its captured output.
type ProcessError struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("agent exited with code %d", e.ExitCode)
}

// Request describes one agent run.
type Request struct {
	// Prompt is the merged prompt text.
	Prompt string

	// Step and Slug are available to argument templates.
	Step string
	Slug string
}

// Result is the outcome of a successful agent run.
type Result struct {
	// Text is the generated step content.
	Text string

	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// EventHandler receives stream-json events as they arrive. May be nil.
type EventHandler func(Event)

// Executor runs the agent for a single prompt.
type Executor interface {
	// ExecuteWithResult runs the agent and returns its generated content.
	//
	// Returns [ErrTimeout] (wrapped) when the time limit elapses,
	// *[ProcessError] on a non-zero exit and [ErrEmptyOutput] when nothing
	// was generated. No retry is attempted.
	ExecuteWithResult(ctx context.Context, req Request, handler EventHandler) (*Result, error)
}

// ExecutorConfig configures a [ProcessExecutor].
type ExecutorConfig struct {
	BinaryPath   string
	Args         []string
	Stdin        bool
	OutputFormat string
	Timeout      time.Duration

	// TempDir is where prompt files are created. Empty means os.TempDir().
	TempDir string
}

// ExecutorConfigFrom builds an [ExecutorConfig] from the agent settings.
func ExecutorConfigFrom(cfg *config.Config) ExecutorConfig {
	return ExecutorConfig{
		BinaryPath:   cfg.Agent.BinaryPath,
		Args:         cfg.Agent.Args,
		Stdin:        cfg.Agent.Stdin,
		OutputFormat: cfg.Agent.OutputFormat,
		Timeout:      cfg.AgentTimeout(),
	}
}

// ArgData is passed to each argument template.
type ArgData struct {
	PromptFile string
	Step       string
	Slug       string
}

// ProcessExecutor runs the agent as a subprocess.
type ProcessExecutor struct {
	cfg    ExecutorConfig
	parser Parser
}

// NewExecutor creates a [ProcessExecutor].
func NewExecutor(cfg ExecutorConfig) *ProcessExecutor {
	return &ProcessExecutor{cfg: cfg, parser: NewParser()}
}

// ExecuteWithResult implements [Executor].
//
// The prompt is written to a uniquely named 0600 temp file that is removed
// before returning on every path.
func (e *ProcessExecutor) ExecuteWithResult(ctx context.Context, req Request, handler EventHandler) (*Result, error) {
	promptFile, err := writePromptFile(e.cfg.TempDir, req.Prompt)
	if err != nil {
		return nil, err
	}
	defer os.Remove(promptFile)

	args, err := expandArgs(e.cfg.Args, ArgData{PromptFile: promptFile, Step: req.Step, Slug: req.Slug})
	if err != nil {
		return nil, err
	}

	runCtx := ctx
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, e.cfg.BinaryPath, args...)
	cmd.WaitDelay = 2 * time.Second

	if e.cfg.Stdin {
		in, err := os.Open(promptFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open prompt file: %w", err)
		}
		defer in.Close()
		cmd.Stdin = in
	}

	var stdout, stderr bytes.Buffer
	cmd.Stderr = &stderr

	streaming := e.cfg.OutputFormat == config.OutputFormatStreamJSON
	var transcript Transcript
	var pw *io.PipeWriter
	done := make(chan struct{})

	if streaming {
		var pr *io.PipeReader
		pr, pw = io.Pipe()
		cmd.Stdout = io.MultiWriter(&stdout, pw)
		go func() {
			defer close(done)
			for event := range e.parser.Parse(pr) {
				transcript.Add(event)
				if handler != nil {
					handler(event)
				}
			}
			io.Copy(io.Discard, pr)
		}()
	} else {
		cmd.Stdout = &stdout
		close(done)
	}

	start := time.Now()
	runErr := cmd.Run()
	if pw != nil {
		pw.Close()
	}
	<-done

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, fmt.Errorf("%w after %s", ErrTimeout, e.cfg.Timeout)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return nil, &ProcessError{
				ExitCode: exitErr.ExitCode(),
				Stdout:   result.Stdout,
				Stderr:   result.Stderr,
			}
		}
		return nil, fmt.Errorf("failed to run agent %q: %w", e.cfg.BinaryPath, runErr)
	}

	if streaming {
		if transcript.Failed() {
			return nil, fmt.Errorf("%w: %s", ErrSessionFailed, transcript.Text())
		}
		result.Text = transcript.Text()
	} else {
		result.Text = result.Stdout
	}

	if strings.TrimSpace(result.Text) == "" {
		return nil, ErrEmptyOutput
	}

	return result, nil
}

func writePromptFile(dir, prompt string) (string, error) {
	f, err := os.CreateTemp(dir, "aisdlc-prompt-*.md")
	if err != nil {
		return "", fmt.Errorf("failed to create prompt file: %w", err)
	}
	name := f.Name()

	if _, err := f.WriteString(prompt); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("failed to write prompt file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("failed to write prompt file: %w", err)
	}
	return name, nil
}

func expandArgs(templates []string, data ArgData) ([]string, error) {
	args := make([]string, 0, len(templates))
	for _, t := range templates {
		if !strings.Contains(t, "{{") {
			args = append(args, t)
			continue
		}
		arg, err := config.ExpandTemplate(t, data)
		if err != nil {
			return nil, fmt.Errorf("invalid agent argument: %w", err)
		}
		args = append(args, arg)
	}
	return args, nil
}
