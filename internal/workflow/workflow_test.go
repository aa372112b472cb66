package workflow

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aisdlc/internal/claude"
	"aisdlc/internal/config"
	"aisdlc/internal/output"
	"aisdlc/internal/provider"
)

func setupTestRunner(t *testing.T) (*Runner, *claude.MockExecutor, *bytes.Buffer, *config.Config) {
	t.Helper()
	buf := &bytes.Buffer{}
	printer := output.NewPrinterWithWriter(buf)
	cfg := config.DefaultConfig()
	mockExecutor := &claude.MockExecutor{
		Events: []claude.Event{
			{Type: claude.EventTypeSystem, SessionStarted: true},
			{Type: claude.EventTypeAssistant, Text: "Working on it..."},
			{Type: claude.EventTypeAssistant, ToolName: "Read", ToolFilePath: "README.md"},
			{Type: claude.EventTypeResult, SessionComplete: true, ResultText: "OUTPUT"},
		},
	}
	return NewRunner(mockExecutor, printer, cfg), mockExecutor, buf, cfg
}

func testJob(t *testing.T) Job {
	return Job{
		Slug:       "hello-world",
		FromStep:   "00-idea",
		Step:       "01-prd",
		Prompt:     "merged prompt",
		PromptFile: filepath.Join(t.TempDir(), "_prompt-01-prd.md"),
	}
}

func TestNewRunner(t *testing.T) {
	runner := NewRunner(&claude.MockExecutor{}, output.NewPrinter(), config.DefaultConfig())

	assert.NotNil(t, runner)
}

func TestRunner_Generate_Agent(t *testing.T) {
	runner, mockExecutor, buf, _ := setupTestRunner(t)
	job := testJob(t)

	outcome, err := runner.Generate(context.Background(), job)

	require.NoError(t, err)
	assert.Equal(t, ModeAgent, outcome.Mode)
	assert.Equal(t, "OUTPUT", outcome.Text)
	require.Len(t, mockExecutor.RecordedRequests, 1)
	assert.Equal(t, claude.Request{Prompt: "merged prompt", Step: "01-prd", Slug: "hello-world"}, mockExecutor.RecordedRequests[0])
	assert.Contains(t, buf.String(), "agent session started")
	assert.Contains(t, buf.String(), "Working on it...")
	assert.Contains(t, buf.String(), "README.md")
	assert.NoFileExists(t, job.PromptFile)
}

func TestRunner_Generate_AgentFailure(t *testing.T) {
	tests := []struct {
		name     string
		executor *claude.MockExecutor
		check    func(t *testing.T, err error)
	}{
		{
			name:     "timeout",
			executor: &claude.MockExecutor{Err: claude.ErrTimeout},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, claude.ErrTimeout)
			},
		},
		{
			name:     "non-zero exit",
			executor: &claude.MockExecutor{ExitCode: 3, Stdout: "out", Stderr: "boom"},
			check: func(t *testing.T, err error) {
				var procErr *claude.ProcessError
				require.ErrorAs(t, err, &procErr)
				assert.Equal(t, 3, procErr.ExitCode)
				assert.Equal(t, "boom", procErr.Stderr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := NewRunner(tt.executor, output.NewPrinterWithWriter(&bytes.Buffer{}), config.DefaultConfig())
			job := testJob(t)

			_, err := runner.Generate(context.Background(), job)

			require.Error(t, err)
			tt.check(t, err)
			assert.NoFileExists(t, job.PromptFile, "agent failures never fall back to manual")
		})
	}
}

func TestRunner_Generate_Manual(t *testing.T) {
	runner, mockExecutor, _, _ := setupTestRunner(t)
	job := testJob(t)
	job.Manual = true

	outcome, err := runner.Generate(context.Background(), job)

	require.NoError(t, err)
	assert.Equal(t, ModeManual, outcome.Mode)
	assert.Equal(t, job.PromptFile, outcome.PromptFile)
	assert.Empty(t, outcome.FallbackReason)
	assert.Empty(t, mockExecutor.RecordedRequests)

	data, err := os.ReadFile(job.PromptFile)
	require.NoError(t, err)
	assert.Equal(t, "merged prompt", string(data))
}

func TestRunner_Generate_ManualAgentMode(t *testing.T) {
	runner, mockExecutor, _, cfg := setupTestRunner(t)
	cfg.Agent.Mode = config.AgentModeManual

	outcome, err := runner.Generate(context.Background(), testJob(t))

	require.NoError(t, err)
	assert.Equal(t, ModeManual, outcome.Mode)
	assert.Empty(t, mockExecutor.RecordedRequests)
}

func TestRunner_Generate_API(t *testing.T) {
	runner, mockExecutor, _, _ := setupTestRunner(t)
	gen := &provider.MockGenerator{Output: "API OUTPUT"}
	runner.SetGenerator(gen)
	job := testJob(t)
	job.Model = "custom-model"

	outcome, err := runner.Generate(context.Background(), job)

	require.NoError(t, err)
	assert.Equal(t, ModeAPI, outcome.Mode)
	assert.Equal(t, "API OUTPUT", outcome.Text)
	require.Len(t, gen.Calls, 1)
	assert.Equal(t, provider.Request{Prompt: "merged prompt", Model: "custom-model"}, gen.Calls[0])
	assert.Empty(t, mockExecutor.RecordedRequests)
}

func TestRunner_Generate_APIFallback(t *testing.T) {
	runner, _, buf, _ := setupTestRunner(t)
	runner.SetGenerator(&provider.MockGenerator{Err: errors.New("401 unauthorized")})
	job := testJob(t)

	outcome, err := runner.Generate(context.Background(), job)

	require.NoError(t, err)
	assert.Equal(t, ModeManual, outcome.Mode)
	assert.Contains(t, outcome.FallbackReason, "401 unauthorized")
	assert.FileExists(t, job.PromptFile)
	assert.Contains(t, buf.String(), "API call failed")
}

type slowGenerator struct{}

func (slowGenerator) Name() string { return "slow" }

func (slowGenerator) Generate(ctx context.Context, req provider.Request) (string, error) {
	select {
	case <-time.After(5 * time.Second):
		return "late", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestRunner_Generate_APITimeoutFallsBack(t *testing.T) {
	runner, _, _, cfg := setupTestRunner(t)
	cfg.AIProvider.TimeoutSeconds = 1
	runner.SetGenerator(slowGenerator{})
	job := testJob(t)

	outcome, err := runner.Generate(context.Background(), job)

	require.NoError(t, err)
	assert.Equal(t, ModeManual, outcome.Mode)
	assert.Contains(t, outcome.FallbackReason, "timed out")
	assert.FileExists(t, job.PromptFile)
}

func TestRunner_Generate_ManualWithoutPath(t *testing.T) {
	runner, _, _, _ := setupTestRunner(t)

	_, err := runner.Generate(context.Background(), Job{Prompt: "p", Manual: true})

	assert.Error(t, err)
}
