package claude

import (
	"context"
	"time"
)

// MockExecutor implements [Executor] for tests.
type MockExecutor struct {
	// Output is returned as the generated text. If empty, text is derived
	// from Events.
	Output string

	// Events are delivered to the handler in order.
	Events []Event

	// ExitCode, when non-zero, produces a *[ProcessError].
	ExitCode int
	Stdout   string
	Stderr   string

	// Err is returned as-is when set.
	Err error

	// Delay blocks the call until it elapses or the context ends.
	Delay time.Duration

	// RecordedPrompts captures every prompt passed in.
	RecordedPrompts []string

	// RecordedRequests captures every request passed in.
	RecordedRequests []Request
}

// ExecuteWithResult implements [Executor].
func (m *MockExecutor) ExecuteWithResult(ctx context.Context, req Request, handler EventHandler) (*Result, error) {
	m.RecordedPrompts = append(m.RecordedPrompts, req.Prompt)
	m.RecordedRequests = append(m.RecordedRequests, req)

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.Err != nil {
		return nil, m.Err
	}

	var transcript Transcript
	for _, event := range m.Events {
		transcript.Add(event)
		if handler != nil {
			handler(event)
		}
	}

	if m.ExitCode != 0 {
		return nil, &ProcessError{ExitCode: m.ExitCode, Stdout: m.Stdout, Stderr: m.Stderr}
	}

	text := m.Output
	if text == "" {
		text = transcript.Text()
	}
	if text == "" {
		return nil, ErrEmptyOutput
	}

	return &Result{Text: text, Stdout: m.Stdout, Stderr: m.Stderr}, nil
}
