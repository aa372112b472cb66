package provider

import "context"

// MockGenerator implements [Generator] for tests.
type MockGenerator struct {
	Output string
	Err    error

	// Calls records every request.
	Calls []Request
}

// Name implements [Generator].
func (m *MockGenerator) Name() string { return "mock" }

// Generate implements [Generator].
func (m *MockGenerator) Generate(ctx context.Context, req Request) (string, error) {
	m.Calls = append(m.Calls, req)
	if m.Err != nil {
		return "", m.Err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.Output, nil
}
