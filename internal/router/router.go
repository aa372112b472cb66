// Package router provides step routing over the configured step sequence.
//
// The step graph is strictly linear: step i may only advance to step i+1.
// The router answers "what comes after this step", "how far along is this
// workstream" and "which transitions remain".
//
// Key types:
//   - [Router] - Step router built from the configured sequence
//   - [Step] - A single step with its position and display label
//   - [LifecycleStep] - A single pending transition
package router

import (
	"errors"
	"fmt"

	"aisdlc/internal/config"
)

// Sentinel errors for step routing.
var (
	// ErrFinalStep indicates the workstream is already at the last step.
	// Callers should direct the user to archive rather than advance.
	ErrFinalStep = errors.New("already at the final step")

	// ErrUnknownStep indicates the step is not part of the configured
	// sequence, which usually means the lock and manifest disagree.
	ErrUnknownStep = errors.New("unknown step")
)

// Step is one position in the sequence.
type Step struct {
	// ID is the configured step identifier, e.g. "01-prd".
	ID string

	// Label is the identifier without its ordinal prefix, e.g. "prd".
	Label string

	// Index is the zero-based position in the sequence.
	Index int
}

// Router routes a current step to the step that follows it.
type Router struct {
	chain []Step
	index map[string]int
}

// NewRouter creates a [Router] for the ordered step identifiers.
func NewRouter(steps []string) *Router {
	r := &Router{
		chain: make([]Step, len(steps)),
		index: make(map[string]int, len(steps)),
	}
	for i, id := range steps {
		r.chain[i] = Step{ID: id, Label: config.StepLabel(id), Index: i}
		r.index[id] = i
	}
	return r
}

// Steps returns the full sequence.
func (r *Router) Steps() []Step {
	return append([]Step(nil), r.chain...)
}

// Len returns the number of steps.
func (r *Router) Len() int {
	return len(r.chain)
}

// Lookup returns the [Step] for id.
func (r *Router) Lookup(id string) (Step, error) {
	i, ok := r.index[id]
	if !ok {
		return Step{}, fmt.Errorf("%w: %q", ErrUnknownStep, id)
	}
	return r.chain[i], nil
}

// Next returns the step after current.
//
// Returns [ErrFinalStep] when current is the last step and [ErrUnknownStep]
// when current is not in the sequence.
func (r *Router) Next(current string) (Step, error) {
	s, err := r.Lookup(current)
	if err != nil {
		return Step{}, err
	}
	if s.Index == len(r.chain)-1 {
		return Step{}, ErrFinalStep
	}
	return r.chain[s.Index+1], nil
}

// IsLast reports whether id is the final step.
func (r *Router) IsLast(id string) bool {
	i, ok := r.index[id]
	return ok && i == len(r.chain)-1
}

// Progress returns the 1-based position of current and the total step count.
func (r *Router) Progress(current string) (position, total int, err error) {
	s, err := r.Lookup(current)
	if err != nil {
		return 0, len(r.chain), err
	}
	return s.Index + 1, len(r.chain), nil
}

// GetLifecycle returns every transition still needed to go from current to
// the final step. It is empty when current is the final step.
func (r *Router) GetLifecycle(current string) ([]LifecycleStep, error) {
	s, err := r.Lookup(current)
	if err != nil {
		return nil, err
	}

	remaining := r.chain[s.Index+1:]
	steps := make([]LifecycleStep, len(remaining))
	for i, next := range remaining {
		steps[i] = LifecycleStep{
			From: r.chain[next.Index-1].ID,
			Step: next,
		}
	}
	return steps, nil
}
