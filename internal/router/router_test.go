package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSteps = []string{"00-idea", "01-prd", "02-prd-plus", "03-tests"}

func TestRouter_Next(t *testing.T) {
	r := NewRouter(testSteps)

	tests := []struct {
		name     string
		current  string
		wantStep string
		wantErr  error
	}{
		{name: "first step advances to second", current: "00-idea", wantStep: "01-prd"},
		{name: "middle step advances by one", current: "01-prd", wantStep: "02-prd-plus"},
		{name: "penultimate step advances to last", current: "02-prd-plus", wantStep: "03-tests"},
		{name: "final step returns ErrFinalStep", current: "03-tests", wantErr: ErrFinalStep},
		{name: "unknown step returns ErrUnknownStep", current: "99-nope", wantErr: ErrUnknownStep},
		{name: "empty step returns ErrUnknownStep", current: "", wantErr: ErrUnknownStep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Next(tt.current)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Next(%q) error = %v, want %v", tt.current, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStep, got.ID)
		})
	}
}

func TestRouter_Next_NeverSkips(t *testing.T) {
	r := NewRouter(testSteps)

	current := testSteps[0]
	visited := []string{current}
	for {
		next, err := r.Next(current)
		if errors.Is(err, ErrFinalStep) {
			break
		}
		require.NoError(t, err)
		visited = append(visited, next.ID)
		current = next.ID
	}

	assert.Equal(t, testSteps, visited)
}

func TestRouter_Progress(t *testing.T) {
	r := NewRouter(testSteps)

	pos, total, err := r.Progress("01-prd")
	require.NoError(t, err)
	assert.Equal(t, 2, pos)
	assert.Equal(t, 4, total)

	_, total, err = r.Progress("missing")
	assert.ErrorIs(t, err, ErrUnknownStep)
	assert.Equal(t, 4, total)
}

func TestRouter_GetLifecycle(t *testing.T) {
	r := NewRouter(testSteps)

	tests := []struct {
		name    string
		current string
		want    []LifecycleStep
		wantErr error
	}{
		{
			name:    "from first step",
			current: "00-idea",
			want: []LifecycleStep{
				{From: "00-idea", Step: Step{ID: "01-prd", Label: "prd", Index: 1}},
				{From: "01-prd", Step: Step{ID: "02-prd-plus", Label: "prd-plus", Index: 2}},
				{From: "02-prd-plus", Step: Step{ID: "03-tests", Label: "tests", Index: 3}},
			},
		},
		{
			name:    "from penultimate step",
			current: "02-prd-plus",
			want: []LifecycleStep{
				{From: "02-prd-plus", Step: Step{ID: "03-tests", Label: "tests", Index: 3}},
			},
		},
		{
			name:    "from final step",
			current: "03-tests",
			want:    []LifecycleStep{},
		},
		{
			name:    "unknown step",
			current: "nope",
			wantErr: ErrUnknownStep,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.GetLifecycle(tt.current)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRouter_StepsAndIsLast(t *testing.T) {
	r := NewRouter(testSteps)

	steps := r.Steps()
	require.Len(t, steps, 4)
	assert.Equal(t, "idea", steps[0].Label)
	assert.Equal(t, 4, r.Len())
	assert.True(t, r.IsLast("03-tests"))
	assert.False(t, r.IsLast("00-idea"))
	assert.False(t, r.IsLast("unknown"))

	steps[0].ID = "mutated"
	assert.Equal(t, "00-idea", r.Steps()[0].ID, "Steps must return a copy")
}
