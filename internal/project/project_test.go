package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aisdlc/internal/config"
)

func TestFindRoot(t *testing.T) {
	t.Setenv(RootEnvVar, "")
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, config.FileName), []byte(""), 0644))
	nested := filepath.Join(root, "doing", "feature", "deep")
	require.NoError(t, os.MkdirAll(nested, 0755))

	tests := []struct {
		name  string
		start string
		want  string
	}{
		{name: "root itself", start: root, want: root},
		{name: "nested directory", start: nested, want: root},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindRoot(tt.start))
		})
	}
}

func TestFindRoot_NoManifest(t *testing.T) {
	t.Setenv(RootEnvVar, "")
	dir := t.TempDir()

	assert.Equal(t, dir, FindRoot(dir))
}

func TestFindRoot_EnvOverride(t *testing.T) {
	t.Setenv(RootEnvVar, "/custom/root")

	assert.Equal(t, "/custom/root", FindRoot(t.TempDir()))
}

func TestPaths(t *testing.T) {
	cfg := config.DefaultConfig()
	p := NewPaths("/proj", cfg)

	assert.Equal(t, filepath.Join("/proj", ".aisdlc"), p.Manifest())
	assert.Equal(t, filepath.Join("/proj", ".aisdlc.lock"), p.Lock())
	assert.Equal(t, filepath.Join("/proj", "prompts"), p.PromptDir())
	assert.Equal(t, filepath.Join("/proj", "doing"), p.ActiveDir())
	assert.Equal(t, filepath.Join("/proj", "done"), p.DoneDir())
	assert.Equal(t, filepath.Join("/proj", ".aisdlc.history.db"), p.History())

	tmpl, err := p.PromptTemplate("01-prd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/proj", "prompts", "01-prd.prompt.yml"), tmpl)
}
