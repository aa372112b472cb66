package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		previous string
		want     string
	}{
		{
			name:     "single placeholder",
			body:     "Generate PRD for:\n<prev_step></prev_step>",
			previous: "# Idea\nBuild it",
			want:     "Generate PRD for:\n# Idea\nBuild it",
		},
		{
			name:     "every occurrence replaced",
			body:     "A <prev_step></prev_step> B <prev_step></prev_step>",
			previous: "x",
			want:     "A x B x",
		},
		{
			name:     "no placeholder leaves body unchanged",
			body:     "static prompt",
			previous: "ignored",
			want:     "static prompt",
		},
		{
			name:     "previous inserted verbatim",
			body:     "<prev_step></prev_step>",
			previous: "$1 {{.Step}} <prev_step></prev_step>",
			want:     "$1 {{.Step}} <prev_step></prev_step>",
		},
		{
			name:     "empty previous",
			body:     "before<prev_step></prev_step>after",
			previous: "",
			want:     "beforeafter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Merge(tt.body, tt.previous))
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantMeta Meta
		wantBody string
		wantErr  bool
	}{
		{
			name:     "plain body",
			data:     "Generate PRD for:\n<prev_step></prev_step>",
			wantBody: "Generate PRD for:\n<prev_step></prev_step>",
		},
		{
			name:     "front matter",
			data:     "---\nmodel: gpt-4.1\ndescription: PRD\n---\nBody <prev_step></prev_step>\n",
			wantMeta: Meta{Model: "gpt-4.1", Description: "PRD"},
			wantBody: "Body <prev_step></prev_step>\n",
		},
		{
			name:     "crlf front matter",
			data:     "---\r\ndescription: Win\r\n---\r\nBody",
			wantMeta: Meta{Description: "Win"},
			wantBody: "Body",
		},
		{
			name:     "front matter only",
			data:     "---\ndescription: empty\n---",
			wantMeta: Meta{Description: "empty"},
			wantBody: "",
		},
		{
			name:     "unterminated front matter is body",
			data:     "---\nnot closed",
			wantBody: "---\nnot closed",
		},
		{
			name:     "invalid yaml is body",
			data:     "---\nmodel: [unclosed\n---\nBody",
			wantBody: "---\nmodel: [unclosed\n---\nBody",
		},
		{
			name:     "markdown rules are body",
			data:     "---\n# Heading: *emphasis*\n\n---\n<prev_step></prev_step>\n",
			wantBody: "---\n# Heading: *emphasis*\n\n---\n<prev_step></prev_step>\n",
		},
		{
			name:     "plain text between rules is body",
			data:     "---\nWrite a PRD\n---\n<prev_step></prev_step>",
			wantBody: "---\nWrite a PRD\n---\n<prev_step></prev_step>",
		},
		{
			name:     "empty block is body",
			data:     "---\n---\nBody",
			wantBody: "---\n---\nBody",
		},
		{
			name:    "mapping with wrong field type",
			data:    "---\nmodel: [a, b]\n---\nBody",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMeta, got.Meta)
			assert.Equal(t, tt.wantBody, got.Body)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "01-prd.prompt.yml")
	require.NoError(t, os.WriteFile(path, []byte("# 01-prd template\n<prev_step></prev_step>"), 0644))

	tmpl, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, path, tmpl.Path)
	assert.True(t, tmpl.HasPlaceholder())
	assert.Equal(t, "# 01-prd template\nIDEA", tmpl.Merge("IDEA"))
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.prompt.yml"))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTemplateMissing)
	assert.Contains(t, err.Error(), "nope.prompt.yml")
}

func TestDefaults_ContainPlaceholder(t *testing.T) {
	defaults, err := Defaults()
	require.NoError(t, err)
	require.NotEmpty(t, defaults)

	for step, data := range defaults {
		tmpl, err := Parse(data)
		require.NoError(t, err, step)
		assert.True(t, tmpl.HasPlaceholder(), "template %s must contain the placeholder", step)
		assert.NotEmpty(t, tmpl.Meta.Description, step)
	}
}

func TestWriteDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")
	steps := []string{"00-idea", "01-prd", "02-prd-plus", "99-custom"}
	nameFor := func(step string) (string, error) { return step + ".prompt.yml", nil }

	written, err := WriteDefaults(dir, steps, nameFor)

	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "01-prd.prompt.yml"),
		filepath.Join(dir, "02-prd-plus.prompt.yml"),
	}, written)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "01-prd.prompt.yml"), []byte("custom"), 0644))
	written, err = WriteDefaults(dir, steps, nameFor)
	require.NoError(t, err)
	assert.Empty(t, written)

	data, err := os.ReadFile(filepath.Join(dir, "01-prd.prompt.yml"))
	require.NoError(t, err)
	assert.Equal(t, "custom", string(data), "existing templates are never overwritten")
}

func TestCountTokens(t *testing.T) {
	assert.Equal(t, 0, CountTokens(""))

	short := CountTokens("hello world")
	long := CountTokens(strings.Repeat("hello world ", 100))

	assert.Greater(t, short, 0)
	assert.Greater(t, long, short)
}
