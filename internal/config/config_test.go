package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalManifest = `
version = "0.1.0"
steps = ["00-idea", "01-prd", "02-arch"]
prompt_dir = "prompts"
active_dir = "doing"
done_dir = "done"
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644)
	require.NoError(t, err)
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultSteps, cfg.Steps)
	assert.Equal(t, "prompts", cfg.PromptDir)
	assert.Equal(t, "doing", cfg.ActiveDir)
	assert.Equal(t, "done", cfg.DoneDir)
	assert.Equal(t, "claude", cfg.Agent.BinaryPath)
	assert.Equal(t, OutputFormatStreamJSON, cfg.Agent.OutputFormat)
	assert.Equal(t, ProviderManual, cfg.AIProvider.Name)
	assert.False(t, cfg.DirectAPIEnabled())
	assert.NoError(t, Validate(cfg))
}

func TestLoader_Load(t *testing.T) {
	root := writeManifest(t, minimalManifest)

	cfg, err := NewLoader().Load(root)

	require.NoError(t, err)
	assert.Equal(t, []string{"00-idea", "01-prd", "02-arch"}, cfg.Steps)
	assert.Equal(t, "doing", cfg.ActiveDir)
	assert.Equal(t, SlugRuleKebab, cfg.SlugRule)
	assert.Equal(t, "{{.Step}}.prompt.yml", cfg.PromptFile)
	assert.Equal(t, 300, cfg.Agent.TimeoutSeconds)
	assert.Equal(t, 60, cfg.AIProvider.TimeoutSeconds)
	assert.True(t, cfg.History.Enabled)
}

func TestLoader_Load_Missing(t *testing.T) {
	_, err := NewLoader().Load(t.TempDir())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrManifestMissing)
}

func TestLoader_Load_Corrupt(t *testing.T) {
	root := writeManifest(t, "steps = [\"00-idea\"\nthis is not toml")

	_, err := NewLoader().Load(root)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrManifestCorrupt)
}

func TestLoader_Load_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		wantMsg  string
	}{
		{
			name: "missing steps",
			manifest: `version = "0.1.0"
prompt_dir = "prompts"
active_dir = "doing"
done_dir = "done"`,
			wantMsg: `missing required key "steps"`,
		},
		{
			name:     "missing dirs",
			manifest: `version = "0.1.0"` + "\n" + `steps = ["a", "b"]`,
			wantMsg:  `missing required key "active_dir"`,
		},
		{
			name:     "empty steps",
			manifest: strings.Replace(minimalManifest, `["00-idea", "01-prd", "02-arch"]`, `[]`, 1),
			wantMsg:  "steps must not be empty",
		},
		{
			name:     "duplicate steps",
			manifest: strings.Replace(minimalManifest, `"02-arch"`, `"01-prd"`, 1),
			wantMsg:  `duplicate step "01-prd"`,
		},
		{
			name:     "step with separator",
			manifest: strings.Replace(minimalManifest, `"02-arch"`, `"02/arch"`, 1),
			wantMsg:  `step "02/arch" is not a valid identifier`,
		},
		{
			name:     "steps not an array",
			manifest: strings.Replace(minimalManifest, `["00-idea", "01-prd", "02-arch"]`, `"00-idea"`, 1),
			wantMsg:  "steps must be an array of strings",
		},
		{
			name:     "nested active dir",
			manifest: strings.Replace(minimalManifest, `active_dir = "doing"`, `active_dir = "work/doing"`, 1),
			wantMsg:  "active_dir",
		},
		{
			name:     "bad slug rule",
			manifest: minimalManifest + `slug_rule = "snake_case"`,
			wantMsg:  `unsupported slug_rule "snake_case"`,
		},
		{
			name:     "provider without direct_api_calls",
			manifest: minimalManifest + "[ai_provider]\nname = \"openai\"\n",
			wantMsg:  "direct_api_calls is required",
		},
		{
			name:     "provider with bad timeout",
			manifest: minimalManifest + "[ai_provider]\nname = \"openai\"\ndirect_api_calls = false\ntimeout_seconds = 0\n",
			wantMsg:  "ai_provider.timeout_seconds must be positive",
		},
		{
			name:     "unknown provider",
			manifest: minimalManifest + "[ai_provider]\nname = \"skynet\"\ndirect_api_calls = true\n",
			wantMsg:  `unsupported ai_provider.name "skynet"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeManifest(t, tt.manifest)

			cfg, err := NewLoader().Load(root)

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.ErrorIs(t, err, ErrManifestInvalid)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoader_Load_WithEnvOverride(t *testing.T) {
	t.Setenv("AISDLC_AGENT_PATH", "/env/agent")
	t.Setenv("AISDLC_AGENT_TIMEOUT", "7")
	root := writeManifest(t, minimalManifest)

	cfg, err := NewLoader().Load(root)

	require.NoError(t, err)
	assert.Equal(t, "/env/agent", cfg.Agent.BinaryPath)
	assert.Equal(t, 7, cfg.Agent.TimeoutSeconds)
}

func TestLoader_LoadFromFile_ProviderTable(t *testing.T) {
	root := writeManifest(t, minimalManifest+`
[ai_provider]
name = "anthropic"
model = "claude-sonnet-4-5"
api_key_env_var = "ANTHROPIC_API_KEY"
direct_api_calls = true
`)

	cfg, err := NewLoader().LoadFromFile(filepath.Join(root, FileName))

	require.NoError(t, err)
	assert.True(t, cfg.DirectAPIEnabled())
	assert.Equal(t, "claude-sonnet-4-5", cfg.AIProvider.Model)
	assert.Equal(t, 4096, cfg.AIProvider.MaxTokens)
}

func TestRenderDefault_RoundTrip(t *testing.T) {
	data, err := RenderDefault()
	require.NoError(t, err)

	root := writeManifest(t, string(data))
	cfg, err := NewLoader().Load(root)

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfig_PromptFileName(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		step    string
		want    string
		wantErr bool
	}{
		{name: "default pattern", pattern: "{{.Step}}.prompt.yml", step: "01-prd", want: "01-prd.prompt.yml"},
		{name: "label pattern", pattern: "{{.Index}}-{{.Label}}-prompt.md", step: "01-prd", want: "2-prd-prompt.md"},
		{name: "bad template", pattern: "{{.Step", step: "01-prd", wantErr: true},
		{name: "unknown field", pattern: "{{.Nope}}", step: "01-prd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Steps: []string{"00-idea", "01-prd"}, PromptFile: tt.pattern}
			got, err := cfg.PromptFileName(tt.step)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStepLabel(t *testing.T) {
	tests := []struct {
		step string
		want string
	}{
		{"01-prd", "prd"},
		{"03-system-template", "system-template"},
		{"idea", "idea"},
		{"12", "12"},
		{"7-", "7-"},
	}

	for _, tt := range tests {
		t.Run(tt.step, func(t *testing.T) {
			assert.Equal(t, tt.want, StepLabel(tt.step))
		})
	}
}

func TestConfig_StepNavigation(t *testing.T) {
	cfg := &Config{Steps: []string{"a", "b", "c"}}

	assert.Equal(t, "a", cfg.FirstStep())
	assert.Equal(t, "c", cfg.LastStep())
	assert.Equal(t, 1, cfg.StepIndex("b"))
	assert.Equal(t, -1, cfg.StepIndex("z"))
}
