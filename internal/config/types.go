// Package config provides loading and validation of the project manifest
// (the .aisdlc file) for aisdlc.
//
// The manifest is a TOML document read with Viper. It declares the ordered
// step sequence, the directory layout, and optional tables controlling how
// step content is generated.
//
// Key types:
//   - [Config] is the root configuration container
//   - [Loader] handles Viper-based loading, env overrides and validation
//   - [AgentConfig] describes the external agent command
//   - [AIProviderConfig] describes the optional direct-API mode
//
// Required keys (never defaulted): version, steps, active_dir, done_dir,
// prompt_dir. Everything else falls back to [DefaultConfig].
//
// Environment overrides:
//   - AISDLC_AGENT_PATH overrides agent.binary_path
//   - AISDLC_AGENT_TIMEOUT overrides agent.timeout_seconds
package config

import (
	"bytes"
	"fmt"
	"text/template"
	"time"
)

// Agent modes.
const (
	AgentModeCommand = "command"
	AgentModeManual  = "manual"
)

// Agent output formats.
const (
	OutputFormatText       = "text"
	OutputFormatStreamJSON = "stream-json"
)

// Provider names accepted in [AIProviderConfig.Name].
const (
	ProviderManual    = "manual"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
)

// SlugRuleKebab is the only supported slug rule.
const SlugRuleKebab = "kebab-case"

// Config represents the project manifest.
//
// Loaded once per invocation by [Loader] and treated as immutable afterwards.
type Config struct {
	// Version is the manifest schema version, e.g. "0.1.0".
	Version string `mapstructure:"version" toml:"version"`

	// Steps is the ordered step sequence. Step i may only advance to step i+1.
	Steps []string `mapstructure:"steps" toml:"steps"`

	// SlugRule names the slug algorithm. Only "kebab-case" is supported.
	SlugRule string `mapstructure:"slug_rule" toml:"slug_rule"`

	// PromptDir holds one prompt template per step.
	PromptDir string `mapstructure:"prompt_dir" toml:"prompt_dir"`

	// PromptFile is a template naming a step's prompt file inside PromptDir.
	// Fields: .Step, .Index (1-based), .Label.
	// Default: "{{.Step}}.prompt.yml"
	PromptFile string `mapstructure:"prompt_file" toml:"prompt_file"`

	// ActiveDir holds in-progress workstreams.
	ActiveDir string `mapstructure:"active_dir" toml:"active_dir"`

	// DoneDir receives archived workstreams.
	DoneDir string `mapstructure:"done_dir" toml:"done_dir"`

	// Agent configures the external agent process.
	Agent AgentConfig `mapstructure:"agent" toml:"agent"`

	// AIProvider configures the optional direct-API generation mode.
	AIProvider AIProviderConfig `mapstructure:"ai_provider" toml:"ai_provider"`

	// History configures the transition journal.
	History HistoryConfig `mapstructure:"history" toml:"history"`

	// Context configures library detection hints shown by next.
	Context ContextConfig `mapstructure:"context" toml:"context"`
}

// AgentConfig describes how the external agent is invoked.
type AgentConfig struct {
	// Mode is "command" (run BinaryPath) or "manual" (write a prompt file
	// for the user and wait for them to save the step output).
	Mode string `mapstructure:"mode" toml:"mode"`

	// BinaryPath is the agent executable. Default: "claude".
	// Can be overridden with AISDLC_AGENT_PATH.
	BinaryPath string `mapstructure:"binary_path" toml:"binary_path"`

	// Args are passed to the agent. Each is a template with fields
	// .PromptFile, .Step and .Slug.
	Args []string `mapstructure:"args" toml:"args"`

	// Stdin feeds the prompt file to the agent's standard input.
	Stdin bool `mapstructure:"stdin" toml:"stdin"`

	// OutputFormat is "text" (stdout is the content) or "stream-json"
	// (stdout is parsed as agent events).
	OutputFormat string `mapstructure:"output_format" toml:"output_format"`

	// TimeoutSeconds bounds a single agent run. Default: 300.
	TimeoutSeconds int `mapstructure:"timeout_seconds" toml:"timeout_seconds"`
}

// AIProviderConfig describes the optional direct-API mode.
type AIProviderConfig struct {
	// Name selects the provider: manual, anthropic, openai, gemini or ollama.
	Name string `mapstructure:"name" toml:"name"`

	// Model is the provider-specific model identifier.
	Model string `mapstructure:"model" toml:"model"`

	// APIKeyEnvVar names the environment variable holding the credential.
	APIKeyEnvVar string `mapstructure:"api_key_env_var" toml:"api_key_env_var"`

	// DirectAPICalls enables the direct-API mode. Required when the
	// [ai_provider] table is present.
	DirectAPICalls bool `mapstructure:"direct_api_calls" toml:"direct_api_calls"`

	// TimeoutSeconds bounds a single API call. Default: 60.
	TimeoutSeconds int `mapstructure:"timeout_seconds" toml:"timeout_seconds"`

	// MaxTokens caps the generated output. Default: 4096.
	MaxTokens int `mapstructure:"max_tokens" toml:"max_tokens"`

	// Host is the server URL for self-hosted providers (ollama).
	Host string `mapstructure:"host" toml:"host,omitempty"`
}

// HistoryConfig configures the transition journal.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
	Path    string `mapstructure:"path" toml:"path"`
}

// ContextConfig configures library detection hints.
type ContextConfig struct {
	Enabled bool `mapstructure:"enabled" toml:"enabled"`
}

// DefaultSteps is the step sequence written by init.
var DefaultSteps = []string{
	"00-idea",
	"01-prd",
	"02-prd-plus",
	"03-system-template",
	"04-systems-patterns",
	"05-tasks",
	"06-tasks-plus",
	"07-tests",
}

// DefaultConfig returns a new [Config] with the defaults written by init.
func DefaultConfig() *Config {
	return &Config{
		Version:    "0.1.0",
		Steps:      append([]string(nil), DefaultSteps...),
		SlugRule:   SlugRuleKebab,
		PromptDir:  "prompts",
		PromptFile: "{{.Step}}.prompt.yml",
		ActiveDir:  "doing",
		DoneDir:    "done",
		Agent: AgentConfig{
			Mode:           AgentModeCommand,
			BinaryPath:     "claude",
			Args:           []string{"-p", "--output-format", "stream-json", "--verbose"},
			Stdin:          true,
			OutputFormat:   OutputFormatStreamJSON,
			TimeoutSeconds: 300,
		},
		AIProvider: AIProviderConfig{
			Name:           ProviderManual,
			DirectAPICalls: false,
			TimeoutSeconds: 60,
			MaxTokens:      4096,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    ".aisdlc.history.db",
		},
		Context: ContextConfig{
			Enabled: true,
		},
	}
}

// StepData is passed to the prompt_file template.
type StepData struct {
	Step  string
	Index int
	Label string
}

// StepIndex returns the position of step in [Config.Steps], or -1.
func (c *Config) StepIndex(step string) int {
	for i, s := range c.Steps {
		if s == step {
			return i
		}
	}
	return -1
}

// FirstStep returns the first configured step.
func (c *Config) FirstStep() string {
	if len(c.Steps) == 0 {
		return ""
	}
	return c.Steps[0]
}

// LastStep returns the final configured step.
func (c *Config) LastStep() string {
	if len(c.Steps) == 0 {
		return ""
	}
	return c.Steps[len(c.Steps)-1]
}

// PromptFileName expands [Config.PromptFile] for step.
func (c *Config) PromptFileName(step string) (string, error) {
	return ExpandTemplate(c.PromptFile, StepData{
		Step:  step,
		Index: c.StepIndex(step) + 1,
		Label: StepLabel(step),
	})
}

// AgentTimeout returns the agent timeout as a duration.
func (c *Config) AgentTimeout() time.Duration {
	return time.Duration(c.Agent.TimeoutSeconds) * time.Second
}

// ProviderTimeout returns the direct-API timeout as a duration.
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.AIProvider.TimeoutSeconds) * time.Second
}

// DirectAPIEnabled reports whether next should try the direct-API mode.
func (c *Config) DirectAPIEnabled() bool {
	return c.AIProvider.DirectAPICalls && c.AIProvider.Name != ProviderManual
}

// StepLabel strips a leading "NN-" ordinal from a step identifier.
func StepLabel(step string) string {
	for i, r := range step {
		if r >= '0' && r <= '9' {
			continue
		}
		if r == '-' && i > 0 && i < len(step)-1 {
			return step[i+1:]
		}
		break
	}
	return step
}

// ExpandTemplate executes a Go text/template with data.
func ExpandTemplate(tmpl string, data any) (string, error) {
	t, err := template.New("value").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %q: %w", tmpl, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %q: %w", tmpl, err)
	}

	return buf.String(), nil
}
