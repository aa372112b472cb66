package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// FileName is the manifest file name at the project root.
const FileName = ".aisdlc"

// Sentinel errors for manifest loading.
var (
	// ErrManifestMissing indicates the .aisdlc file does not exist.
	ErrManifestMissing = errors.New("manifest not found")

	// ErrManifestCorrupt indicates the .aisdlc file is not valid TOML.
	ErrManifestCorrupt = errors.New("manifest is corrupt")

	// ErrManifestInvalid indicates the .aisdlc file parsed but failed validation.
	ErrManifestInvalid = errors.New("manifest is invalid")
)

// requiredKeys must be present in the file itself; they are never defaulted.
var requiredKeys = []string{"version", "steps", "active_dir", "done_dir", "prompt_dir"}

var safeName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Loader handles Viper-based manifest loading.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new [Loader] with defaults and env bindings registered.
func NewLoader() *Loader {
	v := viper.New()
	d := DefaultConfig()

	v.SetDefault("slug_rule", d.SlugRule)
	v.SetDefault("prompt_file", d.PromptFile)
	v.SetDefault("agent.mode", d.Agent.Mode)
	v.SetDefault("agent.binary_path", d.Agent.BinaryPath)
	v.SetDefault("agent.args", d.Agent.Args)
	v.SetDefault("agent.stdin", d.Agent.Stdin)
	v.SetDefault("agent.output_format", d.Agent.OutputFormat)
	v.SetDefault("agent.timeout_seconds", d.Agent.TimeoutSeconds)
	v.SetDefault("ai_provider.name", d.AIProvider.Name)
	v.SetDefault("ai_provider.direct_api_calls", d.AIProvider.DirectAPICalls)
	v.SetDefault("ai_provider.timeout_seconds", d.AIProvider.TimeoutSeconds)
	v.SetDefault("ai_provider.max_tokens", d.AIProvider.MaxTokens)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("context.enabled", d.Context.Enabled)

	_ = v.BindEnv("agent.binary_path", "AISDLC_AGENT_PATH")
	_ = v.BindEnv("agent.timeout_seconds", "AISDLC_AGENT_TIMEOUT")

	return &Loader{v: v}
}

// Load reads the manifest from the project root.
func (l *Loader) Load(root string) (*Config, error) {
	return l.LoadFromFile(filepath.Join(root, FileName))
}

// LoadFromFile reads, decodes and validates the manifest at path.
//
// Returns [ErrManifestMissing] if the file is absent, [ErrManifestCorrupt] if
// it is not valid TOML, and [ErrManifestInvalid] if required keys are missing
// or values are out of range. No partial configuration is returned on error.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrManifestMissing, path)
		}
		return nil, fmt.Errorf("failed to stat manifest: %w", err)
	}

	l.v.SetConfigFile(path)
	l.v.SetConfigType("toml")
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrManifestCorrupt, path, err)
	}

	var problems []string
	for _, key := range requiredKeys {
		if !l.v.InConfig(key) {
			problems = append(problems, fmt.Sprintf("missing required key %q", key))
		}
	}
	if l.v.InConfig("steps") {
		switch l.v.Get("steps").(type) {
		case []any, []string:
		default:
			problems = append(problems, "steps must be an array of strings")
		}
	}
	if l.v.InConfig("ai_provider") && !l.v.InConfig("ai_provider.direct_api_calls") {
		problems = append(problems, "ai_provider.direct_api_calls is required when [ai_provider] is present")
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrManifestInvalid, strings.Join(problems, "; "))
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrManifestCorrupt, path, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks semantic constraints on a decoded [Config].
//
// All problems are collected and reported together, joined by "; ".
func Validate(cfg *Config) error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(cfg.Version) == "" {
		add("version must not be empty")
	}

	if len(cfg.Steps) == 0 {
		add("steps must not be empty")
	}
	seen := make(map[string]bool, len(cfg.Steps))
	for _, s := range cfg.Steps {
		if !safeName.MatchString(s) {
			add("step %q is not a valid identifier", s)
		}
		if seen[s] {
			add("duplicate step %q", s)
		}
		seen[s] = true
	}

	dirs := map[string]string{
		"active_dir": cfg.ActiveDir,
		"done_dir":   cfg.DoneDir,
		"prompt_dir": cfg.PromptDir,
	}
	for _, key := range []string{"active_dir", "done_dir", "prompt_dir"} {
		if !safeName.MatchString(dirs[key]) || dirs[key] == ".." {
			add("%s %q must be a simple directory name", key, dirs[key])
		}
	}
	if cfg.ActiveDir != "" && cfg.ActiveDir == cfg.DoneDir {
		add("active_dir and done_dir must differ")
	}

	if cfg.SlugRule != SlugRuleKebab {
		add("unsupported slug_rule %q", cfg.SlugRule)
	}

	if len(cfg.Steps) > 0 {
		name, err := cfg.PromptFileName(cfg.Steps[0])
		switch {
		case err != nil:
			add("prompt_file: %v", err)
		case name == "" || strings.ContainsAny(name, `/\`):
			add("prompt_file must expand to a simple file name, got %q", name)
		}
	}

	switch cfg.Agent.Mode {
	case AgentModeCommand:
		if cfg.Agent.BinaryPath == "" {
			add("agent.binary_path must not be empty")
		}
	case AgentModeManual:
	default:
		add("unsupported agent.mode %q", cfg.Agent.Mode)
	}
	switch cfg.Agent.OutputFormat {
	case OutputFormatText, OutputFormatStreamJSON:
	default:
		add("unsupported agent.output_format %q", cfg.Agent.OutputFormat)
	}
	if cfg.Agent.TimeoutSeconds <= 0 {
		add("agent.timeout_seconds must be positive")
	}

	switch cfg.AIProvider.Name {
	case ProviderManual, ProviderAnthropic, ProviderOpenAI, ProviderGemini, ProviderOllama:
	default:
		add("unsupported ai_provider.name %q", cfg.AIProvider.Name)
	}
	if cfg.AIProvider.TimeoutSeconds <= 0 {
		add("ai_provider.timeout_seconds must be positive")
	}
	if cfg.AIProvider.MaxTokens <= 0 {
		add("ai_provider.max_tokens must be positive")
	}
	if cfg.DirectAPIEnabled() && cfg.AIProvider.Name != ProviderOllama && cfg.AIProvider.APIKeyEnvVar == "" {
		add("ai_provider.api_key_env_var is required for %s", cfg.AIProvider.Name)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrManifestInvalid, strings.Join(problems, "; "))
	}
	return nil
}

const defaultHeader = `# aisdlc project manifest.
# steps defines the only allowed order; each step needs a prompt template in prompt_dir.

`

// RenderDefault renders [DefaultConfig] as TOML for init.
func RenderDefault() ([]byte, error) {
	data, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to render default manifest: %w", err)
	}
	return append([]byte(defaultHeader), data...), nil
}
