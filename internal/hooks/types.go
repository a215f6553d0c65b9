package hooks

// Config is the top-level configuration for hooks loaded from .caibook.hooks.yml.
type Config struct {
	Version int         `yaml:"version"`
	Hooks   HooksConfig `yaml:"hooks"`
}

// HooksConfig contains the hooks for each submission outcome.
type HooksConfig struct {
	OnSuccess []*HookConfig `yaml:"on_success"`
	OnFailure []*HookConfig `yaml:"on_failure"`
}

// HookConfig defines a single hook's configuration.
type HookConfig struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout"` // seconds, default 30
}

// DefaultTimeout is the default timeout for hook execution in seconds.
const DefaultTimeout = 30
