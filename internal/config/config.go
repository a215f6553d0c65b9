// Package config provides centralized configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration values for caibook.
type Config struct {
	DataDir       string        `mapstructure:"data_dir" yaml:"data_dir"`
	LogLevel      string        `mapstructure:"log_level" yaml:"log_level"`
	LogFile       string        `mapstructure:"log_file" yaml:"log_file"`
	EmailDomain   string        `mapstructure:"email_domain" yaml:"email_domain"`
	SubmitTimeout time.Duration `mapstructure:"submit_timeout" yaml:"submit_timeout"`
	Headless      bool          `mapstructure:"headless" yaml:"headless"`
	MCPPort       int           `mapstructure:"mcp_port" yaml:"mcp_port"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() *Config {
	return &Config{
		DataDir:       ".caibook",
		LogLevel:      "info",
		EmailDomain:   "uc.cl",
		SubmitTimeout: 10 * time.Second,
	}
}

// envKeys lists every key that can be overridden through CAIBOOK_* variables.
var envKeys = []string{
	"data_dir",
	"log_level",
	"log_file",
	"email_domain",
	"submit_timeout",
	"headless",
	"mcp_port",
}

// Load loads configuration with full precedence:
// CLI flags > ENV vars > project config > XDG global config > defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("caibook")

	def := Defaults()
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_file", def.LogFile)
	v.SetDefault("email_domain", def.EmailDomain)
	v.SetDefault("submit_timeout", def.SubmitTimeout)
	v.SetDefault("headless", def.Headless)
	v.SetDefault("mcp_port", def.MCPPort)

	v.SetEnvPrefix("CAIBOOK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Explicit bindings so Unmarshal sees env-only keys
	for _, key := range envKeys {
		if err := v.BindEnv(key, "CAIBOOK_"+strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	globalPath := GlobalPath()
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	projectPath := ProjectPath()
	if fileExists(projectPath) {
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects values the rest of the program cannot work with.
func (c *Config) Validate() error {
	domain := strings.TrimPrefix(strings.TrimSpace(c.EmailDomain), "@")
	if domain == "" {
		return fmt.Errorf("email_domain must not be empty")
	}
	if strings.ContainsAny(domain, "@ ") {
		return fmt.Errorf("invalid email_domain: %q", c.EmailDomain)
	}
	c.EmailDomain = domain

	if c.SubmitTimeout < 0 {
		return fmt.Errorf("submit_timeout must be >= 0")
	}
	if c.MCPPort < 0 || c.MCPPort > 65535 {
		return fmt.Errorf("mcp_port out of range: %d", c.MCPPort)
	}
	return nil
}

// EmailSuffix returns the institutional suffix addresses must end with, e.g. "@uc.cl".
func (c *Config) EmailSuffix() string {
	return "@" + strings.TrimPrefix(c.EmailDomain, "@")
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path.
// Returns ~/.config/caibook/caibook.yml or $XDG_CONFIG_HOME/caibook/caibook.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "caibook", "caibook.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "caibook", "caibook.yml")
}

// ProjectPath returns the project-local config path.
func ProjectPath() string {
	return "caibook.yml"
}

// WriteGlobal writes the config to the XDG global location.
func WriteGlobal(cfg *Config) error {
	path := GlobalPath()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return write(path, cfg)
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	return write(ProjectPath(), cfg)
}

func write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
