package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points XDG and the working directory at fresh temp dirs and clears
// every CAIBOOK_* override.
func isolate(t *testing.T) (xdgDir, workDir string) {
	t.Helper()
	xdgDir = t.TempDir()
	workDir = t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdgDir)
	for _, key := range envKeys {
		t.Setenv("CAIBOOK_"+key, "")
		_ = os.Unsetenv("CAIBOOK_" + key)
	}
	t.Chdir(workDir)
	return xdgDir, workDir
}

func TestGlobalPath(t *testing.T) {
	t.Run("with XDG_CONFIG_HOME set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		assert.Equal(t, "/custom/config/caibook/caibook.yml", GlobalPath())
	})

	t.Run("without XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		got := GlobalPath()
		assert.True(t, filepath.IsAbs(got), "GlobalPath() should be absolute, got %s", got)
		assert.Equal(t, "caibook.yml", filepath.Base(got))
	})
}

func TestProjectPath(t *testing.T) {
	assert.Equal(t, "caibook.yml", ProjectPath())
}

func TestLoad_NoConfig(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ".caibook", cfg.DataDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "uc.cl", cfg.EmailDomain)
	assert.Equal(t, 10*time.Second, cfg.SubmitTimeout)
	assert.False(t, cfg.Headless)
	assert.Equal(t, "@uc.cl", cfg.EmailSuffix())
}

func TestLoad_Precedence(t *testing.T) {
	xdgDir, workDir := isolate(t)

	globalDir := filepath.Join(xdgDir, "caibook")
	require.NoError(t, os.MkdirAll(globalDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "caibook.yml"),
		[]byte("email_domain: puc.cl\nlog_level: warn\nsubmit_timeout: 3s\n"), 0644))

	require.NoError(t, os.WriteFile(filepath.Join(workDir, "caibook.yml"),
		[]byte("log_level: debug\n"), 0644))

	t.Setenv("CAIBOOK_DATA_DIR", "/tmp/caibook-data")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "puc.cl", cfg.EmailDomain, "global config applies")
	assert.Equal(t, "debug", cfg.LogLevel, "project config overrides global")
	assert.Equal(t, 3*time.Second, cfg.SubmitTimeout)
	assert.Equal(t, "/tmp/caibook-data", cfg.DataDir, "env overrides files")
}

func TestLoad_InvalidDomain(t *testing.T) {
	isolate(t)
	t.Setenv("CAIBOOK_EMAIL_DOMAIN", "bad domain")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "leading at is stripped", mutate: func(c *Config) { c.EmailDomain = "@uc.cl" }},
		{name: "empty domain", mutate: func(c *Config) { c.EmailDomain = " " }, wantErr: true},
		{name: "domain with at", mutate: func(c *Config) { c.EmailDomain = "a@uc.cl" }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.SubmitTimeout = -time.Second }, wantErr: true},
		{name: "port out of range", mutate: func(c *Config) { c.MCPPort = 70000 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "uc.cl", cfg.EmailDomain)
		})
	}
}

func TestWriteGlobal(t *testing.T) {
	xdgDir, _ := isolate(t)

	cfg := Defaults()
	cfg.EmailDomain = "puc.cl"
	require.NoError(t, WriteGlobal(cfg))

	data, err := os.ReadFile(filepath.Join(xdgDir, "caibook", "caibook.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "email_domain: puc.cl")
	assert.True(t, Exists())
}

func TestWriteProject(t *testing.T) {
	_, workDir := isolate(t)
	assert.False(t, Exists())

	require.NoError(t, WriteProject(Defaults()))

	data, err := os.ReadFile(filepath.Join(workDir, "caibook.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "data_dir: .caibook")
	assert.True(t, Exists())
}
