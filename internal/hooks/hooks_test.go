package hooks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/caibook/caibook/internal/form"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() missing file error = %v", err)
	}
	if cfg != nil {
		t.Fatalf("LoadConfig() missing file = %+v, expected nil", cfg)
	}

	content := `version: 1
hooks:
  on_success:
    - command: "echo ok {{flow}}"
      timeout: 5
  on_failure:
    - command: "echo failed"
`
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err = LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Version = %d, expected 1", cfg.Version)
	}
	if len(cfg.Hooks.OnSuccess) != 1 || cfg.Hooks.OnSuccess[0].Timeout != 5 {
		t.Errorf("OnSuccess = %+v", cfg.Hooks.OnSuccess)
	}
	if len(cfg.Hooks.OnFailure) != 1 || cfg.Hooks.OnFailure[0].Command != "echo failed" {
		t.Errorf("OnFailure = %+v", cfg.Hooks.OnFailure)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("hooks: [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(dir); err == nil {
		t.Fatal("LoadConfig() expected parse error")
	}
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	workDir := t.TempDir()
	vars := Variables{Flow: "register", Session: "abc", Status: "succeeded"}

	tests := []struct {
		name     string
		hook     *HookConfig
		expected string
		contains string
	}{
		{name: "nil hook", hook: nil, expected: ""},
		{name: "empty command", hook: &HookConfig{}, expected: ""},
		{name: "variables", hook: &HookConfig{Command: "echo {{flow}} {{session}} {{status}}"}, expected: "register abc succeeded\n"},
		{name: "environment", hook: &HookConfig{Command: "echo $CAIBOOK_FLOW"}, expected: "register\n"},
		{name: "failure", hook: &HookConfig{Command: "exit 3"}, contains: "[Hook command failed"},
		{name: "stderr", hook: &HookConfig{Command: "echo oops >&2"}, contains: "[stderr]\noops"},
		{name: "timeout", hook: &HookConfig{Command: "sleep 5", Timeout: 1}, contains: "[Hook timed out after 1s]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := Execute(ctx, tt.hook, workDir, vars)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if tt.contains != "" {
				if !strings.Contains(output, tt.contains) {
					t.Errorf("Execute() output = %q, expected to contain %q", output, tt.contains)
				}
				return
			}
			if output != tt.expected {
				t.Errorf("Execute() output = %q, expected %q", output, tt.expected)
			}
		})
	}
}

func TestExecute_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Execute(ctx, &HookConfig{Command: "echo hi"}, t.TempDir(), Variables{})
	if err == nil {
		t.Fatal("Execute() expected context error")
	}
}

func TestExecuteAll(t *testing.T) {
	output, err := ExecuteAll(context.Background(), []*HookConfig{
		{Command: "echo first"},
		{Command: "true"},
		{Command: "echo second"},
	}, t.TempDir(), Variables{})
	if err != nil {
		t.Fatalf("ExecuteAll() error = %v", err)
	}
	if output != "first\n\nsecond\n" {
		t.Errorf("ExecuteAll() output = %q", output)
	}
}

func TestWrap(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{Hooks: HooksConfig{
		OnSuccess: []*HookConfig{{Command: "echo {{status}} > outcome"}},
		OnFailure: []*HookConfig{{Command: "echo '{{status}} {{error}}' > outcome"}},
	}}

	read := func() string {
		data, err := os.ReadFile(filepath.Join(dir, "outcome"))
		if err != nil {
			t.Fatal(err)
		}
		return strings.TrimSpace(string(data))
	}

	ok := Wrap(cfg, dir, "group", "s1", func(context.Context, form.Data) error { return nil })
	if err := ok(context.Background(), form.Data{}); err != nil {
		t.Fatalf("wrapped success returned %v", err)
	}
	if got := read(); got != "succeeded" {
		t.Errorf("success hook wrote %q", got)
	}

	boom := errors.New("boom")
	fail := Wrap(cfg, dir, "group", "s1", func(context.Context, form.Data) error { return boom })
	if err := fail(context.Background(), form.Data{}); !errors.Is(err, boom) {
		t.Fatalf("wrapped failure returned %v, expected boom", err)
	}
	if got := read(); got != "failed boom" {
		t.Errorf("failure hook wrote %q", got)
	}
}

func TestWrap_NilConfig(t *testing.T) {
	called := false
	fn := Wrap(nil, "", "group", "s1", func(context.Context, form.Data) error {
		called = true
		return nil
	})
	if err := fn(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("wrapped function not called")
	}
}
