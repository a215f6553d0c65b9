package hooks

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/caibook/caibook/internal/form"
	"github.com/caibook/caibook/internal/logger"
)

// ConfigFileName is the name of the hooks configuration file.
const ConfigFileName = ".caibook.hooks.yml"

// LoadConfig loads the hooks configuration from the working directory.
// Returns nil if the config file doesn't exist (hooks are optional).
// Returns an error only if the file exists but cannot be parsed.
func LoadConfig(workDir string) (*Config, error) {
	configPath := filepath.Join(workDir, ConfigFileName)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("No hooks config found at %s", configPath)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read hooks config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse hooks config: %w", err)
	}

	logger.Debug("Loaded hooks config from %s (version: %d)", configPath, cfg.Version)
	return &cfg, nil
}

// Variables holds template variables that can be expanded in hook commands.
type Variables struct {
	Flow    string
	Session string
	Status  string
	Error   string
}

// Execute runs a hook command and returns its output.
// Template variables in the command ({{flow}}, {{session}}, {{status}}, {{error}})
// are expanded before execution. Hook failures are reported in the output, not
// as an error; only context cancellation is returned as an error.
func Execute(ctx context.Context, hook *HookConfig, workDir string, vars Variables) (string, error) {
	if hook == nil || hook.Command == "" {
		return "", nil
	}

	command := expandVariables(hook.Command, vars)
	logger.Debug("Executing hook command: %s", command)

	timeout := hook.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "sh", "-c", command)
	cmd.Dir = workDir
	cmd.WaitDelay = time.Second
	cmd.Env = append(os.Environ(),
		"CAIBOOK_FLOW="+vars.Flow,
		"CAIBOOK_SESSION="+vars.Session,
		"CAIBOOK_STATUS="+vars.Status,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	if execCtx.Err() == context.DeadlineExceeded {
		logger.Warn("Hook command timed out after %ds: %s", timeout, command)
		return fmt.Sprintf("[Hook timed out after %ds]\nPartial output:\n%s", timeout, stdout.String()), nil
	}

	if err != nil {
		logger.Warn("Hook command failed: %v", err)
		output := stdout.String()
		if stderr.Len() > 0 {
			output += "\n[stderr]\n" + stderr.String()
		}
		return fmt.Sprintf("[Hook command failed: %v]\n%s", err, output), nil
	}

	output := stdout.String()
	if stderr.Len() > 0 {
		output += "\n[stderr]\n" + stderr.String()
	}
	return output, nil
}

// ExecuteAll runs hooks in order and joins their non-empty outputs with a
// blank line. It stops at the first context error.
func ExecuteAll(ctx context.Context, hooks []*HookConfig, workDir string, vars Variables) (string, error) {
	var outputs []string
	for _, hook := range hooks {
		out, err := Execute(ctx, hook, workDir, vars)
		if err != nil {
			return strings.Join(outputs, "\n"), err
		}
		if out != "" {
			outputs = append(outputs, out)
		}
	}
	return strings.Join(outputs, "\n"), nil
}

// Wrap returns a submit function that runs fn and then the hooks matching
// its outcome. The hooks never change the outcome; their output is logged.
// A nil cfg returns fn unchanged.
func Wrap(cfg *Config, workDir, flow, session string, fn form.SubmitFunc) form.SubmitFunc {
	if cfg == nil {
		return fn
	}
	return func(ctx context.Context, data form.Data) error {
		err := fn(ctx, data)

		vars := Variables{Flow: flow, Session: session, Status: string(form.StatusSucceeded)}
		hooks := cfg.Hooks.OnSuccess
		if err != nil {
			vars.Status = string(form.StatusFailed)
			vars.Error = err.Error()
			hooks = cfg.Hooks.OnFailure
		}

		// Hooks get their own context so a cancelled submission still reports.
		out, herr := ExecuteAll(context.WithoutCancel(ctx), hooks, workDir, vars)
		if herr != nil {
			logger.Warn("Hooks for %s/%s interrupted: %v", flow, session, herr)
		} else if out != "" {
			logger.Info("Hook output for %s/%s: %s", flow, session, strings.TrimSpace(out))
		}
		return err
	}
}

// expandVariables replaces {{variable}} placeholders in the command string.
func expandVariables(command string, vars Variables) string {
	return strings.NewReplacer(
		"{{flow}}", vars.Flow,
		"{{session}}", vars.Session,
		"{{status}}", vars.Status,
		"{{error}}", vars.Error,
	).Replace(command)
}
