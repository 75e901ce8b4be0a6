package backend

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ExecBackend implements LLMBackend by running a local command, such as
// "ollama run llama2". The prompt is written to the command's stdin and its
// stdout is the generated text.
type ExecBackend struct {
	shell   string // e.g., "sh", "bash", "zsh"
	command string
}

// ExecConfig holds configuration for the exec backend.
type ExecConfig struct {
	// Command is run through Shell with "-c".
	Command string
	// Shell is the shell to use (default: "sh")
	Shell string
}

// NewExecBackend creates a new exec backend.
func NewExecBackend(cfg ExecConfig) (*ExecBackend, error) {
	if strings.TrimSpace(cfg.Command) == "" {
		return nil, fmt.Errorf("exec backend requires a command")
	}
	shell := cfg.Shell
	if shell == "" {
		shell = "sh"
	}
	return &ExecBackend{shell: shell, command: cfg.Command}, nil
}

// Model returns the command that produces the text.
func (e *ExecBackend) Model() string {
	return e.command
}

// Generate implements LLMBackend. The system and user messages are also
// exported as PROMPTLAB_SYSTEM and PROMPTLAB_USER.
func (e *ExecBackend) Generate(ctx context.Context, req Request) (string, error) {
	cmd := exec.CommandContext(ctx, e.shell, "-c", e.command)

	cmd.Env = append(os.Environ(),
		"PROMPTLAB_SYSTEM="+req.System,
		"PROMPTLAB_USER="+req.User,
	)
	cmd.Stdin = strings.NewReader(stdinPrompt(req))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("local command failed: %w\noutput: %s", err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimRight(stdout.String(), "\r\n"), nil
}

// stdinPrompt joins both messages the way chat CLIs without a system role
// expect them.
func stdinPrompt(req Request) string {
	if req.System == "" {
		return req.User
	}
	return req.System + "\n\n" + req.User
}

// Name implements LLMBackend.
func (e *ExecBackend) Name() string {
	return "exec"
}

// Close implements LLMBackend.
func (e *ExecBackend) Close() error {
	return nil
}
