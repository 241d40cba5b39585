// Package runner executes external commands such as unzip and git.
//
// ExecRunner resolves binaries with safeexec so a binary in the current
// directory is never picked up ahead of PATH. MockRunner records calls and
// returns canned responses for tests.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/cli/safeexec"
)

// CommandRunner runs a command in a working directory and returns its
// trimmed combined output.
type CommandRunner interface {
	Run(ctx context.Context, workDir string, name string, args ...string) (string, error)
}

// CommandError wraps a failed command with its output.
type CommandError struct {
	Command  string
	Args     []string
	Output   string
	ExitCode int // -1 when the process never ran
	Err      error
}

func (e *CommandError) Error() string {
	if e.Output != "" {
		return e.Output
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "command failed"
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// NewExecRunner creates a runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements CommandRunner.
func (r *ExecRunner) Run(ctx context.Context, workDir string, name string, args ...string) (string, error) {
	bin, err := LookPath(name)
	if err != nil {
		return "", &CommandError{Command: name, Args: args, ExitCode: -1, Err: err}
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		// Some tools (unzip) report failures on stdout.
		output := strings.TrimSpace(stderr.String())
		if output == "" {
			output = strings.TrimSpace(stdout.String())
		}
		return "", &CommandError{
			Command:  name,
			Args:     args,
			Output:   output,
			ExitCode: exitCode,
			Err:      err,
		}
	}

	// Warnings on stderr never leak into the result.
	return strings.TrimSpace(stdout.String()), nil
}

// LookPath resolves a binary name on PATH without consulting the current
// directory.
func LookPath(name string) (string, error) {
	bin, err := safeexec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("find %s: %w", name, err)
	}
	return bin, nil
}
