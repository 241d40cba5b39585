package runner

import (
	"context"
	"errors"
	"testing"
)

func TestExecRunner_Run_Success(t *testing.T) {
	runner := NewExecRunner()

	output, err := runner.Run(context.Background(), "", "echo", "hello")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if output != "hello" {
		t.Errorf("output = %q, want %q", output, "hello")
	}
}

func TestExecRunner_Run_StderrSeparated(t *testing.T) {
	runner := NewExecRunner()

	output, err := runner.Run(context.Background(), "", "sh", "-c", "echo 'warning: refname is ambiguous' >&2; echo abc123")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if output != "abc123" {
		t.Errorf("output = %q, want only stdout %q", output, "abc123")
	}
}

func TestExecRunner_Run_ErrorOutputFromStderr(t *testing.T) {
	runner := NewExecRunner()

	_, err := runner.Run(context.Background(), "", "sh", "-c", "echo partial; echo 'fatal: broken' >&2; exit 3")
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error should be CommandError, got %T", err)
	}
	if cmdErr.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", cmdErr.ExitCode)
	}
	if cmdErr.Output != "fatal: broken" {
		t.Errorf("Output = %q, want stderr text", cmdErr.Output)
	}
}

func TestExecRunner_Run_ErrorOutputFallsBackToStdout(t *testing.T) {
	runner := NewExecRunner()

	_, err := runner.Run(context.Background(), "", "sh", "-c", "echo 'signature not found'; exit 9")
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error should be CommandError, got %T", err)
	}
	if cmdErr.Output != "signature not found" {
		t.Errorf("Output = %q, want stdout text", cmdErr.Output)
	}
}

func TestExecRunner_Run_Error(t *testing.T) {
	runner := NewExecRunner()

	_, err := runner.Run(context.Background(), "", "ls", "/nonexistent/path/that/does/not/exist")
	if err == nil {
		t.Fatal("expected error for nonexistent path")
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error should be CommandError, got %T", err)
	}
	if cmdErr.ExitCode <= 0 {
		t.Errorf("ExitCode = %d, want a positive exit status", cmdErr.ExitCode)
	}
	if cmdErr.Output == "" {
		t.Error("expected ls to report the missing path")
	}
}

func TestExecRunner_Run_MissingBinary(t *testing.T) {
	runner := NewExecRunner()

	_, err := runner.Run(context.Background(), "", "relstage-no-such-binary")
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error should be CommandError, got %T", err)
	}
	if cmdErr.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", cmdErr.ExitCode)
	}
}

func TestCommandError_Error(t *testing.T) {
	t.Run("with output", func(t *testing.T) {
		err := &CommandError{
			Command: "unzip",
			Args:    []string{"-o", "a.zip"},
			Output:  "End-of-central-directory signature not found.",
			Err:     errors.New("exit status 9"),
		}

		got := err.Error()
		want := "End-of-central-directory signature not found."
		if got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
	})

	t.Run("without output", func(t *testing.T) {
		underlying := errors.New("exit status 1")
		err := &CommandError{
			Command: "git",
			Args:    []string{"rev-parse", "HEAD"},
			Err:     underlying,
		}

		if got := err.Error(); got != "exit status 1" {
			t.Errorf("Error() = %q, want %q", got, "exit status 1")
		}
		if !errors.Is(err, underlying) {
			t.Error("errors.Is should return true for underlying error")
		}
	})

	t.Run("no output or error", func(t *testing.T) {
		err := &CommandError{Command: "test"}

		if got := err.Error(); got != "command failed" {
			t.Errorf("Error() = %q, want %q", got, "command failed")
		}
	})
}

func TestMockRunner_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("exact match", func(t *testing.T) {
		runner := NewMockRunner()
		runner.OnCommand("git", "rev-parse", "HEAD").Return("abc123", nil)

		output, err := runner.Run(ctx, "/repo", "git", "rev-parse", "HEAD")
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if output != "abc123" {
			t.Errorf("output = %q, want %q", output, "abc123")
		}
	})

	t.Run("command only match", func(t *testing.T) {
		runner := NewMockRunner()
		runner.Responses["git"] = MockResponse{Stdout: "git response"}

		output, err := runner.Run(ctx, "/repo", "git", "log")
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if output != "git response" {
			t.Errorf("output = %q, want %q", output, "git response")
		}
	})

	t.Run("wildcard match", func(t *testing.T) {
		runner := NewMockRunner()
		runner.OnAnyCommand().Return("wildcard", nil)

		output, err := runner.Run(ctx, "/repo", "any", "command")
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if output != "wildcard" {
			t.Errorf("output = %q, want %q", output, "wildcard")
		}
	})

	t.Run("default response", func(t *testing.T) {
		runner := NewMockRunner()
		runner.DefaultResponse = MockResponse{Stdout: "default"}

		output, err := runner.Run(ctx, "/repo", "cmd")
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if output != "default" {
			t.Errorf("output = %q, want %q", output, "default")
		}
	})

	t.Run("with error", func(t *testing.T) {
		runner := NewMockRunner()
		expectedErr := errors.New("mock error")
		runner.OnCommand("fail").Return("", expectedErr)

		_, err := runner.Run(ctx, "/repo", "fail")
		if err != expectedErr {
			t.Errorf("error = %v, want %v", err, expectedErr)
		}
	})

	t.Run("side effect runs before return", func(t *testing.T) {
		runner := NewMockRunner()
		var seen MockCall
		runner.OnCommand("unzip", "-o", "a.zip").Return("", nil).Do(func(call MockCall) error {
			seen = call
			return nil
		})

		if _, err := runner.Run(ctx, "/work", "unzip", "-o", "a.zip"); err != nil {
			t.Fatalf("Run: %v", err)
		}
		if seen.WorkDir != "/work" || seen.Command != "unzip" {
			t.Errorf("side effect saw %+v", seen)
		}
	})
}

func TestMockRunner_Calls(t *testing.T) {
	runner := NewMockRunner()
	runner.OnAnyCommand().Return("", nil)

	_, _ = runner.Run(context.Background(), "/repo", "git", "status")
	_, _ = runner.Run(context.Background(), "/other", "git", "log")

	if len(runner.Calls) != 2 {
		t.Fatalf("Calls = %d, want 2", len(runner.Calls))
	}
	if runner.Calls[0].Command != "git" {
		t.Errorf("first call command = %q, want %q", runner.Calls[0].Command, "git")
	}
	if runner.Calls[1].WorkDir != "/other" {
		t.Errorf("second call workdir = %q, want %q", runner.Calls[1].WorkDir, "/other")
	}
}
