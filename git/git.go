package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/relstage/runner"
)

// Repo runs read-only git queries in a working directory.
type Repo struct {
	dir    string
	runner runner.CommandRunner
}

// NewRepo creates a Repo for dir. A nil runner uses runner.NewExecRunner.
func NewRepo(dir string, r runner.CommandRunner) *Repo {
	if r == nil {
		r = runner.NewExecRunner()
	}
	return &Repo{dir: dir, runner: r}
}

// Dir returns the working directory git runs in.
func (g *Repo) Dir() string {
	return g.dir
}

// HeadSHA returns the full SHA of HEAD.
func (g *Repo) HeadSHA(ctx context.Context) (string, error) {
	sha, err := g.runGit(ctx, "read HEAD", "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	if sha == "" {
		return "", &Error{Op: "read HEAD", Cmd: "git rev-parse HEAD", Err: ErrNotGitRepo}
	}
	return sha, nil
}

// RemoteURL returns the fetch URL of the named remote.
func (g *Repo) RemoteURL(ctx context.Context, name string) (string, error) {
	url, err := g.runGit(ctx, "read remote "+name, "remote", "get-url", name)
	if err != nil {
		return "", err
	}
	if url == "" {
		return "", &Error{Op: "read remote " + name, Cmd: "git remote get-url " + name, Err: ErrNoRemote}
	}
	return url, nil
}

// TopLevel returns the root directory of the working tree.
func (g *Repo) TopLevel(ctx context.Context) (string, error) {
	return g.runGit(ctx, "find top level", "rev-parse", "--show-toplevel")
}

// runGit runs git and classifies common failures.
func (g *Repo) runGit(ctx context.Context, op string, args ...string) (string, error) {
	out, err := g.runner.Run(ctx, g.dir, "git", args...)
	if err == nil {
		return strings.TrimSpace(out), nil
	}

	gitErr := &Error{Op: op, Cmd: "git " + strings.Join(args, " "), Err: err}
	var cmdErr *runner.CommandError
	if errors.As(err, &cmdErr) {
		gitErr.Output = cmdErr.Output
		switch {
		case strings.Contains(cmdErr.Output, "not a git repository"):
			gitErr.Err = fmt.Errorf("%w: %w", ErrNotGitRepo, err)
		case strings.Contains(cmdErr.Output, "No such remote"):
			gitErr.Err = fmt.Errorf("%w: %w", ErrNoRemote, err)
		}
	}
	return "", gitErr
}
