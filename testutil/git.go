package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/randalmurphal/relstage/runner"
)

// RequireTool skips the test when name is not on PATH.
func RequireTool(t *testing.T, name string) {
	t.Helper()
	if _, err := runner.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

// SetupTestRepo creates a temporary git repository with one commit and
// returns its path. Skipped when git is not installed.
func SetupTestRepo(t *testing.T) string {
	t.Helper()
	RequireTool(t, "git")

	dir := t.TempDir()
	Git(t, dir, "init", "-q")
	Git(t, dir, "config", "user.email", "test@test.com")
	Git(t, dir, "config", "user.name", "Test User")
	Git(t, dir, "config", "commit.gpgsign", "false")

	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Test Repository\n"), 0o644); err != nil {
		t.Fatalf("failed to create README: %v", err)
	}
	Git(t, dir, "add", ".")
	Git(t, dir, "commit", "-q", "-m", "Initial commit")

	return dir
}

// SetupTestRepoWithFiles creates a test repo and commits the given files.
func SetupTestRepoWithFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := SetupTestRepo(t)
	for path, content := range files {
		fullPath := filepath.Join(dir, path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", path, err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write file %s: %v", path, err)
		}
	}
	Git(t, dir, "add", ".")
	Git(t, dir, "commit", "-q", "-m", "Add test files")

	return dir
}

// AddRemote adds a remote to the repository.
func AddRemote(t *testing.T, repoDir, name, url string) {
	t.Helper()
	Git(t, repoDir, "remote", "add", name, url)
}

// HeadSHA returns the current HEAD SHA.
func HeadSHA(t *testing.T, repoDir string) string {
	t.Helper()
	return Git(t, repoDir, "rev-parse", "HEAD")
}

// Git runs git in dir and returns its trimmed output, failing the test on
// error.
func Git(t *testing.T, dir string, args ...string) string {
	t.Helper()

	out, err := runner.NewExecRunner().Run(context.Background(), dir, "git", args...)
	if err != nil {
		t.Fatalf("git %v: %v", args, err)
	}
	return out
}
