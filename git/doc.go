// Package git reads the repository facts relstage needs from a checkout:
// the HEAD commit, the URL of a remote, and the top-level directory.
//
// Core types:
//   - Repo: a working directory plus the command runner used to invoke git
//   - Error: a failed git command with its output
//
// Example usage:
//
//	repo := git.NewRepo(".", runner.NewExecRunner())
//	sha, err := repo.HeadSHA(ctx)
//	url, err := repo.RemoteURL(ctx, "origin")
package git
