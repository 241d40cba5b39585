package errors

import "errors"

// CLI errors with actionable guidance.
var (
	// ErrNotAuthenticated indicates the CI service rejected the credential.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrPermissionDenied indicates the credential lacks access to the project.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrConnectionFailed indicates the CI service is unreachable.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrNotInGitRepo indicates the commit or remote could not be read from git.
	ErrNotInGitRepo = errors.New("not in a git repository")
)
