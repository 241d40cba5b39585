package release

import (
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/randalmurphal/relstage/ci"
	"github.com/randalmurphal/relstage/notify"
)

// DefaultPattern selects the files staged in multi-artifact mode.
const DefaultPattern = "*.tgz"

// DefaultWorkspaceArtifact is the artifact holding every workspace package.
const DefaultWorkspaceArtifact = "workspace-packages"

// Config is everything the orchestrator needs for one release preparation.
type Config struct {
	// Commit and Workflow identify the CI run.
	Commit   string
	Workflow string

	// Version is the release version, reported in events.
	Version string

	// PrimaryArtifact is the artifact named after the main package tarball.
	PrimaryArtifact string

	// WorkspaceArtifact holds the workspace package tarballs.
	WorkspaceArtifact string

	// Package selects single-package mode: only this file is staged.
	Package string

	// Artifacts overrides the artifact names fetched in multi-artifact mode.
	Artifacts []string

	// Pattern is the file pattern staged from each artifact in
	// multi-artifact mode. Defaults to DefaultPattern.
	Pattern string

	Timeout      time.Duration
	PollInterval time.Duration
	Concurrency  int

	Notifier notify.Notifier
	Logger   *slog.Logger

	// Now replaces the wall clock in the wait deadline.
	Now func() time.Time
}

// ArtifactRequest is one artifact to fetch and the files expected inside it.
type ArtifactRequest struct {
	Name   string
	Expect []string
}

// Query returns the run query for this release.
func (c Config) Query() ci.Query {
	return ci.Query{CommitSHA: c.Commit, Workflow: c.Workflow}
}

// SingleMode reports whether one named package is being prepared.
func (c Config) SingleMode() bool {
	return c.Package != ""
}

// Requests expands the configuration into the artifacts to fetch.
//
// In single-package mode the package comes from the primary artifact when it
// is the primary tarball, otherwise from the workspace artifact. In
// multi-artifact mode each named artifact is fetched and every file matching
// Pattern is staged from it.
func (c Config) Requests() ([]ArtifactRequest, error) {
	workspace := c.WorkspaceArtifact
	if workspace == "" {
		workspace = DefaultWorkspaceArtifact
	}

	if c.SingleMode() {
		// Extracted paths are matched in cleaned form, so "./pkg.tgz" is "pkg.tgz".
		pkg := path.Clean(c.Package)
		source := workspace
		if pkg == c.PrimaryArtifact {
			source = c.PrimaryArtifact
		}
		return []ArtifactRequest{{Name: source, Expect: []string{pkg}}}, nil
	}

	pattern := c.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}

	names := c.Artifacts
	if len(names) == 0 {
		if c.PrimaryArtifact != "" {
			names = append(names, c.PrimaryArtifact)
		}
		names = append(names, workspace)
	}

	seen := make(map[string]bool, len(names))
	requests := make([]ArtifactRequest, 0, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, fmt.Errorf("artifact %q requested twice", name)
		}
		seen[name] = true
		requests = append(requests, ArtifactRequest{Name: name, Expect: []string{pattern}})
	}
	return requests, nil
}

func (c Config) validate() error {
	if c.Commit == "" {
		return fmt.Errorf("commit is required")
	}
	if c.Workflow == "" {
		return fmt.Errorf("workflow is required")
	}
	return nil
}
