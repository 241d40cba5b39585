package ci

import (
	"context"
	"time"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Conclusion is the outcome of a completed run. It is empty until the run
// completes.
type Conclusion string

const (
	ConclusionSuccess        Conclusion = "success"
	ConclusionFailure        Conclusion = "failure"
	ConclusionCancelled      Conclusion = "cancelled"
	ConclusionSkipped        Conclusion = "skipped"
	ConclusionTimedOut       Conclusion = "timed_out"
	ConclusionActionRequired Conclusion = "action_required"
	ConclusionNeutral        Conclusion = "neutral"
	ConclusionStale          Conclusion = "stale"
)

// Query identifies the run a release is built from.
type Query struct {
	CommitSHA string // Full commit SHA the run was triggered for
	Workflow  string // Workflow or pipeline name, compared case-insensitively
}

// Run is a workflow run (GitHub) or pipeline (GitLab).
type Run struct {
	ID           int64
	Status       Status
	Conclusion   Conclusion
	HeadSHA      string
	WorkflowName string
	HTMLURL      string
	CreatedAt    time.Time
}

// Completed reports whether the run has reached a terminal state.
func (r *Run) Completed() bool {
	return r.Status == StatusCompleted
}

// Succeeded reports whether artifacts may be taken from the run.
func (r *Run) Succeeded() bool {
	return r.Completed() && r.Conclusion == ConclusionSuccess
}

// Artifact references a named archive produced by a run.
type Artifact struct {
	ID        int64
	RunID     int64
	Name      string
	SizeBytes int64
	Expired   bool
}

// Payload is a downloaded artifact archive (zip). It is discarded once its
// contents have been staged.
type Payload struct {
	Name       string
	ArtifactID int64
	Data       []byte
}

// RunFilter narrows ListRuns on the server side.
type RunFilter struct {
	HeadSHA string
}

// Provider is the interface to a CI service.
// Implementations exist for GitHub Actions and GitLab pipelines.
type Provider interface {
	// Name returns the provider identifier ("github", "gitlab").
	Name() string

	// ListRuns lists runs of the project, newest first.
	ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error)

	// ListArtifacts lists the artifacts of a run. name is a hint for
	// providers that can filter server-side; callers still match exactly.
	ListArtifacts(ctx context.Context, runID int64, name string) ([]*Artifact, error)

	// DownloadArtifact returns the zip archive of an artifact.
	DownloadArtifact(ctx context.Context, artifact *Artifact) ([]byte, error)
}
