package ci

import (
	"errors"
	"fmt"
	"time"
)

// CI errors
var (
	// ErrNotFound indicates no run or artifact matched.
	ErrNotFound = errors.New("not found")

	// ErrTimeout indicates the run did not complete before the deadline.
	ErrTimeout = errors.New("timed out waiting for run")

	// ErrRunFailed indicates the run completed without succeeding.
	ErrRunFailed = errors.New("run did not succeed")

	// ErrAmbiguousArtifact indicates more than one artifact has the requested name.
	ErrAmbiguousArtifact = errors.New("ambiguous artifact name")

	// ErrArtifactExpired indicates the artifact exists but can no longer be downloaded.
	ErrArtifactExpired = errors.New("artifact expired")

	// ErrUnknownProvider indicates the remote does not belong to a supported CI service.
	ErrUnknownProvider = errors.New("unknown CI provider")
)

// NotFoundError reports a run or artifact that could not be resolved.
type NotFoundError struct {
	Kind      string // "run" or "artifact"
	Name      string // Workflow or artifact name
	CommitSHA string
	RunID     int64
}

func (e *NotFoundError) Error() string {
	if e.Kind == "artifact" {
		return fmt.Sprintf("artifact %q not found in run %d", e.Name, e.RunID)
	}
	return fmt.Sprintf("no run of workflow %q found for commit %s", e.Name, e.CommitSHA)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// TimeoutError reports a run that was still pending at the deadline.
type TimeoutError struct {
	Query   Query
	Timeout time.Duration
	Status  Status // Last observed status
	URL     string
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("run of workflow %q for commit %s still %s after %s",
		e.Query.Workflow, e.Query.CommitSHA, e.Status, e.Timeout)
	if e.URL != "" {
		msg += " (" + e.URL + ")"
	}
	return msg
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// RunFailedError reports a run that completed with a non-success conclusion.
type RunFailedError struct {
	RunID      int64
	Workflow   string
	Conclusion Conclusion
	URL        string
}

func (e *RunFailedError) Error() string {
	msg := fmt.Sprintf("run %d of workflow %q concluded %q", e.RunID, e.Workflow, e.Conclusion)
	if e.URL != "" {
		msg += ": " + e.URL
	}
	return msg
}

func (e *RunFailedError) Unwrap() error { return ErrRunFailed }

// AmbiguousArtifactError reports several artifacts sharing one name.
type AmbiguousArtifactError struct {
	Name  string
	RunID int64
	Count int
}

func (e *AmbiguousArtifactError) Error() string {
	return fmt.Sprintf("run %d has %d artifacts named %q", e.RunID, e.Count, e.Name)
}

func (e *AmbiguousArtifactError) Unwrap() error { return ErrAmbiguousArtifact }
