package release

import (
	"time"

	"github.com/randalmurphal/relstage/ci"
	"github.com/randalmurphal/relstage/stage"
)

// State flows through the release graph.
type State struct {
	// Identification
	ID    string   `json:"id"`
	Query ci.Query `json:"query"`

	// Input
	Requests []ArtifactRequest `json:"requests"`

	// Progress
	Run      *ci.Run       `json:"run,omitempty"`
	Payloads []*ci.Payload `json:"-"`
	Files    []stage.File  `json:"files,omitempty"`

	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration,omitempty"`

	// Error tracking
	Error string `json:"error,omitempty"`
}

// Requirement is a state validation requirement.
type Requirement func(State) error

// RequireRun requires a located, successful run.
func RequireRun(s State) error {
	if s.Run == nil {
		return errStateMissing("run")
	}
	return nil
}

// RequirePayloads requires one fetched payload per request.
func RequirePayloads(s State) error {
	if len(s.Payloads) != len(s.Requests) {
		return errStateMissing("payloads")
	}
	return nil
}

// Validate checks that all requirements are met.
func (s State) Validate(reqs ...Requirement) error {
	for _, req := range reqs {
		if err := req(s); err != nil {
			return err
		}
	}
	return nil
}

// SetError records an error message on the state.
func (s *State) SetError(err error) {
	if err != nil {
		s.Error = err.Error()
	}
}

// FileNames returns the staged file names in order.
func (s State) FileNames() []string {
	names := make([]string, len(s.Files))
	for i, f := range s.Files {
		names[i] = f.Name
	}
	return names
}

// ArtifactNames returns the requested artifact names in order.
func (s State) ArtifactNames() []string {
	names := make([]string, len(s.Requests))
	for i, r := range s.Requests {
		names[i] = r.Name
	}
	return names
}
