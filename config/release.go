package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/randalmurphal/relstage/ci"
)

// Configuration errors.
var (
	// ErrMissingCredential indicates no API token was found in any source.
	ErrMissingCredential = errors.New("missing credential")

	// ErrInvalid indicates a configuration value failed validation.
	ErrInvalid = errors.New("invalid configuration")
)

// FieldError describes a single invalid configuration value.
type FieldError struct {
	Key    string
	Value  string
	Reason string
}

func (e *FieldError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("config %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config %s=%q: %s", e.Key, e.Value, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrInvalid }

// providerTokenEnv names the token variable each CI service populates.
var providerTokenEnv = map[string]string{
	"github": "GITHUB_TOKEN",
	"gitlab": "GITLAB_TOKEN",
}

// Release is the typed, validated configuration for one relstage run.
type Release struct {
	Provider string
	Owner    string
	Repo     string
	Remote   string
	BaseURL  string
	Token    string

	Workflow     string
	Commit       string
	Timeout      time.Duration
	PollInterval time.Duration

	WorkDir   string
	OutputDir string

	// Package selects single-package mode: stage exactly this file.
	Package string

	// Artifacts overrides the artifact names fetched in multi-artifact mode.
	Artifacts []string

	WorkspaceArtifact string
	PackageJSON       string
	Version           string

	Concurrency int
	MaxPages    int
	LogLevel    string

	WebhookURL      string
	SlackWebhookURL string
	SlackChannel    string
}

// Load converts resolved values into a Release. It parses durations and
// counts and fills provider details from the remote URL, but does not
// validate; call Validate once derived values such as the commit are known.
func Load(r *Resolved) (*Release, error) {
	rel := &Release{
		Provider:          strings.ToLower(r.Get(KeyProvider)),
		Owner:             r.Get(KeyOwner),
		Repo:              r.Get(KeyRepo),
		Remote:            r.Get(KeyRemote),
		BaseURL:           r.Get(KeyBaseURL),
		Token:             r.Get(KeyToken),
		Workflow:          r.Get(KeyWorkflow),
		Commit:            r.Get(KeyCommit),
		WorkDir:           r.Get(KeyWorkDir),
		OutputDir:         r.Get(KeyOutputDir),
		Package:           r.Get(KeyPackage),
		Artifacts:         splitList(r.Get(KeyArtifacts)),
		WorkspaceArtifact: r.Get(KeyWorkspaceArtifact),
		PackageJSON:       r.Get(KeyPackageJSON),
		Version:           r.Get(KeyVersion),
		LogLevel:          r.Get(KeyLogLevel),
		WebhookURL:        r.Get(KeyWebhookURL),
		SlackWebhookURL:   r.Get(KeySlackWebhookURL),
		SlackChannel:      r.Get(KeySlackChannel),
	}

	var err error
	if rel.Timeout, err = parseDuration(r, KeyTimeout); err != nil {
		return nil, err
	}
	if rel.PollInterval, err = parseDuration(r, KeyPollInterval); err != nil {
		return nil, err
	}
	if rel.Concurrency, err = parseInt(r, KeyConcurrency); err != nil {
		return nil, err
	}
	if rel.MaxPages, err = parseInt(r, KeyMaxPages); err != nil {
		return nil, err
	}

	pc, err := rel.ProviderConfig().Complete()
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", KeyRemote, err)
	}
	rel.Provider, rel.Owner, rel.Repo, rel.BaseURL = pc.Kind, pc.Owner, pc.Repo, pc.BaseURL

	if rel.Token == "" {
		if name, ok := providerTokenEnv[rel.Provider]; ok {
			rel.Token = os.Getenv(name)
		}
	}

	return rel, nil
}

// Validate checks the configuration before any network call is made.
func (rel *Release) Validate() error {
	if _, ok := providerTokenEnv[rel.Provider]; !ok {
		if rel.Provider == "" {
			return &FieldError{Key: KeyProvider, Reason: "not set and no remote to detect it from"}
		}
		return &FieldError{Key: KeyProvider, Value: rel.Provider, Reason: "must be github or gitlab"}
	}
	if rel.Token == "" {
		return fmt.Errorf("%w: set RELSTAGE_TOKEN, PUBLIC_ARTIFACTS_TOKEN or %s",
			ErrMissingCredential, providerTokenEnv[rel.Provider])
	}
	if rel.Owner == "" || rel.Repo == "" {
		return &FieldError{Key: KeyRepo, Value: rel.Slug(), Reason: "owner and repo are required"}
	}
	if strings.TrimSpace(rel.Workflow) == "" {
		return &FieldError{Key: KeyWorkflow, Reason: "must not be empty"}
	}
	if rel.Commit == "" {
		return &FieldError{Key: KeyCommit, Reason: "could not be determined"}
	}
	if rel.Timeout <= 0 {
		return &FieldError{Key: KeyTimeout, Value: rel.Timeout.String(), Reason: "must be positive"}
	}
	if rel.PollInterval <= 0 {
		return &FieldError{Key: KeyPollInterval, Value: rel.PollInterval.String(), Reason: "must be positive"}
	}
	if rel.Concurrency < 1 {
		return &FieldError{Key: KeyConcurrency, Value: strconv.Itoa(rel.Concurrency), Reason: "must be at least 1"}
	}
	if rel.OutputDir == "" {
		return &FieldError{Key: KeyOutputDir, Reason: "must not be empty"}
	}
	if rel.Package == "" && len(rel.Artifacts) == 0 && rel.WorkspaceArtifact == "" {
		return &FieldError{Key: KeyArtifacts, Reason: "no artifacts requested"}
	}
	return nil
}

// ProviderConfig returns the CI provider settings.
func (rel *Release) ProviderConfig() ci.ProviderConfig {
	return ci.ProviderConfig{
		Kind:      rel.Provider,
		Token:     rel.Token,
		Owner:     rel.Owner,
		Repo:      rel.Repo,
		RemoteURL: rel.Remote,
		BaseURL:   rel.BaseURL,
		MaxPages:  rel.MaxPages,
	}
}

// Slug returns "owner/repo".
func (rel *Release) Slug() string {
	return rel.Owner + "/" + rel.Repo
}

func parseDuration(r *Resolved, key string) (time.Duration, error) {
	raw := r.Get(key)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		// Bare numbers are seconds, matching CI variables like TIMEOUT=900.
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			return time.Duration(n) * time.Second, nil
		}
		return 0, &FieldError{Key: key, Value: raw, Reason: "not a duration"}
	}
	return d, nil
}

func parseInt(r *Resolved, key string) (int, error) {
	raw := r.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &FieldError{Key: key, Value: raw, Reason: "not an integer"}
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
