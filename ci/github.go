package ci

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	rshttp "github.com/randalmurphal/relstage/http"
)

const (
	// perPage is the page size requested from list endpoints.
	perPage = 100

	// DefaultMaxPages caps how many pages of runs or artifacts are read.
	DefaultMaxPages = 10
)

// GitHubProvider implements Provider for GitHub Actions.
type GitHubProvider struct {
	client   *github.Client
	blobs    *rshttp.Client
	owner    string
	repo     string
	maxPages int
}

// GitHubOption configures GitHubProvider.
type GitHubOption func(*GitHubProvider) error

// WithGitHubEnterpriseURL points the provider at a GitHub Enterprise Server.
func WithGitHubEnterpriseURL(baseURL string) GitHubOption {
	return func(p *GitHubProvider) error {
		client, err := p.client.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return fmt.Errorf("set enterprise URL: %w", err)
		}
		p.client = client
		return nil
	}
}

// WithGitHubMaxPages caps list pagination. Zero or less means unlimited.
func WithGitHubMaxPages(n int) GitHubOption {
	return func(p *GitHubProvider) error {
		p.maxPages = n
		return nil
	}
}

// NewGitHubProvider creates a new GitHub Actions provider.
// token is a personal access token or GitHub App token with actions:read.
// owner and repo identify the repository (e.g., "acme", "widgets").
func NewGitHubProvider(token, owner, repo string, opts ...GitHubOption) (*GitHubProvider, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token is required")
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("owner and repo are required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)

	p := &GitHubProvider{
		client:   github.NewClient(tc),
		blobs:    newBlobClient("github"),
		owner:    owner,
		repo:     repo,
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// NewGitHubProviderFromURL creates a GitHub provider from a remote URL.
// Example: "https://github.com/acme/widgets.git"
func NewGitHubProviderFromURL(token, remoteURL string, opts ...GitHubOption) (*GitHubProvider, error) {
	owner, repo, err := ParseRepoFromURL(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("parse remote URL: %w", err)
	}
	return NewGitHubProvider(token, owner, repo, opts...)
}

// newBlobClient returns the unauthenticated client used for pre-signed
// artifact locations. Sending the API token there is rejected by the storage
// backend.
func newBlobClient(service string) *rshttp.Client {
	return rshttp.NewClient(rshttp.ClientConfig{
		ServiceName: service + "-artifacts",
	})
}

// Name implements Provider.
func (p *GitHubProvider) Name() string { return "github" }

// ListRuns implements Provider.
func (p *GitHubProvider) ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/actions/runs", p.owner, p.repo)

	it := rshttp.NewPageIterator(func(ctx context.Context, page int) ([]*Run, bool, error) {
		opts := &github.ListWorkflowRunsOptions{
			HeadSHA:     filter.HeadSHA,
			ListOptions: github.ListOptions{Page: page, PerPage: perPage},
		}
		result, resp, err := p.client.Actions.ListRepositoryWorkflowRuns(ctx, p.owner, p.repo, opts)
		if err != nil {
			return nil, false, githubError(endpoint, resp, err)
		}

		runs := make([]*Run, 0, len(result.WorkflowRuns))
		for _, wr := range result.WorkflowRuns {
			runs = append(runs, runFromGitHub(wr))
		}
		return runs, resp.NextPage != 0, nil
	}).WithMaxPages(p.maxPages)

	runs, err := it.All(ctx)
	if errors.Is(err, rshttp.ErrPageLimit) {
		slog.Warn("run listing truncated at page limit",
			"repo", p.owner+"/"+p.repo,
			"max_pages", p.maxPages,
			"runs", len(runs),
		)
		return runs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list workflow runs: %w", err)
	}
	return runs, nil
}

// ListArtifacts implements Provider. The endpoint accepts a name filter but
// go-github's ListWorkflowRunArtifacts only takes ListOptions, so every
// artifact of the run is returned and the Fetcher selects by name.
func (p *GitHubProvider) ListArtifacts(ctx context.Context, runID int64, _ string) ([]*Artifact, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/actions/runs/%d/artifacts", p.owner, p.repo, runID)

	it := rshttp.NewPageIterator(func(ctx context.Context, page int) ([]*Artifact, bool, error) {
		result, resp, err := p.client.Actions.ListWorkflowRunArtifacts(ctx, p.owner, p.repo, runID,
			&github.ListOptions{Page: page, PerPage: perPage})
		if err != nil {
			return nil, false, githubError(endpoint, resp, err)
		}

		artifacts := make([]*Artifact, 0, len(result.Artifacts))
		for _, a := range result.Artifacts {
			artifacts = append(artifacts, &Artifact{
				ID:        a.GetID(),
				RunID:     runID,
				Name:      a.GetName(),
				SizeBytes: a.GetSizeInBytes(),
				Expired:   a.GetExpired(),
			})
		}
		return artifacts, resp.NextPage != 0, nil
	}).WithMaxPages(p.maxPages)

	artifacts, err := it.All(ctx)
	if errors.Is(err, rshttp.ErrPageLimit) {
		slog.Warn("artifact listing truncated at page limit",
			"run_id", runID,
			"max_pages", p.maxPages,
		)
		return artifacts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list run artifacts: %w", err)
	}
	return artifacts, nil
}

// DownloadArtifact implements Provider. The API answers with a redirect to a
// short-lived storage URL, which is fetched without credentials.
func (p *GitHubProvider) DownloadArtifact(ctx context.Context, artifact *Artifact) ([]byte, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/actions/artifacts/%d/zip", p.owner, p.repo, artifact.ID)

	location, resp, err := p.client.Actions.DownloadArtifact(ctx, p.owner, p.repo, artifact.ID, 1)
	if err != nil {
		return nil, githubError(endpoint, resp, err)
	}

	data, err := p.blobs.Download(ctx, location.String())
	if err != nil {
		return nil, fmt.Errorf("download artifact %q: %w", artifact.Name, err)
	}
	return data, nil
}

func runFromGitHub(wr *github.WorkflowRun) *Run {
	run := &Run{
		ID:           wr.GetID(),
		Status:       statusFromGitHub(wr.GetStatus()),
		HeadSHA:      wr.GetHeadSHA(),
		WorkflowName: wr.GetName(),
		HTMLURL:      wr.GetHTMLURL(),
		CreatedAt:    wr.GetCreatedAt().Time,
	}
	if run.Status == StatusCompleted {
		run.Conclusion = Conclusion(wr.GetConclusion())
	}
	return run
}

// statusFromGitHub folds GitHub's extra pending states (waiting, requested,
// pending) into queued.
func statusFromGitHub(status string) Status {
	switch status {
	case "completed":
		return StatusCompleted
	case "in_progress":
		return StatusInProgress
	default:
		return StatusQueued
	}
}

func githubError(endpoint string, resp *github.Response, err error) error {
	var httpResp *http.Response
	if resp != nil {
		httpResp = resp.Response
	}
	return apiError("github", endpoint, httpResp, "X-GitHub-Request-Id", err)
}

// apiError converts a failed SDK call into an *rshttp.APIError when the
// service answered, so callers can use the rshttp predicates.
func apiError(service, endpoint string, resp *http.Response, requestIDHeader string, err error) error {
	if resp == nil || resp.StatusCode < 400 {
		return fmt.Errorf("%s %s: %w", service, endpoint, err)
	}
	return &rshttp.APIError{
		Service:    service,
		StatusCode: resp.StatusCode,
		Message:    err.Error(),
		Endpoint:   endpoint,
		RequestID:  resp.Header.Get(requestIDHeader),
	}
}
