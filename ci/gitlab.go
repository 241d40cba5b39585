package ci

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/xanzy/go-gitlab"

	rshttp "github.com/randalmurphal/relstage/http"
)

// GitLabProvider implements Provider for GitLab pipelines. A pipeline is a
// run, and each job that uploaded artifacts is an artifact named after the job.
type GitLabProvider struct {
	client    *gitlab.Client
	projectID string // Can be numeric ID or "namespace/project"
	maxPages  int
}

// NewGitLabProvider creates a new GitLab provider.
// token is a personal, project or CI job token.
// baseURL is the GitLab instance URL (empty for gitlab.com).
// projectID can be numeric ID or "namespace/project" path.
func NewGitLabProvider(token, baseURL, projectID string) (*GitLabProvider, error) {
	if token == "" {
		return nil, fmt.Errorf("GitLab token is required")
	}
	if projectID == "" {
		return nil, fmt.Errorf("project ID is required")
	}

	var client *gitlab.Client
	var err error

	if baseURL != "" {
		client, err = gitlab.NewClient(token, gitlab.WithBaseURL(baseURL))
	} else {
		client, err = gitlab.NewClient(token)
	}

	if err != nil {
		return nil, fmt.Errorf("create GitLab client: %w", err)
	}

	return &GitLabProvider{
		client:    client,
		projectID: projectID,
		maxPages:  DefaultMaxPages,
	}, nil
}

// gitlabBaseURL returns the API root for self-hosted instances and "" for
// gitlab.com.
func gitlabBaseURL(remoteURL string) string {
	if strings.Contains(remoteURL, "gitlab.com") {
		return ""
	}

	host := remoteURL
	if strings.HasPrefix(host, "git@") {
		host = strings.TrimPrefix(host, "git@")
		host, _, _ = strings.Cut(host, ":")
	} else {
		host = strings.TrimPrefix(host, "https://")
		host = strings.TrimPrefix(host, "http://")
		host, _, _ = strings.Cut(host, "/")
	}
	if host == "" {
		return ""
	}
	return "https://" + host
}

// SetMaxPages caps list pagination. Zero or less means unlimited.
func (p *GitLabProvider) SetMaxPages(n int) {
	p.maxPages = n
}

// Name implements Provider.
func (p *GitLabProvider) Name() string { return "gitlab" }

// ListRuns implements Provider. The pipeline list endpoint omits pipeline
// names, so each listed pipeline is fetched individually.
func (p *GitLabProvider) ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error) {
	endpoint := fmt.Sprintf("projects/%s/pipelines", p.projectID)

	it := rshttp.NewPageIterator(func(ctx context.Context, page int) ([]*gitlab.PipelineInfo, bool, error) {
		opts := &gitlab.ListProjectPipelinesOptions{
			ListOptions: gitlab.ListOptions{Page: page, PerPage: perPage},
		}
		if filter.HeadSHA != "" {
			opts.SHA = gitlab.Ptr(filter.HeadSHA)
		}
		pipelines, resp, err := p.client.Pipelines.ListProjectPipelines(p.projectID, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, false, gitlabError(endpoint, resp, err)
		}
		return pipelines, resp.NextPage != 0, nil
	}).WithMaxPages(p.maxPages)

	infos, err := it.All(ctx)
	if errors.Is(err, rshttp.ErrPageLimit) {
		slog.Warn("pipeline listing truncated at page limit",
			"project", p.projectID,
			"max_pages", p.maxPages,
			"pipelines", len(infos),
		)
	} else if err != nil {
		return nil, fmt.Errorf("list pipelines: %w", err)
	}

	runs := make([]*Run, 0, len(infos))
	for _, info := range infos {
		pipeline, resp, err := p.client.Pipelines.GetPipeline(p.projectID, info.ID, gitlab.WithContext(ctx))
		if err != nil {
			return nil, gitlabError(fmt.Sprintf("%s/%d", endpoint, info.ID), resp, err)
		}
		runs = append(runs, runFromGitLab(pipeline))
	}
	return runs, nil
}

// ListArtifacts implements Provider. Jobs without an artifacts archive are
// skipped; name filters on job name when set.
func (p *GitLabProvider) ListArtifacts(ctx context.Context, runID int64, name string) ([]*Artifact, error) {
	endpoint := fmt.Sprintf("projects/%s/pipelines/%d/jobs", p.projectID, runID)

	it := rshttp.NewPageIterator(func(ctx context.Context, page int) ([]*Artifact, bool, error) {
		opts := &gitlab.ListJobsOptions{
			ListOptions: gitlab.ListOptions{Page: page, PerPage: perPage},
		}
		jobs, resp, err := p.client.Jobs.ListPipelineJobs(p.projectID, int(runID), opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, false, gitlabError(endpoint, resp, err)
		}

		var artifacts []*Artifact
		for _, job := range jobs {
			if job.ArtifactsFile.Filename == "" {
				continue
			}
			if name != "" && job.Name != name {
				continue
			}
			artifacts = append(artifacts, &Artifact{
				ID:        int64(job.ID),
				RunID:     runID,
				Name:      job.Name,
				SizeBytes: int64(job.ArtifactsFile.Size),
			})
		}
		return artifacts, resp.NextPage != 0, nil
	}).WithMaxPages(p.maxPages)

	artifacts, err := it.All(ctx)
	if errors.Is(err, rshttp.ErrPageLimit) {
		slog.Warn("job listing truncated at page limit",
			"pipeline_id", runID,
			"max_pages", p.maxPages,
		)
		return artifacts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list pipeline jobs: %w", err)
	}
	return artifacts, nil
}

// DownloadArtifact implements Provider.
func (p *GitLabProvider) DownloadArtifact(ctx context.Context, artifact *Artifact) ([]byte, error) {
	endpoint := fmt.Sprintf("projects/%s/jobs/%d/artifacts", p.projectID, artifact.ID)

	reader, resp, err := p.client.Jobs.GetJobArtifacts(p.projectID, int(artifact.ID), gitlab.WithContext(ctx))
	if err != nil {
		return nil, gitlabError(endpoint, resp, err)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read artifact %q: %w", artifact.Name, err)
	}
	return data, nil
}

func runFromGitLab(pipeline *gitlab.Pipeline) *Run {
	status, conclusion := statusFromGitLab(pipeline.Status)
	run := &Run{
		ID:           int64(pipeline.ID),
		Status:       status,
		Conclusion:   conclusion,
		HeadSHA:      pipeline.SHA,
		WorkflowName: pipeline.Name,
		HTMLURL:      pipeline.WebURL,
	}
	if pipeline.CreatedAt != nil {
		run.CreatedAt = *pipeline.CreatedAt
	}
	return run
}

// statusFromGitLab maps a pipeline status onto Status and Conclusion.
func statusFromGitLab(status string) (Status, Conclusion) {
	switch status {
	case "success":
		return StatusCompleted, ConclusionSuccess
	case "failed":
		return StatusCompleted, ConclusionFailure
	case "canceled":
		return StatusCompleted, ConclusionCancelled
	case "skipped":
		return StatusCompleted, ConclusionSkipped
	case "running":
		return StatusInProgress, ""
	default:
		// created, waiting_for_resource, preparing, pending, manual, scheduled
		return StatusQueued, ""
	}
}

func gitlabError(endpoint string, resp *gitlab.Response, err error) error {
	var httpResp *http.Response
	if resp != nil {
		httpResp = resp.Response
	}
	return apiError("gitlab", endpoint, httpResp, "X-Request-Id", err)
}
