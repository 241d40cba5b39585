package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-github/v57/github"
)

// ActionsRun is a workflow run served by ActionsServer.
type ActionsRun struct {
	ID         int64
	Name       string
	HeadSHA    string
	Status     string // "completed", "in_progress", "queued"
	Conclusion string

	// PendingPolls reports the run as in_progress for this many run
	// listings before Status and Conclusion apply.
	PendingPolls int
}

// ActionsServer fakes the GitHub Actions endpoints relstage calls: run
// listing, artifact listing, and the artifact download redirect. Paths are
// accepted with or without the Enterprise /api/v3 prefix.
type ActionsServer struct {
	*httptest.Server

	t     *testing.T
	owner string
	repo  string

	mu        sync.Mutex
	runs      []*ActionsRun
	artifacts map[int64][]*github.Artifact
	blobs     map[int64][]byte
	nextID    int64
	listings  int

	// APIAuth and BlobAuth record the Authorization header of each API and
	// blob request.
	APIAuth  []string
	BlobAuth []string
}

// NewActionsServer starts a fake Actions API for owner/repo, closed when the
// test ends.
func NewActionsServer(t *testing.T, owner, repo string) *ActionsServer {
	t.Helper()

	s := &ActionsServer{
		t:         t,
		owner:     owner,
		repo:      repo,
		artifacts: make(map[int64][]*github.Artifact),
		blobs:     make(map[int64][]byte),
		nextID:    1000,
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// AddRun registers a workflow run.
func (s *ActionsServer) AddRun(run ActionsRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, &run)
}

// AddArtifact attaches a zip payload to a run and returns its artifact ID.
func (s *ActionsServer) AddArtifact(runID int64, name string, zip []byte) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.artifacts[runID] = append(s.artifacts[runID], &github.Artifact{
		ID:          github.Int64(id),
		Name:        github.String(name),
		SizeInBytes: github.Int64(int64(len(zip))),
		Expired:     github.Bool(false),
	})
	s.blobs[id] = zip
	return id
}

// Listings returns how many times runs were listed.
func (s *ActionsServer) Listings() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listings
}

func (s *ActionsServer) serve(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v3")

	if id, ok := strings.CutPrefix(path, "/blobs/"); ok {
		s.serveBlob(w, r, id)
		return
	}

	s.mu.Lock()
	s.APIAuth = append(s.APIAuth, r.Header.Get("Authorization"))
	s.mu.Unlock()

	prefix := fmt.Sprintf("/repos/%s/%s/actions/", s.owner, s.repo)
	rest, ok := strings.CutPrefix(path, prefix)
	if !ok {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
		return
	}

	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 1 && parts[0] == "runs":
		s.serveRuns(w, r.URL.Query().Get("head_sha"))
	case len(parts) == 3 && parts[0] == "runs" && parts[2] == "artifacts":
		s.serveArtifacts(w, parts[1])
	case len(parts) == 3 && parts[0] == "artifacts" && parts[2] == "zip":
		http.Redirect(w, r, s.URL+"/blobs/"+parts[1], http.StatusFound)
	default:
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	}
}

func (s *ActionsServer) serveRuns(w http.ResponseWriter, headSHA string) {
	s.mu.Lock()
	s.listings++
	var runs []*github.WorkflowRun
	for _, run := range s.runs {
		if headSHA != "" && run.HeadSHA != headSHA {
			continue
		}
		status, conclusion := run.Status, run.Conclusion
		if run.PendingPolls > 0 {
			run.PendingPolls--
			status, conclusion = "in_progress", ""
		}
		wr := &github.WorkflowRun{
			ID:      github.Int64(run.ID),
			Name:    github.String(run.Name),
			HeadSHA: github.String(run.HeadSHA),
			Status:  github.String(status),
			HTMLURL: github.String(fmt.Sprintf("https://github.com/%s/%s/actions/runs/%d", s.owner, s.repo, run.ID)),
		}
		if conclusion != "" {
			wr.Conclusion = github.String(conclusion)
		}
		runs = append(runs, wr)
	}
	s.mu.Unlock()

	s.writeJSON(w, &github.WorkflowRuns{TotalCount: github.Int(len(runs)), WorkflowRuns: runs})
}

func (s *ActionsServer) serveArtifacts(w http.ResponseWriter, rawRunID string) {
	runID, err := strconv.ParseInt(rawRunID, 10, 64)
	if err != nil {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
		return
	}

	s.mu.Lock()
	artifacts := s.artifacts[runID]
	s.mu.Unlock()

	s.writeJSON(w, &github.ArtifactList{
		TotalCount: github.Int64(int64(len(artifacts))),
		Artifacts:  artifacts,
	})
}

func (s *ActionsServer) serveBlob(w http.ResponseWriter, r *http.Request, rawID string) {
	id, _ := strconv.ParseInt(rawID, 10, 64)

	s.mu.Lock()
	s.BlobAuth = append(s.BlobAuth, r.Header.Get("Authorization"))
	data, ok := s.blobs[id]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	_, _ = w.Write(data)
}

func (s *ActionsServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.t.Errorf("encode response: %v", err)
	}
}
