package testutil

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

func TestSetupTestRepo(t *testing.T) {
	dir := SetupTestRepo(t)

	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		t.Errorf(".git missing: %v", err)
	}
	if sha := HeadSHA(t, dir); len(sha) != 40 {
		t.Errorf("HeadSHA = %q, want 40 hex characters", sha)
	}
}

func TestSetupTestRepoWithFiles(t *testing.T) {
	dir := SetupTestRepoWithFiles(t, map[string]string{
		"package.json":      `{"name":"widgets","version":"1.0.0"}`,
		"packages/a/a.json": "{}",
	})

	for _, path := range []string{"package.json", "packages/a/a.json"} {
		if _, err := os.Stat(filepath.Join(dir, path)); err != nil {
			t.Errorf("%s missing: %v", path, err)
		}
	}

	AddRemote(t, dir, "origin", "git@github.com:acme/widgets.git")
	if got := Git(t, dir, "remote", "get-url", "origin"); got != "git@github.com:acme/widgets.git" {
		t.Errorf("origin = %q", got)
	}
}

// =============================================================================
// Zip helpers
// =============================================================================

func TestZipBytes(t *testing.T) {
	data := ZipBytes(t, map[string]string{
		"b.tgz":       "bee",
		"nested/a.md": "ay",
	})

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}
	if len(zr.File) != 2 || zr.File[0].Name != "b.tgz" || zr.File[1].Name != "nested/a.md" {
		t.Fatalf("entries = %v", zr.File)
	}
}

func TestZipExtractor(t *testing.T) {
	fs := afero.NewMemMapFs()
	archive := "/work/a.zip"
	if err := afero.WriteFile(fs, archive, ZipBytes(t, map[string]string{"pkg/x.tgz": "x"}), 0o644); err != nil {
		t.Fatal(err)
	}

	ex := &ZipExtractor{Fs: fs}
	if err := ex.Extract(context.Background(), archive, "/work/out"); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	got, err := afero.ReadFile(fs, "/work/out/pkg/x.tgz")
	if err != nil || string(got) != "x" {
		t.Errorf("extracted = %q, %v", got, err)
	}
	if len(ex.Archives) != 1 || ex.Archives[0] != archive {
		t.Errorf("Archives = %v", ex.Archives)
	}
}

func TestZipExtractor_NotAZip(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/bad.zip", []byte("plain text"), 0o644)

	if err := (&ZipExtractor{Fs: fs}).Extract(context.Background(), "/bad.zip", "/out"); err == nil {
		t.Error("expected error for invalid archive")
	}
}

// =============================================================================
// Fixtures
// =============================================================================

func TestWritePackageJSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := WritePackageJSON(t, fs, "/repo", "@acme/widgets", "2.1.0")

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatal(err)
	}
	fields := gjson.GetManyBytes(data, "name", "version")
	if fields[0].String() != "@acme/widgets" || fields[1].String() != "2.1.0" {
		t.Errorf("package.json = %s", data)
	}
}

func TestTarballZip(t *testing.T) {
	data := TarballZip(t, "a-1.0.0.tgz", "b-1.0.0.tgz")
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	if len(zr.File) != 2 {
		t.Errorf("entries = %d, want 2", len(zr.File))
	}
}

// =============================================================================
// ActionsServer
// =============================================================================

func newActionsClient(t *testing.T, s *ActionsServer) *github.Client {
	t.Helper()
	tc := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "secret"}))
	client, err := github.NewClient(tc).WithEnterpriseURLs(s.URL, s.URL)
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestActionsServer_Runs(t *testing.T) {
	s := NewActionsServer(t, "acme", "widgets")
	s.AddRun(ActionsRun{ID: 1, Name: "CI", HeadSHA: "aaa", Status: "completed", Conclusion: "success", PendingPolls: 1})
	s.AddRun(ActionsRun{ID: 2, Name: "CI", HeadSHA: "bbb", Status: "completed", Conclusion: "failure"})

	client := newActionsClient(t, s)
	ctx := TestContextWithTimeout(t, 5*time.Second)
	opts := &github.ListWorkflowRunsOptions{HeadSHA: "aaa"}

	first, _, err := client.Actions.ListRepositoryWorkflowRuns(ctx, "acme", "widgets", opts)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(first.WorkflowRuns) != 1 || first.WorkflowRuns[0].GetStatus() != "in_progress" {
		t.Fatalf("first listing = %+v", first.WorkflowRuns)
	}

	second, _, err := client.Actions.ListRepositoryWorkflowRuns(ctx, "acme", "widgets", opts)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if got := second.WorkflowRuns[0]; got.GetStatus() != "completed" || got.GetConclusion() != "success" {
		t.Errorf("second listing = %+v", got)
	}
	if s.Listings() != 2 {
		t.Errorf("Listings() = %d, want 2", s.Listings())
	}
	if s.APIAuth[0] != "Bearer secret" {
		t.Errorf("Authorization = %q", s.APIAuth[0])
	}
}

func TestActionsServer_ArtifactDownload(t *testing.T) {
	s := NewActionsServer(t, "acme", "widgets")
	s.AddRun(ActionsRun{ID: 7, Name: "CI", HeadSHA: "aaa", Status: "completed", Conclusion: "success"})
	id := s.AddArtifact(7, "workspace-packages", []byte("zip-bytes"))

	client := newActionsClient(t, s)
	ctx := TestContext(t)

	list, _, err := client.Actions.ListWorkflowRunArtifacts(ctx, "acme", "widgets", 7, nil)
	if err != nil {
		t.Fatalf("list artifacts: %v", err)
	}
	if len(list.Artifacts) != 1 || list.Artifacts[0].GetID() != id || list.Artifacts[0].GetName() != "workspace-packages" {
		t.Fatalf("artifacts = %+v", list.Artifacts)
	}

	location, _, err := client.Actions.DownloadArtifact(ctx, "acme", "widgets", id, 1)
	if err != nil {
		t.Fatalf("download redirect: %v", err)
	}

	resp, err := http.Get(location.String())
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "zip-bytes" {
		t.Errorf("blob = %q", body)
	}
	if len(s.BlobAuth) != 1 || s.BlobAuth[0] != "" {
		t.Errorf("blob Authorization = %q, want none", s.BlobAuth)
	}
}
