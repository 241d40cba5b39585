package integrationtest

import (
	"context"
	"testing"
	"time"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/relstage/ci"
	"github.com/randalmurphal/relstage/release"
	"github.com/randalmurphal/relstage/stage"
	"github.com/randalmurphal/relstage/testutil"
)

func newOrchestrator(t *testing.T, fs afero.Fs) *release.Orchestrator {
	t.Helper()

	run := &ci.Run{ID: 5, Status: ci.StatusCompleted, Conclusion: ci.ConclusionSuccess, HeadSHA: "abc123", WorkflowName: "CI"}
	provider := &ci.MockProvider{
		ListRunsFunc: func(context.Context, ci.RunFilter) ([]*ci.Run, error) { return []*ci.Run{run}, nil },
		ListArtifactsFunc: func(_ context.Context, runID int64, name string) ([]*ci.Artifact, error) {
			return []*ci.Artifact{{ID: 1, RunID: runID, Name: name}}, nil
		},
		DownloadArtifactFunc: func(context.Context, *ci.Artifact) ([]byte, error) {
			return testutil.TarballZip(t, "pkg-1.0.0.tgz"), nil
		},
	}
	stager := stage.New(stage.Config{
		Fs:        fs,
		WorkDir:   "/w",
		OutputDir: "/w/dist",
		Extractor: &testutil.ZipExtractor{Fs: fs},
	})

	orch, err := release.New(release.Config{
		Commit:       "abc123",
		Workflow:     "ci",
		Artifacts:    []string{"packages"},
		Timeout:      time.Second,
		PollInterval: time.Millisecond,
	}, provider, stager)
	require.NoError(t, err)
	return orch
}

// TestGraphConstruction verifies the release nodes compose into a custom
// graph, here with the report step left out.
func TestGraphConstruction(t *testing.T) {
	fs := afero.NewMemMapFs()
	orch := newOrchestrator(t, fs)

	compiled, err := flowgraph.NewGraph[release.State]().
		AddNode(release.NodeWait, orch.WaitNode).
		AddNode(release.NodeFetch, orch.FetchNode).
		AddNode(release.NodeStage, orch.StageNode).
		AddEdge(release.NodeWait, release.NodeFetch).
		AddEdge(release.NodeFetch, release.NodeStage).
		AddEdge(release.NodeStage, flowgraph.END).
		SetEntry(release.NodeWait).
		Compile()
	require.NoError(t, err)

	result, err := compiled.Run(flowgraph.NewContext(testutil.TestContext(t)), orch.NewState())
	require.NoError(t, err)

	assert.Equal(t, int64(5), result.Run.ID)
	assert.Equal(t, []string{"pkg-1.0.0.tgz"}, result.FileNames())
	assert.Nil(t, result.Payloads, "payloads are released after staging")
	assert.Zero(t, result.Duration, "report did not run")

	exists, _ := afero.Exists(fs, "/w/dist/pkg-1.0.0.tgz")
	assert.True(t, exists)
}

// TestGraphMissingState verifies a node placed before its prerequisites
// fails instead of acting on empty state.
func TestGraphMissingState(t *testing.T) {
	orch := newOrchestrator(t, afero.NewMemMapFs())

	compiled, err := flowgraph.NewGraph[release.State]().
		AddNode(release.NodeStage, orch.StageNode).
		AddEdge(release.NodeStage, flowgraph.END).
		SetEntry(release.NodeStage).
		Compile()
	require.NoError(t, err)

	_, err = compiled.Run(flowgraph.NewContext(testutil.TestContext(t)), orch.NewState())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "release state missing")
}
