package ci

import "context"

// MockProvider is a mock implementation of Provider for testing.
type MockProvider struct {
	NameValue            string
	ListRunsFunc         func(ctx context.Context, filter RunFilter) ([]*Run, error)
	ListArtifactsFunc    func(ctx context.Context, runID int64, name string) ([]*Artifact, error)
	DownloadArtifactFunc func(ctx context.Context, artifact *Artifact) ([]byte, error)
}

// Name implements Provider.
func (m *MockProvider) Name() string {
	if m.NameValue != "" {
		return m.NameValue
	}
	return "mock"
}

// ListRuns implements Provider.
func (m *MockProvider) ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error) {
	if m.ListRunsFunc != nil {
		return m.ListRunsFunc(ctx, filter)
	}
	return []*Run{}, nil
}

// ListArtifacts implements Provider.
func (m *MockProvider) ListArtifacts(ctx context.Context, runID int64, name string) ([]*Artifact, error) {
	if m.ListArtifactsFunc != nil {
		return m.ListArtifactsFunc(ctx, runID, name)
	}
	return []*Artifact{}, nil
}

// DownloadArtifact implements Provider.
func (m *MockProvider) DownloadArtifact(ctx context.Context, artifact *Artifact) ([]byte, error) {
	if m.DownloadArtifactFunc != nil {
		return m.DownloadArtifactFunc(ctx, artifact)
	}
	return nil, nil
}
