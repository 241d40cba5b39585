package ci

import (
	"context"
	"errors"
	"testing"
)

func runsProvider(runs ...*Run) *MockProvider {
	return &MockProvider{
		ListRunsFunc: func(ctx context.Context, filter RunFilter) ([]*Run, error) {
			return runs, nil
		},
	}
}

func TestLocator_FindRun(t *testing.T) {
	runs := []*Run{
		{ID: 1, HeadSHA: "other", WorkflowName: "Release"},
		{ID: 2, HeadSHA: "abc123", WorkflowName: "Lint"},
		{ID: 3, HeadSHA: "abc123", WorkflowName: "RELEASE"},
		{ID: 4, HeadSHA: "abc123", WorkflowName: "Release"},
	}

	tests := []struct {
		name     string
		query    Query
		wantID   int64
		notFound bool
	}{
		{"first case-insensitive match", Query{CommitSHA: "abc123", Workflow: "release"}, 3, false},
		{"exact commit required", Query{CommitSHA: "abc12", Workflow: "Release"}, 0, true},
		{"workflow must exist", Query{CommitSHA: "abc123", Workflow: "Deploy"}, 0, true},
		{"other workflow", Query{CommitSHA: "abc123", Workflow: "lint"}, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := NewLocator(runsProvider(runs...))

			run, err := loc.FindRun(context.Background(), tt.query)
			if tt.notFound {
				if !errors.Is(err, ErrNotFound) {
					t.Fatalf("error = %v, want ErrNotFound", err)
				}
				var nf *NotFoundError
				if !errors.As(err, &nf) || nf.Kind != "run" || nf.CommitSHA != tt.query.CommitSHA {
					t.Errorf("NotFoundError = %+v", nf)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindRun: %v", err)
			}
			if run.ID != tt.wantID {
				t.Errorf("run.ID = %d, want %d", run.ID, tt.wantID)
			}
		})
	}
}

func TestLocator_FindRun_UnicodeFolding(t *testing.T) {
	loc := NewLocator(runsProvider(&Run{ID: 9, HeadSHA: "abc", WorkflowName: "Straße Build"}))

	run, err := loc.FindRun(context.Background(), Query{CommitSHA: "abc", Workflow: "STRASSE build"})
	if err != nil {
		t.Fatalf("FindRun: %v", err)
	}
	if run.ID != 9 {
		t.Errorf("run.ID = %d, want 9", run.ID)
	}
}

func TestLocator_FindRun_PassesFilter(t *testing.T) {
	var got RunFilter
	loc := NewLocator(&MockProvider{
		ListRunsFunc: func(ctx context.Context, filter RunFilter) ([]*Run, error) {
			got = filter
			return nil, nil
		},
	})

	_, _ = loc.FindRun(context.Background(), Query{CommitSHA: "abc", Workflow: "x"})
	if got.HeadSHA != "abc" {
		t.Errorf("filter.HeadSHA = %q, want abc", got.HeadSHA)
	}
}

func TestLocator_FindRun_ProviderError(t *testing.T) {
	boom := errors.New("boom")
	loc := NewLocator(&MockProvider{
		ListRunsFunc: func(ctx context.Context, filter RunFilter) ([]*Run, error) {
			return nil, boom
		},
	})

	_, err := loc.FindRun(context.Background(), Query{CommitSHA: "abc", Workflow: "x"})
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped boom", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("provider failure must not read as not found")
	}
}
