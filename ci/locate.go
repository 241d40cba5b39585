package ci

import (
	"context"
	"fmt"

	"golang.org/x/text/cases"
)

// Locator finds the run for a commit and workflow.
type Locator struct {
	provider Provider
}

// NewLocator creates a Locator backed by provider.
func NewLocator(provider Provider) *Locator {
	return &Locator{provider: provider}
}

// FindRun returns the first run whose head commit equals q.CommitSHA and whose
// workflow name equals q.Workflow under Unicode case folding. Returns a
// *NotFoundError when nothing matches.
func (l *Locator) FindRun(ctx context.Context, q Query) (*Run, error) {
	runs, err := l.provider.ListRuns(ctx, RunFilter{HeadSHA: q.CommitSHA})
	if err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}

	fold := cases.Fold()
	want := fold.String(q.Workflow)
	for _, run := range runs {
		if run.HeadSHA != q.CommitSHA {
			continue
		}
		if fold.String(run.WorkflowName) == want {
			return run, nil
		}
	}

	return nil, &NotFoundError{Kind: "run", Name: q.Workflow, CommitSHA: q.CommitSHA}
}
