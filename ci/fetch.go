package ci

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/relstage/notify"
)

// FetcherConfig holds configuration for Fetcher.
type FetcherConfig struct {
	// Concurrency bounds parallel fetches in FetchAll. Zero or one fetches
	// sequentially.
	Concurrency int
	Notifier    notify.Notifier
}

// Fetcher resolves artifacts by exact name and downloads them.
type Fetcher struct {
	provider    Provider
	concurrency int
	notifier    notify.Notifier
}

// NewFetcher creates a Fetcher backed by provider.
func NewFetcher(provider Provider, cfg FetcherConfig) *Fetcher {
	return &Fetcher{
		provider:    provider,
		concurrency: cfg.Concurrency,
		notifier:    cfg.Notifier,
	}
}

// Fetch downloads the artifact named name from run.
func (f *Fetcher) Fetch(ctx context.Context, run *Run, name string) (*Payload, error) {
	artifacts, err := f.provider.ListArtifacts(ctx, run.ID, name)
	if err != nil {
		return nil, fmt.Errorf("list artifacts of run %d: %w", run.ID, err)
	}

	var matches []*Artifact
	for _, a := range artifacts {
		if a.Name == name {
			matches = append(matches, a)
		}
	}

	switch len(matches) {
	case 0:
		return nil, &NotFoundError{Kind: "artifact", Name: name, RunID: run.ID}
	case 1:
	default:
		return nil, &AmbiguousArtifactError{Name: name, RunID: run.ID, Count: len(matches)}
	}

	artifact := matches[0]
	if artifact.Expired {
		return nil, fmt.Errorf("%w: %q in run %d", ErrArtifactExpired, name, run.ID)
	}

	data, err := f.provider.DownloadArtifact(ctx, artifact)
	if err != nil {
		return nil, fmt.Errorf("download artifact %q: %w", name, err)
	}

	notify.Emit(ctx, f.notifier, notify.Event{
		Type:     notify.EventArtifactFetched,
		RunID:    run.ID,
		Commit:   run.HeadSHA,
		Artifact: name,
		Message:  fmt.Sprintf("downloaded artifact %s (%d bytes)", name, len(data)),
		Metadata: map[string]any{"artifact_id": artifact.ID, "bytes": len(data)},
	})

	return &Payload{Name: name, ArtifactID: artifact.ID, Data: data}, nil
}

// FetchAll fetches every name from run and returns payloads in request order.
//
// Sequential fetching stops at the first failure. Concurrent fetching lets
// every fetch finish and joins the failures in request order.
func (f *Fetcher) FetchAll(ctx context.Context, run *Run, names []string) ([]*Payload, error) {
	payloads := make([]*Payload, len(names))

	if f.concurrency <= 1 {
		for i, name := range names {
			p, err := f.Fetch(ctx, run, name)
			if err != nil {
				return nil, err
			}
			payloads[i] = p
		}
		return payloads, nil
	}

	errs := make([]error, len(names))
	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i, name := range names {
		g.Go(func() error {
			p, err := f.Fetch(ctx, run, name)
			payloads[i], errs[i] = p, err
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return payloads, nil
}
