package release

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/randalmurphal/flowgraph/pkg/flowgraph"

	"github.com/randalmurphal/relstage/ci"
	"github.com/randalmurphal/relstage/notify"
	"github.com/randalmurphal/relstage/stage"
)

// ErrStateMissing indicates a node ran before the state it depends on was set.
var ErrStateMissing = errors.New("release state missing")

func errStateMissing(field string) error {
	return fmt.Errorf("%w: %s", ErrStateMissing, field)
}

// Graph node names.
const (
	NodeWait   = "wait-for-run"
	NodeFetch  = "fetch-artifacts"
	NodeStage  = "stage-artifacts"
	NodeReport = "report"
)

// Result describes a prepared release.
type Result struct {
	ID       string
	Run      *ci.Run
	Files    []stage.File
	Duration time.Duration
}

// Orchestrator runs wait, fetch, stage and report as a graph.
type Orchestrator struct {
	cfg      Config
	waiter   *ci.Waiter
	fetcher  *ci.Fetcher
	stager   *stage.Stager
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// New creates an orchestrator over provider and stager.
func New(cfg Config, provider ci.Provider, stager *stage.Stager) (*Orchestrator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if stager == nil {
		return nil, fmt.Errorf("stager is required")
	}
	if _, err := cfg.Requests(); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		cfg:      cfg,
		stager:   stager,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.now == nil {
		o.now = time.Now
	}

	o.waiter = ci.NewWaiter(ci.NewLocator(provider), ci.WaiterConfig{
		Timeout:      cfg.Timeout,
		PollInterval: cfg.PollInterval,
		Notifier:     cfg.Notifier,
		Now:          cfg.Now,
	})
	o.fetcher = ci.NewFetcher(provider, ci.FetcherConfig{
		Concurrency: cfg.Concurrency,
		Notifier:    cfg.Notifier,
	})

	return o, nil
}

// NewState creates the initial graph state for one execution.
func (o *Orchestrator) NewState() State {
	requests, _ := o.cfg.Requests()
	id, err := gonanoid.New(12)
	if err != nil {
		id = fmt.Sprintf("%d", o.now().UnixNano())
	}
	return State{
		ID:        id,
		Query:     o.cfg.Query(),
		Requests:  requests,
		StartTime: o.now(),
	}
}

// Execute waits for the run, fetches and stages every requested artifact,
// and reports. Any failure is returned as is; files staged before the failure
// stay in the output directory but no Result is returned.
func (o *Orchestrator) Execute(ctx context.Context) (*Result, error) {
	state := o.NewState()

	// Node errors are captured here so callers see the original error rather
	// than the graph's wrapping.
	var failure error
	last := state
	capture := func(fn flowgraph.NodeFunc[State]) flowgraph.NodeFunc[State] {
		return func(fctx flowgraph.Context, s State) (State, error) {
			out, err := fn(fctx, s)
			if err != nil {
				failure = err
				out.SetError(err)
			}
			last = out
			return out, err
		}
	}

	compiled, err := flowgraph.NewGraph[State]().
		AddNode(NodeWait, capture(o.WaitNode)).
		AddNode(NodeFetch, capture(o.FetchNode)).
		AddNode(NodeStage, capture(o.StageNode)).
		AddNode(NodeReport, capture(o.ReportNode)).
		AddEdge(NodeWait, NodeFetch).
		AddEdge(NodeFetch, NodeStage).
		AddEdge(NodeStage, NodeReport).
		AddEdge(NodeReport, flowgraph.END).
		SetEntry(NodeWait).
		Compile()
	if err != nil {
		return nil, fmt.Errorf("build release graph: %w", err)
	}

	o.logger.InfoContext(ctx, "preparing release",
		"id", state.ID,
		"commit", state.Query.CommitSHA,
		"workflow", state.Query.Workflow,
		"artifacts", state.ArtifactNames(),
	)

	final, runErr := compiled.Run(flowgraph.NewContext(ctx), state)
	if runErr != nil {
		if failure == nil {
			failure = runErr
		}
		o.reportFailure(ctx, last, failure)
		return nil, failure
	}

	return &Result{
		ID:       final.ID,
		Run:      final.Run,
		Files:    final.Files,
		Duration: final.Duration,
	}, nil
}

// WaitNode waits for the run to complete successfully.
//
// Updates: state.Run
func (o *Orchestrator) WaitNode(ctx flowgraph.Context, state State) (State, error) {
	run, err := o.waiter.Wait(ctx, state.Query)
	if err != nil {
		return state, err
	}
	state.Run = run
	o.logger.InfoContext(ctx, "run succeeded", "run_id", run.ID, "url", run.HTMLURL)
	return state, nil
}

// FetchNode downloads every requested artifact.
//
// Prerequisites: state.Run must be set
// Updates: state.Payloads
func (o *Orchestrator) FetchNode(ctx flowgraph.Context, state State) (State, error) {
	if err := state.Validate(RequireRun); err != nil {
		return state, err
	}

	payloads, err := o.fetcher.FetchAll(ctx, state.Run, state.ArtifactNames())
	if err != nil {
		return state, err
	}
	state.Payloads = payloads
	return state, nil
}

// StageNode extracts each payload into the output directory, in request
// order. Payload data is released once staged.
//
// Prerequisites: state.Payloads must hold one payload per request
// Updates: state.Files
func (o *Orchestrator) StageNode(ctx flowgraph.Context, state State) (State, error) {
	if err := state.Validate(RequireRun, RequirePayloads); err != nil {
		return state, err
	}

	for i, req := range state.Requests {
		files, err := o.stager.Stage(ctx, stage.Request{
			Payload: state.Payloads[i],
			Expect:  req.Expect,
			RunID:   state.Run.ID,
			Commit:  state.Query.CommitSHA,
		})
		state.Files = append(state.Files, files...)
		state.Payloads[i] = nil
		if err != nil {
			return state, fmt.Errorf("stage artifact %q: %w", req.Name, err)
		}
	}
	state.Payloads = nil
	return state, nil
}

// ReportNode logs the staged files and emits release_prepared.
//
// Updates: state.Duration
func (o *Orchestrator) ReportNode(ctx flowgraph.Context, state State) (State, error) {
	state.Duration = o.now().Sub(state.StartTime)

	for _, f := range state.Files {
		o.logger.InfoContext(ctx, "staged", "path", f.Path, "size", f.Size, "artifact", f.Artifact)
	}

	var runID int64
	var url string
	if state.Run != nil {
		runID, url = state.Run.ID, state.Run.HTMLURL
	}
	notify.Emit(ctx, o.notifier, notify.Event{
		Type:     notify.EventReleasePrepared,
		RunID:    runID,
		Commit:   state.Query.CommitSHA,
		Workflow: state.Query.Workflow,
		Path:     o.stager.OutputDir(),
		Message:  fmt.Sprintf("prepared %d file(s) in %s", len(state.Files), o.stager.OutputDir()),
		Metadata: o.metadata(state, url),
	})
	return state, nil
}

func (o *Orchestrator) reportFailure(ctx context.Context, state State, err error) {
	o.logger.ErrorContext(ctx, "release preparation failed", "id", state.ID, "error", err)
	notify.Emit(ctx, o.notifier, notify.Event{
		Type:     notify.EventReleaseFailed,
		Commit:   state.Query.CommitSHA,
		Workflow: state.Query.Workflow,
		Message:  err.Error(),
		Severity: notify.SeverityError,
		Metadata: o.metadata(state, ""),
	})
}

func (o *Orchestrator) metadata(state State, url string) map[string]any {
	meta := map[string]any{
		"id":        state.ID,
		"artifacts": state.ArtifactNames(),
	}
	if len(state.Files) > 0 {
		meta["files"] = state.FileNames()
	}
	if o.cfg.Version != "" {
		meta["version"] = o.cfg.Version
	}
	if url != "" {
		meta["run_url"] = url
	}
	if state.Duration > 0 {
		meta["duration"] = state.Duration.Round(time.Millisecond).String()
	}
	return meta
}
