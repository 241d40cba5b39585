package ci

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/randalmurphal/relstage/notify"
)

const (
	// DefaultTimeout bounds how long Wait polls a pending run.
	DefaultTimeout = 15 * time.Minute

	// DefaultPollInterval is the fixed delay between polls.
	DefaultPollInterval = 10 * time.Second
)

// errPending marks a poll that saw a run which has not completed yet.
var errPending = errors.New("run pending")

// WaiterConfig holds configuration for Waiter.
type WaiterConfig struct {
	Timeout      time.Duration
	PollInterval time.Duration
	Notifier     notify.Notifier

	// Now is the clock used for the deadline. Defaults to time.Now.
	Now func() time.Time
}

// Waiter polls a Locator until the run completes.
type Waiter struct {
	locator      *Locator
	timeout      time.Duration
	pollInterval time.Duration
	notifier     notify.Notifier
	now          func() time.Time
}

// NewWaiter creates a Waiter with the given configuration.
func NewWaiter(locator *Locator, cfg WaiterConfig) *Waiter {
	w := &Waiter{
		locator:      locator,
		timeout:      cfg.Timeout,
		pollInterval: cfg.PollInterval,
		notifier:     cfg.Notifier,
		now:          cfg.Now,
	}

	if w.timeout <= 0 {
		w.timeout = DefaultTimeout
	}
	if w.pollInterval <= 0 {
		w.pollInterval = DefaultPollInterval
	}
	if w.now == nil {
		w.now = time.Now
	}

	return w
}

// Wait blocks until the run for q has completed successfully.
//
// The deadline is fixed when Wait is called. Every poll re-resolves the run
// through the Locator. A completed run with any conclusion other than success
// returns a *RunFailedError at once; a run still pending past the deadline
// returns a *TimeoutError. Locator errors, including not found, end the wait.
func (w *Waiter) Wait(ctx context.Context, q Query) (*Run, error) {
	deadline := w.now().Add(w.timeout)
	located := false

	run, err := retry.DoValue(ctx, retry.NewConstant(w.pollInterval), func(ctx context.Context) (*Run, error) {
		run, err := w.locator.FindRun(ctx, q)
		if err != nil {
			return nil, err
		}

		if !located {
			located = true
			notify.Emit(ctx, w.notifier, notify.Event{
				Type:     notify.EventRunLocated,
				RunID:    run.ID,
				Commit:   q.CommitSHA,
				Workflow: run.WorkflowName,
				Message:  fmt.Sprintf("found run %d of %s", run.ID, run.WorkflowName),
				Metadata: map[string]any{"status": string(run.Status), "url": run.HTMLURL},
			})
		}

		if !run.Completed() {
			if w.now().After(deadline) {
				return nil, &TimeoutError{Query: q, Timeout: w.timeout, Status: run.Status, URL: run.HTMLURL}
			}
			notify.Emit(ctx, w.notifier, notify.Event{
				Type:     notify.EventRunWaiting,
				RunID:    run.ID,
				Commit:   q.CommitSHA,
				Workflow: run.WorkflowName,
				Message:  fmt.Sprintf("run %d is %s, polling again in %s", run.ID, run.Status, w.pollInterval),
				Metadata: map[string]any{"status": string(run.Status)},
			})
			return nil, retry.RetryableError(errPending)
		}

		severity := notify.SeverityInfo
		if !run.Succeeded() {
			severity = notify.SeverityError
		}
		notify.Emit(ctx, w.notifier, notify.Event{
			Type:     notify.EventRunCompleted,
			RunID:    run.ID,
			Commit:   q.CommitSHA,
			Workflow: run.WorkflowName,
			Message:  fmt.Sprintf("run %d concluded %s", run.ID, run.Conclusion),
			Severity: severity,
			Metadata: map[string]any{"conclusion": string(run.Conclusion), "url": run.HTMLURL},
		})

		if !run.Succeeded() {
			return nil, &RunFailedError{
				RunID:      run.ID,
				Workflow:   run.WorkflowName,
				Conclusion: run.Conclusion,
				URL:        run.HTMLURL,
			}
		}
		return run, nil
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}
