// Package notify delivers pipeline events to observers.
//
// Core types:
//   - Notifier: Interface for receiving events
//   - Event: A pipeline event with type, run, artifact and metadata
//   - EventType: What happened (run_located, artifact_staged, ...)
//
// Implementations:
//   - LogNotifier: Logs events through slog
//   - WebhookNotifier: POSTs events as JSON to an HTTP endpoint
//   - SlackNotifier: Posts release outcomes to a Slack incoming webhook
//   - MultiNotifier: Fans out to several notifiers
//   - Recorder: Keeps events in memory for assertions
//   - NopNotifier: Discards everything
//
// Example usage:
//
//	notifier := notify.NewMultiNotifier(
//	    notify.NewLogNotifier(logger),
//	    notify.NewSlackNotifier(webhookURL, notify.WithSlackChannel("#releases")),
//	)
//	notify.Emit(ctx, notifier, notify.Event{
//	    Type:    notify.EventReleasePrepared,
//	    Message: "staged 3 files",
//	})
package notify
