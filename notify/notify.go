package notify

import (
	"context"
	"log/slog"
	"time"
)

// =============================================================================
// Event Types
// =============================================================================

// EventType identifies a pipeline event.
type EventType string

// Event type constants.
const (
	EventRunLocated      EventType = "run_located"
	EventRunWaiting      EventType = "run_waiting"
	EventRunCompleted    EventType = "run_completed"
	EventArtifactFetched EventType = "artifact_fetched"
	EventArtifactStaged  EventType = "artifact_staged"
	EventReleasePrepared EventType = "release_prepared"
	EventReleaseFailed   EventType = "release_failed"
)

// Severity constants for events.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Event describes something that happened while preparing a release.
type Event struct {
	Type      EventType      `json:"type"`
	RunID     int64          `json:"run_id,omitempty"`
	Commit    string         `json:"commit,omitempty"`
	Workflow  string         `json:"workflow,omitempty"`
	Artifact  string         `json:"artifact,omitempty"`
	Path      string         `json:"path,omitempty"`
	Message   string         `json:"message"`
	Severity  string         `json:"severity"` // SeverityInfo, SeverityWarning, SeverityError
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// =============================================================================
// Notifier Interface
// =============================================================================

// Notifier receives pipeline events.
type Notifier interface {
	// Notify delivers an event. Implementations must not block the pipeline
	// for long and should report delivery problems as errors.
	Notify(ctx context.Context, event Event) error
}

// Emit sends event through n after filling in Timestamp and Severity.
// A nil notifier discards the event. Delivery failures are logged, never
// returned: a lost notification must not fail a release.
func Emit(ctx context.Context, n Notifier, event Event) {
	if n == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Severity == "" {
		event.Severity = SeverityInfo
	}
	if err := n.Notify(ctx, event); err != nil {
		slog.WarnContext(ctx, "notification failed", "type", event.Type, "error", err)
	}
}

// =============================================================================
// Context Injection
// =============================================================================

type serviceContextKey string

const notifierServiceKey serviceContextKey = "relstage.notifier"

// WithNotifier adds a Notifier to the context.
func WithNotifier(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, notifierServiceKey, n)
}

// NotifierFromContext extracts the Notifier from context.
// Returns nil if no notifier is configured.
func NotifierFromContext(ctx context.Context) Notifier {
	if n, ok := ctx.Value(notifierServiceKey).(Notifier); ok {
		return n
	}
	return nil
}
