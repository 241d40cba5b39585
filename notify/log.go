package notify

import (
	"context"
	"log/slog"
)

// =============================================================================
// LogNotifier
// =============================================================================

// LogNotifier writes events to a slog logger.
type LogNotifier struct {
	Logger *slog.Logger
}

// NewLogNotifier creates a notifier that logs to the given logger.
// If logger is nil, uses the default slog logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{Logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, event Event) error {
	level := slog.LevelInfo
	switch event.Severity {
	case SeverityWarning:
		level = slog.LevelWarn
	case SeverityError:
		level = slog.LevelError
	}

	attrs := []any{"type", event.Type}
	if event.RunID != 0 {
		attrs = append(attrs, "run_id", event.RunID)
	}
	if event.Commit != "" {
		attrs = append(attrs, "commit", event.Commit)
	}
	if event.Artifact != "" {
		attrs = append(attrs, "artifact", event.Artifact)
	}
	if event.Path != "" {
		attrs = append(attrs, "path", event.Path)
	}
	for k, v := range event.Metadata {
		attrs = append(attrs, k, v)
	}

	n.Logger.Log(ctx, level, event.Message, attrs...)
	return nil
}
