package notify

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	rshttp "github.com/randalmurphal/relstage/http"
)

// =============================================================================
// SlackNotifier
// =============================================================================

// SlackNotifier posts events to a Slack incoming webhook.
type SlackNotifier struct {
	WebhookURL string
	Channel    string
	Username   string

	// Types limits which events are posted. Empty means release outcomes only.
	Types []EventType

	client *rshttp.Client
}

// NewSlackNotifier creates a Slack webhook notifier.
func NewSlackNotifier(webhookURL string, opts ...SlackOption) *SlackNotifier {
	n := &SlackNotifier{
		WebhookURL: webhookURL,
		Username:   "relstage",
	}
	for _, opt := range opts {
		opt(n)
	}
	n.client = rshttp.NewClient(rshttp.ClientConfig{
		Client:      &http.Client{Timeout: notifierTimeout},
		BaseURL:     n.WebhookURL,
		ServiceName: "slack",
		RetryWait:   notifierRetryWait,
	})
	return n
}

// SlackOption configures SlackNotifier.
type SlackOption func(*SlackNotifier)

// WithSlackChannel sets the channel to post to.
func WithSlackChannel(channel string) SlackOption {
	return func(n *SlackNotifier) { n.Channel = channel }
}

// WithSlackUsername sets the bot username.
func WithSlackUsername(username string) SlackOption {
	return func(n *SlackNotifier) { n.Username = username }
}

// WithSlackEvents sets which event types are posted.
func WithSlackEvents(types ...EventType) SlackOption {
	return func(n *SlackNotifier) { n.Types = types }
}

// Notify implements Notifier. Events outside the configured types are dropped.
func (n *SlackNotifier) Notify(ctx context.Context, event Event) error {
	if !n.wants(event.Type) {
		return nil
	}

	payload := slackPayload{
		Username: n.Username,
		Channel:  n.Channel,
		Attachments: []slackAttachment{
			{
				Color:     n.colorForSeverity(event.Severity),
				Title:     fmt.Sprintf("%s %s", n.emojiForEvent(event), event.Type),
				Text:      event.Message,
				Footer:    n.footer(event),
				Timestamp: event.Timestamp.Unix(),
				Fields:    n.fieldsFromMetadata(event.Metadata),
			},
		},
	}

	if err := n.client.Post(ctx, "", payload, nil); err != nil {
		return fmt.Errorf("send slack message: %w", err)
	}
	return nil
}

func (n *SlackNotifier) wants(t EventType) bool {
	if len(n.Types) == 0 {
		return t == EventReleasePrepared || t == EventReleaseFailed
	}
	for _, want := range n.Types {
		if want == t {
			return true
		}
	}
	return false
}

func (n *SlackNotifier) footer(event Event) string {
	commit := event.Commit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	switch {
	case commit != "" && event.RunID != 0:
		return fmt.Sprintf("Commit: %s | Run: %d", commit, event.RunID)
	case commit != "":
		return "Commit: " + commit
	case event.RunID != 0:
		return fmt.Sprintf("Run: %d", event.RunID)
	default:
		return ""
	}
}

func (n *SlackNotifier) emojiForEvent(event Event) string {
	switch event.Type {
	case EventReleasePrepared:
		return "📦"
	case EventReleaseFailed:
		return "❌"
	case EventRunCompleted:
		return "✅"
	case EventRunWaiting:
		return "⏳"
	case EventArtifactStaged:
		return "📁"
	default:
		return "📢"
	}
}

func (n *SlackNotifier) colorForSeverity(severity string) string {
	switch severity {
	case SeverityError:
		return "danger"
	case SeverityWarning:
		return "warning"
	default:
		return "good"
	}
}

func (n *SlackNotifier) fieldsFromMetadata(metadata map[string]any) []slackField {
	if len(metadata) == 0 {
		return nil
	}

	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]slackField, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, slackField{
			Title: k,
			Value: fmt.Sprintf("%v", metadata[k]),
			Short: true,
		})
	}
	return fields
}

// Slack webhook payload types
type slackPayload struct {
	Username    string            `json:"username,omitempty"`
	Channel     string            `json:"channel,omitempty"`
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Color     string       `json:"color,omitempty"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Footer    string       `json:"footer,omitempty"`
	Timestamp int64        `json:"ts,omitempty"`
	Fields    []slackField `json:"fields,omitempty"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}
