package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	rshttp "github.com/randalmurphal/relstage/http"
)

// notifierTimeout bounds a single delivery attempt.
const notifierTimeout = 10 * time.Second

// notifierRetryWait is the initial backoff between delivery attempts.
const notifierRetryWait = 200 * time.Millisecond

// =============================================================================
// WebhookNotifier
// =============================================================================

// WebhookNotifier POSTs events as JSON to a generic HTTP webhook.
type WebhookNotifier struct {
	URL     string
	Headers map[string]string
	client  *rshttp.Client
}

// NewWebhookNotifier creates a webhook notifier. Headers are sent with every
// request, which is where shared secrets belong.
func NewWebhookNotifier(url string, headers map[string]string) *WebhookNotifier {
	n := &WebhookNotifier{URL: url, Headers: headers}
	n.client = rshttp.NewClient(rshttp.ClientConfig{
		Client:      &http.Client{Timeout: notifierTimeout},
		BaseURL:     url,
		ServiceName: "webhook",
		RetryWait:   notifierRetryWait,
		BeforeRequest: func(req *http.Request) {
			for k, v := range n.Headers {
				req.Header.Set(k, v)
			}
		},
	})
	return n
}

// Notify implements Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, event Event) error {
	if err := n.client.Post(ctx, "", event, nil); err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	return nil
}
