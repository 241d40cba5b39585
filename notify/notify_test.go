package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// Event Type Tests
// =============================================================================

func TestEventTypes(t *testing.T) {
	types := []EventType{
		EventRunLocated,
		EventRunWaiting,
		EventRunCompleted,
		EventArtifactFetched,
		EventArtifactStaged,
		EventReleasePrepared,
		EventReleaseFailed,
	}

	seen := make(map[EventType]bool)
	for _, et := range types {
		if seen[et] {
			t.Errorf("duplicate event type: %s", et)
		}
		seen[et] = true
	}
}

// =============================================================================
// Emit Tests
// =============================================================================

func TestEmit_FillsDefaults(t *testing.T) {
	rec := NewRecorder()

	Emit(context.Background(), rec, Event{Type: EventRunLocated, RunID: 7})

	events := rec.Events()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
	if events[0].Severity != SeverityInfo {
		t.Errorf("Severity = %q, want %q", events[0].Severity, SeverityInfo)
	}
}

func TestEmit_NilNotifier(t *testing.T) {
	// Must not panic.
	Emit(context.Background(), nil, Event{Type: EventRunLocated})
}

func TestEmit_SwallowsErrors(t *testing.T) {
	var calls []string
	n := &mockNotifier{name: "broken", calls: &calls, err: errors.New("down")}

	Emit(context.Background(), n, Event{Type: EventReleaseFailed})

	if len(calls) != 1 {
		t.Errorf("calls = %d, want 1", len(calls))
	}
}

// =============================================================================
// NopNotifier Tests
// =============================================================================

func TestNopNotifier(t *testing.T) {
	n := NopNotifier{}

	err := n.Notify(context.Background(), Event{
		Type:    EventRunLocated,
		Message: "test",
	})
	if err != nil {
		t.Errorf("NopNotifier.Notify() error = %v, want nil", err)
	}
}

// =============================================================================
// LogNotifier Tests
// =============================================================================

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	n := NewLogNotifier(logger)

	event := Event{
		Type:      EventArtifactStaged,
		RunID:     4242,
		Commit:    "abc123",
		Artifact:  "pkg-1.0.0.tgz",
		Path:      "dist/pkg-1.0.0.tgz",
		Message:   "staged file",
		Severity:  SeverityInfo,
		Timestamp: time.Now(),
	}

	if err := n.Notify(context.Background(), event); err != nil {
		t.Errorf("LogNotifier.Notify() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{"staged file", "run_id=4242", "commit=abc123", "path=dist/pkg-1.0.0.tgz"} {
		if !strings.Contains(output, want) {
			t.Errorf("log output missing %q: %s", want, output)
		}
	}
}

func TestLogNotifier_Severity(t *testing.T) {
	tests := []struct {
		severity string
		wantLog  string
	}{
		{SeverityInfo, "level=INFO"},
		{SeverityWarning, "level=WARN"},
		{SeverityError, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.severity, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))
			n := NewLogNotifier(logger)

			err := n.Notify(context.Background(), Event{
				Type:     EventRunWaiting,
				Message:  "test",
				Severity: tt.severity,
			})
			if err != nil {
				t.Errorf("Notify() error = %v", err)
			}

			if !strings.Contains(buf.String(), tt.wantLog) {
				t.Errorf("Log output = %q, want to contain %q", buf.String(), tt.wantLog)
			}
		})
	}
}

func TestLogNotifier_NilLogger(t *testing.T) {
	n := NewLogNotifier(nil)
	if n.Logger == nil {
		t.Error("NewLogNotifier should use default logger when nil")
	}
}

// =============================================================================
// WebhookNotifier Tests
// =============================================================================

func TestWebhookNotifier(t *testing.T) {
	var receivedBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %s, want application/json", ct)
		}
		receivedBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, nil)

	event := Event{
		Type:      EventReleasePrepared,
		RunID:     123,
		Commit:    "deadbeef",
		Message:   "Webhook test",
		Severity:  SeverityInfo,
		Timestamp: time.Now(),
	}

	if err := n.Notify(context.Background(), event); err != nil {
		t.Errorf("WebhookNotifier.Notify() error = %v", err)
	}

	var parsed Event
	if err := json.Unmarshal(receivedBody, &parsed); err != nil {
		t.Fatalf("Failed to parse received body: %v", err)
	}
	if parsed.RunID != 123 {
		t.Errorf("Received RunID = %d, want 123", parsed.RunID)
	}
	if parsed.Type != EventReleasePrepared {
		t.Errorf("Received Type = %s, want %s", parsed.Type, EventReleasePrepared)
	}
}

func TestWebhookNotifier_CustomHeaders(t *testing.T) {
	var receivedAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	headers := map[string]string{
		"Authorization": "Bearer test-token",
	}
	n := NewWebhookNotifier(server.URL, headers)

	if err := n.Notify(context.Background(), Event{Type: EventReleaseFailed}); err != nil {
		t.Errorf("Notify() error = %v", err)
	}

	if receivedAuth != "Bearer test-token" {
		t.Errorf("Authorization header = %q, want 'Bearer test-token'", receivedAuth)
	}
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, nil)
	err := n.Notify(context.Background(), Event{Type: EventReleaseFailed})

	if err == nil {
		t.Error("Notify() should return error for 400 status")
	}
}

func TestWebhookNotifier_NetworkError(t *testing.T) {
	n := NewWebhookNotifier("http://localhost:99999", nil) // Invalid port
	err := n.Notify(context.Background(), Event{Type: EventReleaseFailed})

	if err == nil {
		t.Error("Notify() should return error for network failure")
	}
}

// =============================================================================
// SlackNotifier Tests
// =============================================================================

func TestSlackNotifier(t *testing.T) {
	var receivedPayload slackPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &receivedPayload)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	n := NewSlackNotifier(server.URL,
		WithSlackChannel("#releases"),
		WithSlackUsername("testbot"),
	)

	event := Event{
		Type:      EventReleasePrepared,
		RunID:     99,
		Commit:    "0123456789abcdef0123",
		Message:   "staged 2 files",
		Severity:  SeverityInfo,
		Timestamp: time.Now(),
		Metadata: map[string]any{
			"version": "1.2.3",
			"files":   2,
		},
	}

	if err := n.Notify(context.Background(), event); err != nil {
		t.Fatalf("SlackNotifier.Notify() error = %v", err)
	}

	if receivedPayload.Channel != "#releases" {
		t.Errorf("Channel = %s, want #releases", receivedPayload.Channel)
	}
	if receivedPayload.Username != "testbot" {
		t.Errorf("Username = %s, want testbot", receivedPayload.Username)
	}
	if len(receivedPayload.Attachments) != 1 {
		t.Fatalf("Attachments = %d, want 1", len(receivedPayload.Attachments))
	}
	att := receivedPayload.Attachments[0]
	if att.Footer != "Commit: 0123456789ab | Run: 99" {
		t.Errorf("Footer = %q", att.Footer)
	}
	if len(att.Fields) != 2 || att.Fields[0].Title != "files" {
		t.Errorf("Fields should be sorted by title, got %+v", att.Fields)
	}
}

func TestSlackNotifier_FiltersEvents(t *testing.T) {
	var hits int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewSlackNotifier(server.URL)
	ctx := context.Background()

	_ = n.Notify(ctx, Event{Type: EventRunWaiting})
	_ = n.Notify(ctx, Event{Type: EventArtifactFetched})
	_ = n.Notify(ctx, Event{Type: EventReleaseFailed, Severity: SeverityError})

	if hits != 1 {
		t.Errorf("posts = %d, want 1 (release outcomes only)", hits)
	}

	custom := NewSlackNotifier(server.URL, WithSlackEvents(EventRunWaiting))
	_ = custom.Notify(ctx, Event{Type: EventRunWaiting})
	if hits != 2 {
		t.Errorf("posts = %d, want 2 after custom filter", hits)
	}
}

func TestSlackNotifier_ColorForSeverity(t *testing.T) {
	n := &SlackNotifier{}

	tests := []struct {
		severity  string
		wantColor string
	}{
		{SeverityInfo, "good"},
		{SeverityWarning, "warning"},
		{SeverityError, "danger"},
	}

	for _, tt := range tests {
		t.Run(tt.severity, func(t *testing.T) {
			if color := n.colorForSeverity(tt.severity); color != tt.wantColor {
				t.Errorf("colorForSeverity() = %s, want %s", color, tt.wantColor)
			}
		})
	}
}

// =============================================================================
// MultiNotifier Tests
// =============================================================================

func TestMultiNotifier(t *testing.T) {
	var calls []string

	notifier1 := &mockNotifier{name: "n1", calls: &calls}
	notifier2 := &mockNotifier{name: "n2", calls: &calls}

	multi := NewMultiNotifier(notifier1, nil, notifier2)

	if err := multi.Notify(context.Background(), Event{Type: EventRunLocated}); err != nil {
		t.Errorf("MultiNotifier.Notify() error = %v", err)
	}

	if len(calls) != 2 {
		t.Fatalf("Call count = %d, want 2", len(calls))
	}
	if calls[0] != "n1" || calls[1] != "n2" {
		t.Errorf("Calls = %v, want [n1, n2]", calls)
	}
}

func TestMultiNotifier_ContinuesOnError(t *testing.T) {
	var calls []string

	notifier1 := &mockNotifier{name: "n1", calls: &calls, err: context.DeadlineExceeded}
	notifier2 := &mockNotifier{name: "n2", calls: &calls}

	var logBuf bytes.Buffer
	multi := NewMultiNotifier(notifier1, notifier2)
	multi.Logger = slog.New(slog.NewTextHandler(&logBuf, nil))

	err := multi.Notify(context.Background(), Event{Type: EventRunLocated})
	if err == nil {
		t.Error("MultiNotifier should return last error")
	}
	if len(calls) != 2 {
		t.Errorf("Call count = %d, want 2 (both notifiers called)", len(calls))
	}
	if !strings.Contains(logBuf.String(), "notifier failed") {
		t.Errorf("expected failure to be logged: %s", logBuf.String())
	}
}

type mockNotifier struct {
	name  string
	calls *[]string
	err   error
}

func (m *mockNotifier) Notify(ctx context.Context, event Event) error {
	*m.calls = append(*m.calls, m.name)
	return m.err
}

// =============================================================================
// Recorder Tests
// =============================================================================

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	ctx := context.Background()

	_ = rec.Notify(ctx, Event{Type: EventRunLocated})
	_ = rec.Notify(ctx, Event{Type: EventArtifactFetched, Artifact: "a"})
	_ = rec.Notify(ctx, Event{Type: EventArtifactFetched, Artifact: "b"})

	types := rec.Types()
	want := []EventType{EventRunLocated, EventArtifactFetched, EventArtifactFetched}
	if len(types) != len(want) {
		t.Fatalf("Types() = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("Types()[%d] = %s, want %s", i, types[i], want[i])
		}
	}

	if got := rec.OfType(EventArtifactFetched); len(got) != 2 || got[1].Artifact != "b" {
		t.Errorf("OfType() = %+v", got)
	}

	rec.Reset()
	if len(rec.Events()) != 0 {
		t.Error("Reset should discard events")
	}
}

// =============================================================================
// Context Injection Tests
// =============================================================================

func TestNotifierContextInjection(t *testing.T) {
	ctx := context.Background()

	if NotifierFromContext(ctx) != nil {
		t.Error("NotifierFromContext should return nil without injection")
	}

	ctx = WithNotifier(ctx, NopNotifier{})

	if NotifierFromContext(ctx) == nil {
		t.Error("NotifierFromContext should not return nil after injection")
	}
}
