package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestWebhook_Notify(t *testing.T) {
	var receivedPayload WebhookPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Error("expected Content-Type: application/json")
		}
		json.NewDecoder(r.Body).Decode(&receivedPayload)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	webhook := NewWebhook(server.URL)
	err := webhook.Notify(context.Background(), Notification{
		Severity: SeverityCritical,
		RunID:    "01JC5G9XKQ",
		Title:    "Batch finished with failures",
		Message:  "3 of 10 scenes failed after exhausting all providers",
		Context: map[string]string{
			"failed_units": "2,5,7",
		},
	})

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if receivedPayload.Severity != "critical" {
		t.Errorf("expected severity 'critical', got %q", receivedPayload.Severity)
	}
	if receivedPayload.RunID != "01JC5G9XKQ" {
		t.Errorf("expected run id in payload, got %q", receivedPayload.RunID)
	}
	if receivedPayload.Context["failed_units"] != "2,5,7" {
		t.Error("expected context to include failed_units")
	}
}

func TestWebhook_NotifyError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	webhook := NewWebhook(server.URL)
	err := webhook.Notify(context.Background(), Notification{
		Severity: SeverityInfo,
		Title:    "Test",
	})

	if err == nil {
		t.Error("expected error for 400 response")
	}
}

func TestTerminal_Notify(t *testing.T) {
	var buf bytes.Buffer
	terminal := NewTerminalWithWriter(&buf)

	err := terminal.Notify(context.Background(), Notification{
		Severity: SeverityWarning,
		RunID:    "run-1",
		Title:    "Fallbacks exceeded threshold",
		Message:  "kling rejected 4 submits this run",
		Context:  map[string]string{"provider": "kling"},
	})

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Fallbacks exceeded threshold") {
		t.Error("expected title in output")
	}
	if !strings.Contains(out, "run-1") {
		t.Error("expected run id in output")
	}
	if !strings.Contains(out, "provider: kling") {
		t.Error("expected context line in output")
	}
}

func TestTerminal_NotifyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	terminal := NewTerminal()
	if err := terminal.Notify(ctx, Notification{Title: "x"}); err == nil {
		t.Error("expected error for cancelled context")
	}
}

type mockNotifier struct {
	name  string
	err   error
	calls int32
}

func (m *mockNotifier) Notify(ctx context.Context, n Notification) error {
	atomic.AddInt32(&m.calls, 1)
	return m.err
}

func (m *mockNotifier) Name() string {
	return m.name
}

func TestMulti_Notify(t *testing.T) {
	mock1 := &mockNotifier{name: "mock1"}
	mock2 := &mockNotifier{name: "mock2"}
	mock3 := &mockNotifier{name: "mock3"}

	multi := NewMulti(mock1, mock2, mock3)
	err := multi.Notify(context.Background(), Notification{
		Severity: SeverityInfo,
		Title:    "Test",
		Message:  "Test message",
	})

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, m := range []*mockNotifier{mock1, mock2, mock3} {
		if atomic.LoadInt32(&m.calls) != 1 {
			t.Errorf("%s: expected 1 call, got %d", m.name, m.calls)
		}
	}
}

func TestMulti_NotifyReturnsFirstError(t *testing.T) {
	failing := &mockNotifier{name: "failing", err: errors.New("unreachable")}
	ok := &mockNotifier{name: "ok"}

	multi := NewMulti(failing, ok)
	err := multi.Notify(context.Background(), Notification{Title: "x"})

	if err == nil {
		t.Error("expected first error to propagate")
	}
	if atomic.LoadInt32(&ok.calls) != 1 {
		t.Error("healthy backend should still be called")
	}
}

func TestFromConfig(t *testing.T) {
	cases := []struct {
		name     string
		cfg      Config
		wantName string
		wantErr  bool
	}{
		{"default terminal", Config{}, "terminal", false},
		{"single webhook", Config{Backends: []string{"webhook"}, WebhookURL: "http://x"}, "webhook", false},
		{"multi", Config{Backends: []string{"terminal", "webhook"}, WebhookURL: "http://x"}, "multi", false},
		{"webhook missing url", Config{Backends: []string{"webhook"}}, "", true},
		{"unknown backend", Config{Backends: []string{"pager"}}, "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := FromConfig(tc.cfg)
			if tc.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n.Name() != tc.wantName {
				t.Errorf("expected %s, got %s", tc.wantName, n.Name())
			}
		})
	}
}
