package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"customsflow/internal/config"
	"customsflow/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		got.body = string(body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte("nope"))
	}))
	t.Cleanup(server.Close)
	return server, got
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventAuditRequired, notifications.Payload{"declarationID": "D1"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).Publish(context.Background(), notifications.EventTest, nil); err != nil {
		t.Fatalf("nil config should yield noop, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		language       string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:           "audit required",
			language:       "en",
			event:          notifications.EventAuditRequired,
			payload:        notifications.Payload{"declarationID": "D-42"},
			expectTitle:    "CustomsFlow - Audit Required",
			expectMessage:  "Declaration D-42 requires manual audit",
			expectTags:     "customsflow,audit,required",
			expectPriority: "high",
		},
		{
			name:          "audit completed",
			language:      "en",
			event:         notifications.EventAuditCompleted,
			payload:       notifications.Payload{"declarationID": "D-42", "transactionID": "tx-9"},
			expectTitle:   "CustomsFlow - Audit Completed",
			expectMessage: "Audit complete for D-42 (transaction tx-9)",
			expectTags:    "customsflow,audit,completed",
		},
		{
			name:          "cleared missing id",
			language:      "en",
			event:         notifications.EventCleared,
			payload:       notifications.Payload{},
			expectTitle:   "CustomsFlow - Cleared",
			expectMessage: "Declaration unknown cleared",
			expectTags:    "customsflow,cleared",
		},
		{
			name:          "audit completed chinese",
			language:      "zh",
			event:         notifications.EventAuditCompleted,
			payload:       notifications.Payload{"declarationID": "D-7", "transactionID": "tx-1"},
			expectTitle:   "CustomsFlow - 审核完成",
			expectMessage: "报关单 D-7 审核完成 (交易号 tx-1)",
			expectTags:    "customsflow,audit,completed",
		},
		{
			name:           "test",
			language:       "en",
			event:          notifications.EventTest,
			expectTitle:    "CustomsFlow - Test",
			expectMessage:  "Notification system test",
			expectTags:     "customsflow,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, got := newCaptureServer(t, http.StatusOK)
			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.Language = tc.language

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("Publish: %v", err)
			}
			if got.title != tc.expectTitle {
				t.Fatalf("title = %q, want %q", got.title, tc.expectTitle)
			}
			if got.body != tc.expectMessage {
				t.Fatalf("message = %q, want %q", got.body, tc.expectMessage)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("tags = %q, want %q", got.tags, tc.expectTags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("priority = %q, want %q", got.priority, tc.expectPriority)
			}
		})
	}
}

func TestNtfyServiceReportsHTTPFailure(t *testing.T) {
	server, _ := newCaptureServer(t, http.StatusBadGateway)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	err := notifications.NewService(&cfg).Publish(context.Background(), notifications.EventTest, nil)
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestNtfyServiceRejectsUnknownEvent(t *testing.T) {
	server, _ := newCaptureServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	if err := notifications.NewService(&cfg).Publish(context.Background(), "bogus", nil); err == nil {
		t.Fatal("expected error for unknown event")
	}
}

func TestLanguageFallsBackToEnglish(t *testing.T) {
	if got := notifications.Language("ZH").String(); got != "zh" {
		t.Fatalf("Language(ZH) = %s", got)
	}
	if got := notifications.Language("fr").String(); got != "en" {
		t.Fatalf("Language(fr) = %s", got)
	}
}
