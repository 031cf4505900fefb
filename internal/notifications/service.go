package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/message"

	"customsflow/internal/config"
)

const userAgent = "CustomsFlow-Go/0.1.0"

// Event identifies a notification template.
type Event string

const (
	EventAuditRequired  Event = "audit_required"
	EventAuditCompleted Event = "audit_completed"
	EventCleared        Event = "cleared"
	EventTest           Event = "test"
)

// Payload carries template arguments keyed by name.
type Payload map[string]string

// Service defines the notification surface exposed to session components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		printer:  newPrinter(cfg.Notifications.Language),
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	printer  *message.Printer
}

func (n *ntfyService) Publish(ctx context.Context, event Event, data Payload) error {
	msg, ok := n.render(event, data)
	if !ok {
		return fmt.Errorf("unsupported notification event %q", event)
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) render(event Event, data Payload) (payload, bool) {
	p := n.printer
	id := n.value(data, "declarationID")
	switch event {
	case EventAuditRequired:
		return payload{
			title:    p.Sprintf(keyTitleAuditRequired),
			message:  p.Sprintf(keyAuditRequired, id),
			tags:     []string{"customsflow", "audit", "required"},
			priority: "high",
		}, true
	case EventAuditCompleted:
		return payload{
			title:   p.Sprintf(keyTitleAuditCompleted),
			message: p.Sprintf(keyAuditCompleted, id, n.value(data, "transactionID")),
			tags:    []string{"customsflow", "audit", "completed"},
		}, true
	case EventCleared:
		return payload{
			title:   p.Sprintf(keyTitleCleared),
			message: p.Sprintf(keyCleared, id),
			tags:    []string{"customsflow", "cleared"},
		}, true
	case EventTest:
		return payload{
			title:    p.Sprintf(keyTitleTest),
			message:  p.Sprintf(keyTest),
			tags:     []string{"customsflow", "test"},
			priority: "low",
		}, true
	default:
		return payload{}, false
	}
}

func (n *ntfyService) value(data Payload, key string) string {
	if v := strings.TrimSpace(data[key]); v != "" {
		return v
	}
	return n.printer.Sprintf(keyUnknown)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
