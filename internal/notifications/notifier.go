// Package notifications pushes provider outage alerts to an operator
// webhook. The bot itself never calls this; only the health poller does.
package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type Message struct {
	Title   string         `json:"title"`
	Body    string         `json:"body"`
	Context map[string]any `json:"context,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, message Message) error
}

// NoopNotifier is used when no operator webhook is configured.
type NoopNotifier struct{}

func (n NoopNotifier) Notify(_ context.Context, _ Message) error {
	return nil
}

type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(webhookURL string) (*WebhookNotifier, error) {
	trimmed := strings.TrimSpace(webhookURL)
	if trimmed == "" {
		return nil, fmt.Errorf("webhook url is required")
	}
	return &WebhookNotifier{
		url: trimmed,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

func (w *WebhookNotifier) Notify(ctx context.Context, message Message) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint status: %d", res.StatusCode)
	}

	return nil
}

// ProviderDown builds the outage alert for one provider.
func ProviderDown(providerKey, providerName, reason string) Message {
	return Message{
		Title: "Provider unhealthy: " + providerName,
		Body:  reason,
		Context: map[string]any{
			"provider": providerKey,
		},
	}
}
