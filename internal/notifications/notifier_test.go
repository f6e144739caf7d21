package notifications

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebhookNotifierPostsJSON(t *testing.T) {
	var received Message
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type: %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer upstream.Close()

	notifier, err := NewWebhookNotifier(upstream.URL)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	message := ProviderDown("gogoanime", "Gogoanime", "upstream 503")
	if err := notifier.Notify(context.Background(), message); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if received.Title != "Provider unhealthy: Gogoanime" || received.Body != "upstream 503" {
		t.Fatalf("unexpected payload: %+v", received)
	}
	if received.Context["provider"] != "gogoanime" {
		t.Fatalf("provider key missing from context: %+v", received.Context)
	}
}

func TestWebhookNotifierErrorOnBadStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	notifier, err := NewWebhookNotifier(upstream.URL)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}
	if err := notifier.Notify(context.Background(), Message{Title: "t"}); err == nil {
		t.Fatalf("expected error on 500")
	}
}

func TestNewWebhookNotifierRequiresURL(t *testing.T) {
	if _, err := NewWebhookNotifier("   "); err == nil {
		t.Fatalf("expected error for blank url")
	}
}

func TestNoopNotifier(t *testing.T) {
	if err := (NoopNotifier{}).Notify(context.Background(), Message{}); err != nil {
		t.Fatalf("noop notifier errored: %v", err)
	}
}
