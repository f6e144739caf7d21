package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"

	"github.com/ynrrishabh/anime/internal/config"
	"github.com/ynrrishabh/anime/internal/providers"
)

type fakeProvider struct {
	key  string
	name string
}

func (f *fakeProvider) Key() string                         { return f.key }
func (f *fakeProvider) Name() string                        { return f.name }
func (f *fakeProvider) HealthCheck(_ context.Context) error { return nil }

func (f *fakeProvider) Search(_ context.Context, _ string) ([]providers.SearchResult, error) {
	return nil, nil
}

func (f *fakeProvider) Detail(_ context.Context, _ string) (*providers.SeriesDetail, error) {
	return &providers.SeriesDetail{}, nil
}

func (f *fakeProvider) Episodes(_ context.Context, _ providers.SeasonRef) ([]providers.EpisodeRef, error) {
	return nil, nil
}

func (f *fakeProvider) Streams(_ context.Context, _ providers.EpisodeRef) ([]providers.StreamSource, error) {
	return nil, nil
}

type fakeSnapshotter struct {
	statuses []providers.HealthStatus
}

func (f *fakeSnapshotter) Snapshot() []providers.HealthStatus {
	return f.statuses
}

type fakeUpdates struct {
	received chan gotgbot.Update
}

func (f *fakeUpdates) HandleUpdate(_ context.Context, update gotgbot.Update) {
	f.received <- update
}

func testRegistry(t *testing.T) *providers.Registry {
	t.Helper()
	registry := providers.NewRegistry()
	if err := registry.Register(&fakeProvider{key: "gogoanime", name: "Gogoanime"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	return registry
}

func decodeBody(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}

func TestRootStatus(t *testing.T) {
	app := NewServer(config.Config{AppName: "anime-bot"}, nil, testRegistry(t), nil, &fakeUpdates{received: make(chan gotgbot.Update, 1)})

	res, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	payload := decodeBody(t, res.Body)
	if payload["status"] != "Bot is running!" {
		t.Fatalf("unexpected status payload: %v", payload)
	}
}

func TestHealthWithoutDB(t *testing.T) {
	snapshot := &fakeSnapshotter{statuses: []providers.HealthStatus{
		{Key: "gogoanime", Name: "Gogoanime", Healthy: true},
	}}
	app := NewServer(config.Config{AppName: "anime-bot"}, nil, testRegistry(t), snapshot, &fakeUpdates{received: make(chan gotgbot.Update, 1)})

	res, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	payload := decodeBody(t, res.Body)
	if payload["status"] != "ok" || payload["db"] != "off" {
		t.Fatalf("unexpected health payload: %v", payload)
	}
	statuses, ok := payload["providers"].([]any)
	if !ok || len(statuses) != 1 {
		t.Fatalf("provider snapshot missing: %v", payload["providers"])
	}
}

func TestWebhookReceiveDispatchesUpdate(t *testing.T) {
	updates := &fakeUpdates{received: make(chan gotgbot.Update, 1)}
	app := NewServer(config.Config{AppName: "anime-bot"}, nil, testRegistry(t), nil, updates)

	body := `{"update_id":7,"message":{"message_id":1,"date":1700000000,"chat":{"id":42,"type":"private"},"text":"/anime naruto"}}`
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	payload := decodeBody(t, res.Body)
	if payload["status"] != "received" {
		t.Fatalf("unexpected ack: %v", payload)
	}

	select {
	case update := <-updates.received:
		if update.UpdateId != 7 || update.Message == nil || update.Message.Text != "/anime naruto" {
			t.Fatalf("update mangled: %+v", update)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("update never dispatched")
	}
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	updates := &fakeUpdates{received: make(chan gotgbot.Update, 1)}
	app := NewServer(config.Config{AppName: "anime-bot"}, nil, testRegistry(t), nil, updates)

	req := httptest.NewRequest("POST", "/", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")

	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
	select {
	case <-updates.received:
		t.Fatalf("malformed update dispatched")
	default:
	}
}

func TestProvidersList(t *testing.T) {
	app := NewServer(config.Config{AppName: "anime-bot"}, nil, testRegistry(t), nil, &fakeUpdates{received: make(chan gotgbot.Update, 1)})

	res, err := app.Test(httptest.NewRequest("GET", "/v1/providers", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	payload := decodeBody(t, res.Body)
	items, ok := payload["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("unexpected items: %v", payload["items"])
	}
	first, _ := items[0].(map[string]any)
	if first["key"] != "gogoanime" {
		t.Fatalf("unexpected provider: %v", first)
	}
}

func TestProvidersHealth(t *testing.T) {
	app := NewServer(config.Config{AppName: "anime-bot"}, nil, testRegistry(t), nil, &fakeUpdates{received: make(chan gotgbot.Update, 1)})

	res, err := app.Test(httptest.NewRequest("GET", "/v1/providers/health", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	payload := decodeBody(t, res.Body)
	items, ok := payload["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("unexpected items: %v", payload["items"])
	}
	first, _ := items[0].(map[string]any)
	if first["healthy"] != true {
		t.Fatalf("unexpected health: %v", first)
	}
}
