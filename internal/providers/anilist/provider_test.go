package anilist

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ynrrishabh/anime/internal/providers"
)

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func graphqlServer(t *testing.T, respond func(req graphqlRequest) string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		var req graphqlRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("decode graphql request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(respond(req)))
	}))
}

func TestSearchMapsMediaPage(t *testing.T) {
	upstream := graphqlServer(t, func(req graphqlRequest) string {
		if req.Variables["search"] != "naruto" {
			t.Errorf("search variable: %v", req.Variables["search"])
		}
		if !strings.Contains(req.Query, "media(search: $search") {
			t.Errorf("unexpected query: %s", req.Query)
		}
		return `{"data":{"Page":{"media":[
			{"id":20,"siteUrl":"https://anilist.co/anime/20","title":{"romaji":"NARUTO","english":"Naruto"}},
			{"id":1735,"title":{"romaji":"NARUTO: Shippuuden","english":null}}
		]}}}`
	})
	defer upstream.Close()

	provider := New(upstream.URL, upstream.Client())
	results, err := provider.Search(context.Background(), "naruto")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "20" || results[0].Title != "Naruto" {
		t.Fatalf("english title not preferred: %+v", results[0])
	}
	if results[1].Title != "NARUTO: Shippuuden" {
		t.Fatalf("romaji fallback failed: %+v", results[1])
	}
}

func TestDetailCleansDescriptionAndMapsFacts(t *testing.T) {
	upstream := graphqlServer(t, func(req graphqlRequest) string {
		if req.Variables["id"] != float64(20) {
			t.Errorf("id variable: %v", req.Variables["id"])
		}
		return `{"data":{"Media":{
			"id":20,
			"description":"A young ninja.<br><br><i>Based on the manga.</i>",
			"status":"FINISHED",
			"format":"TV",
			"episodes":220,
			"duration":23,
			"averageScore":79,
			"genres":["Action","Adventure"]
		}}}`
	})
	defer upstream.Close()

	provider := New(upstream.URL, upstream.Client())
	detail, err := provider.Detail(context.Background(), "20")
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.Synopsis != "A young ninja.\n\nBased on the manga." {
		t.Fatalf("description not cleaned: %q", detail.Synopsis)
	}

	labels := map[string]string{}
	for _, attribute := range detail.Attributes {
		labels[attribute.Label] = attribute.Value
	}
	if labels["Status"] != "FINISHED" || labels["Episodes"] != "220" {
		t.Fatalf("facts not mapped: %+v", labels)
	}
	if labels["Duration"] != "23 min" || labels["Score"] != "79%" {
		t.Fatalf("numeric facts not rendered: %+v", labels)
	}
	if labels["Genres"] != "Action, Adventure" {
		t.Fatalf("genres: %q", labels["Genres"])
	}
}

func TestDetailRejectsNonNumericID(t *testing.T) {
	provider := New("https://unused.example", nil)
	if _, err := provider.Detail(context.Background(), "naruto"); err == nil {
		t.Fatalf("expected error for non-numeric id")
	}
}

func TestEpisodesAndStreamsAreEmpty(t *testing.T) {
	provider := New("https://unused.example", nil)

	episodes, err := provider.Episodes(context.Background(), providers.SeasonRef{})
	if err != nil || len(episodes) != 0 {
		t.Fatalf("expected empty episodes without error, got %v (%v)", episodes, err)
	}
	streams, err := provider.Streams(context.Background(), providers.EpisodeRef{})
	if err != nil || len(streams) != 0 {
		t.Fatalf("expected empty streams without error, got %v (%v)", streams, err)
	}
}
