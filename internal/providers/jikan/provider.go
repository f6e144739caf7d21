// Package jikan wraps the Jikan REST API (a MyAnimeList mirror) for
// series metadata and episode listings. It carries no stream sources.
package jikan

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ynrrishabh/anime/internal/providers"
)

const defaultBaseURL = "https://api.jikan.moe/v4"

type Provider struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, client *http.Client) *Provider {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 12 * time.Second}
	}
	return &Provider{baseURL: baseURL, httpClient: client}
}

func (p *Provider) Key() string {
	return "jikan"
}

func (p *Provider) Name() string {
	return "Jikan (MAL)"
}

func (p *Provider) HealthCheck(ctx context.Context) error {
	_, err := p.fetchJSON(ctx, p.baseURL+"/anime?q=naruto&limit=1")
	return err
}

func (p *Provider) Search(ctx context.Context, query string) ([]providers.SearchResult, error) {
	values := url.Values{}
	values.Set("q", query)
	values.Set("limit", "10")

	payload, err := p.fetchJSON(ctx, p.baseURL+"/anime?"+values.Encode())
	if err != nil {
		return nil, err
	}

	items, _, ok := providers.ExtractItems(payload, providers.ItemShapes())
	if !ok {
		return nil, fmt.Errorf("no known search envelope shape matched")
	}

	results := make([]providers.SearchResult, 0, len(items))
	for _, item := range items {
		id := providers.StringField(item, "mal_id")
		if id == "" {
			continue
		}
		title := providers.StringField(item, "title", "title_english")
		if title == "" {
			continue
		}
		results = append(results, providers.SearchResult{
			Provider:  p.Key(),
			ID:        id,
			Title:     title,
			SourceURL: providers.StringField(item, "url"),
		})
	}

	return results, nil
}

func (p *Provider) Detail(ctx context.Context, animeID string) (*providers.SeriesDetail, error) {
	payload, err := p.fetchJSON(ctx, p.baseURL+"/anime/"+url.PathEscape(animeID))
	if err != nil {
		return nil, err
	}

	data, ok := providers.GetByPath(payload, "data").(map[string]any)
	if !ok {
		return nil, fmt.Errorf("data object missing from response")
	}

	detail := &providers.SeriesDetail{
		Synopsis: providers.StringField(data, "synopsis"),
	}

	for _, field := range []struct{ label, key string }{
		{"Status", "status"},
		{"Type", "type"},
		{"Episodes", "episodes"},
		{"Duration", "duration"},
		{"Rating", "rating"},
		{"Score", "score"},
	} {
		if value := providers.StringField(data, field.key); value != "" {
			detail.Attributes = append(detail.Attributes, providers.Attribute{Label: field.label, Value: value})
		}
	}

	detail.Seasons = []providers.SeasonRef{{
		AnimeID: animeID,
		Number:  1,
		Label:   "Season 1",
		PostID:  animeID,
	}}

	return detail, nil
}

func (p *Provider) Episodes(ctx context.Context, season providers.SeasonRef) ([]providers.EpisodeRef, error) {
	payload, err := p.fetchJSON(ctx, p.baseURL+"/anime/"+url.PathEscape(season.PostID)+"/episodes")
	if err != nil {
		return nil, err
	}

	items, _, ok := providers.ExtractItems(payload, providers.ItemShapes())
	if !ok {
		return nil, fmt.Errorf("no known episode envelope shape matched")
	}

	episodes := make([]providers.EpisodeRef, 0, len(items))
	for index, item := range items {
		id := providers.StringField(item, "mal_id")
		if id == "" {
			continue
		}
		number, ok := providers.IntField(item, "mal_id")
		if !ok {
			number = index + 1
		}
		episodes = append(episodes, providers.EpisodeRef{
			Number: number,
			Name:   providers.StringField(item, "title"),
			ID:     season.PostID + "/" + id,
		})
	}

	return episodes, nil
}

func (p *Provider) Streams(_ context.Context, _ providers.EpisodeRef) ([]providers.StreamSource, error) {
	return []providers.StreamSource{}, nil
}

func (p *Provider) fetchJSON(ctx context.Context, endpoint string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d", res.StatusCode)
	}

	var payload any
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	return payload, nil
}
