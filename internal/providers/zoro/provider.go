// Package zoro wraps a Zoro-style streaming API: search, episode
// listings and stream sources. It sits second in the registry, so
// searches fall through to it when the primary aggregator is down.
package zoro

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

const defaultBaseURL = "https://api-anime.vercel.app/anime/zoro"

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
	return "zoro"
}

func (p *Provider) Name() string {
	return "Zoro"
}

func (p *Provider) HealthCheck(ctx context.Context) error {
	_, err := p.fetchJSON(ctx, p.baseURL+"/naruto")
	return err
}

func (p *Provider) Search(ctx context.Context, query string) ([]providers.SearchResult, error) {
	payload, err := p.fetchJSON(ctx, p.baseURL+"/"+url.PathEscape(query))
	if err != nil {
		return nil, err
	}

	if providers.LooksLikeDocumentation(payload) {
		return []providers.SearchResult{}, nil
	}

	items, _, ok := providers.ExtractItems(payload, providers.ItemShapes())
	if !ok {
		return nil, fmt.Errorf("no known search envelope shape matched")
	}

	results := make([]providers.SearchResult, 0, len(items))
	for _, item := range items {
		id := providers.StringField(item, "id")
		if id == "" {
			continue
		}
		title := providers.StringField(item, "title", "name")
		if title == "" {
			title = id
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
	payload, err := p.fetchJSON(ctx, p.baseURL+"/info?id="+url.QueryEscape(animeID))
	if err != nil {
		return nil, err
	}

	info, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("info payload is not an object")
	}

	detail := &providers.SeriesDetail{
		Synopsis: providers.StringField(info, "description"),
	}
	for _, field := range []struct{ label, key string }{
		{"Type", "type"},
		{"Status", "status"},
		{"Episodes", "totalEpisodes"},
	} {
		if value := providers.StringField(info, field.key); value != "" {
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
	payload, err := p.fetchJSON(ctx, p.baseURL+"/info?id="+url.QueryEscape(season.PostID))
	if err != nil {
		return nil, err
	}

	items, _, ok := providers.ExtractItems(payload, episodeShapes())
	if !ok {
		return nil, fmt.Errorf("no known episode envelope shape matched")
	}

	episodes := make([]providers.EpisodeRef, 0, len(items))
	for index, item := range items {
		id := providers.StringField(item, "episodeId", "id")
		if id == "" {
			continue
		}
		number, ok := providers.IntField(item, "number")
		if !ok {
			number = index + 1
		}
		episodes = append(episodes, providers.EpisodeRef{
			Number: number,
			Name:   providers.StringField(item, "title", "name"),
			ID:     id,
		})
	}

	return episodes, nil
}

func (p *Provider) Streams(ctx context.Context, episode providers.EpisodeRef) ([]providers.StreamSource, error) {
	payload, err := p.fetchJSON(ctx, p.baseURL+"/watch?episodeId="+url.QueryEscape(episode.ID))
	if err != nil {
		return nil, err
	}

	raw := providers.GetByPath(payload, "sources")
	if raw == nil {
		raw = providers.GetByPath(payload, "data.sources")
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("watch payload carries no sources")
	}

	sources := make([]providers.StreamSource, 0, len(list))
	for _, entry := range list {
		item, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		streamURL := providers.StringField(item, "url", "file")
		if streamURL == "" {
			continue
		}
		sources = append(sources, providers.StreamSource{
			URL:   streamURL,
			Label: providers.StringField(item, "quality", "label", "server"),
		})
	}

	return sources, nil
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

func episodeShapes() []providers.Shape {
	shapes := providers.ItemShapes()
	return append(shapes, providers.Shape{
		Name: "episodes field",
		Extract: func(payload any) ([]map[string]any, bool) {
			list, ok := providers.GetByPath(payload, "episodes").([]any)
			if !ok || len(list) == 0 {
				return nil, false
			}
			items := make([]map[string]any, 0, len(list))
			for _, entry := range list {
				item, ok := entry.(map[string]any)
				if !ok {
					return nil, false
				}
				items = append(items, item)
			}
			return items, true
		},
	})
}
