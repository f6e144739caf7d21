// Package consumet wraps a gogoanime-style aggregator API. Public
// deployments of the aggregator come and go and occasionally serve their
// API documentation from data paths, so the provider is configured with
// an ordered list of base URL variants and falls through to the next one
// when a response carries no data.
package consumet

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ynrrishabh/anime/internal/providers"
)

const defaultEndpoint = "https://consumet-api-0kir.onrender.com"

type Provider struct {
	endpoints  []string
	httpClient *http.Client
}

func New(endpoints []string, client *http.Client) *Provider {
	if len(endpoints) == 0 {
		endpoints = []string{defaultEndpoint}
	}
	if client == nil {
		client = &http.Client{Timeout: 12 * time.Second}
	}

	trimmed := make([]string, 0, len(endpoints))
	for _, endpoint := range endpoints {
		endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
		if endpoint != "" {
			trimmed = append(trimmed, endpoint)
		}
	}

	return &Provider{endpoints: trimmed, httpClient: client}
}

func (p *Provider) Key() string {
	return "gogoanime"
}

func (p *Provider) Name() string {
	return "Gogoanime"
}

func (p *Provider) HealthCheck(ctx context.Context) error {
	var lastErr error
	for _, endpoint := range p.endpoints {
		_, err := p.fetchJSON(ctx, endpoint+"/anime/gogoanime/naruto")
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return lastErr
}

func (p *Provider) Search(ctx context.Context, query string) ([]providers.SearchResult, error) {
	var lastErr error
	for _, endpoint := range p.endpoints {
		payload, err := p.fetchJSON(ctx, endpoint+"/anime/gogoanime/"+url.PathEscape(query))
		if err != nil {
			lastErr = err
			continue
		}

		if providers.LooksLikeDocumentation(payload) {
			slog.Debug("aggregator served documentation instead of data", "provider", p.Key(), "endpoint", endpoint)
			continue
		}

		items, shape, ok := providers.ExtractItems(payload, providers.ItemShapes())
		if !ok {
			lastErr = fmt.Errorf("no known search envelope shape matched")
			continue
		}
		slog.Debug("search envelope matched", "provider", p.Key(), "shape", shape)

		results := make([]providers.SearchResult, 0, len(items))
		for _, item := range items {
			id := providers.StringField(item, "id", "animeId", "slug")
			if id == "" {
				continue
			}
			title := providers.StringField(item, "title", "animeTitle", "name")
			if title == "" {
				title = id
			}
			results = append(results, providers.SearchResult{
				Provider:  p.Key(),
				ID:        id,
				Title:     title,
				SourceURL: providers.StringField(item, "url", "animeUrl"),
			})
		}

		if len(results) > 0 {
			return results, nil
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all aggregator endpoints exhausted: %w", lastErr)
	}
	return []providers.SearchResult{}, nil
}

func (p *Provider) Detail(ctx context.Context, animeID string) (*providers.SeriesDetail, error) {
	payload, err := p.fetchInfo(ctx, animeID)
	if err != nil {
		return nil, err
	}

	info, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("info payload is not an object")
	}

	detail := &providers.SeriesDetail{
		Synopsis: providers.StringField(info, "description", "synopsis", "plot_summary"),
	}

	for _, field := range []struct{ label, key string }{
		{"Status", "status"},
		{"Type", "type"},
		{"Released", "releaseDate"},
		{"Sub/Dub", "subOrDub"},
		{"Episodes", "totalEpisodes"},
	} {
		if value := providers.StringField(info, field.key); value != "" {
			detail.Attributes = append(detail.Attributes, providers.Attribute{Label: field.label, Value: value})
		}
	}
	if genres := stringList(info["genres"]); len(genres) > 0 {
		detail.Attributes = append(detail.Attributes, providers.Attribute{Label: "Genres", Value: strings.Join(genres, ", ")})
	}

	// The aggregator has no season concept; the whole series is one
	// season keyed by the anime id.
	detail.Seasons = []providers.SeasonRef{{
		AnimeID: animeID,
		Number:  1,
		Label:   "Season 1",
		PostID:  animeID,
	}}

	return detail, nil
}

func (p *Provider) Episodes(ctx context.Context, season providers.SeasonRef) ([]providers.EpisodeRef, error) {
	payload, err := p.fetchInfo(ctx, season.PostID)
	if err != nil {
		return nil, err
	}

	items, shape, ok := providers.ExtractItems(payload, episodeShapes())
	if !ok {
		return nil, fmt.Errorf("no known episode envelope shape matched")
	}
	slog.Debug("episode envelope matched", "provider", p.Key(), "shape", shape)

	episodes := make([]providers.EpisodeRef, 0, len(items))
	for index, item := range items {
		id := providers.StringField(item, "id", "episodeId")
		if id == "" {
			continue
		}
		number, ok := providers.IntField(item, "number", "episodeNum")
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
	var lastErr error
	for _, endpoint := range p.endpoints {
		payload, err := p.fetchJSON(ctx, endpoint+"/anime/gogoanime/watch/"+url.PathEscape(episode.ID))
		if err != nil {
			lastErr = err
			continue
		}

		if providers.LooksLikeDocumentation(payload) {
			continue
		}

		raw := providers.GetByPath(payload, "sources")
		if raw == nil {
			raw = providers.GetByPath(payload, "data.sources")
		}
		items, ok := rawSourceList(raw)
		if !ok {
			lastErr = fmt.Errorf("watch payload carries no sources")
			continue
		}

		sources := make([]providers.StreamSource, 0, len(items))
		for _, item := range items {
			streamURL := providers.StringField(item, "url", "file")
			if streamURL == "" {
				continue
			}
			sources = append(sources, providers.StreamSource{
				URL:   streamURL,
				Label: providers.StringField(item, "quality", "label"),
			})
		}

		if len(sources) > 0 {
			return sources, nil
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all aggregator endpoints exhausted: %w", lastErr)
	}
	return []providers.StreamSource{}, nil
}

// fetchInfo fetches the series info payload, walking endpoint variants
// until one serves data instead of documentation.
func (p *Provider) fetchInfo(ctx context.Context, animeID string) (any, error) {
	var lastErr error
	for _, endpoint := range p.endpoints {
		payload, err := p.fetchJSON(ctx, endpoint+"/anime/gogoanime/info/"+url.PathEscape(animeID))
		if err != nil {
			lastErr = err
			continue
		}
		if providers.LooksLikeDocumentation(payload) {
			slog.Debug("aggregator served documentation instead of data", "provider", p.Key(), "endpoint", endpoint)
			continue
		}
		return payload, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("all endpoint variants served documentation")
	}
	return nil, lastErr
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

// episodeShapes rides the shared envelope fallback, with the aggregator's
// plain episodes field as a last resort after the standard order.
func episodeShapes() []providers.Shape {
	shapes := providers.ItemShapes()
	return append(shapes, providers.Shape{
		Name: "episodes field",
		Extract: func(payload any) ([]map[string]any, bool) {
			return rawSourceList(providers.GetByPath(payload, "episodes"))
		},
	})
}

func stringList(value any) []string {
	list, ok := value.([]any)
	if !ok {
		return nil
	}
	items := make([]string, 0, len(list))
	for _, entry := range list {
		if text, ok := entry.(string); ok && strings.TrimSpace(text) != "" {
			items = append(items, strings.TrimSpace(text))
		}
	}
	return items
}

func rawSourceList(value any) ([]map[string]any, bool) {
	list, ok := value.([]any)
	if !ok {
		return nil, false
	}
	items := make([]map[string]any, 0, len(list))
	for _, entry := range list {
		item, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items, len(items) > 0
}
