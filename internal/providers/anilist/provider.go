// Package anilist queries the AniList GraphQL API for series metadata.
// It serves search and detail only; AniList carries no episode listings
// or stream sources.
package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ynrrishabh/anime/internal/providers"
)

const defaultEndpoint = "https://graphql.anilist.co"

const searchQuery = `query ($search: String) {
  Page(page: 1, perPage: 10) {
    media(search: $search, type: ANIME, sort: SEARCH_MATCH) {
      id
      siteUrl
      title { romaji english }
    }
  }
}`

const detailQuery = `query ($id: Int) {
  Media(id: $id, type: ANIME) {
    id
    description(asHtml: false)
    status
    format
    episodes
    duration
    averageScore
    genres
  }
}`

var htmlTagPattern = regexp.MustCompile(`(?is)<[^>]+>`)

type Provider struct {
	endpoint   string
	httpClient *http.Client
}

func New(endpoint string, client *http.Client) *Provider {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: 12 * time.Second}
	}
	return &Provider{endpoint: endpoint, httpClient: client}
}

func (p *Provider) Key() string {
	return "anilist"
}

func (p *Provider) Name() string {
	return "AniList"
}

func (p *Provider) HealthCheck(ctx context.Context) error {
	_, err := p.query(ctx, searchQuery, map[string]any{"search": "naruto"})
	return err
}

func (p *Provider) Search(ctx context.Context, query string) ([]providers.SearchResult, error) {
	payload, err := p.query(ctx, searchQuery, map[string]any{"search": query})
	if err != nil {
		return nil, err
	}

	raw := providers.GetByPath(payload, "data.Page.media")
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("media list missing from response")
	}

	results := make([]providers.SearchResult, 0, len(list))
	for _, entry := range list {
		item, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		id := providers.StringField(item, "id")
		if id == "" {
			continue
		}
		title := ""
		if titles, ok := item["title"].(map[string]any); ok {
			title = providers.StringField(titles, "english", "romaji")
		}
		if title == "" {
			continue
		}
		results = append(results, providers.SearchResult{
			Provider:  p.Key(),
			ID:        id,
			Title:     title,
			SourceURL: providers.StringField(item, "siteUrl"),
		})
	}

	return results, nil
}

func (p *Provider) Detail(ctx context.Context, animeID string) (*providers.SeriesDetail, error) {
	id, err := strconv.Atoi(animeID)
	if err != nil {
		return nil, fmt.Errorf("anilist id must be numeric: %w", err)
	}

	payload, err := p.query(ctx, detailQuery, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}

	media, ok := providers.GetByPath(payload, "data.Media").(map[string]any)
	if !ok {
		return nil, fmt.Errorf("media object missing from response")
	}

	detail := &providers.SeriesDetail{
		Synopsis: cleanDescription(providers.StringField(media, "description")),
	}

	for _, field := range []struct{ label, key string }{
		{"Status", "status"},
		{"Format", "format"},
		{"Episodes", "episodes"},
	} {
		if value := providers.StringField(media, field.key); value != "" {
			detail.Attributes = append(detail.Attributes, providers.Attribute{Label: field.label, Value: value})
		}
	}
	if duration, ok := providers.IntField(media, "duration"); ok && duration > 0 {
		detail.Attributes = append(detail.Attributes, providers.Attribute{Label: "Duration", Value: fmt.Sprintf("%d min", duration)})
	}
	if score, ok := providers.IntField(media, "averageScore"); ok && score > 0 {
		detail.Attributes = append(detail.Attributes, providers.Attribute{Label: "Score", Value: fmt.Sprintf("%d%%", score)})
	}
	if genres := toStringList(media["genres"]); len(genres) > 0 {
		detail.Attributes = append(detail.Attributes, providers.Attribute{Label: "Genres", Value: strings.Join(genres, ", ")})
	}

	return detail, nil
}

func (p *Provider) Episodes(_ context.Context, _ providers.SeasonRef) ([]providers.EpisodeRef, error) {
	return []providers.EpisodeRef{}, nil
}

func (p *Provider) Streams(_ context.Context, _ providers.EpisodeRef) ([]providers.StreamSource, error) {
	return []providers.StreamSource{}, nil
}

func (p *Provider) query(ctx context.Context, query string, variables map[string]any) (any, error) {
	body, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil {
		return nil, fmt.Errorf("marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
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

// AniList descriptions embed HTML break tags and italics.
func cleanDescription(raw string) string {
	text := strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n").Replace(raw)
	text = htmlTagPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func toStringList(value any) []string {
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
