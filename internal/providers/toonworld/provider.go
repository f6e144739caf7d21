// Package toonworld scrapes an anime-listing site directly. Unlike the
// aggregator sources it has a real season structure: each series page
// links its seasons through internal post ids, and episode listings are
// fetched per post id.
package toonworld

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ynrrishabh/anime/internal/providers"
	"github.com/ynrrishabh/anime/internal/searchutil"
)

const defaultBaseURL = "https://toonworld4all.me"

var (
	seasonLabelPattern  = regexp.MustCompile(`(?i)season\s+(\d+)`)
	episodeLabelPattern = regexp.MustCompile(`(?i)episode\s+(\d+)`)
)

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
	return "toonworld"
}

func (p *Provider) Name() string {
	return "ToonWorld"
}

func (p *Provider) HealthCheck(ctx context.Context) error {
	doc, err := p.fetchDocument(ctx, p.baseURL+"/")
	if err != nil {
		return err
	}
	if doc.Find("a").Length() == 0 {
		return fmt.Errorf("listing page carries no links")
	}
	return nil
}

func (p *Provider) Search(ctx context.Context, query string) ([]providers.SearchResult, error) {
	doc, err := p.fetchDocument(ctx, p.baseURL+"/?s="+url.QueryEscape(query))
	if err != nil {
		return nil, err
	}

	results := make([]providers.SearchResult, 0, 10)
	doc.Find("article h2.entry-title a, article .entry-title a").Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Text())
		href := s.AttrOr("href", "")
		slug := seriesSlug(href)
		if title == "" || slug == "" {
			return
		}
		if !searchutil.MatchesQuery(title, query) {
			return
		}
		results = append(results, providers.SearchResult{
			Provider:  p.Key(),
			ID:        slug,
			Title:     title,
			SourceURL: p.absoluteURL(href),
		})
	})

	return results, nil
}

func (p *Provider) Detail(ctx context.Context, animeID string) (*providers.SeriesDetail, error) {
	doc, err := p.fetchDocument(ctx, p.seriesURL(animeID))
	if err != nil {
		return nil, err
	}

	detail := &providers.SeriesDetail{
		Synopsis: strings.TrimSpace(doc.Find(".entry-content > p").First().Text()),
	}

	doc.Find(".series-info li, .info li").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		label, value, found := strings.Cut(text, ":")
		if !found {
			return
		}
		label = strings.TrimSpace(label)
		value = strings.TrimSpace(value)
		if label == "" || value == "" {
			return
		}
		detail.Attributes = append(detail.Attributes, providers.Attribute{Label: label, Value: value})
	})

	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		label := strings.TrimSpace(s.Text())
		match := seasonLabelPattern.FindStringSubmatch(label)
		if match == nil {
			return
		}
		number, err := strconv.Atoi(match[1])
		if err != nil {
			return
		}
		postID := postIDFromHref(s.AttrOr("href", ""))
		if postID == "" {
			return
		}
		detail.Seasons = append(detail.Seasons, providers.SeasonRef{
			AnimeID: animeID,
			Number:  number,
			Label:   label,
			PostID:  postID,
		})
	})

	return detail, nil
}

func (p *Provider) Episodes(ctx context.Context, season providers.SeasonRef) ([]providers.EpisodeRef, error) {
	doc, err := p.fetchDocument(ctx, p.baseURL+"/episode-list/?p="+url.QueryEscape(season.PostID))
	if err != nil {
		return nil, err
	}

	episodes := make([]providers.EpisodeRef, 0, 16)
	doc.Find("ul.episodes li a, .episode-list a").Each(func(index int, s *goquery.Selection) {
		// Episode links are usually site-relative; the id must be a
		// fetchable URL because Streams requests it directly.
		href := p.absoluteURL(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		label := strings.TrimSpace(s.Text())
		number := index + 1
		if match := episodeLabelPattern.FindStringSubmatch(label); match != nil {
			if parsed, err := strconv.Atoi(match[1]); err == nil {
				number = parsed
			}
		}
		episodes = append(episodes, providers.EpisodeRef{
			Number: number,
			Name:   label,
			ID:     href,
		})
	})

	return episodes, nil
}

func (p *Provider) Streams(ctx context.Context, episode providers.EpisodeRef) ([]providers.StreamSource, error) {
	doc, err := p.fetchDocument(ctx, episode.ID)
	if err != nil {
		return nil, err
	}

	sources := make([]providers.StreamSource, 0, 4)
	doc.Find("a.watch-btn, a.server-link").Each(func(_ int, s *goquery.Selection) {
		href := p.absoluteURL(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		sources = append(sources, providers.StreamSource{
			URL:   href,
			Label: strings.TrimSpace(s.Text()),
		})
	})
	doc.Find("iframe").Each(func(_ int, s *goquery.Selection) {
		src := p.absoluteURL(s.AttrOr("src", ""))
		if src == "" {
			return
		}
		sources = append(sources, providers.StreamSource{URL: src, Label: "Embed"})
	})

	return sources, nil
}

// absoluteURL resolves a scraped href against the listing site.
func (p *Provider) absoluteURL(href string) string {
	parsed, err := url.Parse(strings.TrimSpace(href))
	if err != nil || parsed.String() == "" {
		return ""
	}
	if parsed.IsAbs() {
		return parsed.String()
	}
	base, err := url.Parse(p.baseURL)
	if err != nil {
		return ""
	}
	return base.ResolveReference(parsed).String()
}

func (p *Provider) seriesURL(animeID string) string {
	if strings.HasPrefix(animeID, "http://") || strings.HasPrefix(animeID, "https://") {
		return animeID
	}
	return p.baseURL + "/series/" + url.PathEscape(animeID) + "/"
}

func (p *Provider) fetchDocument(ctx context.Context, endpoint string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	res, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	return doc, nil
}

func seriesSlug(href string) string {
	parsed, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) < 2 || segments[0] != "series" {
		return ""
	}
	return segments[1]
}

func postIDFromHref(href string) string {
	parsed, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return parsed.Query().Get("p")
}
