package providers

import "context"

// SearchResult is one candidate returned by a provider search, in the
// order the provider returned it.
type SearchResult struct {
	Provider  string `json:"provider"`
	ID        string `json:"id"`
	Title     string `json:"title"`
	SourceURL string `json:"sourceUrl,omitempty"`
}

// Attribute is one free-form key fact about a series (status, genres,
// duration and so on).
type Attribute struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// SeasonRef identifies one season of a series. PostID is the provider's
// internal listing id for the season; for providers without seasons it
// carries the series id of the single synthetic season.
type SeasonRef struct {
	AnimeID string `json:"animeId"`
	Number  int    `json:"number"`
	Label   string `json:"label"`
	PostID  string `json:"postId"`
}

type SeriesDetail struct {
	Synopsis   string      `json:"synopsis,omitempty"`
	Attributes []Attribute `json:"attributes,omitempty"`
	Seasons    []SeasonRef `json:"seasons,omitempty"`
}

// EpisodeRef identifies one episode, ordered by Number ascending as
// returned by the source.
type EpisodeRef struct {
	Number int    `json:"number"`
	Name   string `json:"name,omitempty"`
	ID     string `json:"id"`
}

type StreamSource struct {
	URL   string `json:"url"`
	Label string `json:"label,omitempty"`
}

// Provider wraps one external data source behind the uniform lookup
// contract. Implementations perform one fresh network call per method,
// map the response into the record types above, and return an error on
// network failure, non-2xx status or an unrecognized payload shape.
// Callers guarantee non-empty query/id arguments. Providers that do not
// serve a stage return an empty slice and no error for it.
type Provider interface {
	Key() string
	Name() string
	HealthCheck(ctx context.Context) error
	Search(ctx context.Context, query string) ([]SearchResult, error)
	Detail(ctx context.Context, animeID string) (*SeriesDetail, error)
	Episodes(ctx context.Context, season SeasonRef) ([]EpisodeRef, error)
	Streams(ctx context.Context, episode EpisodeRef) ([]StreamSource, error)
}
