// Package pipeline sequences provider lookups from a free-text query to
// a playable stream URL: search -> detail -> episodes -> stream. Each
// stage advances only on a non-empty result; an empty or failed result
// terminates the run with a stage-specific failure. Adapter errors never
// escape this package: they are logged with the provider key and the
// call that failed, then treated as empty results.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/ynrrishabh/anime/internal/providers"
)

type Stage string

const (
	StageSearch   Stage = "search"
	StageDetail   Stage = "detail"
	StageEpisodes Stage = "episodes"
	StageStreams  Stage = "streams"
)

// StageError marks the stage at which a resolution run terminated with
// nothing to show.
type StageError struct {
	Stage Stage
}

func (e *StageError) Error() string {
	return "no results at " + string(e.Stage) + " stage"
}

// MaxCandidates bounds how many search candidates are surfaced for user
// choice.
const MaxCandidates = 10

const defaultTimeout = 12 * time.Second

// metadataKeys name the providers consulted to fill in missing synopsis
// and attributes. They never serve episodes or streams.
var metadataKeys = []string{"anilist", "jikan"}

type Resolver struct {
	registry *providers.Registry
	timeout  time.Duration
	logger   *slog.Logger
}

func NewResolver(registry *providers.Registry, timeout time.Duration, logger *slog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{registry: registry, timeout: timeout, logger: logger}
}

// Search walks providers in priority order and returns the first
// provider's candidates, capped at MaxCandidates, in the order the
// provider returned them.
func (r *Resolver) Search(ctx context.Context, query string) ([]providers.SearchResult, *StageError) {
	for _, provider := range r.registry.Ordered() {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		results, err := provider.Search(callCtx, query)
		cancel()

		if err != nil {
			r.logger.Warn("search call failed", "provider", provider.Key(), "query", query, "error", err)
			continue
		}
		if len(results) == 0 {
			continue
		}

		if len(results) > MaxCandidates {
			results = results[:MaxCandidates]
		}
		return results, nil
	}

	return nil, &StageError{Stage: StageSearch}
}

// Detail fetches the series detail from the owning provider and, when
// the synopsis came back empty, enriches it from the metadata providers.
// title may be empty; enrichment is skipped without it.
func (r *Resolver) Detail(ctx context.Context, providerKey, animeID, title string) (*providers.SeriesDetail, *StageError) {
	provider, ok := r.registry.Get(providerKey)
	if !ok {
		r.logger.Warn("detail requested for unknown provider", "provider", providerKey)
		return nil, &StageError{Stage: StageDetail}
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	detail, err := provider.Detail(callCtx, animeID)
	cancel()

	if err != nil {
		r.logger.Warn("detail call failed", "provider", providerKey, "animeId", animeID, "error", err)
		return nil, &StageError{Stage: StageDetail}
	}
	if detail == nil {
		return nil, &StageError{Stage: StageDetail}
	}

	if detail.Synopsis == "" && title != "" && !isMetadataProvider(providerKey) {
		r.enrich(ctx, detail, title)
	}

	return detail, nil
}

// Episodes lists a season's episodes from the owning provider, ordered
// as the source returned them.
func (r *Resolver) Episodes(ctx context.Context, providerKey string, season providers.SeasonRef) ([]providers.EpisodeRef, *StageError) {
	provider, ok := r.registry.Get(providerKey)
	if !ok {
		r.logger.Warn("episodes requested for unknown provider", "provider", providerKey)
		return nil, &StageError{Stage: StageEpisodes}
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	episodes, err := provider.Episodes(callCtx, season)
	cancel()

	if err != nil {
		r.logger.Warn("episodes call failed", "provider", providerKey, "postId", season.PostID, "error", err)
		return nil, &StageError{Stage: StageEpisodes}
	}
	if len(episodes) == 0 {
		return nil, &StageError{Stage: StageEpisodes}
	}

	return episodes, nil
}

// Streams resolves an episode's stream sources from the owning provider.
func (r *Resolver) Streams(ctx context.Context, providerKey string, episode providers.EpisodeRef) ([]providers.StreamSource, *StageError) {
	provider, ok := r.registry.Get(providerKey)
	if !ok {
		r.logger.Warn("streams requested for unknown provider", "provider", providerKey)
		return nil, &StageError{Stage: StageStreams}
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	sources, err := provider.Streams(callCtx, episode)
	cancel()

	if err != nil {
		r.logger.Warn("streams call failed", "provider", providerKey, "episodeId", episode.ID, "error", err)
		return nil, &StageError{Stage: StageStreams}
	}
	if len(sources) == 0 {
		return nil, &StageError{Stage: StageStreams}
	}

	return sources, nil
}

// Resolution is the outcome of a full auto-chained run.
type Resolution struct {
	Result  providers.SearchResult
	Detail  *providers.SeriesDetail
	Season  providers.SeasonRef
	Episode providers.EpisodeRef
	Stream  providers.StreamSource
}

// ResolveFirst auto-chains the whole pipeline taking the default (first)
// candidate at every stage. A failed stage stops the run immediately; no
// later adapter calls are made.
func (r *Resolver) ResolveFirst(ctx context.Context, query string) (*Resolution, *StageError) {
	results, stageErr := r.Search(ctx, query)
	if stageErr != nil {
		return nil, stageErr
	}
	result, _ := PickDefault(results)

	detail, stageErr := r.Detail(ctx, result.Provider, result.ID, result.Title)
	if stageErr != nil {
		return nil, stageErr
	}

	season := DefaultSeason(result.ID, detail)

	episodes, stageErr := r.Episodes(ctx, result.Provider, season)
	if stageErr != nil {
		return nil, stageErr
	}
	episode, _ := PickDefault(episodes)

	sources, stageErr := r.Streams(ctx, result.Provider, episode)
	if stageErr != nil {
		return nil, stageErr
	}
	stream, _ := PickDefault(sources)

	return &Resolution{
		Result:  result,
		Detail:  detail,
		Season:  season,
		Episode: episode,
		Stream:  stream,
	}, nil
}

// PickDefault is the one selection policy used whenever the pipeline
// auto-chains: first listed or none. Future disambiguation logic changes
// here and nowhere else.
func PickDefault[T any](items []T) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	return items[0], true
}

// DefaultSeason picks the first listed season, or synthesizes the single
// implicit season for providers without a season structure.
func DefaultSeason(animeID string, detail *providers.SeriesDetail) providers.SeasonRef {
	if detail != nil {
		if season, ok := PickDefault(detail.Seasons); ok {
			return season
		}
	}
	return providers.SeasonRef{AnimeID: animeID, Number: 1, Label: "Season 1", PostID: animeID}
}

func (r *Resolver) enrich(ctx context.Context, detail *providers.SeriesDetail, title string) {
	for _, key := range metadataKeys {
		provider, ok := r.registry.Get(key)
		if !ok {
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		results, err := provider.Search(callCtx, title)
		cancel()
		if err != nil {
			r.logger.Debug("metadata search failed", "provider", key, "title", title, "error", err)
			continue
		}
		match, ok := PickDefault(results)
		if !ok {
			continue
		}

		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		meta, err := provider.Detail(callCtx, match.ID)
		cancel()
		if err != nil {
			r.logger.Debug("metadata detail failed", "provider", key, "animeId", match.ID, "error", err)
			continue
		}
		if meta == nil || meta.Synopsis == "" {
			continue
		}

		detail.Synopsis = meta.Synopsis
		if len(detail.Attributes) == 0 {
			detail.Attributes = meta.Attributes
		}
		return
	}
}

func isMetadataProvider(key string) bool {
	for _, metaKey := range metadataKeys {
		if key == metaKey {
			return true
		}
	}
	return false
}
