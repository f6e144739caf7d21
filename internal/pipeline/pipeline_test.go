package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ynrrishabh/anime/internal/providers"
)

// fakeProvider counts calls per method so tests can assert the pipeline
// short-circuits instead of probing later stages.
type fakeProvider struct {
	key  string
	name string

	searchResults []providers.SearchResult
	searchErr     error
	detail        *providers.SeriesDetail
	detailErr     error
	episodes      []providers.EpisodeRef
	episodesErr   error
	streams       []providers.StreamSource
	streamsErr    error

	searchCalls   int
	detailCalls   int
	episodesCalls int
	streamsCalls  int
}

func (f *fakeProvider) Key() string  { return f.key }
func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) HealthCheck(_ context.Context) error { return nil }

func (f *fakeProvider) Search(_ context.Context, _ string) ([]providers.SearchResult, error) {
	f.searchCalls++
	return f.searchResults, f.searchErr
}

func (f *fakeProvider) Detail(_ context.Context, _ string) (*providers.SeriesDetail, error) {
	f.detailCalls++
	return f.detail, f.detailErr
}

func (f *fakeProvider) Episodes(_ context.Context, _ providers.SeasonRef) ([]providers.EpisodeRef, error) {
	f.episodesCalls++
	return f.episodes, f.episodesErr
}

func (f *fakeProvider) Streams(_ context.Context, _ providers.EpisodeRef) ([]providers.StreamSource, error) {
	f.streamsCalls++
	return f.streams, f.streamsErr
}

func buildRegistry(t *testing.T, list ...*fakeProvider) *providers.Registry {
	t.Helper()
	registry := providers.NewRegistry()
	for _, provider := range list {
		if err := registry.Register(provider); err != nil {
			t.Fatalf("register %s: %v", provider.key, err)
		}
	}
	return registry
}

func narutoProvider() *fakeProvider {
	return &fakeProvider{
		key:  "gogoanime",
		name: "Gogoanime",
		searchResults: []providers.SearchResult{
			{Provider: "gogoanime", ID: "naruto", Title: "Naruto"},
			{Provider: "gogoanime", ID: "naruto-shippuden", Title: "Naruto Shippuden"},
		},
		detail: &providers.SeriesDetail{Synopsis: "A young ninja seeks recognition."},
		episodes: []providers.EpisodeRef{
			{Number: 1, ID: "naruto-episode-1"},
			{Number: 2, ID: "naruto-episode-2"},
		},
		streams: []providers.StreamSource{
			{URL: "https://cdn.example/naruto/1.m3u8", Label: "default"},
		},
	}
}

func TestResolveFirstHappyPath(t *testing.T) {
	primary := narutoProvider()
	resolver := NewResolver(buildRegistry(t, primary), time.Second, nil)

	resolution, stageErr := resolver.ResolveFirst(context.Background(), "naruto")
	if stageErr != nil {
		t.Fatalf("unexpected stage error: %v", stageErr)
	}
	if resolution.Result.Title != "Naruto" {
		t.Fatalf("expected first candidate, got %q", resolution.Result.Title)
	}
	if resolution.Episode.Number != 1 {
		t.Fatalf("expected first episode, got %d", resolution.Episode.Number)
	}
	if resolution.Stream.URL != "https://cdn.example/naruto/1.m3u8" {
		t.Fatalf("unexpected stream: %q", resolution.Stream.URL)
	}
	if resolution.Season.Number != 1 || resolution.Season.PostID != "naruto" {
		t.Fatalf("unexpected synthesized season: %+v", resolution.Season)
	}
}

func TestSearchStopsAtFirstStageWithNoLaterCalls(t *testing.T) {
	empty := &fakeProvider{key: "gogoanime", name: "Gogoanime"}
	resolver := NewResolver(buildRegistry(t, empty), time.Second, nil)

	_, stageErr := resolver.ResolveFirst(context.Background(), "zzzznotarealshow")
	if stageErr == nil || stageErr.Stage != StageSearch {
		t.Fatalf("expected search stage error, got %v", stageErr)
	}
	if empty.searchCalls != 1 {
		t.Fatalf("expected exactly one search call, got %d", empty.searchCalls)
	}
	if empty.detailCalls+empty.episodesCalls+empty.streamsCalls != 0 {
		t.Fatalf("later stages were probed: detail=%d episodes=%d streams=%d",
			empty.detailCalls, empty.episodesCalls, empty.streamsCalls)
	}
}

func TestSearchFallsThroughProvidersInOrder(t *testing.T) {
	failing := &fakeProvider{key: "gogoanime", name: "Gogoanime", searchErr: fmt.Errorf("upstream 503")}
	empty := &fakeProvider{key: "zoro", name: "Zoro"}
	fallback := &fakeProvider{
		key:  "toonworld",
		name: "ToonWorld",
		searchResults: []providers.SearchResult{
			{Provider: "toonworld", ID: "one-piece", Title: "One Piece"},
		},
	}
	resolver := NewResolver(buildRegistry(t, failing, empty, fallback), time.Second, nil)

	results, stageErr := resolver.Search(context.Background(), "one piece")
	if stageErr != nil {
		t.Fatalf("unexpected stage error: %v", stageErr)
	}
	if len(results) != 1 || results[0].Provider != "toonworld" {
		t.Fatalf("expected toonworld fallback result, got %+v", results)
	}
	if failing.searchCalls != 1 || empty.searchCalls != 1 || fallback.searchCalls != 1 {
		t.Fatalf("providers not probed in order: %d/%d/%d",
			failing.searchCalls, empty.searchCalls, fallback.searchCalls)
	}
}

func TestSearchCapsCandidates(t *testing.T) {
	oversized := &fakeProvider{key: "gogoanime", name: "Gogoanime"}
	for i := 0; i < MaxCandidates+5; i++ {
		oversized.searchResults = append(oversized.searchResults, providers.SearchResult{
			Provider: "gogoanime",
			ID:       fmt.Sprintf("show-%d", i),
			Title:    fmt.Sprintf("Show %d", i),
		})
	}
	resolver := NewResolver(buildRegistry(t, oversized), time.Second, nil)

	results, stageErr := resolver.Search(context.Background(), "show")
	if stageErr != nil {
		t.Fatalf("unexpected stage error: %v", stageErr)
	}
	if len(results) != MaxCandidates {
		t.Fatalf("expected %d candidates, got %d", MaxCandidates, len(results))
	}
	if results[0].ID != "show-0" {
		t.Fatalf("candidate order changed: %q first", results[0].ID)
	}
}

func TestDetailErrorStopsBeforeEpisodes(t *testing.T) {
	broken := narutoProvider()
	broken.detail = nil
	broken.detailErr = fmt.Errorf("info endpoint 500")
	resolver := NewResolver(buildRegistry(t, broken), time.Second, nil)

	_, stageErr := resolver.ResolveFirst(context.Background(), "naruto")
	if stageErr == nil || stageErr.Stage != StageDetail {
		t.Fatalf("expected detail stage error, got %v", stageErr)
	}
	if broken.episodesCalls != 0 || broken.streamsCalls != 0 {
		t.Fatalf("later stages were probed after detail failure")
	}
}

func TestEmptyEpisodesStopsBeforeStreams(t *testing.T) {
	sparse := narutoProvider()
	sparse.episodes = nil
	resolver := NewResolver(buildRegistry(t, sparse), time.Second, nil)

	_, stageErr := resolver.ResolveFirst(context.Background(), "naruto")
	if stageErr == nil || stageErr.Stage != StageEpisodes {
		t.Fatalf("expected episodes stage error, got %v", stageErr)
	}
	if sparse.streamsCalls != 0 {
		t.Fatalf("streams probed after empty episode list")
	}
}

func TestEmptyStreamsIsStreamsStageError(t *testing.T) {
	dry := narutoProvider()
	dry.streams = nil
	resolver := NewResolver(buildRegistry(t, dry), time.Second, nil)

	_, stageErr := resolver.ResolveFirst(context.Background(), "naruto")
	if stageErr == nil || stageErr.Stage != StageStreams {
		t.Fatalf("expected streams stage error, got %v", stageErr)
	}
}

func TestDetailEnrichesEmptySynopsisFromMetadataProviders(t *testing.T) {
	bare := narutoProvider()
	bare.detail = &providers.SeriesDetail{}
	meta := &fakeProvider{
		key:  "anilist",
		name: "AniList",
		searchResults: []providers.SearchResult{
			{Provider: "anilist", ID: "20", Title: "Naruto"},
		},
		detail: &providers.SeriesDetail{
			Synopsis:   "Enriched synopsis.",
			Attributes: []providers.Attribute{{Label: "Format", Value: "TV"}},
		},
	}
	resolver := NewResolver(buildRegistry(t, bare, meta), time.Second, nil)

	detail, stageErr := resolver.Detail(context.Background(), "gogoanime", "naruto", "Naruto")
	if stageErr != nil {
		t.Fatalf("unexpected stage error: %v", stageErr)
	}
	if detail.Synopsis != "Enriched synopsis." {
		t.Fatalf("synopsis not enriched: %q", detail.Synopsis)
	}
	if len(detail.Attributes) != 1 || detail.Attributes[0].Label != "Format" {
		t.Fatalf("attributes not enriched: %+v", detail.Attributes)
	}
	if meta.searchCalls != 1 || meta.detailCalls != 1 {
		t.Fatalf("metadata provider calls: search=%d detail=%d", meta.searchCalls, meta.detailCalls)
	}
}

func TestDetailSkipsEnrichmentWhenSynopsisPresent(t *testing.T) {
	full := narutoProvider()
	meta := &fakeProvider{key: "anilist", name: "AniList"}
	resolver := NewResolver(buildRegistry(t, full, meta), time.Second, nil)

	detail, stageErr := resolver.Detail(context.Background(), "gogoanime", "naruto", "Naruto")
	if stageErr != nil {
		t.Fatalf("unexpected stage error: %v", stageErr)
	}
	if detail.Synopsis != "A young ninja seeks recognition." {
		t.Fatalf("synopsis changed: %q", detail.Synopsis)
	}
	if meta.searchCalls != 0 {
		t.Fatalf("metadata provider consulted needlessly")
	}
}

func TestUnknownProviderKeyIsStageError(t *testing.T) {
	resolver := NewResolver(buildRegistry(t), time.Second, nil)

	if _, stageErr := resolver.Detail(context.Background(), "ghost", "naruto", ""); stageErr == nil || stageErr.Stage != StageDetail {
		t.Fatalf("expected detail stage error for unknown provider")
	}
	if _, stageErr := resolver.Episodes(context.Background(), "ghost", providers.SeasonRef{}); stageErr == nil || stageErr.Stage != StageEpisodes {
		t.Fatalf("expected episodes stage error for unknown provider")
	}
	if _, stageErr := resolver.Streams(context.Background(), "ghost", providers.EpisodeRef{}); stageErr == nil || stageErr.Stage != StageStreams {
		t.Fatalf("expected streams stage error for unknown provider")
	}
}

func TestDefaultSeason(t *testing.T) {
	listed := &providers.SeriesDetail{Seasons: []providers.SeasonRef{
		{AnimeID: "one-piece", Number: 2, Label: "Season 2", PostID: "8841"},
	}}
	season := DefaultSeason("one-piece", listed)
	if season.PostID != "8841" || season.Number != 2 {
		t.Fatalf("expected listed season, got %+v", season)
	}

	season = DefaultSeason("naruto", &providers.SeriesDetail{})
	if season.PostID != "naruto" || season.Number != 1 || season.Label != "Season 1" {
		t.Fatalf("expected synthesized season, got %+v", season)
	}
}

func TestPickDefault(t *testing.T) {
	if _, ok := PickDefault([]int(nil)); ok {
		t.Fatalf("expected no pick from empty slice")
	}
	value, ok := PickDefault([]string{"first", "second"})
	if !ok || value != "first" {
		t.Fatalf("expected first element, got %q", value)
	}
}
