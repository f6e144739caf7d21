// Package bot holds the chat-facing handlers: commands enter the
// resolution pipeline with free text, button presses re-enter it with
// the identifiers carried in the callback payload. Handlers talk to the
// chat only through the Replier seam, never to the Telegram client
// directly.
package bot

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ynrrishabh/anime/internal/format"
	"github.com/ynrrishabh/anime/internal/history"
	"github.com/ynrrishabh/anime/internal/nav"
	"github.com/ynrrishabh/anime/internal/pipeline"
	"github.com/ynrrishabh/anime/internal/providers"
)

// Replier delivers one reply into the originating chat. Send posts a new
// message; Edit rewrites the message the user pressed a button on.
type Replier interface {
	Send(text string, keyboard format.Keyboard) error
	Edit(text string, keyboard format.Keyboard) error
	ChatID() int64
}

const recentLimit = 5

type App struct {
	resolver *pipeline.Resolver
	history  *history.Store
	logger   *slog.Logger
}

// NewApp builds the handler set. history may be nil when the history
// feature is disabled.
func NewApp(resolver *pipeline.Resolver, store *history.Store, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{resolver: resolver, history: store, logger: logger}
}

// HandleCommand dispatches one slash command. Unknown commands get the
// help text.
func (a *App) HandleCommand(ctx context.Context, name, args string, replier Replier) {
	switch name {
	case "start":
		a.reply(replier.Send(format.Start(), nil))
	case "help":
		a.reply(replier.Send(format.Help(), nil))
	case "anime":
		a.handleAnime(ctx, args, replier)
	case "play":
		a.handlePlay(ctx, args, replier)
	case "recent":
		a.handleRecent(replier)
	default:
		a.reply(replier.Send(format.Help(), nil))
	}
}

func (a *App) handleAnime(ctx context.Context, args string, replier Replier) {
	query := strings.TrimSpace(args)
	if query == "" {
		a.reply(replier.Send(format.Usage(), nil))
		return
	}

	results, stageErr := a.resolver.Search(ctx, query)
	if stageErr != nil {
		a.record(replier.ChatID(), query, "")
		a.reply(replier.Send(format.Failure(stageErr.Stage), nil))
		return
	}

	a.record(replier.ChatID(), query, results[0].Title)

	// A single candidate needs no picker; jump straight to the series
	// view.
	if len(results) == 1 {
		a.sendSeries(ctx, results[0], replier, false)
		return
	}

	text, keyboard := format.SearchResults(query, results)
	a.reply(replier.Send(text, keyboard))
}

// handlePlay auto-chains the whole pipeline: first candidate, first
// season, first episode, first stream.
func (a *App) handlePlay(ctx context.Context, args string, replier Replier) {
	query := strings.TrimSpace(args)
	if query == "" {
		a.reply(replier.Send(format.PlayUsage(), nil))
		return
	}

	resolution, stageErr := a.resolver.ResolveFirst(ctx, query)
	if stageErr != nil {
		a.record(replier.ChatID(), query, "")
		a.reply(replier.Send(format.Failure(stageErr.Stage), nil))
		return
	}

	a.record(replier.ChatID(), query, resolution.Result.Title)
	text, keyboard := format.Stream(resolution.Result.Title, resolution.Episode, resolution.Stream)
	a.reply(replier.Send(text, keyboard))
}

func (a *App) handleRecent(replier Replier) {
	if a.history == nil {
		a.reply(replier.Send(format.Recent(nil)))
		return
	}

	entries, err := a.history.Recent(replier.ChatID(), recentLimit)
	if err != nil {
		a.logger.Warn("recent lookup failed", "chatId", replier.ChatID(), "error", err)
		entries = nil
	}

	view := make([]format.RecentEntry, 0, len(entries))
	for _, entry := range entries {
		view = append(view, format.RecentEntry{Query: entry.Query, Title: entry.Title})
	}
	a.reply(replier.Send(format.Recent(view)))
}

// HandleCallback re-enters the pipeline with the identifiers decoded
// from the button payload. Replies edit the message in place.
func (a *App) HandleCallback(ctx context.Context, payload string, replier Replier) {
	state, err := nav.Decode(payload)
	if err != nil {
		a.logger.Warn("undecodable callback payload", "payload", payload, "error", err)
		a.reply(replier.Edit(format.Failure(""), nil))
		return
	}

	switch state.Action {
	case nav.ActionSelect, nav.ActionSeries:
		result := providers.SearchResult{
			Provider: state.Provider,
			ID:       state.AnimeID,
			Title:    format.PrettifyID(state.AnimeID),
		}
		a.sendSeries(ctx, result, replier, true)

	case nav.ActionInfo:
		detail, stageErr := a.resolver.Detail(ctx, state.Provider, state.AnimeID, "")
		if stageErr != nil {
			a.reply(replier.Edit(format.Failure(stageErr.Stage), nil))
			return
		}
		text, keyboard := format.Synopsis(format.PrettifyID(state.AnimeID), detail)
		a.reply(replier.Edit(text, keyboard))

	case nav.ActionSeason:
		season := providers.SeasonRef{
			AnimeID: state.AnimeID,
			Number:  state.Season,
			Label:   state.SeasonLabel(),
			PostID:  state.PostID,
		}
		episodes, stageErr := a.resolver.Episodes(ctx, state.Provider, season)
		if stageErr != nil {
			a.reply(replier.Edit(format.Failure(stageErr.Stage), nil))
			return
		}
		text, keyboard := format.Episodes(format.PrettifyID(state.AnimeID), state, episodes)
		a.reply(replier.Edit(text, keyboard))

	case nav.ActionEpisode, nav.ActionWatch:
		// The payload carries the episode's position in the season
		// listing, so the listing is re-fetched and indexed; the ref it
		// yields carries the real id and number.
		season := providers.SeasonRef{
			AnimeID: state.AnimeID,
			Number:  state.Season,
			Label:   state.SeasonLabel(),
			PostID:  state.PostID,
		}
		episodes, stageErr := a.resolver.Episodes(ctx, state.Provider, season)
		if stageErr != nil {
			a.reply(replier.Edit(format.Failure(stageErr.Stage), nil))
			return
		}
		if state.Episode < 1 || state.Episode > len(episodes) {
			a.reply(replier.Edit(format.Failure(pipeline.StageEpisodes), nil))
			return
		}
		episode := episodes[state.Episode-1]
		sources, stageErr := a.resolver.Streams(ctx, state.Provider, episode)
		if stageErr != nil {
			a.reply(replier.Edit(format.Failure(stageErr.Stage), nil))
			return
		}
		stream, _ := pipeline.PickDefault(sources)
		text, keyboard := format.Stream(format.PrettifyID(state.AnimeID), episode, stream)
		a.reply(replier.Edit(text, keyboard))

	default:
		a.reply(replier.Edit(format.Failure(""), nil))
	}
}

func (a *App) sendSeries(ctx context.Context, result providers.SearchResult, replier Replier, edit bool) {
	detail, stageErr := a.resolver.Detail(ctx, result.Provider, result.ID, result.Title)
	if stageErr != nil {
		a.deliver(replier, edit, format.Failure(stageErr.Stage), nil)
		return
	}

	text, keyboard := format.Series(result, detail)
	a.deliver(replier, edit, text, keyboard)
}

func (a *App) deliver(replier Replier, edit bool, text string, keyboard format.Keyboard) {
	if edit {
		a.reply(replier.Edit(text, keyboard))
		return
	}
	a.reply(replier.Send(text, keyboard))
}

func (a *App) record(chatID int64, query, title string) {
	if a.history == nil {
		return
	}
	if err := a.history.Record(chatID, query, title); err != nil {
		a.logger.Warn("history record failed", "chatId", chatID, "error", err)
	}
}

// reply logs delivery failures; a failed reply must never crash the
// handler.
func (a *App) reply(err error) {
	if err != nil {
		a.logger.Warn("reply delivery failed", "error", err)
	}
}
