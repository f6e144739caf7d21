// Package format turns pipeline results into chat message text and
// inline button layouts. Everything here is a pure function of its
// inputs: no I/O, no clock, so the same upstream data always renders
// byte-identical output. Text targets Telegram HTML parse mode.
package format

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/ynrrishabh/anime/internal/nav"
	"github.com/ynrrishabh/anime/internal/pipeline"
	"github.com/ynrrishabh/anime/internal/providers"
)

// Button is one inline keyboard button: either a callback button (Data)
// or a link button (URL).
type Button struct {
	Text string
	Data string
	URL  string
}

type Keyboard [][]Button

// synopsisPreviewLimit bounds the synopsis shown in the summary view;
// the full text sits behind the info action.
const synopsisPreviewLimit = 240

// playerBaseURL wraps raw stream URLs in the hosted web player.
const playerBaseURL = "https://animep.onrender.com/watch?src="

func Start() string {
	return "🎬 Send /anime &lt;name&gt; to watch an anime!"
}

func Help() string {
	return strings.Join([]string{
		"🎬 <b>Anime bot commands</b>",
		"",
		"/anime &lt;name&gt; — search for an anime and get a stream link",
		"/play &lt;name&gt; — jump straight to the first episode's stream",
		"/recent — your last searches",
		"/help — this message",
	}, "\n")
}

func Usage() string {
	return "❗ Usage: /anime &lt;name&gt;"
}

func PlayUsage() string {
	return "❗ Usage: /play &lt;name&gt;"
}

// WatchURL wraps a raw stream URL in the web player URL.
func WatchURL(streamURL string) string {
	return playerBaseURL + url.QueryEscape(streamURL)
}

// SearchResults renders the candidate list with one select button per
// result.
func SearchResults(query string, results []providers.SearchResult) (string, Keyboard) {
	text := fmt.Sprintf("🔍 Results for <b>%s</b> — tap a title:", EscapeHTML(query))

	keyboard := make(Keyboard, 0, len(results))
	for _, result := range results {
		payload := nav.State{Action: nav.ActionSelect, Provider: result.Provider, AnimeID: result.ID}.Encode()
		keyboard = append(keyboard, []Button{{Text: result.Title, Data: payload}})
	}

	return text, keyboard
}

// Series renders the summary view of one series: title, truncated
// synopsis, key facts and season navigation.
func Series(result providers.SearchResult, detail *providers.SeriesDetail) (string, Keyboard) {
	var b strings.Builder
	b.WriteString("🎬 <b>")
	b.WriteString(EscapeHTML(result.Title))
	b.WriteString("</b>")

	truncated := false
	if detail.Synopsis != "" {
		preview := detail.Synopsis
		if len(preview) > synopsisPreviewLimit {
			preview = Truncate(preview, synopsisPreviewLimit)
			truncated = true
		}
		b.WriteString("\n\n<i>")
		b.WriteString(EscapeHTML(preview))
		b.WriteString("</i>")
	}

	if len(detail.Attributes) > 0 {
		b.WriteString("\n")
		for _, attribute := range detail.Attributes {
			b.WriteString("\n<b>")
			b.WriteString(EscapeHTML(attribute.Label))
			b.WriteString(":</b> ")
			b.WriteString(EscapeHTML(attribute.Value))
		}
	}

	keyboard := Keyboard{}
	seasons := detail.Seasons
	if len(seasons) == 0 {
		seasons = []providers.SeasonRef{{AnimeID: result.ID, Number: 1, Label: "Episodes", PostID: result.ID}}
	}
	for _, season := range seasons {
		payload := nav.State{
			Action:   nav.ActionSeason,
			Provider: result.Provider,
			AnimeID:  result.ID,
			Season:   season.Number,
			PostID:   season.PostID,
			Page:     1,
		}.Encode()
		keyboard = append(keyboard, []Button{{Text: "📺 " + season.Label, Data: payload}})
	}

	if truncated {
		payload := nav.State{Action: nav.ActionInfo, Provider: result.Provider, AnimeID: result.ID}.Encode()
		keyboard = append(keyboard, []Button{{Text: "ℹ️ Full synopsis", Data: payload}})
	}

	return b.String(), keyboard
}

// Synopsis renders the full-text detail view behind the info action.
func Synopsis(title string, detail *providers.SeriesDetail) (string, Keyboard) {
	var b strings.Builder
	b.WriteString("🎬 <b>")
	b.WriteString(EscapeHTML(title))
	b.WriteString("</b>")
	if detail.Synopsis != "" {
		b.WriteString("\n\n")
		b.WriteString(EscapeHTML(detail.Synopsis))
	} else {
		b.WriteString("\n\nNo synopsis available.")
	}
	return b.String(), Keyboard{}
}

// Episodes renders one page of the episode listing. The page is clamped
// to [1, last]; "previous" appears only past page 1 and "next" only
// before the last page.
func Episodes(title string, state nav.State, episodes []providers.EpisodeRef) (string, Keyboard) {
	page := nav.ClampPage(state.Page, len(episodes), nav.PageSize)
	last := nav.TotalPages(len(episodes), nav.PageSize)
	start, end := nav.PageBounds(page, len(episodes), nav.PageSize)

	text := fmt.Sprintf("📺 <b>%s</b> — %s (page %d/%d)",
		EscapeHTML(title), EscapeHTML(state.SeasonLabel()), page, last)

	keyboard := make(Keyboard, 0, nav.PageSize+1)
	for offset, episode := range episodes[start:end] {
		label := fmt.Sprintf("Episode %d", episode.Number)
		if episode.Name != "" {
			label = fmt.Sprintf("Episode %d — %s", episode.Number, episode.Name)
		}
		// The payload carries the episode's position in the listing, not
		// its id: ids can be full URLs and would not fit callback_data.
		payload := nav.State{
			Action:   nav.ActionEpisode,
			Provider: state.Provider,
			AnimeID:  state.AnimeID,
			Season:   state.Season,
			PostID:   state.PostID,
			Episode:  start + offset + 1,
		}.Encode()
		keyboard = append(keyboard, []Button{{Text: label, Data: payload}})
	}

	navRow := []Button{}
	if page > 1 {
		previous := state
		previous.Page = page - 1
		navRow = append(navRow, Button{Text: "⬅️ Previous", Data: previous.Encode()})
	}
	if page < last {
		next := state
		next.Page = page + 1
		navRow = append(navRow, Button{Text: "Next ➡️", Data: next.Encode()})
	}
	if len(navRow) > 0 {
		keyboard = append(keyboard, navRow)
	}

	return text, keyboard
}

// Stream renders the terminal success message with the watch link.
func Stream(title string, episode providers.EpisodeRef, source providers.StreamSource) (string, Keyboard) {
	watchURL := WatchURL(source.URL)
	text := fmt.Sprintf("▶️ <b>%s</b> - Episode %d\n🔗 %s",
		EscapeHTML(title), episode.Number, EscapeHTML(watchURL))

	keyboard := Keyboard{{Button{Text: "▶️ Watch now", URL: watchURL}}}
	return text, keyboard
}

// Failure renders the stage-specific terminal failure message.
func Failure(stage pipeline.Stage) string {
	switch stage {
	case pipeline.StageSearch:
		return "❌ No anime found. Check the spelling or try an alternate title."
	case pipeline.StageDetail:
		return "❌ Couldn't load details for that anime. Try another result."
	case pipeline.StageEpisodes:
		return "❌ No episodes found for that season. Try another season or title."
	case pipeline.StageStreams:
		return "❌ No stream source found for that episode. Try another episode."
	default:
		return "❌ Something went wrong. Try again."
	}
}

// RecentEntry is one row of the query-history view.
type RecentEntry struct {
	Query string
	Title string
}

// Recent renders the caller's last searches.
func Recent(entries []RecentEntry) (string, Keyboard) {
	if len(entries) == 0 {
		return "🔍 No searches yet. Try /anime &lt;name&gt;.", Keyboard{}
	}

	var b strings.Builder
	b.WriteString("🕘 <b>Your recent searches</b>")
	for _, entry := range entries {
		b.WriteString("\n• ")
		b.WriteString(EscapeHTML(entry.Query))
		if entry.Title != "" && !strings.EqualFold(entry.Title, entry.Query) {
			b.WriteString(" → ")
			b.WriteString(EscapeHTML(entry.Title))
		}
	}
	return b.String(), Keyboard{}
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func EscapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}

// Truncate cuts text to at most limit bytes on a rune boundary and
// appends an ellipsis.
func Truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	cut := text[:limit]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	if idx := strings.LastIndex(cut, " "); idx > limit/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " .,;:") + "…"
}

// PrettifyID turns a slug-style id into a display title when the real
// title is not at hand (callback payloads carry ids, not titles).
func PrettifyID(id string) string {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return "Untitled"
	}

	trimmed = strings.ReplaceAll(trimmed, "-", " ")
	parts := strings.Fields(trimmed)
	for index, part := range parts {
		if len(part) > 0 {
			parts[index] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}
