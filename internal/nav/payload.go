// Package nav encodes the navigation context carried inside button
// callback payloads. Nothing is persisted between button presses, so the
// payload must carry every identifier needed to re-derive context: the
// owning provider, the series id, the season number and, where relevant,
// the internal post id, episode position or page cursor.
//
// Telegram caps callback_data at 64 bytes, so the wire form is kept
// tight: two-letter action tags, the post id elided when it repeats the
// series id, and episodes referenced by their 1-based position in the
// season listing rather than by raw id (episode ids can be full URLs and
// would never fit). Handlers re-fetch the listing and index into it.
package nav

import (
	"fmt"
	"strconv"
	"strings"
)

type Action string

const (
	ActionSelect  Action = "sl"
	ActionSeries  Action = "sr"
	ActionInfo    Action = "in"
	ActionSeason  Action = "sn"
	ActionEpisode Action = "ep"
	ActionWatch   Action = "wt"
)

// PageSize is the fixed episode-listing page size.
const PageSize = 5

// callbackDataLimit is Telegram's hard cap on callback_data payloads.
const callbackDataLimit = 64

type State struct {
	Action   Action
	Provider string
	AnimeID  string
	Season   int
	PostID   string
	Episode  int
	Page     int
}

func (s State) Encode() string {
	post := s.PostID
	if post == s.AnimeID {
		post = ""
	}
	switch s.Action {
	case ActionSelect, ActionSeries, ActionInfo:
		return strings.Join([]string{string(s.Action), s.Provider, s.AnimeID}, ":")
	case ActionSeason:
		return strings.Join([]string{
			string(s.Action), s.Provider, s.AnimeID,
			strconv.Itoa(s.Season), post, strconv.Itoa(s.Page),
		}, ":")
	case ActionEpisode, ActionWatch:
		return strings.Join([]string{
			string(s.Action), s.Provider, s.AnimeID,
			strconv.Itoa(s.Season), post, strconv.Itoa(s.Episode),
		}, ":")
	default:
		return ""
	}
}

func Decode(payload string) (State, error) {
	action, rest, found := strings.Cut(payload, ":")
	if !found {
		return State{}, fmt.Errorf("payload carries no action tag")
	}

	state := State{Action: Action(action)}

	switch state.Action {
	case ActionSelect, ActionSeries, ActionInfo:
		parts := strings.SplitN(rest, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return State{}, fmt.Errorf("malformed %s payload", action)
		}
		state.Provider = parts[0]
		state.AnimeID = parts[1]

	case ActionSeason:
		parts := strings.SplitN(rest, ":", 5)
		if len(parts) != 5 {
			return State{}, fmt.Errorf("malformed season payload")
		}
		season, err := strconv.Atoi(parts[2])
		if err != nil {
			return State{}, fmt.Errorf("season number: %w", err)
		}
		page, err := strconv.Atoi(parts[4])
		if err != nil {
			return State{}, fmt.Errorf("page cursor: %w", err)
		}
		state.Provider = parts[0]
		state.AnimeID = parts[1]
		state.Season = season
		state.PostID = postIDOf(parts[3], parts[1])
		state.Page = page

	case ActionEpisode, ActionWatch:
		parts := strings.SplitN(rest, ":", 5)
		if len(parts) != 5 {
			return State{}, fmt.Errorf("malformed %s payload", action)
		}
		season, err := strconv.Atoi(parts[2])
		if err != nil {
			return State{}, fmt.Errorf("season number: %w", err)
		}
		ordinal, err := strconv.Atoi(parts[4])
		if err != nil {
			return State{}, fmt.Errorf("episode position: %w", err)
		}
		if ordinal < 1 {
			return State{}, fmt.Errorf("episode position %d out of range", ordinal)
		}
		state.Provider = parts[0]
		state.AnimeID = parts[1]
		state.Season = season
		state.PostID = postIDOf(parts[3], parts[1])
		state.Episode = ordinal

	default:
		return State{}, fmt.Errorf("unknown action %q", action)
	}

	if state.Provider == "" || state.AnimeID == "" {
		return State{}, fmt.Errorf("payload is missing identifiers")
	}

	return state, nil
}

// postIDOf restores an elided post id: an empty token means the post id
// repeats the series id.
func postIDOf(token, animeID string) string {
	if token == "" {
		return animeID
	}
	return token
}

// SeasonLabel rebuilds the display label of the season the payload
// encodes.
func (s State) SeasonLabel() string {
	return "Season " + strconv.Itoa(s.Season)
}

// TotalPages returns how many pages a list of n items spans.
func TotalPages(n, pageSize int) int {
	if pageSize <= 0 || n <= 0 {
		return 1
	}
	pages := (n + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// ClampPage clamps a requested page into [1, TotalPages(n, pageSize)].
func ClampPage(page, n, pageSize int) int {
	last := TotalPages(n, pageSize)
	if page < 1 {
		return 1
	}
	if page > last {
		return last
	}
	return page
}

// PageBounds returns the half-open [start, end) item range of a page.
// The page is assumed clamped.
func PageBounds(page, n, pageSize int) (int, int) {
	start := (page - 1) * pageSize
	if start > n {
		start = n
	}
	end := start + pageSize
	if end > n {
		end = n
	}
	return start, end
}
