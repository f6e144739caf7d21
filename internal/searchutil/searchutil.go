package searchutil

import (
	"strings"
	"unicode"
)

var normalizeReplacer = strings.NewReplacer(
	"-", " ",
	".", " ",
	"_", " ",
	",", " ",
	":", " ",
	";", " ",
	"!", " ",
	"?", " ",
	"(", " ",
	")", " ",
	"[", " ",
	"]", " ",
	"'", " ",
	"\"", " ",
	"/", " ",
	"&", " ",
)

// Normalize lowercases a title and collapses punctuation and whitespace
// so titles scraped from different sites compare equal.
func Normalize(value string) string {
	lowered := strings.ToLower(strings.TrimSpace(value))
	replaced := normalizeReplacer.Replace(lowered)

	var builder strings.Builder
	builder.Grow(len(replaced))
	lastWasSpace := false
	for _, r := range replaced {
		if unicode.IsSpace(r) {
			if !lastWasSpace && builder.Len() > 0 {
				builder.WriteRune(' ')
			}
			lastWasSpace = true
			continue
		}
		builder.WriteRune(r)
		lastWasSpace = false
	}

	return strings.TrimRight(builder.String(), " ")
}

// MatchesQuery reports whether the normalized query occurs in the
// normalized title.
func MatchesQuery(title, query string) bool {
	normalizedTitle := Normalize(title)
	normalizedQuery := Normalize(query)
	if normalizedTitle == "" || normalizedQuery == "" {
		return false
	}
	return strings.Contains(normalizedTitle, normalizedQuery)
}
