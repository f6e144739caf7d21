package providers

import (
	"strconv"
	"strings"
)

// Aggregator APIs reshuffle their response envelope between deployments.
// A Shape is one known envelope layout: a predicate plus extractor that
// either produces the item list or reports that the payload does not use
// this layout. Shapes are tried in a fixed priority order and the first
// match wins, so extraction is independent of which envelope the
// upstream happened to use.
type Shape struct {
	Name    string
	Extract func(payload any) ([]map[string]any, bool)
}

// ItemShapes is the fixed fallback order for item-list envelopes.
func ItemShapes() []Shape {
	return []Shape{
		{Name: "top-level list", Extract: func(payload any) ([]map[string]any, bool) {
			return asItemList(payload)
		}},
		{Name: "results field", Extract: func(payload any) ([]map[string]any, bool) {
			return asItemList(GetByPath(payload, "results"))
		}},
		{Name: "data field", Extract: func(payload any) ([]map[string]any, bool) {
			return asItemList(GetByPath(payload, "data"))
		}},
		{Name: "nested data.episodes", Extract: func(payload any) ([]map[string]any, bool) {
			return asItemList(GetByPath(payload, "data.episodes"))
		}},
		{Name: "episodesList field", Extract: func(payload any) ([]map[string]any, bool) {
			return asItemList(GetByPath(payload, "episodesList"))
		}},
	}
}

// ExtractItems applies shapes in order and returns the first matching
// item list together with the matched shape name.
func ExtractItems(payload any, shapes []Shape) ([]map[string]any, string, bool) {
	for _, shape := range shapes {
		items, ok := shape.Extract(payload)
		if !ok {
			continue
		}
		return items, shape.Name, true
	}
	return nil, "", false
}

// Sentinel fields some aggregator deployments serve from their root path
// instead of data: the payload is the API's self-description, not a
// result set.
var documentationSentinels = []string{"documentation", "routes", "intro", "endpoints"}

// LooksLikeDocumentation reports whether the payload is API
// documentation/metadata rather than data. Such responses are treated as
// "no data" so the caller can move on to the next endpoint variant.
func LooksLikeDocumentation(payload any) bool {
	asMap, ok := payload.(map[string]any)
	if !ok {
		return false
	}
	for _, sentinel := range documentationSentinels {
		if _, present := asMap[sentinel]; present {
			return true
		}
	}
	return false
}

// GetByPath walks a decoded JSON value by dot-separated map keys.
func GetByPath(payload any, path string) any {
	segments := strings.Split(path, ".")
	current := payload
	for _, segment := range segments {
		asMap, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = asMap[segment]
	}
	return current
}

// StringField returns the first present, non-empty field among keys,
// coerced to a string.
func StringField(item map[string]any, keys ...string) string {
	for _, key := range keys {
		value, ok := toString(item[key])
		if ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// IntField returns the first present field among keys coerced to an int.
func IntField(item map[string]any, keys ...string) (int, bool) {
	for _, key := range keys {
		value, ok := toFloat(item[key])
		if ok {
			return int(value), true
		}
	}
	return 0, false
}

func asItemList(value any) ([]map[string]any, bool) {
	list, ok := value.([]any)
	if !ok || len(list) == 0 {
		return nil, false
	}

	items := make([]map[string]any, 0, len(list))
	for _, entry := range list {
		item, ok := entry.(map[string]any)
		if !ok {
			return nil, false
		}
		items = append(items, item)
	}
	return items, true
}

func toString(input any) (string, bool) {
	switch value := input.(type) {
	case string:
		return value, true
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64), true
	case int:
		return strconv.Itoa(value), true
	default:
		return "", false
	}
}

func toFloat(input any) (float64, bool) {
	switch value := input.(type) {
	case float64:
		return value, true
	case int:
		return float64(value), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
