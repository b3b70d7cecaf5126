// Package pairing extracts the identifiers that link events together:
// the numeric pairing id shared between a base event and its companion,
// and the normalized brand token used for same-day duplicate detection.
package pairing

import (
	"regexp"
	"strings"
)

var numberPattern = regexp.MustCompile(`#?(\d{3,})`)

// Number returns the pairing identifier embedded in an event name, or ""
// when the name carries none. Companion events share this identifier with
// their primary (e.g. "Demo Event #51234" / "Supervisor Visit #51234").
func Number(name string) string {
	m := numberPattern.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return m[1]
}

// stopwords are leading tokens that never identify a brand.
var stopwords = map[string]bool{
	"demo":       true,
	"event":      true,
	"juicer":     true,
	"production": true,
	"survey":     true,
	"supervisor": true,
	"visit":      true,
	"kiosk":      true,
	"digital":    true,
	"setup":      true,
	"refresh":    true,
	"teardown":   true,
	"deep":       true,
	"clean":      true,
}

// Brand returns the normalized brand token of an event name: the first
// lower-cased alphabetic word that is neither a category word nor a pairing
// number. Returns "" when no such token exists; callers must not group
// events with an empty brand.
func Brand(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	for _, f := range fields {
		if stopwords[f] {
			continue
		}
		if strings.IndexFunc(f, func(r rune) bool { return r < '0' || r > '9' }) == -1 {
			// all digits: a pairing number, not a brand
			continue
		}
		return f
	}
	return ""
}

// Match groups a set of event names by pairing number. Names without a
// number are ignored. The result maps number -> indexes into names.
func Match(names []string) map[string][]int {
	out := make(map[string][]int)
	for i, n := range names {
		num := Number(n)
		if num == "" {
			continue
		}
		out[num] = append(out[num], i)
	}
	return out
}
