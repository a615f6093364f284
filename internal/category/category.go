package category

import (
	"strings"
	"unicode"
)

// Category is one of the four canonical event tags shown to users.
type Category string

const (
	Academic  Category = "academic"
	Cultural  Category = "cultural"
	Volunteer Category = "volunteer"
	Sports    Category = "sports"
)

// Fallback is displayed for backend types that match nothing.
const Fallback = Academic

// Result carries the normalized category together with the backend value.
// Known is false when the raw value matched nothing and Category is Fallback.
type Result struct {
	Category Category `json:"category"`
	Raw      string   `json:"raw"`
	Known    bool     `json:"known"`
}

// All returns the canonical categories in display order.
func All() []Category {
	return []Category{Academic, Cultural, Volunteer, Sports}
}

// Valid reports whether c is one of the canonical categories.
func Valid(c Category) bool {
	switch c {
	case Academic, Cultural, Volunteer, Sports:
		return true
	}
	return false
}

// Normalize maps a free-text backend type onto a canonical category.
// Matching is case-insensitive: exact match first, then a whole-word match
// against the words of the value, so "transport" is not a sport.
// Unrecognized values fall back to Academic with Known set to false.
func Normalize(raw string) Result {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return Result{Category: Fallback, Raw: raw}
	}

	if cat, ok := exactMatch[name]; ok {
		return Result{Category: cat, Raw: raw, Known: true}
	}

	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(name, func(r rune) bool { return !unicode.IsLetter(r) }) {
		words[w] = true
	}
	for _, entry := range wordMatches {
		if words[entry.keyword] {
			return Result{Category: entry.category, Raw: raw, Known: true}
		}
	}

	return Result{Category: Fallback, Raw: raw}
}

var exactMatch = map[string]Category{
	"academic":  Academic,
	"education": Academic,
	"study":     Academic,

	"cultural": Cultural,
	"culture":  Cultural,
	"arts":     Cultural,

	"volunteer":    Volunteer,
	"volunteering": Volunteer,
	"community":    Volunteer,

	"sports":    Sports,
	"sport":     Sports,
	"athletics": Sports,
}

type wordEntry struct {
	keyword  string
	category Category
}

// First listed keyword wins when a value names several categories.
var wordMatches = []wordEntry{
	{"volunteering", Volunteer},
	{"community", Volunteer},
	{"volunteer", Volunteer},

	{"athletics", Sports},
	{"sports", Sports},
	{"sport", Sports},

	{"education", Academic},
	{"academic", Academic},
	{"study", Academic},

	{"cultural", Cultural},
	{"culture", Cultural},
	{"arts", Cultural},
}
