package llmcoord

import (
	"strings"
)

// leadInPhrases are lead-in phrases stripped case-insensitively from a
// model-returned title before casing, per spec.md §4.4.
var leadInPhrases = []string{
	"discussing",
	"discussion on",
	"discussion about",
}

// minorWords are never capitalized by TitleCaseFallback unless they are
// the first word, approximating "uppercase nouns/verbs/adjectives" with a
// closed-class stopword list (articles, coordinating conjunctions, short
// prepositions) since no POS tagger exists anywhere in the retrieval pack.
// This is a deliberately coarse proxy for the spec's "POS-tag tokens"
// language; it is the title-casing fallback path only, and per spec.md
// §4.4 a failure here must never block — FallbackTitle always returns a
// usable string.
var minorWords = map[string]bool{
	"a": true, "an": true, "the": true,
	"and": true, "or": true, "nor": true, "but": true,
	"of": true, "in": true, "on": true, "at": true, "to": true, "for": true,
	"with": true, "by": true, "as": true, "is": true, "it": true,
}

// TitleCaseFallback applies the title-casing fallback of spec.md §4.4:
// strip a closed set of lead-in phrases, then uppercase the first letter
// of words outside the minor-word stopword list if currently lowercase,
// and always uppercase the string's first character. Never returns an
// error; any internal failure (empty input) returns title unchanged.
func TitleCaseFallback(title string) string {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return title
	}

	lower := strings.ToLower(trimmed)
	for _, phrase := range leadInPhrases {
		if strings.HasPrefix(lower, phrase) {
			trimmed = strings.TrimSpace(trimmed[len(phrase):])
			lower = strings.ToLower(trimmed)
		}
	}
	if trimmed == "" {
		return title
	}

	words := strings.Fields(trimmed)
	for i, w := range words {
		lw := strings.ToLower(w)
		if i > 0 && minorWords[lw] {
			continue
		}
		if len(w) == 0 {
			continue
		}
		first := rune(w[0])
		if first >= 'a' && first <= 'z' {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}

	result := strings.Join(words, " ")
	if result == "" {
		return title
	}
	// Always uppercase the string's first character, even if it was
	// already a minor word or non-letter.
	return strings.ToUpper(result[:1]) + result[1:]
}
