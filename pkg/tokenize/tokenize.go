// Package tokenize provides the character/word-proxy length estimator the
// LLM Coordinator uses for template and chunk budgeting (spec.md §4.9).
// No tokenizer library appears anywhere in the retrieval pack, and spec.md
// explicitly permits a proxy estimator here, so this stays a small stdlib
// unicode/utf8-based estimator, generalizing the teacher's
// pkg/mcp/tokens.go EstimateTokens heuristic from tool-output truncation to
// template+corpus token budgeting.
package tokenize

import "unicode/utf8"

// CharsPerToken is the default characters-per-token ratio used when no
// better estimate (derived from an actual measurement) is available.
const CharsPerToken = 4.0

// EstimateTokens returns an approximate token count for text using the
// common ~4-characters-per-token heuristic for English text, rounding up.
// Counts runes rather than bytes so multi-byte UTF-8 content (CJK,
// accented speaker names) isn't systematically overestimated the way a
// byte-length count would be.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	tokens := float64(n) / CharsPerToken
	whole := int(tokens)
	if float64(whole) < tokens {
		whole++
	}
	return whole
}

// CharsPerTokenObserved derives an empirical chars/token ratio from a text
// and its actual measured token count, matching the chunker's
// avg_chars_per_token calculation (spec.md §4.4 step 5). Falls back to
// CharsPerToken when tokenCount is zero (empty text).
func CharsPerTokenObserved(text string, tokenCount int) float64 {
	if tokenCount <= 0 {
		return CharsPerToken
	}
	return float64(utf8.RuneCountInString(text)) / float64(tokenCount)
}
