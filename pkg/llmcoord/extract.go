package llmcoord

import (
	"regexp"
	"strings"
)

// fencedJSONRe matches a ```json ... ``` or ```js ... ``` fenced block.
var fencedJSONRe = regexp.MustCompile("(?s)```(?:json|js)\\s*\\n(.*?)\\n?```")

// fencedRe matches any unfenced/unlabeled ``` ... ``` block.
var fencedRe = regexp.MustCompile("(?s)```\\s*\\n?(.*?)\\n?```")

// ExtractJSON recovers a JSON payload from free-form LLM text, per
// spec.md §4.4: try a fenced ```json``` or ```js``` block, then any
// unfenced ``` ``` block, then strip a trailing ``` fence, and finally
// fall back to the trimmed text as-is.
func ExtractJSON(text string) string {
	if m := fencedJSONRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := fencedRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasSuffix(trimmed, "```") {
		return strings.TrimSpace(strings.TrimSuffix(trimmed, "```"))
	}

	return trimmed
}
