// Package llmcoord implements the template-aware chunker, structured-output
// retry loop, dedup merge, JSON extraction, and title-casing fallback of
// spec.md §4.4. The chunking algorithm is grounded literally on
// original_source/server/reflector/processors/summary/transcript_chunker.py
// (find_natural_split_point, _generate_chunks_with_overlap,
// _shrink_chunk_to_fit), translated into the teacher's idiom rather than
// carried over line-by-line.
package llmcoord

import "strings"

// searchWindow bounds how far back from a target position natural-split
// search looks, mirroring transcript_chunker.py's min(200, target-min).
const searchWindow = 200

// findNaturalSplitPoint finds a natural place to split text near
// targetPos, never going below minPos, per spec.md §4.4 step 5's priority
// order: paragraph break > speaker-line break > sentence ending > line
// break > whitespace > hard cut.
func findNaturalSplitPoint(text string, targetPos, minPos int) int {
	if targetPos <= minPos {
		return targetPos
	}
	if targetPos > len(text) {
		targetPos = len(text)
	}

	window := searchWindow
	if targetPos-minPos < window {
		window = targetPos - minPos
	}
	lowerBound := targetPos - window
	if lowerBound < minPos {
		lowerBound = minPos
	}

	// Paragraph breaks: "\n\n".
	for i := targetPos; i > lowerBound; i-- {
		if i < len(text)-1 && text[i] == '\n' && text[i+1] == '\n' {
			return i + 2
		}
	}

	// Speaker-line breaks: a newline followed by a ':' within 50 chars.
	for i := targetPos; i > lowerBound; i-- {
		if i > 0 && text[i-1] == '\n' {
			end := i + 50
			if end > len(text) {
				end = len(text)
			}
			if strings.Contains(text[i:end], ":") {
				return i
			}
		}
	}

	// Sentence endings: ".", "!", "?" followed by a space.
	for i := targetPos; i > lowerBound; i-- {
		if i < len(text) && strings.ContainsRune(".!?", rune(text[i])) && i < len(text)-1 && text[i+1] == ' ' {
			return i + 1
		}
	}

	// Line breaks.
	for i := targetPos; i > lowerBound; i-- {
		if i < len(text) && text[i] == '\n' {
			return i + 1
		}
	}

	// Whitespace.
	for i := targetPos; i > lowerBound; i-- {
		if i < len(text) && (text[i] == ' ' || text[i] == '\t') {
			return i + 1
		}
	}

	// Hard cut: no natural boundary found within the search window.
	return targetPos
}
