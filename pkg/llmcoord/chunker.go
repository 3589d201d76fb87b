package llmcoord

import (
	"strings"

	"github.com/reflector-core/reflector/pkg/errs"
	"github.com/reflector-core/reflector/pkg/tokenize"
)

// maxChunks is the safety limit on the number of chunks a single corpus can
// be split into, matching transcript_chunker.py's max_chunks=50.
const maxChunks = 50

// maxShrinkAttempts bounds the per-chunk shrink loop, per spec.md §4.4
// step 6 ("max 10 iterations").
const maxShrinkAttempts = 10

// TokenCounter estimates the token count of rendered text. pkg/tokenize's
// EstimateTokens is the production implementation; tests may substitute an
// exact counter to exercise budget edge cases deterministically.
type TokenCounter func(text string) int

// ChunkerConfig parameterizes Chunk, matching spec.md §4.4's named
// constants.
type ChunkerConfig struct {
	MaxContextTokens int
	OverlapRatio     float64 // 0 <= ratio < 0.5
	SafetyMargin     int     // default ~50 tokens
	Counter          TokenCounter
}

// TemplateFunc renders a complete prompt from a chunk's body text (or "" to
// measure template overhead alone).
type TemplateFunc func(body string) string

// Chunk implements spec.md §4.4 steps 1-6: measure template overhead,
// compute the content budget, and either return the corpus as a single
// chunk or generate overlapping chunks snapped to natural split points,
// shrinking any chunk that still overflows after estimation.
func Chunk(cfg ChunkerConfig, template TemplateFunc, corpus string) ([]string, error) {
	if cfg.Counter == nil {
		cfg.Counter = tokenize.EstimateTokens
	}
	safety := cfg.SafetyMargin
	if safety == 0 {
		safety = 50
	}

	if corpus == "" {
		return nil, nil
	}

	// Step 1: measure template overhead.
	overhead := cfg.Counter(template(""))
	if overhead >= cfg.MaxContextTokens {
		return nil, errs.New(errs.Validation, "llmcoord", "Chunk",
			errs.NewValidationError("template", "template overhead exceeds max context"))
	}

	// Step 2: available space for content.
	maxContent := cfg.MaxContextTokens - overhead - safety
	if maxContent <= 0 {
		return nil, errs.New(errs.Validation, "llmcoord", "Chunk",
			errs.NewValidationError("max_context_tokens", "no space left for content after template overhead"))
	}

	// Step 3: single call if the whole corpus fits.
	if cfg.Counter(corpus) <= maxContent {
		return []string{corpus}, nil
	}

	if cfg.OverlapRatio < 0 || cfg.OverlapRatio >= 0.5 {
		return nil, errs.New(errs.Validation, "llmcoord", "Chunk",
			errs.NewValidationError("overlap_ratio", "must be in [0, 0.5)"))
	}

	// Step 4: overlap/core token split.
	overlapTokens := int(float64(maxContent) * cfg.OverlapRatio)
	coreTokens := maxContent - 2*overlapTokens
	if coreTokens <= 0 {
		return nil, errs.New(errs.Validation, "llmcoord", "Chunk",
			errs.NewValidationError("overlap_ratio", "content space too small for specified overlap ratio"))
	}

	// Step 5: generate chunks.
	chunks := generateChunksWithOverlap(corpus, cfg.Counter(corpus), coreTokens, overlapTokens)

	// Step 6: validate actual size, shrinking any chunk still over budget.
	for i, c := range chunks {
		actual := cfg.Counter(template(c))
		if actual > cfg.MaxContextTokens {
			chunks[i] = shrinkChunkToFit(c, template, cfg.Counter, cfg.MaxContextTokens)
		}
	}

	return chunks, nil
}

// generateChunksWithOverlap generates overlapping chunks by advancing
// coreTokens worth of characters at a time, snapping each end to the
// nearest natural split point, per spec.md §4.4 step 5 and
// transcript_chunker.py's _generate_chunks_with_overlap.
func generateChunksWithOverlap(corpus string, totalTokens, coreTokens, overlapTokens int) []string {
	charsPerToken := tokenize.CharsPerTokenObserved(corpus, totalTokens)
	const safetyFactor = 0.85

	coreChars := int(float64(coreTokens) * charsPerToken * safetyFactor)
	overlapChars := int(float64(overlapTokens) * charsPerToken * safetyFactor)
	if coreChars < 1 {
		coreChars = 1
	}

	var chunks []string
	pos := 0
	count := 0
	for pos < len(corpus) && count < maxChunks {
		start := pos - overlapChars
		if start < 0 {
			start = 0
		}
		end := pos + coreChars + overlapChars
		if end > len(corpus) {
			end = len(corpus)
		}

		end = findNaturalSplitPoint(corpus, end, pos+coreChars)

		chunk := corpus[start:end]
		if len(strings.TrimSpace(chunk)) > 0 {
			chunks = append(chunks, chunk)
		}

		pos += coreChars
		count++

		if end <= start+100 {
			pos = start + 100
		}
	}

	return chunks
}

// shrinkChunkToFit repeatedly trims 10% off the end of chunk until
// template(chunk) fits within maxContextTokens or maxShrinkAttempts is hit,
// per spec.md §4.4 step 6 and transcript_chunker.py's _shrink_chunk_to_fit.
func shrinkChunkToFit(chunk string, template TemplateFunc, counter TokenCounter, maxContextTokens int) string {
	current := chunk
	for attempt := 0; attempt < maxShrinkAttempts; attempt++ {
		if counter(template(current)) <= maxContextTokens {
			break
		}
		shrinkAmount := len(current) / 10
		if shrinkAmount < 1 {
			shrinkAmount = 1
		}
		if shrinkAmount >= len(current) {
			break
		}
		current = current[:len(current)-shrinkAmount]
	}
	return current
}
