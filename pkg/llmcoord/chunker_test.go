package llmcoord

import (
	"strings"
	"testing"
)

// exactCounter counts words as a stand-in "token" for deterministic tests,
// avoiding the character-proxy estimator's rounding when testing exact
// budget boundaries.
func exactCounter(text string) int {
	return len(strings.Fields(text))
}

func TestChunkSingleCallWhenFits(t *testing.T) {
	cfg := ChunkerConfig{MaxContextTokens: 100, OverlapRatio: 0.15, Counter: exactCounter}
	template := func(body string) string { return "TEMPLATE " + body }

	chunks, err := Chunk(cfg, template, "short corpus here")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "short corpus here" {
		t.Fatalf("expected single unsplit chunk, got %+v", chunks)
	}
}

func TestChunkTemplateOverheadTooLarge(t *testing.T) {
	cfg := ChunkerConfig{MaxContextTokens: 2, Counter: exactCounter}
	template := func(body string) string { return "one two three " + body }

	_, err := Chunk(cfg, template, "x")
	if err == nil {
		t.Fatal("expected error when template overhead exceeds max context")
	}
}

func TestChunkRespectsBudget(t *testing.T) {
	words := make([]string, 2000)
	for i := range words {
		words[i] = "word"
	}
	corpus := strings.Join(words, " ")

	cfg := ChunkerConfig{MaxContextTokens: 300, OverlapRatio: 0.15, Counter: tokenCounterFromEstimate}
	template := func(body string) string { return "SYSTEM PROMPT\n" + body }

	chunks, err := Chunk(cfg, template, corpus)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected the corpus to require multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if got := cfg.Counter(template(c)); got > cfg.MaxContextTokens {
			t.Fatalf("chunk %d measures %d tokens, exceeds max context %d", i, got, cfg.MaxContextTokens)
		}
	}
}

// tokenCounterFromEstimate approximates real usage (pkg/tokenize's default)
// without importing it directly, keeping this test self-contained.
func tokenCounterFromEstimate(text string) int {
	n := len(text)
	if n == 0 {
		return 0
	}
	tokens := n / 4
	if n%4 != 0 {
		tokens++
	}
	return tokens
}

func TestChunkInvalidOverlapRatio(t *testing.T) {
	cfg := ChunkerConfig{MaxContextTokens: 100, OverlapRatio: 0.6, Counter: exactCounter}
	template := func(body string) string { return body }
	longCorpus := strings.Repeat("word ", 200)

	_, err := Chunk(cfg, template, longCorpus)
	if err == nil {
		t.Fatal("expected error for overlap ratio >= 0.5")
	}
}

func TestFindNaturalSplitPointParagraphBreak(t *testing.T) {
	text := "first paragraph of text.\n\nsecond paragraph starts here and continues on"
	pos := findNaturalSplitPoint(text, 40, 0)
	if pos != strings.Index(text, "\n\n")+2 {
		t.Fatalf("expected split right after paragraph break, got %d (%q)", pos, text[:pos])
	}
}

func TestFindNaturalSplitPointSpeakerLine(t *testing.T) {
	text := "Alice: hello there\nBob: hi back, how are you doing today my friend"
	target := len(text) - 5
	pos := findNaturalSplitPoint(text, target, 0)
	if pos == target {
		t.Fatalf("expected a natural split point before the hard-cut fallback")
	}
}

func TestDedupPreservingOrder(t *testing.T) {
	got := dedupPreservingOrder([]string{"a", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %+v, want %+v", got, want)
		}
	}
}

func TestNeedsLLMDedup(t *testing.T) {
	if needsLLMDedup(1, 10) {
		t.Fatal("single chunk should never trigger LLM dedup")
	}
	if needsLLMDedup(2, 3) {
		t.Fatal("3 subjects should not trigger LLM dedup (needs > 3)")
	}
	if !needsLLMDedup(2, 4) {
		t.Fatal("multiple chunks with > 3 subjects should trigger LLM dedup")
	}
}
