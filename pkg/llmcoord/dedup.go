package llmcoord

// dedupPreservingOrder removes duplicate strings, keeping the first
// occurrence's position, matching transcript_chunker.py's fallback
// `list(dict.fromkeys(all_subjects))` basic dedup (spec.md §4.4 step 8:
// "else de-duplicate preserving insertion order").
func dedupPreservingOrder(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// needsLLMDedup reports whether the dedup LLM pass should run, per
// spec.md §4.4 step 8: "if multiple chunks and > 3 subjects, call a dedup
// LLM pass; else de-duplicate preserving insertion order."
func needsLLMDedup(chunkCount, subjectCount int) bool {
	return chunkCount > 1 && subjectCount > 3
}
