package workflow

import (
	"sort"
	"strings"
	"time"
)

// StatusProjection topologically sorts shape (Kahn's algorithm, lexical
// tie-break on step id per spec.md §4.1: "stable across equal-in-degree
// nodes; use sorted step-id comparison"), joins each step against its
// TaskSummary, computes duration_seconds from the millisecond timestamps,
// counts completed children for fan-out parents, and extracts a
// single-line error summary.
//
// This stability is load-bearing for UI tests: calling StatusProjection
// twice against the same RunInfo value must produce the identical task
// order every time.
func StatusProjection(info RunInfo) []DagTask {
	order := topoSort(info.Shape)

	out := make([]DagTask, 0, len(order))
	for _, name := range order {
		summary := info.Tasks[name]
		task := DagTask{
			Name:    name,
			Status:  summary.Status,
			Parents: append([]string(nil), info.Shape[name]...),
			Error:   summarizeError(summary.ErrorText),
		}

		if summary.StartedAtMillis > 0 {
			task.StartedAt = time.UnixMilli(summary.StartedAtMillis).UTC().Format(time.RFC3339)
		}
		if summary.FinishedAtMillis > 0 {
			task.FinishedAt = time.UnixMilli(summary.FinishedAtMillis).UTC().Format(time.RFC3339)
			if summary.StartedAtMillis > 0 {
				task.DurationSeconds = float64(summary.FinishedAtMillis-summary.StartedAtMillis) / 1000.0
			}
		}

		if summary.ChildrenTotal > 0 {
			task.ChildrenTotal = summary.ChildrenTotal
			task.ChildrenCompleted = summary.ChildrenCompleted
			task.ProgressPct = 100 * float64(summary.ChildrenCompleted) / float64(summary.ChildrenTotal)
		}

		out = append(out, task)
	}
	return out
}

// topoSort implements Kahn's algorithm over shape (parent adjacency),
// breaking ties between equally-ready nodes by sorted step-id comparison
// so the output order is deterministic across calls, per spec.md §4.1 and
// §8's "Topological stability" invariant.
func topoSort(shape DAGShape) []string {
	indegree := make(map[string]int, len(shape))
	children := make(map[string][]string, len(shape))

	names := make([]string, 0, len(shape))
	for name := range shape {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		parents := shape[name]
		indegree[name] = len(parents)
		for _, p := range parents {
			children[p] = append(children[p], name)
		}
	}
	for _, kids := range children {
		sort.Strings(kids)
	}

	var ready []string
	for _, name := range names {
		if indegree[name] == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	var order []string
	for len(ready) > 0 {
		sort.Strings(ready)
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, child := range children[next] {
			indegree[child]--
			if indegree[child] == 0 {
				ready = append(ready, child)
			}
		}
	}

	return order
}

// tracebackPrefixes are line prefixes summarizeError skips when scanning
// for the first meaningful error line, per spec.md §4.1's error
// summarization rule.
var tracebackPrefixes = []string{"Traceback ", "File ", "{", ")"}

// summarizeError extracts a single-line error summary: the first
// non-empty line that does not start with any of the traceback/scaffolding
// prefixes, else the raw first line, per spec.md §4.1.
func summarizeError(text string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	var firstLine string
	for i, line := range lines {
		if i == 0 {
			firstLine = line
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		skip := false
		for _, prefix := range tracebackPrefixes {
			if strings.HasPrefix(trimmed, prefix) {
				skip = true
				break
			}
		}
		if !skip {
			return trimmed
		}
	}
	return strings.TrimSpace(firstLine)
}
