package workflow

import (
	"reflect"
	"testing"
)

func TestTopoSortDeterministicTieBreak(t *testing.T) {
	shape := DAGShape{
		"assemble":           {"transcribe_track_0", "transcribe_track_1", "mixdown_tracks"},
		"pad_track_1":        {"get_recording"},
		"pad_track_0":        {"get_recording"},
		"get_recording":      {},
		"transcribe_track_0": {"pad_track_0"},
		"transcribe_track_1": {"pad_track_1"},
		"mixdown_tracks":     {"pad_track_0", "pad_track_1"},
	}

	var last []string
	for i := 0; i < 5; i++ {
		order := topoSort(shape)
		if last != nil && !reflect.DeepEqual(order, last) {
			t.Fatalf("topoSort not stable: %v vs %v", order, last)
		}
		last = order
	}

	if last[0] != "get_recording" {
		t.Errorf("expected get_recording first, got %v", last)
	}
	if last[len(last)-1] != "assemble" {
		t.Errorf("expected assemble last, got %v", last)
	}
	// pad_track_0 and pad_track_1 are both ready immediately after
	// get_recording; lexicographic tie-break must pick pad_track_0 first.
	idx0 := indexOf(last, "pad_track_0")
	idx1 := indexOf(last, "pad_track_1")
	if idx0 >= idx1 {
		t.Errorf("expected pad_track_0 before pad_track_1, got order %v", last)
	}
}

func indexOf(xs []string, v string) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return -1
}

func TestStatusProjectionDurationAndFanout(t *testing.T) {
	info := RunInfo{
		RunID: "run-1",
		Shape: DAGShape{
			"get_recording": {},
			"pad_track_0":   {"get_recording"},
			"pad_track_1":   {"get_recording"},
			"mixdown":       {"pad_track_0", "pad_track_1"},
		},
		Tasks: map[string]TaskSummary{
			"get_recording": {Name: "get_recording", Status: "completed", StartedAtMillis: 1000, FinishedAtMillis: 2000},
			"pad_track_0":   {Name: "pad_track_0", Status: "completed", StartedAtMillis: 2000, FinishedAtMillis: 2500, ChildrenTotal: 0},
			"pad_track_1":   {Name: "pad_track_1", Status: "failed", StartedAtMillis: 2000, FinishedAtMillis: 2300, ErrorText: "Traceback (most recent call last):\n  File \"x.py\", line 1\nValueError: boom"},
			"mixdown":       {Name: "mixdown", Status: "queued", ChildrenTotal: 2, ChildrenCompleted: 1},
		},
	}

	tasks := StatusProjection(info)
	byName := make(map[string]DagTask)
	for _, task := range tasks {
		byName[task.Name] = task
	}

	got := byName["get_recording"]
	if got.DurationSeconds != 1.0 {
		t.Errorf("expected duration 1.0, got %v", got.DurationSeconds)
	}

	failed := byName["pad_track_1"]
	if failed.Error != "ValueError: boom" {
		t.Errorf("expected summarized error, got %q", failed.Error)
	}

	mix := byName["mixdown"]
	if mix.ProgressPct != 50.0 {
		t.Errorf("expected 50%% progress, got %v", mix.ProgressPct)
	}
}

func TestSummarizeErrorFallsBackToRawFirstLine(t *testing.T) {
	// Every non-empty line matches a skip prefix, so summarizeError must
	// fall back to the raw first line rather than returning "".
	in := "Traceback (most recent call last):\n  File \"x.py\", line 1\n)"
	if got := summarizeError(in); got != "Traceback (most recent call last):" {
		t.Errorf("expected fallback to raw first line, got %q", got)
	}
	if got := summarizeError(""); got != "" {
		t.Errorf("expected empty string for empty input, got %q", got)
	}
}
