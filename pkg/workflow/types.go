// Package workflow implements the Workflow Engine Adapter of spec.md §4.1:
// a Validate -> Prepare -> Dispatch protocol in front of a pluggable
// durable-execution Engine, plus StatusProjection's Kahn's-algorithm
// topological sort with lexicographic tie-breaking. The Engine interface
// is grounded on goadesign-goa-ai/runtime/agent/engine/engine.go's
// Engine/WorkflowHandle/RetryPolicy shape, narrowed from that package's
// generic workflow-registration surface down to the fixed
// start/replay/cancel/status-query operations this domain needs; concrete
// implementations live in pkg/workflow/temporal (go.temporal.io/sdk) and
// pkg/workflow/memory (an in-memory fake that is itself a usable small-
// deployment mode, not just a test double, per spec.md §9).
package workflow

import "time"

// RunStatus mirrors the workflow engine's own run-status vocabulary.
type RunStatus string

const (
	RunQueued    RunStatus = "queued"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// Terminal reports whether a run in this status can no longer progress.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunCompleted, RunFailed, RunCancelled:
		return true
	default:
		return false
	}
}

// Active reports whether a run is RUNNING or QUEUED, the states spec.md
// §4.1 treats as "already scheduled".
func (s RunStatus) Active() bool {
	return s == RunRunning || s == RunQueued
}

// TaskSummary is one task's raw state as the engine reports it, the input
// StatusProjection joins against the DAG shape to build DagTask rows.
type TaskSummary struct {
	Name              string
	Status            string // queued | running | completed | failed | cancelled
	StartedAtMillis   int64
	FinishedAtMillis  int64
	ErrorText         string // raw error text (may include traceback/scaffolding lines)
	ChildrenTotal     int    // 0 if this task does not fan out
	ChildrenCompleted int
}

// DAGShape declares a DAG as an adjacency list keyed by task name, each
// task listing its parents — no pointers, ids only, per spec.md §9's "no
// pointers; ids only" design note for representing the diarization
// pipeline's DAG.
type DAGShape map[string][]string

// RunInfo is everything StatusProjection and the dispatch logic need about
// one workflow run.
type RunInfo struct {
	RunID     string
	Status    RunStatus
	Deleted   bool
	Shape     DAGShape
	Tasks     map[string]TaskSummary
	StartedAt time.Time
}

// IsReplayable reports whether a run can be resumed via Engine.Replay, per
// spec.md §4.1: "if the engine reports it replayable (non-terminal, not
// deleted)".
func (r RunInfo) IsReplayable() bool {
	return !r.Deleted && !r.Status.Terminal()
}

// DagTask is one task's projection within a DAG_STATUS snapshot, matching
// spec.md §3's DagTask entity. pkg/broadcast.DagTask is a separate,
// narrower wire type carrying only name, status, error and start/end times.
type DagTask struct {
	Name              string
	Status            string
	StartedAt         string
	FinishedAt        string
	DurationSeconds   float64
	Parents           []string
	Error             string
	ChildrenTotal     int
	ChildrenCompleted int
	ProgressPct       float64
}
