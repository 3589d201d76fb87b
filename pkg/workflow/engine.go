package workflow

import "context"

// Input is the opaque payload handed to a workflow start call. pkg/pipeline
// supplies the concrete MultitrackInput/FileInput values; this package
// never inspects the payload.
type Input any

// Engine abstracts workflow start/replay/cancel/status-query so
// pkg/workflow/temporal and pkg/workflow/memory can be swapped without
// touching the adapter logic in adapter.go or status.go, mirroring
// goadesign-goa-ai/runtime/agent/engine/engine.go's Engine interface
// narrowed to this domain's fixed operation set.
type Engine interface {
	// Start begins a new workflow run under the given external key
	// (idempotent by key per spec.md §4.1: "Workflows are idempotent by
	// external key; duplicate dispatch is tolerated").
	Start(ctx context.Context, externalKey string, input Input) (runID string, err error)

	// Replay resumes an existing, non-terminal run.
	Replay(ctx context.Context, runID string) error

	// Cancel requests cancellation of a run. A not-found run is a
	// success (spec.md §4.1: "Cancellation is idempotent: a not-found
	// workflow is a success").
	Cancel(ctx context.Context, runID string) error

	// GetRun returns the run's current status, DAG shape, and per-task
	// summaries. ErrUnknownRun signals the run id is not known to the
	// engine at all (distinct from a known-but-terminal run).
	GetRun(ctx context.Context, runID string) (RunInfo, error)
}
