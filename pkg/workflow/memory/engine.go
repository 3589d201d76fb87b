// Package memory implements pkg/workflow.Engine entirely in process
// memory. It is a usable small-deployment mode in its own right per
// spec.md §9 ("the in-memory pub/sub must be swappable with a
// Redis-style broker behind the same interface" — the same swappability
// requirement applies to the workflow engine), not just a test double:
// a single-process deployment can run the whole DiarizationPipeline
// without standing up Temporal.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/reflector-core/reflector/pkg/errs"
	"github.com/reflector-core/reflector/pkg/workflow"
)

// Runner executes a workflow synchronously to completion (or failure) and
// reports the DAG shape and per-task summaries it produced. pkg/pipeline
// supplies the concrete DiarizationPipeline runner; this package only
// manages run bookkeeping and concurrency.
type Runner func(ctx context.Context, input workflow.Input, report func(workflow.TaskSummary)) (workflow.DAGShape, error)

type run struct {
	mu      sync.Mutex
	status  workflow.RunStatus
	deleted bool
	shape   workflow.DAGShape
	tasks   map[string]workflow.TaskSummary
	cancel  context.CancelFunc
}

// Engine is an in-memory workflow.Engine. Each Start spawns a goroutine
// that drives Runner to completion; GetRun reads a live snapshot of that
// goroutine's reported progress.
type Engine struct {
	runner Runner

	mu   sync.Mutex
	runs map[string]*run
	byKey map[string]string // external key -> most recent run id, for idempotent Start
}

// New constructs an in-memory Engine around runner.
func New(runner Runner) *Engine {
	return &Engine{
		runner: runner,
		runs:   make(map[string]*run),
		byKey:  make(map[string]string),
	}
}

// Start begins a new run, or returns the existing run id for externalKey
// if that run is still active, per spec.md §4.1's idempotent-by-external-
// key contract.
func (e *Engine) Start(ctx context.Context, externalKey string, input workflow.Input) (string, error) {
	e.mu.Lock()
	if existingID, ok := e.byKey[externalKey]; ok {
		if r, ok := e.runs[existingID]; ok {
			r.mu.Lock()
			active := r.status.Active()
			r.mu.Unlock()
			if active {
				e.mu.Unlock()
				return existingID, nil
			}
		}
	}

	runID := uuid.NewString()
	runCtx, cancel := context.WithCancel(context.Background())
	r := &run{
		status: workflow.RunQueued,
		tasks:  make(map[string]workflow.TaskSummary),
		cancel: cancel,
	}
	e.runs[runID] = r
	e.byKey[externalKey] = runID
	e.mu.Unlock()

	go e.drive(runCtx, r, input)

	return runID, nil
}

func (e *Engine) drive(ctx context.Context, r *run, input workflow.Input) {
	r.mu.Lock()
	r.status = workflow.RunRunning
	r.mu.Unlock()

	report := func(summary workflow.TaskSummary) {
		r.mu.Lock()
		r.tasks[summary.Name] = summary
		r.mu.Unlock()
	}

	shape, err := e.runner(ctx, input, report)

	r.mu.Lock()
	r.shape = shape
	if ctx.Err() != nil {
		r.status = workflow.RunCancelled
	} else if err != nil {
		r.status = workflow.RunFailed
	} else {
		r.status = workflow.RunCompleted
	}
	r.mu.Unlock()
}

// Replay is a no-op if the run is still active (it never truly stopped),
// and an error otherwise: a terminal in-memory run's goroutine and state
// are gone, so there is nothing to resume.
func (e *Engine) Replay(ctx context.Context, runID string) error {
	e.mu.Lock()
	r, ok := e.runs[runID]
	e.mu.Unlock()
	if !ok {
		return workflow.ErrUnknownRun
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status.Active() {
		return nil
	}
	return errs.New(errs.Logical, "workflow/memory", "Replay", errs.ErrNotFound)
}

// Cancel requests cancellation. A not-found run is a success per spec.md
// §4.1's idempotent-cancellation rule.
func (e *Engine) Cancel(ctx context.Context, runID string) error {
	e.mu.Lock()
	r, ok := e.runs[runID]
	e.mu.Unlock()
	if !ok {
		return nil
	}

	r.mu.Lock()
	if r.status.Active() && r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()
	return nil
}

// GetRun returns a live snapshot of run state.
func (e *Engine) GetRun(ctx context.Context, runID string) (workflow.RunInfo, error) {
	e.mu.Lock()
	r, ok := e.runs[runID]
	e.mu.Unlock()
	if !ok {
		return workflow.RunInfo{}, workflow.ErrUnknownRun
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tasks := make(map[string]workflow.TaskSummary, len(r.tasks))
	for k, v := range r.tasks {
		tasks[k] = v
	}

	return workflow.RunInfo{
		RunID:   runID,
		Status:  r.status,
		Deleted: r.deleted,
		Shape:   r.shape,
		Tasks:   tasks,
	}, nil
}
