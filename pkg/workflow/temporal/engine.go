// Package temporal implements pkg/workflow.Engine on top of
// go.temporal.io/sdk, grounded on
// goadesign-goa-ai/runtime/agent/engine/temporal/engine.go's client
// construction, OTEL interceptor wiring, and workflowHandle wrapper —
// narrowed from that package's generic multi-workflow registration surface
// down to a single registered DiarizationPipeline workflow type, since
// this domain has exactly one workflow shape.
package temporal

import (
	"context"
	"errors"

	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	"go.temporal.io/sdk/worker"

	"github.com/reflector-core/reflector/pkg/errs"
	"github.com/reflector-core/reflector/pkg/workflow"
)

// WorkflowName is the registered Temporal workflow type for the
// DiarizationPipeline, shared with pkg/pipeline's worker registration.
const WorkflowName = "DiarizationPipeline"

// StatusQuery is the Temporal query handler name the DiarizationPipeline
// workflow registers to answer GetRun's shape/task-summary request, since
// a Temporal workflow's DAG progress lives in its own goroutine state, not
// in DescribeWorkflowExecution.
const StatusQuery = "status"

// statusQueryResult is what the DiarizationPipeline workflow's StatusQuery
// handler returns; pkg/pipeline must produce exactly this shape.
type statusQueryResult struct {
	Shape workflow.DAGShape              `json:"shape"`
	Tasks map[string]workflow.TaskSummary `json:"tasks"`
}

// Engine adapts a Temporal client.Client to pkg/workflow.Engine.
type Engine struct {
	client    client.Client
	taskQueue string
}

// Options configures Engine construction.
type Options struct {
	ClientOptions client.Options
	TaskQueue     string
}

// New constructs a Temporal-backed Engine, wiring OTEL tracing the same
// way the teacher's adapter does by default.
func New(opts Options) (*Engine, error) {
	if opts.TaskQueue == "" {
		return nil, errs.New(errs.Validation, "workflow/temporal", "New", &errs.ValidationError{
			Field:   "TaskQueue",
			Message: "task queue is required",
		})
	}

	tracer, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{})
	if err != nil {
		return nil, errs.New(errs.Logical, "workflow/temporal", "New", err)
	}
	clientOpts := opts.ClientOptions
	clientOpts.Interceptors = append(clientOpts.Interceptors, tracer)

	cli, err := client.NewLazyClient(clientOpts)
	if err != nil {
		return nil, errs.New(errs.Transient, "workflow/temporal", "New", err)
	}

	return &Engine{client: cli, taskQueue: opts.TaskQueue}, nil
}

// Worker returns a Temporal worker.Worker for the engine's task queue so
// pkg/pipeline can register the DiarizationPipeline workflow and its
// activities against it.
func (e *Engine) Worker() worker.Worker {
	return worker.New(e.client, e.taskQueue, worker.Options{})
}

// Close releases the underlying Temporal client.
func (e *Engine) Close() {
	e.client.Close()
}

// Start launches a new DiarizationPipeline execution, using externalKey as
// the Temporal workflow ID so duplicate dispatch against a running
// execution is rejected by Temporal itself, matching spec.md §4.1's
// idempotent-by-external-key contract. The id Start returns is that
// workflow ID, since Replay, Cancel and GetRun address the execution by
// workflow ID (with an empty Temporal run id, i.e. its latest run).
func (e *Engine) Start(ctx context.Context, externalKey string, input workflow.Input) (string, error) {
	run, err := e.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        externalKey,
		TaskQueue: e.taskQueue,
	}, WorkflowName, input)
	if err != nil {
		var alreadyStarted *client.WorkflowExecutionAlreadyStartedError
		if errors.As(err, &alreadyStarted) {
			return externalKey, nil
		}
		return "", errs.New(errs.Transient, "workflow/temporal", "Start", err)
	}
	return run.GetID(), nil
}

// Replay is a no-op for a non-terminal Temporal execution: Temporal
// workflows are event-sourced and resume automatically on worker
// restart, so the Workflow Engine Adapter's "replay a replayable run"
// step has nothing to actively trigger here beyond confirming the run is
// still live.
func (e *Engine) Replay(ctx context.Context, runID string) error {
	info, err := e.describe(ctx, runID)
	if err != nil {
		return err
	}
	if toRunStatus(info.Status) == workflow.RunCompleted || toRunStatus(info.Status) == workflow.RunFailed || toRunStatus(info.Status) == workflow.RunCancelled {
		return errs.New(errs.Logical, "workflow/temporal", "Replay", errs.ErrNotFound)
	}
	return nil
}

// Cancel requests workflow cancellation. A not-found execution is treated
// as success per spec.md §4.1.
func (e *Engine) Cancel(ctx context.Context, runID string) error {
	err := e.client.CancelWorkflow(ctx, runID, "")
	if err == nil {
		return nil
	}
	var notFound *client.WorkflowExecutionError
	if errors.As(err, &notFound) {
		return nil
	}
	return errs.New(errs.Transient, "workflow/temporal", "Cancel", err)
}

// GetRun reports the execution's status plus, for a running execution,
// the DAG shape and task summaries fetched via the StatusQuery handler.
func (e *Engine) GetRun(ctx context.Context, runID string) (workflow.RunInfo, error) {
	desc, err := e.describe(ctx, runID)
	if err != nil {
		return workflow.RunInfo{}, err
	}

	info := workflow.RunInfo{
		RunID:  runID,
		Status: toRunStatus(desc.Status),
	}

	resp, err := e.client.QueryWorkflow(ctx, runID, "", StatusQuery)
	if err != nil {
		// A workflow that has not yet registered the handler, or that has
		// already completed and dropped its in-memory state, reports an
		// empty projection rather than an error.
		return info, nil
	}
	var result statusQueryResult
	if err := resp.Get(&result); err != nil {
		return info, nil
	}
	info.Shape = result.Shape
	info.Tasks = result.Tasks
	return info, nil
}

func (e *Engine) describe(ctx context.Context, runID string) (struct{ Status string }, error) {
	resp, err := e.client.DescribeWorkflowExecution(ctx, runID, "")
	if err != nil {
		var notFound *client.WorkflowExecutionError
		if errors.As(err, &notFound) {
			return struct{ Status string }{}, workflow.ErrUnknownRun
		}
		return struct{ Status string }{}, errs.New(errs.Transient, "workflow/temporal", "GetRun", err)
	}
	return struct{ Status string }{Status: resp.WorkflowExecutionInfo.GetStatus().String()}, nil
}

// toRunStatus maps Temporal's WorkflowExecutionStatus string form to
// pkg/workflow.RunStatus.
func toRunStatus(s string) workflow.RunStatus {
	switch s {
	case "Running", "WORKFLOW_EXECUTION_STATUS_RUNNING":
		return workflow.RunRunning
	case "Completed", "WORKFLOW_EXECUTION_STATUS_COMPLETED":
		return workflow.RunCompleted
	case "Failed", "WORKFLOW_EXECUTION_STATUS_FAILED", "Terminated", "WORKFLOW_EXECUTION_STATUS_TERMINATED", "TimedOut", "WORKFLOW_EXECUTION_STATUS_TIMED_OUT":
		return workflow.RunFailed
	case "Canceled", "WORKFLOW_EXECUTION_STATUS_CANCELED":
		return workflow.RunCancelled
	default:
		return workflow.RunQueued
	}
}
