package pipeline

import (
	"go.temporal.io/sdk/activity"
	sdkworkflow "go.temporal.io/sdk/workflow"
	"go.temporal.io/sdk/worker"

	rwftemporal "github.com/reflector-core/reflector/pkg/workflow/temporal"
)

// RegisterWorker registers DiarizationPipelineWorkflow and every activity
// method activityName maps a stage to, against w. cmd/reflector-worker
// calls this once per process when pkg/workflow.Config selects the
// Temporal engine; it is the single place that must agree with
// temporal_workflow.go's activityName indirection.
func RegisterWorker(w worker.Worker, a *Activities) {
	w.RegisterWorkflowWithOptions(DiarizationPipelineWorkflow, sdkworkflow.RegisterOptions{
		Name: rwftemporal.WorkflowName,
	})

	register := func(name string, fn any) {
		w.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: activityName(name)})
	}

	register("PadTrack", a.PadTrack)
	register("TranscribeTrack", a.TranscribeTrack)
	register("MixdownTracks", a.MixdownTracks)
	register("SetDuration", a.SetDuration)
	register("TranscribeFileTrack", a.TranscribeFileTrack)
	register("SetTitle", a.SetTitle)
	register("SetSummaries", a.SetSummaries)
	register("DetectTopicChunk", a.DetectTopicChunk)
	register("Title", a.Title)
	register("Summaries", a.Summaries)
}
