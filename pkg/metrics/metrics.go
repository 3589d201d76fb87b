// Package metrics registers the Prometheus collectors cmd/reflector-worker
// exposes on /metrics, grounded on LumenPrima-tr-engine's
// internal/metrics/metrics.go (namespaced counters/histograms registered
// once at init, a duration histogram per unit of work). Namespaced to this
// domain's units of work instead of the teacher's HTTP-request middleware,
// since this repository's Non-goals exclude an HTTP/REST surface: pipeline
// stages, dispatch decisions, reconciliation outcomes, and broadcast fanout
// are the events worth counting here.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "reflector"

var (
	// PipelineStageDuration records one DiarizationPipeline stage's wall
	// time, labeled by stage name and terminal status, per spec.md §4.2.
	PipelineStageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pipeline_stage_duration_seconds",
		Help:      "Duration of one DiarizationPipeline stage task.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14), // 100ms .. ~13m
	}, []string{"stage", "status"})

	// PipelineStagesTotal counts stage completions, labeled the same way,
	// for alerting on elevated failure rates per stage.
	PipelineStagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pipeline_stages_total",
		Help:      "Total DiarizationPipeline stage task completions.",
	}, []string{"stage", "status"})

	// DispatchOutcomesTotal counts pkg/workflow.Adapter.Dispatch outcomes,
	// per spec.md §4.1.
	DispatchOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_outcomes_total",
		Help:      "Total Workflow Engine Adapter dispatch outcomes.",
	}, []string{"outcome"})

	// ReconcileMatchesTotal counts pkg/reconcile match-protocol outcomes
	// (exact, time-window, orphan), per spec.md §4.3.
	ReconcileMatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconcile_matches_total",
		Help:      "Total recording-to-meeting reconciliation match outcomes.",
	}, []string{"match_kind"})

	// ConsentDeletionsTotal is registered for pkg/consent cleanup
	// outcomes (spec.md §4.7); no code in this repository increments it.
	ConsentDeletionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "consent_deletions_total",
		Help:      "Total consent-triggered raw-audio cleanup outcomes.",
	}, []string{"result"})

	// BroadcastEventsPublishedTotal counts pkg/broadcast.Manager.Publish
	// calls, labeled by event tag, per spec.md §4.5.
	BroadcastEventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcast_events_published_total",
		Help:      "Total TranscriptEvents published to ts:<transcript_id> rooms.",
	}, []string{"event"})

	// ActiveMeetingsGauge is registered for pkg/presence's active-meeting
	// count (spec.md §4.8); no code in this repository sets it.
	ActiveMeetingsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_meetings",
		Help:      "Current count of meetings presence reconciliation considers active.",
	})
)

func init() {
	prometheus.MustRegister(
		PipelineStageDuration,
		PipelineStagesTotal,
		DispatchOutcomesTotal,
		ReconcileMatchesTotal,
		ConsentDeletionsTotal,
		BroadcastEventsPublishedTotal,
		ActiveMeetingsGauge,
	)
}

// ObserveStage records one stage task's terminal duration and outcome.
// pkg/pipeline's in-memory runner calls it once per finished task; the
// Temporal workflow path does not call it.
func ObserveStage(stage, status string, seconds float64) {
	PipelineStageDuration.WithLabelValues(stage, status).Observe(seconds)
	PipelineStagesTotal.WithLabelValues(stage, status).Inc()
}
