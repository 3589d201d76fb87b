// Package reconcile links externally-discovered recordings (by webhook or
// periodic poll — both out of scope; this package only consumes what they
// report) to the Meeting they belong to, producing at most one processing
// dispatch per recording. It generalizes the teacher's pkg/queue/pool.go +
// pkg/queue/orphan.go idempotent-scan shape from worker-session liveness
// to recording-to-meeting matching.
package reconcile

import (
	"context"
	"time"

	"github.com/reflector-core/reflector/pkg/errs"
	"github.com/reflector-core/reflector/pkg/metrics"
)

// DiscoveredRecording is what a webhook handler or poller reports about a
// recording it found on the external platform. Producing this value is
// out of scope (external collaborator); this package starts from it.
type DiscoveredRecording struct {
	RecordingID string
	BucketName  string
	ObjectKey   string
	TrackKeys   []string // empty => single-file recording
	RecordedAt  time.Time
	RoomName    string
	Multitrack  bool
}

// Validate checks the input-validation rules in spec.md §4.3: empty
// track_keys with multitrack intent is a hard error, and non-empty
// track_keys requires a bucket name.
func (d DiscoveredRecording) Validate() error {
	if d.Multitrack && len(d.TrackKeys) == 0 {
		return errs.New(errs.Validation, "reconcile", "Validate", errInvalidMultitrack)
	}
	if len(d.TrackKeys) > 0 && d.BucketName == "" {
		return errs.New(errs.Validation, "reconcile", "Validate", errMissingBucket)
	}
	return nil
}

// DispatchResult is the outcome of reconciling one discovered recording.
type DispatchResult struct {
	RecordingID string
	MeetingID   string // empty if orphaned
	Dispatched  bool   // false if another dispatcher already won the race
	Orphaned    bool
}

// Reconciler ties a Store to the matching protocol. One instance is
// shared by the webhook handler and the periodic poller.
type Reconciler struct {
	store Store
}

// NewReconciler constructs a Reconciler over store.
func NewReconciler(store Store) *Reconciler {
	return &Reconciler{store: store}
}

// Reconcile implements the full matching protocol of spec.md §4.3:
// exact RecordingRequest match, else time-window match, else orphan.
// The recording row itself is the canonical dedup lock — concurrent
// reconcilers racing on the same discovered recording see exactly one
// winner via TryCreateWithMeeting's UNIQUE-key semantics.
func (r *Reconciler) Reconcile(ctx context.Context, d DiscoveredRecording) (DispatchResult, error) {
	if err := d.Validate(); err != nil {
		return DispatchResult{}, err
	}

	meetingID, err := r.store.FindRequestMeeting(ctx, d.RecordingID)
	if err != nil {
		return DispatchResult{}, err
	}

	matchKind := "exact"
	if meetingID == "" {
		matchKind = "time_window"
		meetingID, err = r.store.FindMeetingByTimeWindow(ctx, d.RoomName, d.RecordedAt, timeWindow)
		if err != nil {
			return DispatchResult{}, err
		}
	}

	if meetingID == "" {
		if err := r.store.CreateOrphan(ctx, d.RecordingID, d.BucketName, d.ObjectKey, d.TrackKeys, d.RecordedAt); err != nil {
			return DispatchResult{}, err
		}
		metrics.ReconcileMatchesTotal.WithLabelValues("orphan").Inc()
		return DispatchResult{RecordingID: d.RecordingID, Orphaned: true}, nil
	}

	won, err := r.store.TryCreateWithMeeting(ctx, d.RecordingID, meetingID, d.BucketName, d.ObjectKey, d.TrackKeys, d.RecordedAt)
	if err != nil {
		return DispatchResult{}, err
	}
	metrics.ReconcileMatchesTotal.WithLabelValues(matchKind).Inc()

	return DispatchResult{
		RecordingID: d.RecordingID,
		MeetingID:   meetingID,
		Dispatched:  won,
	}, nil
}

// timeWindow is the ±168h (one week) match window from spec.md §4.3.
const timeWindow = 168 * time.Hour
