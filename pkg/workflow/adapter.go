package workflow

import (
	"context"
	"errors"

	"github.com/reflector-core/reflector/pkg/errs"
	"github.com/reflector-core/reflector/pkg/metrics"
)

// Kind distinguishes the two DiarizationPipeline shapes Prepare can select.
type Kind string

const (
	KindFile       Kind = "file"
	KindMultitrack Kind = "multitrack"
)

// ValidateOutcome is validate's result per spec.md §4.1.
type ValidateOutcome string

const (
	ValidateOk               ValidateOutcome = "ok"
	ValidateLocked           ValidateOutcome = "locked"
	ValidateNotReady         ValidateOutcome = "not_ready"
	ValidateAlreadyScheduled ValidateOutcome = "already_scheduled"
)

// DispatchOutcome is dispatch's result per spec.md §4.1.
type DispatchOutcome string

const (
	DispatchOk             DispatchOutcome = "ok"
	DispatchAlreadyRunning DispatchOutcome = "already_running"
)

// TranscriptView is the subset of the Transcript row validate/dispatch read.
type TranscriptView struct {
	ID            string
	Status        string // idle | uploaded | recording | processing | ended | error
	Locked        bool
	RecordingID   string
	WorkflowRunID string
}

// RecordingView is the subset of the Recording row prepare reads.
// TrackKeysSet distinguishes a null track_keys column (single-file
// recording) from an explicitly empty one (a hard error per spec.md §4.1:
// "an empty-but-non-null track_keys list is an error").
type RecordingView struct {
	ID           string
	BucketName   string
	ObjectKey    string
	TrackKeys    []string
	TrackKeysSet bool
}

// FileConfig is prepare's output for a single-file recording.
type FileConfig struct {
	TranscriptID string
	BucketName   string
	ObjectKey    string
}

// MultitrackConfig is prepare's output for a multitrack recording.
type MultitrackConfig struct {
	TranscriptID string
	RecordingID  string
	BucketName   string
	TrackKeys    []string
}

// PrepareResult carries exactly one of File or Multitrack, selected by Kind.
type PrepareResult struct {
	Kind       Kind
	File       *FileConfig
	Multitrack *MultitrackConfig
}

// ExternalKey returns the idempotency key dispatch starts/replays under.
func (r PrepareResult) ExternalKey() string {
	if r.Kind == KindMultitrack {
		return r.Multitrack.TranscriptID
	}
	return r.File.TranscriptID
}

// Store is the persistence seam Adapter needs, mirroring pkg/reconcile's
// Store/entStore split so tests can substitute an in-memory fake without
// touching ent.
type Store interface {
	GetTranscript(ctx context.Context, transcriptID string) (TranscriptView, error)
	GetRecording(ctx context.Context, recordingID string) (RecordingView, error)
	LegacyQueueTaskScheduled(ctx context.Context, transcriptID string) (bool, error)
	SetWorkflowRunID(ctx context.Context, transcriptID, runID string) error
	ClearWorkflowRunID(ctx context.Context, transcriptID string) error
}

// Adapter implements the Validate -> Prepare -> Dispatch protocol of
// spec.md §4.1 in front of a pluggable Engine.
type Adapter struct {
	engine Engine
	store  Store
}

// NewAdapter constructs an Adapter.
func NewAdapter(engine Engine, store Store) *Adapter {
	return &Adapter{engine: engine, store: store}
}

// Validate implements spec.md §4.1's validate contract.
func (a *Adapter) Validate(ctx context.Context, transcriptID string) (ValidateOutcome, error) {
	t, err := a.store.GetTranscript(ctx, transcriptID)
	if err != nil {
		return "", err
	}

	if t.Locked {
		return ValidateLocked, nil
	}

	legacyScheduled, err := a.store.LegacyQueueTaskScheduled(ctx, transcriptID)
	if err != nil {
		return "", err
	}
	if legacyScheduled {
		return ValidateAlreadyScheduled, nil
	}

	if t.WorkflowRunID != "" {
		run, err := a.engine.GetRun(ctx, t.WorkflowRunID)
		switch {
		case errors.Is(err, ErrUnknownRun):
			// "If the engine lookup fails (unknown workflow), treat as allowed."
		case err != nil:
			return "", err
		case run.Status.Active():
			return ValidateAlreadyScheduled, nil
		}
	} else if t.Status == "idle" {
		return ValidateNotReady, nil
	}

	return ValidateOk, nil
}

// Prepare implements spec.md §4.1's prepare contract. It must only be
// called after a successful Validate.
func (a *Adapter) Prepare(ctx context.Context, transcriptID string) (PrepareResult, error) {
	t, err := a.store.GetTranscript(ctx, transcriptID)
	if err != nil {
		return PrepareResult{}, err
	}
	if t.RecordingID == "" {
		return PrepareResult{}, errs.New(errs.Validation, "workflow", "Prepare", &errs.ValidationError{
			Field:   "recording_id",
			Message: "transcript has no associated recording",
		})
	}

	rec, err := a.store.GetRecording(ctx, t.RecordingID)
	if err != nil {
		return PrepareResult{}, err
	}

	if rec.TrackKeysSet {
		if len(rec.TrackKeys) == 0 {
			return PrepareResult{}, errs.New(errs.Validation, "workflow", "Prepare", &errs.ValidationError{
				Field:   "track_keys",
				Message: "track_keys is present but empty",
			})
		}
		if rec.BucketName == "" {
			return PrepareResult{}, errs.New(errs.Validation, "workflow", "Prepare", &errs.ValidationError{
				Field:   "bucket_name",
				Message: "non-null track_keys requires a bucket name",
			})
		}
		return PrepareResult{
			Kind: KindMultitrack,
			Multitrack: &MultitrackConfig{
				TranscriptID: transcriptID,
				RecordingID:  rec.ID,
				BucketName:   rec.BucketName,
				TrackKeys:    rec.TrackKeys,
			},
		}, nil
	}

	return PrepareResult{
		Kind: KindFile,
		File: &FileConfig{
			TranscriptID: transcriptID,
			BucketName:   rec.BucketName,
			ObjectKey:    rec.ObjectKey,
		},
	}, nil
}

// Dispatch implements spec.md §4.1's dispatch contract: replay an existing
// replayable run, start fresh over a terminal/deleted one, or force a
// cancel-then-restart; then guards against a concurrent dispatch winning
// the race by re-reading the transcript before committing to a fresh start.
func (a *Adapter) Dispatch(ctx context.Context, cfg PrepareResult, force bool) (outcome DispatchOutcome, err error) {
	defer func() {
		label := string(outcome)
		if err != nil {
			label = "error"
		}
		metrics.DispatchOutcomesTotal.WithLabelValues(label).Inc()
	}()

	transcriptID := cfg.ExternalKey()

	t, err := a.store.GetTranscript(ctx, transcriptID)
	if err != nil {
		return "", err
	}

	if t.WorkflowRunID != "" {
		run, err := a.engine.GetRun(ctx, t.WorkflowRunID)
		known := !errors.Is(err, ErrUnknownRun)
		if err != nil && known {
			return "", err
		}

		if known {
			if force {
				if err := a.engine.Cancel(ctx, t.WorkflowRunID); err != nil {
					return "", err
				}
				if err := a.store.ClearWorkflowRunID(ctx, transcriptID); err != nil {
					return "", err
				}
			} else if run.IsReplayable() {
				if err := a.engine.Replay(ctx, t.WorkflowRunID); err != nil {
					return "", err
				}
				return DispatchOk, nil
			} else {
				// Terminal or deleted: clear it and fall through to a fresh start.
				if err := a.store.ClearWorkflowRunID(ctx, transcriptID); err != nil {
					return "", err
				}
			}
		}
	}

	// Re-read before committing to a fresh start: a concurrent dispatch may
	// have already attached a run id and started it.
	t, err = a.store.GetTranscript(ctx, transcriptID)
	if err != nil {
		return "", err
	}
	if t.WorkflowRunID != "" {
		run, err := a.engine.GetRun(ctx, t.WorkflowRunID)
		if err == nil && run.Status.Active() {
			return DispatchAlreadyRunning, nil
		}
		if err != nil && !errors.Is(err, ErrUnknownRun) {
			return "", err
		}
	}

	runID, err := a.engine.Start(ctx, transcriptID, cfg)
	if err != nil {
		return "", err
	}
	if err := a.store.SetWorkflowRunID(ctx, transcriptID, runID); err != nil {
		return "", err
	}
	return DispatchOk, nil
}
