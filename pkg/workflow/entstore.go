package workflow

import (
	"context"

	"github.com/reflector-core/reflector/ent"
	"github.com/reflector-core/reflector/pkg/errs"
)

// entStore implements Store against the generated ent client, mirroring
// pkg/reconcile's entStore split between the Store seam and its
// production backing.
type entStore struct {
	client *ent.Client
}

// NewEntStore constructs the production Store backed by Postgres.
func NewEntStore(client *ent.Client) Store {
	return &entStore{client: client}
}

func (s *entStore) GetTranscript(ctx context.Context, transcriptID string) (TranscriptView, error) {
	t, err := s.client.Transcript.Get(ctx, transcriptID)
	if ent.IsNotFound(err) {
		return TranscriptView{}, errs.New(errs.NotFound, "workflow", "GetTranscript", err)
	}
	if err != nil {
		return TranscriptView{}, errs.New(errs.Transient, "workflow", "GetTranscript", err)
	}

	v := TranscriptView{
		ID:     t.ID,
		Status: string(t.Status),
		Locked: t.Locked,
	}
	if t.RecordingID != nil {
		v.RecordingID = *t.RecordingID
	}
	if t.WorkflowRunID != nil {
		v.WorkflowRunID = *t.WorkflowRunID
	}
	return v, nil
}

func (s *entStore) GetRecording(ctx context.Context, recordingID string) (RecordingView, error) {
	r, err := s.client.Recording.Get(ctx, recordingID)
	if ent.IsNotFound(err) {
		return RecordingView{}, errs.New(errs.NotFound, "workflow", "GetRecording", err)
	}
	if err != nil {
		return RecordingView{}, errs.New(errs.Transient, "workflow", "GetRecording", err)
	}

	return RecordingView{
		ID:           r.ID,
		BucketName:   r.BucketName,
		ObjectKey:    r.ObjectKey,
		TrackKeys:    r.TrackKeys,
		TrackKeysSet: r.TrackKeys != nil,
	}, nil
}

// LegacyQueueTaskScheduled always reports false: this rewrite has no
// external task-queue system standing in front of the workflow engine (no
// equivalent survives in the retrieved source), so the only source of an
// AlreadyScheduled verdict is the engine's own run status.
func (s *entStore) LegacyQueueTaskScheduled(ctx context.Context, transcriptID string) (bool, error) {
	return false, nil
}

func (s *entStore) SetWorkflowRunID(ctx context.Context, transcriptID, runID string) error {
	err := s.client.Transcript.UpdateOneID(transcriptID).
		SetWorkflowRunID(runID).
		Exec(ctx)
	if err != nil {
		return errs.New(errs.Transient, "workflow", "SetWorkflowRunID", err)
	}
	return nil
}

func (s *entStore) ClearWorkflowRunID(ctx context.Context, transcriptID string) error {
	err := s.client.Transcript.UpdateOneID(transcriptID).
		ClearWorkflowRunID().
		Exec(ctx)
	if err != nil {
		return errs.New(errs.Transient, "workflow", "ClearWorkflowRunID", err)
	}
	return nil
}
