package consent

import (
	"context"
	"time"

	"github.com/reflector-core/reflector/ent"
	"github.com/reflector-core/reflector/ent/transcript"
	"github.com/reflector-core/reflector/pkg/errs"
)

type entStore struct {
	client *ent.Client
}

// NewEntStore constructs the production Store backed by Postgres.
func NewEntStore(client *ent.Client) Store {
	return &entStore{client: client}
}

func (s *entStore) GetRecordingByTranscript(ctx context.Context, transcriptID string) (RecordingInfo, error) {
	t, err := s.client.Transcript.Get(ctx, transcriptID)
	if ent.IsNotFound(err) {
		return RecordingInfo{}, errs.New(errs.NotFound, "consent", "GetRecordingByTranscript", errs.ErrNotFound)
	}
	if err != nil {
		return RecordingInfo{}, errs.New(errs.Transient, "consent", "GetRecordingByTranscript", err)
	}
	if t.RecordingID == nil {
		return RecordingInfo{}, errs.New(errs.Logical, "consent", "GetRecordingByTranscript", errs.ErrNotFound)
	}

	rec, err := s.client.Recording.Get(ctx, *t.RecordingID)
	if ent.IsNotFound(err) {
		return RecordingInfo{}, errs.New(errs.NotFound, "consent", "GetRecordingByTranscript", errs.ErrNotFound)
	}
	if err != nil {
		return RecordingInfo{}, errs.New(errs.Transient, "consent", "GetRecordingByTranscript", err)
	}

	return RecordingInfo{
		BucketName: rec.BucketName,
		ObjectKey:  rec.ObjectKey,
		TrackKeys:  rec.TrackKeys,
	}, nil
}

func (s *entStore) SetAudioDeleted(ctx context.Context, transcriptID string) error {
	err := s.client.Transcript.UpdateOneID(transcriptID).SetAudioDeleted(true).Exec(ctx)
	if err != nil {
		return errs.New(errs.Transient, "consent", "SetAudioDeleted", err)
	}
	return nil
}

// entSweepStore is the ent-backed SweepStore used by the retention sweeper.
type entSweepStore struct {
	client *ent.Client
}

// NewEntSweepStore constructs the production SweepStore backed by Postgres.
func NewEntSweepStore(client *ent.Client) SweepStore {
	return &entSweepStore{client: client}
}

func (s *entSweepStore) StaleUnowned(ctx context.Context, cutoff time.Time) ([]SweepCandidate, error) {
	rows, err := s.client.Transcript.Query().
		Where(transcript.UserIDIsNil(), transcript.CreatedAtLT(cutoff)).
		All(ctx)
	if err != nil {
		return nil, errs.New(errs.Transient, "consent", "StaleUnowned", err)
	}

	candidates := make([]SweepCandidate, 0, len(rows))
	for _, t := range rows {
		candidates = append(candidates, SweepCandidate{
			TranscriptID: t.ID,
			MeetingID:    t.MeetingID,
			RecordingID:  t.RecordingID,
		})
	}
	return candidates, nil
}

func (s *entSweepStore) DeleteMeeting(ctx context.Context, meetingID string) error {
	err := s.client.Meeting.DeleteOneID(meetingID).Exec(ctx)
	if err != nil && !ent.IsNotFound(err) {
		return errs.New(errs.Transient, "consent", "DeleteMeeting", err)
	}
	return nil
}

func (s *entSweepStore) DeleteOrphanRecording(ctx context.Context, recordingID string) error {
	err := s.client.Recording.DeleteOneID(recordingID).Exec(ctx)
	if err != nil && !ent.IsNotFound(err) {
		return errs.New(errs.Transient, "consent", "DeleteOrphanRecording", err)
	}
	return nil
}

func (s *entSweepStore) DeleteTranscript(ctx context.Context, transcriptID string) error {
	err := s.client.Transcript.DeleteOneID(transcriptID).Exec(ctx)
	if err != nil && !ent.IsNotFound(err) {
		return errs.New(errs.Transient, "consent", "DeleteTranscript", err)
	}
	return nil
}
