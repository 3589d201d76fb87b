package reconcile

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/reflector-core/reflector/ent"
	"github.com/reflector-core/reflector/ent/meeting"
	"github.com/reflector-core/reflector/ent/recording"
	"github.com/reflector-core/reflector/ent/recordingrequest"
	"github.com/reflector-core/reflector/pkg/errs"
)

// Store is the persistence seam Reconciler needs. entStore is the only
// production implementation; tests may substitute an in-memory fake.
type Store interface {
	FindRequestMeeting(ctx context.Context, recordingID string) (meetingID string, err error)
	FindMeetingByTimeWindow(ctx context.Context, roomName string, recordedAt time.Time, window time.Duration) (meetingID string, err error)
	CreateOrphan(ctx context.Context, recordingID, bucketName, objectKey string, trackKeys []string, recordedAt time.Time) error
	TryCreateWithMeeting(ctx context.Context, recordingID, meetingID, bucketName, objectKey string, trackKeys []string, recordedAt time.Time) (won bool, err error)
	SetCloudRecordingIfMissing(ctx context.Context, meetingID, s3Key string) error
	CreateRequest(ctx context.Context, meetingID, recordingID, instanceID, requestType string) (requestID string, err error)
	RequestsByMeeting(ctx context.Context, meetingID string) ([]RequestRecord, error)
}

// RequestRecord is the public projection of a RecordingRequest row.
type RequestRecord struct {
	ID          string
	RecordingID string
	InstanceID  string
	Type        string
}

// entStore implements Store against the generated ent client.
type entStore struct {
	client *ent.Client
}

// NewEntStore constructs the production Store backed by Postgres.
func NewEntStore(client *ent.Client) Store {
	return &entStore{client: client}
}

func (s *entStore) FindRequestMeeting(ctx context.Context, recordingID string) (string, error) {
	req, err := s.client.RecordingRequest.Query().
		Where(recordingrequest.RecordingIDEQ(recordingID)).
		First(ctx)
	if ent.IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", errs.New(errs.Transient, "reconcile", "FindRequestMeeting", err)
	}
	return req.MeetingID, nil
}

// FindMeetingByTimeWindow implements spec.md §4.3 step 2: the meeting
// whose room_name matches and whose start_date is within ±window of
// recordedAt, minimizing |start_date - recordedAt|, ties broken by
// lexicographically smallest meeting_id for determinism.
func (s *entStore) FindMeetingByTimeWindow(ctx context.Context, roomName string, recordedAt time.Time, window time.Duration) (string, error) {
	candidates, err := s.client.Meeting.Query().
		Where(
			meeting.RoomNameEQ(roomName),
			meeting.StartDateGTE(recordedAt.Add(-window)),
			meeting.StartDateLTE(recordedAt.Add(window)),
		).
		All(ctx)
	if err != nil {
		return "", errs.New(errs.Transient, "reconcile", "FindMeetingByTimeWindow", err)
	}
	if len(candidates) == 0 {
		return "", nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		di := absDuration(candidates[i].StartDate.Sub(recordedAt))
		dj := absDuration(candidates[j].StartDate.Sub(recordedAt))
		if di != dj {
			return di < dj
		}
		return candidates[i].ID < candidates[j].ID
	})

	return candidates[0].ID, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// CreateOrphan is idempotent: a second discovery of the same recording_id
// is a no-op, matching spec.md §8's "Idempotent orphan" invariant. ent's
// OnConflict().DoNothing() maps directly to "second call is a no-op" over
// the recording primary key.
func (s *entStore) CreateOrphan(ctx context.Context, recordingID, bucketName, objectKey string, trackKeys []string, recordedAt time.Time) error {
	err := s.client.Recording.Create().
		SetID(recordingID).
		SetBucketName(bucketName).
		SetObjectKey(objectKey).
		SetTrackKeys(trackKeys).
		SetRecordedAt(recordedAt).
		SetStatus(recording.StatusOrphan).
		OnConflictColumns(recording.FieldID).
		DoNothing().
		Exec(ctx)
	if err != nil {
		return errs.New(errs.Transient, "reconcile", "CreateOrphan", err)
	}
	return nil
}

// TryCreateWithMeeting is atomic on the recording's UNIQUE primary key
// (and the (meeting_id, id) composite index in ent/schema/recording.go):
// exactly one of any number of concurrent callers wins, matching spec.md
// §8's "Exactly-once dispatch" invariant and the teacher's
// markSessionTimedOut transactional pattern in pkg/queue/orphan.go.
func (s *entStore) TryCreateWithMeeting(ctx context.Context, recordingID, meetingID, bucketName, objectKey string, trackKeys []string, recordedAt time.Time) (bool, error) {
	err := s.client.Recording.Create().
		SetID(recordingID).
		SetMeetingID(meetingID).
		SetBucketName(bucketName).
		SetObjectKey(objectKey).
		SetTrackKeys(trackKeys).
		SetRecordedAt(recordedAt).
		SetStatus(recording.StatusCompleted).
		Exec(ctx)
	if err == nil {
		return true, nil
	}
	if ent.IsConstraintError(err) {
		return false, nil
	}
	return false, errs.New(errs.Transient, "reconcile", "TryCreateWithMeeting", err)
}

// SetCloudRecordingIfMissing implements spec.md §4.3's "cloud_recording_s3_key
// wins once" semantics and §8's atomic-cloud-recording-write invariant: the
// conditional UPDATE only touches rows where the key is still NULL, so the
// first successful write sticks and every later call is a no-op.
func (s *entStore) SetCloudRecordingIfMissing(ctx context.Context, meetingID, s3Key string) error {
	n, err := s.client.Meeting.Update().
		Where(
			meeting.IDEQ(meetingID),
			meeting.CloudRecordingS3KeyIsNil(),
		).
		SetCloudRecordingS3Key(s3Key).
		Save(ctx)
	if err != nil {
		return errs.New(errs.Transient, "reconcile", "SetCloudRecordingIfMissing", err)
	}
	_ = n // 0 rows updated means another writer already won; not an error
	return nil
}

// CreateRequest always inserts a new row, never mutates an existing one:
// spec.md §4.3 requires stop/restart to append a request sharing the same
// instance_id rather than overwrite the prior row (scenario 3, §8).
func (s *entStore) CreateRequest(ctx context.Context, meetingID, recordingID, instanceID, requestType string) (string, error) {
	req, err := s.client.RecordingRequest.Create().
		SetID(uuid.NewString()).
		SetMeetingID(meetingID).
		SetRecordingID(recordingID).
		SetInstanceID(instanceID).
		SetType(recordingrequest.Type(requestType)).
		Save(ctx)
	if err != nil {
		return "", errs.New(errs.Transient, "reconcile", "CreateRequest", err)
	}
	return req.ID, nil
}

func (s *entStore) RequestsByMeeting(ctx context.Context, meetingID string) ([]RequestRecord, error) {
	rows, err := s.client.RecordingRequest.Query().
		Where(recordingrequest.MeetingIDEQ(meetingID)).
		All(ctx)
	if err != nil {
		return nil, errs.New(errs.Transient, "reconcile", "RequestsByMeeting", err)
	}

	out := make([]RequestRecord, len(rows))
	for i, r := range rows {
		out[i] = RequestRecord{ID: r.ID, RecordingID: r.RecordingID, InstanceID: r.InstanceID, Type: string(r.Type)}
	}
	return out, nil
}
