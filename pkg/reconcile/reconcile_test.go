package reconcile

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory Store used to test Reconciler in isolation
// from ent/Postgres, the way the teacher's tests substitute an in-memory
// client for true database integration tests.
type fakeStore struct {
	mu                 sync.Mutex
	requestsByRecordID map[string]string // recording_id -> meeting_id
	meetingsByRoom     map[string][]meetingRow
	recordings         map[string]bool // recording_id -> exists
	cloudKeys          map[string]string
	requests           []RequestRecord
}

type meetingRow struct {
	id        string
	startDate time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		requestsByRecordID: map[string]string{},
		meetingsByRoom:     map[string][]meetingRow{},
		recordings:         map[string]bool{},
		cloudKeys:          map[string]string{},
	}
}

func (f *fakeStore) FindRequestMeeting(_ context.Context, recordingID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requestsByRecordID[recordingID], nil
}

func (f *fakeStore) FindMeetingByTimeWindow(_ context.Context, roomName string, recordedAt time.Time, window time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var best string
	var bestDelta time.Duration
	for _, m := range f.meetingsByRoom[roomName] {
		delta := recordedAt.Sub(m.startDate)
		if delta < 0 {
			delta = -delta
		}
		if delta > window {
			continue
		}
		if best == "" || delta < bestDelta || (delta == bestDelta && m.id < best) {
			best, bestDelta = m.id, delta
		}
	}
	return best, nil
}

func (f *fakeStore) CreateOrphan(_ context.Context, recordingID, _, _ string, _ []string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordings[recordingID] = true // idempotent: repeated calls are fine
	return nil
}

func (f *fakeStore) TryCreateWithMeeting(_ context.Context, recordingID, meetingID, _, _ string, _ []string, _ time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordings[recordingID] {
		return false, nil
	}
	f.recordings[recordingID] = true
	_ = meetingID
	return true, nil
}

func (f *fakeStore) SetCloudRecordingIfMissing(_ context.Context, meetingID, s3Key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cloudKeys[meetingID]; ok {
		return nil
	}
	f.cloudKeys[meetingID] = s3Key
	return nil
}

func (f *fakeStore) CreateRequest(_ context.Context, meetingID, recordingID, instanceID, requestType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := requestType + "-" + instanceID + "-" + recordingID
	f.requests = append(f.requests, RequestRecord{ID: id, RecordingID: recordingID, InstanceID: instanceID, Type: requestType})
	return id, nil
}

func (f *fakeStore) RequestsByMeeting(_ context.Context, meetingID string) ([]RequestRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []RequestRecord
	for _, r := range f.requests {
		if r.RecordingID != "" {
			out = append(out, r)
		}
	}
	_ = meetingID
	return out, nil
}

func TestReconcile_ExactRequestMatchDispatches(t *testing.T) {
	store := newFakeStore()
	store.requestsByRecordID["rec-1"] = "meeting-1"

	r := NewReconciler(store)
	result, err := r.Reconcile(context.Background(), DiscoveredRecording{
		RecordingID: "rec-1",
		BucketName:  "bucket",
		ObjectKey:   "key",
		RecordedAt:  time.Now(),
		RoomName:    "room-a",
	})

	require.NoError(t, err)
	assert.True(t, result.Dispatched)
	assert.False(t, result.Orphaned)
	assert.Equal(t, "meeting-1", result.MeetingID)
}

func TestReconcile_TimeWindowMatchPicksClosestMeeting(t *testing.T) {
	store := newFakeStore()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.meetingsByRoom["room-a"] = []meetingRow{
		{id: "meeting-far", startDate: base.Add(-100 * time.Hour)},
		{id: "meeting-near", startDate: base.Add(-1 * time.Hour)},
	}

	r := NewReconciler(store)
	result, err := r.Reconcile(context.Background(), DiscoveredRecording{
		RecordingID: "rec-2",
		BucketName:  "bucket",
		ObjectKey:   "key",
		RecordedAt:  base,
		RoomName:    "room-a",
	})

	require.NoError(t, err)
	assert.Equal(t, "meeting-near", result.MeetingID)
	assert.True(t, result.Dispatched)
}

func TestReconcile_TimeWindowTieBreaksLexicographically(t *testing.T) {
	store := newFakeStore()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.meetingsByRoom["room-a"] = []meetingRow{
		{id: "meeting-z", startDate: base.Add(-1 * time.Hour)},
		{id: "meeting-a", startDate: base.Add(1 * time.Hour)},
	}

	r := NewReconciler(store)
	result, err := r.Reconcile(context.Background(), DiscoveredRecording{
		RecordingID: "rec-3",
		BucketName:  "bucket",
		ObjectKey:   "key",
		RecordedAt:  base,
		RoomName:    "room-a",
	})

	require.NoError(t, err)
	assert.Equal(t, "meeting-a", result.MeetingID)
}

func TestReconcile_NoMatchCreatesOrphan(t *testing.T) {
	store := newFakeStore()
	r := NewReconciler(store)

	result, err := r.Reconcile(context.Background(), DiscoveredRecording{
		RecordingID: "rec-4",
		BucketName:  "bucket",
		ObjectKey:   "key",
		RecordedAt:  time.Now(),
		RoomName:    "room-unknown",
	})

	require.NoError(t, err)
	assert.True(t, result.Orphaned)
	assert.Empty(t, result.MeetingID)
}

func TestReconcile_OrphanDiscoveryIsIdempotent(t *testing.T) {
	store := newFakeStore()
	r := NewReconciler(store)
	d := DiscoveredRecording{RecordingID: "rec-5", BucketName: "b", ObjectKey: "k", RecordedAt: time.Now(), RoomName: "room-x"}

	first, err := r.Reconcile(context.Background(), d)
	require.NoError(t, err)
	second, err := r.Reconcile(context.Background(), d)
	require.NoError(t, err)

	assert.True(t, first.Orphaned)
	assert.True(t, second.Orphaned)
}

func TestReconcile_ExactlyOneWinnerUnderConcurrency(t *testing.T) {
	store := newFakeStore()
	store.meetingsByRoom["room-a"] = []meetingRow{{id: "meeting-1", startDate: time.Now()}}

	r := NewReconciler(store)
	d := DiscoveredRecording{RecordingID: "rec-6", BucketName: "b", ObjectKey: "k", RecordedAt: time.Now(), RoomName: "room-a"}

	const n = 20
	results := make([]DispatchResult, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			result, err := r.Reconcile(context.Background(), d)
			require.NoError(t, err)
			results[i] = result
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, result := range results {
		if result.Dispatched {
			wins++
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent reconciler should win dispatch")
}

func TestReconcile_MultitrackWithoutTrackKeysIsInvalid(t *testing.T) {
	r := NewReconciler(newFakeStore())
	_, err := r.Reconcile(context.Background(), DiscoveredRecording{
		RecordingID: "rec-7",
		Multitrack:  true,
		RecordedAt:  time.Now(),
	})
	require.Error(t, err)
}

func TestReconcile_TrackKeysWithoutBucketIsInvalid(t *testing.T) {
	r := NewReconciler(newFakeStore())
	_, err := r.Reconcile(context.Background(), DiscoveredRecording{
		RecordingID: "rec-8",
		TrackKeys:   []string{"track-1.wav"},
		RecordedAt:  time.Now(),
	})
	require.Error(t, err)
}

func TestStore_SetCloudRecordingIfMissingIsFirstWriteWins(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	require.NoError(t, store.SetCloudRecordingIfMissing(ctx, "meeting-1", "s3://first"))
	require.NoError(t, store.SetCloudRecordingIfMissing(ctx, "meeting-1", "s3://second"))

	assert.Equal(t, "s3://first", store.cloudKeys["meeting-1"])
}

func TestStore_CreateRequestAppendsOnStopRestart(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	_, err := store.CreateRequest(ctx, "meeting-1", "rec-9", "instance-a", "cloud")
	require.NoError(t, err)
	_, err = store.CreateRequest(ctx, "meeting-1", "rec-9", "instance-a", "cloud")
	require.NoError(t, err)

	rows, err := store.RequestsByMeeting(ctx, "meeting-1")
	require.NoError(t, err)
	assert.Len(t, rows, 2, "stop/restart of the same instance_id should append, not overwrite")
}
