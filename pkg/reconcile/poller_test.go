package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	recordings []DiscoveredRecording
	calls      int
}

func (s *fakeSource) ListRecent(_ context.Context, _ time.Time) ([]DiscoveredRecording, error) {
	s.calls++
	return s.recordings, nil
}

func TestPoller_ScanReconcilesAllDiscovered(t *testing.T) {
	store := newFakeStore()
	store.meetingsByRoom["room-a"] = []meetingRow{{id: "meeting-1", startDate: time.Now()}}

	source := &fakeSource{recordings: []DiscoveredRecording{
		{RecordingID: "rec-1", BucketName: "b", ObjectKey: "k", RecordedAt: time.Now(), RoomName: "room-a"},
		{RecordingID: "rec-2", BucketName: "b", ObjectKey: "k", RecordedAt: time.Now(), RoomName: "room-unknown"},
	}}

	p := NewPoller(NewReconciler(store), source, time.Hour, 24*time.Hour)
	require.NoError(t, p.scan(context.Background()))

	require.Equal(t, 1, source.calls)
	require.Equal(t, 1, p.state.dispatched)
	require.Equal(t, 1, p.state.orphaned)
}

func TestPoller_ScanWithNoRecordingsIsANoOp(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{}

	p := NewPoller(NewReconciler(store), source, time.Hour, 24*time.Hour)
	require.NoError(t, p.scan(context.Background()))
	require.False(t, p.state.lastScan.IsZero())
}
