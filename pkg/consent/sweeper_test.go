package consent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

type fakeSweepStore struct {
	candidates       []SweepCandidate
	deletedMeetings  []string
	deletedOrphans   []string
	deletedTranscrip []string
}

func (f *fakeSweepStore) StaleUnowned(context.Context, time.Time) ([]SweepCandidate, error) {
	return f.candidates, nil
}

func (f *fakeSweepStore) DeleteMeeting(_ context.Context, meetingID string) error {
	f.deletedMeetings = append(f.deletedMeetings, meetingID)
	return nil
}

func (f *fakeSweepStore) DeleteOrphanRecording(_ context.Context, recordingID string) error {
	f.deletedOrphans = append(f.deletedOrphans, recordingID)
	return nil
}

func (f *fakeSweepStore) DeleteTranscript(_ context.Context, transcriptID string) error {
	f.deletedTranscrip = append(f.deletedTranscrip, transcriptID)
	return nil
}

func TestSweepOnce_MeetingBackedTranscriptDeletesMeetingThenTranscript(t *testing.T) {
	store := &fakeSweepStore{candidates: []SweepCandidate{
		{TranscriptID: "t1", MeetingID: ptr("m1")},
	}}
	sweeper := NewSweeper(store, 30, time.Hour)

	require.NoError(t, sweeper.SweepOnce(context.Background()))

	assert.Equal(t, []string{"m1"}, store.deletedMeetings)
	assert.Empty(t, store.deletedOrphans)
	assert.Equal(t, []string{"t1"}, store.deletedTranscrip)
}

func TestSweepOnce_OrphanRecordingDeletesRecordingThenTranscript(t *testing.T) {
	store := &fakeSweepStore{candidates: []SweepCandidate{
		{TranscriptID: "t2", RecordingID: ptr("r1")},
	}}
	sweeper := NewSweeper(store, 30, time.Hour)

	require.NoError(t, sweeper.SweepOnce(context.Background()))

	assert.Empty(t, store.deletedMeetings)
	assert.Equal(t, []string{"r1"}, store.deletedOrphans)
	assert.Equal(t, []string{"t2"}, store.deletedTranscrip)
}

func TestSweepOnce_NoMeetingOrRecordingStillDeletesTranscript(t *testing.T) {
	store := &fakeSweepStore{candidates: []SweepCandidate{
		{TranscriptID: "t3"},
	}}
	sweeper := NewSweeper(store, 30, time.Hour)

	require.NoError(t, sweeper.SweepOnce(context.Background()))

	assert.Empty(t, store.deletedMeetings)
	assert.Empty(t, store.deletedOrphans)
	assert.Equal(t, []string{"t3"}, store.deletedTranscrip)
}

func TestSweepOnce_NoCandidatesIsANoOp(t *testing.T) {
	store := &fakeSweepStore{}
	sweeper := NewSweeper(store, 30, time.Hour)

	require.NoError(t, sweeper.SweepOnce(context.Background()))

	assert.Empty(t, store.deletedTranscrip)
}

func TestSweeper_StartStop(t *testing.T) {
	store := &fakeSweepStore{}
	sweeper := NewSweeper(store, 30, time.Millisecond)

	sweeper.Start(context.Background())
	time.Sleep(5 * time.Millisecond)
	sweeper.Stop()
}
