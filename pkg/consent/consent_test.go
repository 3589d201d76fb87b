package consent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConsentStore struct {
	rec          RecordingInfo
	audioDeleted bool
	getErr       error
	setErr       error
}

func (f *fakeConsentStore) GetRecordingByTranscript(context.Context, string) (RecordingInfo, error) {
	return f.rec, f.getErr
}

func (f *fakeConsentStore) SetAudioDeleted(context.Context, string) error {
	f.audioDeleted = true
	return f.setErr
}

type fakeDeleter struct {
	deleted []string
	failOn  map[string]bool
}

func (f *fakeDeleter) Delete(_ context.Context, bucket, key string) error {
	if f.failOn[key] {
		return errors.New("delete failed")
	}
	f.deleted = append(f.deleted, bucket+"/"+key)
	return nil
}

func TestDenyConsent_MultitrackAllSucceed(t *testing.T) {
	store := &fakeConsentStore{rec: RecordingInfo{
		BucketName: "bucket",
		ObjectKey:  "meeting/composed.mp4",
		TrackKeys:  []string{"meeting/track1.wav", "meeting/track2.wav"},
	}}
	deleter := &fakeDeleter{failOn: map[string]bool{}}
	svc := NewService(store, deleter)

	err := svc.DenyConsent(context.Background(), "t1")

	require.NoError(t, err)
	assert.Len(t, deleter.deleted, 2)
	assert.True(t, store.audioDeleted)
}

func TestDenyConsent_SingleFileFallsBackToObjectKey(t *testing.T) {
	store := &fakeConsentStore{rec: RecordingInfo{
		BucketName: "bucket",
		ObjectKey:  "meeting/file.mp4",
	}}
	deleter := &fakeDeleter{failOn: map[string]bool{}}
	svc := NewService(store, deleter)

	err := svc.DenyConsent(context.Background(), "t1")

	require.NoError(t, err)
	assert.Equal(t, []string{"bucket/meeting/file.mp4"}, deleter.deleted)
	assert.True(t, store.audioDeleted)
}

func TestDenyConsent_PartialFailureLeavesFlagUnset(t *testing.T) {
	store := &fakeConsentStore{rec: RecordingInfo{
		BucketName: "bucket",
		TrackKeys:  []string{"track1.wav", "track2.wav"},
	}}
	deleter := &fakeDeleter{failOn: map[string]bool{"track2.wav": true}}
	svc := NewService(store, deleter)

	err := svc.DenyConsent(context.Background(), "t1")

	require.Error(t, err)
	assert.False(t, store.audioDeleted)
}

func TestDenyConsent_GetErrorPropagates(t *testing.T) {
	store := &fakeConsentStore{getErr: errors.New("not found")}
	svc := NewService(store, &fakeDeleter{})

	err := svc.DenyConsent(context.Background(), "missing")
	require.Error(t, err)
}
