package transcript

import (
	"context"
	"testing"

	"github.com/reflector-core/reflector/ent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranscriptStore struct {
	transcripts map[string]*ent.Transcript
	nextSeq     int64
}

func newFakeTranscriptStore(status Status) *fakeTranscriptStore {
	return &fakeTranscriptStore{
		transcripts: map[string]*ent.Transcript{
			"t1": {ID: "t1", Status: status},
		},
	}
}

func (f *fakeTranscriptStore) Get(_ context.Context, id string) (*ent.Transcript, error) {
	return f.transcripts[id], nil
}

func (f *fakeTranscriptStore) Create(context.Context, string, string, SourceKind) (*ent.Transcript, error) {
	return nil, nil
}

func (f *fakeTranscriptStore) TransitionStatus(ctx context.Context, id string, to Status) (*ent.Transcript, error) {
	t := f.transcripts[id]
	if err := ValidateTransition(t.Status, to); err != nil {
		return nil, err
	}
	t.Status = to
	return t, nil
}

func (f *fakeTranscriptStore) SetWorkflowRun(context.Context, string, string) error { return nil }

func (f *fakeTranscriptStore) SetDuration(_ context.Context, id string, seconds float64) error {
	f.transcripts[id].Duration = &seconds
	return nil
}

func (f *fakeTranscriptStore) SetTitle(_ context.Context, id, title string) error {
	f.transcripts[id].Title = title
	return nil
}

func (f *fakeTranscriptStore) SetSummaries(_ context.Context, id, short, long string) error {
	f.transcripts[id].ShortSummary = short
	f.transcripts[id].LongSummary = long
	return nil
}

func (f *fakeTranscriptStore) SetWebVTT(_ context.Context, id, webvtt string) error {
	f.transcripts[id].Webvtt = webvtt
	return nil
}

func (f *fakeTranscriptStore) NextEventSequence(context.Context, string) (int64, error) {
	f.nextSeq++
	return f.nextSeq, nil
}

func (f *fakeTranscriptStore) Topics(context.Context, string) ([]*ent.Topic, error) { return nil, nil }

func (f *fakeTranscriptStore) Participants(context.Context, string) ([]*ent.TranscriptParticipant, error) {
	return nil, nil
}

type recordedEvent struct {
	transcriptID string
	seq          int64
	eventType    string
	data         map[string]any
}

type fakeRecorder struct {
	events []recordedEvent
}

func (f *fakeRecorder) RecordEvent(_ context.Context, transcriptID string, seq int64, eventType string, data map[string]any) error {
	f.events = append(f.events, recordedEvent{transcriptID, seq, eventType, data})
	return nil
}

type fakePublisher struct {
	published [][]byte
}

func (f *fakePublisher) Publish(_ context.Context, _ string, event []byte) error {
	f.published = append(f.published, event)
	return nil
}

func TestService_TransitionStatusPublishesStatusEvent(t *testing.T) {
	store := newFakeTranscriptStore(StatusIdle)
	recorder := &fakeRecorder{}
	publisher := &fakePublisher{}
	svc := NewService(store, recorder, publisher)

	_, err := svc.TransitionStatus(context.Background(), "t1", StatusUploaded)

	require.NoError(t, err)
	require.Len(t, recorder.events, 1)
	assert.Equal(t, "status", recorder.events[0].eventType)
	assert.Len(t, publisher.published, 1)
}

func TestService_TransitionStatusRejectsIllegalMove(t *testing.T) {
	store := newFakeTranscriptStore(StatusEnded)
	svc := NewService(store, &fakeRecorder{}, &fakePublisher{})

	_, err := svc.TransitionStatus(context.Background(), "t1", StatusUploaded)
	require.Error(t, err)
}

func TestService_SetSummariesPublishesBothEvents(t *testing.T) {
	store := newFakeTranscriptStore(StatusProcessing)
	recorder := &fakeRecorder{}
	svc := NewService(store, recorder, &fakePublisher{})

	require.NoError(t, svc.SetSummaries(context.Background(), "t1", "short", "long"))

	require.Len(t, recorder.events, 2)
	assert.Equal(t, "final_short_summary", recorder.events[0].eventType)
	assert.Equal(t, "final_long_summary", recorder.events[1].eventType)
}
