package workflow

import (
	"context"
	"errors"
	"testing"
)

type fakeStore struct {
	transcripts map[string]TranscriptView
	recordings  map[string]RecordingView
	legacy      map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		transcripts: make(map[string]TranscriptView),
		recordings:  make(map[string]RecordingView),
		legacy:      make(map[string]bool),
	}
}

func (s *fakeStore) GetTranscript(ctx context.Context, id string) (TranscriptView, error) {
	t, ok := s.transcripts[id]
	if !ok {
		return TranscriptView{}, errors.New("not found")
	}
	return t, nil
}

func (s *fakeStore) GetRecording(ctx context.Context, id string) (RecordingView, error) {
	r, ok := s.recordings[id]
	if !ok {
		return RecordingView{}, errors.New("not found")
	}
	return r, nil
}

func (s *fakeStore) LegacyQueueTaskScheduled(ctx context.Context, transcriptID string) (bool, error) {
	return s.legacy[transcriptID], nil
}

func (s *fakeStore) SetWorkflowRunID(ctx context.Context, transcriptID, runID string) error {
	t := s.transcripts[transcriptID]
	t.WorkflowRunID = runID
	s.transcripts[transcriptID] = t
	return nil
}

func (s *fakeStore) ClearWorkflowRunID(ctx context.Context, transcriptID string) error {
	t := s.transcripts[transcriptID]
	t.WorkflowRunID = ""
	s.transcripts[transcriptID] = t
	return nil
}

type fakeEngine struct {
	runs      map[string]RunInfo
	started   []string
	replayed  []string
	cancelled []string
	nextID    int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{runs: make(map[string]RunInfo)}
}

func (e *fakeEngine) Start(ctx context.Context, externalKey string, input Input) (string, error) {
	e.nextID++
	id := externalKey + "-run"
	e.started = append(e.started, externalKey)
	e.runs[id] = RunInfo{RunID: id, Status: RunRunning}
	return id, nil
}

func (e *fakeEngine) Replay(ctx context.Context, runID string) error {
	e.replayed = append(e.replayed, runID)
	return nil
}

func (e *fakeEngine) Cancel(ctx context.Context, runID string) error {
	e.cancelled = append(e.cancelled, runID)
	delete(e.runs, runID)
	return nil
}

func (e *fakeEngine) GetRun(ctx context.Context, runID string) (RunInfo, error) {
	r, ok := e.runs[runID]
	if !ok {
		return RunInfo{}, ErrUnknownRun
	}
	return r, nil
}

func TestValidateNotReady(t *testing.T) {
	store := newFakeStore()
	store.transcripts["t1"] = TranscriptView{ID: "t1", Status: "idle"}
	a := NewAdapter(newFakeEngine(), store)

	got, err := a.Validate(context.Background(), "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ValidateNotReady {
		t.Errorf("expected NotReady, got %v", got)
	}
}

func TestValidateLocked(t *testing.T) {
	store := newFakeStore()
	store.transcripts["t1"] = TranscriptView{ID: "t1", Status: "uploaded", Locked: true}
	a := NewAdapter(newFakeEngine(), store)

	got, _ := a.Validate(context.Background(), "t1")
	if got != ValidateLocked {
		t.Errorf("expected Locked, got %v", got)
	}
}

func TestValidateAlreadyScheduledWhenRunActive(t *testing.T) {
	store := newFakeStore()
	store.transcripts["t1"] = TranscriptView{ID: "t1", Status: "processing", WorkflowRunID: "run-1"}
	engine := newFakeEngine()
	engine.runs["run-1"] = RunInfo{RunID: "run-1", Status: RunRunning}
	a := NewAdapter(engine, store)

	got, _ := a.Validate(context.Background(), "t1")
	if got != ValidateAlreadyScheduled {
		t.Errorf("expected AlreadyScheduled, got %v", got)
	}
}

func TestValidateAllowsUnknownEngineRun(t *testing.T) {
	store := newFakeStore()
	store.transcripts["t1"] = TranscriptView{ID: "t1", Status: "error", WorkflowRunID: "stale-run"}
	a := NewAdapter(newFakeEngine(), store)

	got, err := a.Validate(context.Background(), "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ValidateOk {
		t.Errorf("expected Ok when engine lookup fails, got %v", got)
	}
}

func TestPrepareMultitrackRequiresBucket(t *testing.T) {
	store := newFakeStore()
	store.transcripts["t1"] = TranscriptView{ID: "t1", RecordingID: "r1"}
	store.recordings["r1"] = RecordingView{ID: "r1", TrackKeys: []string{"a", "b"}, TrackKeysSet: true}
	a := NewAdapter(newFakeEngine(), store)

	_, err := a.Prepare(context.Background(), "t1")
	if err == nil {
		t.Fatal("expected error for missing bucket name")
	}
}

func TestPrepareEmptyTrackKeysIsError(t *testing.T) {
	store := newFakeStore()
	store.transcripts["t1"] = TranscriptView{ID: "t1", RecordingID: "r1"}
	store.recordings["r1"] = RecordingView{ID: "r1", BucketName: "b", TrackKeys: []string{}, TrackKeysSet: true}
	a := NewAdapter(newFakeEngine(), store)

	_, err := a.Prepare(context.Background(), "t1")
	if err == nil {
		t.Fatal("expected error for empty-but-non-null track_keys")
	}
}

func TestPrepareSelectsMultitrack(t *testing.T) {
	store := newFakeStore()
	store.transcripts["t1"] = TranscriptView{ID: "t1", RecordingID: "r1"}
	store.recordings["r1"] = RecordingView{ID: "r1", BucketName: "b", TrackKeys: []string{"a", "b", "c"}, TrackKeysSet: true}
	a := NewAdapter(newFakeEngine(), store)

	result, err := a.Prepare(context.Background(), "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Kind != KindMultitrack {
		t.Fatalf("expected multitrack, got %v", result.Kind)
	}
	if len(result.Multitrack.TrackKeys) != 3 {
		t.Errorf("expected 3 track keys, got %d", len(result.Multitrack.TrackKeys))
	}
}

func TestPrepareSelectsFile(t *testing.T) {
	store := newFakeStore()
	store.transcripts["t1"] = TranscriptView{ID: "t1", RecordingID: "r1"}
	store.recordings["r1"] = RecordingView{ID: "r1", BucketName: "b", ObjectKey: "single.webm"}
	a := NewAdapter(newFakeEngine(), store)

	result, err := a.Prepare(context.Background(), "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Kind != KindFile {
		t.Fatalf("expected file, got %v", result.Kind)
	}
}

func TestDispatchReplaysReplayableRun(t *testing.T) {
	store := newFakeStore()
	store.transcripts["t1"] = TranscriptView{ID: "t1", WorkflowRunID: "run-1"}
	engine := newFakeEngine()
	engine.runs["run-1"] = RunInfo{RunID: "run-1", Status: RunQueued}
	a := NewAdapter(engine, store)

	cfg := PrepareResult{Kind: KindFile, File: &FileConfig{TranscriptID: "t1"}}
	got, err := a.Dispatch(context.Background(), cfg, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != DispatchOk {
		t.Errorf("expected Ok, got %v", got)
	}
	if len(engine.replayed) != 1 || engine.replayed[0] != "run-1" {
		t.Errorf("expected replay of run-1, got %v", engine.replayed)
	}
}

func TestDispatchStartsFreshWhenRunTerminal(t *testing.T) {
	store := newFakeStore()
	store.transcripts["t1"] = TranscriptView{ID: "t1", WorkflowRunID: "run-1"}
	engine := newFakeEngine()
	engine.runs["run-1"] = RunInfo{RunID: "run-1", Status: RunCompleted}
	a := NewAdapter(engine, store)

	cfg := PrepareResult{Kind: KindFile, File: &FileConfig{TranscriptID: "t1"}}
	got, err := a.Dispatch(context.Background(), cfg, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != DispatchOk {
		t.Errorf("expected Ok, got %v", got)
	}
	if len(engine.started) != 1 {
		t.Errorf("expected a fresh start, got %v", engine.started)
	}
}

func TestDispatchForceCancelsThenRestarts(t *testing.T) {
	store := newFakeStore()
	store.transcripts["t1"] = TranscriptView{ID: "t1", WorkflowRunID: "run-1"}
	engine := newFakeEngine()
	engine.runs["run-1"] = RunInfo{RunID: "run-1", Status: RunRunning}
	a := NewAdapter(engine, store)

	cfg := PrepareResult{Kind: KindFile, File: &FileConfig{TranscriptID: "t1"}}
	got, err := a.Dispatch(context.Background(), cfg, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != DispatchOk {
		t.Errorf("expected Ok, got %v", got)
	}
	if len(engine.cancelled) != 1 || engine.cancelled[0] != "run-1" {
		t.Errorf("expected cancel of run-1, got %v", engine.cancelled)
	}
	if len(engine.started) != 1 {
		t.Errorf("expected a fresh start after cancel, got %v", engine.started)
	}
}
