package transcript

import (
	"context"

	"github.com/google/uuid"
	"github.com/reflector-core/reflector/ent"
	"github.com/reflector-core/reflector/ent/topic"
	"github.com/reflector-core/reflector/ent/transcriptevent"
	enttranscript "github.com/reflector-core/reflector/ent/transcript"
	"github.com/reflector-core/reflector/ent/transcriptparticipant"
	"github.com/reflector-core/reflector/pkg/errs"
)

// EventRecord is one row of a transcript's append-only event log, returned
// by GetEventsSince. It mirrors pkg/broadcast.CatchupEvent's shape without
// this package importing pkg/broadcast — cmd/reflector-worker adapts
// between the two when wiring the broadcaster's CatchupQuerier.
type EventRecord struct {
	SequenceNumber int64
	EventType      string
	Data           map[string]any
}

// Store is the persistence seam for the Transcript aggregate.
type Store interface {
	Get(ctx context.Context, id string) (*ent.Transcript, error)
	Create(ctx context.Context, id, name string, sourceKind SourceKind) (*ent.Transcript, error)
	TransitionStatus(ctx context.Context, id string, to Status) (*ent.Transcript, error)
	SetWorkflowRun(ctx context.Context, id, workflowRunID string) error
	SetDuration(ctx context.Context, id string, seconds float64) error
	SetTitle(ctx context.Context, id, title string) error
	SetSummaries(ctx context.Context, id, short, long string) error
	SetWebVTT(ctx context.Context, id, webvtt string) error
	NextEventSequence(ctx context.Context, transcriptID string) (int64, error)
	GetEventsSince(ctx context.Context, transcriptID string, sinceSeq int64, limit int) ([]EventRecord, error)
	Topics(ctx context.Context, transcriptID string) ([]*ent.Topic, error)
	Participants(ctx context.Context, transcriptID string) ([]*ent.TranscriptParticipant, error)
}

type entStore struct {
	client *ent.Client
}

// NewEntStore constructs the production Store backed by Postgres.
func NewEntStore(client *ent.Client) Store {
	return &entStore{client: client}
}

func (s *entStore) Get(ctx context.Context, id string) (*ent.Transcript, error) {
	t, err := s.client.Transcript.Get(ctx, id)
	if ent.IsNotFound(err) {
		return nil, errs.New(errs.NotFound, "transcript", "Get", errs.ErrNotFound)
	}
	if err != nil {
		return nil, errs.New(errs.Transient, "transcript", "Get", err)
	}
	return t, nil
}

func (s *entStore) Create(ctx context.Context, id, name string, sourceKind SourceKind) (*ent.Transcript, error) {
	t, err := s.client.Transcript.Create().
		SetID(id).
		SetName(name).
		SetSourceKind(sourceKind).
		SetStatus(enttranscript.StatusIdle).
		Save(ctx)
	if err != nil {
		return nil, errs.New(errs.Transient, "transcript", "Create", err)
	}
	return t, nil
}

// TransitionStatus enforces the status machine atomically: the UPDATE's
// WHERE clause pins the expected prior status, so a concurrent transition
// away from `from` loses the race rather than silently overwriting it.
func (s *entStore) TransitionStatus(ctx context.Context, id string, to Status) (*ent.Transcript, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := ValidateTransition(current.Status, to); err != nil {
		return nil, err
	}

	update := s.client.Transcript.UpdateOneID(id).
		Where(enttranscript.StatusEQ(current.Status)).
		SetStatus(to)
	if IsReprocess(current.Status, to) {
		update = update.ClearWorkflowRunID()
	}

	updated, err := update.Save(ctx)
	if ent.IsNotFound(err) {
		return nil, errs.New(errs.Logical, "transcript", "TransitionStatus", errs.ErrConcurrentModified)
	}
	if err != nil {
		return nil, errs.New(errs.Transient, "transcript", "TransitionStatus", err)
	}
	return updated, nil
}

func (s *entStore) SetWorkflowRun(ctx context.Context, id, workflowRunID string) error {
	err := s.client.Transcript.UpdateOneID(id).SetWorkflowRunID(workflowRunID).Exec(ctx)
	if err != nil {
		return errs.New(errs.Transient, "transcript", "SetWorkflowRun", err)
	}
	return nil
}

func (s *entStore) SetDuration(ctx context.Context, id string, seconds float64) error {
	err := s.client.Transcript.UpdateOneID(id).SetDuration(seconds).Exec(ctx)
	if err != nil {
		return errs.New(errs.Transient, "transcript", "SetDuration", err)
	}
	return nil
}

func (s *entStore) SetTitle(ctx context.Context, id, title string) error {
	err := s.client.Transcript.UpdateOneID(id).SetTitle(title).Exec(ctx)
	if err != nil {
		return errs.New(errs.Transient, "transcript", "SetTitle", err)
	}
	return nil
}

func (s *entStore) SetSummaries(ctx context.Context, id, short, long string) error {
	err := s.client.Transcript.UpdateOneID(id).
		SetShortSummary(short).
		SetLongSummary(long).
		Exec(ctx)
	if err != nil {
		return errs.New(errs.Transient, "transcript", "SetSummaries", err)
	}
	return nil
}

func (s *entStore) SetWebVTT(ctx context.Context, id, webvtt string) error {
	err := s.client.Transcript.UpdateOneID(id).SetWebvtt(webvtt).Exec(ctx)
	if err != nil {
		return errs.New(errs.Transient, "transcript", "SetWebVTT", err)
	}
	return nil
}

// NextEventSequence assigns the next monotonic sequence_number for a
// transcript's append-only event log, mirroring the teacher's
// timeline_service.go sequencing under a transaction to avoid gaps or
// collisions between concurrently-publishing pipeline stages.
func (s *entStore) NextEventSequence(ctx context.Context, transcriptID string) (int64, error) {
	tx, err := s.client.Tx(ctx)
	if err != nil {
		return 0, errs.New(errs.Transient, "transcript", "NextEventSequence", err)
	}
	defer func() { _ = tx.Rollback() }()

	count, err := tx.TranscriptEvent.Query().
		Where(transcriptevent.TranscriptIDEQ(transcriptID)).
		Count(ctx)
	if err != nil {
		return 0, errs.New(errs.Transient, "transcript", "NextEventSequence", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, errs.New(errs.Transient, "transcript", "NextEventSequence", err)
	}
	return int64(count) + 1, nil
}

// RecordEvent inserts one row in the append-only event log, satisfying
// transcript.EventRecorder.
func (s *entStore) RecordEvent(ctx context.Context, transcriptID string, sequenceNumber int64, eventType string, data map[string]any) error {
	err := s.client.TranscriptEvent.Create().
		SetID(uuid.New().String()).
		SetTranscriptID(transcriptID).
		SetSequenceNumber(sequenceNumber).
		SetEventType(transcriptevent.EventType(eventType)).
		SetData(data).
		Exec(ctx)
	if err != nil {
		return errs.New(errs.Transient, "transcript", "RecordEvent", err)
	}
	return nil
}

// GetEventsSince loads a transcript's persisted events with sequence
// number greater than sinceSeq, in insertion order, capped at limit —
// the historical-replay half of spec.md §4.5's broadcaster contract.
func (s *entStore) GetEventsSince(ctx context.Context, transcriptID string, sinceSeq int64, limit int) ([]EventRecord, error) {
	events, err := s.client.TranscriptEvent.Query().
		Where(
			transcriptevent.TranscriptIDEQ(transcriptID),
			transcriptevent.SequenceNumberGT(sinceSeq),
		).
		Order(ent.Asc(transcriptevent.FieldSequenceNumber)).
		Limit(limit).
		All(ctx)
	if err != nil {
		return nil, errs.New(errs.Transient, "transcript", "GetEventsSince", err)
	}

	out := make([]EventRecord, len(events))
	for i, e := range events {
		out[i] = EventRecord{
			SequenceNumber: e.SequenceNumber,
			EventType:      string(e.EventType),
			Data:           e.Data,
		}
	}
	return out, nil
}

func (s *entStore) Topics(ctx context.Context, transcriptID string) ([]*ent.Topic, error) {
	topics, err := s.client.Topic.Query().
		Where(topic.TranscriptIDEQ(transcriptID)).
		Order(ent.Asc(topic.FieldSequenceNumber)).
		All(ctx)
	if err != nil {
		return nil, errs.New(errs.Transient, "transcript", "Topics", err)
	}
	return topics, nil
}

func (s *entStore) Participants(ctx context.Context, transcriptID string) ([]*ent.TranscriptParticipant, error) {
	participants, err := s.client.TranscriptParticipant.Query().
		Where(transcriptparticipant.TranscriptIDEQ(transcriptID)).
		All(ctx)
	if err != nil {
		return nil, errs.New(errs.Transient, "transcript", "Participants", err)
	}
	return participants, nil
}
