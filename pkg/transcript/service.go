package transcript

import (
	"context"
	"encoding/json"

	"github.com/reflector-core/reflector/ent"
	"github.com/reflector-core/reflector/pkg/broadcast"
	"github.com/reflector-core/reflector/pkg/errs"
)

// Publisher is the subset of *broadcast.Manager the Service needs,
// narrowed for testability.
type Publisher interface {
	Publish(ctx context.Context, transcriptID string, event []byte) error
}

// EventRecorder persists one entry in the transcript's append-only event
// log at the given sequence number.
type EventRecorder interface {
	RecordEvent(ctx context.Context, transcriptID string, sequenceNumber int64, eventType string, data map[string]any) error
}

// Service wires Store's status machine and field writers to the event
// broadcaster: every mutation persists an ordered TranscriptEvent row and
// fans it out over the transcript's room, generalizing the teacher's
// session_service.go + events.Manager pairing.
type Service struct {
	store     Store
	events    EventRecorder
	publisher Publisher
}

// NewService constructs a Service.
func NewService(store Store, events EventRecorder, publisher Publisher) *Service {
	return &Service{store: store, events: events, publisher: publisher}
}

// TransitionStatus moves a transcript's status and publishes a STATUS
// event, per spec.md §4.6 ("every status change publishes a STATUS event
// and persists it in the transcript's event list").
func (svc *Service) TransitionStatus(ctx context.Context, id string, to Status) (*ent.Transcript, error) {
	t, err := svc.store.TransitionStatus(ctx, id, to)
	if err != nil {
		return nil, err
	}

	if err := svc.publish(ctx, id, broadcast.EventStatus, map[string]any{"status": string(to)}); err != nil {
		return t, err
	}
	return t, nil
}

// SetTitle sets the final title and publishes FINAL_TITLE.
func (svc *Service) SetTitle(ctx context.Context, id, title string) error {
	if err := svc.store.SetTitle(ctx, id, title); err != nil {
		return err
	}
	return svc.publish(ctx, id, broadcast.EventFinalTitle, map[string]any{"title": title})
}

// SetSummaries sets the short/long summaries and publishes both
// FINAL_SHORT_SUMMARY and FINAL_LONG_SUMMARY.
func (svc *Service) SetSummaries(ctx context.Context, id, short, long string) error {
	if err := svc.store.SetSummaries(ctx, id, short, long); err != nil {
		return err
	}
	if err := svc.publish(ctx, id, broadcast.EventFinalShortSummary, map[string]any{"short_summary": short}); err != nil {
		return err
	}
	return svc.publish(ctx, id, broadcast.EventFinalLongSummary, map[string]any{"long_summary": long})
}

// SetDuration sets duration and publishes DURATION.
func (svc *Service) SetDuration(ctx context.Context, id string, seconds float64) error {
	if err := svc.store.SetDuration(ctx, id, seconds); err != nil {
		return err
	}
	return svc.publish(ctx, id, broadcast.EventDuration, map[string]any{"duration": seconds})
}

// publish assigns the next sequence number, persists the event row, and
// fans it out through the broadcaster. If persistence fails the event is
// never published, keeping the event log and the wire stream consistent.
func (svc *Service) publish(ctx context.Context, transcriptID, eventType string, data map[string]any) error {
	seq, err := svc.store.NextEventSequence(ctx, transcriptID)
	if err != nil {
		return err
	}
	if err := svc.events.RecordEvent(ctx, transcriptID, seq, eventType, data); err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]any{
		"type":            eventType,
		"sequence_number": seq,
		"data":            data,
	})
	if err != nil {
		return errs.New(errs.Logical, "transcript", "publish", err)
	}
	return svc.publisher.Publish(ctx, transcriptID, payload)
}
