package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// TranscriptEvent holds the schema definition for the TranscriptEvent
// entity: an append-only, strictly ordered log of everything that happened
// to a transcript, mirroring the teacher's timeline-event shape. Replayed
// in sequence order to newly-subscribed consumers (see pkg/broadcast), then
// streamed live as new rows are appended. Replay covers at most the first
// 200 events after the subscriber's starting sequence; when more exist the
// subscriber gets a catchup.overflow message instead of the rest, and
// DAG_STATUS rows superseded by a later snapshot of the same run are skipped.
type TranscriptEvent struct {
	ent.Schema
}

// Fields of the TranscriptEvent.
func (TranscriptEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("event_id").
			Unique().
			Immutable(),
		field.String("transcript_id").
			Immutable(),
		field.Int64("sequence_number").
			Immutable().
			Comment("Monotonic per transcript_id; assigned transactionally alongside the insert"),
		field.Enum("event_type").
			Values(
				"status",
				"transcript",
				"topic",
				"final_title",
				"final_long_summary",
				"final_short_summary",
				"waveform",
				"duration",
				"dag_status",
			).
			Immutable().
			Comment("Lowercase mirror of the wire tags in spec §4.5 (STATUS, TRANSCRIPT, TOPIC, FINAL_TITLE, FINAL_LONG_SUMMARY, FINAL_SHORT_SUMMARY, WAVEFORM, DURATION, DAG_STATUS)"),
		field.JSON("data", map[string]any{}).
			Immutable().
			Comment("Opaque payload shape specific to event_type"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the TranscriptEvent.
func (TranscriptEvent) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("transcript", Transcript.Type).
			Ref("events").
			Field("transcript_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the TranscriptEvent.
func (TranscriptEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("transcript_id", "sequence_number").
			Unique(),
	}
}
