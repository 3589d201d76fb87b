package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// TranscriptParticipant holds the schema definition for the
// TranscriptParticipant entity: the denormalized set of participants
// attributed to a transcript, keyed by speaker index so topic/word
// payloads can reference a participant without repeating name/user_id.
type TranscriptParticipant struct {
	ent.Schema
}

// Fields of the TranscriptParticipant.
func (TranscriptParticipant) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("transcript_participant_id").
			Unique().
			Immutable(),
		field.String("transcript_id").
			Immutable(),
		field.Int("speaker").
			Immutable().
			Comment("Index assigned by diarization; stable within one transcript"),
		field.String("name").
			Optional(),
		field.String("user_id").
			Optional().
			Nillable(),
	}
}

// Edges of the TranscriptParticipant.
func (TranscriptParticipant) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("transcript", Transcript.Type).
			Ref("participants").
			Field("transcript_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the TranscriptParticipant.
func (TranscriptParticipant) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("transcript_id", "speaker").
			Unique(),
	}
}
