package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ParticipantSession holds the schema definition for the ParticipantSession
// entity. Primary key is meeting_id:session_id; open while left_at is nil.
type ParticipantSession struct {
	ent.Schema
}

// Fields of the ParticipantSession.
func (ParticipantSession) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("participant_session_id").
			Unique().
			Immutable().
			Comment("meeting_id:session_id"),
		field.String("meeting_id").
			Immutable(),
		field.String("session_id").
			Immutable(),
		field.String("user_id").
			Optional().
			Nillable().
			Comment("Nil for anonymous participants"),
		field.String("user_name"),
		field.Time("joined_at").
			Default(time.Now).
			Immutable(),
		field.Time("left_at").
			Optional().
			Nillable(),
	}
}

// Edges of the ParticipantSession.
func (ParticipantSession) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("meeting", Meeting.Type).
			Ref("participant_sessions").
			Field("meeting_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the ParticipantSession.
func (ParticipantSession) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("meeting_id", "session_id").
			Unique(),
		index.Fields("meeting_id", "left_at"),
	}
}
