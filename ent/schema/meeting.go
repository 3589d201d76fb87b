package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Meeting holds the schema definition for the Meeting entity.
// Created at room launch, deactivated by presence reconciliation, never
// destroyed directly — cascades with its owning Room.
type Meeting struct {
	ent.Schema
}

// Fields of the Meeting.
func (Meeting) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("meeting_id").
			Unique().
			Immutable(),
		field.String("room_id").
			Immutable(),
		field.String("room_name").
			Comment("Platform room name, contains a timestamp suffix"),
		field.Time("start_date"),
		field.Time("end_date").
			Optional().
			Nillable(),
		field.Int("num_clients").
			Default(0).
			Comment("Last observed client count (>= 0)"),
		field.Bool("is_active").
			Default(true),
		field.String("platform"),
		field.String("cloud_recording_s3_key").
			Optional().
			Nillable().
			Comment("Set at most once via set_cloud_recording_if_missing"),
	}
}

// Edges of the Meeting.
func (Meeting) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("room", Room.Type).
			Ref("meetings").
			Field("room_id").
			Unique().
			Required().
			Immutable(),
		edge.To("participant_sessions", ParticipantSession.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("recordings", Recording.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("recording_requests", RecordingRequest.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the Meeting.
func (Meeting) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("room_name"),
		index.Fields("is_active"),
		// Supports the time-window matcher in the recording reconciler:
		// candidates are meetings with a matching room_name ordered by
		// |start_date - recorded_at|.
		index.Fields("room_name", "start_date"),
	}
}
