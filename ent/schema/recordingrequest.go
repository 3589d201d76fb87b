package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// RecordingRequest holds the schema definition for the RecordingRequest entity.
// Multiple rows per instance_id are legal: each stop/start of the same
// recording session appends a new row rather than mutating an old one.
type RecordingRequest struct {
	ent.Schema
}

// Fields of the RecordingRequest.
func (RecordingRequest) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("request_id").
			Unique().
			Immutable(),
		field.String("recording_id").
			Comment("External recording id this request expects to match"),
		field.String("meeting_id").
			Immutable(),
		field.String("instance_id").
			Comment("Groups stop/restart requests belonging to the same session"),
		field.Enum("type").
			Values("cloud", "raw-tracks"),
		field.Time("requested_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the RecordingRequest.
func (RecordingRequest) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("meeting", Meeting.Type).
			Ref("recording_requests").
			Field("meeting_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the RecordingRequest.
func (RecordingRequest) Indexes() []ent.Index {
	return []ent.Index{
		// recording_id is the primary lookup for exact-match reconciliation.
		// Not unique: a recording_id collision across requests should never
		// happen in practice, but the matcher always takes the first match
		// rather than assuming uniqueness at the DB level.
		index.Fields("recording_id"),
		index.Fields("meeting_id"),
		index.Fields("instance_id"),
	}
}
