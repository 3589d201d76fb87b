package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Recording holds the schema definition for the Recording entity.
// status=orphan iff meeting_id IS NULL (enforced in the reconciler, not the DB).
type Recording struct {
	ent.Schema
}

// Fields of the Recording.
func (Recording) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("recording_id").
			Unique().
			Immutable().
			Comment("External platform id when known, else a generated id"),
		field.String("bucket_name"),
		field.String("object_key").
			Comment("Folder key for multitrack, file key for single-file recordings"),
		field.JSON("track_keys", []string{}).
			Optional().
			Comment("Ordered object keys, one per track; empty/absent for single-file recordings"),
		field.Time("recorded_at"),
		field.String("meeting_id").
			Optional().
			Nillable().
			Comment("Null => orphan"),
		field.Enum("status").
			Values("pending", "orphan", "completed").
			Default("pending"),
	}
}

// Edges of the Recording.
func (Recording) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("meeting", Meeting.Type).
			Ref("recordings").
			Field("meeting_id").
			Unique(),
	}
}

// Indexes of the Recording.
func (Recording) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("status"),
		index.Fields("meeting_id"),
		// try_create_with_meeting races on this pair: the loser of a
		// concurrent insert must get a unique-violation, not a silent
		// duplicate row.
		index.Fields("meeting_id", "id").
			Unique(),
	}
}
