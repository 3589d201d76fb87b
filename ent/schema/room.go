package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Room holds the schema definition for the Room entity.
// A Room is an addressable conference identity that hosts Meetings over time.
type Room struct {
	ent.Schema
}

// Fields of the Room.
func (Room) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("room_id").
			Unique().
			Immutable(),
		field.String("name").
			Unique().
			Comment("Platform-visible room identifier"),
		field.String("user_id").
			Optional().
			Nillable(),
		field.String("platform").
			Comment("Video platform tag, e.g. 'daily', 'jitsi'"),
		field.Enum("recording_type").
			Values("none", "cloud", "local", "raw-tracks").
			Default("none"),
		field.String("recording_trigger").
			Optional().
			Nillable().
			Comment("e.g. 'automatic-2nd-participant', 'manual'"),
		field.Bool("is_shared").
			Default(false),
		field.JSON("webhook_config", map[string]interface{}{}).
			Optional(),
		field.String("ics_url").
			Optional().
			Nillable(),
	}
}

// Edges of the Room.
func (Room) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("meetings", Meeting.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("calendar_events", CalendarEvent.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the Room.
func (Room) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id"),
	}
}
