package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// CalendarEvent holds the schema definition for the CalendarEvent entity.
// Normalized events sourced from an ICS feed; unique per (room_id, ics_uid);
// soft-deleted rather than hard-deleted (the ICS sync itself is out of
// scope — see SPEC_FULL.md Non-goals — but the entity shape is kept so a
// future sync implementation has somewhere to write).
type CalendarEvent struct {
	ent.Schema
}

// Fields of the CalendarEvent.
func (CalendarEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("calendar_event_id").
			Unique().
			Immutable(),
		field.String("room_id").
			Immutable(),
		field.String("ics_uid").
			Immutable(),
		field.String("title").
			Optional(),
		field.Time("start_time"),
		field.Time("end_time"),
		field.Time("deleted_at").
			Optional().
			Nillable().
			Comment("Soft delete marker"),
	}
}

// Edges of the CalendarEvent.
func (CalendarEvent) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("room", Room.Type).
			Ref("calendar_events").
			Field("room_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the CalendarEvent.
func (CalendarEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("room_id", "ics_uid").
			Unique(),
		index.Fields("deleted_at"),
	}
}
