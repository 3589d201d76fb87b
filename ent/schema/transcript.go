package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Transcript holds the schema definition for the Transcript entity — the
// root aggregate of the pipeline. Status is monotone forward except that
// reprocess resets error -> processing and clears workflow_run_id.
type Transcript struct {
	ent.Schema
}

// Fields of the Transcript.
func (Transcript) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("transcript_id").
			Unique().
			Immutable(),
		field.String("name").
			Optional(),
		field.Enum("status").
			Values("idle", "uploaded", "recording", "processing", "ended", "error").
			Default("idle"),
		field.Enum("source_kind").
			Values("live", "file", "room"),
		field.Bool("locked").
			Default(false),
		field.String("user_id").
			Optional().
			Nillable(),
		field.Enum("share_mode").
			Values("private", "public").
			Default("private"),
		field.String("room_id").
			Optional().
			Nillable(),
		field.String("meeting_id").
			Optional().
			Nillable(),
		field.String("recording_id").
			Optional().
			Nillable(),
		field.String("workflow_run_id").
			Optional().
			Nillable().
			Comment("Weak reference; the workflow engine is the source of truth for status"),
		field.Float("duration").
			Optional().
			Nillable().
			Comment("Seconds"),
		field.String("title").
			Optional(),
		field.Text("short_summary").
			Optional(),
		field.Text("long_summary").
			Optional(),
		field.Enum("audio_location").
			Values("local", "s3").
			Default("s3"),
		field.Bool("audio_deleted").
			Default(false),
		field.Text("webvtt").
			Optional().
			Comment("Rendered on demand; not kept in sync automatically"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Edges of the Transcript.
func (Transcript) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("topics", Topic.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("events", TranscriptEvent.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("participants", TranscriptParticipant.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the Transcript.
func (Transcript) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("status"),
		index.Fields("user_id"),
		index.Fields("meeting_id"),
		index.Fields("recording_id"),
		index.Fields("workflow_run_id"),
		// Retention sweep predicate (§4.7): public transcripts with no owner.
		index.Fields("user_id", "created_at").
			Annotations(entsql.IndexWhere("user_id IS NULL")),
	}
}

// Annotations for PostgreSQL-specific features.
// Note: GIN indexes for full-text search over title/short_summary/
// long_summary are created via migration hooks in pkg/database/migrations.go
func (Transcript) Annotations() []schema.Annotation {
	return []schema.Annotation{}
}
