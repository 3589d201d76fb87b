package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Word is an embedded value, not an entity: a single transcribed token with
// its speaker attribution and timing, as produced by the inference client.
type Word struct {
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker int     `json:"speaker"`
}

// Topic holds the schema definition for the Topic entity. Topics are an
// ordered sequence under a Transcript, produced by the LLM coordinator's
// chunk-and-title pass; sequence_number gives the stable order since topics
// can be rewritten in place during reprocessing.
type Topic struct {
	ent.Schema
}

// Fields of the Topic.
func (Topic) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("topic_id").
			Unique().
			Immutable(),
		field.String("transcript_id").
			Immutable(),
		field.Int("sequence_number").
			Immutable(),
		field.String("title"),
		field.Text("summary").
			Optional(),
		field.Float("timestamp").
			Comment("Offset in seconds from the start of the transcript"),
		field.Float("duration"),
		field.Text("transcript_text").
			Comment("Concatenated words for this topic's window"),
		field.JSON("words", []Word{}).
			Optional(),
	}
}

// Edges of the Topic.
func (Topic) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("transcript", Transcript.Type).
			Ref("topics").
			Field("transcript_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the Topic.
func (Topic) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("transcript_id", "sequence_number").
			Unique(),
	}
}
