package transcript

import (
	"testing"

	"github.com/reflector-core/reflector/ent"
	"github.com/stretchr/testify/assert"
)

func TestSearchProjection_ConcatenatesInPriorityOrder(t *testing.T) {
	tr := &ent.Transcript{
		ID:           "t1",
		Title:        "Budget Meeting",
		ShortSummary: "Short recap",
		LongSummary:  "Long detailed recap",
	}
	topics := []*ent.Topic{
		{Title: "Q4 planning"},
		{Title: "Headcount"},
	}
	participants := []*ent.TranscriptParticipant{
		{Name: "Alice"},
		{Name: "Bob"},
	}

	doc := SearchProjection(tr, topics, participants)

	assert.Equal(t, "t1", doc.TranscriptID)
	assert.Equal(t, []string{"Q4 planning", "Headcount"}, doc.TopicTitles)
	assert.Equal(t, []string{"Alice", "Bob"}, doc.ParticipantNames)
	assert.Contains(t, doc.FullText, "Budget Meeting")
	assert.Contains(t, doc.FullText, "Short recap")
	assert.Contains(t, doc.FullText, "Q4 planning")
	assert.Contains(t, doc.FullText, "Alice")
	assert.Equal(t, "Budget Meeting Short recap Long detailed recap Q4 planning Headcount Alice Bob", doc.FullText)
}

func TestSearchProjection_EmptyFieldsOmittedFromFullText(t *testing.T) {
	tr := &ent.Transcript{ID: "t2", Title: "Only Title"}
	doc := SearchProjection(tr, nil, nil)
	assert.Equal(t, "Only Title", doc.FullText)
}
